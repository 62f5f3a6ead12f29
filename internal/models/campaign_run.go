package models

import (
	"time"

	"github.com/google/uuid"
)

// Run statuses
const (
	RunStatusCompleted = "completed"
	RunStatusPartial   = "partial"
	RunStatusFailed    = "failed"
)

// CampaignRun records one batch execution. VideoIDs holds the successes in
// dispatch order; Errors holds the failure messages and is not positionally
// tied to VideoIDs.
type CampaignRun struct {
	ID              uuid.UUID  `json:"id"`
	CampaignID      uuid.UUID  `json:"campaign_id"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	Status          string     `json:"status"`
	TotalVideos     int        `json:"total_videos"`
	CompletedVideos int        `json:"completed_videos"`
	FailedVideos    int        `json:"failed_videos"`
	VideoIDs        []string   `json:"video_ids"`
	Errors          []string   `json:"errors"`
}

// RunStatusFor classifies a finished batch by its failure count.
func RunStatusFor(completed, failed int) string {
	switch {
	case failed == 0:
		return RunStatusCompleted
	case completed == 0:
		return RunStatusFailed
	default:
		return RunStatusPartial
	}
}

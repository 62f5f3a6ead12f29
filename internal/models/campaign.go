package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storyreel/backend/internal/apperrors"
	"github.com/storyreel/backend/internal/schedule"
)

// Campaign statuses
const (
	CampaignStatusActive = "active"
	CampaignStatusPaused = "paused"
)

// Valid status transitions: from -> []to
var ValidCampaignTransitions = map[string][]string{
	CampaignStatusActive: {CampaignStatusPaused},
	CampaignStatusPaused: {CampaignStatusActive},
}

func IsValidTransition(from, to string) bool {
	for _, t := range ValidCampaignTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

const (
	MinVideosPerBatch = 1
	MaxVideosPerBatch = 20
)

type Campaign struct {
	ID     uuid.UUID `json:"id"`
	UserID uuid.UUID `json:"user_id"`
	Name   string    `json:"name"`
	Status string    `json:"status"`

	Schedule schedule.Schedule `json:"schedule"`

	// Generation parameters
	Sources          []string `json:"sources"`
	Subreddits       []string `json:"subreddits"`
	RedditURLs       []string `json:"reddit_urls"`
	UseRedditURLs    bool     `json:"use_reddit_urls"`
	Backgrounds      []string `json:"backgrounds"`
	Voices           []string `json:"voices"`
	VideosPerBatch   int      `json:"videos_per_batch"`
	AutoPostToTikTok bool     `json:"auto_post_to_tiktok"`

	// Runtime state
	NextRunAt        *time.Time `json:"next_run_at,omitempty"`
	LastRunAt        *time.Time `json:"last_run_at,omitempty"`
	LastRunStartedAt *time.Time `json:"last_run_started_at,omitempty"`
	LockOwner        *uuid.UUID `json:"-"`
	LockExpiresAt    *time.Time `json:"-"`
	// CurrentlyRunning is derived from the lease: owner set and not expired.
	CurrentlyRunning bool       `json:"currently_running"`
	LastFailureAt    *time.Time `json:"last_failure_at,omitempty"`
	FailureReason    *string    `json:"failure_reason,omitempty"`

	// Counters
	TotalVideosGenerated int `json:"total_videos_generated"`
	TotalVideosPosted    int `json:"total_videos_posted"`
	FailedGenerations    int `json:"failed_generations"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the full campaign configuration, schedule included.
func (c *Campaign) Validate() error {
	if c.Name == "" {
		return apperrors.Configuration("name is required")
	}
	if err := c.Schedule.Validate(); err != nil {
		return err
	}
	return c.ValidateGeneration()
}

// ValidateGeneration checks only what a batch dispatch needs; it runs again
// right before fan-out so a stale record cannot slip through.
func (c *Campaign) ValidateGeneration() error {
	if c.VideosPerBatch < MinVideosPerBatch || c.VideosPerBatch > MaxVideosPerBatch {
		return apperrors.Configuration("videos_per_batch must be between %d and %d", MinVideosPerBatch, MaxVideosPerBatch)
	}
	if len(c.Sources) == 0 {
		return apperrors.Configuration("sources must not be empty")
	}
	if len(c.Backgrounds) == 0 {
		return apperrors.Configuration("backgrounds must not be empty")
	}
	if len(c.Voices) == 0 {
		return apperrors.Configuration("voices must not be empty")
	}
	if c.UseRedditURLs {
		if len(c.RedditURLs) == 0 {
			return apperrors.Configuration("reddit_urls must not be empty when use_reddit_urls is set")
		}
	} else if len(c.Subreddits) == 0 {
		return apperrors.Configuration("subreddits must not be empty")
	}
	return nil
}

// StoryPool returns the authoritative story source list; exactly one of
// subreddits and reddit_urls applies, selected by use_reddit_urls.
func (c *Campaign) StoryPool() []string {
	if c.UseRedditURLs {
		return c.RedditURLs
	}
	return c.Subreddits
}

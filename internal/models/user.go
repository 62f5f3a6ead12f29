package models

import (
	"time"

	"github.com/google/uuid"
)

// Plans
const (
	PlanFree    = "free"
	PlanCreator = "creator"
	PlanStudio  = "studio"
)

// planBatchLimits caps videos_per_batch by subscription plan.
var planBatchLimits = map[string]int{
	PlanFree:    3,
	PlanCreator: 10,
	PlanStudio:  MaxVideosPerBatch,
}

// MaxVideosForPlan returns the batch-size cap for a plan; unknown plans get
// the free tier.
func MaxVideosForPlan(plan string) int {
	if limit, ok := planBatchLimits[plan]; ok {
		return limit
	}
	return planBatchLimits[PlanFree]
}

type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	APIKey    string    `json:"-"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"created_at"`
}

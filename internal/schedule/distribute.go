package schedule

import (
	"fmt"

	"github.com/storyreel/backend/internal/apperrors"
)

const (
	minSlotsPerDay = 2
	maxSlotsPerDay = 12
)

// DistributeTimes produces n HH:MM slots spaced evenly across 24 hours,
// anchored at 00:00. Deterministic for a given n; spacing is exact when n
// divides 1440 and within one minute otherwise.
func DistributeTimes(n int) ([]string, error) {
	if n < minSlotsPerDay || n > maxSlotsPerDay {
		return nil, apperrors.Configuration("times_per_day must be between %d and %d, got %d", minSlotsPerDay, maxSlotsPerDay, n)
	}

	times := make([]string, n)
	for i := 0; i < n; i++ {
		minutes := i * 1440 / n
		times[i] = fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
	}
	return times, nil
}

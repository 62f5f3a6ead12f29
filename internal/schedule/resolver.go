package schedule

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/storyreel/backend/internal/apperrors"
)

// Frequency is a closed enum; Resolve matches it exhaustively and rejects
// anything else instead of falling through to a default.
type Frequency string

const (
	FrequencyDaily       Frequency = "daily"
	FrequencyTwiceDaily  Frequency = "twice-daily"
	FrequencyInterval    Frequency = "interval"
	FrequencyTimesPerDay Frequency = "times-per-day"
	FrequencyCustom      Frequency = "custom"
)

// Schedule is a campaign's recurrence configuration. Only the fields the
// chosen Frequency needs are consulted; Validate enforces that they are set.
type Schedule struct {
	Frequency        Frequency `json:"frequency"`
	ScheduleTime     string    `json:"schedule_time,omitempty"`     // HH:MM anchor for daily/twice-daily
	IntervalHours    int       `json:"interval_hours,omitempty"`    // interval
	TimesPerDay      int       `json:"times_per_day,omitempty"`     // times-per-day
	DistributedTimes []string  `json:"distributed_times,omitempty"` // times-per-day slots
	CustomTimes      []string  `json:"custom_times,omitempty"`      // custom slots
	// TimezoneOffsetMin is minutes east of UTC; positive means local
	// wall-clock is ahead of UTC.
	TimezoneOffsetMin int `json:"timezone_offset_min"`
}

func (s Schedule) Validate() error {
	switch s.Frequency {
	case FrequencyDaily, FrequencyTwiceDaily:
		if _, _, err := ParseClock(s.ScheduleTime); err != nil {
			return apperrors.Configuration("schedule_time: %v", err)
		}
	case FrequencyInterval:
		if s.IntervalHours < 1 {
			return apperrors.Configuration("interval_hours must be at least 1")
		}
	case FrequencyTimesPerDay:
		if s.TimesPerDay < 2 || s.TimesPerDay > 12 {
			return apperrors.Configuration("times_per_day must be between 2 and 12")
		}
		if len(s.DistributedTimes) != s.TimesPerDay {
			return apperrors.Configuration("distributed_times must contain exactly %d entries", s.TimesPerDay)
		}
		if err := validateClockList(s.DistributedTimes, "distributed_times"); err != nil {
			return err
		}
	case FrequencyCustom:
		if len(s.CustomTimes) == 0 {
			return apperrors.Configuration("custom_times must not be empty")
		}
		if err := validateClockList(s.CustomTimes, "custom_times"); err != nil {
			return err
		}
	default:
		return apperrors.Configuration("unknown frequency %q", s.Frequency)
	}
	return nil
}

// Resolve computes the next run time strictly after ref (except for the
// interval frequency, which is anchored to lastRun when one exists).
func Resolve(s Schedule, ref time.Time, lastRun *time.Time) (time.Time, error) {
	loc := s.location()

	switch s.Frequency {
	case FrequencyDaily:
		h, m, err := ParseClock(s.ScheduleTime)
		if err != nil {
			return time.Time{}, apperrors.Configuration("schedule_time: %v", err)
		}
		return nextOccurrence(ref, h, m, loc), nil

	case FrequencyTwiceDaily:
		h, m, err := ParseClock(s.ScheduleTime)
		if err != nil {
			return time.Time{}, apperrors.Configuration("schedule_time: %v", err)
		}
		first := nextOccurrence(ref, h, m, loc)
		second := nextOccurrence(ref, (h+12)%24, m, loc)
		if second.Before(first) {
			return second, nil
		}
		return first, nil

	case FrequencyInterval:
		if s.IntervalHours < 1 {
			return time.Time{}, apperrors.Configuration("interval_hours must be at least 1")
		}
		base := ref
		if lastRun != nil {
			base = *lastRun
		}
		return base.Add(time.Duration(s.IntervalHours) * time.Hour), nil

	case FrequencyTimesPerDay:
		if len(s.DistributedTimes) == 0 {
			return time.Time{}, apperrors.Configuration("distributed_times must not be empty")
		}
		return nextSlot(ref, s.DistributedTimes, loc)

	case FrequencyCustom:
		if len(s.CustomTimes) == 0 {
			return time.Time{}, apperrors.Configuration("custom_times must not be empty")
		}
		return nextSlot(ref, s.CustomTimes, loc)

	default:
		return time.Time{}, apperrors.Configuration("unknown frequency %q", s.Frequency)
	}
}

func (s Schedule) location() *time.Location {
	if s.TimezoneOffsetMin == 0 {
		return time.UTC
	}
	return time.FixedZone(fmt.Sprintf("UTC%+d", s.TimezoneOffsetMin), s.TimezoneOffsetMin*60)
}

// nextOccurrence returns the first time strictly after ref whose local
// wall-clock reads hh:mm in loc.
func nextOccurrence(ref time.Time, hour, min int, loc *time.Location) time.Time {
	local := ref.In(loc)
	cand := time.Date(local.Year(), local.Month(), local.Day(), hour, min, 0, 0, loc)
	if !cand.After(ref) {
		cand = cand.AddDate(0, 0, 1)
	}
	return cand
}

// nextSlot picks the earliest slot strictly after ref, wrapping to the
// earliest slot of the next day when all of today's slots have passed.
func nextSlot(ref time.Time, slots []string, loc *time.Location) (time.Time, error) {
	parsed := make([]int, 0, len(slots)) // minutes since local midnight
	for _, slot := range slots {
		h, m, err := ParseClock(slot)
		if err != nil {
			return time.Time{}, apperrors.Configuration("slot %q: %v", slot, err)
		}
		parsed = append(parsed, h*60+m)
	}
	sort.Ints(parsed)

	local := ref.In(loc)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	for _, minutes := range parsed {
		cand := midnight.Add(time.Duration(minutes) * time.Minute)
		if cand.After(ref) {
			return cand, nil
		}
	}
	return midnight.AddDate(0, 0, 1).Add(time.Duration(parsed[0]) * time.Minute), nil
}

func validateClockList(slots []string, field string) error {
	for _, slot := range slots {
		if _, _, err := ParseClock(slot); err != nil {
			return apperrors.Configuration("%s: %v", field, err)
		}
	}
	return nil
}

// ParseClock parses a "HH:MM" wall-clock string.
func ParseClock(s string) (hour, min int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", s)
	}
	min, err = strconv.Atoi(parts[1])
	if err != nil || min < 0 || min > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", s)
	}
	return hour, min, nil
}

package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/storyreel/backend/internal/apperrors"
)

func mustResolve(t *testing.T, s Schedule, ref time.Time, lastRun *time.Time) time.Time {
	t.Helper()
	got, err := Resolve(s, ref, lastRun)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	return got
}

func utc(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.UTC)
}

func TestResolveDaily(t *testing.T) {
	s := Schedule{Frequency: FrequencyDaily, ScheduleTime: "09:00"}

	tests := []struct {
		name string
		ref  time.Time
		want time.Time
	}{
		{"before anchor same day", utc(2025, 3, 10, 8, 0), utc(2025, 3, 10, 9, 0)},
		{"after anchor rolls to tomorrow", utc(2025, 3, 10, 10, 0), utc(2025, 3, 11, 9, 0)},
		{"exactly at anchor rolls to tomorrow", utc(2025, 3, 10, 9, 0), utc(2025, 3, 11, 9, 0)},
		{"one minute before", utc(2025, 3, 10, 8, 59), utc(2025, 3, 10, 9, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustResolve(t, s, tt.ref, nil)
			if !got.Equal(tt.want) {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveDailyWithOffset(t *testing.T) {
	// +120 means local wall-clock is two hours ahead of UTC, so local 09:00
	// is 07:00 UTC.
	s := Schedule{Frequency: FrequencyDaily, ScheduleTime: "09:00", TimezoneOffsetMin: 120}

	got := mustResolve(t, s, utc(2025, 3, 10, 6, 0), nil)
	if want := utc(2025, 3, 10, 7, 0); !got.Equal(want) {
		t.Errorf("Resolve = %v, want %v (UTC)", got, want)
	}

	// Already past local 09:00 → tomorrow.
	got = mustResolve(t, s, utc(2025, 3, 10, 8, 0), nil)
	if want := utc(2025, 3, 11, 7, 0); !got.Equal(want) {
		t.Errorf("Resolve = %v, want %v (UTC)", got, want)
	}
}

func TestResolveTwiceDaily(t *testing.T) {
	s := Schedule{Frequency: FrequencyTwiceDaily, ScheduleTime: "09:00"}

	tests := []struct {
		name string
		ref  time.Time
		want time.Time
	}{
		{"morning slot next", utc(2025, 3, 10, 7, 0), utc(2025, 3, 10, 9, 0)},
		{"evening slot next", utc(2025, 3, 10, 12, 0), utc(2025, 3, 10, 21, 0)},
		{"both passed rolls to tomorrow morning", utc(2025, 3, 10, 22, 0), utc(2025, 3, 11, 9, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustResolve(t, s, tt.ref, nil)
			if !got.Equal(tt.want) {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveTwiceDailyLateAnchor(t *testing.T) {
	// Anchor 18:00 → companion slot is 06:00 next morning.
	s := Schedule{Frequency: FrequencyTwiceDaily, ScheduleTime: "18:00"}

	got := mustResolve(t, s, utc(2025, 3, 10, 20, 0), nil)
	if want := utc(2025, 3, 11, 6, 0); !got.Equal(want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveInterval(t *testing.T) {
	s := Schedule{Frequency: FrequencyInterval, IntervalHours: 4}
	ref := utc(2025, 3, 10, 12, 0)

	t.Run("no prior run anchors to reference", func(t *testing.T) {
		got := mustResolve(t, s, ref, nil)
		if want := utc(2025, 3, 10, 16, 0); !got.Equal(want) {
			t.Errorf("Resolve = %v, want %v", got, want)
		}
	})

	t.Run("prior run anchors to last run exactly", func(t *testing.T) {
		last := utc(2025, 3, 10, 11, 30)
		got := mustResolve(t, s, ref, &last)
		if want := utc(2025, 3, 10, 15, 30); !got.Equal(want) {
			t.Errorf("Resolve = %v, want %v", got, want)
		}
	})

	t.Run("zero interval is rejected", func(t *testing.T) {
		_, err := Resolve(Schedule{Frequency: FrequencyInterval}, ref, nil)
		if !errors.Is(err, apperrors.ErrConfiguration) {
			t.Errorf("expected configuration error, got %v", err)
		}
	})
}

func TestResolveTimesPerDay(t *testing.T) {
	s := Schedule{
		Frequency:        FrequencyTimesPerDay,
		TimesPerDay:      3,
		DistributedTimes: []string{"00:00", "08:00", "16:00"},
	}

	tests := []struct {
		name string
		ref  time.Time
		want time.Time
	}{
		{"between slots", utc(2025, 3, 10, 9, 0), utc(2025, 3, 10, 16, 0)},
		{"before first slot", utc(2025, 3, 9, 23, 0), utc(2025, 3, 10, 0, 0)},
		{"all slots passed wraps to next day", utc(2025, 3, 10, 23, 0), utc(2025, 3, 11, 0, 0)},
		{"exactly on a slot picks the next", utc(2025, 3, 10, 8, 0), utc(2025, 3, 10, 16, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mustResolve(t, s, tt.ref, nil)
			if !got.Equal(tt.want) {
				t.Errorf("Resolve = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveCustom(t *testing.T) {
	s := Schedule{Frequency: FrequencyCustom, CustomTimes: []string{"22:15", "06:30"}}

	// Unsorted input is handled; earliest slot after ref wins.
	got := mustResolve(t, s, utc(2025, 3, 10, 7, 0), nil)
	if want := utc(2025, 3, 10, 22, 15); !got.Equal(want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}

	got = mustResolve(t, s, utc(2025, 3, 10, 23, 0), nil)
	if want := utc(2025, 3, 11, 6, 30); !got.Equal(want) {
		t.Errorf("Resolve = %v, want %v", got, want)
	}
}

func TestResolveConfigurationErrors(t *testing.T) {
	ref := utc(2025, 3, 10, 12, 0)

	tests := []struct {
		name string
		s    Schedule
	}{
		{"empty custom times", Schedule{Frequency: FrequencyCustom}},
		{"empty distributed times", Schedule{Frequency: FrequencyTimesPerDay}},
		{"malformed anchor", Schedule{Frequency: FrequencyDaily, ScheduleTime: "9am"}},
		{"hour out of range", Schedule{Frequency: FrequencyDaily, ScheduleTime: "25:00"}},
		{"unknown frequency", Schedule{Frequency: "weekly"}},
		{"malformed slot", Schedule{Frequency: FrequencyCustom, CustomTimes: []string{"12:xx"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.s, ref, nil)
			if !errors.Is(err, apperrors.ErrConfiguration) {
				t.Errorf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestResolveAlwaysAfterReference(t *testing.T) {
	// Wall-clock frequencies must never return a time at or before ref.
	refs := []time.Time{
		utc(2025, 1, 1, 0, 0),
		utc(2025, 6, 15, 12, 34),
		utc(2025, 12, 31, 23, 59),
	}
	schedules := []Schedule{
		{Frequency: FrequencyDaily, ScheduleTime: "00:00"},
		{Frequency: FrequencyTwiceDaily, ScheduleTime: "12:34"},
		{Frequency: FrequencyTimesPerDay, TimesPerDay: 2, DistributedTimes: []string{"00:00", "12:00"}},
		{Frequency: FrequencyCustom, CustomTimes: []string{"23:59"}},
	}

	for _, ref := range refs {
		for _, s := range schedules {
			got := mustResolve(t, s, ref, nil)
			if !got.After(ref) {
				t.Errorf("Resolve(%s, ref=%v) = %v, not after ref", s.Frequency, ref, got)
			}
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		hour    int
		min     int
		wantErr bool
	}{
		{"09:00", 9, 0, false},
		{"00:00", 0, 0, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"12", 0, 0, true},
		{"", 0, 0, true},
		{"ab:cd", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			h, m, err := ParseClock(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseClock(%q) expected error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q) error: %v", tt.input, err)
			}
			if h != tt.hour || m != tt.min {
				t.Errorf("ParseClock(%q) = %d:%d, want %d:%d", tt.input, h, m, tt.hour, tt.min)
			}
		})
	}
}

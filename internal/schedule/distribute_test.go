package schedule

import (
	"errors"
	"testing"

	"github.com/storyreel/backend/internal/apperrors"
)

func TestDistributeTimesProperties(t *testing.T) {
	for n := 2; n <= 12; n++ {
		times, err := DistributeTimes(n)
		if err != nil {
			t.Fatalf("DistributeTimes(%d) error: %v", n, err)
		}
		if len(times) != n {
			t.Fatalf("DistributeTimes(%d) returned %d slots", n, len(times))
		}

		seen := map[string]bool{}
		prev := -1
		ideal := 1440.0 / float64(n)
		for i, slot := range times {
			h, m, err := ParseClock(slot)
			if err != nil {
				t.Fatalf("DistributeTimes(%d)[%d] = %q not parseable: %v", n, i, slot, err)
			}
			minutes := h*60 + m
			if seen[slot] {
				t.Errorf("DistributeTimes(%d) has duplicate slot %q", n, slot)
			}
			seen[slot] = true
			if minutes <= prev {
				t.Errorf("DistributeTimes(%d) not strictly increasing at %q", n, slot)
			}
			if prev >= 0 {
				gap := float64(minutes - prev)
				if gap < ideal-1 || gap > ideal+1 {
					t.Errorf("DistributeTimes(%d) gap %v before %q, want %v±1", n, gap, slot, ideal)
				}
			}
			prev = minutes
		}

		if times[0] != "00:00" {
			t.Errorf("DistributeTimes(%d) first slot %q, want 00:00", n, times[0])
		}
		// Wrap-around gap closes the 24h span.
		wrapGap := float64(1440 - prev)
		if wrapGap < ideal-1 || wrapGap > ideal+1 {
			t.Errorf("DistributeTimes(%d) wrap gap %v, want %v±1", n, wrapGap, ideal)
		}
	}
}

func TestDistributeTimesKnownValues(t *testing.T) {
	tests := []struct {
		n    int
		want []string
	}{
		{2, []string{"00:00", "12:00"}},
		{3, []string{"00:00", "08:00", "16:00"}},
		{4, []string{"00:00", "06:00", "12:00", "18:00"}},
	}

	for _, tt := range tests {
		times, err := DistributeTimes(tt.n)
		if err != nil {
			t.Fatalf("DistributeTimes(%d) error: %v", tt.n, err)
		}
		for i := range tt.want {
			if times[i] != tt.want[i] {
				t.Errorf("DistributeTimes(%d)[%d] = %q, want %q", tt.n, i, times[i], tt.want[i])
			}
		}
	}
}

func TestDistributeTimesOutOfRange(t *testing.T) {
	for _, n := range []int{-1, 0, 1, 13, 100} {
		_, err := DistributeTimes(n)
		if !errors.Is(err, apperrors.ErrConfiguration) {
			t.Errorf("DistributeTimes(%d) expected configuration error, got %v", n, err)
		}
	}
}

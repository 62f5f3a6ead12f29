package models

import (
	"errors"
	"testing"

	"github.com/storyreel/backend/internal/apperrors"
	"github.com/storyreel/backend/internal/schedule"
)

func validCampaign() *Campaign {
	return &Campaign{
		Name:   "nosleep shorts",
		Status: CampaignStatusActive,
		Schedule: schedule.Schedule{
			Frequency:    schedule.FrequencyDaily,
			ScheduleTime: "09:00",
		},
		Sources:        []string{"reddit"},
		Subreddits:     []string{"nosleep"},
		Backgrounds:    []string{"minecraft"},
		Voices:         []string{"en_male_narration"},
		VideosPerBatch: 3,
	}
}

func TestCampaignValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Campaign)
		ok     bool
	}{
		{"valid", func(c *Campaign) {}, true},
		{"missing name", func(c *Campaign) { c.Name = "" }, false},
		{"batch size zero", func(c *Campaign) { c.VideosPerBatch = 0 }, false},
		{"batch size over cap", func(c *Campaign) { c.VideosPerBatch = 21 }, false},
		{"batch size at cap", func(c *Campaign) { c.VideosPerBatch = 20 }, true},
		{"no sources", func(c *Campaign) { c.Sources = nil }, false},
		{"no backgrounds", func(c *Campaign) { c.Backgrounds = nil }, false},
		{"no voices", func(c *Campaign) { c.Voices = nil }, false},
		{"no subreddits", func(c *Campaign) { c.Subreddits = nil }, false},
		{"reddit urls mode without urls", func(c *Campaign) { c.UseRedditURLs = true }, false},
		{"reddit urls mode ignores subreddits", func(c *Campaign) {
			c.UseRedditURLs = true
			c.RedditURLs = []string{"https://www.reddit.com/r/nosleep/comments/abc/x/"}
			c.Subreddits = nil
		}, true},
		{"bad schedule time", func(c *Campaign) { c.Schedule.ScheduleTime = "noonish" }, false},
		{"times-per-day slot count mismatch", func(c *Campaign) {
			c.Schedule = schedule.Schedule{
				Frequency:        schedule.FrequencyTimesPerDay,
				TimesPerDay:      3,
				DistributedTimes: []string{"00:00", "12:00"},
			}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCampaign()
			tt.mutate(c)
			err := c.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok {
				if !errors.Is(err, apperrors.ErrConfiguration) {
					t.Errorf("Validate() = %v, want configuration error", err)
				}
			}
		})
	}
}

func TestStoryPool(t *testing.T) {
	c := validCampaign()
	c.RedditURLs = []string{"https://www.reddit.com/r/nosleep/comments/abc/x/"}

	if got := c.StoryPool(); len(got) != 1 || got[0] != "nosleep" {
		t.Errorf("StoryPool() = %v, want subreddits", got)
	}

	c.UseRedditURLs = true
	if got := c.StoryPool(); len(got) != 1 || got[0] != c.RedditURLs[0] {
		t.Errorf("StoryPool() = %v, want reddit urls", got)
	}
}

func TestCampaignTransitions(t *testing.T) {
	tests := []struct {
		from     string
		to       string
		expected bool
	}{
		{CampaignStatusActive, CampaignStatusPaused, true},
		{CampaignStatusPaused, CampaignStatusActive, true},
		{CampaignStatusActive, CampaignStatusActive, false},
		{CampaignStatusPaused, CampaignStatusPaused, false},
		{"deleted", CampaignStatusActive, false},
	}

	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			if got := IsValidTransition(tt.from, tt.to); got != tt.expected {
				t.Errorf("IsValidTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
			}
		})
	}
}

func TestRunStatusFor(t *testing.T) {
	tests := []struct {
		completed int
		failed    int
		want      string
	}{
		{5, 0, RunStatusCompleted},
		{3, 2, RunStatusPartial},
		{0, 5, RunStatusFailed},
		{0, 0, RunStatusCompleted},
	}

	for _, tt := range tests {
		if got := RunStatusFor(tt.completed, tt.failed); got != tt.want {
			t.Errorf("RunStatusFor(%d, %d) = %q, want %q", tt.completed, tt.failed, got, tt.want)
		}
	}
}

func TestMaxVideosForPlan(t *testing.T) {
	tests := []struct {
		plan string
		want int
	}{
		{PlanFree, 3},
		{PlanCreator, 10},
		{PlanStudio, 20},
		{"unknown", 3},
		{"", 3},
	}

	for _, tt := range tests {
		if got := MaxVideosForPlan(tt.plan); got != tt.want {
			t.Errorf("MaxVideosForPlan(%q) = %d, want %d", tt.plan, got, tt.want)
		}
	}
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storyreel/backend/internal/apperrors"
	"github.com/storyreel/backend/internal/models"
	"github.com/storyreel/backend/internal/repositories"
	"github.com/storyreel/backend/internal/schedule"
	"go.uber.org/zap"
)

type CampaignService struct {
	campaignRepo *repositories.CampaignRepo
	runRepo      *repositories.RunRepo
	log          *zap.Logger
}

func NewCampaignService(
	campaignRepo *repositories.CampaignRepo,
	runRepo *repositories.RunRepo,
	log *zap.Logger,
) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		runRepo:      runRepo,
		log:          log,
	}
}

// Create validates and persists a new campaign, active with an initial next
// run already computed. times-per-day campaigns without explicit slots get an
// evenly distributed set.
func (s *CampaignService) Create(ctx context.Context, userID uuid.UUID, c *models.Campaign) error {
	c.UserID = userID
	c.Status = models.CampaignStatusActive

	if c.Schedule.Frequency == schedule.FrequencyTimesPerDay && len(c.Schedule.DistributedTimes) == 0 {
		times, err := schedule.DistributeTimes(c.Schedule.TimesPerDay)
		if err != nil {
			return err
		}
		c.Schedule.DistributedTimes = times
	}

	if err := c.Validate(); err != nil {
		return err
	}

	next, err := schedule.Resolve(c.Schedule, time.Now(), nil)
	if err != nil {
		return err
	}
	c.NextRunAt = &next

	if err := s.campaignRepo.Create(ctx, c); err != nil {
		return err
	}

	s.log.Info("campaign created",
		zap.String("campaign_id", c.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("frequency", string(c.Schedule.Frequency)),
	)
	return nil
}

func (s *CampaignService) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Campaign, error) {
	c, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, apperrors.NotFound("campaign")
	}
	return c, nil
}

func (s *CampaignService) List(ctx context.Context, userID uuid.UUID, f repositories.CampaignFilter) ([]models.Campaign, error) {
	f.UserID = &userID
	return s.campaignRepo.List(ctx, f)
}

// CampaignUpdate carries a partial update; nil fields keep their stored
// value. Any schedule change recomputes the next run.
type CampaignUpdate struct {
	Name             *string
	Schedule         *schedule.Schedule
	Sources          *[]string
	Subreddits       *[]string
	RedditURLs       *[]string
	UseRedditURLs    *bool
	Backgrounds      *[]string
	Voices           *[]string
	VideosPerBatch   *int
	AutoPostToTikTok *bool
}

func (s *CampaignService) Update(ctx context.Context, id, userID uuid.UUID, upd CampaignUpdate) (*models.Campaign, error) {
	c, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Sources != nil {
		c.Sources = *upd.Sources
	}
	if upd.Subreddits != nil {
		c.Subreddits = *upd.Subreddits
	}
	if upd.RedditURLs != nil {
		c.RedditURLs = *upd.RedditURLs
	}
	if upd.UseRedditURLs != nil {
		c.UseRedditURLs = *upd.UseRedditURLs
	}
	if upd.Backgrounds != nil {
		c.Backgrounds = *upd.Backgrounds
	}
	if upd.Voices != nil {
		c.Voices = *upd.Voices
	}
	if upd.VideosPerBatch != nil {
		c.VideosPerBatch = *upd.VideosPerBatch
	}
	if upd.AutoPostToTikTok != nil {
		c.AutoPostToTikTok = *upd.AutoPostToTikTok
	}

	if upd.Schedule != nil {
		c.Schedule = *upd.Schedule
		if c.Schedule.Frequency == schedule.FrequencyTimesPerDay && len(c.Schedule.DistributedTimes) == 0 {
			times, err := schedule.DistributeTimes(c.Schedule.TimesPerDay)
			if err != nil {
				return nil, err
			}
			c.Schedule.DistributedTimes = times
		}
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	if upd.Schedule != nil && c.Status == models.CampaignStatusActive {
		next, err := schedule.Resolve(c.Schedule, time.Now(), nil)
		if err != nil {
			return nil, err
		}
		c.NextRunAt = &next
	}

	if err := s.campaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Pause stops scheduling. next_run_at is left as-is; the due scan ignores
// paused campaigns.
func (s *CampaignService) Pause(ctx context.Context, id, userID uuid.UUID) (*models.Campaign, error) {
	c, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !models.IsValidTransition(c.Status, models.CampaignStatusPaused) {
		return nil, apperrors.Conflict("campaign is not active")
	}
	if err := s.campaignRepo.SetStatus(ctx, id, models.CampaignStatusPaused); err != nil {
		return nil, err
	}
	c.Status = models.CampaignStatusPaused
	return c, nil
}

// Resume reactivates a paused campaign. The stale next run is discarded and
// recomputed from now, so the result is always strictly in the future;
// failure annotations from before the pause are cleared.
func (s *CampaignService) Resume(ctx context.Context, id, userID uuid.UUID) (*models.Campaign, error) {
	c, err := s.GetByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if !models.IsValidTransition(c.Status, models.CampaignStatusActive) {
		return nil, apperrors.Conflict("campaign is not paused")
	}

	next, err := schedule.Resolve(c.Schedule, time.Now(), nil)
	if err != nil {
		return nil, err
	}

	c.Status = models.CampaignStatusActive
	c.NextRunAt = &next
	c.LastFailureAt = nil
	c.FailureReason = nil

	if err := s.campaignRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.log.Info("campaign resumed",
		zap.String("campaign_id", id.String()),
		zap.Time("next_run_at", next),
	)
	return c, nil
}

func (s *CampaignService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	if _, err := s.GetByID(ctx, id, userID); err != nil {
		return err
	}
	return s.campaignRepo.Delete(ctx, id)
}

// Cleanup force-clears run leases on all of the user's campaigns. Scoped to
// the caller; other users' campaigns are untouched.
func (s *CampaignService) Cleanup(ctx context.Context, userID uuid.UUID) (int64, error) {
	cleared, err := s.campaignRepo.CleanupLocks(ctx, userID)
	if err != nil {
		return 0, err
	}
	if cleared > 0 {
		s.log.Info("stuck run locks cleared",
			zap.String("user_id", userID.String()),
			zap.Int64("count", cleared),
		)
	}
	return cleared, nil
}

func (s *CampaignService) ListRuns(ctx context.Context, id, userID uuid.UUID, limit int) ([]models.CampaignRun, error) {
	if _, err := s.GetByID(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.runRepo.ListByCampaign(ctx, id, limit)
}

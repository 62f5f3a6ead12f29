package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storyreel/backend/internal/apperrors"
	"github.com/storyreel/backend/internal/config"
	"github.com/storyreel/backend/internal/events"
	"github.com/storyreel/backend/internal/models"
	"github.com/storyreel/backend/internal/schedule"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CampaignStore is the persistence surface the orchestrator needs. The pgx
// repo satisfies it; tests substitute a fake.
type CampaignStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	ListDue(ctx context.Context, now time.Time, limit int) ([]models.Campaign, error)
	AcquireRunLock(ctx context.Context, id, owner uuid.UUID, ttl time.Duration) (bool, error)
	ReleaseRunLock(ctx context.Context, id, owner uuid.UUID) error
	FinishRun(ctx context.Context, id uuid.UUID, completed, failed int, failureReason *string) error
	UpdateNextRun(ctx context.Context, id uuid.UUID, next time.Time) error
}

type RunStore interface {
	Create(ctx context.Context, run *models.CampaignRun) error
}

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// VideoRenderer is the external rendering worker.
type VideoRenderer interface {
	GenerateVideo(ctx context.Context, req GenerateRequest) (string, error)
}

// StoryFetcher resolves a reddit post URL into a custom story.
type StoryFetcher interface {
	FetchStory(ctx context.Context, postURL string) (*CustomStory, error)
}

// BatchResult is the aggregate outcome of one batch. Success means zero
// failed requests; partial outcomes keep every video id that did come back.
type BatchResult struct {
	RunID        uuid.UUID `json:"run_id"`
	Success      bool      `json:"success"`
	TotalVideos  int       `json:"total_videos"`
	VideoIDs     []string  `json:"video_ids"`
	FailedVideos int       `json:"failed_videos"`
	Errors       []string  `json:"errors"`
}

type BatchService struct {
	campaigns CampaignStore
	runs      RunStore
	users     UserStore
	renderer  VideoRenderer
	reddit    StoryFetcher
	publisher events.Publisher
	cfg       *config.Config
	log       *zap.Logger
}

func NewBatchService(
	campaigns CampaignStore,
	runs RunStore,
	users UserStore,
	renderer VideoRenderer,
	reddit StoryFetcher,
	publisher events.Publisher,
	cfg *config.Config,
	log *zap.Logger,
) *BatchService {
	return &BatchService{
		campaigns: campaigns,
		runs:      runs,
		users:     users,
		renderer:  renderer,
		reddit:    reddit,
		publisher: publisher,
		cfg:       cfg,
		log:       log,
	}
}

// RunBatch fans out the campaign's batch to the rendering worker and records
// the outcome. Requests are independent single attempts: one failure never
// aborts or rolls back the others.
func (s *BatchService) RunBatch(ctx context.Context, campaign *models.Campaign) (*BatchResult, error) {
	user, err := s.users.GetByID(ctx, campaign.UserID)
	if err != nil {
		return nil, err
	}
	if limit := models.MaxVideosForPlan(user.Plan); campaign.VideosPerBatch > limit {
		return nil, apperrors.Quota("plan %s allows at most %d videos per batch", user.Plan, limit)
	}
	if err := campaign.ValidateGeneration(); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	total := campaign.VideosPerBatch

	_ = s.publisher.Publish(ctx, events.StreamRuns, events.Event{
		Type: events.EventRunStarted,
		Payload: map[string]any{
			"campaign_id":  campaign.ID.String(),
			"total_videos": total,
		},
	})

	type outcome struct {
		videoID string
		err     error
	}
	outcomes := make([]outcome, total)

	bound := s.cfg.MaxConcurrentVideos
	if bound <= 0 {
		bound = 1
	}

	// errgroup is used purely as a bounded waitgroup here; workers record
	// their outcome in their own slot and never return an error.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bound)

	for i := 0; i < total; i++ {
		i := i
		g.Go(func() error {
			reqCtx, cancel := context.WithTimeout(gctx, s.cfg.GenerateTimeout)
			defer cancel()

			req, err := s.buildRequest(reqCtx, campaign, i)
			if err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}

			videoID, err := s.renderer.GenerateVideo(reqCtx, *req)
			if err != nil {
				outcomes[i] = outcome{err: err}
				return nil
			}
			outcomes[i] = outcome{videoID: videoID}

			_ = s.publisher.Publish(ctx, events.StreamRuns, events.Event{
				Type: events.EventVideoGenerated,
				Payload: map[string]any{
					"campaign_id": campaign.ID.String(),
					"video_id":    videoID,
				},
			})
			return nil
		})
	}
	_ = g.Wait()

	var videoIDs []string
	var errMsgs []string
	for _, o := range outcomes {
		switch {
		case o.err != nil:
			errMsgs = append(errMsgs, o.err.Error())
		case o.videoID != "":
			videoIDs = append(videoIDs, o.videoID)
		}
	}
	failed := len(errMsgs)
	completed := len(videoIDs)

	completedAt := time.Now()
	run := &models.CampaignRun{
		CampaignID:      campaign.ID,
		StartedAt:       startedAt,
		CompletedAt:     &completedAt,
		Status:          models.RunStatusFor(completed, failed),
		TotalVideos:     total,
		CompletedVideos: completed,
		FailedVideos:    failed,
		VideoIDs:        videoIDs,
		Errors:          errMsgs,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		s.log.Error("failed to persist campaign run", zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
	}

	var failureReason *string
	if failed > 0 {
		reason := errMsgs[0]
		failureReason = &reason
	}
	if err := s.campaigns.FinishRun(ctx, campaign.ID, completed, failed, failureReason); err != nil {
		s.log.Error("failed to update campaign counters", zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
	}

	_ = s.publisher.Publish(ctx, events.StreamRuns, events.Event{
		Type: events.EventRunCompleted,
		Payload: map[string]any{
			"campaign_id":      campaign.ID.String(),
			"run_id":           run.ID.String(),
			"status":           run.Status,
			"completed_videos": completed,
			"failed_videos":    failed,
		},
	})

	s.log.Info("batch finished",
		zap.String("campaign_id", campaign.ID.String()),
		zap.String("status", run.Status),
		zap.Int("completed", completed),
		zap.Int("failed", failed),
	)

	return &BatchResult{
		RunID:        run.ID,
		Success:      failed == 0,
		TotalVideos:  total,
		VideoIDs:     videoIDs,
		FailedVideos: failed,
		Errors:       errMsgs,
	}, nil
}

// buildRequest assembles the i-th generation request, rotating through the
// campaign's pools so a batch spreads across its configured inputs.
func (s *BatchService) buildRequest(ctx context.Context, campaign *models.Campaign, i int) (*GenerateRequest, error) {
	req := &GenerateRequest{
		Voice:      campaign.Voices[i%len(campaign.Voices)],
		Background: campaign.Backgrounds[i%len(campaign.Backgrounds)],
	}

	if campaign.UseRedditURLs {
		postURL := campaign.RedditURLs[i%len(campaign.RedditURLs)]
		story, err := s.reddit.FetchStory(ctx, postURL)
		if err != nil {
			return nil, err
		}
		req.CustomStory = story
		req.Subreddit = story.Subreddit
		return req, nil
	}

	req.Subreddit = campaign.Subreddits[i%len(campaign.Subreddits)]
	return req, nil
}

// ExecuteAdHoc runs a one-off batch outside the recurring schedule. It takes
// the same lease as the scheduler so an ad hoc run cannot overlap a scheduled
// one, and it leaves next_run_at untouched.
func (s *BatchService) ExecuteAdHoc(ctx context.Context, campaignID, userID uuid.UUID) (*BatchResult, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.UserID != userID {
		return nil, apperrors.NotFound("campaign")
	}

	owner := uuid.New()
	acquired, err := s.campaigns.AcquireRunLock(ctx, campaign.ID, owner, s.cfg.RunLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, apperrors.Conflict("campaign has a batch in flight")
	}
	defer func() {
		if err := s.campaigns.ReleaseRunLock(context.WithoutCancel(ctx), campaign.ID, owner); err != nil {
			s.log.Error("failed to release run lock", zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
		}
	}()

	return s.RunBatch(ctx, campaign)
}

// RunDue scans for due campaigns and processes each under its own lease.
// Campaigns are independent, so they run concurrently; the call returns once
// every batch started by this tick has finished.
func (s *BatchService) RunDue(ctx context.Context) {
	now := time.Now()
	due, err := s.campaigns.ListDue(ctx, now, s.cfg.DueScanLimit)
	if err != nil {
		s.log.Error("due campaign scan failed", zap.Error(err))
		return
	}
	if len(due) == 0 {
		return
	}

	s.log.Info("due campaigns found", zap.Int("count", len(due)))

	sem := make(chan struct{}, s.campaignBound())
	var wg sync.WaitGroup
	for i := range due {
		campaign := due[i]
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			s.processDue(ctx, &campaign)
		}()
	}
	wg.Wait()
}

func (s *BatchService) campaignBound() int {
	if s.cfg.MaxConcurrentCampaigns <= 0 {
		return 1
	}
	return s.cfg.MaxConcurrentCampaigns
}

// processDue is one scheduled execution: lease, batch, write-back, reschedule.
func (s *BatchService) processDue(ctx context.Context, campaign *models.Campaign) {
	owner := uuid.New()
	acquired, err := s.campaigns.AcquireRunLock(ctx, campaign.ID, owner, s.cfg.RunLockTTL)
	if err != nil {
		s.log.Error("run lock acquisition failed", zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
		return
	}
	if !acquired {
		// Another worker got there first, or the lease is still live.
		return
	}
	defer func() {
		if err := s.campaigns.ReleaseRunLock(context.WithoutCancel(ctx), campaign.ID, owner); err != nil {
			s.log.Error("failed to release run lock", zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
		}
	}()

	if _, err := s.RunBatch(ctx, campaign); err != nil {
		// Pre-dispatch rejection (quota, configuration): annotate the failure
		// but keep the campaign on its schedule.
		reason := err.Error()
		if ferr := s.campaigns.FinishRun(ctx, campaign.ID, 0, 0, &reason); ferr != nil {
			s.log.Error("failed to record batch rejection", zap.String("campaign_id", campaign.ID.String()), zap.Error(ferr))
		}
		s.log.Warn("batch rejected before dispatch", zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
	}

	lastRun := time.Now()
	next, err := schedule.Resolve(campaign.Schedule, lastRun, &lastRun)
	if err != nil {
		s.log.Error("next run computation failed", zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
		return
	}
	if err := s.campaigns.UpdateNextRun(ctx, campaign.ID, next); err != nil {
		s.log.Error("failed to store next run", zap.String("campaign_id", campaign.ID.String()), zap.Error(err))
		return
	}

	s.log.Info("campaign rescheduled",
		zap.String("campaign_id", campaign.ID.String()),
		zap.Time("next_run_at", next),
	)
}

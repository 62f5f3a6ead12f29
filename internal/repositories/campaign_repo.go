package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storyreel/backend/internal/apperrors"
	"github.com/storyreel/backend/internal/models"
)

const campaignColumns = `
	id, user_id, name, status,
	frequency, schedule_time, interval_hours, times_per_day,
	distributed_times, custom_times, timezone_offset_min,
	sources, subreddits, reddit_urls, use_reddit_urls, backgrounds, voices,
	videos_per_batch, auto_post_to_tiktok,
	next_run_at, last_run_at, last_run_started_at,
	lock_owner, lock_expires_at,
	(lock_owner IS NOT NULL AND lock_expires_at > now()) AS currently_running,
	last_failure_at, failure_reason,
	total_videos_generated, total_videos_posted, failed_generations,
	created_at, updated_at`

type CampaignRepo struct {
	pool *pgxpool.Pool
}

func NewCampaignRepo(pool *pgxpool.Pool) *CampaignRepo {
	return &CampaignRepo{pool: pool}
}

func scanCampaign(row pgx.Row) (*models.Campaign, error) {
	var c models.Campaign
	err := row.Scan(
		&c.ID, &c.UserID, &c.Name, &c.Status,
		&c.Schedule.Frequency, &c.Schedule.ScheduleTime, &c.Schedule.IntervalHours, &c.Schedule.TimesPerDay,
		&c.Schedule.DistributedTimes, &c.Schedule.CustomTimes, &c.Schedule.TimezoneOffsetMin,
		&c.Sources, &c.Subreddits, &c.RedditURLs, &c.UseRedditURLs, &c.Backgrounds, &c.Voices,
		&c.VideosPerBatch, &c.AutoPostToTikTok,
		&c.NextRunAt, &c.LastRunAt, &c.LastRunStartedAt,
		&c.LockOwner, &c.LockExpiresAt,
		&c.CurrentlyRunning,
		&c.LastFailureAt, &c.FailureReason,
		&c.TotalVideosGenerated, &c.TotalVideosPosted, &c.FailedGenerations,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("campaign")
		}
		return nil, err
	}
	return &c, nil
}

func (r *CampaignRepo) Create(ctx context.Context, c *models.Campaign) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO campaigns (
			user_id, name, status,
			frequency, schedule_time, interval_hours, times_per_day,
			distributed_times, custom_times, timezone_offset_min,
			sources, subreddits, reddit_urls, use_reddit_urls, backgrounds, voices,
			videos_per_batch, auto_post_to_tiktok, next_run_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at
	`,
		c.UserID, c.Name, c.Status,
		c.Schedule.Frequency, c.Schedule.ScheduleTime, c.Schedule.IntervalHours, c.Schedule.TimesPerDay,
		c.Schedule.DistributedTimes, c.Schedule.CustomTimes, c.Schedule.TimezoneOffsetMin,
		c.Sources, c.Subreddits, c.RedditURLs, c.UseRedditURLs, c.Backgrounds, c.Voices,
		c.VideosPerBatch, c.AutoPostToTikTok, c.NextRunAt,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (r *CampaignRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	row := r.pool.QueryRow(ctx, `SELECT`+campaignColumns+` FROM campaigns WHERE id = $1`, id)
	return scanCampaign(row)
}

func (r *CampaignRepo) Update(ctx context.Context, c *models.Campaign) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET
			name = $1, status = $2,
			frequency = $3, schedule_time = $4, interval_hours = $5, times_per_day = $6,
			distributed_times = $7, custom_times = $8, timezone_offset_min = $9,
			sources = $10, subreddits = $11, reddit_urls = $12, use_reddit_urls = $13,
			backgrounds = $14, voices = $15,
			videos_per_batch = $16, auto_post_to_tiktok = $17,
			next_run_at = $18, last_failure_at = $19, failure_reason = $20,
			updated_at = now()
		WHERE id = $21
	`,
		c.Name, c.Status,
		c.Schedule.Frequency, c.Schedule.ScheduleTime, c.Schedule.IntervalHours, c.Schedule.TimesPerDay,
		c.Schedule.DistributedTimes, c.Schedule.CustomTimes, c.Schedule.TimezoneOffsetMin,
		c.Sources, c.Subreddits, c.RedditURLs, c.UseRedditURLs,
		c.Backgrounds, c.Voices,
		c.VideosPerBatch, c.AutoPostToTikTok,
		c.NextRunAt, c.LastFailureAt, c.FailureReason,
		c.ID,
	)
	return err
}

func (r *CampaignRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	return err
}

type CampaignFilter struct {
	UserID *uuid.UUID
	Status *string
	Limit  int
	Offset int
}

func (r *CampaignRepo) List(ctx context.Context, f CampaignFilter) ([]models.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns`
	args := []any{}
	argIdx := 1
	where := []string{}

	if f.UserID != nil {
		where = append(where, fmt.Sprintf("user_id = $%d", argIdx))
		args = append(args, *f.UserID)
		argIdx++
	}
	if f.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *f.Status)
		argIdx++
	}

	if len(where) > 0 {
		query += " WHERE "
		for i, w := range where {
			if i > 0 {
				query += " AND "
			}
			query += w
		}
	}

	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

// ListDue returns active campaigns whose next run has arrived and whose run
// lease is free or expired.
func (r *CampaignRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]models.Campaign, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+campaignColumns+`
		FROM campaigns
		WHERE status = $1
		  AND next_run_at IS NOT NULL AND next_run_at <= $2
		  AND (lock_owner IS NULL OR lock_expires_at < now())
		ORDER BY next_run_at ASC
		LIMIT $3
	`, models.CampaignStatusActive, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, *c)
	}
	return campaigns, rows.Err()
}

// AcquireRunLock takes the campaign's run lease with a single conditional
// write. The lease self-expires after ttl, so a crashed worker cannot strand
// the campaign. Returns false when another owner holds a live lease or the
// campaign is not active.
func (r *CampaignRepo) AcquireRunLock(ctx context.Context, id, owner uuid.UUID, ttl time.Duration) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET lock_owner = $2,
		    lock_expires_at = now() + make_interval(secs => $3),
		    last_run_started_at = now()
		WHERE id = $1
		  AND status = $4
		  AND (lock_owner IS NULL OR lock_expires_at < now())
	`, id, owner, ttl.Seconds(), models.CampaignStatusActive)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ReleaseRunLock clears the lease, but only for the owner that took it.
func (r *CampaignRepo) ReleaseRunLock(ctx context.Context, id, owner uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET lock_owner = NULL, lock_expires_at = NULL
		WHERE id = $1 AND lock_owner = $2
	`, id, owner)
	return err
}

// CleanupLocks force-clears every lease held on the user's campaigns. This is
// the operator escape hatch for runs that never came back.
func (r *CampaignRepo) CleanupLocks(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET lock_owner = NULL, lock_expires_at = NULL, last_run_started_at = NULL
		WHERE user_id = $1 AND lock_owner IS NOT NULL
	`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// FinishRun applies a batch outcome: counter increments, last_run_at, and the
// failure annotation. A nil failureReason clears any previous annotation; the
// campaign never auto-pauses on failure.
func (r *CampaignRepo) FinishRun(ctx context.Context, id uuid.UUID, completed, failed int, failureReason *string) error {
	var lastFailureAt *time.Time
	if failureReason != nil {
		now := time.Now()
		lastFailureAt = &now
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns
		SET total_videos_generated = total_videos_generated + $2,
		    failed_generations = failed_generations + $3,
		    last_run_at = now(),
		    last_failure_at = $4,
		    failure_reason = $5,
		    updated_at = now()
		WHERE id = $1
	`, id, completed, failed, lastFailureAt, failureReason)
	return err
}

// UpdateNextRun sets the next scheduled run time.
func (r *CampaignRepo) UpdateNextRun(ctx context.Context, id uuid.UUID, next time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET next_run_at = $2, updated_at = now() WHERE id = $1
	`, id, next)
	return err
}

// SetStatus changes the lifecycle status and, for a resume, the recomputed
// next run; failure annotations are cleared on resume by the service layer
// passing them through Update.
func (r *CampaignRepo) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE campaigns SET status = $2, updated_at = now() WHERE id = $1
	`, id, status)
	return err
}

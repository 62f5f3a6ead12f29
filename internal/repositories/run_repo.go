package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storyreel/backend/internal/models"
)

type RunRepo struct {
	pool *pgxpool.Pool
}

func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

func (r *RunRepo) Create(ctx context.Context, run *models.CampaignRun) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO campaign_runs (
			campaign_id, started_at, completed_at, status,
			total_videos, completed_videos, failed_videos, video_ids, errors
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`,
		run.CampaignID, run.StartedAt, run.CompletedAt, run.Status,
		run.TotalVideos, run.CompletedVideos, run.FailedVideos, run.VideoIDs, run.Errors,
	).Scan(&run.ID)
}

func (r *RunRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit int) ([]models.CampaignRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, campaign_id, started_at, completed_at, status,
		       total_videos, completed_videos, failed_videos, video_ids, errors
		FROM campaign_runs
		WHERE campaign_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, campaignID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.CampaignRun
	for rows.Next() {
		var run models.CampaignRun
		if err := rows.Scan(
			&run.ID, &run.CampaignID, &run.StartedAt, &run.CompletedAt, &run.Status,
			&run.TotalVideos, &run.CompletedVideos, &run.FailedVideos, &run.VideoIDs, &run.Errors,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storyreel/backend/internal/apperrors"
	"github.com/storyreel/backend/internal/models"
)

type CredentialRepo struct {
	pool *pgxpool.Pool
}

func NewCredentialRepo(pool *pgxpool.Pool) *CredentialRepo {
	return &CredentialRepo{pool: pool}
}

func (r *CredentialRepo) Upsert(ctx context.Context, c *models.Credential) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO credentials (user_id, platform, access_token, refresh_token, expires_at, last_refreshed, needs_reconnect)
		VALUES ($1, $2, $3, $4, $5, $6, false)
		ON CONFLICT (user_id, platform) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			expires_at = EXCLUDED.expires_at,
			last_refreshed = EXCLUDED.last_refreshed,
			needs_reconnect = false,
			updated_at = now()
	`, c.UserID, c.Platform, c.AccessToken, c.RefreshToken, c.ExpiresAt, c.LastRefreshed)
	return err
}

func (r *CredentialRepo) Get(ctx context.Context, userID uuid.UUID, platform string) (*models.Credential, error) {
	var c models.Credential
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, platform, access_token, refresh_token, expires_at, last_refreshed, needs_reconnect, created_at, updated_at
		FROM credentials WHERE user_id = $1 AND platform = $2
	`, userID, platform).Scan(
		&c.UserID, &c.Platform, &c.AccessToken, &c.RefreshToken,
		&c.ExpiresAt, &c.LastRefreshed, &c.NeedsReconnect, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("credential")
		}
		return nil, err
	}
	return &c, nil
}

func (r *CredentialRepo) ListByPlatform(ctx context.Context, platform string) ([]models.Credential, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT user_id, platform, access_token, refresh_token, expires_at, last_refreshed, needs_reconnect, created_at, updated_at
		FROM credentials
		WHERE platform = $1
		ORDER BY user_id
	`, platform)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var creds []models.Credential
	for rows.Next() {
		var c models.Credential
		if err := rows.Scan(
			&c.UserID, &c.Platform, &c.AccessToken, &c.RefreshToken,
			&c.ExpiresAt, &c.LastRefreshed, &c.NeedsReconnect, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		creds = append(creds, c)
	}
	return creds, rows.Err()
}

// UpdateTokens overwrites the token triple and refresh bookkeeping in one
// write after a successful provider refresh.
func (r *CredentialRepo) UpdateTokens(ctx context.Context, userID uuid.UUID, platform, accessToken, refreshToken string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE credentials
		SET access_token = $3, refresh_token = $4, expires_at = $5,
		    last_refreshed = now(), needs_reconnect = false, updated_at = now()
		WHERE user_id = $1 AND platform = $2
	`, userID, platform, accessToken, refreshToken, expiresAt)
	return err
}

// MarkNeedsReconnect flags a credential that can no longer be refreshed
// without the user re-authorizing.
func (r *CredentialRepo) MarkNeedsReconnect(ctx context.Context, userID uuid.UUID, platform string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE credentials SET needs_reconnect = true, updated_at = now()
		WHERE user_id = $1 AND platform = $2
	`, userID, platform)
	return err
}

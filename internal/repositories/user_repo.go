package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/storyreel/backend/internal/apperrors"
	"github.com/storyreel/backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO users (email, api_key, plan)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, u.Email, u.APIKey, u.Plan).Scan(&u.ID, &u.CreatedAt)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.get(ctx, `WHERE id = $1`, id)
}

func (r *UserRepo) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	return r.get(ctx, `WHERE api_key = $1`, apiKey)
}

func (r *UserRepo) get(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, api_key, plan, created_at FROM users `+where,
		arg,
	).Scan(&u.ID, &u.Email, &u.APIKey, &u.Plan, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("user")
		}
		return nil, err
	}
	return &u, nil
}

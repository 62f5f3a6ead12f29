package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/storyreel/backend/internal/config"
	"github.com/storyreel/backend/internal/models"
	"go.uber.org/zap"
)

// CredentialStore is the persistence surface the sweep needs.
type CredentialStore interface {
	ListByPlatform(ctx context.Context, platform string) ([]models.Credential, error)
	UpdateTokens(ctx context.Context, userID uuid.UUID, platform, accessToken, refreshToken string, expiresAt time.Time) error
	MarkNeedsReconnect(ctx context.Context, userID uuid.UUID, platform string) error
}

// Sweep outcome statuses, one per credential examined.
const (
	SweepStatusRefreshed      = "refreshed"
	SweepStatusSkipped        = "skipped"
	SweepStatusNeedsReconnect = "needs_reconnect"
	SweepStatusError          = "error"
)

type SweepStats struct {
	TotalUsers      int `json:"totalUsers"`
	TokensChecked   int `json:"tokensChecked"`
	TokensRefreshed int `json:"tokensRefreshed"`
	Errors          int `json:"errors"`
}

type SweepOutcome struct {
	UserID   uuid.UUID `json:"user_id"`
	Platform string    `json:"platform"`
	Status   string    `json:"status"`
	Error    string    `json:"error,omitempty"`
}

type SweepReport struct {
	Stats   SweepStats     `json:"stats"`
	Results []SweepOutcome `json:"results"`
}

// TokenService refreshes stored third-party credentials before they lapse.
type TokenService struct {
	credentials CredentialStore
	refresher   TokenRefresher
	cfg         *config.Config
	log         *zap.Logger
}

func NewTokenService(credentials CredentialStore, refresher TokenRefresher, cfg *config.Config, log *zap.Logger) *TokenService {
	return &TokenService{
		credentials: credentials,
		refresher:   refresher,
		cfg:         cfg,
		log:         log,
	}
}

// SweepPlatform walks every stored credential for the platform and refreshes
// the ones expiring inside the threshold window. Failures are recorded per
// credential and never stop the sweep.
func (s *TokenService) SweepPlatform(ctx context.Context, platform string) (*SweepReport, error) {
	creds, err := s.credentials.ListByPlatform(ctx, platform)
	if err != nil {
		return nil, err
	}

	report := &SweepReport{
		Stats:   SweepStats{TotalUsers: len(creds)},
		Results: make([]SweepOutcome, 0, len(creds)),
	}

	for _, cred := range creds {
		outcome := s.sweepOne(ctx, &cred)
		report.Results = append(report.Results, outcome)

		report.Stats.TokensChecked++
		switch outcome.Status {
		case SweepStatusRefreshed:
			report.Stats.TokensRefreshed++
		case SweepStatusError:
			report.Stats.Errors++
		}
	}

	s.log.Info("credential sweep finished",
		zap.String("platform", platform),
		zap.Int("total", report.Stats.TotalUsers),
		zap.Int("refreshed", report.Stats.TokensRefreshed),
		zap.Int("errors", report.Stats.Errors),
	)
	return report, nil
}

func (s *TokenService) sweepOne(ctx context.Context, cred *models.Credential) SweepOutcome {
	outcome := SweepOutcome{UserID: cred.UserID, Platform: cred.Platform}

	// No recorded expiry: nothing to act on.
	if cred.ExpiresAt == nil {
		outcome.Status = SweepStatusSkipped
		return outcome
	}
	if time.Until(*cred.ExpiresAt) > s.cfg.RefreshThreshold {
		outcome.Status = SweepStatusSkipped
		return outcome
	}

	if cred.RefreshToken == nil || *cred.RefreshToken == "" {
		if err := s.credentials.MarkNeedsReconnect(ctx, cred.UserID, cred.Platform); err != nil {
			s.log.Error("failed to flag credential for reconnection",
				zap.String("user_id", cred.UserID.String()), zap.Error(err))
		}
		outcome.Status = SweepStatusNeedsReconnect
		return outcome
	}

	refreshCtx, cancel := context.WithTimeout(ctx, s.cfg.RefreshTimeout)
	token, err := s.refresher.Refresh(refreshCtx, *cred.RefreshToken)
	cancel()
	if err != nil {
		s.log.Warn("credential refresh failed",
			zap.String("user_id", cred.UserID.String()),
			zap.String("platform", cred.Platform),
			zap.Error(err),
		)
		outcome.Status = SweepStatusError
		outcome.Error = err.Error()
		return outcome
	}

	if err := s.credentials.UpdateTokens(ctx, cred.UserID, cred.Platform, token.AccessToken, token.RefreshToken, token.ExpiresAt); err != nil {
		outcome.Status = SweepStatusError
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Status = SweepStatusRefreshed
	return outcome
}

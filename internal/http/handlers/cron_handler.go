package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/storyreel/backend/internal/http/dto"
	"github.com/storyreel/backend/internal/models"
	"github.com/storyreel/backend/internal/services"
	"go.uber.org/zap"
)

// CronHandler exposes scheduled maintenance jobs to an external cron caller.
// The routes sit behind CronMiddleware, not user auth.
type CronHandler struct {
	tokenService *services.TokenService
	log          *zap.Logger
}

func NewCronHandler(tokenService *services.TokenService, log *zap.Logger) *CronHandler {
	return &CronHandler{tokenService: tokenService, log: log}
}

func (h *CronHandler) RefreshTikTokTokens(c *fiber.Ctx) error {
	report, err := h.tokenService.SweepPlatform(c.Context(), models.PlatformTikTok)
	if err != nil {
		h.log.Error("token sweep failed", zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: report})
}

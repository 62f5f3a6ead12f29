package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/storyreel/backend/internal/auth"
	"github.com/storyreel/backend/internal/config"
	"github.com/storyreel/backend/internal/http/dto"
	"github.com/storyreel/backend/internal/repositories"
	"go.uber.org/zap"
)

type AuthHandler struct {
	userRepo *repositories.UserRepo
	cfg      *config.Config
	log      *zap.Logger
}

func NewAuthHandler(userRepo *repositories.UserRepo, cfg *config.Config, log *zap.Logger) *AuthHandler {
	return &AuthHandler{userRepo: userRepo, cfg: cfg, log: log}
}

// Token exchanges a long-lived API key for a short-lived session JWT.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.AuthTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request body"})
	}
	if req.APIKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "api_key is required"})
	}

	user, err := h.userRepo.GetByAPIKey(c.Context(), req.APIKey)
	if err != nil {
		h.log.Debug("api key lookup failed", zap.Error(err))
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Error: "invalid api key"})
	}

	token, err := auth.GenerateJWT(h.cfg.JWTSecret, user.ID, user.Plan, h.cfg.JWTExpiration)
	if err != nil {
		h.log.Error("failed to generate jwt", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: "internal server error"})
	}

	return c.JSON(dto.AuthResponse{
		Token: token,
		User:  user,
	})
}

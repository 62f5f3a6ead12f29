package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/storyreel/backend/internal/auth"
	"github.com/storyreel/backend/internal/config"
	"go.uber.org/zap"
)

const (
	CtxUserID = "user_id"
	CtxPlan   = "plan"
)

func AuthMiddleware(cfg *config.Config, log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing authorization header"})
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenStr == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid authorization format"})
		}

		claims, err := auth.ParseJWT(cfg.JWTSecret, tokenStr)
		if err != nil {
			log.Debug("jwt parse error", zap.Error(err))
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid or expired token"})
		}

		c.Locals(CtxUserID, claims.UserID)
		c.Locals(CtxPlan, claims.Plan)

		return c.Next()
	}
}

func GetUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals(CtxUserID).(uuid.UUID)
	return id
}

func GetPlan(c *fiber.Ctx) string {
	plan, _ := c.Locals(CtxPlan).(string)
	return plan
}

// CronMiddleware guards the scheduled-trigger endpoints with a shared secret.
func CronMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.CronSecret == "" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "cron endpoints disabled"})
		}
		token := strings.TrimPrefix(c.Get("Authorization"), "Bearer ")
		if token != cfg.CronSecret {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid cron secret"})
		}
		return c.Next()
	}
}

package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/storyreel/backend/internal/http/dto"
	"github.com/storyreel/backend/internal/middleware"
	"github.com/storyreel/backend/internal/services"
	"go.uber.org/zap"
)

type BatchHandler struct {
	batchService *services.BatchService
	log          *zap.Logger
}

func NewBatchHandler(batchService *services.BatchService, log *zap.Logger) *BatchHandler {
	return &BatchHandler{batchService: batchService, log: log}
}

// GenerateBatch runs a one-off batch for a campaign, outside its schedule.
// The call blocks until every video request in the batch has resolved, so the
// response carries the full per-video outcome.
func (h *BatchHandler) GenerateBatch(c *fiber.Ctx) error {
	var req dto.GenerateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid request"})
	}

	campaignID, err := uuid.Parse(req.CampaignID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "invalid campaign_id"})
	}

	userID := middleware.GetUserID(c)
	result, err := h.batchService.ExecuteAdHoc(c.Context(), campaignID, userID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(dto.SuccessResponse{OK: true, Data: result})
}

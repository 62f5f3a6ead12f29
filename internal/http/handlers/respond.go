package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/storyreel/backend/internal/apperrors"
	"github.com/storyreel/backend/internal/http/dto"
	"github.com/storyreel/backend/internal/middleware"
)

// respondError maps domain error classes onto HTTP statuses. Anything
// unclassified is a 500 with the message withheld.
func respondError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, apperrors.ErrConfiguration):
		status, msg = fiber.StatusBadRequest, err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, msg = fiber.StatusUnauthorized, err.Error()
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, apperrors.ErrQuotaExceeded):
		status, msg = fiber.StatusForbidden, err.Error()
	case errors.Is(err, apperrors.ErrNotFound):
		status, msg = fiber.StatusNotFound, err.Error()
	case errors.Is(err, apperrors.ErrConflict):
		status, msg = fiber.StatusConflict, err.Error()
	case errors.Is(err, apperrors.ErrUpstream):
		status, msg = fiber.StatusBadGateway, err.Error()
	}

	return c.Status(status).JSON(dto.ErrorResponse{
		Error:     msg,
		RequestID: middleware.GetRequestID(c),
	})
}

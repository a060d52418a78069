package middleware

import (
	"errors"

	"wallet-ledger/apperrors"
	"wallet-ledger/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatusFor maps an error from the ledger or the engine to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, apperrors.ErrInvalidState), errors.Is(err, apperrors.ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, apperrors.ErrInsufficientFunds),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrRateUnavailable):
		return fiber.StatusBadRequest
	case errors.Is(err, apperrors.ErrGateway):
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorResponse writes err in the standard envelope. Server errors get a
// generic message; the detail only goes to the log.
func ErrorResponse(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return JsonResponse(c, status, false, "Internal server error!", nil)
	}
	return JsonResponse(c, status, false, err.Error(), nil)
}

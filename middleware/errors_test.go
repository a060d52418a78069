package middleware

import (
	"errors"
	"fmt"
	"testing"

	"wallet-ledger/apperrors"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		apperrors.ErrNotFound:           fiber.StatusNotFound,
		apperrors.ErrInvalidState:       fiber.StatusConflict,
		apperrors.ErrConflict:           fiber.StatusConflict,
		apperrors.ErrInsufficientFunds:  fiber.StatusBadRequest,
		apperrors.ErrValidation:         fiber.StatusBadRequest,
		apperrors.ErrRateUnavailable:    fiber.StatusBadRequest,
		apperrors.ErrGateway:            fiber.StatusBadGateway,
		apperrors.ErrInvariantViolation: fiber.StatusInternalServerError,
		errors.New("boom"):              fiber.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(fmt.Errorf("wrapped: %w", err)), err.Error())
	}
}

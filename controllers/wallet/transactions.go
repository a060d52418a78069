package walletController

import (
	"wallet-ledger/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetTransactionStats returns the caller's transaction counts and sums by status and by type.
func (h *Handler) GetTransactionStats(c *fiber.Ctx) error {
	stats, err := h.engine.TransactionStats(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transaction stats fetched!", stats)
}

func (h *Handler) GetTransaction(c *fiber.Ctx) error {
	id, ok := paramID(c, "id")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid transaction id!", nil)
	}

	txn, err := h.engine.GetTransaction(c.UserContext(), id, middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transaction fetched!", txn)
}

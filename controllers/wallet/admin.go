package walletController

import (
	"wallet-ledger/middleware"
	"wallet-ledger/reconciliation"
	"wallet-ledger/validators"
	walletValidator "wallet-ledger/validators/wallet"

	"github.com/gofiber/fiber/v2"
)

func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}

func (h *Handler) CreateWallet(c *fiber.Ctx) error {
	userID, ok := paramID(c, "userId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}
	if _, err := h.engine.Ledger().FindUser(c.UserContext(), userID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	wallet, err := h.engine.CreateWallet(c.UserContext(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Wallet created!", wallet)
}

func (h *Handler) GetUserWallet(c *fiber.Ctx) error {
	userID, ok := paramID(c, "userId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}
	wallet, err := h.engine.Ledger().FindByUser(c.UserContext(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet fetched!", wallet)
}

// AdjustWallet applies signed deltas to the user's sub-balances.
func (h *Handler) AdjustWallet(c *fiber.Ctx) error {
	userID, ok := paramID(c, "userId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}
	reqData, ok := validators.Get[walletValidator.AdjustRequest](c, "validatedAdjust")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	wallet, err := h.engine.AdminAdjust(c.UserContext(), userID, reqData.Adjustment())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet updated!", wallet)
}

func (h *Handler) DeleteWallet(c *fiber.Ctx) error {
	userID, ok := paramID(c, "userId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}
	if err := h.engine.DeleteWallet(c.UserContext(), userID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet deleted!", nil)
}

// Credit adds funds to a user's available balance immediately.
func (h *Handler) Credit(c *fiber.Ctx) error {
	reqData, ok := validators.Get[walletValidator.CreditRequest](c, "validatedCredit")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}
	if _, err := h.engine.Ledger().FindUser(c.UserContext(), reqData.UserID); err != nil {
		return middleware.ErrorResponse(c, err)
	}

	txn, wallet, err := h.engine.AdminCredit(c.UserContext(), reconciliation.CreditRequest{
		UserID:        reqData.UserID,
		Amount:        reqData.Amount,
		PaymentMethod: reqData.PaymentMethod,
		Description:   reqData.Description,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet credited!", fiber.Map{
		"transaction": txn,
		"wallet":      wallet,
	})
}

func (h *Handler) ApproveTransaction(c *fiber.Ctx) error {
	id, ok := paramID(c, "transactionId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid transaction id!", nil)
	}

	txn, wallet, err := h.engine.Approve(c.UserContext(), id)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transaction approved!", fiber.Map{
		"transaction": txn,
		"wallet":      wallet,
	})
}

func (h *Handler) RejectTransaction(c *fiber.Ctx) error {
	id, ok := paramID(c, "transactionId")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid transaction id!", nil)
	}
	reason := ""
	if reqData, ok := validators.Get[walletValidator.RejectRequest](c, "validatedReject"); ok {
		reason = reqData.Reason
	}

	txn, wallet, err := h.engine.Reject(c.UserContext(), id, reason)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Transaction rejected!", fiber.Map{
		"transaction": txn,
		"wallet":      wallet,
	})
}

package walletController

import (
	"strings"

	"wallet-ledger/ledger"
	"wallet-ledger/logger"
	"wallet-ledger/middleware"
	"wallet-ledger/models"
	"wallet-ledger/reconciliation"
	"wallet-ledger/utils"
	"wallet-ledger/validators"
	walletValidator "wallet-ledger/validators/wallet"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler serves the /wallet routes.
type Handler struct {
	engine *reconciliation.Engine
	files  utils.FileStore
}

func NewHandler(engine *reconciliation.Engine, files utils.FileStore) *Handler {
	return &Handler{engine: engine, files: files}
}

// GetMyWallet returns the caller's wallet, creating it on first access.
func (h *Handler) GetMyWallet(c *fiber.Ctx) error {
	wallet, err := h.engine.GetWallet(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet fetched!", wallet)
}

func (h *Handler) TopUp(c *fiber.Ctx) error {
	reqData, ok := validators.Get[walletValidator.TopUpRequest](c, "validatedTopUp")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	txn, err := h.engine.TopUp(c.UserContext(), middleware.UserID(c), reconciliation.TopUpRequest{
		Amount:        reqData.Amount,
		PaymentMethod: reqData.PaymentMethod,
		Description:   reqData.Description,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Top-up request submitted!", txn)
}

func (h *Handler) Withdraw(c *fiber.Ctx) error {
	reqData, ok := validators.Get[walletValidator.WithdrawRequest](c, "validatedWithdraw")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	txn, err := h.engine.Withdraw(c.UserContext(), middleware.UserID(c), reconciliation.WithdrawRequest{
		Amount:        reqData.Amount,
		PaymentMethod: reqData.PaymentMethod,
		Description:   reqData.Description,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Withdrawal request submitted!", txn)
}

// GetWalletHistory returns the caller's transactions, newest first.
func (h *Handler) GetWalletHistory(c *fiber.Ctx) error {
	return h.history(c, middleware.UserID(c))
}

// GetUserWalletHistory is the admin view of a user's transactions.
func (h *Handler) GetUserWalletHistory(c *fiber.Ctx) error {
	userID, err := c.ParamsInt("userId")
	if err != nil || userID <= 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid user id!", nil)
	}
	return h.history(c, uint(userID))
}

func (h *Handler) history(c *fiber.Ctx, userID uint) error {
	filter := ledger.TransactionFilter{
		Type:   models.TransactionType(c.Query("type")),
		Action: models.TransactionAction(c.Query("action")),
		Status: models.TransactionStatus(c.Query("status")),
		Page:   c.QueryInt("page", 1),
		Limit:  c.QueryInt("limit", 10),
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid transaction type!", nil)
	}
	if filter.Action != "" && !filter.Action.Valid() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid transaction action!", nil)
	}

	page, err := h.engine.History(c.UserContext(), userID, filter)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Wallet history fetched!", page)
}

// AddCard stores the card on file along with its front and back images.
func (h *Handler) AddCard(c *fiber.Ctx) error {
	reqData, ok := validators.Get[walletValidator.CardRequest](c, "validatedCard")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	userID := middleware.UserID(c)
	var saved []string
	cleanup := func() {
		for _, p := range saved {
			_ = h.files.Remove(p)
		}
	}

	urls := make(map[string]string, 2)
	for _, field := range []string{"frontImage", "backImage"} {
		file, err := c.FormFile(field)
		if err != nil {
			cleanup()
			return middleware.ValidationErrorResponse(c, map[string]string{field: "File is required!"})
		}
		path, err := h.files.Save(file, "cards")
		if err != nil {
			cleanup()
			return middleware.ValidationErrorResponse(c, map[string]string{field: err.Error()})
		}
		saved = append(saved, path)
		urls[field] = utils.GetFileURL(path)
	}

	card, err := h.engine.AddCard(c.UserContext(), userID, reconciliation.CardInput{
		CardHolderName: reqData.CardHolderName,
		CardNumber:     reqData.CardNumber,
		ExpiryDate:     reqData.ExpiryDate,
		FrontImageURL:  urls["frontImage"],
		BackImageURL:   urls["backImage"],
	})
	if err != nil {
		cleanup()
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Card added successfully!", card)
}

func (h *Handler) GetCard(c *fiber.Ctx) error {
	card, err := h.engine.GetCard(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Card fetched!", card)
}

func (h *Handler) RemoveCard(c *fiber.Ctx) error {
	userID := middleware.UserID(c)
	card, err := h.engine.GetCard(c.UserContext(), userID)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	if err := h.engine.RemoveCard(c.UserContext(), userID); err != nil {
		return middleware.ErrorResponse(c, err)
	}
	for _, url := range []string{card.FrontImageURL, card.BackImageURL} {
		if err := h.files.Remove(strings.TrimPrefix(url, "/uploads/")); err != nil {
			logger.L().Warn("card image not removed", zap.String("path", url), zap.Error(err))
		}
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Card removed successfully!", nil)
}

func (h *Handler) SetPayoutBank(c *fiber.Ctx) error {
	reqData, ok := validators.Get[walletValidator.PayoutBankRequest](c, "validatedPayoutBank")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	bank, err := h.engine.SetPayoutBank(c.UserContext(), middleware.UserID(c), reqData.Bank())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Payout bank updated!", bank)
}

package reconciliation

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger/apperrors"
	"wallet-ledger/gateway"
	"wallet-ledger/ledger"
	"wallet-ledger/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GetWallet returns the user's wallet, creating it on first access.
func (e *Engine) GetWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	return e.ledger.GetOrCreate(ctx, userID)
}

// CreateWallet provisions a wallet for userID; ErrConflict if one exists.
func (e *Engine) CreateWallet(ctx context.Context, userID uint) (*models.Wallet, error) {
	return e.ledger.Create(ctx, userID)
}

// DeleteWallet removes an empty wallet.
func (e *Engine) DeleteWallet(ctx context.Context, userID uint) error {
	return e.ledger.Delete(ctx, userID)
}

// AdminAdjust applies signed deltas to a user's sub-balances.
func (e *Engine) AdminAdjust(ctx context.Context, userID uint, adj models.BalanceAdjustment) (wallet *models.Wallet, err error) {
	defer func() { e.record("admin_adjust", err) }()

	if adj.IsZero() {
		return nil, fmt.Errorf("%w: at least one balance field must change", apperrors.ErrValidation)
	}
	current, err := e.ledger.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	wallet, err = e.ledger.AdminAdjust(ctx, current.ID, adj)
	if err != nil {
		return nil, err
	}
	e.log.Info("wallet adjusted by admin",
		zap.Uint("user_id", userID),
		zap.String("available", adj.Available.String()),
		zap.String("profit", adj.Profit.String()),
		zap.String("bonus", adj.Bonus.String()),
		zap.String("pending_withdrawal", adj.PendingWithdrawal.String()),
		zap.String("pending_deposit", adj.PendingDeposit.String()),
	)
	return wallet, nil
}

type HistoryPage struct {
	Wallet       *models.Wallet             `json:"wallet"`
	Transactions []models.WalletTransaction `json:"transactions"`
	Total        int64                      `json:"total"`
	Page         int                        `json:"page"`
	Limit        int                        `json:"limit"`
	TotalPages   int64                      `json:"totalPages"`
}

// History lists the user's transactions, newest first.
func (e *Engine) History(ctx context.Context, userID uint, f ledger.TransactionFilter) (*HistoryPage, error) {
	wallet, err := e.ledger.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	list, total, err := e.txns.ListByUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	page := newPage(list, total, f)
	page.Wallet = wallet
	return page, nil
}

// ListCryptoPayments lists the user's crypto payments, newest first.
func (e *Engine) ListCryptoPayments(ctx context.Context, userID uint, page, limit int) (*HistoryPage, error) {
	f := ledger.TransactionFilter{Action: models.TransactionActionCryptoPayment, Page: page, Limit: limit}
	list, total, err := e.txns.ListByUser(ctx, userID, f)
	if err != nil {
		return nil, err
	}
	return newPage(list, total, f), nil
}

func newPage(list []models.WalletTransaction, total int64, f ledger.TransactionFilter) *HistoryPage {
	f.Normalize()
	if list == nil {
		list = []models.WalletTransaction{}
	}
	return &HistoryPage{
		Transactions: list,
		Total:        total,
		Page:         f.Page,
		Limit:        f.Limit,
		TotalPages:   (total + int64(f.Limit) - 1) / int64(f.Limit),
	}
}

// GetTransaction returns one of the user's transactions. A crypto payment
// past its expiry is expired first.
func (e *Engine) GetTransaction(ctx context.Context, id, userID uint) (*models.WalletTransaction, error) {
	t, err := e.txns.FindOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if t.IsExpired(e.now()) {
		if _, err := e.expire(ctx, t, e.now()); err != nil {
			return nil, err
		}
		return e.txns.FindByID(ctx, t.ID)
	}
	return t, nil
}

// TransactionStats counts and sums the user's transactions by status and by type.
func (e *Engine) TransactionStats(ctx context.Context, userID uint) (*ledger.TransactionStats, error) {
	return e.txns.Stats(ctx, userID)
}

// GetCryptoPayment returns a crypto payment by order number. userID 0 skips
// the ownership check. A pending payment past its expiry is expired first.
func (e *Engine) GetCryptoPayment(ctx context.Context, orderNumber string, userID uint) (*models.WalletTransaction, error) {
	t, err := e.txns.FindByOrderNumber(ctx, orderNumber, userID)
	if err != nil {
		return nil, err
	}
	if t.IsExpired(e.now()) {
		if _, err := e.expire(ctx, t, e.now()); err != nil {
			return nil, err
		}
		return e.txns.FindByID(ctx, t.ID)
	}
	return t, nil
}

// Currencies passes the processor's supported currencies through.
func (e *Engine) Currencies(ctx context.Context) ([]gateway.Currency, error) {
	if e.gw == nil {
		return nil, fmt.Errorf("%w: no payment gateway configured", apperrors.ErrGateway)
	}
	return e.gw.ListCurrencies(ctx)
}

type CardInput struct {
	CardHolderName string
	CardNumber     string
	ExpiryDate     string
	FrontImageURL  string
	BackImageURL   string
}

// AddCard stores the card on file, replacing any previous one.
func (e *Engine) AddCard(ctx context.Context, userID uint, in CardInput) (*models.CardInfo, error) {
	digits := strings.ReplaceAll(in.CardNumber, " ", "")
	if len(digits) < 12 {
		return nil, fmt.Errorf("%w: card number is too short", apperrors.ErrValidation)
	}
	wallet, err := e.ledger.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	updated, err := e.ledger.WithWallet(ctx, wallet.ID, func(_ *gorm.DB, w *models.Wallet) error {
		w.Card = models.CardInfo{
			CardHolderName: in.CardHolderName,
			LastFour:       digits[len(digits)-4:],
			ExpiryDate:     in.ExpiryDate,
			FrontImageURL:  in.FrontImageURL,
			BackImageURL:   in.BackImageURL,
			AddedAt:        &now,
			IsActive:       true,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.log.Info("card added", zap.Uint("user_id", userID), zap.String("last_four", updated.Card.LastFour))
	return &updated.Card, nil
}

// GetCard returns the active card or ErrNotFound.
func (e *Engine) GetCard(ctx context.Context, userID uint) (*models.CardInfo, error) {
	wallet, err := e.ledger.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !wallet.Card.IsActive {
		return nil, fmt.Errorf("card: %w", apperrors.ErrNotFound)
	}
	return &wallet.Card, nil
}

// RemoveCard clears the card on file.
func (e *Engine) RemoveCard(ctx context.Context, userID uint) error {
	wallet, err := e.ledger.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	_, err = e.ledger.WithWallet(ctx, wallet.ID, func(_ *gorm.DB, w *models.Wallet) error {
		if !w.Card.IsActive {
			return fmt.Errorf("card: %w", apperrors.ErrNotFound)
		}
		w.Card = models.CardInfo{}
		return nil
	})
	return err
}

// SetPayoutBank stores the withdrawal destination.
func (e *Engine) SetPayoutBank(ctx context.Context, userID uint, bank models.PayoutBank) (*models.PayoutBank, error) {
	if err := bank.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	wallet, err := e.ledger.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	bank.UpdatedAt = &now
	updated, err := e.ledger.WithWallet(ctx, wallet.ID, func(_ *gorm.DB, w *models.Wallet) error {
		w.Payout = bank
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated.Payout, nil
}

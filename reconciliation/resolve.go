package reconciliation

import (
	"context"
	"fmt"

	"wallet-ledger/apperrors"
	"wallet-ledger/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Approve settles a pending transaction: deposits move into
// AvailableBalance, withdrawals release their hold.
func (e *Engine) Approve(ctx context.Context, transactionID uint) (txn *models.WalletTransaction, wallet *models.Wallet, err error) {
	defer func() { e.record("approve", err) }()

	txn, wallet, err = e.settle(ctx, transactionID, func(tx *gorm.DB, w *models.Wallet, t *models.WalletTransaction) error {
		if t.TransactionType == models.TransactionTypeWithdrawal {
			if err := w.CommitWithdrawal(t.Amount); err != nil {
				return err
			}
		} else if err := w.CommitDeposit(t.Amount); err != nil {
			return err
		}
		now := e.now()
		return e.txns.Transition(tx, t, models.TransactionStatusSuccessful, t.Description, &now)
	})
	if err != nil {
		return nil, nil, err
	}

	e.log.Info("transaction approved",
		zap.String("reference", txn.Reference),
		zap.String("type", string(txn.TransactionType)),
		zap.String("amount", txn.Amount.String()),
	)
	e.notify(ctx, txn)
	return txn, wallet, nil
}

// Reject fails a pending transaction and returns any held funds.
func (e *Engine) Reject(ctx context.Context, transactionID uint, reason string) (txn *models.WalletTransaction, wallet *models.Wallet, err error) {
	defer func() { e.record("reject", err) }()

	if reason == "" {
		reason = "No reason provided"
	}
	txn, wallet, err = e.settle(ctx, transactionID, func(tx *gorm.DB, w *models.Wallet, t *models.WalletTransaction) error {
		if t.TransactionType == models.TransactionTypeWithdrawal {
			if err := w.ReverseWithdrawal(t.Amount); err != nil {
				return err
			}
		} else if err := w.ReverseDeposit(t.Amount); err != nil {
			return err
		}
		return e.txns.Transition(tx, t, models.TransactionStatusFailed, t.Description+" - Rejected: "+reason, nil)
	})
	if err != nil {
		return nil, nil, err
	}

	e.log.Info("transaction rejected",
		zap.String("reference", txn.Reference),
		zap.String("type", string(txn.TransactionType)),
		zap.String("reason", reason),
	)
	e.notify(ctx, txn)
	return txn, wallet, nil
}

type settleFunc func(tx *gorm.DB, w *models.Wallet, t *models.WalletTransaction) error

// settle loads a pending transaction inside its wallet's critical section and
// hands both to fn. A transaction that is already terminal gets ErrInvalidState.
func (e *Engine) settle(ctx context.Context, transactionID uint, fn settleFunc) (*models.WalletTransaction, *models.Wallet, error) {
	t, err := e.txns.FindByID(ctx, transactionID)
	if err != nil {
		return nil, nil, err
	}
	if t.Status.IsTerminal() {
		return nil, nil, fmt.Errorf("transaction %s is %s: %w", t.Reference, t.Status, apperrors.ErrInvalidState)
	}

	var current *models.WalletTransaction
	wallet, err := e.ledger.WithWallet(ctx, t.WalletID, func(tx *gorm.DB, w *models.Wallet) error {
		cur, err := e.txns.Reload(tx, t.ID)
		if err != nil {
			return err
		}
		if cur.Status != models.TransactionStatusPending {
			return fmt.Errorf("transaction %s is %s: %w", cur.Reference, cur.Status, apperrors.ErrInvalidState)
		}
		if err := fn(tx, w, cur); err != nil {
			return err
		}
		current = cur
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return current, wallet, nil
}

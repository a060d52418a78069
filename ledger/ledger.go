package ledger

import (
	"context"
	"errors"
	"fmt"

	"wallet-ledger/apperrors"
	"wallet-ledger/logger"
	"wallet-ledger/metrics"
	"wallet-ledger/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Ledger owns the wallet rows. Every balance mutation goes through WithWallet,
// which serializes writers per wallet with an in-process lock plus a row lock
// inside a database transaction.
type Ledger struct {
	db    *gorm.DB
	locks *keyedMutex
	log   *zap.Logger
}

func New(db *gorm.DB) *Ledger {
	return &Ledger{
		db:    db,
		locks: newKeyedMutex(),
		log:   logger.Named("ledger"),
	}
}

// DB exposes the handle for read-only queries by other components.
func (l *Ledger) DB() *gorm.DB {
	return l.db
}

// FindUser is the user lookup collaborator.
func (l *Ledger) FindUser(ctx context.Context, userID uint) (*models.User, error) {
	var user models.User
	err := l.db.WithContext(ctx).Where("id = ? AND is_deleted = false", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByUser returns the user's wallet or ErrNotFound.
func (l *Ledger) FindByUser(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := l.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("wallet for user %d: %w", userID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// FindByID returns a wallet by primary key or ErrNotFound.
func (l *Ledger) FindByID(ctx context.Context, walletID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := l.db.WithContext(ctx).First(&wallet, walletID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("wallet %d: %w", walletID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// GetOrCreate returns the user's wallet, creating a zero-balanced one on first access.
func (l *Ledger) GetOrCreate(ctx context.Context, userID uint) (*models.Wallet, error) {
	wallet, err := l.FindByUser(ctx, userID)
	if err == nil {
		return wallet, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	wallet, err = l.create(ctx, userID)
	if errors.Is(err, apperrors.ErrConflict) {
		// created concurrently by another request
		return l.FindByUser(ctx, userID)
	}
	return wallet, err
}

// Create provisions a wallet explicitly; it fails with ErrConflict if one exists.
func (l *Ledger) Create(ctx context.Context, userID uint) (*models.Wallet, error) {
	return l.create(ctx, userID)
}

func (l *Ledger) create(ctx context.Context, userID uint) (*models.Wallet, error) {
	if _, err := l.FindUser(ctx, userID); err != nil {
		return nil, err
	}

	unlock, err := l.locks.Lock(ctx, fmt.Sprintf("user:%d", userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var count int64
	if err := l.db.WithContext(ctx).Model(&models.Wallet{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("user %d already has a wallet: %w", userID, apperrors.ErrConflict)
	}

	wallet := models.Wallet{UserID: userID}
	if err := l.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("user %d already has a wallet: %w", userID, apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	l.log.Info("wallet created", zap.Uint("user_id", userID), zap.Uint("wallet_id", wallet.ID))
	return &wallet, nil
}

// Delete removes the user's wallet; only an empty wallet may be deleted.
func (l *Ledger) Delete(ctx context.Context, userID uint) error {
	wallet, err := l.FindByUser(ctx, userID)
	if err != nil {
		return err
	}
	_, err = l.withWallet(ctx, wallet.ID, false, func(tx *gorm.DB, w *models.Wallet) error {
		if !w.IsEmpty() {
			return fmt.Errorf("cannot delete wallet with active balance or pending transactions: %w", apperrors.ErrConflict)
		}
		return tx.Unscoped().Delete(w).Error
	})
	if err == nil {
		l.log.Info("wallet deleted", zap.Uint("user_id", userID), zap.Uint("wallet_id", wallet.ID))
	}
	return err
}

// WalletTxFunc runs inside the wallet's critical section. tx must be used for
// every query so the work commits or rolls back with the balance change.
type WalletTxFunc func(tx *gorm.DB, w *models.Wallet) error

// WithWallet locks the wallet, loads it with SELECT ... FOR UPDATE, runs fn and
// persists the wallet in the same database transaction. If fn or the save
// fails nothing is written.
func (l *Ledger) WithWallet(ctx context.Context, walletID uint, fn WalletTxFunc) (*models.Wallet, error) {
	return l.withWallet(ctx, walletID, true, fn)
}

func (l *Ledger) withWallet(ctx context.Context, walletID uint, save bool, fn WalletTxFunc) (*models.Wallet, error) {
	unlock, err := l.locks.Lock(ctx, fmt.Sprintf("wallet:%d", walletID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	var wallet models.Wallet
	err = l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&wallet, walletID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("wallet %d: %w", walletID, apperrors.ErrNotFound)
		}
		if err != nil {
			return err
		}

		if err := fn(tx, &wallet); err != nil {
			return err
		}
		if !save {
			return nil
		}
		if err := wallet.CheckInvariants(); err != nil {
			return err
		}
		return tx.Save(&wallet).Error
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrInvariantViolation) {
			metrics.InvariantViolations.Inc()
			l.log.Error("wallet mutation aborted: invariant violation",
				zap.Uint("wallet_id", walletID), zap.Error(err))
		}
		return nil, err
	}
	return &wallet, nil
}

// ReserveForDeposit increments PendingDeposit.
func (l *Ledger) ReserveForDeposit(ctx context.Context, walletID uint, amount decimal.Decimal) (*models.Wallet, error) {
	return l.WithWallet(ctx, walletID, func(_ *gorm.DB, w *models.Wallet) error {
		return w.ReserveForDeposit(amount)
	})
}

// ReserveForWithdrawal moves amount from AvailableBalance to PendingWithdrawal.
func (l *Ledger) ReserveForWithdrawal(ctx context.Context, walletID uint, amount decimal.Decimal) (*models.Wallet, error) {
	return l.WithWallet(ctx, walletID, func(_ *gorm.DB, w *models.Wallet) error {
		return w.ReserveForWithdrawal(amount)
	})
}

// CommitDeposit settles a reserved deposit.
func (l *Ledger) CommitDeposit(ctx context.Context, walletID uint, amount decimal.Decimal) (*models.Wallet, error) {
	return l.WithWallet(ctx, walletID, func(_ *gorm.DB, w *models.Wallet) error {
		return w.CommitDeposit(amount)
	})
}

// CommitWithdrawal releases a settled withdrawal hold.
func (l *Ledger) CommitWithdrawal(ctx context.Context, walletID uint, amount decimal.Decimal) (*models.Wallet, error) {
	return l.WithWallet(ctx, walletID, func(_ *gorm.DB, w *models.Wallet) error {
		return w.CommitWithdrawal(amount)
	})
}

// ReverseWithdrawal re-credits a rejected withdrawal.
func (l *Ledger) ReverseWithdrawal(ctx context.Context, walletID uint, amount decimal.Decimal) (*models.Wallet, error) {
	return l.WithWallet(ctx, walletID, func(_ *gorm.DB, w *models.Wallet) error {
		return w.ReverseWithdrawal(amount)
	})
}

// ReverseDeposit drops a rejected deposit reservation.
func (l *Ledger) ReverseDeposit(ctx context.Context, walletID uint, amount decimal.Decimal) (*models.Wallet, error) {
	return l.WithWallet(ctx, walletID, func(_ *gorm.DB, w *models.Wallet) error {
		return w.ReverseDeposit(amount)
	})
}

// AdminAdjust applies signed deltas to the enumerated sub-balances.
func (l *Ledger) AdminAdjust(ctx context.Context, walletID uint, adj models.BalanceAdjustment) (*models.Wallet, error) {
	return l.WithWallet(ctx, walletID, func(_ *gorm.DB, w *models.Wallet) error {
		return w.Adjust(adj)
	})
}

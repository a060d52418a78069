package reconciliation

import (
	"context"
	"errors"
	"time"

	"wallet-ledger/apperrors"
	"wallet-ledger/metrics"
	"wallet-ledger/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ExpirePending fails every pending crypto payment whose invoice expired
// before now and releases its PendingDeposit. It returns how many it expired.
func (e *Engine) ExpirePending(ctx context.Context, now time.Time) (int, error) {
	var (
		expired int
		errs    []error
	)
	for {
		batch, err := e.txns.ListExpiredPending(ctx, now, expiryBatchSize)
		if err != nil {
			return expired, err
		}

		progressed := 0
		for i := range batch {
			ok, err := e.expire(ctx, &batch[i], now)
			if err != nil {
				errs = append(errs, err)
				e.log.Error("failed to expire crypto payment",
					zap.String("reference", batch[i].Reference), zap.Error(err))
				continue
			}
			if ok {
				expired++
				progressed++
			}
		}
		if len(batch) < expiryBatchSize || progressed == 0 {
			break
		}
	}

	if expired > 0 {
		e.log.Info("expired crypto payments", zap.Int("count", expired))
	}
	return expired, errors.Join(errs...)
}

// expire fails t if it is still pending and past its expiry. It reports
// whether it changed anything.
func (e *Engine) expire(ctx context.Context, t *models.WalletTransaction, now time.Time) (bool, error) {
	var current *models.WalletTransaction
	_, err := e.ledger.WithWallet(ctx, t.WalletID, func(tx *gorm.DB, w *models.Wallet) error {
		cur, err := e.txns.Reload(tx, t.ID)
		if err != nil {
			return err
		}
		if !cur.IsExpired(now) {
			return nil
		}
		if err := w.ReverseDeposit(cur.Amount); err != nil {
			return err
		}
		if err := e.txns.Transition(tx, cur, models.TransactionStatusFailed, cur.Description+" - Expired", nil); err != nil {
			return err
		}
		current = cur
		return nil
	})
	e.record("expire", err)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidState) {
			return false, nil
		}
		return false, err
	}
	if current == nil {
		return false, nil
	}

	metrics.ExpiredInvoices.Inc()
	e.log.Info("crypto payment expired",
		zap.String("reference", current.Reference),
		zap.Timep("expired_at", current.CryptoExpiresAt),
	)
	e.notify(ctx, current)
	*t = *current
	return true, nil
}

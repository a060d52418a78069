package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wallet-ledger/apperrors"
	"wallet-ledger/gateway"
	"wallet-ledger/ledger"
	"wallet-ledger/metrics"
	"wallet-ledger/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Plisio invoice statuses.
const (
	StatusCompleted = "completed"
	StatusError     = "error"
	StatusExpired   = "expired"
	StatusCancelled = "cancelled"
)

// WebhookEvent is one processor callback. Every field arrives as a string.
type WebhookEvent struct {
	InvoiceID      string
	Status         string
	OrderNumber    string
	Amount         string
	Currency       string
	TxnID          string
	WalletHash     string
	Confirmations  string
	ActualAmount   string
	ActualCurrency string
	// Payload is the raw delivery, stored for audit only.
	Payload []byte
}

// WebhookResult says what a delivery did.
type WebhookResult struct {
	Transaction *models.WalletTransaction
	// Applied is true when the delivery moved the transaction to a terminal state.
	Applied bool
	// Duplicate is true when the transaction was already terminal.
	Duplicate bool
}

// ErrSignature is returned when a callback's verify_hash does not match.
var ErrSignature = errors.New("invalid webhook signature")

// AuthenticateWebhook checks verify_hash when a secret is configured.
func (e *Engine) AuthenticateWebhook(payload map[string]interface{}) error {
	if e.webhookSecret == "" {
		return nil
	}
	if !gateway.VerifyCallback(e.webhookSecret, payload) {
		metrics.WebhookAnomalies.WithLabelValues("bad_signature").Inc()
		return ErrSignature
	}
	return nil
}

// HandleWebhook applies a processor callback. Audit fields are always
// stored; balances move only when the transaction is still pending.
func (e *Engine) HandleWebhook(ctx context.Context, ev WebhookEvent) (res *WebhookResult, err error) {
	defer func() { e.record("webhook", err) }()

	if ev.InvoiceID == "" {
		return nil, fmt.Errorf("%w: invoice_id is required", apperrors.ErrValidation)
	}
	status := strings.ToLower(ev.Status)

	t, err := e.txns.FindByInvoiceID(ctx, ev.InvoiceID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			metrics.WebhookAnomalies.WithLabelValues("unknown_invoice").Inc()
			e.log.Warn("webhook for unknown invoice",
				zap.String("invoice_id", ev.InvoiceID), zap.String("status", status))
		}
		return nil, err
	}
	if ev.OrderNumber != "" && t.CryptoOrderNumber != nil && *t.CryptoOrderNumber != ev.OrderNumber {
		metrics.WebhookAnomalies.WithLabelValues("order_mismatch").Inc()
		e.log.Warn("webhook order number does not match invoice",
			zap.String("invoice_id", ev.InvoiceID),
			zap.String("expected", *t.CryptoOrderNumber),
			zap.String("got", ev.OrderNumber),
		)
		return nil, fmt.Errorf("%w: order number does not match invoice", apperrors.ErrValidation)
	}

	audit := auditFrom(ev)
	res = &WebhookResult{}

	_, err = e.ledger.WithWallet(ctx, t.WalletID, func(tx *gorm.DB, w *models.Wallet) error {
		cur, err := e.txns.Reload(tx, t.ID)
		if err != nil {
			return err
		}
		if err := e.txns.SaveAudit(tx, cur, audit); err != nil {
			return err
		}
		res.Transaction = cur

		if cur.Status.IsTerminal() {
			res.Duplicate = true
			return nil
		}

		switch status {
		case StatusCompleted:
			if err := w.CommitDeposit(cur.Amount); err != nil {
				return err
			}
			now := e.now()
			if err := e.txns.Transition(tx, cur, models.TransactionStatusSuccessful, cur.Description, &now); err != nil {
				return err
			}
			res.Applied = true
		case StatusError, StatusExpired, StatusCancelled:
			if err := w.ReverseDeposit(cur.Amount); err != nil {
				return err
			}
			if err := e.txns.Transition(tx, cur, models.TransactionStatusFailed, cur.Description, nil); err != nil {
				return err
			}
			res.Applied = true
		}
		return nil
	})
	if err != nil {
		e.log.Error("webhook processing failed",
			zap.String("invoice_id", ev.InvoiceID),
			zap.String("status", status),
			zap.Error(err),
		)
		return nil, err
	}

	switch {
	case res.Duplicate:
		metrics.WebhookAnomalies.WithLabelValues("terminal_transaction").Inc()
		e.log.Warn("webhook for already settled transaction",
			zap.String("invoice_id", ev.InvoiceID),
			zap.String("reference", res.Transaction.Reference),
			zap.String("current_status", string(res.Transaction.Status)),
			zap.String("webhook_status", status),
		)
	case res.Applied:
		e.log.Info("crypto payment settled by webhook",
			zap.String("invoice_id", ev.InvoiceID),
			zap.String("reference", res.Transaction.Reference),
			zap.String("status", string(res.Transaction.Status)),
		)
		e.notify(ctx, res.Transaction)
	default:
		e.log.Debug("webhook status recorded",
			zap.String("invoice_id", ev.InvoiceID),
			zap.String("status", status),
			zap.Int("confirmations", res.Transaction.CryptoConfirmations),
		)
	}
	return res, nil
}

func auditFrom(ev WebhookEvent) ledger.AuditUpdate {
	a := ledger.AuditUpdate{
		TxnID:          ev.TxnID,
		ActualCurrency: ev.ActualCurrency,
		Payload:        ev.Payload,
	}
	if n, err := strconv.Atoi(ev.Confirmations); err == nil && n >= 0 {
		a.Confirmations = &n
	}
	if ev.ActualAmount != "" {
		if d, err := decimal.NewFromString(ev.ActualAmount); err == nil {
			a.ActualAmount = &d
		}
	}
	return a
}

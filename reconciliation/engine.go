// Package reconciliation moves money between wallet sub-balances as
// transactions progress from pending to a terminal state.
package reconciliation

import (
	"context"
	"time"

	"wallet-ledger/gateway"
	"wallet-ledger/ledger"
	"wallet-ledger/logger"
	"wallet-ledger/metrics"
	"wallet-ledger/models"
	"wallet-ledger/notifier"

	"go.uber.org/zap"
)

const (
	defaultInvoiceTTL = 24 * time.Hour
	expiryBatchSize   = 100
)

type Options struct {
	Gateway       gateway.Gateway
	Notifier      notifier.Notifier
	InvoiceTTL    time.Duration
	WebhookSecret string
	Now           func() time.Time
}

// Engine applies the transaction state machine. Each transition changes the
// wallet and the transaction inside one Ledger.WithWallet call.
type Engine struct {
	ledger        *ledger.Ledger
	txns          *ledger.TransactionStore
	gw            gateway.Gateway
	rates         *gateway.RateBook
	notifier      notifier.Notifier
	invoiceTTL    time.Duration
	webhookSecret string
	now           func() time.Time
	log           *zap.Logger
}

func New(l *ledger.Ledger, opts Options) *Engine {
	e := &Engine{
		ledger:        l,
		txns:          ledger.NewTransactionStore(l.DB()),
		gw:            opts.Gateway,
		notifier:      opts.Notifier,
		invoiceTTL:    opts.InvoiceTTL,
		webhookSecret: opts.WebhookSecret,
		now:           opts.Now,
		log:           logger.Named("reconciliation"),
	}
	if e.gw != nil {
		e.rates = gateway.NewRateBook(e.gw)
	}
	if e.notifier == nil {
		e.notifier = notifier.Nop{}
	}
	if e.invoiceTTL <= 0 {
		e.invoiceTTL = defaultInvoiceTTL
	}
	if e.now == nil {
		e.now = func() time.Time { return time.Now().UTC() }
	}
	return e
}

func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

func (e *Engine) Transactions() *ledger.TransactionStore {
	return e.txns
}

func (e *Engine) record(event string, err error) {
	metrics.Transitions.WithLabelValues(event, metrics.Outcome(err)).Inc()
}

// notify runs after commit; delivery failures never affect the transition.
func (e *Engine) notify(ctx context.Context, t *models.WalletTransaction) {
	user, err := e.ledger.FindUser(ctx, t.UserID)
	if err != nil {
		e.log.Warn("notification skipped: user lookup failed",
			zap.String("reference", t.Reference), zap.Error(err))
		return
	}
	if err := e.notifier.TransactionSettled(ctx, user, t); err != nil {
		e.log.Warn("notification failed", zap.String("reference", t.Reference), zap.Error(err))
	}
}

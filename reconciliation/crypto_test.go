package reconciliation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"wallet-ledger/apperrors"
	"wallet-ledger/gateway"
	"wallet-ledger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) createCrypto(t *testing.T, amount string) *models.WalletTransaction {
	t.Helper()
	txn, err := f.engine.CreateCryptoPayment(context.Background(), f.user.ID, CryptoPaymentRequest{
		Amount:         dec(amount),
		CryptoCurrency: "btc",
	})
	require.NoError(t, err)
	return txn
}

func TestCreateCryptoPayment(t *testing.T) {
	f := newFixture(t)
	txn := f.createCrypto(t, "100")

	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	assert.Equal(t, models.TransactionActionCryptoPayment, txn.Action)
	assert.Equal(t, "BTC", txn.CryptoCurrency)
	require.NotNil(t, txn.CryptoAmount)
	assert.True(t, txn.CryptoAmount.Equal(dec("0.002")))
	require.NotNil(t, txn.CryptoInvoiceID)
	assert.Equal(t, "inv-1", *txn.CryptoInvoiceID)
	assert.Equal(t, txn.Reference, *txn.CryptoOrderNumber)
	assert.Equal(t, f.now.Add(time.Hour), *txn.CryptoExpiresAt)

	require.Len(t, f.gw.invoices, 1)
	req := f.gw.invoices[0]
	assert.Equal(t, txn.Reference, req.OrderNumber)
	assert.Equal(t, "USD", req.Currency)
	assert.Equal(t, 60, req.ExpireMinutes)

	w := f.wallet(t)
	assert.True(t, w.PendingDeposit.Equal(dec("100")))
	assert.True(t, w.TotalBalance.IsZero())
}

func TestCreateCryptoPaymentUsesGatewayExpiry(t *testing.T) {
	f := newFixture(t)
	upstream := f.now.Add(3 * time.Hour)
	f.gw.expiresAt = &upstream

	txn := f.createCrypto(t, "10")
	assert.Equal(t, upstream, *txn.CryptoExpiresAt)

	f.now = f.now.Add(2 * time.Hour)
	got, err := f.engine.GetCryptoPayment(context.Background(), *txn.CryptoOrderNumber, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, got.Status)

	stale := f.now.Add(-time.Minute)
	f.gw.expiresAt = &stale
	txn = f.createCrypto(t, "10")
	assert.Equal(t, f.now.Add(time.Hour), *txn.CryptoExpiresAt)
}

func TestCreateCryptoPaymentGatewayFailure(t *testing.T) {
	f := newFixture(t)
	f.gw.invoiceErr = fmt.Errorf("%w: boom", apperrors.ErrGateway)

	_, err := f.engine.CreateCryptoPayment(context.Background(), f.user.ID, CryptoPaymentRequest{
		Amount: dec("100"), CryptoCurrency: "BTC",
	})
	require.ErrorIs(t, err, apperrors.ErrGateway)

	page, err := f.engine.ListCryptoPayments(context.Background(), f.user.ID, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.True(t, f.wallet(t).IsEmpty())
}

func TestCreateCryptoPaymentUnknownCurrency(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.CreateCryptoPayment(context.Background(), f.user.ID, CryptoPaymentRequest{
		Amount: dec("100"), CryptoCurrency: "DOGE",
	})
	require.ErrorIs(t, err, apperrors.ErrRateUnavailable)
	assert.Empty(t, f.gw.invoices)
}

func TestCreateCryptoPaymentRequiresActiveAccount(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.Ledger().DB().Model(f.user).Update("account_status", models.AccountStatusSuspended).Error)

	_, err := f.engine.CreateCryptoPayment(context.Background(), f.user.ID, CryptoPaymentRequest{
		Amount: dec("100"), CryptoCurrency: "BTC",
	})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, f.gw.invoices)
}

// C: crypto payment completed by webhook, then the same webhook again.
func TestWebhookCompletedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn := f.createCrypto(t, "100")

	ev := WebhookEvent{
		InvoiceID:      *txn.CryptoInvoiceID,
		Status:         "completed",
		OrderNumber:    txn.Reference,
		TxnID:          "chain-tx",
		Confirmations:  "3",
		ActualAmount:   "0.002",
		ActualCurrency: "BTC",
		Payload:        []byte(`{"status":"completed"}`),
	}
	res, err := f.engine.HandleWebhook(ctx, ev)
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, models.TransactionStatusSuccessful, res.Transaction.Status)

	w := f.wallet(t)
	assert.True(t, w.AvailableBalance.Equal(dec("100")))
	assert.True(t, w.PendingDeposit.IsZero())

	ev.Confirmations = "6"
	res, err = f.engine.HandleWebhook(ctx, ev)
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.False(t, res.Applied)

	w = f.wallet(t)
	assert.True(t, w.AvailableBalance.Equal(dec("100")))
	assert.True(t, w.TotalBalance.Equal(dec("100")))

	stored, err := f.engine.GetCryptoPayment(ctx, txn.Reference, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, stored.CryptoConfirmations)
	assert.Equal(t, "chain-tx", stored.CryptoTxnID)
	require.NotNil(t, stored.CryptoActualAmount)
	assert.True(t, stored.CryptoActualAmount.Equal(dec("0.002")))
}

// D: crypto payment cancelled by webhook.
func TestWebhookCancelledReleasesPendingDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn := f.createCrypto(t, "100")

	res, err := f.engine.HandleWebhook(ctx, WebhookEvent{InvoiceID: *txn.CryptoInvoiceID, Status: "cancelled"})
	require.NoError(t, err)
	assert.True(t, res.Applied)
	assert.Equal(t, models.TransactionStatusFailed, res.Transaction.Status)
	assert.True(t, f.wallet(t).IsEmpty())

	// a late completion never credits a failed payment
	res, err = f.engine.HandleWebhook(ctx, WebhookEvent{InvoiceID: *txn.CryptoInvoiceID, Status: "completed"})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.True(t, f.wallet(t).IsEmpty())
}

func TestWebhookIntermediateStatusOnlyAudits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn := f.createCrypto(t, "100")

	res, err := f.engine.HandleWebhook(ctx, WebhookEvent{InvoiceID: *txn.CryptoInvoiceID, Status: "pending", Confirmations: "1"})
	require.NoError(t, err)
	assert.False(t, res.Applied)
	assert.False(t, res.Duplicate)
	assert.Equal(t, models.TransactionStatusPending, res.Transaction.Status)
	assert.Equal(t, 1, res.Transaction.CryptoConfirmations)
	assert.True(t, f.wallet(t).PendingDeposit.Equal(dec("100")))
}

func TestWebhookRejectsUnknownOrMismatched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn := f.createCrypto(t, "100")

	_, err := f.engine.HandleWebhook(ctx, WebhookEvent{InvoiceID: "nope", Status: "completed"})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.engine.HandleWebhook(ctx, WebhookEvent{InvoiceID: *txn.CryptoInvoiceID, Status: "completed", OrderNumber: "CRYPTO-other"})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = f.engine.HandleWebhook(ctx, WebhookEvent{Status: "completed"})
	require.ErrorIs(t, err, apperrors.ErrValidation)

	assert.True(t, f.wallet(t).PendingDeposit.Equal(dec("100")))
}

func TestAuthenticateWebhook(t *testing.T) {
	f := newFixture(t)
	payload := map[string]interface{}{"invoice_id": "inv-1", "status": "completed"}

	require.NoError(t, f.engine.AuthenticateWebhook(payload))

	f.engine.webhookSecret = "secret"
	require.ErrorIs(t, f.engine.AuthenticateWebhook(payload), ErrSignature)

	hash, err := gateway.Sign("secret", payload)
	require.NoError(t, err)
	payload["verify_hash"] = hash
	require.NoError(t, f.engine.AuthenticateWebhook(payload))
}

func TestExpirePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	old := f.createCrypto(t, "100")
	f.now = f.now.Add(30 * time.Minute)
	fresh := f.createCrypto(t, "50")

	n, err := f.engine.ExpirePending(ctx, f.now.Add(45*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	expired, err := f.engine.GetCryptoPayment(ctx, old.Reference, 0)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, expired.Status)
	assert.Contains(t, expired.Description, " - Expired")

	w := f.wallet(t)
	assert.True(t, w.PendingDeposit.Equal(dec("50")))

	// a completion after expiry is only audited
	res, err := f.engine.HandleWebhook(ctx, WebhookEvent{InvoiceID: *old.CryptoInvoiceID, Status: "completed"})
	require.NoError(t, err)
	assert.True(t, res.Duplicate)
	assert.True(t, f.wallet(t).AvailableBalance.IsZero())

	n, err = f.engine.ExpirePending(ctx, f.now.Add(45*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)

	pending, err := f.engine.GetCryptoPayment(ctx, fresh.Reference, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, pending.Status)
}

func TestGetCryptoPaymentExpiresLazily(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	txn := f.createCrypto(t, "20")

	f.now = f.now.Add(2 * time.Hour)
	got, err := f.engine.GetCryptoPayment(ctx, txn.Reference, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, got.Status)
	assert.True(t, f.wallet(t).PendingDeposit.IsZero())

	_, err = f.engine.GetCryptoPayment(ctx, txn.Reference, f.user.ID+1)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

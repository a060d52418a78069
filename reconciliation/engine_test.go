package reconciliation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"wallet-ledger/apperrors"
	"wallet-ledger/database"
	"wallet-ledger/gateway"
	"wallet-ledger/ledger"
	"wallet-ledger/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu         sync.Mutex
	invoices   []gateway.InvoiceRequest
	invoiceErr error
	currencies []gateway.Currency
	expiresAt  *time.Time
}

func (f *fakeGateway) CreateInvoice(_ context.Context, req gateway.InvoiceRequest) (*gateway.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.invoiceErr != nil {
		return nil, f.invoiceErr
	}
	f.invoices = append(f.invoices, req)
	return &gateway.Invoice{
		InvoiceID:  fmt.Sprintf("inv-%d", len(f.invoices)),
		PayAddress: "bc1qaddr",
		InvoiceURL: "https://plisio.net/invoice/" + req.OrderNumber,
		ExpiresAt:  f.expiresAt,
		Raw:        []byte(`{"txn_id":"x"}`),
	}, nil
}

func (f *fakeGateway) ListCurrencies(context.Context) ([]gateway.Currency, error) {
	return f.currencies, nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []models.TransactionStatus
}

func (r *recordingNotifier) TransactionSettled(_ context.Context, _ *models.User, t *models.WalletTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, t.Status)
	return nil
}

type fixture struct {
	engine   *Engine
	gw       *fakeGateway
	notifier *recordingNotifier
	user     *models.User
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.OpenTest(t)
	user := &models.User{Name: "Ana", Email: "ana@example.com", Password: "x", AccountStatus: models.AccountStatusActive}
	require.NoError(t, db.Create(user).Error)

	f := &fixture{
		gw: &fakeGateway{currencies: []gateway.Currency{
			{Code: "BTC", CID: "BTC", Name: "Bitcoin", USDRate: decimal.NewFromInt(50000)},
		}},
		notifier: &recordingNotifier{},
		user:     user,
		now:      time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC),
	}
	f.engine = New(ledger.New(db), Options{
		Gateway:    f.gw,
		Notifier:   f.notifier,
		InvoiceTTL: time.Hour,
		Now:        func() time.Time { return f.now },
	})
	return f
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func (f *fixture) wallet(t *testing.T) *models.Wallet {
	t.Helper()
	w, err := f.engine.Ledger().FindByUser(context.Background(), f.user.ID)
	require.NoError(t, err)
	require.NoError(t, w.CheckInvariants())
	return w
}

func (f *fixture) fund(t *testing.T, amount string) {
	t.Helper()
	_, _, err := f.engine.AdminCredit(context.Background(), CreditRequest{UserID: f.user.ID, Amount: dec(amount)})
	require.NoError(t, err)
}

// A: top-up approved.
func TestTopUpApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.engine.TopUp(ctx, f.user.ID, TopUpRequest{Amount: dec("100"), PaymentMethod: "Bank"})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, txn.Status)
	w := f.wallet(t)
	assert.True(t, w.PendingDeposit.Equal(dec("100")))
	assert.True(t, w.TotalBalance.IsZero())

	approved, w, err := f.engine.Approve(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccessful, approved.Status)
	assert.NotNil(t, approved.CompletedAt)
	assert.True(t, w.AvailableBalance.Equal(dec("100")))
	assert.True(t, w.PendingDeposit.IsZero())
	assert.True(t, f.wallet(t).TotalBalance.Equal(dec("100")))

	_, _, err = f.engine.Approve(ctx, txn.ID)
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
	_, _, err = f.engine.Reject(ctx, txn.ID, "late")
	require.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, []models.TransactionStatus{models.TransactionStatusSuccessful}, f.notifier.sent)
}

// B: withdrawal rejected.
func TestWithdrawalRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "80")

	txn, err := f.engine.Withdraw(ctx, f.user.ID, WithdrawRequest{Amount: dec("30"), PaymentMethod: "Bank"})
	require.NoError(t, err)
	w := f.wallet(t)
	assert.True(t, w.AvailableBalance.Equal(dec("50")))
	assert.True(t, w.PendingWithdrawal.Equal(dec("30")))

	rejected, _, err := f.engine.Reject(ctx, txn.ID, "Invalid IBAN")
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusFailed, rejected.Status)
	assert.Contains(t, rejected.Description, " - Rejected: Invalid IBAN")

	w = f.wallet(t)
	assert.True(t, w.AvailableBalance.Equal(dec("80")))
	assert.True(t, w.PendingWithdrawal.IsZero())
	assert.True(t, w.TotalBalance.Equal(dec("80")))
}

func TestWithdrawalApproved(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "80")

	txn, err := f.engine.Withdraw(ctx, f.user.ID, WithdrawRequest{Amount: dec("30")})
	require.NoError(t, err)
	_, _, err = f.engine.Approve(ctx, txn.ID)
	require.NoError(t, err)

	w := f.wallet(t)
	assert.True(t, w.AvailableBalance.Equal(dec("50")))
	assert.True(t, w.PendingWithdrawal.IsZero())
	assert.True(t, w.TotalBalance.Equal(dec("50")))
}

func TestWithdrawInsufficientFunds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "10")

	_, err := f.engine.Withdraw(ctx, f.user.ID, WithdrawRequest{Amount: dec("10.5")})
	require.ErrorIs(t, err, apperrors.ErrInsufficientFunds)

	page, err := f.engine.History(ctx, f.user.ID, ledger.TransactionFilter{Type: models.TransactionTypeWithdrawal})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestConcurrentFullWithdrawals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "100")

	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := f.engine.Withdraw(ctx, f.user.ID, WithdrawRequest{Amount: dec("100")})
			results <- err
		}()
	}

	var ok, insufficient int
	for i := 0; i < 2; i++ {
		err := <-results
		if err == nil {
			ok++
		} else if assert.ErrorIs(t, err, apperrors.ErrInsufficientFunds) {
			insufficient++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, insufficient)
	assert.True(t, f.wallet(t).AvailableBalance.IsZero())
}

func TestAdminCredit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, w, err := f.engine.AdminCredit(ctx, CreditRequest{UserID: f.user.ID, Amount: dec("25"), Description: "Promo"})
	require.NoError(t, err)
	assert.Equal(t, models.TransactionStatusSuccessful, txn.Status)
	assert.Equal(t, models.TransactionTypeCredit, txn.TransactionType)
	assert.True(t, w.AvailableBalance.Equal(dec("25")))
	assert.True(t, w.PendingDeposit.IsZero())

	_, _, err = f.engine.AdminCredit(ctx, CreditRequest{UserID: f.user.ID, Amount: dec("0")})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAdminAdjust(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "10")

	w, err := f.engine.AdminAdjust(ctx, f.user.ID, models.BalanceAdjustment{Profit: dec("4"), Bonus: dec("1")})
	require.NoError(t, err)
	assert.True(t, w.TotalBalance.Equal(dec("15")))

	_, err = f.engine.AdminAdjust(ctx, f.user.ID, models.BalanceAdjustment{Available: dec("-11")})
	require.ErrorIs(t, err, apperrors.ErrInvariantViolation)
	assert.True(t, f.wallet(t).TotalBalance.Equal(dec("15")))

	_, err = f.engine.AdminAdjust(ctx, f.user.ID, models.BalanceAdjustment{})
	require.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUnstorableAmountsLeaveWalletConsistent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.fund(t, "1000000000")

	_, _, err := f.engine.AdminCredit(ctx, CreditRequest{UserID: f.user.ID, Amount: dec("1000000000.000000001")})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.engine.AdminAdjust(ctx, f.user.ID, models.BalanceAdjustment{Bonus: dec("0.000000001")})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.engine.AdminAdjust(ctx, f.user.ID, models.BalanceAdjustment{Profit: dec("999000000000")})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.engine.TopUp(ctx, f.user.ID, TopUpRequest{Amount: dec("0.000000001"), PaymentMethod: "Bank"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	_, err = f.engine.CreateCryptoPayment(ctx, f.user.ID, CryptoPaymentRequest{Amount: dec("10.000000001"), CryptoCurrency: "BTC"})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Empty(t, f.gw.invoices)

	w := f.wallet(t)
	assert.True(t, w.TotalBalance.Equal(dec("1000000000")))
	assert.True(t, w.BonusBalance.IsZero())
	assert.True(t, w.PendingDeposit.IsZero())

	_, err = f.engine.SetPayoutBank(ctx, f.user.ID, models.PayoutBank{Region: models.BankRegionOthers, Description: "wire"})
	require.NoError(t, err)

	history, err := f.engine.History(ctx, f.user.ID, ledger.TransactionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), history.Total)
}

func TestRejectTopUpReversesPendingDeposit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	txn, err := f.engine.TopUp(ctx, f.user.ID, TopUpRequest{Amount: dec("40")})
	require.NoError(t, err)
	_, _, err = f.engine.Reject(ctx, txn.ID, "")
	require.NoError(t, err)

	w := f.wallet(t)
	assert.True(t, w.IsEmpty())
}

func TestWalletManagement(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.engine.CreateWallet(ctx, f.user.ID)
	require.NoError(t, err)
	_, err = f.engine.CreateWallet(ctx, f.user.ID)
	require.ErrorIs(t, err, apperrors.ErrConflict)

	card, err := f.engine.AddCard(ctx, f.user.ID, CardInput{CardHolderName: "Ana", CardNumber: "4111 1111 1111 1234", ExpiryDate: "12/29"})
	require.NoError(t, err)
	assert.Equal(t, "1234", card.LastFour)

	got, err := f.engine.GetCard(ctx, f.user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)

	require.NoError(t, f.engine.RemoveCard(ctx, f.user.ID))
	_, err = f.engine.GetCard(ctx, f.user.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = f.engine.SetPayoutBank(ctx, f.user.ID, models.PayoutBank{Region: models.BankRegionEurope})
	require.ErrorIs(t, err, apperrors.ErrValidation)
	bank, err := f.engine.SetPayoutBank(ctx, f.user.ID, models.PayoutBank{
		Region: models.BankRegionEurope, RecipientName: "Ana", AccountNumber: "1", IBAN: "DE89", SwiftCode: "DEUTDEFF",
	})
	require.NoError(t, err)
	assert.NotNil(t, bank.UpdatedAt)

	f.fund(t, "1")
	require.ErrorIs(t, f.engine.DeleteWallet(ctx, f.user.ID), apperrors.ErrConflict)
}

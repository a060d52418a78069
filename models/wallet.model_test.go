package models

import (
	"testing"

	"wallet-ledger/apperrors"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertBalances(t *testing.T, w *Wallet, available, pendingDeposit, pendingWithdrawal string) {
	t.Helper()
	assert.True(t, w.AvailableBalance.Equal(d(available)), "available: %s", w.AvailableBalance)
	assert.True(t, w.PendingDeposit.Equal(d(pendingDeposit)), "pendingDeposit: %s", w.PendingDeposit)
	assert.True(t, w.PendingWithdrawal.Equal(d(pendingWithdrawal)), "pendingWithdrawal: %s", w.PendingWithdrawal)
	require.NoError(t, w.CheckInvariants())
}

func TestDepositLifecycle(t *testing.T) {
	w := &Wallet{}

	require.NoError(t, w.ReserveForDeposit(d("100")))
	assertBalances(t, w, "0", "100", "0")
	assert.True(t, w.TotalBalance.IsZero())

	require.NoError(t, w.CommitDeposit(d("100")))
	assertBalances(t, w, "100", "0", "0")
	assert.True(t, w.TotalBalance.Equal(d("100")))
}

func TestReserveThenReverseRestoresWallet(t *testing.T) {
	w := &Wallet{AvailableBalance: d("80"), ProfitBalance: d("5"), TotalBalance: d("85")}
	before := *w

	require.NoError(t, w.ReserveForWithdrawal(d("30")))
	assertBalances(t, w, "50", "0", "30")
	assert.True(t, w.TotalBalance.Equal(d("55")))

	require.NoError(t, w.ReverseWithdrawal(d("30")))
	assert.True(t, w.AvailableBalance.Equal(before.AvailableBalance))
	assert.True(t, w.TotalBalance.Equal(before.TotalBalance))
	assert.True(t, w.PendingWithdrawal.IsZero())

	require.NoError(t, w.ReserveForDeposit(d("12.5")))
	require.NoError(t, w.ReverseDeposit(d("12.5")))
	assert.True(t, w.PendingDeposit.IsZero())
	assert.True(t, w.TotalBalance.Equal(before.TotalBalance))
}

func TestWithdrawalCommit(t *testing.T) {
	w := &Wallet{AvailableBalance: d("100"), TotalBalance: d("100")}

	require.NoError(t, w.ReserveForWithdrawal(d("40")))
	require.NoError(t, w.CommitWithdrawal(d("40")))
	assertBalances(t, w, "60", "0", "0")
	assert.True(t, w.TotalBalance.Equal(d("60")))
}

func TestReserveForWithdrawalInsufficientFunds(t *testing.T) {
	w := &Wallet{AvailableBalance: d("10"), TotalBalance: d("10")}

	err := w.ReserveForWithdrawal(d("10.01"))
	require.ErrorIs(t, err, apperrors.ErrInsufficientFunds)
	assertBalances(t, w, "10", "0", "0")
}

func TestCommitDepositWithoutReservationIsRejected(t *testing.T) {
	w := &Wallet{}

	err := w.CommitDeposit(d("5"))
	require.ErrorIs(t, err, apperrors.ErrInvariantViolation)
	assertBalances(t, w, "0", "0", "0")
}

func TestAmountsMustBePositive(t *testing.T) {
	w := &Wallet{}
	for _, amount := range []string{"0", "-1"} {
		require.ErrorIs(t, w.ReserveForDeposit(d(amount)), apperrors.ErrValidation)
		require.ErrorIs(t, w.Credit(d(amount)), apperrors.ErrValidation)
	}
}

func TestAdjust(t *testing.T) {
	w := &Wallet{AvailableBalance: d("10"), TotalBalance: d("10")}

	require.NoError(t, w.Adjust(BalanceAdjustment{Profit: d("2.5"), Bonus: d("1")}))
	assert.True(t, w.TotalBalance.Equal(d("13.5")))

	err := w.Adjust(BalanceAdjustment{Bonus: d("-2")})
	require.ErrorIs(t, err, apperrors.ErrInvariantViolation)
	assert.True(t, w.BonusBalance.Equal(d("1")))
	assert.True(t, w.TotalBalance.Equal(d("13.5")))
}

func TestCheckInvariantsDetectsDrift(t *testing.T) {
	w := &Wallet{AvailableBalance: d("10"), TotalBalance: d("11")}
	require.ErrorIs(t, w.CheckInvariants(), apperrors.ErrInvariantViolation)

	w = &Wallet{PendingDeposit: d("-1")}
	require.ErrorIs(t, w.CheckInvariants(), apperrors.ErrInvariantViolation)
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, (&Wallet{}).IsEmpty())
	assert.False(t, (&Wallet{PendingDeposit: d("1")}).IsEmpty())
}

func TestPayoutBankValidate(t *testing.T) {
	assert.NoError(t, PayoutBank{Region: BankRegionUSA, RecipientName: "A", BankName: "B", AccountNumber: "1", RoutingNumber: "2"}.Validate())
	assert.Error(t, PayoutBank{Region: BankRegionEurope, RecipientName: "A", AccountNumber: "1"}.Validate())
	assert.NoError(t, PayoutBank{Region: BankRegionOthers, Description: "wire to ..."}.Validate())
	assert.Error(t, PayoutBank{Region: "mars"}.Validate())
}

func TestAmountsMustFitBalanceColumns(t *testing.T) {
	w := &Wallet{AvailableBalance: d("1000000000"), TotalBalance: d("1000000000")}
	before := *w

	require.ErrorIs(t, w.Credit(d("0.000000001")), apperrors.ErrValidation)
	require.ErrorIs(t, w.ReserveForDeposit(d("1000000000000")), apperrors.ErrValidation)
	require.ErrorIs(t, w.Adjust(BalanceAdjustment{Bonus: d("0.000000001")}), apperrors.ErrValidation)
	require.ErrorIs(t, w.Adjust(BalanceAdjustment{Available: d("999999999999")}), apperrors.ErrValidation)
	assert.Equal(t, before, *w)

	require.NoError(t, w.Credit(d("0.12345678")))
	require.NoError(t, w.Credit(d("1.10000000000")))
	assert.True(t, w.TotalBalance.Equal(d("1000000001.22345678")))
	require.NoError(t, w.CheckInvariants())
}

func TestValidateMoney(t *testing.T) {
	assert.NoError(t, ValidateMoney(d("-999999999999.99999999")))
	assert.ErrorIs(t, ValidateMoney(d("1000000000000")), apperrors.ErrValidation)
	assert.ErrorIs(t, ValidateMoney(d("-0.000000001")), apperrors.ErrValidation)
}

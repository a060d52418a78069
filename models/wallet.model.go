package models

import (
	"fmt"

	"wallet-ledger/apperrors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Wallet is the per-user ledger row. TotalBalance is derived from the
// available, profit and bonus balances; pending amounts are excluded.
type Wallet struct {
	gorm.Model
	UserID            uint            `gorm:"not null;uniqueIndex" json:"userId"`
	TotalBalance      decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"totalBalance"`
	AvailableBalance  decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"availableBalance"`
	ProfitBalance     decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"profitBalance"`
	BonusBalance      decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"bonusBalance"`
	PendingWithdrawal decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"pendingWithdrawal"`
	PendingDeposit    decimal.Decimal `gorm:"type:decimal(20,8);not null;default:0" json:"pendingDeposit"`

	Card   CardInfo   `gorm:"embedded;embeddedPrefix:card_" json:"card"`
	Payout PayoutBank `gorm:"embedded;embeddedPrefix:payout_" json:"payoutBank"`
}

// Balance columns are decimal(20,8): amounts must fit exactly or the
// database rounds each column on its own and breaks the total.
const (
	MoneyScale     = 8
	MoneyIntDigits = 12
)

var maxMoney = decimal.New(1, MoneyIntDigits)

// ValidateMoney rejects values the balance columns cannot store exactly.
func ValidateMoney(d decimal.Decimal) error {
	if !d.Equal(d.Truncate(MoneyScale)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", apperrors.ErrValidation, d, MoneyScale)
	}
	if d.Abs().GreaterThanOrEqual(maxMoney) {
		return fmt.Errorf("%w: %s has more than %d integer digits", apperrors.ErrValidation, d, MoneyIntDigits)
	}
	return nil
}

func (Wallet) TableName() string {
	return "wallets"
}

// BalanceAdjustment is the set of sub-balances an admin may move directly.
// Values are signed deltas; the total is always recomputed, never set.
type BalanceAdjustment struct {
	Available         decimal.Decimal
	Profit            decimal.Decimal
	Bonus             decimal.Decimal
	PendingWithdrawal decimal.Decimal
	PendingDeposit    decimal.Decimal
}

// IsZero reports whether the adjustment moves nothing.
func (a BalanceAdjustment) IsZero() bool {
	return a.Available.IsZero() && a.Profit.IsZero() && a.Bonus.IsZero() &&
		a.PendingWithdrawal.IsZero() && a.PendingDeposit.IsZero()
}

// ReserveForDeposit holds an incoming amount in PendingDeposit.
func (w *Wallet) ReserveForDeposit(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	return w.apply(BalanceAdjustment{PendingDeposit: amount})
}

// ReserveForWithdrawal moves amount from AvailableBalance to PendingWithdrawal.
func (w *Wallet) ReserveForWithdrawal(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	if w.AvailableBalance.LessThan(amount) {
		return fmt.Errorf("%w: available %s, requested %s",
			apperrors.ErrInsufficientFunds, w.AvailableBalance, amount)
	}
	return w.apply(BalanceAdjustment{Available: amount.Neg(), PendingWithdrawal: amount})
}

// CommitDeposit settles a reserved deposit into AvailableBalance.
func (w *Wallet) CommitDeposit(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	return w.apply(BalanceAdjustment{PendingDeposit: amount.Neg(), Available: amount})
}

// CommitWithdrawal releases the hold; the funds already left AvailableBalance.
func (w *Wallet) CommitWithdrawal(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	return w.apply(BalanceAdjustment{PendingWithdrawal: amount.Neg()})
}

// ReverseWithdrawal returns a held withdrawal to AvailableBalance.
func (w *Wallet) ReverseWithdrawal(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	return w.apply(BalanceAdjustment{PendingWithdrawal: amount.Neg(), Available: amount})
}

// ReverseDeposit drops a reserved deposit that will never arrive.
func (w *Wallet) ReverseDeposit(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	return w.apply(BalanceAdjustment{PendingDeposit: amount.Neg()})
}

// Credit adds directly to AvailableBalance without a pending stage.
func (w *Wallet) Credit(amount decimal.Decimal) error {
	if err := requirePositive(amount); err != nil {
		return err
	}
	return w.apply(BalanceAdjustment{Available: amount})
}

// Adjust applies an admin adjustment.
func (w *Wallet) Adjust(adj BalanceAdjustment) error {
	return w.apply(adj)
}

// CheckInvariants verifies non-negativity and the total identity.
func (w *Wallet) CheckInvariants() error {
	for name, v := range map[string]decimal.Decimal{
		"availableBalance":  w.AvailableBalance,
		"profitBalance":     w.ProfitBalance,
		"bonusBalance":      w.BonusBalance,
		"pendingWithdrawal": w.PendingWithdrawal,
		"pendingDeposit":    w.PendingDeposit,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: %s is %s", apperrors.ErrInvariantViolation, name, v)
		}
	}
	sum := w.AvailableBalance.Add(w.ProfitBalance).Add(w.BonusBalance)
	if !w.TotalBalance.Equal(sum) {
		return fmt.Errorf("%w: total %s != %s", apperrors.ErrInvariantViolation, w.TotalBalance, sum)
	}
	return nil
}

// IsEmpty reports whether every balance and pending amount is zero.
func (w *Wallet) IsEmpty() bool {
	return w.TotalBalance.IsZero() && w.AvailableBalance.IsZero() && w.ProfitBalance.IsZero() &&
		w.BonusBalance.IsZero() && w.PendingWithdrawal.IsZero() && w.PendingDeposit.IsZero()
}

// apply is the only place sub-balances change. It works on a copy so a
// rejected mutation leaves the wallet untouched.
func (w *Wallet) apply(adj BalanceAdjustment) error {
	for _, d := range []decimal.Decimal{adj.Available, adj.Profit, adj.Bonus, adj.PendingWithdrawal, adj.PendingDeposit} {
		if err := ValidateMoney(d); err != nil {
			return err
		}
	}
	next := *w
	next.AvailableBalance = w.AvailableBalance.Add(adj.Available)
	next.ProfitBalance = w.ProfitBalance.Add(adj.Profit)
	next.BonusBalance = w.BonusBalance.Add(adj.Bonus)
	next.PendingWithdrawal = w.PendingWithdrawal.Add(adj.PendingWithdrawal)
	next.PendingDeposit = w.PendingDeposit.Add(adj.PendingDeposit)
	next.TotalBalance = next.AvailableBalance.Add(next.ProfitBalance).Add(next.BonusBalance)

	if err := next.CheckInvariants(); err != nil {
		return err
	}
	for _, d := range []decimal.Decimal{next.TotalBalance, next.PendingWithdrawal, next.PendingDeposit} {
		if err := ValidateMoney(d); err != nil {
			return err
		}
	}
	w.AvailableBalance = next.AvailableBalance
	w.ProfitBalance = next.ProfitBalance
	w.BonusBalance = next.BonusBalance
	w.PendingWithdrawal = next.PendingWithdrawal
	w.PendingDeposit = next.PendingDeposit
	w.TotalBalance = next.TotalBalance
	return nil
}

func requirePositive(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0", apperrors.ErrValidation)
	}
	return ValidateMoney(amount)
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TransactionType defines the type of wallet transaction
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeCredit     TransactionType = "credit"
	TransactionTypeTopUp      TransactionType = "top-up"
)

// IsDepositType reports whether the type settles into AvailableBalance.
func (t TransactionType) IsDepositType() bool {
	return t == TransactionTypeDeposit || t == TransactionTypeCredit || t == TransactionTypeTopUp
}

func (t TransactionType) Valid() bool {
	return t.IsDepositType() || t == TransactionTypeWithdrawal
}

// TransactionAction describes why money moved
type TransactionAction string

const (
	TransactionActionFunding        TransactionAction = "funding"
	TransactionActionTrade          TransactionAction = "trade"
	TransactionActionTransfer       TransactionAction = "transfer"
	TransactionActionPayment        TransactionAction = "payment"
	TransactionActionCryptoPayment  TransactionAction = "crypto_payment"
	TransactionActionBankWithdrawal TransactionAction = "bank_withdrawal"
)

func (a TransactionAction) Valid() bool {
	switch a {
	case TransactionActionFunding, TransactionActionTrade, TransactionActionTransfer,
		TransactionActionPayment, TransactionActionCryptoPayment, TransactionActionBankWithdrawal:
		return true
	}
	return false
}

// TransactionStatus defines the status of a transaction
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "pending"
	TransactionStatusSuccessful TransactionStatus = "successful"
	TransactionStatusFailed     TransactionStatus = "failed"
)

// IsTerminal reports whether no further balance movement is allowed.
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusSuccessful || s == TransactionStatusFailed
}

// WalletTransaction tracks all wallet transactions for a user
type WalletTransaction struct {
	gorm.Model
	UserID          uint              `gorm:"not null;index" json:"userId"`
	WalletID        uint              `gorm:"not null;index" json:"walletId"`
	Reference       string            `gorm:"type:varchar(64);not null;uniqueIndex" json:"reference"`
	Amount          decimal.Decimal   `gorm:"type:decimal(20,8);not null" json:"amount"`
	TransactionType TransactionType   `gorm:"type:varchar(20);not null;index" json:"transactionType"`
	Action          TransactionAction `gorm:"type:varchar(30);not null" json:"action"`
	Status          TransactionStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	PaymentMethod   string            `gorm:"type:varchar(100)" json:"paymentMethod"`
	Description     string            `gorm:"type:text" json:"description"`
	Date            time.Time         `gorm:"not null" json:"date"`
	CompletedAt     *time.Time        `json:"completedAt,omitempty"`

	// Crypto payment details; CryptoInvoiceID is the webhook idempotency key
	CryptoOrderNumber    *string          `gorm:"type:varchar(64);index" json:"cryptoOrderNumber,omitempty"`
	CryptoInvoiceID      *string          `gorm:"type:varchar(64);uniqueIndex" json:"cryptoInvoiceId,omitempty"`
	CryptoCurrency       string           `gorm:"type:varchar(20)" json:"cryptoCurrency,omitempty"`
	CryptoAmount         *decimal.Decimal `gorm:"type:decimal(30,12)" json:"cryptoAmount,omitempty"`
	CryptoWalletAddress  string           `gorm:"type:varchar(255)" json:"cryptoWalletAddress,omitempty"`
	CryptoInvoiceURL     string           `gorm:"type:varchar(512)" json:"cryptoInvoiceUrl,omitempty"`
	CryptoExpiresAt      *time.Time       `gorm:"index" json:"cryptoExpiresAt,omitempty"`
	CryptoTxnID          string           `gorm:"type:varchar(255)" json:"cryptoTxnId,omitempty"`
	CryptoConfirmations  int              `gorm:"default:0" json:"cryptoConfirmations"`
	CryptoActualAmount   *decimal.Decimal `gorm:"type:decimal(30,12)" json:"cryptoActualAmount,omitempty"`
	CryptoActualCurrency string           `gorm:"type:varchar(20)" json:"cryptoActualCurrency,omitempty"`

	// Raw gateway payload kept for audit only
	GatewayPayload datatypes.JSON `json:"gatewayPayload,omitempty"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// IsExpired reports whether a pending crypto invoice has passed its expiry.
func (t *WalletTransaction) IsExpired(now time.Time) bool {
	return t.Status == TransactionStatusPending && t.CryptoExpiresAt != nil && t.CryptoExpiresAt.Before(now)
}

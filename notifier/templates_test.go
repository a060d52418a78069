package notifier

import (
	"testing"

	"wallet-ledger/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSettledEmail(t *testing.T) {
	txn := &models.WalletTransaction{
		Reference:       "TXN1",
		Amount:          decimal.RequireFromString("250.5"),
		TransactionType: models.TransactionTypeWithdrawal,
		Status:          models.TransactionStatusFailed,
		PaymentMethod:   "Bank",
		Description:     "Payout - Rejected: <bad iban>",
	}

	subject, body := settledEmail("Ana", txn)
	assert.Equal(t, "Withdrawal Failed", subject)
	assert.Contains(t, body, "250.50")
	assert.Contains(t, body, "&lt;bad iban&gt;")

	txn.TransactionType = models.TransactionTypeDeposit
	txn.Status = models.TransactionStatusSuccessful
	subject, _ = settledEmail("Ana", txn)
	assert.Equal(t, "Deposit Completed", subject)
}

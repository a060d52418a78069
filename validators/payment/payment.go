package paymentValidator

import (
	"wallet-ledger/validators"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type CryptoPaymentRequest struct {
	Amount         decimal.Decimal `json:"amount" validate:"required,positive,money"`
	Currency       string          `json:"currency" validate:"omitempty,len=3"`
	CryptoCurrency string          `json:"cryptoCurrency" validate:"required,min=2,max=20"`
	OrderName      string          `json:"orderName" validate:"max=100"`
	Description    string          `json:"description" validate:"max=500"`
}

func CreateCryptoPayment() fiber.Handler {
	return validators.Body[CryptoPaymentRequest]("validatedCryptoPayment")
}

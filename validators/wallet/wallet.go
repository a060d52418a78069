package walletValidator

import (
	"wallet-ledger/middleware"
	"wallet-ledger/models"
	"wallet-ledger/validators"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type TopUpRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required,positive,money"`
	PaymentMethod string          `json:"paymentMethod" validate:"required,max=100"`
	Description   string          `json:"description" validate:"max=500"`
}

type WithdrawRequest struct {
	Amount        decimal.Decimal `json:"amount" validate:"required,positive,money"`
	PaymentMethod string          `json:"paymentMethod" validate:"max=100"`
	Description   string          `json:"description" validate:"max=500"`
}

type CreditRequest struct {
	UserID        uint            `json:"userId" validate:"required"`
	Amount        decimal.Decimal `json:"amount" validate:"required,positive,money"`
	PaymentMethod string          `json:"paymentMethod" validate:"max=100"`
	Description   string          `json:"description" validate:"max=500"`
}

// AdjustRequest carries signed deltas; omitted fields do not change.
type AdjustRequest struct {
	AvailableBalance  decimal.Decimal `json:"availableBalance" validate:"money"`
	ProfitBalance     decimal.Decimal `json:"profitBalance" validate:"money"`
	BonusBalance      decimal.Decimal `json:"bonusBalance" validate:"money"`
	PendingWithdrawal decimal.Decimal `json:"pendingWithdrawal" validate:"money"`
	PendingDeposit    decimal.Decimal `json:"pendingDeposit" validate:"money"`
}

func (r AdjustRequest) Adjustment() models.BalanceAdjustment {
	return models.BalanceAdjustment{
		Available:         r.AvailableBalance,
		Profit:            r.ProfitBalance,
		Bonus:             r.BonusBalance,
		PendingWithdrawal: r.PendingWithdrawal,
		PendingDeposit:    r.PendingDeposit,
	}
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type PayoutBankRequest struct {
	Region        models.BankRegion `json:"region" form:"region" validate:"required,oneof=usa europe others"`
	RecipientName string            `json:"recipientName" form:"recipientName"`
	BankName      string            `json:"bankName" form:"bankName"`
	AccountNumber string            `json:"accountNumber" form:"accountNumber"`
	RoutingNumber string            `json:"routingNumber" form:"routingNumber"`
	IBAN          string            `json:"iban" form:"iban"`
	SwiftCode     string            `json:"swiftCode" form:"swiftCode"`
	Description   string            `json:"description" form:"description"`
}

func (r PayoutBankRequest) Bank() models.PayoutBank {
	return models.PayoutBank{
		Region:        r.Region,
		RecipientName: r.RecipientName,
		BankName:      r.BankName,
		AccountNumber: r.AccountNumber,
		RoutingNumber: r.RoutingNumber,
		IBAN:          r.IBAN,
		SwiftCode:     r.SwiftCode,
		Description:   r.Description,
	}
}

// CardRequest is multipart: the fields below plus frontImage and backImage files.
type CardRequest struct {
	CardHolderName string `form:"cardHolderName" validate:"required,min=2,max=100"`
	CardNumber     string `form:"cardNumber" validate:"required,numeric,min=12,max=19"`
	ExpiryDate     string `form:"expiryDate" validate:"required,len=5"`
}

func TopUp() fiber.Handler {
	return validators.Body[TopUpRequest]("validatedTopUp")
}

func Withdraw() fiber.Handler {
	return validators.Body[WithdrawRequest]("validatedWithdraw")
}

func AdminCredit() fiber.Handler {
	return validators.Body[CreditRequest]("validatedCredit")
}

// Reject accepts an empty body; the reason then defaults downstream.
func Reject() fiber.Handler {
	parse := validators.Body[RejectRequest]("validatedReject")
	return func(c *fiber.Ctx) error {
		if len(c.Body()) == 0 {
			c.Locals("validatedReject", &RejectRequest{})
			return c.Next()
		}
		return parse(c)
	}
}

func PayoutBank() fiber.Handler {
	return validators.Body[PayoutBankRequest]("validatedPayoutBank")
}

// AdminAdjust rejects a body that moves nothing.
func AdminAdjust() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(AdjustRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if errs := validators.Struct(reqData); len(errs) > 0 {
			return middleware.ValidationErrorResponse(c, errs)
		}
		if reqData.Adjustment().IsZero() {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"body": "At least one balance field must be provided!",
			})
		}
		c.Locals("validatedAdjust", reqData)
		return c.Next()
	}
}

// Card validates the text fields and requires both card images.
func Card() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(CardRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		errors := validators.Struct(reqData)
		if errors == nil {
			errors = make(map[string]string)
		}
		if _, err := c.FormFile("frontImage"); err != nil {
			errors["frontImage"] = "Front image is required!"
		}
		if _, err := c.FormFile("backImage"); err != nil {
			errors["backImage"] = "Back image is required!"
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		c.Locals("validatedCard", reqData)
		return c.Next()
	}
}

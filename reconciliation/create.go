package reconciliation

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger/apperrors"
	"wallet-ledger/gateway"
	"wallet-ledger/ledger"
	"wallet-ledger/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TopUpRequest struct {
	Amount        decimal.Decimal
	PaymentMethod string
	Description   string
	// Reference is optional; one is generated when empty.
	Reference string
}

// TopUp records a manual deposit awaiting admin approval and holds the
// amount in PendingDeposit.
func (e *Engine) TopUp(ctx context.Context, userID uint, req TopUpRequest) (txn *models.WalletTransaction, err error) {
	defer func() { e.record("create_top_up", err) }()

	wallet, err := e.ledger.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	description := req.Description
	if description == "" {
		description = "Wallet top-up via " + req.PaymentMethod
	}
	txn = &models.WalletTransaction{
		UserID:          userID,
		WalletID:        wallet.ID,
		Reference:       req.Reference,
		Amount:          req.Amount,
		TransactionType: models.TransactionTypeTopUp,
		Action:          models.TransactionActionFunding,
		Status:          models.TransactionStatusPending,
		PaymentMethod:   req.PaymentMethod,
		Description:     description,
		Date:            e.now(),
	}

	_, err = e.ledger.WithWallet(ctx, wallet.ID, func(tx *gorm.DB, w *models.Wallet) error {
		if err := w.ReserveForDeposit(req.Amount); err != nil {
			return err
		}
		return e.txns.Create(tx, txn)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("top-up created",
		zap.Uint("user_id", userID),
		zap.String("reference", txn.Reference),
		zap.String("amount", txn.Amount.String()),
	)
	return txn, nil
}

type WithdrawRequest struct {
	Amount        decimal.Decimal
	PaymentMethod string
	Description   string
	Reference     string
}

// Withdraw moves the amount from AvailableBalance to PendingWithdrawal and
// records a pending withdrawal for admin review.
func (e *Engine) Withdraw(ctx context.Context, userID uint, req WithdrawRequest) (txn *models.WalletTransaction, err error) {
	defer func() { e.record("create_withdrawal", err) }()

	wallet, err := e.ledger.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	method := req.PaymentMethod
	if method == "" {
		method = "Bank transfer"
	}
	description := req.Description
	if description == "" {
		description = "Withdrawal via " + method
	}
	txn = &models.WalletTransaction{
		UserID:          userID,
		WalletID:        wallet.ID,
		Reference:       req.Reference,
		Amount:          req.Amount,
		TransactionType: models.TransactionTypeWithdrawal,
		Action:          models.TransactionActionBankWithdrawal,
		Status:          models.TransactionStatusPending,
		PaymentMethod:   method,
		Description:     description,
		Date:            e.now(),
	}

	_, err = e.ledger.WithWallet(ctx, wallet.ID, func(tx *gorm.DB, w *models.Wallet) error {
		if err := w.ReserveForWithdrawal(req.Amount); err != nil {
			return err
		}
		return e.txns.Create(tx, txn)
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("withdrawal requested",
		zap.Uint("user_id", userID),
		zap.String("reference", txn.Reference),
		zap.String("amount", txn.Amount.String()),
	)
	return txn, nil
}

type CryptoPaymentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	CryptoCurrency string
	OrderName      string
	Description    string
}

// CreateCryptoPayment opens a Plisio invoice and records a pending deposit
// for it. A gateway failure leaves no transaction and no balance change.
func (e *Engine) CreateCryptoPayment(ctx context.Context, userID uint, req CryptoPaymentRequest) (txn *models.WalletTransaction, err error) {
	defer func() { e.record("create_crypto_payment", err) }()

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be greater than 0", apperrors.ErrValidation)
	}
	if err := models.ValidateMoney(req.Amount); err != nil {
		return nil, err
	}
	if e.gw == nil {
		return nil, fmt.Errorf("%w: no payment gateway configured", apperrors.ErrGateway)
	}
	if req.Currency == "" {
		req.Currency = "USD"
	}
	req.CryptoCurrency = strings.ToUpper(req.CryptoCurrency)

	user, err := e.ledger.FindUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.AccountStatus != models.AccountStatusActive {
		return nil, fmt.Errorf("%w: cannot create payment, account status is %s",
			apperrors.ErrValidation, user.AccountStatus)
	}

	wallet, err := e.ledger.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	cryptoAmount, err := e.rates.Convert(ctx, req.Amount, req.CryptoCurrency)
	if err != nil {
		return nil, err
	}

	orderNumber := ledger.NewOrderNumber()
	orderName := req.OrderName
	if orderName == "" {
		orderName = "Crypto Payment - " + orderNumber
	}
	description := req.Description
	if description == "" {
		description = "Crypto payment via " + req.CryptoCurrency
	}

	inv, err := e.gw.CreateInvoice(ctx, gateway.InvoiceRequest{
		OrderNumber:    orderNumber,
		OrderName:      orderName,
		Description:    description,
		Amount:         req.Amount,
		Currency:       req.Currency,
		CryptoCurrency: req.CryptoCurrency,
		ExpireMinutes:  int(e.invoiceTTL.Minutes()),
	})
	if err != nil {
		return nil, err
	}

	// Plisio's own expiry wins so lazy expiry never fails a live invoice
	expiresAt := e.now().Add(e.invoiceTTL)
	if inv.ExpiresAt != nil && inv.ExpiresAt.After(e.now()) {
		expiresAt = inv.ExpiresAt.UTC()
	}
	invoiceID := inv.InvoiceID
	txn = &models.WalletTransaction{
		UserID:              userID,
		WalletID:            wallet.ID,
		Reference:           orderNumber,
		Amount:              req.Amount,
		TransactionType:     models.TransactionTypeDeposit,
		Action:              models.TransactionActionCryptoPayment,
		Status:              models.TransactionStatusPending,
		PaymentMethod:       "Crypto - " + req.CryptoCurrency,
		Description:         description,
		Date:                e.now(),
		CryptoOrderNumber:   &orderNumber,
		CryptoInvoiceID:     &invoiceID,
		CryptoCurrency:      req.CryptoCurrency,
		CryptoAmount:        &cryptoAmount,
		CryptoWalletAddress: inv.PayAddress,
		CryptoInvoiceURL:    inv.InvoiceURL,
		CryptoExpiresAt:     &expiresAt,
	}
	if len(inv.Raw) > 0 {
		txn.GatewayPayload = datatypes.JSON(inv.Raw)
	}

	_, err = e.ledger.WithWallet(ctx, wallet.ID, func(tx *gorm.DB, w *models.Wallet) error {
		if err := w.ReserveForDeposit(req.Amount); err != nil {
			return err
		}
		return e.txns.Create(tx, txn)
	})
	if err != nil {
		// the invoice exists upstream but nothing was recorded; it lapses on its own
		e.log.Error("crypto payment not recorded after invoice creation",
			zap.String("order_number", orderNumber),
			zap.String("invoice_id", invoiceID),
			zap.Error(err),
		)
		return nil, err
	}

	e.log.Info("crypto payment created",
		zap.Uint("user_id", userID),
		zap.String("order_number", orderNumber),
		zap.String("amount", req.Amount.String()),
		zap.String("crypto_amount", cryptoAmount.String()),
		zap.String("crypto_currency", req.CryptoCurrency),
	)
	return txn, nil
}

type CreditRequest struct {
	UserID        uint
	Amount        decimal.Decimal
	PaymentMethod string
	Description   string
}

// AdminCredit credits AvailableBalance directly and records an already
// successful credit transaction.
func (e *Engine) AdminCredit(ctx context.Context, req CreditRequest) (txn *models.WalletTransaction, wallet *models.Wallet, err error) {
	defer func() { e.record("admin_credit", err) }()

	wallet, err = e.ledger.GetOrCreate(ctx, req.UserID)
	if err != nil {
		return nil, nil, err
	}

	now := e.now()
	method := req.PaymentMethod
	if method == "" {
		method = "Admin"
	}
	description := req.Description
	if description == "" {
		description = "Admin credit"
	}
	txn = &models.WalletTransaction{
		UserID:          req.UserID,
		WalletID:        wallet.ID,
		Amount:          req.Amount,
		TransactionType: models.TransactionTypeCredit,
		Action:          models.TransactionActionFunding,
		Status:          models.TransactionStatusSuccessful,
		PaymentMethod:   method,
		Description:     description,
		Date:            now,
		CompletedAt:     &now,
	}

	wallet, err = e.ledger.WithWallet(ctx, wallet.ID, func(tx *gorm.DB, w *models.Wallet) error {
		if err := w.Credit(req.Amount); err != nil {
			return err
		}
		return e.txns.Create(tx, txn)
	})
	if err != nil {
		return nil, nil, err
	}

	e.log.Info("admin credit applied",
		zap.Uint("user_id", req.UserID),
		zap.String("reference", txn.Reference),
		zap.String("amount", req.Amount.String()),
	)
	e.notify(ctx, txn)
	return txn, wallet, nil
}

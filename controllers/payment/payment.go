package paymentController

import (
	"encoding/json"
	"fmt"
	"strings"

	"wallet-ledger/middleware"
	"wallet-ledger/reconciliation"
	"wallet-ledger/validators"
	paymentValidator "wallet-ledger/validators/payment"

	"github.com/gofiber/fiber/v2"
)

// Handler serves the /payments routes.
type Handler struct {
	engine *reconciliation.Engine
}

func NewHandler(engine *reconciliation.Engine) *Handler {
	return &Handler{engine: engine}
}

// CreateCryptoPayment opens a processor invoice for the caller.
func (h *Handler) CreateCryptoPayment(c *fiber.Ctx) error {
	reqData, ok := validators.Get[paymentValidator.CryptoPaymentRequest](c, "validatedCryptoPayment")
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	txn, err := h.engine.CreateCryptoPayment(c.UserContext(), middleware.UserID(c), reconciliation.CryptoPaymentRequest{
		Amount:         reqData.Amount,
		Currency:       strings.ToUpper(reqData.Currency),
		CryptoCurrency: strings.ToUpper(reqData.CryptoCurrency),
		OrderName:      reqData.OrderName,
		Description:    reqData.Description,
	})
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Crypto payment created!", fiber.Map{
		"transaction":    txn,
		"invoiceUrl":     txn.CryptoInvoiceURL,
		"payAddress":     txn.CryptoWalletAddress,
		"cryptoAmount":   txn.CryptoAmount,
		"cryptoCurrency": txn.CryptoCurrency,
		"expiresAt":      txn.CryptoExpiresAt,
	})
}

func (h *Handler) ListCryptoPayments(c *fiber.Ctx) error {
	page, err := h.engine.ListCryptoPayments(c.UserContext(), middleware.UserID(c), c.QueryInt("page", 1), c.QueryInt("limit", 10))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Crypto payments fetched!", page)
}

// GetCryptoPayment returns one of the caller's payments by order number.
func (h *Handler) GetCryptoPayment(c *fiber.Ctx) error {
	txn, err := h.engine.GetCryptoPayment(c.UserContext(), c.Params("orderNumber"), middleware.UserID(c))
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Crypto payment fetched!", txn)
}

// AdminGetCryptoPayment looks a payment up without the ownership check.
func (h *Handler) AdminGetCryptoPayment(c *fiber.Ctx) error {
	txn, err := h.engine.GetCryptoPayment(c.UserContext(), c.Params("orderNumber"), 0)
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Crypto payment fetched!", txn)
}

func (h *Handler) Currencies(c *fiber.Ctx) error {
	list, err := h.engine.Currencies(c.UserContext())
	if err != nil {
		return middleware.ErrorResponse(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Currencies fetched!", list)
}

func webhookReply(c *fiber.Ctx, ok bool, message string) error {
	status := "OK"
	if !ok {
		status = "ERROR"
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": status, "message": message})
}

// Webhook receives processor callbacks. It always answers 200; the body
// says whether the delivery was accepted.
func (h *Handler) Webhook(c *fiber.Ctx) error {
	payload, raw, err := parseWebhook(c)
	if err != nil {
		return webhookReply(c, false, "Invalid payload")
	}
	if err := h.engine.AuthenticateWebhook(payload); err != nil {
		return webhookReply(c, false, "Invalid signature")
	}

	res, err := h.engine.HandleWebhook(c.UserContext(), eventFrom(payload, raw))
	if err != nil {
		if middleware.StatusFor(err) == fiber.StatusInternalServerError {
			return webhookReply(c, false, "Processing failed")
		}
		return webhookReply(c, false, err.Error())
	}
	switch {
	case res.Duplicate:
		return webhookReply(c, true, "Already processed")
	case res.Applied:
		return webhookReply(c, true, "Payment "+string(res.Transaction.Status))
	default:
		return webhookReply(c, true, "Status recorded")
	}
}

// parseWebhook accepts JSON or form bodies and returns the fields plus a
// JSON copy of them for the audit column.
func parseWebhook(c *fiber.Ctx) (map[string]interface{}, []byte, error) {
	payload := make(map[string]interface{})
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEApplicationJSON) {
		d := json.NewDecoder(strings.NewReader(string(c.Body())))
		d.UseNumber()
		if err := d.Decode(&payload); err != nil {
			return nil, nil, err
		}
		return payload, append([]byte(nil), c.Body()...), nil
	}

	if form, err := c.MultipartForm(); err == nil {
		for k, v := range form.Value {
			if len(v) > 0 {
				payload[k] = v[0]
			}
		}
	} else {
		c.Request().PostArgs().VisitAll(func(k, v []byte) {
			payload[string(k)] = string(v)
		})
	}
	if len(payload) == 0 {
		return nil, nil, fmt.Errorf("empty webhook body")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	return payload, raw, nil
}

func field(payload map[string]interface{}, key string) string {
	switch v := payload[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func eventFrom(payload map[string]interface{}, raw []byte) reconciliation.WebhookEvent {
	return reconciliation.WebhookEvent{
		InvoiceID:      field(payload, "invoice_id"),
		Status:         field(payload, "status"),
		OrderNumber:    field(payload, "order_number"),
		Amount:         field(payload, "amount"),
		Currency:       field(payload, "currency"),
		TxnID:          field(payload, "txn_id"),
		WalletHash:     field(payload, "wallet_hash"),
		Confirmations:  field(payload, "confirmations"),
		ActualAmount:   field(payload, "actual_amount"),
		ActualCurrency: field(payload, "actual_currency"),
		Payload:        raw,
	}
}

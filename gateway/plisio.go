package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"wallet-ledger/apperrors"
	"wallet-ledger/logger"
	"wallet-ledger/metrics"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Gateway is what the reconciliation engine needs from a payment processor.
type Gateway interface {
	CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error)
	ListCurrencies(ctx context.Context) ([]Currency, error)
}

type InvoiceRequest struct {
	OrderNumber    string
	OrderName      string
	Description    string
	Amount         decimal.Decimal
	Currency       string
	CryptoCurrency string
	ExpireMinutes  int
}

type Invoice struct {
	InvoiceID  string          `json:"invoiceId"`
	PayAddress string          `json:"payAddress"`
	InvoiceURL string          `json:"invoiceUrl"`
	ExpiresAt  *time.Time      `json:"expiresAt,omitempty"`
	Raw        json.RawMessage `json:"-"`
}

type Currency struct {
	Code    string          `json:"code"`
	CID     string          `json:"cid"`
	Name    string          `json:"name"`
	USDRate decimal.Decimal `json:"usdRate"`
	Hidden  bool            `json:"hidden"`
}

type Config struct {
	BaseURL     string
	APIKey      string
	CallbackURL string
	Timeout     time.Duration
	// ReadRetries applies to idempotent reads only.
	ReadRetries int
}

// envelope is the {"status": "...", "data": ...} wrapper every Plisio response uses.
type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

type apiError struct {
	Name    string `json:"name"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

type invoiceData struct {
	TxnID      string      `json:"txn_id"`
	InvoiceURL string      `json:"invoice_url"`
	WalletHash string      `json:"wallet_hash"`
	ExpireUTC  json.Number `json:"expire_utc"`
}

type currencyData struct {
	Name    string `json:"name"`
	CID     string `json:"cid"`
	Code    string `json:"currency"`
	RateUSD string `json:"rate_usd"`
	Hidden  int    `json:"hidden"`
}

// Plisio talks to the Plisio API. Calls go through a circuit breaker;
// concurrent currency listings share one upstream request.
type Plisio struct {
	cfg     Config
	client  *resty.Client
	readers *resty.Client
	cb      *gobreaker.CircuitBreaker
	sf      singleflight.Group
	log     *zap.Logger
}

func NewPlisio(cfg Config) *Plisio {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	log := logger.Named("plisio")

	p := &Plisio{
		cfg: cfg,
		// invoice creation must never be replayed by the transport
		client: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout),
		readers: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetRetryCount(cfg.ReadRetries).
			SetRetryWaitTime(200 * time.Millisecond),
		log: log,
	}

	p.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "plisio",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return p
}

// CreateInvoice asks Plisio for a new invoice. It is called exactly once per
// order; the order number lets Plisio reject duplicates.
func (p *Plisio) CreateInvoice(ctx context.Context, req InvoiceRequest) (*Invoice, error) {
	params := map[string]string{
		"api_key":         p.cfg.APIKey,
		"order_number":    req.OrderNumber,
		"order_name":      req.OrderName,
		"description":     req.Description,
		"source_currency": req.Currency,
		"source_amount":   req.Amount.String(),
		"currency":        req.CryptoCurrency,
		"callback_url":    p.cfg.CallbackURL,
	}
	if req.ExpireMinutes > 0 {
		params["expire_min"] = strconv.Itoa(req.ExpireMinutes)
	}

	raw, err := p.call(ctx, "create_invoice", p.client, "/invoices/new", params)
	if err != nil {
		return nil, err
	}

	var data invoiceData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: decode invoice: %v", apperrors.ErrGateway, err)
	}
	if data.TxnID == "" {
		return nil, fmt.Errorf("%w: invoice response has no txn_id", apperrors.ErrGateway)
	}

	inv := &Invoice{
		InvoiceID:  data.TxnID,
		PayAddress: data.WalletHash,
		InvoiceURL: data.InvoiceURL,
		Raw:        raw,
	}
	if secs, err := data.ExpireUTC.Int64(); err == nil && secs > 0 {
		t := time.Unix(secs, 0).UTC()
		inv.ExpiresAt = &t
	}

	p.log.Info("invoice created",
		zap.String("order_number", req.OrderNumber),
		zap.String("invoice_id", inv.InvoiceID),
	)
	return inv, nil
}

// ListCurrencies returns the processor's supported cryptocurrencies with USD rates.
func (p *Plisio) ListCurrencies(ctx context.Context) ([]Currency, error) {
	v, err, _ := p.sf.Do("currencies", func() (interface{}, error) {
		raw, err := p.call(ctx, "list_currencies", p.readers, "/currencies",
			map[string]string{"api_key": p.cfg.APIKey})
		if err != nil {
			return nil, err
		}

		var data []currencyData
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("%w: decode currencies: %v", apperrors.ErrGateway, err)
		}

		out := make([]Currency, 0, len(data))
		for _, d := range data {
			rate, err := decimal.NewFromString(d.RateUSD)
			if err != nil {
				p.log.Debug("skipping currency with unparsable rate",
					zap.String("currency", d.Code), zap.String("rate_usd", d.RateUSD))
				continue
			}
			out = append(out, Currency{
				Code:    d.Code,
				CID:     d.CID,
				Name:    d.Name,
				USDRate: rate,
				Hidden:  d.Hidden != 0,
			})
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]Currency), nil
}

func (p *Plisio) call(ctx context.Context, op string, client *resty.Client, path string, params map[string]string) (json.RawMessage, error) {
	start := time.Now()

	res, err := p.cb.Execute(func() (interface{}, error) {
		var env envelope
		resp, err := client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetHeader("Accept", "application/json").
			Get(path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrGateway, op, err)
		}
		if err := json.Unmarshal(resp.Body(), &env); err != nil {
			return nil, fmt.Errorf("%w: %s: status %d: unreadable body", apperrors.ErrGateway, op, resp.StatusCode())
		}
		if resp.IsError() || env.Status == "error" {
			var apiErr apiError
			_ = json.Unmarshal(env.Data, &apiErr)
			msg := apiErr.Message
			if msg == "" {
				msg = "Plisio API error"
			}
			return nil, fmt.Errorf("%w: %s: status %d: %s", apperrors.ErrGateway, op, resp.StatusCode(), msg)
		}
		return env.Data, nil
	})

	metrics.GatewayRequests.WithLabelValues(op, metrics.Outcome(err)).Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.log.Warn("circuit breaker open - request rejected", zap.String("operation", op))
			return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrGateway, op, err)
		}
		p.log.Error("gateway request failed", zap.String("operation", op), zap.Error(err))
		return nil, err
	}
	return res.(json.RawMessage), nil
}

package gateway

import (
	"context"
	"fmt"
	"strings"

	"wallet-ledger/apperrors"

	"github.com/shopspring/decimal"
)

// CryptoPrecision is the number of decimals kept for crypto amounts.
const CryptoPrecision = 8

// RateBook resolves a cryptocurrency code to its USD rate from the
// processor's currency list. There is no fallback rate.
type RateBook struct {
	gw Gateway
}

func NewRateBook(gw Gateway) *RateBook {
	return &RateBook{gw: gw}
}

// USDRate returns the USD price of one unit of code.
func (r *RateBook) USDRate(ctx context.Context, code string) (decimal.Decimal, error) {
	list, err := r.gw.ListCurrencies(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", apperrors.ErrRateUnavailable, err)
	}
	for _, c := range list {
		if strings.EqualFold(c.Code, code) || strings.EqualFold(c.CID, code) {
			if !c.USDRate.IsPositive() {
				break
			}
			return c.USDRate, nil
		}
	}
	return decimal.Zero, fmt.Errorf("%w: no rate for %s", apperrors.ErrRateUnavailable, code)
}

// Convert returns the crypto amount for a USD amount, rounded to CryptoPrecision.
func (r *RateBook) Convert(ctx context.Context, usdAmount decimal.Decimal, code string) (decimal.Decimal, error) {
	rate, err := r.USDRate(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}
	return usdAmount.DivRound(rate, CryptoPrecision), nil
}

package api

import (
	"errors"
	"net/http"

	"github.com/rentkit/rental-service/core/pricing"
)

var (
	errInvalidTierID = errors.New("invalid tier id")
	errInvalidDays   = errors.New("days must be a positive integer")
)

type TierRequestDto struct {
	*pricing.Tier
}

func (d *TierRequestDto) Bind(_ *http.Request) error {
	if d.Tier == nil || d.Sku == "" {
		return errMissingSku
	}
	if _, err := pricing.ParsePeriodType(string(d.PeriodType)); err != nil {
		return err
	}
	return nil
}

type TierResponse struct {
	pricing.Tier
}

func NewTierResponse(tier pricing.Tier) *TierResponse {
	return &TierResponse{Tier: tier}
}

func (d *TierResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type QuoteResponse struct {
	pricing.Quote
}

func NewQuoteResponse(quote pricing.Quote) *QuoteResponse {
	return &QuoteResponse{Quote: quote}
}

func (d *QuoteResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

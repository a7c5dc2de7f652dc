// Package pricing selects the least-cost applicable rental pricing tier for
// an item and duration. Tiers are catalog data, read-only from the
// resolver's perspective.
package pricing

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type PeriodType string

const (
	Hourly  PeriodType = "HOURLY"
	Daily   PeriodType = "DAILY"
	Weekly  PeriodType = "WEEKLY"
	Monthly PeriodType = "MONTHLY"
	Custom  PeriodType = "CUSTOM"
)

func ParsePeriodType(v string) (PeriodType, error) {
	switch PeriodType(v) {
	case Hourly, Daily, Weekly, Monthly, Custom:
		return PeriodType(v), nil
	default:
		return "", errors.New("invalid period type")
	}
}

// Tier is an entity. One pricing rule for an item. Zero values on
// MinRentalDays/MaxRentalDays mean unbounded on that side, and zero times
// on EffectiveDate/ExpiryDate mean always effective/never expiring.
type Tier struct {
	ID                 uint64          `json:"id"`
	Sku                string          `json:"sku"`
	PeriodType         PeriodType      `json:"periodType"`
	PeriodDays         int             `json:"periodDays"`
	RatePerPeriod      decimal.Decimal `json:"ratePerPeriod"`
	MinRentalDays      int             `json:"minRentalDays,omitempty"`
	MaxRentalDays      int             `json:"maxRentalDays,omitempty"`
	EffectiveDate      time.Time       `json:"effectiveDate,omitempty"`
	ExpiryDate         time.Time       `json:"expiryDate,omitempty"`
	Priority           int             `json:"priority"`
	IsDefault          bool            `json:"isDefault"`
	SeasonalMultiplier decimal.Decimal `json:"seasonalMultiplier"`
	Created            time.Time       `json:"created"`
}

// AppliesTo reports whether the tier covers the duration on the given date.
func (t Tier) AppliesTo(rentalDays int, asOf time.Time) bool {
	if !t.EffectiveDate.IsZero() && asOf.Before(t.EffectiveDate) {
		return false
	}
	if !t.ExpiryDate.IsZero() && asOf.After(t.ExpiryDate) {
		return false
	}
	if t.MinRentalDays > 0 && rentalDays < t.MinRentalDays {
		return false
	}
	if t.MaxRentalDays > 0 && rentalDays > t.MaxRentalDays {
		return false
	}
	return true
}

// TotalCost is rate_per_period * ceil(rentalDays / period_days), scaled by
// the seasonal multiplier.
func (t Tier) TotalCost(rentalDays int) decimal.Decimal {
	periods := (rentalDays + t.PeriodDays - 1) / t.PeriodDays
	cost := t.RatePerPeriod.Mul(decimal.NewFromInt(int64(periods)))
	if !t.SeasonalMultiplier.IsZero() {
		cost = cost.Mul(t.SeasonalMultiplier)
	}
	return cost
}

// Quote is a value object. The resolver's answer for one item and duration.
type Quote struct {
	Sku        string `json:"sku"`
	RentalDays int    `json:"rentalDays"`

	// Tier is nil when no tier matched and the item's flat daily rate was
	// used instead.
	Tier *Tier `json:"tier,omitempty"`

	TotalCost       decimal.Decimal `json:"totalCost"`
	DailyEquivalent decimal.Decimal `json:"dailyEquivalent"`

	// Savings against the naive baseDailyRate * rentalDays. Negative values
	// are preserved so a misconfigured tier is visible, not hidden.
	Savings decimal.Decimal `json:"savings"`

	// Misconfigured flags a selected tier costing more than the base rate.
	Misconfigured bool `json:"misconfigured,omitempty"`
}

// Package inspection adjudicates returned rental lines: a condition rating
// maps to a stock disposition and a deposit charge through a fixed table,
// so the table itself is the unit of test coverage.
package inspection

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/shopspring/decimal"
)

type ConditionRating string

const (
	RatingA ConditionRating = "A" // as issued
	RatingB ConditionRating = "B" // light wear
	RatingC ConditionRating = "C" // needs repair
	RatingD ConditionRating = "D" // beyond economic repair
	RatingE ConditionRating = "E" // total loss
)

func ParseConditionRating(v string) (ConditionRating, error) {
	switch ConditionRating(v) {
	case RatingA, RatingB, RatingC, RatingD, RatingE:
		return ConditionRating(v), nil
	default:
		return "", errors.New("invalid condition rating")
	}
}

type outcome struct {
	chargeFraction  decimal.Decimal
	fullReplacement bool
	disposition     stock.Disposition
}

// adjudicationTable is the rating contract: A→0%, B→10%, C→50%, D→100% of
// the deposit; E charges full replacement value and is not deposit-bounded.
var adjudicationTable = map[ConditionRating]outcome{
	RatingA: {chargeFraction: decimal.Zero, disposition: stock.DispositionToStock},
	RatingB: {chargeFraction: decimal.NewFromFloat(0.10), disposition: stock.DispositionToStock},
	RatingC: {chargeFraction: decimal.NewFromFloat(0.50), disposition: stock.DispositionToRepair},
	RatingD: {chargeFraction: decimal.NewFromInt(1), disposition: stock.DispositionWrittenOff},
	RatingE: {fullReplacement: true, disposition: stock.DispositionWrittenOff},
}

// Inspection is an entity. One row per adjudicated return line, immutable
// once the disposition is finalized.
type Inspection struct {
	ID                 uint64          `json:"id"`
	RentalID           uint64          `json:"rentalId"`
	LineRef            string          `json:"lineRef"`
	Rating             ConditionRating `json:"rating"`
	Quantity           int64           `json:"quantity"`
	Description        string          `json:"description,omitempty"`
	AssessedRepairCost decimal.Decimal `json:"assessedRepairCost"`
	Disposition        stock.Disposition `json:"disposition"`
	DepositCharge      decimal.Decimal `json:"depositCharge"`
	Actor              string          `json:"actor"`
	Created            time.Time       `json:"created"`
}

// Assessment is a value object. The inspector's raw findings for one line.
type Assessment struct {
	RentalID           uint64          `json:"rentalId"`
	LineRef            string          `json:"lineRef"`
	Rating             ConditionRating `json:"rating"`
	Quantity           int64           `json:"quantity"`
	Description        string          `json:"description,omitempty"`
	AssessedRepairCost decimal.Decimal `json:"assessedRepairCost"`
	Actor              string          `json:"actor"`
}

// Decide is the pure half of adjudication: rating plus assessed repair cost
// against the rental's deposit and the item's replacement value. The
// assessed cost raises the rating-derived charge when higher, capped at the
// replacement value.
func Decide(rating ConditionRating, assessedRepairCost, deposit, replacementValue decimal.Decimal) (stock.Disposition, decimal.Decimal, error) {
	o, ok := adjudicationTable[rating]
	if !ok {
		return "", decimal.Zero, errors.New("invalid condition rating")
	}

	var charge decimal.Decimal
	if o.fullReplacement {
		charge = replacementValue
	} else {
		charge = deposit.Mul(o.chargeFraction)
	}

	if assessedRepairCost.GreaterThan(charge) {
		charge = assessedRepairCost
		if charge.GreaterThan(replacementValue) {
			charge = replacementValue
		}
	}

	return o.disposition, charge, nil
}

// Package rental governs a rental transaction from booking through pickup,
// extension, partial and full return. State transitions follow an explicit
// table and every stock-affecting transition appends to the stock ledger.
package rental

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core/inspection"
	"github.com/shopspring/decimal"
)

type State string

const (
	PendingPickup State = "PENDING_PICKUP"
	Active        State = "ACTIVE"
	Extended      State = "EXTENDED"
	PartialReturn State = "PARTIAL_RETURN"
	Completed     State = "COMPLETED"
	Cancelled     State = "CANCELLED"

	// Overdue is a derived status, never persisted: an ACTIVE or EXTENDED
	// rental past its scheduled return date reads as overdue.
	Overdue State = "OVERDUE"
)

func ParseState(v string) (State, error) {
	switch State(v) {
	case PendingPickup, Active, Extended, PartialReturn, Completed, Cancelled, Overdue, "":
		return State(v), nil
	default:
		return "", errors.New("invalid rental state")
	}
}

// transitions is the lifecycle graph over persisted states. Once partially
// returned a rental only moves toward completion, and the terminal states
// have no outgoing edges.
var transitions = map[State][]State{
	PendingPickup: {Active, Cancelled},
	Active:        {Extended, PartialReturn, Completed},
	Extended:      {Extended, PartialReturn, Completed},
	PartialReturn: {PartialReturn, Completed},
}

// CanTransition reports whether the lifecycle graph permits from -> to.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Rental is an entity. The deposit and daily rate are frozen at booking
// time, not live-looked-up, so later catalog edits never change an open
// rental's terms.
type Rental struct {
	ID               uint64          `json:"id"`
	RequestID        string          `json:"requestId"`
	Renter           string          `json:"renter"`
	Sku              string          `json:"sku"`
	LocationID       uint64          `json:"locationId"`
	Quantity         int64           `json:"quantity"`
	ReturnedQuantity int64           `json:"returnedQuantity"`
	State            State           `json:"state"`
	ScheduledPickup  time.Time       `json:"scheduledPickup"`
	ScheduledReturn  time.Time       `json:"scheduledReturn"`
	ActualPickup     time.Time       `json:"actualPickup,omitempty"`
	ActualReturn     time.Time       `json:"actualReturn,omitempty"`
	Extensions       int             `json:"extensions"`
	DailyRate        decimal.Decimal `json:"dailyRate"`
	Deposit          decimal.Decimal `json:"deposit"`
	TotalCost        decimal.Decimal `json:"totalCost"`
	Created          time.Time       `json:"created"`
}

// Outstanding is the quantity still out with the renter.
func (r Rental) Outstanding() int64 {
	return r.Quantity - r.ReturnedQuantity
}

func (r Rental) IsTerminal() bool {
	return r.State == Completed || r.State == Cancelled
}

// Status derives the reported state at read time. Nothing is persisted, so
// observing an overdue rental twice is trivially the same answer twice.
func (r Rental) Status(now time.Time) State {
	if (r.State == Active || r.State == Extended || r.State == PartialReturn) && now.After(r.ScheduledReturn) {
		return Overdue
	}
	return r.State
}

// DaysLate counts whole days past the scheduled return date.
func (r Rental) DaysLate(now time.Time) int {
	if !now.After(r.ScheduledReturn) {
		return 0
	}
	return int(now.Sub(r.ScheduledReturn).Hours() / 24)
}

// LateFee is daysLate * dailyRate * multiplier beyond the grace period,
// capped at the security deposit, never unbounded.
func (r Rental) LateFee(now time.Time, graceDays int, multiplier decimal.Decimal) decimal.Decimal {
	daysLate := r.DaysLate(now)
	if daysLate <= graceDays {
		return decimal.Zero
	}
	fee := r.DailyRate.Mul(decimal.NewFromInt(int64(daysLate))).Mul(multiplier)
	if fee.GreaterThan(r.Deposit) {
		return r.Deposit
	}
	return fee
}

// RentalDays is the billed duration between two instants, rounded up and
// never less than one day.
func RentalDays(from, to time.Time) int {
	if !to.After(from) {
		return 0
	}
	days := int(to.Sub(from).Hours() / 24)
	if to.Sub(from)%(24*time.Hour) != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

// BookingRequest is a value object. A request to confirm a rental booking.
type BookingRequest struct {
	RequestID       string    `json:"requestId"`
	Renter          string    `json:"renter"`
	Sku             string    `json:"sku"`
	LocationID      uint64    `json:"locationId"`
	Quantity        int64     `json:"quantity"`
	ScheduledPickup time.Time `json:"scheduledPickup"`
	ScheduledReturn time.Time `json:"scheduledReturn"`
}

// ReturnLine is one returned slice of the rented quantity with the
// inspector's findings.
type ReturnLine struct {
	Quantity           int64                      `json:"quantity"`
	Rating             inspection.ConditionRating `json:"rating"`
	Description        string                     `json:"description,omitempty"`
	AssessedRepairCost decimal.Decimal            `json:"assessedRepairCost"`
}

// ReturnRequest is a value object. A partial or full return of a rental.
type ReturnRequest struct {
	RequestID string       `json:"requestId"`
	RentalID  uint64       `json:"rentalId"`
	Actor     string       `json:"actor"`
	Lines     []ReturnLine `json:"lines"`
}

// Settlement is the money outcome of a return: the late fee, the summed
// deposit charges from adjudication and what remains of the deposit.
// RefundDue may be negative when charges exceed the deposit (condition E
// charges replacement value); display flooring is the presenter's concern.
type Settlement struct {
	RentalID       uint64                  `json:"rentalId"`
	LateFee        decimal.Decimal         `json:"lateFee"`
	DepositCharges decimal.Decimal         `json:"depositCharges"`
	RefundDue      decimal.Decimal         `json:"refundDue"`
	Inspections    []inspection.Inspection `json:"inspections"`
}

type GetRentalsOptions struct {
	Renter      string
	Sku         string
	State       State
	OverdueOnly bool
}

// Package stock implements the stock ledger and the per (item, location)
// level aggregate. Every inventory-affecting event is recorded as an
// immutable StockMovement, and the StockLevel row is only ever mutated by
// applying a movement in the same transaction.
package stock

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core"
	"github.com/shopspring/decimal"
)

// Item is a value object. A rentable or sellable SKU in the catalog.
type Item struct {
	Sku              string          `json:"sku"`
	Name             string          `json:"name"`
	BaseDailyRate    decimal.Decimal `json:"baseDailyRate"`
	ReplacementValue decimal.Decimal `json:"replacementValue"`
	Deposit          decimal.Decimal `json:"deposit"`
	BackorderAllowed bool            `json:"backorderAllowed"`
}

// Location is a value object. A warehouse or storefront holding stock.
type Location struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type MovementType string

const (
	Purchase     MovementType = "PURCHASE"
	Sale         MovementType = "SALE"
	RentalOut    MovementType = "RENTAL_OUT"
	RentalReturn MovementType = "RENTAL_RETURN"
	Adjustment   MovementType = "ADJUSTMENT"
	Transfer     MovementType = "TRANSFER"
	WriteOff     MovementType = "WRITE_OFF"
)

func ParseMovementType(v string) (MovementType, error) {
	switch MovementType(v) {
	case Purchase, Sale, RentalOut, RentalReturn, Adjustment, Transfer, WriteOff:
		return MovementType(v), nil
	default:
		return "", errors.New("invalid movement type")
	}
}

// Disposition qualifies returns, write-offs and repair adjustments so each
// ledger row is self-describing when the aggregate is rebuilt from a fold.
type Disposition string

const (
	// DispositionNone applies to purchases, sales and plain adjustments.
	DispositionNone Disposition = ""
	// DispositionToStock marks a returned unit going straight back on-hand.
	DispositionToStock Disposition = "TO_STOCK"
	// DispositionToRepair marks a returned unit routed to the repair queue.
	DispositionToRepair Disposition = "TO_REPAIR"
	// DispositionWrittenOff marks a unit lost while on rent.
	DispositionWrittenOff Disposition = "WRITTEN_OFF"
	// DispositionRepaired marks a repair-queue unit re-entering on-hand.
	DispositionRepaired Disposition = "REPAIRED"
	// DispositionScrapped marks a repair-queue unit judged unrepairable.
	DispositionScrapped Disposition = "SCRAPPED"
)

// StockMovement is an entity. One immutable ledger row; never updated or
// deleted once written.
type StockMovement struct {
	ID           uint64       `json:"id"`
	RequestID    string       `json:"requestId"`
	Sku          string       `json:"sku"`
	LocationID   uint64       `json:"locationId"`
	Type         MovementType `json:"type"`
	Disposition  Disposition  `json:"disposition,omitempty"`
	Quantity     int64        `json:"quantity"`
	BeforeOnHand int64        `json:"beforeOnHand"`
	AfterOnHand  int64        `json:"afterOnHand"`
	ReferenceID  string       `json:"referenceId,omitempty"`
	Actor        string       `json:"actor"`
	Created      time.Time    `json:"created"`
}

// OnHandDelta is the movement's effect on the on-hand bucket. Folding this
// over the full ledger for an (item, location) pair must always reproduce
// the aggregate's on_hand value.
func (m StockMovement) OnHandDelta() int64 {
	switch m.Type {
	case Purchase, Sale, Transfer:
		return m.Quantity
	case Adjustment:
		return m.Quantity
	case RentalOut:
		return m.Quantity
	case RentalReturn:
		if m.Disposition == DispositionToRepair {
			return 0
		}
		return m.Quantity
	case WriteOff:
		return 0
	}
	return 0
}

// MovementRequest is a value object. A request to record one ledger entry.
type MovementRequest struct {
	RequestID   string       `json:"requestId"`
	Sku         string       `json:"sku"`
	LocationID  uint64       `json:"locationId"`
	Type        MovementType `json:"type"`
	Disposition Disposition  `json:"disposition,omitempty"`
	Quantity    int64        `json:"quantity"`
	ReferenceID string       `json:"referenceId,omitempty"`
	Actor       string       `json:"actor"`
}

// StockLevel is an entity. The running totals for one (item, location)
// pair. on_hand counts units physically at the location, reserved is the
// slice of on_hand held for pending pickups, on_rent is out with customers
// and damaged sits in the repair queue outside on_hand.
type StockLevel struct {
	Sku          string `json:"sku"`
	LocationID   uint64 `json:"locationId"`
	OnHand       int64  `json:"onHand"`
	Reserved     int64  `json:"reserved"`
	OnRent       int64  `json:"onRent"`
	Damaged      int64  `json:"damaged"`
	ReorderPoint int64  `json:"reorderPoint"`
	Version      uint64 `json:"version"`
}

// Available is the quantity a new booking or sale may still claim.
func (l StockLevel) Available() int64 {
	return l.OnHand - l.Reserved
}

// apply mutates the level per the movement's accounting rules. The level is
// never touched any other way. backorder permits a negative available
// balance on outflows, never a negative physical bucket.
func (l *StockLevel) apply(m StockMovement, backorder bool) error {
	switch m.Type {
	case Purchase:
		if m.Quantity <= 0 {
			return errors.WithStack(core.ErrInvalidArgument)
		}
		l.OnHand += m.Quantity
	case Sale:
		if m.Quantity >= 0 {
			return errors.WithStack(core.ErrInvalidArgument)
		}
		if l.Available()+m.Quantity < 0 && !backorder {
			return errors.WithStack(core.ErrInsufficientStock)
		}
		l.OnHand += m.Quantity
	case Adjustment:
		if m.Disposition == DispositionRepaired {
			if m.Quantity <= 0 || m.Quantity > l.Damaged {
				return errors.WithStack(core.ErrInvalidArgument)
			}
			l.Damaged -= m.Quantity
		} else if l.OnHand+m.Quantity < 0 {
			return errors.WithStack(core.ErrInsufficientStock)
		}
		l.OnHand += m.Quantity
	case Transfer:
		if l.OnHand+m.Quantity < 0 || l.Available()+m.Quantity < 0 {
			return errors.WithStack(core.ErrInsufficientStock)
		}
		l.OnHand += m.Quantity
	case RentalOut:
		if m.Quantity >= 0 {
			return errors.WithStack(core.ErrInvalidArgument)
		}
		qty := -m.Quantity
		if qty > l.Reserved {
			return errors.WithStack(core.ErrInsufficientStock)
		}
		l.OnHand -= qty
		l.Reserved -= qty
		l.OnRent += qty
	case RentalReturn:
		if m.Quantity <= 0 {
			return errors.WithStack(core.ErrInvalidArgument)
		}
		if m.Quantity > l.OnRent {
			return errors.WithStack(core.ErrInsufficientStock)
		}
		l.OnRent -= m.Quantity
		if m.Disposition == DispositionToRepair {
			l.Damaged += m.Quantity
		} else {
			l.OnHand += m.Quantity
		}
	case WriteOff:
		if m.Quantity >= 0 {
			return errors.WithStack(core.ErrInvalidArgument)
		}
		qty := -m.Quantity
		if m.Disposition == DispositionScrapped {
			if qty > l.Damaged {
				return errors.WithStack(core.ErrInsufficientStock)
			}
			l.Damaged -= qty
		} else {
			if qty > l.OnRent {
				return errors.WithStack(core.ErrInsufficientStock)
			}
			l.OnRent -= qty
		}
	default:
		return errors.New("unknown movement type")
	}
	return nil
}

// ErrVersionConflict indicates a single optimistic write attempt lost the
// race. Bounded retry loops live above this error; callers see
// core.ErrConcurrencyConflict once those are exhausted.
var ErrVersionConflict = errors.New("stock: stock level version conflict")

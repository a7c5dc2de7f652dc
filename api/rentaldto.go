package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/rentkit/rental-service/core/inspection"
	"github.com/rentkit/rental-service/core/rental"
)

var (
	errInvalidRentalID = errors.New("invalid rental id")
	errMissingActor    = errors.New("actor is required")
)

type BookingRequestDto struct {
	*rental.BookingRequest
}

func (d *BookingRequestDto) Bind(_ *http.Request) error {
	if d.BookingRequest == nil {
		return errors.New("missing required booking fields")
	}
	if d.RequestID == "" {
		return errors.New("requestId is required")
	}
	if d.Renter == "" {
		return errors.New("renter is required")
	}
	if d.Sku == "" {
		return errMissingSku
	}
	if d.Quantity < 1 {
		return errors.New("quantity must be positive")
	}
	if !d.ScheduledReturn.After(d.ScheduledPickup) {
		return errors.New("scheduledReturn must be after scheduledPickup")
	}
	return nil
}

// RentalResponse reports the derived status alongside the persisted state so
// clients see OVERDUE without the service ever storing it.
type RentalResponse struct {
	rental.Rental
	Status rental.State `json:"status"`
}

func NewRentalResponse(r rental.Rental, now time.Time) *RentalResponse {
	return &RentalResponse{Rental: r, Status: r.Status(now)}
}

func (d *RentalResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type ActorDto struct {
	Actor string `json:"actor"`
}

func (d *ActorDto) Bind(_ *http.Request) error {
	if d.Actor == "" {
		return errMissingActor
	}
	return nil
}

type ExtendRequestDto struct {
	Actor     string    `json:"actor"`
	NewReturn time.Time `json:"newReturn"`
}

func (d *ExtendRequestDto) Bind(_ *http.Request) error {
	if d.Actor == "" {
		return errMissingActor
	}
	if d.NewReturn.IsZero() {
		return errors.New("newReturn is required")
	}
	return nil
}

type ReturnRequestDto struct {
	*rental.ReturnRequest
}

func (d *ReturnRequestDto) Bind(_ *http.Request) error {
	if d.ReturnRequest == nil {
		return errors.New("missing required return fields")
	}
	if d.RequestID == "" {
		return errors.New("requestId is required")
	}
	if d.Actor == "" {
		return errMissingActor
	}
	if len(d.Lines) == 0 {
		return errors.New("at least one return line is required")
	}
	for _, line := range d.Lines {
		if line.Quantity < 1 {
			return errors.New("line quantity must be positive")
		}
		if _, err := inspection.ParseConditionRating(string(line.Rating)); err != nil {
			return err
		}
	}
	return nil
}

type ReturnResponse struct {
	RentalResponse
	Settlement rental.Settlement `json:"settlement"`
}

func NewReturnResponse(r rental.Rental, s rental.Settlement, now time.Time) *ReturnResponse {
	return &ReturnResponse{RentalResponse: *NewRentalResponse(r, now), Settlement: s}
}

func (d *ReturnResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

type SettlementResponse struct {
	rental.Settlement
}

func NewSettlementResponse(s rental.Settlement) *SettlementResponse {
	return &SettlementResponse{Settlement: s}
}

func (d *SettlementResponse) Render(_ http.ResponseWriter, _ *http.Request) error {
	return nil
}

package rental

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/inspection"
	"github.com/rentkit/rental-service/core/pricing"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// Rules are the business knobs for the lifecycle: the late fee grace period
// and multiplier, and how many optimistic attempts a stock-touching
// transition gets before it reports a concurrency conflict.
type Rules struct {
	GraceDays      int
	LateMultiplier decimal.Decimal
	MaxAttempts    int
	Now            func() time.Time
}

func NewService(repo Repository, stockSvc stock.Service, pricingSvc pricing.Service, inspections inspection.Service, q Queue, rules Rules) *service {
	if rules.MaxAttempts < 1 {
		rules.MaxAttempts = 1
	}
	if rules.Now == nil {
		rules.Now = time.Now
	}
	return &service{
		repo:        repo,
		stock:       stockSvc,
		pricing:     pricingSvc,
		inspections: inspections,
		queue:       q,
		rules:       rules,
	}
}

type Service interface {
	// Book confirms a rental, pricing it against the current tiers and
	// reserving stock in the same transaction. Idempotent by request ID.
	Book(ctx context.Context, br BookingRequest) (Rental, error)

	// Cancel releases a booking's reservation before pickup.
	Cancel(ctx context.Context, rentalID uint64, actor string) (Rental, error)

	// Pickup hands the reserved units to the renter and records the
	// RENTAL_OUT ledger entry.
	Pickup(ctx context.Context, rentalID uint64, actor string) (Rental, error)

	// Extend pushes the scheduled return date out and re-prices the full
	// duration. Only permitted before the current return date passes.
	Extend(ctx context.Context, rentalID uint64, newReturn time.Time, actor string) (Rental, error)

	// Return processes a partial or full return: each line is adjudicated,
	// the matching ledger entries are recorded and the settlement is
	// computed, all atomically with the rental's state change.
	Return(ctx context.Context, rr ReturnRequest) (Rental, Settlement, error)

	GetRental(ctx context.Context, ID uint64) (Rental, error)
	GetRentals(ctx context.Context, filter GetRentalsOptions, limit, offset int) ([]Rental, error)
	GetSettlement(ctx context.Context, rentalID uint64) (Settlement, error)
}

type service struct {
	repo        Repository
	stock       stock.Service
	pricing     pricing.Service
	inspections inspection.Service
	queue       Queue
	rules       Rules
}

func (s *service) Book(ctx context.Context, br BookingRequest) (Rental, error) {
	const funcName = "Book"

	log.Info().
		Str("func", funcName).
		Str("requestId", br.RequestID).
		Str("renter", br.Renter).
		Str("sku", br.Sku).
		Uint64("locationId", br.LocationID).
		Int64("quantity", br.Quantity).
		Msg("booking rental")

	if br.RequestID == "" || br.Renter == "" || br.Sku == "" || br.Quantity < 1 {
		return Rental{}, errors.WithStack(core.ErrInvalidArgument)
	}
	days := RentalDays(br.ScheduledPickup, br.ScheduledReturn)
	if days < 1 {
		return Rental{}, errors.WithStack(core.ErrInvalidArgument)
	}

	existing, err := s.repo.GetRentalByRequestID(ctx, br.RequestID)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return Rental{}, errors.WithStack(err)
	}
	if existing.RequestID != "" {
		log.Debug().Str("func", funcName).Str("requestId", br.RequestID).Msg("rental already booked, returning it")
		return existing, nil
	}

	item, err := s.stock.GetItem(ctx, br.Sku)
	if err != nil {
		return Rental{}, errors.WithStack(err)
	}

	quote, err := s.pricing.Resolve(ctx, item, days, br.ScheduledPickup)
	if err != nil {
		return Rental{}, errors.WithStack(err)
	}

	rental := Rental{
		RequestID:       br.RequestID,
		Renter:          br.Renter,
		Sku:             br.Sku,
		LocationID:      br.LocationID,
		Quantity:        br.Quantity,
		State:           PendingPickup,
		ScheduledPickup: br.ScheduledPickup,
		ScheduledReturn: br.ScheduledReturn,
		DailyRate:       item.BaseDailyRate,
		Deposit:         item.Deposit,
		TotalCost:       quote.TotalCost.Mul(decimal.NewFromInt(br.Quantity)),
		Created:         s.rules.Now(),
	}

	for attempt := 0; attempt < s.rules.MaxAttempts; attempt++ {
		err = func() (err error) {
			tx, err := s.repo.BeginTransaction(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			defer func() {
				if err != nil {
					rollback(ctx, tx, err)
				}
			}()

			if err = s.stock.Reserve(ctx, br.Sku, br.LocationID, br.Quantity, core.UpdateOptions{Tx: tx}); err != nil {
				return err
			}
			if err = s.repo.SaveRental(ctx, &rental, core.UpdateOptions{Tx: tx}); err != nil {
				return errors.WithMessage(err, "failed to save rental")
			}
			return errors.WithStack(tx.Commit(ctx))
		}()
		if errors.Is(err, stock.ErrVersionConflict) {
			log.Debug().Str("func", funcName).Str("sku", br.Sku).Int("attempt", attempt+1).Msg("stock level moved underneath us, retrying")
			continue
		}
		if err != nil {
			return Rental{}, err
		}
		return rental, s.publish(ctx, rental)
	}

	return Rental{}, errors.WithStack(core.ErrConcurrencyConflict)
}

func (s *service) Cancel(ctx context.Context, rentalID uint64, actor string) (Rental, error) {
	const funcName = "Cancel"

	log.Info().Str("func", funcName).Uint64("rentalId", rentalID).Str("actor", actor).Msg("cancelling rental")

	var rental Rental
	for attempt := 0; attempt < s.rules.MaxAttempts; attempt++ {
		err := func() (err error) {
			tx, err := s.repo.BeginTransaction(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			defer func() {
				if err != nil {
					rollback(ctx, tx, err)
				}
			}()

			rental, err = s.repo.GetRental(ctx, rentalID, core.QueryOptions{Tx: tx, ForUpdate: true})
			if err != nil {
				return errors.WithStack(err)
			}
			if !CanTransition(rental.State, Cancelled) {
				return errors.WithStack(core.ErrInvalidStateTransition)
			}

			if err = s.stock.ReleaseReservation(ctx, rental.Sku, rental.LocationID, rental.Quantity, core.UpdateOptions{Tx: tx}); err != nil {
				return err
			}

			rental.State = Cancelled
			if err = s.repo.UpdateRental(ctx, &rental, core.UpdateOptions{Tx: tx}); err != nil {
				return errors.WithMessage(err, "failed to update rental")
			}
			return errors.WithStack(tx.Commit(ctx))
		}()
		if errors.Is(err, stock.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return Rental{}, err
		}

		if err = s.stock.PublishLevel(ctx, rental.Sku, rental.LocationID); err != nil {
			return rental, errors.WithMessage(err, "failed to publish stock level")
		}
		return rental, s.publish(ctx, rental)
	}

	return Rental{}, errors.WithStack(core.ErrConcurrencyConflict)
}

func (s *service) Pickup(ctx context.Context, rentalID uint64, actor string) (Rental, error) {
	const funcName = "Pickup"

	log.Info().Str("func", funcName).Uint64("rentalId", rentalID).Str("actor", actor).Msg("picking up rental")

	var rental Rental
	for attempt := 0; attempt < s.rules.MaxAttempts; attempt++ {
		err := func() (err error) {
			tx, err := s.repo.BeginTransaction(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			defer func() {
				if err != nil {
					rollback(ctx, tx, err)
				}
			}()

			rental, err = s.repo.GetRental(ctx, rentalID, core.QueryOptions{Tx: tx, ForUpdate: true})
			if err != nil {
				return errors.WithStack(err)
			}
			if !CanTransition(rental.State, Active) {
				return errors.WithStack(core.ErrInvalidStateTransition)
			}

			mr := stock.MovementRequest{
				RequestID:   fmt.Sprintf("rental:%d:pickup", rental.ID),
				Sku:         rental.Sku,
				LocationID:  rental.LocationID,
				Type:        stock.RentalOut,
				Quantity:    -rental.Quantity,
				ReferenceID: fmt.Sprintf("rental:%d", rental.ID),
				Actor:       actor,
			}
			if _, err = s.stock.RecordMovement(ctx, mr, core.UpdateOptions{Tx: tx}); err != nil {
				return err
			}

			rental.State = Active
			rental.ActualPickup = s.rules.Now()
			if err = s.repo.UpdateRental(ctx, &rental, core.UpdateOptions{Tx: tx}); err != nil {
				return errors.WithMessage(err, "failed to update rental")
			}
			return errors.WithStack(tx.Commit(ctx))
		}()
		if errors.Is(err, stock.ErrVersionConflict) {
			continue
		}
		if err != nil {
			return Rental{}, err
		}

		if err = s.stock.PublishLevel(ctx, rental.Sku, rental.LocationID); err != nil {
			return rental, errors.WithMessage(err, "failed to publish stock level")
		}
		return rental, s.publish(ctx, rental)
	}

	return Rental{}, errors.WithStack(core.ErrConcurrencyConflict)
}

// Extend re-prices the whole duration from the original pickup date so a
// renter never pays more by extending than they would have by booking the
// longer period up front.
func (s *service) Extend(ctx context.Context, rentalID uint64, newReturn time.Time, actor string) (Rental, error) {
	const funcName = "Extend"

	log.Info().Str("func", funcName).Uint64("rentalId", rentalID).Time("newReturn", newReturn).Str("actor", actor).Msg("extending rental")

	tx, err := s.repo.BeginTransaction(ctx)
	if err != nil {
		return Rental{}, errors.WithStack(err)
	}
	defer func() {
		if err != nil {
			rollback(ctx, tx, err)
		}
	}()

	rental, err := s.repo.GetRental(ctx, rentalID, core.QueryOptions{Tx: tx, ForUpdate: true})
	if err != nil {
		return Rental{}, errors.WithStack(err)
	}
	if !CanTransition(rental.State, Extended) {
		return Rental{}, errors.WithStack(core.ErrInvalidStateTransition)
	}

	now := s.rules.Now()
	// An overdue rental settles through return, not extension.
	if now.After(rental.ScheduledReturn) {
		return Rental{}, errors.WithStack(core.ErrInvalidStateTransition)
	}
	if !newReturn.After(rental.ScheduledReturn) {
		return Rental{}, errors.WithStack(core.ErrInvalidArgument)
	}

	item, err := s.stock.GetItem(ctx, rental.Sku)
	if err != nil {
		return Rental{}, errors.WithStack(err)
	}
	days := RentalDays(rental.ScheduledPickup, newReturn)
	quote, err := s.pricing.Resolve(ctx, item, days, rental.ScheduledPickup)
	if err != nil {
		return Rental{}, errors.WithStack(err)
	}

	rental.State = Extended
	rental.ScheduledReturn = newReturn
	rental.Extensions++
	rental.TotalCost = quote.TotalCost.Mul(decimal.NewFromInt(rental.Quantity))

	if err = s.repo.UpdateRental(ctx, &rental, core.UpdateOptions{Tx: tx}); err != nil {
		return Rental{}, errors.WithMessage(err, "failed to update rental")
	}
	if err = tx.Commit(ctx); err != nil {
		return Rental{}, errors.WithStack(err)
	}

	return rental, s.publish(ctx, rental)
}

func (s *service) Return(ctx context.Context, rr ReturnRequest) (Rental, Settlement, error) {
	const funcName = "Return"

	log.Info().
		Str("func", funcName).
		Str("requestId", rr.RequestID).
		Uint64("rentalId", rr.RentalID).
		Int("lines", len(rr.Lines)).
		Str("actor", rr.Actor).
		Msg("processing return")

	if rr.RequestID == "" || rr.RentalID == 0 || rr.Actor == "" || len(rr.Lines) == 0 {
		return Rental{}, Settlement{}, errors.WithStack(core.ErrInvalidArgument)
	}
	var total int64
	for _, line := range rr.Lines {
		if line.Quantity < 1 {
			return Rental{}, Settlement{}, errors.WithStack(core.ErrInvalidArgument)
		}
		if _, err := inspection.ParseConditionRating(string(line.Rating)); err != nil {
			return Rental{}, Settlement{}, errors.WithStack(core.ErrInvalidArgument)
		}
		total += line.Quantity
	}

	// A replayed request has already adjudicated its first line; rebuild the
	// answer from what was persisted rather than moving stock twice.
	replay, err := s.inspections.GetInspectionByLineRef(ctx, lineRef(rr.RequestID, 0))
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return Rental{}, Settlement{}, errors.WithStack(err)
	}
	if replay.LineRef != "" {
		log.Debug().Str("func", funcName).Str("requestId", rr.RequestID).Msg("return already processed, rebuilding settlement")
		rental, err := s.repo.GetRental(ctx, rr.RentalID)
		if err != nil {
			return Rental{}, Settlement{}, errors.WithStack(err)
		}
		settlement, err := s.settle(ctx, rental, rr.RequestID)
		return rental, settlement, err
	}

	var rental Rental
	var settlement Settlement
	for attempt := 0; attempt < s.rules.MaxAttempts; attempt++ {
		err := func() (err error) {
			tx, err := s.repo.BeginTransaction(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			defer func() {
				if err != nil {
					rollback(ctx, tx, err)
				}
			}()

			rental, err = s.repo.GetRental(ctx, rr.RentalID, core.QueryOptions{Tx: tx, ForUpdate: true})
			if err != nil {
				return errors.WithStack(err)
			}
			if total > rental.Outstanding() {
				return errors.WithStack(core.ErrInvalidArgument)
			}
			target := PartialReturn
			if total == rental.Outstanding() {
				target = Completed
			}
			if !CanTransition(rental.State, target) {
				return errors.WithStack(core.ErrInvalidStateTransition)
			}

			item, err := s.stock.GetItem(ctx, rental.Sku)
			if err != nil {
				return errors.WithStack(err)
			}

			settlement = Settlement{RentalID: rental.ID, LateFee: decimal.Zero, DepositCharges: decimal.Zero}
			for i, line := range rr.Lines {
				ins, err := s.inspections.Adjudicate(ctx, inspection.Assessment{
					RentalID:           rental.ID,
					LineRef:            lineRef(rr.RequestID, i),
					Rating:             line.Rating,
					Quantity:           line.Quantity,
					Description:        line.Description,
					AssessedRepairCost: line.AssessedRepairCost,
					Actor:              rr.Actor,
				}, rental.Deposit, item.ReplacementValue, core.UpdateOptions{Tx: tx})
				if err != nil {
					return err
				}

				if _, err = s.stock.RecordMovement(ctx, movementFor(rental, ins, rr.Actor), core.UpdateOptions{Tx: tx}); err != nil {
					return err
				}

				settlement.DepositCharges = settlement.DepositCharges.Add(ins.DepositCharge)
				settlement.Inspections = append(settlement.Inspections, ins)
			}

			now := s.rules.Now()
			rental.ReturnedQuantity += total
			if rental.Outstanding() == 0 {
				settlement.LateFee = rental.LateFee(now, s.rules.GraceDays, s.rules.LateMultiplier)
				rental.State = Completed
				rental.ActualReturn = now
			} else {
				rental.State = PartialReturn
			}
			settlement.RefundDue = rental.Deposit.Sub(settlement.DepositCharges).Sub(settlement.LateFee)

			if err = s.repo.UpdateRental(ctx, &rental, core.UpdateOptions{Tx: tx}); err != nil {
				return errors.WithMessage(err, "failed to update rental")
			}
			return errors.WithStack(tx.Commit(ctx))
		}()
		if errors.Is(err, stock.ErrVersionConflict) {
			log.Debug().Str("func", funcName).Uint64("rentalId", rr.RentalID).Int("attempt", attempt+1).Msg("stock level moved underneath us, retrying")
			continue
		}
		if err != nil {
			return Rental{}, Settlement{}, err
		}

		if err = s.stock.PublishLevel(ctx, rental.Sku, rental.LocationID); err != nil {
			return rental, settlement, errors.WithMessage(err, "failed to publish stock level")
		}
		return rental, settlement, s.publish(ctx, rental)
	}

	return Rental{}, Settlement{}, errors.WithStack(core.ErrConcurrencyConflict)
}

func (s *service) GetRental(ctx context.Context, ID uint64) (Rental, error) {
	rental, err := s.repo.GetRental(ctx, ID)
	if err != nil {
		return rental, errors.WithStack(err)
	}
	return rental, nil
}

func (s *service) GetRentals(ctx context.Context, filter GetRentalsOptions, limit, offset int) ([]Rental, error) {
	return s.repo.GetRentals(ctx, filter, limit, offset)
}

// GetSettlement reconstructs the money outcome of a rental from its stored
// inspections. For an open rental the late fee reflects the current clock.
func (s *service) GetSettlement(ctx context.Context, rentalID uint64) (Settlement, error) {
	rental, err := s.repo.GetRental(ctx, rentalID)
	if err != nil {
		return Settlement{}, errors.WithStack(err)
	}
	return s.settle(ctx, rental, "")
}

// settle rebuilds a settlement from persisted inspections. When requestID is
// given only that request's lines are included, matching what the original
// Return call answered.
func (s *service) settle(ctx context.Context, rental Rental, requestID string) (Settlement, error) {
	all, err := s.inspections.GetInspectionsByRental(ctx, rental.ID)
	if err != nil {
		return Settlement{}, errors.WithStack(err)
	}

	settlement := Settlement{RentalID: rental.ID, LateFee: decimal.Zero, DepositCharges: decimal.Zero}
	for _, ins := range all {
		if requestID != "" && !strings.HasPrefix(ins.LineRef, requestID+":") {
			continue
		}
		settlement.DepositCharges = settlement.DepositCharges.Add(ins.DepositCharge)
		settlement.Inspections = append(settlement.Inspections, ins)
	}

	if rental.State == Completed {
		at := rental.ActualReturn
		if at.IsZero() {
			at = s.rules.Now()
		}
		settlement.LateFee = rental.LateFee(at, s.rules.GraceDays, s.rules.LateMultiplier)
	}
	settlement.RefundDue = rental.Deposit.Sub(settlement.DepositCharges).Sub(settlement.LateFee)
	return settlement, nil
}

func (s *service) publish(ctx context.Context, rental Rental) error {
	if err := s.queue.PublishRental(ctx, rental); err != nil {
		return errors.WithMessage(err, "failed to publish rental")
	}
	return nil
}

func lineRef(requestID string, i int) string {
	return fmt.Sprintf("%s:%d", requestID, i)
}

// movementFor maps an adjudicated line to its ledger entry: sound and
// repairable units come back as RENTAL_RETURN with the matching disposition,
// lost units leave the on-rent bucket as a WRITE_OFF.
func movementFor(rental Rental, ins inspection.Inspection, actor string) stock.MovementRequest {
	mr := stock.MovementRequest{
		RequestID:   ins.LineRef,
		Sku:         rental.Sku,
		LocationID:  rental.LocationID,
		Disposition: ins.Disposition,
		ReferenceID: fmt.Sprintf("rental:%d", rental.ID),
		Actor:       actor,
	}
	if ins.Disposition == stock.DispositionWrittenOff {
		mr.Type = stock.WriteOff
		mr.Quantity = -ins.Quantity
	} else {
		mr.Type = stock.RentalReturn
		mr.Quantity = ins.Quantity
	}
	return mr
}

package inspection

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

type Service interface {
	// Adjudicate decides disposition and deposit charge for one returned
	// line and persists the record. A line may be adjudicated exactly once;
	// a second call for the same line fails with ErrDataIntegrity.
	Adjudicate(ctx context.Context, a Assessment, deposit, replacementValue decimal.Decimal, options ...core.UpdateOptions) (Inspection, error)

	GetInspection(ctx context.Context, ID uint64) (Inspection, error)
	GetInspectionByLineRef(ctx context.Context, lineRef string) (Inspection, error)
	GetInspectionsByRental(ctx context.Context, rentalID uint64) ([]Inspection, error)
}

type service struct {
	repo Repository
}

func (s *service) Adjudicate(ctx context.Context, a Assessment, deposit, replacementValue decimal.Decimal, options ...core.UpdateOptions) (Inspection, error) {
	const funcName = "Adjudicate"

	log.Info().
		Str("func", funcName).
		Uint64("rentalId", a.RentalID).
		Str("lineRef", a.LineRef).
		Str("rating", string(a.Rating)).
		Int64("quantity", a.Quantity).
		Msg("adjudicating return line")

	if a.LineRef == "" || a.Quantity < 1 {
		return Inspection{}, errors.WithStack(core.ErrInvalidArgument)
	}
	if a.AssessedRepairCost.IsNegative() {
		return Inspection{}, errors.WithStack(core.ErrInvalidArgument)
	}

	existing, err := s.repo.GetInspectionByLineRef(ctx, a.LineRef, queryOptions(options...))
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return Inspection{}, errors.WithStack(err)
	}
	if existing.LineRef != "" {
		log.Warn().Str("func", funcName).Str("lineRef", a.LineRef).Msg("line already adjudicated")
		return Inspection{}, errors.WithStack(core.ErrDataIntegrity)
	}

	disposition, charge, err := Decide(a.Rating, a.AssessedRepairCost, deposit, replacementValue)
	if err != nil {
		return Inspection{}, errors.WithStack(core.ErrInvalidArgument)
	}

	ins := Inspection{
		RentalID:           a.RentalID,
		LineRef:            a.LineRef,
		Rating:             a.Rating,
		Quantity:           a.Quantity,
		Description:        a.Description,
		AssessedRepairCost: a.AssessedRepairCost,
		Disposition:        disposition,
		DepositCharge:      charge,
		Actor:              a.Actor,
		Created:            time.Now(),
	}

	if err = s.repo.SaveInspection(ctx, &ins, options...); err != nil {
		return Inspection{}, errors.WithMessage(err, "failed to save inspection")
	}

	return ins, nil
}

func (s *service) GetInspection(ctx context.Context, ID uint64) (Inspection, error) {
	ins, err := s.repo.GetInspection(ctx, ID)
	if err != nil {
		return ins, errors.WithStack(err)
	}
	return ins, nil
}

func (s *service) GetInspectionByLineRef(ctx context.Context, lineRef string) (Inspection, error) {
	ins, err := s.repo.GetInspectionByLineRef(ctx, lineRef)
	if err != nil {
		return ins, errors.WithStack(err)
	}
	return ins, nil
}

func (s *service) GetInspectionsByRental(ctx context.Context, rentalID uint64) ([]Inspection, error) {
	return s.repo.GetInspectionsByRental(ctx, rentalID)
}

func queryOptions(options ...core.UpdateOptions) core.QueryOptions {
	if len(options) > 0 {
		return core.QueryOptions{Tx: options[0].Tx}
	}
	return core.QueryOptions{}
}

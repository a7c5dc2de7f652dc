package rental

import (
	"context"

	"github.com/rentkit/rental-service/core"
	"github.com/rs/zerolog/log"
)

func rollback(ctx context.Context, tx core.Transaction, err error) {
	if tx == nil {
		return
	}
	e := tx.Rollback(ctx)
	if e != nil {
		log.Warn().Err(err).Msg("failed to rollback")
	}
}

type Transactional interface {
	BeginTransaction(ctx context.Context) (core.Transaction, error)
}

type Repository interface {
	Transactional
	GetRental(ctx context.Context, ID uint64, options ...core.QueryOptions) (Rental, error)
	GetRentalByRequestID(ctx context.Context, requestID string, options ...core.QueryOptions) (Rental, error)
	GetRentals(ctx context.Context, filter GetRentalsOptions, limit, offset int, options ...core.QueryOptions) ([]Rental, error)

	SaveRental(ctx context.Context, rental *Rental, options ...core.UpdateOptions) error
	UpdateRental(ctx context.Context, rental *Rental, options ...core.UpdateOptions) error
}

type Queue interface {
	PublishRental(ctx context.Context, rental Rental) error
}

package rentalrepo

import (
	"context"

	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/rental"
	"github.com/rentkit/rental-service/db"
	"github.com/rentkit/rental-service/test"
)

type MockRepo struct {
	GetRentalFunc            func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error)
	GetRentalByRequestIDFunc func(ctx context.Context, requestID string, options ...core.QueryOptions) (rental.Rental, error)
	GetRentalsFunc           func(ctx context.Context, filter rental.GetRentalsOptions, limit, offset int, options ...core.QueryOptions) ([]rental.Rental, error)
	SaveRentalFunc           func(ctx context.Context, r *rental.Rental, options ...core.UpdateOptions) error
	UpdateRentalFunc         func(ctx context.Context, r *rental.Rental, options ...core.UpdateOptions) error
	BeginTransactionFunc     func(ctx context.Context) (core.Transaction, error)

	*test.CallWatcher
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		GetRentalFunc: func(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
			return rental.Rental{}, nil
		},
		GetRentalByRequestIDFunc: func(ctx context.Context, requestID string, options ...core.QueryOptions) (rental.Rental, error) {
			return rental.Rental{}, core.ErrNotFound
		},
		GetRentalsFunc: func(ctx context.Context, filter rental.GetRentalsOptions, limit, offset int, options ...core.QueryOptions) ([]rental.Rental, error) {
			return []rental.Rental{}, nil
		},
		SaveRentalFunc:       func(ctx context.Context, r *rental.Rental, options ...core.UpdateOptions) error { return nil },
		UpdateRentalFunc:     func(ctx context.Context, r *rental.Rental, options ...core.UpdateOptions) error { return nil },
		BeginTransactionFunc: func(ctx context.Context) (core.Transaction, error) { return db.NewMockTransaction(), nil },
		CallWatcher:          test.NewCallWatcher(),
	}
}

func (r *MockRepo) GetRental(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
	r.AddCall(ctx, ID, options)
	return r.GetRentalFunc(ctx, ID, options...)
}

func (r *MockRepo) GetRentalByRequestID(ctx context.Context, requestID string, options ...core.QueryOptions) (rental.Rental, error) {
	r.AddCall(ctx, requestID, options)
	return r.GetRentalByRequestIDFunc(ctx, requestID, options...)
}

func (r *MockRepo) GetRentals(ctx context.Context, filter rental.GetRentalsOptions, limit, offset int, options ...core.QueryOptions) ([]rental.Rental, error) {
	r.AddCall(ctx, filter, limit, offset, options)
	return r.GetRentalsFunc(ctx, filter, limit, offset, options...)
}

func (r *MockRepo) SaveRental(ctx context.Context, rr *rental.Rental, options ...core.UpdateOptions) error {
	r.AddCall(ctx, rr, options)
	return r.SaveRentalFunc(ctx, rr, options...)
}

func (r *MockRepo) UpdateRental(ctx context.Context, rr *rental.Rental, options ...core.UpdateOptions) error {
	r.AddCall(ctx, rr, options)
	return r.UpdateRentalFunc(ctx, rr, options...)
}

func (r *MockRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	r.AddCall(ctx)
	return r.BeginTransactionFunc(ctx)
}

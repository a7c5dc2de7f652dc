package inspectrepo

import (
	"context"

	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/inspection"
	"github.com/rentkit/rental-service/test"
)

type MockRepo struct {
	GetInspectionFunc          func(ctx context.Context, ID uint64, options ...core.QueryOptions) (inspection.Inspection, error)
	GetInspectionByLineRefFunc func(ctx context.Context, lineRef string, options ...core.QueryOptions) (inspection.Inspection, error)
	GetInspectionsByRentalFunc func(ctx context.Context, rentalID uint64, options ...core.QueryOptions) ([]inspection.Inspection, error)
	SaveInspectionFunc         func(ctx context.Context, ins *inspection.Inspection, options ...core.UpdateOptions) error

	*test.CallWatcher
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		GetInspectionFunc: func(ctx context.Context, ID uint64, options ...core.QueryOptions) (inspection.Inspection, error) {
			return inspection.Inspection{}, nil
		},
		GetInspectionByLineRefFunc: func(ctx context.Context, lineRef string, options ...core.QueryOptions) (inspection.Inspection, error) {
			return inspection.Inspection{}, core.ErrNotFound
		},
		GetInspectionsByRentalFunc: func(ctx context.Context, rentalID uint64, options ...core.QueryOptions) ([]inspection.Inspection, error) {
			return []inspection.Inspection{}, nil
		},
		SaveInspectionFunc: func(ctx context.Context, ins *inspection.Inspection, options ...core.UpdateOptions) error {
			return nil
		},
		CallWatcher: test.NewCallWatcher(),
	}
}

func (r *MockRepo) GetInspection(ctx context.Context, ID uint64, options ...core.QueryOptions) (inspection.Inspection, error) {
	r.AddCall(ctx, ID, options)
	return r.GetInspectionFunc(ctx, ID, options...)
}

func (r *MockRepo) GetInspectionByLineRef(ctx context.Context, lineRef string, options ...core.QueryOptions) (inspection.Inspection, error) {
	r.AddCall(ctx, lineRef, options)
	return r.GetInspectionByLineRefFunc(ctx, lineRef, options...)
}

func (r *MockRepo) GetInspectionsByRental(ctx context.Context, rentalID uint64, options ...core.QueryOptions) ([]inspection.Inspection, error) {
	r.AddCall(ctx, rentalID, options)
	return r.GetInspectionsByRentalFunc(ctx, rentalID, options...)
}

func (r *MockRepo) SaveInspection(ctx context.Context, ins *inspection.Inspection, options ...core.UpdateOptions) error {
	r.AddCall(ctx, ins, options)
	return r.SaveInspectionFunc(ctx, ins, options...)
}

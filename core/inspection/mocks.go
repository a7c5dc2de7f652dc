package inspection

import (
	"context"

	"github.com/rentkit/rental-service/core"
	"github.com/shopspring/decimal"
)

type MockService struct {
	AdjudicateFunc             func(ctx context.Context, a Assessment, deposit, replacementValue decimal.Decimal, options ...core.UpdateOptions) (Inspection, error)
	GetInspectionFunc          func(ctx context.Context, ID uint64) (Inspection, error)
	GetInspectionByLineRefFunc func(ctx context.Context, lineRef string) (Inspection, error)
	GetInspectionsByRentalFunc func(ctx context.Context, rentalID uint64) ([]Inspection, error)
}

func NewMockService() MockService {
	return MockService{
		AdjudicateFunc: func(ctx context.Context, a Assessment, deposit, replacementValue decimal.Decimal, options ...core.UpdateOptions) (Inspection, error) {
			return Inspection{}, nil
		},
		GetInspectionFunc: func(ctx context.Context, ID uint64) (Inspection, error) {
			return Inspection{}, nil
		},
		GetInspectionByLineRefFunc: func(ctx context.Context, lineRef string) (Inspection, error) {
			return Inspection{}, core.ErrNotFound
		},
		GetInspectionsByRentalFunc: func(ctx context.Context, rentalID uint64) ([]Inspection, error) {
			return []Inspection{}, nil
		},
	}
}

func (s *MockService) Adjudicate(ctx context.Context, a Assessment, deposit, replacementValue decimal.Decimal, options ...core.UpdateOptions) (Inspection, error) {
	return s.AdjudicateFunc(ctx, a, deposit, replacementValue, options...)
}

func (s *MockService) GetInspection(ctx context.Context, ID uint64) (Inspection, error) {
	return s.GetInspectionFunc(ctx, ID)
}

func (s *MockService) GetInspectionByLineRef(ctx context.Context, lineRef string) (Inspection, error) {
	return s.GetInspectionByLineRefFunc(ctx, lineRef)
}

func (s *MockService) GetInspectionsByRental(ctx context.Context, rentalID uint64) ([]Inspection, error) {
	return s.GetInspectionsByRentalFunc(ctx, rentalID)
}

package rental

import (
	"context"
	"time"
)

type MockService struct {
	BookFunc   func(ctx context.Context, br BookingRequest) (Rental, error)
	CancelFunc func(ctx context.Context, rentalID uint64, actor string) (Rental, error)
	PickupFunc func(ctx context.Context, rentalID uint64, actor string) (Rental, error)
	ExtendFunc func(ctx context.Context, rentalID uint64, newReturn time.Time, actor string) (Rental, error)
	ReturnFunc func(ctx context.Context, rr ReturnRequest) (Rental, Settlement, error)

	GetRentalFunc     func(ctx context.Context, ID uint64) (Rental, error)
	GetRentalsFunc    func(ctx context.Context, filter GetRentalsOptions, limit, offset int) ([]Rental, error)
	GetSettlementFunc func(ctx context.Context, rentalID uint64) (Settlement, error)
}

func NewMockService() MockService {
	return MockService{
		BookFunc:   func(ctx context.Context, br BookingRequest) (Rental, error) { return Rental{}, nil },
		CancelFunc: func(ctx context.Context, rentalID uint64, actor string) (Rental, error) { return Rental{}, nil },
		PickupFunc: func(ctx context.Context, rentalID uint64, actor string) (Rental, error) { return Rental{}, nil },
		ExtendFunc: func(ctx context.Context, rentalID uint64, newReturn time.Time, actor string) (Rental, error) {
			return Rental{}, nil
		},
		ReturnFunc: func(ctx context.Context, rr ReturnRequest) (Rental, Settlement, error) {
			return Rental{}, Settlement{}, nil
		},
		GetRentalFunc: func(ctx context.Context, ID uint64) (Rental, error) { return Rental{}, nil },
		GetRentalsFunc: func(ctx context.Context, filter GetRentalsOptions, limit, offset int) ([]Rental, error) {
			return []Rental{}, nil
		},
		GetSettlementFunc: func(ctx context.Context, rentalID uint64) (Settlement, error) { return Settlement{}, nil },
	}
}

func (s *MockService) Book(ctx context.Context, br BookingRequest) (Rental, error) {
	return s.BookFunc(ctx, br)
}

func (s *MockService) Cancel(ctx context.Context, rentalID uint64, actor string) (Rental, error) {
	return s.CancelFunc(ctx, rentalID, actor)
}

func (s *MockService) Pickup(ctx context.Context, rentalID uint64, actor string) (Rental, error) {
	return s.PickupFunc(ctx, rentalID, actor)
}

func (s *MockService) Extend(ctx context.Context, rentalID uint64, newReturn time.Time, actor string) (Rental, error) {
	return s.ExtendFunc(ctx, rentalID, newReturn, actor)
}

func (s *MockService) Return(ctx context.Context, rr ReturnRequest) (Rental, Settlement, error) {
	return s.ReturnFunc(ctx, rr)
}

func (s *MockService) GetRental(ctx context.Context, ID uint64) (Rental, error) {
	return s.GetRentalFunc(ctx, ID)
}

func (s *MockService) GetRentals(ctx context.Context, filter GetRentalsOptions, limit, offset int) ([]Rental, error) {
	return s.GetRentalsFunc(ctx, filter, limit, offset)
}

func (s *MockService) GetSettlement(ctx context.Context, rentalID uint64) (Settlement, error) {
	return s.GetSettlementFunc(ctx, rentalID)
}

package queue

import (
	"context"

	"github.com/rentkit/rental-service/core/rental"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rentkit/rental-service/test"
)

type MockStockQueue struct {
	PublishStockLevelFunc func(ctx context.Context, level stock.StockLevel) error
	PublishMovementFunc   func(ctx context.Context, movement stock.StockMovement) error
	*test.CallWatcher
}

func NewMockStockQueue() *MockStockQueue {
	return &MockStockQueue{
		PublishStockLevelFunc: func(ctx context.Context, level stock.StockLevel) error { return nil },
		PublishMovementFunc:   func(ctx context.Context, movement stock.StockMovement) error { return nil },
		CallWatcher:           test.NewCallWatcher(),
	}
}

func (m *MockStockQueue) PublishStockLevel(ctx context.Context, level stock.StockLevel) error {
	m.AddCall(ctx, level)
	return m.PublishStockLevelFunc(ctx, level)
}

func (m *MockStockQueue) PublishMovement(ctx context.Context, movement stock.StockMovement) error {
	m.AddCall(ctx, movement)
	return m.PublishMovementFunc(ctx, movement)
}

type MockRentalQueue struct {
	PublishRentalFunc func(ctx context.Context, r rental.Rental) error
	*test.CallWatcher
}

func NewMockRentalQueue() *MockRentalQueue {
	return &MockRentalQueue{
		PublishRentalFunc: func(ctx context.Context, r rental.Rental) error { return nil },
		CallWatcher:       test.NewCallWatcher(),
	}
}

func (m *MockRentalQueue) PublishRental(ctx context.Context, r rental.Rental) error {
	m.AddCall(ctx, r)
	return m.PublishRentalFunc(ctx, r)
}

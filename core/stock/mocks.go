package stock

import (
	"context"

	"github.com/rentkit/rental-service/core"
)

type MockService struct {
	CreateItemFunc     func(ctx context.Context, item Item) error
	GetItemFunc        func(ctx context.Context, sku string) (Item, error)
	GetAllItemsFunc    func(ctx context.Context, limit, offset int) ([]Item, error)
	CreateLocationFunc func(ctx context.Context, location *Location) error

	GetStockLevelFunc     func(ctx context.Context, sku string, locationID uint64) (StockLevel, error)
	GetAllStockLevelsFunc func(ctx context.Context, limit, offset int) ([]StockLevel, error)
	GetMovementsFunc      func(ctx context.Context, sku string, locationID uint64, limit, offset int) ([]StockMovement, error)

	RecordMovementFunc func(ctx context.Context, mr MovementRequest, options ...core.UpdateOptions) (StockMovement, error)
	TransferFunc       func(ctx context.Context, tr TransferRequest) ([]StockMovement, error)

	ReserveFunc            func(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error
	ReleaseReservationFunc func(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error

	PublishLevelFunc func(ctx context.Context, sku string, locationID uint64) error

	SubscribeStockLevelsFunc   func(ch chan<- StockLevel) (id LevelSubscriptionID)
	UnsubscribeStockLevelsFunc func(id LevelSubscriptionID)
}

func NewMockService() MockService {
	return MockService{
		CreateItemFunc:     func(ctx context.Context, item Item) error { return nil },
		GetItemFunc:        func(ctx context.Context, sku string) (Item, error) { return Item{}, nil },
		GetAllItemsFunc:    func(ctx context.Context, limit, offset int) ([]Item, error) { return []Item{}, nil },
		CreateLocationFunc: func(ctx context.Context, location *Location) error { return nil },
		GetStockLevelFunc: func(ctx context.Context, sku string, locationID uint64) (StockLevel, error) {
			return StockLevel{}, nil
		},
		GetAllStockLevelsFunc: func(ctx context.Context, limit, offset int) ([]StockLevel, error) {
			return []StockLevel{}, nil
		},
		GetMovementsFunc: func(ctx context.Context, sku string, locationID uint64, limit, offset int) ([]StockMovement, error) {
			return []StockMovement{}, nil
		},
		RecordMovementFunc: func(ctx context.Context, mr MovementRequest, options ...core.UpdateOptions) (StockMovement, error) {
			return StockMovement{}, nil
		},
		TransferFunc: func(ctx context.Context, tr TransferRequest) ([]StockMovement, error) {
			return []StockMovement{}, nil
		},
		ReserveFunc: func(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error {
			return nil
		},
		ReleaseReservationFunc: func(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error {
			return nil
		},
		PublishLevelFunc:           func(ctx context.Context, sku string, locationID uint64) error { return nil },
		SubscribeStockLevelsFunc:   func(ch chan<- StockLevel) (id LevelSubscriptionID) { return "" },
		UnsubscribeStockLevelsFunc: func(id LevelSubscriptionID) {},
	}
}

func (s *MockService) CreateItem(ctx context.Context, item Item) error {
	return s.CreateItemFunc(ctx, item)
}

func (s *MockService) GetItem(ctx context.Context, sku string) (Item, error) {
	return s.GetItemFunc(ctx, sku)
}

func (s *MockService) GetAllItems(ctx context.Context, limit, offset int) ([]Item, error) {
	return s.GetAllItemsFunc(ctx, limit, offset)
}

func (s *MockService) CreateLocation(ctx context.Context, location *Location) error {
	return s.CreateLocationFunc(ctx, location)
}

func (s *MockService) GetStockLevel(ctx context.Context, sku string, locationID uint64) (StockLevel, error) {
	return s.GetStockLevelFunc(ctx, sku, locationID)
}

func (s *MockService) GetAllStockLevels(ctx context.Context, limit, offset int) ([]StockLevel, error) {
	return s.GetAllStockLevelsFunc(ctx, limit, offset)
}

func (s *MockService) GetMovements(ctx context.Context, sku string, locationID uint64, limit, offset int) ([]StockMovement, error) {
	return s.GetMovementsFunc(ctx, sku, locationID, limit, offset)
}

func (s *MockService) RecordMovement(ctx context.Context, mr MovementRequest, options ...core.UpdateOptions) (StockMovement, error) {
	return s.RecordMovementFunc(ctx, mr, options...)
}

func (s *MockService) Transfer(ctx context.Context, tr TransferRequest) ([]StockMovement, error) {
	return s.TransferFunc(ctx, tr)
}

func (s *MockService) Reserve(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error {
	return s.ReserveFunc(ctx, sku, locationID, quantity, options...)
}

func (s *MockService) ReleaseReservation(ctx context.Context, sku string, locationID uint64, quantity int64, options ...core.UpdateOptions) error {
	return s.ReleaseReservationFunc(ctx, sku, locationID, quantity, options...)
}

func (s *MockService) PublishLevel(ctx context.Context, sku string, locationID uint64) error {
	return s.PublishLevelFunc(ctx, sku, locationID)
}

func (s *MockService) SubscribeStockLevels(ch chan<- StockLevel) (id LevelSubscriptionID) {
	return s.SubscribeStockLevelsFunc(ch)
}

func (s *MockService) UnsubscribeStockLevels(id LevelSubscriptionID) {
	s.UnsubscribeStockLevelsFunc(id)
}

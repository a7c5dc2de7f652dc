package stockrepo

import (
	"context"

	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rentkit/rental-service/db"
	"github.com/rentkit/rental-service/test"
)

type MockRepo struct {
	GetItemFunc     func(ctx context.Context, sku string, options ...core.QueryOptions) (stock.Item, error)
	GetAllItemsFunc func(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]stock.Item, error)
	SaveItemFunc    func(ctx context.Context, item stock.Item, options ...core.UpdateOptions) error

	GetLocationFunc  func(ctx context.Context, ID uint64, options ...core.QueryOptions) (stock.Location, error)
	SaveLocationFunc func(ctx context.Context, location *stock.Location, options ...core.UpdateOptions) error

	GetMovementByRequestIDFunc func(ctx context.Context, requestID string, options ...core.QueryOptions) (stock.StockMovement, error)
	GetMovementsFunc           func(ctx context.Context, sku string, locationID uint64, limit, offset int, options ...core.QueryOptions) ([]stock.StockMovement, error)
	SaveMovementFunc           func(ctx context.Context, movement *stock.StockMovement, options ...core.UpdateOptions) error

	GetStockLevelFunc     func(ctx context.Context, sku string, locationID uint64, options ...core.QueryOptions) (stock.StockLevel, error)
	GetAllStockLevelsFunc func(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]stock.StockLevel, error)
	CreateStockLevelFunc  func(ctx context.Context, level *stock.StockLevel, options ...core.UpdateOptions) error
	UpdateStockLevelFunc  func(ctx context.Context, level *stock.StockLevel, options ...core.UpdateOptions) error

	BeginTransactionFunc func(ctx context.Context) (core.Transaction, error)

	*test.CallWatcher
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		GetItemFunc: func(ctx context.Context, sku string, options ...core.QueryOptions) (stock.Item, error) {
			return stock.Item{}, nil
		},
		GetAllItemsFunc: func(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]stock.Item, error) {
			return []stock.Item{}, nil
		},
		SaveItemFunc: func(ctx context.Context, item stock.Item, options ...core.UpdateOptions) error { return nil },
		GetLocationFunc: func(ctx context.Context, ID uint64, options ...core.QueryOptions) (stock.Location, error) {
			return stock.Location{}, nil
		},
		SaveLocationFunc: func(ctx context.Context, location *stock.Location, options ...core.UpdateOptions) error {
			return nil
		},
		GetMovementByRequestIDFunc: func(ctx context.Context, requestID string, options ...core.QueryOptions) (stock.StockMovement, error) {
			return stock.StockMovement{}, core.ErrNotFound
		},
		GetMovementsFunc: func(ctx context.Context, sku string, locationID uint64, limit, offset int, options ...core.QueryOptions) ([]stock.StockMovement, error) {
			return []stock.StockMovement{}, nil
		},
		SaveMovementFunc: func(ctx context.Context, movement *stock.StockMovement, options ...core.UpdateOptions) error {
			return nil
		},
		GetStockLevelFunc: func(ctx context.Context, sku string, locationID uint64, options ...core.QueryOptions) (stock.StockLevel, error) {
			return stock.StockLevel{}, nil
		},
		GetAllStockLevelsFunc: func(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]stock.StockLevel, error) {
			return []stock.StockLevel{}, nil
		},
		CreateStockLevelFunc: func(ctx context.Context, level *stock.StockLevel, options ...core.UpdateOptions) error {
			return nil
		},
		UpdateStockLevelFunc: func(ctx context.Context, level *stock.StockLevel, options ...core.UpdateOptions) error {
			return nil
		},
		BeginTransactionFunc: func(ctx context.Context) (core.Transaction, error) { return db.NewMockTransaction(), nil },
		CallWatcher:          test.NewCallWatcher(),
	}
}

func (r *MockRepo) GetItem(ctx context.Context, sku string, options ...core.QueryOptions) (stock.Item, error) {
	r.AddCall(ctx, sku, options)
	return r.GetItemFunc(ctx, sku, options...)
}

func (r *MockRepo) GetAllItems(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]stock.Item, error) {
	r.AddCall(ctx, limit, offset, options)
	return r.GetAllItemsFunc(ctx, limit, offset, options...)
}

func (r *MockRepo) SaveItem(ctx context.Context, item stock.Item, options ...core.UpdateOptions) error {
	r.AddCall(ctx, item, options)
	return r.SaveItemFunc(ctx, item, options...)
}

func (r *MockRepo) GetLocation(ctx context.Context, ID uint64, options ...core.QueryOptions) (stock.Location, error) {
	r.AddCall(ctx, ID, options)
	return r.GetLocationFunc(ctx, ID, options...)
}

func (r *MockRepo) SaveLocation(ctx context.Context, location *stock.Location, options ...core.UpdateOptions) error {
	r.AddCall(ctx, location, options)
	return r.SaveLocationFunc(ctx, location, options...)
}

func (r *MockRepo) GetMovementByRequestID(ctx context.Context, requestID string, options ...core.QueryOptions) (stock.StockMovement, error) {
	r.AddCall(ctx, requestID, options)
	return r.GetMovementByRequestIDFunc(ctx, requestID, options...)
}

func (r *MockRepo) GetMovements(ctx context.Context, sku string, locationID uint64, limit, offset int, options ...core.QueryOptions) ([]stock.StockMovement, error) {
	r.AddCall(ctx, sku, locationID, limit, offset, options)
	return r.GetMovementsFunc(ctx, sku, locationID, limit, offset, options...)
}

func (r *MockRepo) SaveMovement(ctx context.Context, movement *stock.StockMovement, options ...core.UpdateOptions) error {
	r.AddCall(ctx, movement, options)
	return r.SaveMovementFunc(ctx, movement, options...)
}

func (r *MockRepo) GetStockLevel(ctx context.Context, sku string, locationID uint64, options ...core.QueryOptions) (stock.StockLevel, error) {
	r.AddCall(ctx, sku, locationID, options)
	return r.GetStockLevelFunc(ctx, sku, locationID, options...)
}

func (r *MockRepo) GetAllStockLevels(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]stock.StockLevel, error) {
	r.AddCall(ctx, limit, offset, options)
	return r.GetAllStockLevelsFunc(ctx, limit, offset, options...)
}

func (r *MockRepo) CreateStockLevel(ctx context.Context, level *stock.StockLevel, options ...core.UpdateOptions) error {
	r.AddCall(ctx, level, options)
	return r.CreateStockLevelFunc(ctx, level, options...)
}

func (r *MockRepo) UpdateStockLevel(ctx context.Context, level *stock.StockLevel, options ...core.UpdateOptions) error {
	r.AddCall(ctx, level, options)
	return r.UpdateStockLevelFunc(ctx, level, options...)
}

func (r *MockRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	r.AddCall(ctx)
	return r.BeginTransactionFunc(ctx)
}

package stock

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
	ItemRepository
	LocationRepository
	MovementRepository
	LevelRepository
}

type ItemRepository interface {
	Transactional
	GetItem(ctx context.Context, sku string, options ...core.QueryOptions) (Item, error)
	GetAllItems(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]Item, error)

	SaveItem(ctx context.Context, item Item, options ...core.UpdateOptions) error
}

type LocationRepository interface {
	Transactional
	GetLocation(ctx context.Context, ID uint64, options ...core.QueryOptions) (Location, error)

	SaveLocation(ctx context.Context, location *Location, options ...core.UpdateOptions) error
}

type MovementRepository interface {
	Transactional
	GetMovementByRequestID(ctx context.Context, requestID string, options ...core.QueryOptions) (StockMovement, error)
	GetMovements(ctx context.Context, sku string, locationID uint64, limit, offset int, options ...core.QueryOptions) ([]StockMovement, error)

	SaveMovement(ctx context.Context, movement *StockMovement, options ...core.UpdateOptions) error
}

type LevelRepository interface {
	Transactional
	GetStockLevel(ctx context.Context, sku string, locationID uint64, options ...core.QueryOptions) (StockLevel, error)
	GetAllStockLevels(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]StockLevel, error)

	// CreateStockLevel inserts a zeroed row at version 1.
	CreateStockLevel(ctx context.Context, level *StockLevel, options ...core.UpdateOptions) error

	// UpdateStockLevel writes the level conditioned on the version it was
	// read at and bumps the counter; returns ErrVersionConflict when the
	// row moved underneath the caller.
	UpdateStockLevel(ctx context.Context, level *StockLevel, options ...core.UpdateOptions) error
}

type Queue interface {
	PublishStockLevel(ctx context.Context, level StockLevel) error
	PublishMovement(ctx context.Context, movement StockMovement) error
}

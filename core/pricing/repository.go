package pricing

import (
	"context"
	"time"

	"github.com/rentkit/rental-service/core"
)

type Repository interface {
	GetTier(ctx context.Context, ID uint64, options ...core.QueryOptions) (Tier, error)
	GetTiersBySku(ctx context.Context, sku string, options ...core.QueryOptions) ([]Tier, error)

	SaveTier(ctx context.Context, tier *Tier, options ...core.UpdateOptions) error
	DeleteTier(ctx context.Context, ID uint64, options ...core.UpdateOptions) error
}

// Clock supplies the current time so date-bounded tier filtering and tests
// do not race the wall clock.
type Clock func() time.Time

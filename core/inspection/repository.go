package inspection

import (
	"context"

	"github.com/rentkit/rental-service/core"
)

type Repository interface {
	GetInspection(ctx context.Context, ID uint64, options ...core.QueryOptions) (Inspection, error)
	GetInspectionByLineRef(ctx context.Context, lineRef string, options ...core.QueryOptions) (Inspection, error)
	GetInspectionsByRental(ctx context.Context, rentalID uint64, options ...core.QueryOptions) ([]Inspection, error)

	SaveInspection(ctx context.Context, inspection *Inspection, options ...core.UpdateOptions) error
}

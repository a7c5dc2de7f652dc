package pricing

import (
	"context"
	"time"

	"github.com/rentkit/rental-service/core/stock"
)

type MockService struct {
	ResolveFunc func(ctx context.Context, item stock.Item, rentalDays int, asOf time.Time) (Quote, error)

	CreateTierFunc    func(ctx context.Context, tier *Tier) error
	GetTierFunc       func(ctx context.Context, ID uint64) (Tier, error)
	GetTiersBySkuFunc func(ctx context.Context, sku string) ([]Tier, error)
	DeleteTierFunc    func(ctx context.Context, ID uint64) error
}

func NewMockService() MockService {
	return MockService{
		ResolveFunc: func(ctx context.Context, item stock.Item, rentalDays int, asOf time.Time) (Quote, error) {
			return Quote{}, nil
		},
		CreateTierFunc:    func(ctx context.Context, tier *Tier) error { return nil },
		GetTierFunc:       func(ctx context.Context, ID uint64) (Tier, error) { return Tier{}, nil },
		GetTiersBySkuFunc: func(ctx context.Context, sku string) ([]Tier, error) { return []Tier{}, nil },
		DeleteTierFunc:    func(ctx context.Context, ID uint64) error { return nil },
	}
}

func (s *MockService) Resolve(ctx context.Context, item stock.Item, rentalDays int, asOf time.Time) (Quote, error) {
	return s.ResolveFunc(ctx, item, rentalDays, asOf)
}

func (s *MockService) CreateTier(ctx context.Context, tier *Tier) error {
	return s.CreateTierFunc(ctx, tier)
}

func (s *MockService) GetTier(ctx context.Context, ID uint64) (Tier, error) {
	return s.GetTierFunc(ctx, ID)
}

func (s *MockService) GetTiersBySku(ctx context.Context, sku string) ([]Tier, error) {
	return s.GetTiersBySkuFunc(ctx, sku)
}

func (s *MockService) DeleteTier(ctx context.Context, ID uint64) error {
	return s.DeleteTierFunc(ctx, ID)
}

package pricerepo

import (
	"context"

	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/pricing"
	"github.com/rentkit/rental-service/test"
)

type MockRepo struct {
	GetTierFunc       func(ctx context.Context, ID uint64, options ...core.QueryOptions) (pricing.Tier, error)
	GetTiersBySkuFunc func(ctx context.Context, sku string, options ...core.QueryOptions) ([]pricing.Tier, error)
	SaveTierFunc      func(ctx context.Context, tier *pricing.Tier, options ...core.UpdateOptions) error
	DeleteTierFunc    func(ctx context.Context, ID uint64, options ...core.UpdateOptions) error

	*test.CallWatcher
}

func NewMockRepo() *MockRepo {
	return &MockRepo{
		GetTierFunc: func(ctx context.Context, ID uint64, options ...core.QueryOptions) (pricing.Tier, error) {
			return pricing.Tier{}, nil
		},
		GetTiersBySkuFunc: func(ctx context.Context, sku string, options ...core.QueryOptions) ([]pricing.Tier, error) {
			return []pricing.Tier{}, nil
		},
		SaveTierFunc:   func(ctx context.Context, tier *pricing.Tier, options ...core.UpdateOptions) error { return nil },
		DeleteTierFunc: func(ctx context.Context, ID uint64, options ...core.UpdateOptions) error { return nil },
		CallWatcher:    test.NewCallWatcher(),
	}
}

func (r *MockRepo) GetTier(ctx context.Context, ID uint64, options ...core.QueryOptions) (pricing.Tier, error) {
	r.AddCall(ctx, ID, options)
	return r.GetTierFunc(ctx, ID, options...)
}

func (r *MockRepo) GetTiersBySku(ctx context.Context, sku string, options ...core.QueryOptions) ([]pricing.Tier, error) {
	r.AddCall(ctx, sku, options)
	return r.GetTiersBySkuFunc(ctx, sku, options...)
}

func (r *MockRepo) SaveTier(ctx context.Context, tier *pricing.Tier, options ...core.UpdateOptions) error {
	r.AddCall(ctx, tier, options)
	return r.SaveTierFunc(ctx, tier, options...)
}

func (r *MockRepo) DeleteTier(ctx context.Context, ID uint64, options ...core.UpdateOptions) error {
	r.AddCall(ctx, ID, options)
	return r.DeleteTierFunc(ctx, ID, options...)
}

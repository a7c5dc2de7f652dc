package pricing_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/pricing"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rentkit/rental-service/db/pricerepo"
	"github.com/rentkit/rental-service/test"
	"github.com/shopspring/decimal"
)

var asOf = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func TestMain(m *testing.M) {
	test.ConfigLogging()
	m.Run()
}

func kayak() stock.Item {
	return stock.Item{Sku: "kayak", Name: "Kayak", BaseDailyRate: decimal.NewFromInt(50)}
}

func dailyTier(rate int64) pricing.Tier {
	return pricing.Tier{ID: 1, Sku: "kayak", PeriodType: pricing.Daily, PeriodDays: 1, RatePerPeriod: decimal.NewFromInt(rate)}
}

func weeklyTier(rate int64) pricing.Tier {
	return pricing.Tier{ID: 2, Sku: "kayak", PeriodType: pricing.Weekly, PeriodDays: 7, RatePerPeriod: decimal.NewFromInt(rate)}
}

func serviceWithTiers(tiers ...pricing.Tier) pricing.Service {
	repo := pricerepo.NewMockRepo()
	repo.GetTiersBySkuFunc = func(ctx context.Context, sku string, options ...core.QueryOptions) ([]pricing.Tier, error) {
		return tiers, nil
	}
	return pricing.NewService(repo)
}

func TestResolveSelectsCheapestTier(t *testing.T) {
	// 10 days: weekly bills 2 periods at 300, daily bills 10 at 45.
	service := serviceWithTiers(weeklyTier(300), dailyTier(45))

	quote, err := service.Resolve(context.Background(), kayak(), 10, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.Tier == nil || quote.Tier.ID != 1 {
		t.Fatalf("got tier=%+v want daily tier", quote.Tier)
	}
	if !quote.TotalCost.Equal(decimal.NewFromInt(450)) {
		t.Errorf("got total=%s want=450", quote.TotalCost)
	}
	if !quote.Savings.Equal(decimal.NewFromInt(50)) {
		t.Errorf("got savings=%s want=50", quote.Savings)
	}
	if !quote.DailyEquivalent.Equal(decimal.NewFromInt(45)) {
		t.Errorf("got daily equivalent=%s want=45", quote.DailyEquivalent)
	}
}

func TestResolveNoTiersUsesBaseRate(t *testing.T) {
	service := serviceWithTiers()

	quote, err := service.Resolve(context.Background(), kayak(), 4, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if quote.Tier != nil {
		t.Errorf("got tier=%+v want nil", quote.Tier)
	}
	if !quote.TotalCost.Equal(decimal.NewFromInt(200)) {
		t.Errorf("got total=%s want=200", quote.TotalCost)
	}
	if !quote.Savings.Equal(decimal.Zero) {
		t.Errorf("got savings=%s want=0", quote.Savings)
	}
}

func TestResolveSkipsInapplicableTiers(t *testing.T) {
	weekly := weeklyTier(300)
	weekly.MinRentalDays = 7

	service := serviceWithTiers(weekly)

	quote, err := service.Resolve(context.Background(), kayak(), 3, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Tier != nil {
		t.Errorf("got tier=%+v want nil for a 3 day rental", quote.Tier)
	}
}

func TestResolveExpiredTierIgnored(t *testing.T) {
	expired := dailyTier(10)
	expired.ExpiryDate = asOf.AddDate(0, 0, -1)

	service := serviceWithTiers(expired)

	quote, err := service.Resolve(context.Background(), kayak(), 2, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Tier != nil {
		t.Errorf("got tier=%+v want nil for an expired tier", quote.Tier)
	}
}

func TestResolveTieBreaksOnPriority(t *testing.T) {
	first := dailyTier(45)
	first.ID = 1
	first.Priority = 2
	second := dailyTier(45)
	second.ID = 2
	second.Priority = 1

	service := serviceWithTiers(first, second)

	quote, err := service.Resolve(context.Background(), kayak(), 2, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.Tier == nil || quote.Tier.ID != 2 {
		t.Errorf("got tier=%+v want the lower priority value", quote.Tier)
	}
}

func TestResolveFlagsMisconfiguredTier(t *testing.T) {
	service := serviceWithTiers(dailyTier(60))

	quote, err := service.Resolve(context.Background(), kayak(), 2, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Misconfigured {
		t.Error("expected misconfigured flag for a tier above the base rate")
	}
	if !quote.Savings.Equal(decimal.NewFromInt(-20)) {
		t.Errorf("got savings=%s want=-20", quote.Savings)
	}
}

func TestResolveSeasonalMultiplier(t *testing.T) {
	seasonal := dailyTier(40)
	seasonal.SeasonalMultiplier = decimal.NewFromFloat(1.25)

	service := serviceWithTiers(seasonal)

	quote, err := service.Resolve(context.Background(), kayak(), 2, asOf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.TotalCost.Equal(decimal.NewFromInt(100)) {
		t.Errorf("got total=%s want=100", quote.TotalCost)
	}
}

func TestResolveRejectsBadDuration(t *testing.T) {
	service := serviceWithTiers()

	_, err := service.Resolve(context.Background(), kayak(), 0, asOf)
	if !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("got err=%v want=%v", err, core.ErrInvalidArgument)
	}
}

func TestCreateTierValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(tier *pricing.Tier)
		wantErr error
	}{
		{name: "missing sku", mutate: func(tier *pricing.Tier) { tier.Sku = "" }, wantErr: core.ErrInvalidArgument},
		{name: "bad period type", mutate: func(tier *pricing.Tier) { tier.PeriodType = "FORTNIGHTLY" }, wantErr: core.ErrInvalidArgument},
		{name: "zero period days", mutate: func(tier *pricing.Tier) { tier.PeriodDays = 0 }, wantErr: core.ErrDataIntegrity},
		{name: "negative rate", mutate: func(tier *pricing.Tier) { tier.RatePerPeriod = decimal.NewFromInt(-1) }, wantErr: core.ErrDataIntegrity},
		{name: "inverted day bounds", mutate: func(tier *pricing.Tier) {
			tier.MinRentalDays = 10
			tier.MaxRentalDays = 5
		}, wantErr: core.ErrDataIntegrity},
		{name: "inverted date bounds", mutate: func(tier *pricing.Tier) {
			tier.EffectiveDate = asOf
			tier.ExpiryDate = asOf.AddDate(0, 0, -1)
		}, wantErr: core.ErrDataIntegrity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := pricerepo.NewMockRepo()
			service := pricing.NewService(repo)

			tier := dailyTier(45)
			tt.mutate(&tier)

			err := service.CreateTier(context.Background(), &tier)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got err=%v want=%v", err, tt.wantErr)
			}
			repo.VerifyCount("SaveTier", 0, t)
		})
	}
}

func TestCreateTierSingleDefaultPerItem(t *testing.T) {
	existing := dailyTier(45)
	existing.ID = 9
	existing.IsDefault = true

	repo := pricerepo.NewMockRepo()
	repo.GetTiersBySkuFunc = func(ctx context.Context, sku string, options ...core.QueryOptions) ([]pricing.Tier, error) {
		return []pricing.Tier{existing}, nil
	}
	service := pricing.NewService(repo)

	tier := weeklyTier(300)
	tier.IsDefault = true

	err := service.CreateTier(context.Background(), &tier)
	if !errors.Is(err, core.ErrDataIntegrity) {
		t.Errorf("got err=%v want=%v", err, core.ErrDataIntegrity)
	}
	repo.VerifyCount("SaveTier", 0, t)
}

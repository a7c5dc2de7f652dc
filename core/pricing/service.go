package pricing

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func NewService(repo Repository) *service {
	return &service{repo: repo}
}

type Service interface {
	Resolve(ctx context.Context, item stock.Item, rentalDays int, asOf time.Time) (Quote, error)

	CreateTier(ctx context.Context, tier *Tier) error
	GetTier(ctx context.Context, ID uint64) (Tier, error)
	GetTiersBySku(ctx context.Context, sku string) ([]Tier, error)
	DeleteTier(ctx context.Context, ID uint64) error
}

type service struct {
	repo Repository
}

// Resolve filters the item's tiers to those applicable for the duration and
// date, prices each survivor and picks the minimum total cost. Ties break
// on lower priority value, then on the default flag. With no applicable
// tier the item's flat daily rate applies with no discount.
func (s *service) Resolve(ctx context.Context, item stock.Item, rentalDays int, asOf time.Time) (Quote, error) {
	const funcName = "Resolve"

	if rentalDays <= 0 {
		return Quote{}, errors.WithStack(core.ErrInvalidArgument)
	}

	tiers, err := s.repo.GetTiersBySku(ctx, item.Sku)
	if err != nil && !errors.Is(err, core.ErrNotFound) {
		return Quote{}, errors.WithStack(err)
	}

	days := decimal.NewFromInt(int64(rentalDays))
	baseCost := item.BaseDailyRate.Mul(days)

	var best *Tier
	var bestCost decimal.Decimal

	for i := range tiers {
		tier := tiers[i]
		if !tier.AppliesTo(rentalDays, asOf) {
			continue
		}

		cost := tier.TotalCost(rentalDays)
		if best == nil || cost.LessThan(bestCost) {
			best, bestCost = &tiers[i], cost
			continue
		}
		if cost.Equal(bestCost) {
			if tier.Priority < best.Priority ||
				(tier.Priority == best.Priority && tier.IsDefault && !best.IsDefault) {
				best, bestCost = &tiers[i], cost
			}
		}
	}

	quote := Quote{Sku: item.Sku, RentalDays: rentalDays}
	if best == nil {
		quote.TotalCost = baseCost
		quote.DailyEquivalent = item.BaseDailyRate
		quote.Savings = decimal.Zero
		return quote, nil
	}

	quote.Tier = best
	quote.TotalCost = bestCost
	quote.DailyEquivalent = bestCost.DivRound(days, 2)
	quote.Savings = baseCost.Sub(bestCost)
	if quote.Savings.IsNegative() {
		quote.Misconfigured = true
		log.Warn().
			Str("func", funcName).
			Str("sku", item.Sku).
			Uint64("tierId", best.ID).
			Str("savings", quote.Savings.String()).
			Msg("selected tier costs more than the base daily rate")
	}

	return quote, nil
}

func (s *service) CreateTier(ctx context.Context, tier *Tier) error {
	const funcName = "CreateTier"

	log.Info().
		Str("func", funcName).
		Str("sku", tier.Sku).
		Str("periodType", string(tier.PeriodType)).
		Msg("creating pricing tier")

	if err := validateTier(tier); err != nil {
		return err
	}

	// At most one default tier per item.
	if tier.IsDefault {
		existing, err := s.repo.GetTiersBySku(ctx, tier.Sku)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return errors.WithStack(err)
		}
		for _, t := range existing {
			if t.IsDefault && t.ID != tier.ID {
				return errors.WithStack(core.ErrDataIntegrity)
			}
		}
	}

	tier.Created = time.Now()
	return errors.WithStack(s.repo.SaveTier(ctx, tier))
}

func (s *service) GetTier(ctx context.Context, ID uint64) (Tier, error) {
	tier, err := s.repo.GetTier(ctx, ID)
	if err != nil {
		return tier, errors.WithStack(err)
	}
	return tier, nil
}

func (s *service) GetTiersBySku(ctx context.Context, sku string) ([]Tier, error) {
	return s.repo.GetTiersBySku(ctx, sku)
}

func (s *service) DeleteTier(ctx context.Context, ID uint64) error {
	return errors.WithStack(s.repo.DeleteTier(ctx, ID))
}

// validateTier enforces the write-time invariants; a negative rate or an
// inverted bound never reaches the resolver.
func validateTier(tier *Tier) error {
	if tier.Sku == "" {
		return errors.WithStack(core.ErrInvalidArgument)
	}
	if _, err := ParsePeriodType(string(tier.PeriodType)); err != nil {
		return errors.WithStack(core.ErrInvalidArgument)
	}
	if tier.PeriodDays < 1 {
		return errors.WithStack(core.ErrDataIntegrity)
	}
	if tier.RatePerPeriod.IsNegative() {
		return errors.WithStack(core.ErrDataIntegrity)
	}
	if tier.SeasonalMultiplier.IsNegative() {
		return errors.WithStack(core.ErrDataIntegrity)
	}
	if tier.MinRentalDays > 0 && tier.MaxRentalDays > 0 && tier.MinRentalDays > tier.MaxRentalDays {
		return errors.WithStack(core.ErrDataIntegrity)
	}
	if !tier.EffectiveDate.IsZero() && !tier.ExpiryDate.IsZero() && tier.EffectiveDate.After(tier.ExpiryDate) {
		return errors.WithStack(core.ErrDataIntegrity)
	}
	return nil
}

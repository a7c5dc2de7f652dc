package pricerepo

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/pricing"
	"github.com/rentkit/rental-service/db"
	"github.com/rs/zerolog/log"

	lru "github.com/hashicorp/golang-lru"
)

const tierColumns = `id, sku, period_type, period_days, rate_per_period, min_rental_days, max_rental_days,
       effective_date, expiry_date, priority, is_default, seasonal_multiplier, created`

// dbRepo caches tier lists per sku. Tiers change rarely and every booking
// resolves pricing, so the cache sits in front of the hottest read.
type dbRepo struct {
	conn core.Conn
	c    *lru.Cache
}

func NewPostgresRepo(conn core.Conn) pricing.Repository {
	l, err := lru.New(1024)
	if err != nil {
		log.Warn().Err(err).Msg("unable to configure tier cache")
	}
	return &dbRepo{
		conn: conn,
		c:    l,
	}
}

func scanTier(row pgx.Row, t *pricing.Tier) error {
	return row.Scan(&t.ID, &t.Sku, &t.PeriodType, &t.PeriodDays, &t.RatePerPeriod, &t.MinRentalDays, &t.MaxRentalDays,
		&t.EffectiveDate, &t.ExpiryDate, &t.Priority, &t.IsDefault, &t.SeasonalMultiplier, &t.Created)
}

func (d *dbRepo) GetTier(ctx context.Context, ID uint64, options ...core.QueryOptions) (pricing.Tier, error) {
	m := db.StartMetric("GetTier")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	t := pricing.Tier{}
	err := scanTier(tx.QueryRow(ctx, `SELECT `+tierColumns+` FROM pricing_tiers WHERE id = $1 `+forUpdate, ID), &t)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return t, errors.WithStack(core.ErrNotFound)
		}
		return t, errors.WithStack(err)
	}

	m.Complete(nil)
	return t, nil
}

func (d *dbRepo) GetTiersBySku(ctx context.Context, sku string, options ...core.QueryOptions) ([]pricing.Tier, error) {
	m := db.StartMetric("GetTiersBySku")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	if forUpdate == "" {
		if tiers, ok := d.getcache(sku); ok {
			m.Complete(nil)
			return tiers, nil
		}
	}

	tiers := make([]pricing.Tier, 0)
	rows, err := tx.Query(ctx, `SELECT `+tierColumns+` FROM pricing_tiers WHERE sku = $1 ORDER BY priority, id `+forUpdate, sku)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		t := pricing.Tier{}
		if err = scanTier(rows, &t); err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		tiers = append(tiers, t)
	}

	d.cache(sku, tiers)
	m.Complete(nil)
	return tiers, nil
}

func (d *dbRepo) SaveTier(ctx context.Context, t *pricing.Tier, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveTier")
	tx := db.GetUpdateOptions(d.conn, options...)

	if t.ID != 0 {
		_, err := tx.Exec(ctx, `
			UPDATE pricing_tiers
               SET period_type = $2, period_days = $3, rate_per_period = $4, min_rental_days = $5, max_rental_days = $6,
                   effective_date = $7, expiry_date = $8, priority = $9, is_default = $10, seasonal_multiplier = $11
             WHERE id = $1;`,
			t.ID, t.PeriodType, t.PeriodDays, t.RatePerPeriod, t.MinRentalDays, t.MaxRentalDays,
			t.EffectiveDate, t.ExpiryDate, t.Priority, t.IsDefault, t.SeasonalMultiplier)
		if err != nil {
			m.Complete(err)
			return errors.WithStack(err)
		}
		d.uncache(t.Sku)
		m.Complete(nil)
		return nil
	}

	insert := `INSERT INTO pricing_tiers (sku, period_type, period_days, rate_per_period, min_rental_days, max_rental_days,
                                          effective_date, expiry_date, priority, is_default, seasonal_multiplier, created)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id;`

	err := tx.QueryRow(ctx, insert, t.Sku, t.PeriodType, t.PeriodDays, t.RatePerPeriod, t.MinRentalDays, t.MaxRentalDays,
		t.EffectiveDate, t.ExpiryDate, t.Priority, t.IsDefault, t.SeasonalMultiplier, t.Created).
		Scan(&t.ID)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	d.uncache(t.Sku)
	m.Complete(nil)
	return nil
}

func (d *dbRepo) DeleteTier(ctx context.Context, ID uint64, options ...core.UpdateOptions) error {
	m := db.StartMetric("DeleteTier")
	tx := db.GetUpdateOptions(d.conn, options...)

	t := pricing.Tier{}
	err := tx.QueryRow(ctx, `DELETE FROM pricing_tiers WHERE id = $1 RETURNING sku;`, ID).Scan(&t.Sku)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return errors.WithStack(core.ErrNotFound)
		}
		return errors.WithStack(err)
	}

	d.uncache(t.Sku)
	m.Complete(nil)
	return nil
}

func (d *dbRepo) cache(sku string, tiers []pricing.Tier) {
	if d.c == nil {
		return
	}
	d.c.Add(sku, tiers)
}

func (d *dbRepo) uncache(sku string) {
	if d.c == nil {
		return
	}
	d.c.Remove(sku)
}

func (d *dbRepo) getcache(sku string) ([]pricing.Tier, bool) {
	if d.c == nil {
		return nil, false
	}

	v, ok := d.c.Get(sku)
	if !ok {
		return nil, false
	}
	tiers, ok := v.([]pricing.Tier)
	return tiers, ok
}

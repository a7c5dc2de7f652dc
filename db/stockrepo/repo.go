package stockrepo

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/stock"
	"github.com/rentkit/rental-service/db"
)

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) stock.Repository {
	return &dbRepo{
		conn: conn,
	}
}

func (d *dbRepo) SaveItem(ctx context.Context, item stock.Item, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveItem")
	tx := db.GetUpdateOptions(d.conn, options...)

	ct, err := tx.Exec(ctx, `
		UPDATE items
           SET name = $2, base_daily_rate = $3, replacement_value = $4, deposit = $5, backorder_allowed = $6
         WHERE sku = $1;`,
		item.Sku, item.Name, item.BaseDailyRate, item.ReplacementValue, item.Deposit, item.BackorderAllowed)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		_, err := tx.Exec(ctx, `
		INSERT INTO items (sku, name, base_daily_rate, replacement_value, deposit, backorder_allowed)
                    VALUES ($1, $2, $3, $4, $5, $6);`,
			item.Sku, item.Name, item.BaseDailyRate, item.ReplacementValue, item.Deposit, item.BackorderAllowed)
		if err != nil {
			m.Complete(err)
			return errors.WithStack(err)
		}
	}
	m.Complete(nil)
	return nil
}

func (d *dbRepo) GetItem(ctx context.Context, sku string, options ...core.QueryOptions) (stock.Item, error) {
	m := db.StartMetric("GetItem")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	item := stock.Item{}
	err := tx.QueryRow(ctx, `SELECT sku, name, base_daily_rate, replacement_value, deposit, backorder_allowed FROM items WHERE sku = $1 `+forUpdate, sku).
		Scan(&item.Sku, &item.Name, &item.BaseDailyRate, &item.ReplacementValue, &item.Deposit, &item.BackorderAllowed)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return item, errors.WithStack(core.ErrNotFound)
		}
		return item, errors.WithStack(err)
	}

	m.Complete(nil)
	return item, nil
}

func (d *dbRepo) GetAllItems(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]stock.Item, error) {
	m := db.StartMetric("GetAllItems")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	items := make([]stock.Item, 0)
	rows, err := tx.Query(ctx,
		`SELECT sku, name, base_daily_rate, replacement_value, deposit, backorder_allowed FROM items ORDER BY sku LIMIT $1 OFFSET $2 `+forUpdate,
		limit, offset)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		item := stock.Item{}
		err = rows.Scan(&item.Sku, &item.Name, &item.BaseDailyRate, &item.ReplacementValue, &item.Deposit, &item.BackorderAllowed)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		items = append(items, item)
	}

	m.Complete(nil)
	return items, nil
}

func (d *dbRepo) GetLocation(ctx context.Context, ID uint64, options ...core.QueryOptions) (stock.Location, error) {
	m := db.StartMetric("GetLocation")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	location := stock.Location{}
	err := tx.QueryRow(ctx, `SELECT id, name FROM locations WHERE id = $1 `+forUpdate, ID).
		Scan(&location.ID, &location.Name)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return location, errors.WithStack(core.ErrNotFound)
		}
		return location, errors.WithStack(err)
	}

	m.Complete(nil)
	return location, nil
}

func (d *dbRepo) SaveLocation(ctx context.Context, location *stock.Location, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveLocation")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO locations (name) VALUES ($1) RETURNING id;`

	err := tx.QueryRow(ctx, insert, location.Name).Scan(&location.ID)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	m.Complete(nil)
	return nil
}

func (d *dbRepo) GetMovementByRequestID(ctx context.Context, requestID string, options ...core.QueryOptions) (stock.StockMovement, error) {
	m := db.StartMetric("GetMovementByRequestID")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	movement := stock.StockMovement{}
	err := tx.QueryRow(ctx,
		`SELECT id, request_id, sku, location_id, type, disposition, quantity, before_on_hand, after_on_hand, reference_id, actor, created FROM stock_movements WHERE request_id = $1 `+forUpdate,
		requestID).
		Scan(&movement.ID, &movement.RequestID, &movement.Sku, &movement.LocationID, &movement.Type, &movement.Disposition,
			&movement.Quantity, &movement.BeforeOnHand, &movement.AfterOnHand, &movement.ReferenceID, &movement.Actor, &movement.Created)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return movement, errors.WithStack(core.ErrNotFound)
		}
		return movement, errors.WithStack(err)
	}

	m.Complete(nil)
	return movement, nil
}

func (d *dbRepo) GetMovements(ctx context.Context, sku string, locationID uint64, limit, offset int, options ...core.QueryOptions) ([]stock.StockMovement, error) {
	m := db.StartMetric("GetMovements")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	movements := make([]stock.StockMovement, 0)
	rows, err := tx.Query(ctx,
		`SELECT id, request_id, sku, location_id, type, disposition, quantity, before_on_hand, after_on_hand, reference_id, actor, created
           FROM stock_movements
          WHERE sku = $1 AND location_id = $2
          ORDER BY id ASC LIMIT $3 OFFSET $4 `+forUpdate,
		sku, locationID, limit, offset)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		movement := stock.StockMovement{}
		err = rows.Scan(&movement.ID, &movement.RequestID, &movement.Sku, &movement.LocationID, &movement.Type, &movement.Disposition,
			&movement.Quantity, &movement.BeforeOnHand, &movement.AfterOnHand, &movement.ReferenceID, &movement.Actor, &movement.Created)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		movements = append(movements, movement)
	}

	m.Complete(nil)
	return movements, nil
}

func (d *dbRepo) SaveMovement(ctx context.Context, movement *stock.StockMovement, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveMovement")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO stock_movements (request_id, sku, location_id, type, disposition, quantity, before_on_hand, after_on_hand, reference_id, actor, created)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id;`

	err := tx.QueryRow(ctx, insert, movement.RequestID, movement.Sku, movement.LocationID, movement.Type, movement.Disposition,
		movement.Quantity, movement.BeforeOnHand, movement.AfterOnHand, movement.ReferenceID, movement.Actor, movement.Created).
		Scan(&movement.ID)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	m.Complete(nil)
	return nil
}

func (d *dbRepo) GetStockLevel(ctx context.Context, sku string, locationID uint64, options ...core.QueryOptions) (stock.StockLevel, error) {
	m := db.StartMetric("GetStockLevel")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	level := stock.StockLevel{}
	err := tx.QueryRow(ctx,
		`SELECT sku, location_id, on_hand, reserved, on_rent, damaged, reorder_point, version FROM stock_levels WHERE sku = $1 AND location_id = $2 `+forUpdate,
		sku, locationID).
		Scan(&level.Sku, &level.LocationID, &level.OnHand, &level.Reserved, &level.OnRent, &level.Damaged, &level.ReorderPoint, &level.Version)

	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return level, errors.WithStack(core.ErrNotFound)
		}
		return level, errors.WithStack(err)
	}

	m.Complete(nil)
	return level, nil
}

func (d *dbRepo) GetAllStockLevels(ctx context.Context, limit, offset int, options ...core.QueryOptions) ([]stock.StockLevel, error) {
	m := db.StartMetric("GetAllStockLevels")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	levels := make([]stock.StockLevel, 0)
	rows, err := tx.Query(ctx,
		`SELECT sku, location_id, on_hand, reserved, on_rent, damaged, reorder_point, version FROM stock_levels ORDER BY sku, location_id LIMIT $1 OFFSET $2 `+forUpdate,
		limit, offset)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		level := stock.StockLevel{}
		err = rows.Scan(&level.Sku, &level.LocationID, &level.OnHand, &level.Reserved, &level.OnRent, &level.Damaged, &level.ReorderPoint, &level.Version)
		if err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		levels = append(levels, level)
	}

	m.Complete(nil)
	return levels, nil
}

func (d *dbRepo) CreateStockLevel(ctx context.Context, level *stock.StockLevel, options ...core.UpdateOptions) error {
	m := db.StartMetric("CreateStockLevel")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO stock_levels (sku, location_id, on_hand, reserved, on_rent, damaged, reorder_point, version)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, 1);`

	_, err := tx.Exec(ctx, insert, level.Sku, level.LocationID, level.OnHand, level.Reserved, level.OnRent, level.Damaged, level.ReorderPoint)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	level.Version = 1
	m.Complete(nil)
	return nil
}

// UpdateStockLevel is the optimistic write: the row is only touched if it is
// still at the version the caller read it at.
func (d *dbRepo) UpdateStockLevel(ctx context.Context, level *stock.StockLevel, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateStockLevel")
	tx := db.GetUpdateOptions(d.conn, options...)

	update := `UPDATE stock_levels
                  SET on_hand = $3, reserved = $4, on_rent = $5, damaged = $6, reorder_point = $7, version = version + 1
                WHERE sku = $1 AND location_id = $2 AND version = $8;`

	ct, err := tx.Exec(ctx, update, level.Sku, level.LocationID, level.OnHand, level.Reserved, level.OnRent, level.Damaged, level.ReorderPoint, level.Version)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	if ct.RowsAffected() == 0 {
		m.Complete(stock.ErrVersionConflict)
		return errors.WithStack(stock.ErrVersionConflict)
	}
	level.Version++
	m.Complete(nil)
	return nil
}

func (d *dbRepo) BeginTransaction(ctx context.Context) (core.Transaction, error) {
	tx, err := d.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

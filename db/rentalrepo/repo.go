package rentalrepo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/rental"
	"github.com/rentkit/rental-service/db"
)

const rentalColumns = `id, request_id, renter, sku, location_id, quantity, returned_quantity, state,
       scheduled_pickup, scheduled_return, actual_pickup, actual_return, extensions, daily_rate, deposit, total_cost, created`

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) rental.Repository {
	return &dbRepo{
		conn: conn,
	}
}

func scanRental(row pgx.Row, r *rental.Rental) error {
	return row.Scan(&r.ID, &r.RequestID, &r.Renter, &r.Sku, &r.LocationID, &r.Quantity, &r.ReturnedQuantity, &r.State,
		&r.ScheduledPickup, &r.ScheduledReturn, &r.ActualPickup, &r.ActualReturn, &r.Extensions, &r.DailyRate, &r.Deposit, &r.TotalCost, &r.Created)
}

func (d *dbRepo) GetRental(ctx context.Context, ID uint64, options ...core.QueryOptions) (rental.Rental, error) {
	m := db.StartMetric("GetRental")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	r := rental.Rental{}
	err := scanRental(tx.QueryRow(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1 `+forUpdate, ID), &r)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return r, errors.WithStack(core.ErrNotFound)
		}
		return r, errors.WithStack(err)
	}

	m.Complete(nil)
	return r, nil
}

func (d *dbRepo) GetRentalByRequestID(ctx context.Context, requestID string, options ...core.QueryOptions) (rental.Rental, error) {
	m := db.StartMetric("GetRentalByRequestID")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	r := rental.Rental{}
	err := scanRental(tx.QueryRow(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE request_id = $1 `+forUpdate, requestID), &r)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return r, errors.WithStack(core.ErrNotFound)
		}
		return r, errors.WithStack(err)
	}

	m.Complete(nil)
	return r, nil
}

func (d *dbRepo) GetRentals(ctx context.Context, filter rental.GetRentalsOptions, limit, offset int, options ...core.QueryOptions) ([]rental.Rental, error) {
	m := db.StartMetric("GetRentals")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	where := make([]string, 0)
	params := make([]interface{}, 0)

	if filter.Renter != "" {
		params = append(params, filter.Renter)
		where = append(where, fmt.Sprintf("renter = $%d", len(params)))
	}
	if filter.Sku != "" {
		params = append(params, filter.Sku)
		where = append(where, fmt.Sprintf("sku = $%d", len(params)))
	}
	if filter.State != "" && filter.State != rental.Overdue {
		params = append(params, filter.State)
		where = append(where, fmt.Sprintf("state = $%d", len(params)))
	}
	if filter.OverdueOnly || filter.State == rental.Overdue {
		where = append(where, "state IN ('ACTIVE', 'EXTENDED', 'PARTIAL_RETURN') AND scheduled_return < now()")
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	params = append(params, limit)
	limitPos := len(params)
	params = append(params, offset)
	offsetPos := len(params)

	rentals := make([]rental.Rental, 0)
	rows, err := tx.Query(ctx,
		`SELECT `+rentalColumns+` FROM rentals`+whereClause+
			fmt.Sprintf(` ORDER BY created ASC LIMIT $%d OFFSET $%d `, limitPos, offsetPos)+forUpdate,
		params...)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		r := rental.Rental{}
		if err = scanRental(rows, &r); err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		rentals = append(rentals, r)
	}

	m.Complete(nil)
	return rentals, nil
}

func (d *dbRepo) SaveRental(ctx context.Context, r *rental.Rental, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveRental")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO rentals (request_id, renter, sku, location_id, quantity, returned_quantity, state,
                                    scheduled_pickup, scheduled_return, actual_pickup, actual_return, extensions, daily_rate, deposit, total_cost, created)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16) RETURNING id;`

	err := tx.QueryRow(ctx, insert, r.RequestID, r.Renter, r.Sku, r.LocationID, r.Quantity, r.ReturnedQuantity, r.State,
		r.ScheduledPickup, r.ScheduledReturn, r.ActualPickup, r.ActualReturn, r.Extensions, r.DailyRate, r.Deposit, r.TotalCost, r.Created).
		Scan(&r.ID)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	m.Complete(nil)
	return nil
}

func (d *dbRepo) UpdateRental(ctx context.Context, r *rental.Rental, options ...core.UpdateOptions) error {
	m := db.StartMetric("UpdateRental")
	tx := db.GetUpdateOptions(d.conn, options...)

	update := `UPDATE rentals
                  SET returned_quantity = $2, state = $3, scheduled_return = $4, actual_pickup = $5,
                      actual_return = $6, extensions = $7, total_cost = $8
                WHERE id = $1;`

	_, err := tx.Exec(ctx, update, r.ID, r.ReturnedQuantity, r.State, r.ScheduledReturn, r.ActualPickup,
		r.ActualReturn, r.Extensions, r.TotalCost)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
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

package inspectrepo

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/pkg/errors"
	"github.com/rentkit/rental-service/core"
	"github.com/rentkit/rental-service/core/inspection"
	"github.com/rentkit/rental-service/db"
)

const inspectionColumns = `id, rental_id, line_ref, rating, quantity, description, assessed_repair_cost, disposition, deposit_charge, actor, created`

type dbRepo struct {
	conn core.Conn
}

func NewPostgresRepo(conn core.Conn) inspection.Repository {
	return &dbRepo{
		conn: conn,
	}
}

func scanInspection(row pgx.Row, ins *inspection.Inspection) error {
	return row.Scan(&ins.ID, &ins.RentalID, &ins.LineRef, &ins.Rating, &ins.Quantity, &ins.Description,
		&ins.AssessedRepairCost, &ins.Disposition, &ins.DepositCharge, &ins.Actor, &ins.Created)
}

func (d *dbRepo) GetInspection(ctx context.Context, ID uint64, options ...core.QueryOptions) (inspection.Inspection, error) {
	m := db.StartMetric("GetInspection")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	ins := inspection.Inspection{}
	err := scanInspection(tx.QueryRow(ctx, `SELECT `+inspectionColumns+` FROM inspections WHERE id = $1 `+forUpdate, ID), &ins)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return ins, errors.WithStack(core.ErrNotFound)
		}
		return ins, errors.WithStack(err)
	}

	m.Complete(nil)
	return ins, nil
}

func (d *dbRepo) GetInspectionByLineRef(ctx context.Context, lineRef string, options ...core.QueryOptions) (inspection.Inspection, error) {
	m := db.StartMetric("GetInspectionByLineRef")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	ins := inspection.Inspection{}
	err := scanInspection(tx.QueryRow(ctx, `SELECT `+inspectionColumns+` FROM inspections WHERE line_ref = $1 `+forUpdate, lineRef), &ins)
	if err != nil {
		m.Complete(err)
		if err == pgx.ErrNoRows {
			return ins, errors.WithStack(core.ErrNotFound)
		}
		return ins, errors.WithStack(err)
	}

	m.Complete(nil)
	return ins, nil
}

func (d *dbRepo) GetInspectionsByRental(ctx context.Context, rentalID uint64, options ...core.QueryOptions) ([]inspection.Inspection, error) {
	m := db.StartMetric("GetInspectionsByRental")
	tx, forUpdate := db.GetQueryOptions(d.conn, options...)

	inspections := make([]inspection.Inspection, 0)
	rows, err := tx.Query(ctx, `SELECT `+inspectionColumns+` FROM inspections WHERE rental_id = $1 ORDER BY id ASC `+forUpdate, rentalID)
	if err != nil {
		m.Complete(err)
		return nil, errors.WithStack(err)
	}
	defer rows.Close()

	for rows.Next() {
		ins := inspection.Inspection{}
		if err = scanInspection(rows, &ins); err != nil {
			m.Complete(err)
			return nil, errors.WithStack(err)
		}
		inspections = append(inspections, ins)
	}

	m.Complete(nil)
	return inspections, nil
}

func (d *dbRepo) SaveInspection(ctx context.Context, ins *inspection.Inspection, options ...core.UpdateOptions) error {
	m := db.StartMetric("SaveInspection")
	tx := db.GetUpdateOptions(d.conn, options...)

	insert := `INSERT INTO inspections (rental_id, line_ref, rating, quantity, description, assessed_repair_cost, disposition, deposit_charge, actor, created)
                    VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id;`

	err := tx.QueryRow(ctx, insert, ins.RentalID, ins.LineRef, ins.Rating, ins.Quantity, ins.Description,
		ins.AssessedRepairCost, ins.Disposition, ins.DepositCharge, ins.Actor, ins.Created).
		Scan(&ins.ID)
	if err != nil {
		m.Complete(err)
		return errors.WithStack(err)
	}
	m.Complete(nil)
	return nil
}

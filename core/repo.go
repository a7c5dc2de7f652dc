package core

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("core: record not found")

	// ErrInsufficientStock indicates an outflow would drive available stock
	// negative for an item that does not allow backorders. Not retryable.
	ErrInsufficientStock = errors.New("core: insufficient stock")

	// ErrInvalidStateTransition indicates a rental lifecycle transition that
	// is not permitted from the rental's current state. Not retryable.
	ErrInvalidStateTransition = errors.New("core: invalid state transition")

	// ErrInvalidArgument indicates malformed caller input such as a negative
	// quantity, a zero-day rental, or an unknown condition rating.
	ErrInvalidArgument = errors.New("core: invalid argument")

	// ErrConcurrencyConflict indicates the optimistic version check exhausted
	// its retries. Retryable by the caller.
	ErrConcurrencyConflict = errors.New("core: concurrent modification conflict")

	// ErrDataIntegrity indicates a write would break a catalog invariant,
	// such as two default pricing tiers for one item.
	ErrDataIntegrity = errors.New("core: data integrity violation")
)

type Transaction interface {
	Conn
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type Conn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

type UpdateOptions struct {
	Tx Transaction
}

type QueryOptions struct {
	ForUpdate bool
	Tx        Transaction
}

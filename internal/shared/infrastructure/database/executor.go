package database

import (
	"context"
	"database/sql"
)

// Row is a single result row.
type Row interface {
	Scan(dest ...any) error
}

// Rows is a result set read row by row.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
	Err() error
}

// Result reports the effect of an Exec.
type Result interface {
	RowsAffected() (int64, error)
	LastInsertId() (int64, error)
}

// Executor runs statements written with '?' placeholders. Each backend
// translates placeholders and argument types for its driver.
type Executor interface {
	Exec(ctx context.Context, query string, args ...any) (Result, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
	Query(ctx context.Context, query string, args ...any) (Rows, error)
}

// Transaction is an Executor whose statements become durable on Commit.
type Transaction interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Connection is the pooled handle repositories run against outside a unit of work.
type Connection interface {
	Executor
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
	Ping(ctx context.Context) error
	Driver() Driver
}

// SQLQuerier is the statement surface shared by *sql.DB, *sql.Conn and *sql.Tx.
type SQLQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLExecutor runs Executor statements on a database/sql handle opened for
// driver: placeholders are rebound for PostgreSQL and times are stored as
// TimeLayout text for SQLite.
type SQLExecutor struct {
	q      SQLQuerier
	driver Driver
}

// NewSQLExecutor wraps q, which must belong to a database opened for driver.
func NewSQLExecutor(q SQLQuerier, driver Driver) SQLExecutor {
	return SQLExecutor{q: q, driver: driver}
}

func (e SQLExecutor) translate(query string, args []any) (string, []any) {
	switch e.driver {
	case DriverPostgres:
		return Rebind(query), args
	case DriverSQLite:
		return query, TextTimeArgs(args)
	default:
		return query, args
	}
}

func (e SQLExecutor) Exec(ctx context.Context, query string, args ...any) (Result, error) {
	query, args = e.translate(query, args)
	return e.q.ExecContext(ctx, query, args...)
}

func (e SQLExecutor) QueryRow(ctx context.Context, query string, args ...any) Row {
	query, args = e.translate(query, args)
	return e.q.QueryRowContext(ctx, query, args...)
}

func (e SQLExecutor) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	query, args = e.translate(query, args)
	rows, err := e.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

package sql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/syssam/recordkit/dialect"
)

// Driver runs the statements rendered by the record engine on a
// database/sql handle.
type Driver struct {
	Conn
	dialect string
}

// NewDriver returns a Driver speaking dialect over c.
func NewDriver(dialect string, c Conn) *Driver {
	return &Driver{dialect: dialect, Conn: c}
}

// Open connects to source with the database/sql driver registered for
// dialect. SQLite uses the "sqlite" driver of modernc.org/sqlite and MySQL
// the "mysql" driver of go-sql-driver/mysql; callers import the one they
// need.
func Open(dialect, source string) (*Driver, error) {
	db, err := sql.Open(driverName(dialect), source)
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: open %s: %w", dialect, err)
	}
	return NewDriver(dialect, Conn{db}), nil
}

// OpenDB wraps an already opened handle.
func OpenDB(dialect string, db *sql.DB) *Driver {
	return NewDriver(dialect, Conn{db})
}

func driverName(name string) string {
	if name == dialect.SQLite {
		return "sqlite"
	}
	return name
}

// DB returns the underlying handle.
func (d Driver) DB() *sql.DB {
	return d.ExecQuerier.(*sql.DB)
}

// Dialect returns the dialect name the driver was opened with.
func (d Driver) Dialect() string { return d.dialect }

// Close closes the underlying handle.
func (d *Driver) Close() error { return d.DB().Close() }

// ExecQuerier is the part of *sql.DB, *sql.Conn and *sql.Tx the driver
// needs.
type ExecQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Conn adapts an ExecQuerier to dialect.ExecQuerier.
//
// Record statements carry their values inline, so args is normally nil or
// an empty []any. Placeholder arguments are still passed through.
type Conn struct {
	ExecQuerier
}

// Exec runs a statement that returns no rows. v is nil or a *Result that
// receives the outcome, from which the engine reads the generated key and
// the affected row count.
func (c Conn) Exec(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Result)
	if !ok && v != nil {
		return fmt.Errorf("dialect/sql: exec: result target is %T, want *sql.Result", v)
	}
	argv, err := argList(args)
	if err != nil {
		return err
	}
	res, err := c.ExecContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: exec: %w", err)
	}
	if vr != nil {
		*vr = res
	}
	return nil
}

// Query runs a statement returning rows into v, which must be a *Rows.
func (c Conn) Query(ctx context.Context, query string, args, v any) error {
	vr, ok := v.(*Rows)
	if !ok {
		return fmt.Errorf("dialect/sql: query: rows target is %T, want *sql.Rows", v)
	}
	argv, err := argList(args)
	if err != nil {
		return err
	}
	rows, err := c.QueryContext(ctx, query, argv...)
	if err != nil {
		return fmt.Errorf("dialect/sql: query: %w", err)
	}
	*vr = Rows{rows}
	return nil
}

func argList(args any) ([]any, error) {
	switch args := args.(type) {
	case nil:
		return nil, nil
	case []any:
		return args, nil
	default:
		return nil, fmt.Errorf("dialect/sql: arguments are %T, want []any", args)
	}
}

var _ dialect.Driver = (*Driver)(nil)

type (
	// Rows receives the cursor of a Query. It holds the *sql.Rows behind an
	// interface so the struct can be copied.
	Rows struct{ ColumnScanner }
	// Result is the outcome of an Exec.
	Result = sql.Result
)

// ColumnScanner is the subset of *sql.Rows that Fetch drains.
type ColumnScanner interface {
	Close() error
	Columns() ([]string, error)
	Err() error
	Next() bool
	Scan(dest ...any) error
}

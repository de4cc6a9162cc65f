package dialect

import "context"

// Dialect names for supported backends.
const (
	MySQL  = "mysql"
	SQLite = "sqlite"
)

// ExecQuerier wraps the two statement execution methods.
//
// For Exec, v is either nil or a *sql.Result that receives the driver
// result (used to read the last generated identifier). For Query, v is a
// *sql.Rows that receives the cursor.
type ExecQuerier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the interface that wraps all necessary operations for the
// record engine to talk to the backing store.
type Driver interface {
	ExecQuerier
	// Dialect returns the dialect name of the driver.
	Dialect() string
	// Close closes the underlying connection.
	Close() error
}

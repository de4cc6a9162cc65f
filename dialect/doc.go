// Package dialect provides the database dialect abstraction used by recordkit.
//
// The record engine never talks to database/sql directly. Every statement it
// generates goes through a Driver, which lets applications wrap the
// connection with statistics, logging, or test doubles.
//
// # Supported Dialects
//
//   - MySQL: MySQL/MariaDB database (the default; backtick identifiers and
//     backslash escaping)
//   - SQLite: SQLite database (accepts backtick identifiers, quote doubling
//     only)
//
// # Driver Interface
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Dialect() string
//	    Close() error
//	}
//
// # Usage
//
//	import (
//	    "github.com/syssam/recordkit"
//	    "github.com/syssam/recordkit/dialect"
//	    "github.com/syssam/recordkit/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.MySQL, "user:pass@tcp(localhost:3306)/shop")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	reg := recordkit.NewRegistry(drv)
//
// # Sub-packages
//
//   - dialect/sql: database/sql driver, statement builder and escapers
//   - dialect/sql/sqlgraph: constraint error classification
package dialect

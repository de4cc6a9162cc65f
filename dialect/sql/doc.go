// Package sql provides the SQL driver and statement rendering used by the
// record engine.
//
// Statements are rendered as literal SQL text: values arrive already
// coerced and escaped by the record layer, so the builders only quote
// identifiers and join clauses.
//
// # Builders
//
//   - Selector: SELECT with WHERE and ORDER BY
//   - InsertBuilder: INSERT of explicit columns
//   - UpdateBuilder: UPDATE with SET and WHERE
//   - DeleteBuilder: DELETE with WHERE
//
// Example:
//
//	b := sql.Dialect(dialect.MySQL)
//	q := b.Select().From("orders").
//	    Where(sql.EQ("id", sql.Raw("7"))).
//	    OrderBy("created DESC").
//	    String()
//	// SELECT * FROM `orders` WHERE `id` = 7 ORDER BY `created` DESC
//
// # Escaping
//
// EscaperFor returns the literal escaping rules of a dialect. MySQL follows
// mysql_real_escape_string; SQLite doubles single quotes.
//
// # Result sets
//
// Fetch and QueryCursor buffer a whole result set into a Cursor of
// column-name to raw-value maps.
//
// # Instrumentation
//
// NewStatsDriver and NewDebugDriver wrap any dialect.Driver with statement
// counters per statement kind and slog based statement logging.
package sql

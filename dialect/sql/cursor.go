package sql

import (
	"context"
	"fmt"

	"github.com/syssam/recordkit/dialect"
)

// Cursor is a fully buffered result set. Rows are exposed as
// column-name to raw-value maps, in the order the store returned them.
type Cursor struct {
	columns []string
	rows    []map[string]any
	pos     int
}

// Fetch drains and closes rows into a Cursor.
func Fetch(rows ColumnScanner) (*Cursor, error) {
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: columns: %w", err)
	}
	c := &Cursor{columns: columns}
	for rows.Next() {
		values := make([]any, len(columns))
		dest := make([]any, len(columns))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("dialect/sql: scan: %w", err)
		}
		row := make(map[string]any, len(columns))
		for i, name := range columns {
			// Drivers may reuse byte buffers between rows.
			if b, ok := values[i].([]byte); ok {
				values[i] = append([]byte(nil), b...)
			}
			row[name] = values[i]
		}
		c.rows = append(c.rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("dialect/sql: rows: %w", err)
	}
	return c, nil
}

// QueryCursor executes query on drv and returns the buffered result.
func QueryCursor(ctx context.Context, drv dialect.ExecQuerier, query string) (*Cursor, error) {
	rows := &Rows{}
	if err := drv.Query(ctx, query, []any{}, rows); err != nil {
		return nil, err
	}
	return Fetch(rows)
}

// Columns returns the column names of the result set.
func (c *Cursor) Columns() []string { return c.columns }

// Len returns the number of rows in the result set.
func (c *Cursor) Len() int { return len(c.rows) }

// Next returns the next row, or false when the cursor is exhausted.
func (c *Cursor) Next() (map[string]any, bool) {
	if c.pos >= len(c.rows) {
		return nil, false
	}
	row := c.rows[c.pos]
	c.pos++
	return row, true
}

package sql

import (
	"strings"

	"github.com/syssam/recordkit/dialect"
)

// Value is a rendered SQL value expression. Values are produced by the
// record coercion engine; the builder never escapes on its own.
type Value struct {
	expr string
	null bool
}

// Null returns the NULL literal.
func Null() Value { return Value{expr: "NULL", null: true} }

// Raw returns an unquoted expression such as NOW().
func Raw(expr string) Value { return Value{expr: expr} }

// Quoted wraps an already escaped string in single quotes.
func Quoted(escaped string) Value { return Value{expr: "'" + escaped + "'"} }

// IsNull reports whether v is the NULL literal.
func (v Value) IsNull() bool { return v.null }

// String returns the SQL text of the value.
func (v Value) String() string { return v.expr }

// Quote quotes an identifier with backticks.
func Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// Predicate is a boolean SQL expression used in WHERE clauses.
type Predicate struct {
	expr string
}

// String returns the SQL text of the predicate.
func (p *Predicate) String() string { return p.expr }

// EQ returns a `col` = v predicate. A NULL value renders as `col` = NULL,
// which matches no row; use IsNull to test for NULL.
func EQ(col string, v Value) *Predicate {
	return &Predicate{expr: Quote(col) + " = " + v.String()}
}

// IsNull returns a `col` IS NULL predicate.
func IsNull(col string) *Predicate {
	return &Predicate{expr: Quote(col) + " IS NULL"}
}

// Like returns a `col` LIKE v predicate.
func Like(col string, v Value) *Predicate {
	return &Predicate{expr: Quote(col) + " LIKE " + v.String()}
}

// LikeEscapeChar is the escape character of patterns built by EscapeLike.
// It has no special meaning in MySQL or SQLite string literals.
const LikeEscapeChar = "!"

var likeReplacer = strings.NewReplacer(
	LikeEscapeChar, LikeEscapeChar+LikeEscapeChar,
	"%", LikeEscapeChar+"%",
	"_", LikeEscapeChar+"_",
)

// EscapeLike escapes the LIKE wildcards of s so it matches literally
// inside a pattern passed to LikeEscaped.
func EscapeLike(s string) string { return likeReplacer.Replace(s) }

// LikeEscaped returns a `col` LIKE v ESCAPE '!' predicate.
func LikeEscaped(col string, v Value) *Predicate {
	return &Predicate{expr: Quote(col) + " LIKE " + v.String() + " ESCAPE '" + LikeEscapeChar + "'"}
}

// In returns a `col` IN (...) predicate. No values match no row.
func In(col string, vs ...Value) *Predicate {
	if len(vs) == 0 {
		return False()
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return &Predicate{expr: Quote(col) + " IN (" + strings.Join(parts, ", ") + ")"}
}

// False returns a predicate that matches no row.
func False() *Predicate { return &Predicate{expr: "0"} }

// And joins predicates with AND.
func And(preds ...*Predicate) *Predicate { return join(" AND ", preds) }

// Or joins predicates with OR.
func Or(preds ...*Predicate) *Predicate { return join(" OR ", preds) }

func join(sep string, preds []*Predicate) *Predicate {
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		if p != nil {
			parts = append(parts, p.expr)
		}
	}
	if len(parts) == 1 {
		return &Predicate{expr: parts[0]}
	}
	if sep == " OR " && len(parts) > 0 {
		return &Predicate{expr: "(" + strings.Join(parts, sep) + ")"}
	}
	return &Predicate{expr: strings.Join(parts, sep)}
}

// Builder creates statements for a specific dialect.
type Builder struct {
	dialect string
}

// Dialect returns a Builder for the given dialect.
func Dialect(name string) *Builder {
	return &Builder{dialect: name}
}

// Select starts a SELECT statement. No columns means *.
func (b *Builder) Select(columns ...string) *Selector {
	return &Selector{columns: columns}
}

// Insert starts an INSERT statement.
func (b *Builder) Insert(table string) *InsertBuilder {
	return &InsertBuilder{table: table, dialect: b.dialect}
}

// Update starts an UPDATE statement.
func (b *Builder) Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Delete starts a DELETE statement.
func (b *Builder) Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

// Truncate returns a statement removing every row of table. SQLite has no
// TRUNCATE and gets an unconditional DELETE instead.
func (b *Builder) Truncate(table string) string {
	if b.dialect == dialect.SQLite {
		return "DELETE FROM " + Quote(table)
	}
	return "TRUNCATE TABLE " + Quote(table)
}

// Selector builds SELECT statements.
type Selector struct {
	columns []string
	table   string
	where   *Predicate
	order   []string
}

// From sets the table to select from.
func (s *Selector) From(table string) *Selector {
	s.table = table
	return s
}

// Where sets the WHERE predicate; multiple calls are AND-ed.
func (s *Selector) Where(p *Predicate) *Selector {
	if s.where == nil {
		s.where = p
	} else {
		s.where = And(s.where, p)
	}
	return s
}

// OrderBy appends ordering terms of the form "column" or "column DESC".
func (s *Selector) OrderBy(terms ...string) *Selector {
	s.order = append(s.order, terms...)
	return s
}

// String returns the SQL text of the statement.
func (s *Selector) String() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(s.columns) == 0 {
		sb.WriteString("*")
	} else {
		for i, c := range s.columns {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(Quote(c))
		}
	}
	sb.WriteString(" FROM ")
	sb.WriteString(Quote(s.table))
	if s.where != nil && s.where.expr != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(s.where.expr)
	}
	if len(s.order) > 0 {
		sb.WriteString(" ORDER BY ")
		for i, term := range s.order {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(orderTerm(term))
		}
	}
	return sb.String()
}

// orderTerm quotes the column of an ordering term, keeping a trailing
// ASC/DESC direction.
func orderTerm(term string) string {
	fields := strings.Fields(term)
	if len(fields) == 0 {
		return ""
	}
	col := Quote(fields[0])
	if len(fields) > 1 {
		switch dir := strings.ToUpper(fields[1]); dir {
		case "ASC", "DESC":
			return col + " " + dir
		}
	}
	return col
}

// InsertBuilder builds INSERT statements.
type InsertBuilder struct {
	table   string
	dialect string
	columns []string
	values  []Value
}

// Set appends a column and its value.
func (i *InsertBuilder) Set(column string, v Value) *InsertBuilder {
	i.columns = append(i.columns, column)
	i.values = append(i.values, v)
	return i
}

// String returns the SQL text of the statement.
func (i *InsertBuilder) String() string {
	if len(i.columns) == 0 && i.dialect == dialect.SQLite {
		return "INSERT INTO " + Quote(i.table) + " DEFAULT VALUES"
	}
	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(Quote(i.table))
	sb.WriteString(" (")
	for n, c := range i.columns {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(Quote(c))
	}
	sb.WriteString(") VALUES (")
	for n, v := range i.values {
		if n > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(v.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// UpdateBuilder builds UPDATE statements.
type UpdateBuilder struct {
	table string
	sets  []string
	where *Predicate
}

// Set appends a `column` = value assignment.
func (u *UpdateBuilder) Set(column string, v Value) *UpdateBuilder {
	u.sets = append(u.sets, Quote(column)+" = "+v.String())
	return u
}

// Where sets the WHERE predicate.
func (u *UpdateBuilder) Where(p *Predicate) *UpdateBuilder {
	u.where = p
	return u
}

// Empty reports whether the statement has no assignments.
func (u *UpdateBuilder) Empty() bool { return len(u.sets) == 0 }

// String returns the SQL text of the statement.
func (u *UpdateBuilder) String() string {
	var sb strings.Builder
	sb.WriteString("UPDATE ")
	sb.WriteString(Quote(u.table))
	sb.WriteString(" SET ")
	sb.WriteString(strings.Join(u.sets, ", "))
	if u.where != nil && u.where.expr != "" {
		sb.WriteString(" WHERE ")
		sb.WriteString(u.where.expr)
	}
	return sb.String()
}

// DeleteBuilder builds DELETE statements.
type DeleteBuilder struct {
	table string
	where *Predicate
}

// Where sets the WHERE predicate.
func (d *DeleteBuilder) Where(p *Predicate) *DeleteBuilder {
	d.where = p
	return d
}

// String returns the SQL text of the statement.
func (d *DeleteBuilder) String() string {
	s := "DELETE FROM " + Quote(d.table)
	if d.where != nil && d.where.expr != "" {
		s += " WHERE " + d.where.expr
	}
	return s
}

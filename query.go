package recordkit

import (
	"context"
	"fmt"

	"github.com/syssam/recordkit/dialect/sql"
)

// Confirm guards Truncate.
type Confirm struct {
	Confirm bool
}

// FindBy returns the records whose field equals value, in the default
// order of the type. A nil value matches NULL.
func (r *Registry) FindBy(ctx context.Context, name, fieldName string, value any) ([]*Record, error) {
	t, err := r.Type(name)
	if err != nil {
		return nil, err
	}
	fd, ok := t.Field(fieldName)
	if !ok {
		return nil, NewUnknownFieldError(name, fieldName)
	}
	var pred *sql.Predicate
	if value == nil {
		pred = sql.IsNull(fd.Name)
	} else {
		lit, err := t.scrub(fd, value)
		if err != nil {
			return nil, err
		}
		pred = sql.EQ(fd.Name, lit)
	}
	return r.records(ctx, t, r.builder.Select().From(t.table).Where(pred).OrderBy(t.orderBy...).String())
}

// FindIn returns the records whose field equals any of values, in the
// default order of the type. NULL values are ignored.
func (r *Registry) FindIn(ctx context.Context, name, fieldName string, values ...any) ([]*Record, error) {
	t, err := r.Type(name)
	if err != nil {
		return nil, err
	}
	fd, ok := t.Field(fieldName)
	if !ok {
		return nil, NewUnknownFieldError(name, fieldName)
	}
	lits := make([]sql.Value, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		lit, err := t.scrub(fd, v)
		if err != nil {
			return nil, err
		}
		lits = append(lits, lit)
	}
	if len(lits) == 0 {
		return []*Record{}, nil
	}
	return r.records(ctx, t, r.builder.Select().From(t.table).Where(sql.In(fd.Name, lits...)).OrderBy(t.orderBy...).String())
}

// All returns every record of the type, in its default order.
func (r *Registry) All(ctx context.Context, name string) ([]*Record, error) {
	t, err := r.Type(name)
	if err != nil {
		return nil, err
	}
	return r.records(ctx, t, r.builder.Select().From(t.table).OrderBy(t.orderBy...).String())
}

// Search returns the records having text as a substring of any field.
// The LIKE wildcards % and _ in text match literally.
func (r *Registry) Search(ctx context.Context, name, text string) ([]*Record, error) {
	t, err := r.Type(name)
	if err != nil {
		return nil, err
	}
	preds := []*sql.Predicate{sql.False()}
	pattern := t.quote("%" + sql.EscapeLike(text) + "%")
	for _, f := range t.order {
		preds = append(preds, sql.LikeEscaped(f, pattern))
	}
	return r.records(ctx, t, r.builder.Select().From(t.table).Where(sql.Or(preds...)).OrderBy(t.orderBy...).String())
}

// Columns returns raw rows holding only the given fields, by name or
// alias. No fields selects every column.
func (r *Registry) Columns(ctx context.Context, name string, fields ...string) ([]map[string]any, error) {
	t, err := r.Type(name)
	if err != nil {
		return nil, err
	}
	cols := make([]string, len(fields))
	for i, f := range fields {
		fd, ok := t.Field(f)
		if !ok {
			return nil, NewUnknownFieldError(name, f)
		}
		cols[i] = fd.Name
	}
	cur, err := r.query(ctx, r.builder.Select(cols...).From(t.table).OrderBy(t.orderBy...).String())
	if err != nil {
		return nil, err
	}
	rows := make([]map[string]any, 0, cur.Len())
	for row, ok := cur.Next(); ok; row, ok = cur.Next() {
		rows = append(rows, row)
	}
	return rows, nil
}

// DeleteWhereIn deletes the records whose field equals any of values and
// returns how many were deleted. Records failing to delete are skipped.
func (r *Registry) DeleteWhereIn(ctx context.Context, name, fieldName string, values ...any) (int, error) {
	n := 0
	for _, v := range values {
		recs, err := r.FindBy(ctx, name, fieldName, v)
		if err != nil {
			return n, err
		}
		for _, rec := range recs {
			if err := rec.Delete(ctx); err != nil {
				r.logger.DebugContext(ctx, "record delete skipped", "type", name, "keys", rec.Key(), "error", err)
				continue
			}
			n++
		}
	}
	return n, nil
}

// DeleteAll deletes every given record and returns the collected errors.
func (r *Registry) DeleteAll(ctx context.Context, recs ...*Record) error {
	var errs []error
	for _, rec := range recs {
		errs = append(errs, rec.Delete(ctx))
	}
	return NewAggregateError(errs...)
}

// Truncate removes every row of the type's table. It requires
// Confirm{Confirm: true} and bypasses the delete hooks.
func (r *Registry) Truncate(ctx context.Context, name string, c Confirm) error {
	if !c.Confirm {
		return ErrTruncateNotConfirmed
	}
	t, err := r.Type(name)
	if err != nil {
		return err
	}
	if _, err := r.exec(ctx, r.builder.Truncate(t.table)); err != nil {
		return err
	}
	if r.cache != nil {
		if err := r.cache.DeletePrefix(ctx, t.cacheKey(nil).Prefix()); err != nil {
			r.logger.WarnContext(ctx, "record cache delete failed", "table", t.table, "error", err)
		}
	}
	r.logger.InfoContext(ctx, "table truncated", "type", name, "table", t.table)
	return nil
}

// AllowedValues returns the values accepted by an ENUM or BOOLEAN field.
func (r *Registry) AllowedValues(name, fieldName string) ([]string, error) {
	t, err := r.Type(name)
	if err != nil {
		return nil, err
	}
	return t.AllowedValues(fieldName)
}

// HasField reports whether the type has a field with the given name or
// alias.
func (r *Registry) HasField(name, fieldName string) (bool, error) {
	t, err := r.Type(name)
	if err != nil {
		return false, err
	}
	return t.HasField(fieldName), nil
}

// FieldNames returns the external field names of the type, or the raw
// names if unaliased is set.
func (r *Registry) FieldNames(name string, unaliased bool) ([]string, error) {
	t, err := r.Type(name)
	if err != nil {
		return nil, err
	}
	return t.FieldNames(unaliased), nil
}

func (r *Registry) records(ctx context.Context, t *Type, query string) ([]*Record, error) {
	cur, err := r.query(ctx, query)
	if err != nil {
		return nil, err
	}
	recs := make([]*Record, 0, cur.Len())
	for row, ok := cur.Next(); ok; row, ok = cur.Next() {
		rec := t.newRecord()
		if err := rec.fill(row); err != nil {
			return nil, fmt.Errorf("recordkit: %s: %w", t.name, err)
		}
		rec.isNew = false
		recs = append(recs, rec)
	}
	return recs, nil
}

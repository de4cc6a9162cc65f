package recordkit

import (
	"context"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/schema/edge"
)

// arena holds the records materialized during one link resolution, keyed
// by type and key values, so that a row reached twice yields one record.
type arena struct {
	records map[xxh3.Uint128]*Record
}

func newArena() *arena {
	return &arena{records: make(map[xxh3.Uint128]*Record)}
}

// identity hashes the type name and key values of rec. Records with a NULL
// key have no identity.
func identity(rec *Record) (xxh3.Uint128, bool) {
	var sb strings.Builder
	sb.WriteString(rec.typ.name)
	for _, k := range rec.Key() {
		if k == nil {
			return xxh3.Uint128{}, false
		}
		sb.WriteByte(0)
		sb.WriteString(stringify(k))
	}
	return xxh3.HashString128(sb.String()), true
}

func (a *arena) materialize(t *Type, row map[string]any) (*Record, error) {
	rec := t.newRecord()
	if err := rec.fill(row); err != nil {
		return nil, err
	}
	rec.isNew = false
	id, ok := identity(rec)
	if !ok {
		return rec, nil
	}
	if seen, ok := a.records[id]; ok {
		return seen, nil
	}
	a.records[id] = rec
	return rec, nil
}

// Linked resolves a link by name. The result is nil when nothing matches,
// a *Record for a single match and a []*Record for several, unless the
// link forces a collection or its post-fetch transform returns another
// shape.
func (r *Record) Linked(ctx context.Context, name string) (any, error) {
	d, ok := r.typ.links[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, NewUnknownFieldError(r.typ.name, name)
	}
	return r.resolve(ctx, d, r.typ.reg.maxRecursion, newArena())
}

func (r *Record) resolve(ctx context.Context, d *edge.Descriptor, budget int, a *arena) (any, error) {
	reg := r.typ.reg
	if budget <= 0 {
		return nil, &RecursionLimitError{Link: d.Name, Max: reg.maxRecursion}
	}
	target, err := reg.Type(d.Type)
	if err != nil {
		return nil, err
	}
	res, err := r.fetch(ctx, d, target, budget, a)
	if err != nil {
		return nil, err
	}
	if d.ForceArray {
		switch x := res.(type) {
		case nil:
			res = []*Record{}
		case *Record:
			res = []*Record{x}
		}
	}
	if d.PostFetch != nil {
		res = d.PostFetch(res)
	}
	return res, nil
}

func (r *Record) fetch(ctx context.Context, d *edge.Descriptor, target *Type, budget int, a *arena) (any, error) {
	preds := make([]*sql.Predicate, 0, len(d.Fields))
	for _, p := range d.Fields {
		fd, ok := r.typ.fields[p.Local]
		if !ok {
			return nil, NewConfigurationError(r.typ.name, fmt.Errorf("link %q: unknown local field %q", d.Name, p.Local))
		}
		if _, ok := target.fields[p.Foreign]; !ok {
			return nil, NewConfigurationError(target.name, fmt.Errorf("link %q: unknown foreign field %q", d.Name, p.Foreign))
		}
		v := r.data[p.Local]
		if v == nil {
			return nil, nil
		}
		lit, err := r.typ.scrub(fd, v)
		if err != nil {
			return nil, err
		}
		preds = append(preds, sql.EQ(p.Foreign, lit))
	}
	query := r.typ.reg.builder.Select().From(target.table).Where(sql.And(preds...)).OrderBy(d.OrderBy...).String()
	cur, err := r.typ.reg.query(ctx, query)
	if err != nil {
		return nil, err
	}
	switch cur.Len() {
	case 0:
		return nil, nil
	case 1:
		row, _ := cur.Next()
		rec, err := a.materialize(target, row)
		if err != nil {
			return nil, err
		}
		if d.Child != nil {
			return rec.resolve(ctx, d.Child, budget-1, a)
		}
		return rec, nil
	}
	out := make([]*Record, 0, cur.Len())
	for row, ok := cur.Next(); ok; row, ok = cur.Next() {
		rec, err := a.materialize(target, row)
		if err != nil {
			return nil, err
		}
		if d.Child == nil {
			out = append(out, rec)
			continue
		}
		res, err := rec.resolve(ctx, d.Child, budget-1, a)
		if err != nil {
			return nil, err
		}
		switch x := res.(type) {
		case nil:
		case *Record:
			out = append(out, x)
		case []*Record:
			out = append(out, x...)
		default:
			return nil, fmt.Errorf("recordkit: link %q: cannot merge child result of type %T", d.Name, res)
		}
	}
	if !d.AllowDuplicates {
		out = dedupe(out)
	}
	return out, nil
}

// dedupe removes repeated records, keeping the first occurrence.
func dedupe(recs []*Record) []*Record {
	seen := make(map[*Record]struct{}, len(recs))
	out := recs[:0]
	for _, rec := range recs {
		if _, ok := seen[rec]; ok {
			continue
		}
		seen[rec] = struct{}{}
		out = append(out, rec)
	}
	return out
}

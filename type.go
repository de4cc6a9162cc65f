package recordkit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-openapi/inflect"

	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/schema/edge"
	"github.com/syssam/recordkit/schema/field"
)

// Type is a built record type. It is immutable once built.
type Type struct {
	reg     *Registry
	name    string
	table   string
	keys    []string
	fields  map[string]*field.Descriptor
	order   []string
	links   map[string]*edge.Descriptor
	foreign map[string]*edge.ForeignDescriptor
	aliases map[string]string
	access  map[string]accessor
	hooks   Hooks
	orderBy []string
}

type accessorKind uint8

const (
	accessField accessorKind = iota + 1
	accessLink
	accessForeign
)

// accessor is an entry of the accessor table: what a name resolves to.
type accessor struct {
	kind    accessorKind
	field   *field.Descriptor
	link    *edge.Descriptor
	foreign *edge.ForeignDescriptor
}

func build(reg *Registry, name string, s Interface) (*Type, error) {
	t := &Type{
		reg:     reg,
		name:    name,
		fields:  make(map[string]*field.Descriptor),
		links:   make(map[string]*edge.Descriptor),
		foreign: make(map[string]*edge.ForeignDescriptor),
		aliases: make(map[string]string),
	}
	fail := func(format string, args ...any) error {
		return NewConfigurationError(name, fmt.Errorf(format, args...))
	}

	var fields []Field
	var hooks Hooks
	for _, m := range s.Mixin() {
		fields = append(fields, m.Fields()...)
		hooks = hooks.Merge(m.Hooks())
	}
	fields = append(fields, s.Fields()...)
	t.hooks = hooks.Merge(s.Hooks())
	for _, f := range fields {
		fd := f.Descriptor()
		switch {
		case fd.Err != nil:
			return nil, NewConfigurationError(name, fd.Err)
		case fd.Name == "":
			return nil, fail("field with empty name")
		case !fd.Type.Valid():
			return nil, fail("field %q has no type", fd.Name)
		}
		if _, ok := t.fields[fd.Name]; ok {
			return nil, fail("duplicate field %q", fd.Name)
		}
		t.fields[fd.Name] = fd
		t.order = append(t.order, fd.Name)
	}
	if len(t.order) == 0 {
		return nil, fail("no fields declared")
	}

	if explicit := s.Aliases(); explicit != nil {
		for alias, f := range explicit {
			if _, ok := t.fields[f]; !ok {
				return nil, fail("alias %q refers to unknown field %q", alias, f)
			}
			key := strings.ToLower(alias)
			if _, ok := t.aliases[key]; ok {
				return nil, fail("duplicate field or alias %q", key)
			}
			t.aliases[key] = f
		}
	} else {
		for _, f := range t.order {
			key := strings.ToLower(t.fields[f].ExternalName())
			if _, ok := t.aliases[key]; ok {
				return nil, fail("duplicate field or alias %q", key)
			}
			t.aliases[key] = f
		}
	}

	t.keys = s.Keys()
	if len(t.keys) == 0 {
		return nil, fail("no key fields declared")
	}
	for _, k := range t.keys {
		if _, ok := t.fields[k]; !ok {
			return nil, fail("unknown key field %q", k)
		}
	}

	for _, l := range s.Links() {
		d := l.Descriptor()
		if d.Err != nil {
			return nil, NewConfigurationError(name, d.Err)
		}
		key := strings.ToLower(strings.TrimSpace(d.Name))
		if key == "" {
			return nil, fail("link with empty name")
		}
		if _, ok := t.links[key]; ok {
			return nil, fail("duplicate link %q", d.Name)
		}
		if err := checkLink(d); err != nil {
			return nil, NewConfigurationError(name, err)
		}
		for _, p := range d.Fields {
			if _, ok := t.fields[p.Local]; !ok {
				return nil, fail("link %q: unknown local field %q", d.Name, p.Local)
			}
		}
		t.links[key] = d
	}
	for _, f := range s.ForeignFields() {
		d := f.Descriptor()
		key := strings.ToLower(strings.TrimSpace(d.Name))
		if key == "" {
			return nil, fail("foreign field with empty name")
		}
		if _, ok := t.links[strings.ToLower(d.Link)]; !ok {
			return nil, fail("foreign field %q: unknown link %q", d.Name, d.Link)
		}
		t.foreign[key] = d
	}

	t.table = s.Table()
	if t.table == "" {
		t.table = inflect.Underscore(inflect.Pluralize(name))
	}
	t.orderBy = s.OrderBy()
	for _, term := range t.orderBy {
		col, _, _ := strings.Cut(strings.TrimSpace(term), " ")
		if _, ok := t.fields[col]; !ok {
			return nil, fail("order by unknown field %q", col)
		}
	}
	t.access = t.accessors()
	return t, nil
}

// checkLink validates a link and its chained children. Local fields of
// children belong to other types and are checked on resolution.
func checkLink(d *edge.Descriptor) error {
	for c := d; c != nil; c = c.Child {
		if c.Type == "" {
			return fmt.Errorf("link %q has no target type", d.Name)
		}
		if len(c.Fields) == 0 {
			return fmt.Errorf("link %q has no link fields", d.Name)
		}
	}
	return nil
}

// accessors builds the accessor table. Later entries win, so the writes go
// from the lowest priority (foreign fields) to the highest (aliases).
func (t *Type) accessors() map[string]accessor {
	access := make(map[string]accessor, len(t.foreign)+len(t.links)+2*len(t.fields))
	for key, d := range t.foreign {
		access[key] = accessor{kind: accessForeign, foreign: d}
	}
	for key, d := range t.links {
		access[key] = accessor{kind: accessLink, link: d}
	}
	for name, fd := range t.fields {
		access[name] = accessor{kind: accessField, field: fd}
	}
	for alias, name := range t.aliases {
		access[alias] = accessor{kind: accessField, field: t.fields[name]}
	}
	return access
}

// lookup resolves a name through the accessor table: exact match first,
// then the lowercase form.
func (t *Type) lookup(name string) (accessor, bool) {
	if a, ok := t.access[name]; ok {
		return a, true
	}
	a, ok := t.access[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// lookupStripped resolves the remainder of a get/set prefixed name, also
// trying its snake_case form so that "CustomerId" finds "customer_id".
func (t *Type) lookupStripped(rest string) (accessor, bool) {
	if a, ok := t.lookup(rest); ok {
		return a, true
	}
	return t.lookup(inflect.Underscore(rest))
}

// Name returns the record type name.
func (t *Type) Name() string { return t.name }

// Table returns the table name.
func (t *Type) Table() string { return t.table }

// Keys returns the ordered key field names.
func (t *Type) Keys() []string { return append([]string(nil), t.keys...) }

// Fields returns the field descriptors in declaration order.
func (t *Type) Fields() []*field.Descriptor {
	fds := make([]*field.Descriptor, len(t.order))
	for i, name := range t.order {
		fds[i] = t.fields[name]
	}
	return fds
}

// Links returns the link names, lowercased.
func (t *Type) Links() []string {
	names := make([]string, 0, len(t.links))
	for name := range t.links {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field resolves a field by name or alias.
func (t *Type) Field(name string) (*field.Descriptor, bool) {
	if fd, ok := t.fields[name]; ok {
		return fd, true
	}
	if f, ok := t.aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t.fields[f], true
	}
	return nil, false
}

// HasField reports whether name is a field name or alias.
func (t *Type) HasField(name string) bool {
	_, ok := t.Field(name)
	return ok
}

// FieldNames returns the external names of the fields in declaration
// order, or the raw field names if unaliased is set.
func (t *Type) FieldNames(unaliased bool) []string {
	names := make([]string, len(t.order))
	for i, name := range t.order {
		if unaliased {
			names[i] = name
		} else {
			names[i] = t.fields[name].ExternalName()
		}
	}
	return names
}

// AllowedValues returns the values a restricted field accepts: the values
// of an ENUM, or "0" and "1" for a BOOLEAN.
func (t *Type) AllowedValues(name string) ([]string, error) {
	fd, ok := t.Field(name)
	if !ok {
		return nil, NewUnknownFieldError(t.name, name)
	}
	switch fd.Type {
	case field.TypeEnum:
		return append([]string(nil), fd.Values...), nil
	case field.TypeBool:
		return []string{"0", "1"}, nil
	}
	return nil, fmt.Errorf("%w: allowed values are only defined for ENUM and BOOLEAN fields, %q is %s", ErrInvalidCall, name, fd.Type)
}

// Scrub converts v into a SQL literal for the named field.
func (t *Type) Scrub(name string, v any) (sql.Value, error) {
	fd, ok := t.Field(name)
	if !ok {
		return sql.Value{}, NewUnknownFieldError(t.name, name)
	}
	return t.scrub(fd, v)
}

func (t *Type) newRecord() *Record {
	r := &Record{typ: t, data: make(map[string]any, len(t.fields))}
	r.Reset()
	return r
}

// defaultValue returns the default of fd in its canonical form.
func (t *Type) defaultValue(fd *field.Descriptor) any {
	v := fd.DefaultValue()
	if v == nil {
		return nil
	}
	c, err := t.canonical(fd, v)
	if err != nil {
		return v
	}
	return c
}

// keyPredicate returns the WHERE predicate matching the given key values,
// and the rendered literals used as cache key.
func (t *Type) keyPredicate(keys []any) (*sql.Predicate, []any, error) {
	if len(keys) != len(t.keys) {
		return nil, nil, fmt.Errorf("%w: %s expects %d key value(s) (%s), received %d",
			ErrInvalidCall, t.name, len(t.keys), strings.Join(t.keys, ", "), len(keys))
	}
	preds := make([]*sql.Predicate, len(keys))
	lits := make([]any, len(keys))
	for i, k := range t.keys {
		lit, err := t.scrub(t.fields[k], keys[i])
		if err != nil {
			return nil, nil, err
		}
		preds[i] = sql.EQ(k, lit)
		lits[i] = lit.String()
	}
	return sql.And(preds...), lits, nil
}

func (t *Type) cacheKey(lits []any) CacheKey {
	return CacheKey{Table: t.table, Operation: "load", Keys: lits}
}

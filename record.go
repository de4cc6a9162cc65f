package recordkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/syssam/recordkit/schema/edge"
	"github.com/syssam/recordkit/schema/field"
)

// Record is one row of a record type: a field name to value map plus a
// flag telling whether it has been persisted. A Record is not safe for
// concurrent use.
type Record struct {
	typ   *Type
	data  map[string]any
	isNew bool
}

var _ field.Values = (*Record)(nil)

// Type returns the record type.
func (r *Record) Type() *Type { return r.typ }

// IsNew reports whether the record has not been persisted yet.
func (r *Record) IsNew() bool { return r.isNew }

// SetNew marks the record as new or persisted.
func (r *Record) SetNew(isNew bool) { r.isNew = isNew }

// Reset sets every field to its default and marks the record new.
func (r *Record) Reset() {
	for name, fd := range r.typ.fields {
		r.data[name] = r.typ.defaultValue(fd)
	}
	r.isNew = true
}

// ResetField sets one field, by name or alias, to its default.
func (r *Record) ResetField(name string) error {
	fd, ok := r.typ.Field(name)
	if !ok {
		return NewUnknownFieldError(r.typ.name, name)
	}
	r.data[fd.Name] = r.typ.defaultValue(fd)
	return nil
}

// Clone returns a new record with the values of r and default keys.
func (r *Record) Clone() *Record {
	c := &Record{typ: r.typ, data: make(map[string]any, len(r.data)), isNew: true}
	for k, v := range r.data {
		c.data[k] = v
	}
	for _, k := range r.typ.keys {
		c.data[k] = r.typ.defaultValue(r.typ.fields[k])
	}
	return c
}

// Value returns the stored value of a field by raw name, bypassing
// handlers and links.
func (r *Record) Value(name string) any {
	return r.data[name]
}

// SetValue stores a value by raw field name, bypassing every check.
func (r *Record) SetValue(name string, v any) {
	if _, ok := r.typ.fields[name]; ok {
		r.data[name] = v
	}
}

// Key returns the current values of the key fields.
func (r *Record) Key() []any {
	keys := make([]any, len(r.typ.keys))
	for i, k := range r.typ.keys {
		keys[i] = r.data[k]
	}
	return keys
}

func cutPrefix(name, prefix string) (string, bool) {
	if len(name) > len(prefix) && strings.EqualFold(name[:len(prefix)], prefix) {
		return name[len(prefix):], true
	}
	return "", false
}

// Get returns the value of a field, link or foreign field. Names resolve
// through aliases, raw field names, links and foreign fields in that order,
// case-insensitively; a "get" prefix is accepted.
func (r *Record) Get(ctx context.Context, name string) (any, error) {
	a, ok := r.typ.lookup(name)
	if !ok {
		if rest, found := cutPrefix(name, "get"); found {
			a, ok = r.typ.lookupStripped(rest)
		}
		if !ok {
			return nil, NewUnknownFieldError(r.typ.name, name)
		}
	}
	return r.get(ctx, a)
}

func (r *Record) get(ctx context.Context, a accessor) (any, error) {
	switch a.kind {
	case accessLink:
		return r.Linked(ctx, a.link.Name)
	case accessForeign:
		return r.foreignValue(ctx, a.foreign)
	}
	if a.field.GetHandler != nil {
		return a.field.GetHandler.Get(ctx, r)
	}
	return r.data[a.field.Name], nil
}

// Set assigns a field or a link. A "set" prefix is accepted. A rejected
// value returns a ValidationError and leaves the record unchanged.
func (r *Record) Set(ctx context.Context, name string, v any) error {
	a, ok := r.typ.lookup(name)
	if !ok {
		if rest, found := cutPrefix(name, "set"); found {
			a, ok = r.typ.lookupStripped(rest)
		}
		if !ok {
			return NewUnknownFieldError(r.typ.name, name)
		}
	}
	return r.set(ctx, a, v)
}

func (r *Record) set(ctx context.Context, a accessor, v any) error {
	switch a.kind {
	case accessLink:
		return r.setLink(ctx, a.link, v)
	case accessForeign:
		return fmt.Errorf("%w: foreign field %q is read-only", ErrInvalidCall, a.foreign.Name)
	}
	return r.setField(ctx, a.field, v)
}

// Call dispatches a dynamic accessor: a known name with no argument reads
// it and with one argument assigns it; "getX" and "setX" read and assign X.
func (r *Record) Call(ctx context.Context, name string, args ...any) (any, error) {
	if a, ok := r.typ.lookup(name); ok {
		switch len(args) {
		case 0:
			return r.get(ctx, a)
		case 1:
			return nil, r.set(ctx, a, args[0])
		}
		return nil, fmt.Errorf("%w: %s expects at most one argument, received %d", ErrInvalidCall, name, len(args))
	}
	if rest, found := cutPrefix(name, "get"); found {
		if a, ok := r.typ.lookupStripped(rest); ok {
			if len(args) != 0 {
				return nil, fmt.Errorf("%w: %s expects no arguments, received %d", ErrInvalidCall, name, len(args))
			}
			return r.get(ctx, a)
		}
	}
	if rest, found := cutPrefix(name, "set"); found {
		if a, ok := r.typ.lookupStripped(rest); ok {
			if len(args) != 1 {
				return nil, fmt.Errorf("%w: %s expects a single value, received %d", ErrInvalidCall, name, len(args))
			}
			return nil, r.set(ctx, a, args[0])
		}
	}
	return nil, NewUnknownFieldError(r.typ.name, name)
}

// setField runs the assignment pipeline of a field: custom validator,
// custom scrubber, custom set handler, then the built-in type checks.
func (r *Record) setField(ctx context.Context, fd *field.Descriptor, v any) error {
	if fd.Validator != nil {
		if err := fd.Validator.Validate(ctx, r, v); err != nil {
			return NewValidationError(fd.Name, err)
		}
	}
	if fd.Scrubber != nil {
		sv, err := fd.Scrubber.Scrub(ctx, r, v)
		if err != nil {
			return NewValidationError(fd.Name, err)
		}
		v = sv
	}
	if fd.SetHandler != nil {
		return fd.SetHandler.Set(ctx, r, v)
	}
	if v == nil {
		if fd.NotNull {
			return NewValidationError(fd.Name, errNotNull)
		}
		r.data[fd.Name] = nil
		return nil
	}
	val, err := r.typ.coerce(fd, v)
	if err != nil {
		return NewValidationError(fd.Name, err)
	}
	r.data[fd.Name] = val
	return nil
}

// setLink copies the foreign values of rel into the local link fields.
func (r *Record) setLink(ctx context.Context, d *edge.Descriptor, v any) error {
	rel, ok := v.(*Record)
	if !ok || rel == nil {
		return NewValidationError(d.Name, fmt.Errorf("expecting record of type %q, received %T", d.Type, v))
	}
	if rel.typ.name != d.Type {
		return NewValidationError(d.Name, fmt.Errorf("expecting record of type %q, received %q", d.Type, rel.typ.name))
	}
	vals := make(map[string]any, len(d.Fields))
	for _, p := range d.Fields {
		val, err := rel.Get(ctx, p.Foreign)
		if err != nil {
			return err
		}
		vals[p.Local] = val
	}
	for k, val := range vals {
		r.data[k] = val
	}
	return nil
}

// foreignValue reads a field through a link. A collection maps to a slice
// of values.
func (r *Record) foreignValue(ctx context.Context, ff *edge.ForeignDescriptor) (any, error) {
	res, err := r.Linked(ctx, ff.Link)
	if err != nil {
		return nil, err
	}
	switch x := res.(type) {
	case nil:
		return nil, nil
	case *Record:
		return x.Get(ctx, ff.Field)
	case []*Record:
		vals := make([]any, 0, len(x))
		for _, rec := range x {
			v, err := rec.Get(ctx, ff.Field)
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
		}
		return vals, nil
	}
	return res, nil
}

type setDataOptions struct {
	noAlias      bool
	ignoreErrors bool
}

// SetDataOption configures SetData.
type SetDataOption func(*setDataOptions)

// NoAlias makes SetData match keys against raw field names only.
func NoAlias() SetDataOption {
	return func(o *setDataOptions) { o.noAlias = true }
}

// IgnoreErrors makes SetData skip rejected values instead of failing.
func IgnoreErrors() SetDataOption {
	return func(o *setDataOptions) { o.ignoreErrors = true }
}

// SetData assigns many fields at once, in declaration order. Keys are
// aliases unless NoAlias is given. JSON fields accept their encoded text.
func (r *Record) SetData(ctx context.Context, data map[string]any, opts ...SetDataOption) error {
	var o setDataOptions
	for _, opt := range opts {
		opt(&o)
	}
	type assignment struct {
		pos int
		fd  *field.Descriptor
		v   any
	}
	pos := make(map[string]int, len(r.typ.order))
	for i, name := range r.typ.order {
		pos[name] = i
	}
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	list := make([]assignment, 0, len(data))
	for _, k := range keys {
		var fd *field.Descriptor
		if o.noAlias {
			fd = r.typ.fields[k]
		} else if name, ok := r.typ.aliases[strings.ToLower(strings.TrimSpace(k))]; ok {
			fd = r.typ.fields[name]
		}
		if fd == nil {
			if o.ignoreErrors {
				continue
			}
			return NewUnknownFieldError(r.typ.name, k)
		}
		list = append(list, assignment{pos: pos[fd.Name], fd: fd, v: data[k]})
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].pos < list[j].pos })
	for _, a := range list {
		v := a.v
		if a.fd.Type == field.TypeJSON {
			if s, ok := v.(string); ok {
				var dec any
				if err := json.Unmarshal([]byte(s), &dec); err != nil {
					if o.ignoreErrors {
						continue
					}
					return NewValidationError(a.fd.Name, err)
				}
				v = dec
			}
		}
		if err := r.setField(ctx, a.fd, v); err != nil && !o.ignoreErrors {
			return err
		}
	}
	return nil
}

// Data returns the stored values keyed by external name, or by raw field
// name if noAlias is set.
func (r *Record) Data(noAlias bool) map[string]any {
	out := make(map[string]any, len(r.data))
	for _, name := range r.typ.order {
		key := name
		if !noAlias {
			key = r.typ.fields[name].ExternalName()
		}
		out[key] = r.data[name]
	}
	return out
}

// Alias returns the external name of a field.
func (r *Record) Alias(name string) (string, error) {
	fd, ok := r.typ.Field(name)
	if !ok {
		return "", NewUnknownFieldError(r.typ.name, name)
	}
	return fd.ExternalName(), nil
}

// FieldState describes one field of a record.
type FieldState struct {
	Name       string
	Alias      string
	Type       string
	Value      any
	Descriptor *field.Descriptor
}

// Describe returns the state of every field, in declaration order.
func (r *Record) Describe() []FieldState {
	states := make([]FieldState, len(r.typ.order))
	for i, name := range r.typ.order {
		fd := r.typ.fields[name]
		states[i] = FieldState{
			Name:       name,
			Alias:      fd.ExternalName(),
			Type:       fd.Type.String(),
			Value:      r.data[name],
			Descriptor: fd,
		}
	}
	return states
}

// String returns the JSON encoding of the values keyed by raw field name.
func (r *Record) String() string {
	b, err := json.Marshal(r.Data(true))
	if err != nil {
		return fmt.Sprintf("%s%v", r.typ.name, r.Data(true))
	}
	return string(b)
}

// fill stores the values of a row read from the store.
func (r *Record) fill(row map[string]any) error {
	for _, name := range r.typ.order {
		raw, ok := row[name]
		if !ok {
			continue
		}
		v, err := r.typ.decode(r.typ.fields[name], raw)
		if err != nil {
			return err
		}
		r.data[name] = v
	}
	return nil
}

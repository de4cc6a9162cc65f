// Package dataloader batches record lookups by field value.
//
// A Loader fetches the records of one type matching many values of one
// field with a single query, and keeps them until cleared:
//
//	customers := dataloader.New(reg, "Customer", "id")
//	recs, errs := customers.LoadMany(ctx, 5, 7, 9)
//
// Loaders are usually created per request and carried in the context:
//
//	ctx = dataloader.WithLoaders(ctx, &Loaders{Customer: customers})
//	loaders := dataloader.For[*Loaders](ctx)
package dataloader

import (
	"context"
	"sync"

	"github.com/syssam/recordkit"
)

// ErrNotFound is returned for keys without a matching record.
var ErrNotFound = recordkit.ErrNotFound

// KeyFunc extracts a key from a value.
type KeyFunc[K comparable, V any] func(V) K

// OrderByKeys reorders values to match keys. Missing keys get a zero value
// and ErrNotFound.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = ErrNotFound
		}
	}
	return result, errs
}

// GroupByKey groups values by key.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}

// OrderGroupsByKeys returns the group of every key, in key order.
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	result := make([][]V, len(keys))
	for i, key := range keys {
		result[i] = groups[key]
	}
	return result
}

// Loader loads the records of one type by one field. It is safe for
// concurrent use; the records it returns are shared and are not.
type Loader struct {
	reg   *recordkit.Registry
	typ   string
	field string

	mu    sync.Mutex
	cache map[string]*recordkit.Record
}

// New returns a loader of records of type typ matched on field, by name or
// alias.
func New(reg *recordkit.Registry, typ, field string) *Loader {
	return &Loader{reg: reg, typ: typ, field: field, cache: make(map[string]*recordkit.Record)}
}

// key returns the literal a value is written as, so that 5, "5" and
// int64(5) share one key.
func (l *Loader) key(v any) (string, error) {
	t, err := l.reg.Type(l.typ)
	if err != nil {
		return "", err
	}
	lit, err := t.Scrub(l.field, v)
	if err != nil {
		return "", err
	}
	return lit.String(), nil
}

func (l *Loader) keys(values []any) ([]string, error) {
	keys := make([]string, len(values))
	for i, v := range values {
		k, err := l.key(v)
		if err != nil {
			return nil, err
		}
		keys[i] = k
	}
	return keys, nil
}

func (l *Loader) recordKey(rec *recordkit.Record) string {
	t := rec.Type()
	fd, ok := t.Field(l.field)
	if !ok {
		return ""
	}
	lit, err := t.Scrub(fd.Name, rec.Value(fd.Name))
	if err != nil {
		return ""
	}
	return lit.String()
}

// Load returns the record matching value.
func (l *Loader) Load(ctx context.Context, value any) (*recordkit.Record, error) {
	recs, errs := l.LoadMany(ctx, value)
	return recs[0], errs[0]
}

// LoadMany returns the records matching values, in order, with one query
// for the values not loaded yet. A value without a match gets a nil record
// and ErrNotFound. When several records match a value, the last one wins.
func (l *Loader) LoadMany(ctx context.Context, values ...any) ([]*recordkit.Record, []error) {
	fail := func(err error) ([]*recordkit.Record, []error) {
		errs := make([]error, len(values))
		for i := range errs {
			errs[i] = err
		}
		return make([]*recordkit.Record, len(values)), errs
	}
	keys, err := l.keys(values)
	if err != nil {
		return fail(err)
	}
	var missing []any
	l.mu.Lock()
	for i, k := range keys {
		if _, ok := l.cache[k]; !ok {
			missing = append(missing, values[i])
		}
	}
	l.mu.Unlock()
	if len(missing) > 0 {
		recs, err := l.reg.FindIn(ctx, l.typ, l.field, missing...)
		if err != nil {
			return fail(err)
		}
		l.Prime(recs...)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	recs := make([]*recordkit.Record, 0, len(keys))
	for _, k := range keys {
		if rec, ok := l.cache[k]; ok {
			recs = append(recs, rec)
		}
	}
	return OrderByKeys(keys, recs, l.recordKey)
}

// GroupMany returns every record matching each value, in value order, with
// one query. Groups are not cached.
func (l *Loader) GroupMany(ctx context.Context, values ...any) ([][]*recordkit.Record, error) {
	keys, err := l.keys(values)
	if err != nil {
		return nil, err
	}
	recs, err := l.reg.FindIn(ctx, l.typ, l.field, values...)
	if err != nil {
		return nil, err
	}
	return OrderGroupsByKeys(keys, GroupByKey(recs, l.recordKey)), nil
}

// Prime stores records in the loader.
func (l *Loader) Prime(recs ...*recordkit.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range recs {
		l.cache[l.recordKey(rec)] = rec
	}
}

// Clear drops the records matching values from the loader.
func (l *Loader) Clear(values ...any) {
	keys, err := l.keys(values)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, k := range keys {
		delete(l.cache, k)
	}
}

type ctxKey struct{}

// WithLoaders returns a context carrying loaders.
func WithLoaders[T any](ctx context.Context, loaders T) context.Context {
	return context.WithValue(ctx, ctxKey{}, loaders)
}

// For returns the loaders carried by ctx, or the zero value.
func For[T any](ctx context.Context) T {
	v, _ := ctx.Value(ctxKey{}).(T)
	return v
}

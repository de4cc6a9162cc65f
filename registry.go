package recordkit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
)

// Registry holds the record types of an application and the driver used
// to persist them. Types are built lazily on first use, exactly once.
type Registry struct {
	drv          dialect.Driver
	dialect      string
	esc          sql.Escaper
	builder      *sql.Builder
	maxRecursion int
	logger       *slog.Logger
	loc          *time.Location
	cache        Cache
	cacheTTL     time.Duration

	mu    sync.RWMutex
	decls map[string]Interface
	types map[string]*Type
	errs  map[string]error
	group singleflight.Group
}

// NewRegistry returns a Registry persisting records through drv.
func NewRegistry(drv dialect.Driver, opts ...Option) *Registry {
	r := &Registry{
		drv:          drv,
		maxRecursion: DefaultMaxRecursion,
		logger:       slog.Default(),
		loc:          time.Local,
		decls:        make(map[string]Interface),
		types:        make(map[string]*Type),
		errs:         make(map[string]error),
	}
	if drv != nil {
		r.dialect = drv.Dialect()
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.dialect == "" {
		r.dialect = dialect.MySQL
	}
	r.esc = sql.EscaperFor(r.dialect)
	r.builder = sql.Dialect(r.dialect)
	return r
}

// Register adds record type declarations. A type is named after its Go
// type, or by its Name method if it implements Namer.
func (r *Registry) Register(schemas ...Interface) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range schemas {
		name := typeName(s)
		if name == "" {
			return NewConfigurationError(fmt.Sprintf("%T", s), errors.New("record type has no name"))
		}
		if _, ok := r.decls[name]; ok {
			return NewConfigurationError(name, errors.New("record type already registered"))
		}
		r.decls[name] = s
	}
	return nil
}

func typeName(s Interface) string {
	if n, ok := s.(Namer); ok {
		return n.Name()
	}
	t := reflect.TypeOf(s)
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// Type returns the built record type with the given name. The first call
// for a name builds the type; concurrent first calls share one build, and
// a failed build is returned to every later caller.
func (r *Registry) Type(name string) (*Type, error) {
	r.mu.RLock()
	t, ok := r.types[name]
	err := r.errs[name]
	r.mu.RUnlock()
	switch {
	case ok:
		return t, nil
	case err != nil:
		return nil, err
	}
	v, err, _ := r.group.Do(name, func() (any, error) {
		r.mu.RLock()
		if t, ok := r.types[name]; ok {
			r.mu.RUnlock()
			return t, nil
		}
		decl, ok := r.decls[name]
		r.mu.RUnlock()
		if !ok {
			return nil, NewConfigurationError(name, errors.New("record type is not registered"))
		}
		t, err := build(r, name, decl)
		r.mu.Lock()
		if err != nil {
			r.errs[name] = err
		} else {
			r.types[name] = t
		}
		r.mu.Unlock()
		if err != nil {
			return nil, err
		}
		r.logger.Debug("record type built", "type", name, "table", t.table, "fields", len(t.order))
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Type), nil
}

// Types returns the names of the registered record types, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.decls))
	for name := range r.decls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Driver returns the driver of the registry.
func (r *Registry) Driver() dialect.Driver {
	return r.drv
}

// Dialect returns the dialect used to render statements.
func (r *Registry) Dialect() string {
	return r.dialect
}

// New returns a new record of the named type with default values. The
// OnNew hook of the type runs before it is returned.
func (r *Registry) New(ctx context.Context, name string) (*Record, error) {
	t, err := r.Type(name)
	if err != nil {
		return nil, err
	}
	rec := t.newRecord()
	if err := run(ctx, t.hooks.OnNew, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Load returns the record of the named type with the given key values.
func (r *Registry) Load(ctx context.Context, name string, keys ...any) (*Record, error) {
	t, err := r.Type(name)
	if err != nil {
		return nil, err
	}
	rec := t.newRecord()
	if err := rec.Load(ctx, keys...); err != nil {
		return nil, err
	}
	return rec, nil
}

// query runs a statement returning rows and buffers the result.
func (r *Registry) query(ctx context.Context, query string) (*sql.Cursor, error) {
	cur, err := sql.QueryCursor(ctx, r.drv, query)
	if err != nil {
		return nil, NewQueryExecutionError(query, err)
	}
	return cur, nil
}

// exec runs a statement that returns no rows.
func (r *Registry) exec(ctx context.Context, query string) (sql.Result, error) {
	var res sql.Result
	if err := r.drv.Exec(ctx, query, []any{}, &res); err != nil {
		return nil, NewQueryExecutionError(query, err)
	}
	return res, nil
}

// loadRow returns the first row of query, consulting the cache when one is
// configured. A nil row means no match.
func (r *Registry) loadRow(ctx context.Context, query string, key CacheKey) (map[string]any, error) {
	if r.cache != nil {
		b, err := r.cache.Get(ctx, key.String())
		switch {
		case err != nil:
			r.logger.WarnContext(ctx, "record cache get failed", "key", key.String(), "error", err)
		case b != nil:
			row, err := decodeRow(b)
			if err == nil {
				return row, nil
			}
			r.logger.WarnContext(ctx, "record cache entry invalid", "key", key.String(), "error", err)
		}
	}
	cur, err := r.query(ctx, query)
	if err != nil {
		return nil, err
	}
	row, ok := cur.Next()
	if !ok {
		return nil, nil
	}
	if r.cache != nil {
		b, err := encodeRow(row)
		if err == nil {
			err = r.cache.Set(ctx, key.String(), b, r.cacheTTL)
		}
		if err != nil {
			r.logger.WarnContext(ctx, "record cache set failed", "key", key.String(), "error", err)
		}
	}
	return row, nil
}

func (r *Registry) invalidate(ctx context.Context, key CacheKey) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Delete(ctx, key.String()); err != nil {
		r.logger.WarnContext(ctx, "record cache delete failed", "key", key.String(), "error", err)
	}
}

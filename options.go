package recordkit

import (
	"log/slog"
	"time"
)

// DefaultMaxRecursion is the default link recursion budget.
const DefaultMaxRecursion = 10

// Option configures a Registry.
type Option func(*Registry)

// WithDialect overrides the dialect reported by the driver. It selects the
// escaping rules of string literals.
func WithDialect(name string) Option {
	return func(r *Registry) {
		r.dialect = name
	}
}

// WithMaxRecursion sets the link recursion budget. Default is 10.
func WithMaxRecursion(n int) Option {
	return func(r *Registry) {
		r.maxRecursion = n
	}
}

// WithLogger sets the logger. Default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithLocation sets the time zone used to parse and render TIMESTAMP and
// DATETIME values. Default is time.Local.
func WithLocation(loc *time.Location) Option {
	return func(r *Registry) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithCache enables caching of rows read by Load. Entries expire after ttl;
// zero means no expiry.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(r *Registry) {
		r.cache = c
		r.cacheTTL = ttl
	}
}

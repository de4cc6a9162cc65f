// Package mixin provides common mixin implementations for record types.
//
// These mixins are optional starting points:
//   - UUIDKey: adds a UUID "id" key generated on reset
//   - SoftDelete: adds "deleted_at" and turns Delete into an update
//   - TenantID: adds "tenant_id" filled from the context on save
//   - TimeSoftDelete: combines the Time and SoftDelete mixins
//
// Usage:
//
//	func (Order) Mixin() []recordkit.Mixin {
//	    return []recordkit.Mixin{
//	        mixin.UUIDKey{},
//	        mixin.SoftDelete{},
//	    }
//	}
package mixin

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/schema/field"
	"github.com/syssam/recordkit/schema/mixin"
)

// UUIDKey adds a UUID key named "id" with a random default.
//
// Generated field:
//
//	id UUID NOT NULL
type UUIDKey struct{ mixin.Schema }

// Fields of the UUIDKey mixin.
func (UUIDKey) Fields() []recordkit.Field {
	return []recordkit.Field{
		field.UUID("id").
			DefaultFunc(func() any { return uuid.NewString() }).
			NotNull(),
	}
}

// SoftDelete adds a nullable "deleted_at" DATETIME. Deleting a persisted
// record stamps the field and saves the record instead of removing the row.
//
// Generated field:
//
//	deleted_at DATETIME NULL
type SoftDelete struct{ mixin.Schema }

// Fields of the SoftDelete mixin.
func (SoftDelete) Fields() []recordkit.Field {
	return []recordkit.Field{
		field.Datetime("deleted_at"),
	}
}

// Hooks of the SoftDelete mixin.
func (SoftDelete) Hooks() recordkit.Hooks {
	return recordkit.Hooks{
		PreDelete: func(ctx context.Context, r *recordkit.Record) error {
			if r.IsNew() || SkipSoftDelete(ctx) {
				return nil
			}
			if err := r.Set(ctx, "deleted_at", time.Now()); err != nil {
				return err
			}
			if err := r.Save(ctx); err != nil {
				return err
			}
			return recordkit.ErrAbort
		},
	}
}

type softDeleteKey struct{}

// WithSkipSoftDelete returns a context in which Delete removes rows of
// soft-deleting record types for real.
func WithSkipSoftDelete(ctx context.Context) context.Context {
	return context.WithValue(ctx, softDeleteKey{}, true)
}

// SkipSoftDelete reports whether soft deletion is disabled in ctx.
func SkipSoftDelete(ctx context.Context) bool {
	skip, _ := ctx.Value(softDeleteKey{}).(bool)
	return skip
}

// ErrNoTenant is returned when a tenant-scoped record is saved without a
// tenant in the context or on the record.
var ErrNoTenant = errors.New("mixin: no tenant in context")

type tenantKey struct{}

// WithTenant returns a context carrying the tenant id.
func WithTenant(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, tenantKey{}, id)
}

// Tenant returns the tenant id carried by ctx.
func Tenant(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(tenantKey{}).(string)
	return id, ok && id != ""
}

// TenantID adds a "tenant_id" VARCHAR(64) filled from the context when a
// record is saved without one.
//
// Generated field:
//
//	tenant_id VARCHAR(64) NOT NULL
type TenantID struct{ mixin.Schema }

// Fields of the TenantID mixin.
func (TenantID) Fields() []recordkit.Field {
	return []recordkit.Field{
		field.Varchar("tenant_id", 64).NotNull().Default(""),
	}
}

// Hooks of the TenantID mixin.
func (TenantID) Hooks() recordkit.Hooks {
	return recordkit.Hooks{
		PreSave: func(ctx context.Context, r *recordkit.Record) error {
			if v, _ := r.Value("tenant_id").(string); v != "" {
				return nil
			}
			id, ok := Tenant(ctx)
			if !ok {
				return ErrNoTenant
			}
			return r.Set(ctx, "tenant_id", id)
		},
	}
}

// TimeSoftDelete combines the Time and SoftDelete mixins.
type TimeSoftDelete struct{ mixin.Schema }

// Fields of the TimeSoftDelete mixin.
func (TimeSoftDelete) Fields() []recordkit.Field {
	return append(mixin.Time{}.Fields(), SoftDelete{}.Fields()...)
}

// Hooks of the TimeSoftDelete mixin.
func (TimeSoftDelete) Hooks() recordkit.Hooks {
	return mixin.Time{}.Hooks().Merge(SoftDelete{}.Hooks())
}

var (
	_ recordkit.Mixin = (*UUIDKey)(nil)
	_ recordkit.Mixin = (*SoftDelete)(nil)
	_ recordkit.Mixin = (*TenantID)(nil)
	_ recordkit.Mixin = (*TimeSoftDelete)(nil)
)

package privacy

import (
	"context"
	"fmt"
	"slices"

	"github.com/syssam/recordkit"
)

// Viewer is the authenticated caller of a request.
type Viewer interface {
	// GetID returns the viewer identifier.
	GetID() string
	// GetRoles returns the viewer roles.
	GetRoles() []string
	// GetTenantID returns the viewer tenant, or an empty string.
	GetTenantID() string
}

type viewerCtxKey struct{}

// WithViewer returns a context carrying viewer.
func WithViewer(ctx context.Context, viewer Viewer) context.Context {
	return context.WithValue(ctx, viewerCtxKey{}, viewer)
}

// ViewerFromContext returns the viewer carried by ctx, or nil.
func ViewerFromContext(ctx context.Context) Viewer {
	v, _ := ctx.Value(viewerCtxKey{}).(Viewer)
	return v
}

// SimpleViewer is a plain Viewer.
type SimpleViewer struct {
	UserID   string
	Roles    []string
	TenantID string
}

// GetID returns the user ID.
func (v *SimpleViewer) GetID() string { return v.UserID }

// GetRoles returns the user roles.
func (v *SimpleViewer) GetRoles() []string { return v.Roles }

// GetTenantID returns the tenant ID.
func (v *SimpleViewer) GetTenantID() string { return v.TenantID }

// DenyIfNoViewer returns a rule denying writes without a viewer.
func DenyIfNoViewer() Rule {
	return ContextRule(func(ctx context.Context) error {
		if ViewerFromContext(ctx) == nil {
			return Denyf("recordkit/privacy: viewer required")
		}
		return Skip
	})
}

// HasRole returns a rule allowing viewers having role.
func HasRole(role string) Rule {
	return HasAnyRole(role)
}

// HasAnyRole returns a rule allowing viewers having any of roles.
func HasAnyRole(roles ...string) Rule {
	return ContextRule(func(ctx context.Context) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		for _, role := range roles {
			if slices.Contains(viewer.GetRoles(), role) {
				return Allow
			}
		}
		return Skip
	})
}

// fieldString reads a field of rec as text. ok is false for an unknown
// field or a NULL value.
func fieldString(ctx context.Context, rec *recordkit.Record, field string) (string, bool) {
	v, err := rec.Get(ctx, field)
	if err != nil || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprint(v), true
}

// IsOwner returns a rule allowing writes of records whose field holds the
// viewer ID.
func IsOwner(field string) Rule {
	return RuleFunc(func(ctx context.Context, _ Op, rec *recordkit.Record) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil {
			return Skip
		}
		if id, ok := fieldString(ctx, rec, field); ok && id == viewer.GetID() {
			return Allow
		}
		return Skip
	})
}

// TenantRule returns a rule denying writes of records whose field holds
// another tenant than the viewer's. Matching records are allowed.
func TenantRule(field string) Rule {
	return RuleFunc(func(ctx context.Context, _ Op, rec *recordkit.Record) error {
		viewer := ViewerFromContext(ctx)
		if viewer == nil || viewer.GetTenantID() == "" {
			return Skip
		}
		tenant, ok := fieldString(ctx, rec, field)
		if !ok {
			return Skip
		}
		if tenant == viewer.GetTenantID() {
			return Allow
		}
		return Denyf("recordkit/privacy: tenant mismatch")
	})
}

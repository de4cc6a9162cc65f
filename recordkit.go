// Package recordkit maps rows of relational tables to named-field records.
//
// A record type is declared once as a schema and registered on a Registry.
// Records are then read and written by field name or alias, and persisted
// with generated SQL:
//
//	type Order struct{ recordkit.Schema }
//
//	func (Order) Keys() []string { return []string{"id"} }
//
//	func (Order) Fields() []recordkit.Field {
//	    return []recordkit.Field{
//	        field.Int("id").Auto(),
//	        field.Int("customer_id").Alias("CustomerID"),
//	        field.Decimal("total", 8, 2),
//	        field.Enum("status", "open", "closed"),
//	    }
//	}
//
//	reg := recordkit.NewRegistry(drv)
//	reg.Register(Order{})
//	o, _ := reg.New(ctx, "Order")
//	o.Set(ctx, "customerid", 5)
//	o.Save(ctx)
package recordkit

import (
	"context"

	"github.com/syssam/recordkit/schema/edge"
	"github.com/syssam/recordkit/schema/field"
)

type (
	// Interface is the interface for declaring record types. Embed Schema
	// to get nil defaults and override the methods you need.
	Interface interface {
		// Table returns the table name. An empty name is derived from the
		// type name.
		Table() string
		// Keys returns the ordered key field names.
		Keys() []string
		// Fields returns the fields of the record type.
		Fields() []Field
		// Links returns the links to other record types.
		Links() []Link
		// ForeignFields returns fields projected through links.
		ForeignFields() []ForeignField
		// Aliases returns an explicit alias map (lowercase external name to
		// field name). Nil means the map is computed from the fields.
		Aliases() map[string]string
		// Hooks returns the lifecycle hooks.
		Hooks() Hooks
		// OrderBy returns the default ordering of finder results.
		OrderBy() []string
		// Mixin returns reusable field sets merged before Fields.
		Mixin() []Mixin
	}

	// A Field interface returns a field descriptor. Implemented by the
	// field builders.
	Field interface {
		Descriptor() *field.Descriptor
	}

	// A Link interface returns a link descriptor. Implemented by edge.To.
	Link interface {
		Descriptor() *edge.Descriptor
	}

	// A ForeignField interface returns a foreign field descriptor.
	// Implemented by edge.Foreign.
	ForeignField interface {
		Descriptor() *edge.ForeignDescriptor
	}

	// Mixin is a reusable set of fields and hooks.
	Mixin interface {
		Fields() []Field
		Hooks() Hooks
	}

	// Namer is implemented by schemas whose type name is not their Go type
	// name, such as definitions loaded from files.
	Namer interface {
		Name() string
	}
)

// Schema is the default implementation of Interface. It is embedded in
// record type declarations.
type Schema struct{}

// Table returns an empty name, meaning the name is derived.
func (Schema) Table() string { return "" }

// Keys of the schema.
func (Schema) Keys() []string { return nil }

// Fields of the schema.
func (Schema) Fields() []Field { return nil }

// Links of the schema.
func (Schema) Links() []Link { return nil }

// ForeignFields of the schema.
func (Schema) ForeignFields() []ForeignField { return nil }

// Aliases of the schema.
func (Schema) Aliases() map[string]string { return nil }

// Hooks of the schema.
func (Schema) Hooks() Hooks { return Hooks{} }

// OrderBy of the schema.
func (Schema) OrderBy() []string { return nil }

// Mixin of the schema.
func (Schema) Mixin() []Mixin { return nil }

// Type is used as a method expression to reference a record type in links:
//
//	edge.To("items", OrderItem.Type)
func (Schema) Type() {}

var _ Interface = (*Schema)(nil)

// Hook is a lifecycle callback.
type Hook func(ctx context.Context, r *Record) error

// Hooks holds the optional lifecycle callbacks of a record type. A nil slot
// is skipped.
type Hooks struct {
	PreSave    Hook
	PreCreate  Hook
	PostCreate Hook
	PreUpdate  Hook
	PostUpdate Hook
	PostSave   Hook
	// PreDelete may return ErrAbort to skip the delete without error.
	PreDelete  Hook
	PostDelete Hook
	// OnNew runs when Registry.New returns a new record.
	OnNew Hook
}

// Merge returns hooks that run h first and then o for every slot.
func (h Hooks) Merge(o Hooks) Hooks {
	return Hooks{
		PreSave:    chain(h.PreSave, o.PreSave),
		PreCreate:  chain(h.PreCreate, o.PreCreate),
		PostCreate: chain(h.PostCreate, o.PostCreate),
		PreUpdate:  chain(h.PreUpdate, o.PreUpdate),
		PostUpdate: chain(h.PostUpdate, o.PostUpdate),
		PostSave:   chain(h.PostSave, o.PostSave),
		PreDelete:  chain(h.PreDelete, o.PreDelete),
		PostDelete: chain(h.PostDelete, o.PostDelete),
		OnNew:      chain(h.OnNew, o.OnNew),
	}
}

func chain(a, b Hook) Hook {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, r *Record) error {
		if err := a(ctx, r); err != nil {
			return err
		}
		return b(ctx, r)
	}
}

func run(ctx context.Context, h Hook, r *Record) error {
	if h == nil {
		return nil
	}
	return h(ctx, r)
}

package mixin

import (
	"context"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/schema/field"
)

// Schema is the default implementation for the recordkit.Mixin interface.
// It should be embedded in all custom mixin definitions.
type Schema struct{}

// Fields of the mixin.
func (Schema) Fields() []recordkit.Field { return nil }

// Hooks of the mixin.
func (Schema) Hooks() recordkit.Hooks { return recordkit.Hooks{} }

var _ recordkit.Mixin = (*Schema)(nil)

// AutoID adds an auto-increment integer key named "id". The record type
// still lists "id" in its Keys.
type AutoID struct{ Schema }

// Fields of the AutoID mixin.
func (AutoID) Fields() []recordkit.Field {
	return []recordkit.Field{
		field.Int("id").Auto().Unsigned(),
	}
}

// Time adds "created" and "updated" TIMESTAMP fields. Both default to
// NOW(), and "updated" is set back to NOW() on every update.
type Time struct{ Schema }

// Fields of the Time mixin.
func (Time) Fields() []recordkit.Field {
	return []recordkit.Field{
		field.Timestamp("created").Default("NOW()"),
		field.Timestamp("updated").Default("NOW()"),
	}
}

// Hooks of the Time mixin.
func (Time) Hooks() recordkit.Hooks {
	return recordkit.Hooks{
		PreUpdate: func(_ context.Context, r *recordkit.Record) error {
			r.SetValue("updated", "NOW()")
			return nil
		},
	}
}

var (
	_ recordkit.Mixin = (*AutoID)(nil)
	_ recordkit.Mixin = (*Time)(nil)
)

// Package mixin provides the base mixin implementation for record types.
//
// A mixin is a reusable set of fields and hooks merged into every record
// type that lists it. Mixin fields come before the fields of the type, and
// mixin hooks run before the hooks of the type.
//
// To create a custom mixin, embed Schema and override the methods you need:
//
//	type Audit struct{ mixin.Schema }
//
//	func (Audit) Fields() []recordkit.Field {
//	    return []recordkit.Field{
//	        field.Varchar("created_by", 64),
//	    }
//	}
//
// Mixins are applied to record types via the Mixin method:
//
//	func (Order) Mixin() []recordkit.Mixin {
//	    return []recordkit.Mixin{
//	        mixin.AutoID{},
//	        mixin.Time{},
//	    }
//	}
//
// For soft deletion and tenant scoping, see the contrib/mixin package.
package mixin

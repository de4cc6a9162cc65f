package edge

import (
	"fmt"
	"reflect"
	"strings"
)

// Flag names accepted by Flags.
const (
	FlagForceArray      = "force_array"
	FlagAllowDuplicates = "allow_duplicates"
)

// A Descriptor for link configuration.
type Descriptor struct {
	Name            string          // link name.
	Type            string          // target record type name.
	Fields          []Pair          // local to foreign equality conditions, in order.
	OrderBy         []string        // ordering terms of the SELECT.
	Child           *Descriptor     // chained link resolved on each fetched record.
	ForceArray      bool            // always resolve to a collection.
	AllowDuplicates bool            // keep repeated records in a collection.
	PostFetch       func(v any) any // transform applied to the final result.
	Comment         string          // link comment.
	Err             error
}

// Pair is one local to foreign field equality of a link.
type Pair struct {
	Local   string
	Foreign string
}

// Builder is the builder for links.
type Builder struct {
	desc *Descriptor
}

// To defines a link to the records of type t. t is either the Type method
// expression of a schema or the name of a registered type.
//
//	edge.To("items", OrderItem.Type).Field("id", "order_id")
func To(name string, t any) *Builder {
	b := &Builder{desc: &Descriptor{Name: name}}
	b.desc.Type, b.desc.Err = typ(t)
	return b
}

// Next defines an unnamed link used as the child of another link.
//
//	edge.To("products", OrderItem.Type).
//	    Field("id", "order_id").
//	    Child(edge.Next(Product.Type).Field("sku", "sku"))
func Next(t any) *Builder {
	return To("", t)
}

// Field adds a condition: the local field must equal the foreign field of
// the target record.
func (b *Builder) Field(local, foreign string) *Builder {
	b.desc.Fields = append(b.desc.Fields, Pair{Local: local, Foreign: foreign})
	return b
}

// OrderBy appends ordering terms, such as "created DESC".
func (b *Builder) OrderBy(terms ...string) *Builder {
	b.desc.OrderBy = append(b.desc.OrderBy, terms...)
	return b
}

// Child sets the link resolved on every fetched record. The result of the
// child replaces the result of this link.
func (b *Builder) Child(c *Builder) *Builder {
	b.desc.Child = c.Descriptor()
	return b
}

// ForceArray makes the link resolve to a collection even when zero or one
// record matches.
func (b *Builder) ForceArray() *Builder {
	b.desc.ForceArray = true
	return b
}

// AllowDuplicates keeps repeated records in a resolved collection.
func (b *Builder) AllowDuplicates() *Builder {
	b.desc.AllowDuplicates = true
	return b
}

// Flags sets flags by name. Unknown names are reported by Descriptor().Err.
func (b *Builder) Flags(names ...string) *Builder {
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case FlagForceArray:
			b.desc.ForceArray = true
		case FlagAllowDuplicates:
			b.desc.AllowDuplicates = true
		default:
			b.desc.Err = fmt.Errorf("edge %q: invalid flag %q", b.desc.Name, name)
		}
	}
	return b
}

// PostFetch sets a transform applied to the resolved result.
func (b *Builder) PostFetch(fn func(any) any) *Builder {
	b.desc.PostFetch = fn
	return b
}

// Comment sets the comment of the link.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the recordkit.Link interface by returning its
// descriptor.
func (b *Builder) Descriptor() *Descriptor {
	if b.desc.Err == nil && b.desc.Child != nil && b.desc.Child.Err != nil {
		b.desc.Err = b.desc.Child.Err
	}
	return b.desc
}

// A ForeignDescriptor projects one field of the records reached through a
// link.
type ForeignDescriptor struct {
	Name  string // external name.
	Link  string // link name.
	Field string // field name on the target record.
}

// ForeignBuilder is the builder for foreign fields.
type ForeignBuilder struct {
	desc *ForeignDescriptor
}

// Foreign defines a foreign field that reads field through link.
//
//	edge.Foreign("customer_name", "customer", "name")
func Foreign(name, link, field string) *ForeignBuilder {
	return &ForeignBuilder{desc: &ForeignDescriptor{Name: name, Link: link, Field: field}}
}

// Descriptor implements the recordkit.ForeignField interface by returning
// its descriptor.
func (b *ForeignBuilder) Descriptor() *ForeignDescriptor {
	return b.desc
}

func typ(t any) (string, error) {
	if name, ok := t.(string); ok {
		if name == "" {
			return "", fmt.Errorf("edge: empty target type")
		}
		return name, nil
	}
	rt := reflect.TypeOf(t)
	if rt == nil || rt.Kind() != reflect.Func || rt.NumIn() == 0 {
		return "", fmt.Errorf("edge: invalid target %T, expect a Type method expression or a type name", t)
	}
	in := rt.In(0)
	if in.Kind() == reflect.Pointer {
		in = in.Elem()
	}
	return in.Name(), nil
}

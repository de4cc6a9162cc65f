package field

import (
	"errors"
	"fmt"
)

// A Descriptor for field configuration.
type Descriptor struct {
	Name       string         // field name.
	Type       Type           // declared type.
	Alias      string         // external name, matched case-insensitively.
	Default    any            // default value, or a func() any evaluated on reset.
	NotNull    bool           // NULL values are rejected.
	Unsigned   bool           // numeric values are stored as absolute values.
	Auto       bool           // value is generated by the store.
	MaxLength  int            // max length in characters for VARCHAR(n).
	Decimal    *DecimalFormat // digit budget for DECIMAL(p,s).
	Rounding   *int           // fractional digits used when rendering DECIMAL literals.
	Values     []string       // allowed ENUM values.
	Validator  Validator      // custom validator.
	Scrubber   Scrubber       // custom scrubber.
	GetHandler GetHandler     // custom read handler.
	SetHandler SetHandler     // custom assignment handler.
	Comment    string         // field comment.
	Err        error
}

// DefaultValue returns the default value of the field, calling the default
// function if one was configured.
func (d *Descriptor) DefaultValue() any {
	if f, ok := d.Default.(func() any); ok {
		return f()
	}
	return d.Default
}

// ExternalName returns the alias of the field, or its name if it has none.
func (d *Descriptor) ExternalName() string {
	if d.Alias != "" {
		return d.Alias
	}
	return d.Name
}

// HasValue reports whether v is one of the allowed ENUM values.
func (d *Descriptor) HasValue(v string) bool {
	for _, allowed := range d.Values {
		if allowed == v {
			return true
		}
	}
	return false
}

// Builder is the builder for fields.
type Builder struct {
	desc *Descriptor
}

// New returns a new field with the declared type string. Type strings are
// parsed with ParseType; a malformed type is reported by Descriptor().Err.
//
//	field.New("total", "DECIMAL(8,2)")
//	field.New("name", "VARCHAR(64)")
func New(name, typ string) *Builder {
	b := &Builder{desc: &Descriptor{Name: name}}
	info, err := ParseType(typ)
	if err != nil {
		b.desc.Err = fmt.Errorf("field %q: %w", name, err)
		return b
	}
	b.desc.Type = info.Type
	b.desc.MaxLength = info.MaxLength
	b.desc.Decimal = info.Decimal
	return b
}

func newBuilder(name string, t Type) *Builder {
	return &Builder{desc: &Descriptor{Name: name, Type: t}}
}

// Int returns a new INT field.
func Int(name string) *Builder { return newBuilder(name, TypeInt) }

// Float returns a new FLOAT field.
func Float(name string) *Builder { return newBuilder(name, TypeFloat) }

// Bool returns a new BOOLEAN field.
func Bool(name string) *Builder { return newBuilder(name, TypeBool) }

// Text returns a new TEXT field.
func Text(name string) *Builder { return newBuilder(name, TypeText) }

// Timestamp returns a new TIMESTAMP field. The literal "NOW()" is a valid
// value and is sent to the store unquoted.
func Timestamp(name string) *Builder { return newBuilder(name, TypeTimestamp) }

// Datetime returns a new DATETIME field.
func Datetime(name string) *Builder { return newBuilder(name, TypeDatetime) }

// Date returns a new DATE field.
func Date(name string) *Builder { return newBuilder(name, TypeDate) }

// Time returns a new TIME field.
func Time(name string) *Builder { return newBuilder(name, TypeTime) }

// JSON returns a new JSON field.
func JSON(name string) *Builder { return newBuilder(name, TypeJSON) }

// UUID returns a new UUID field.
func UUID(name string) *Builder { return newBuilder(name, TypeUUID) }

// Varchar returns a new VARCHAR(size) field.
func Varchar(name string, size int) *Builder {
	b := newBuilder(name, TypeVarchar)
	if size < 0 {
		b.desc.Err = fmt.Errorf("field %q: invalid VARCHAR length %d", name, size)
	}
	b.desc.MaxLength = size
	return b
}

// Decimal returns a new DECIMAL(precision,scale) field.
func Decimal(name string, precision, scale int) *Builder {
	b := newBuilder(name, TypeDecimal)
	format, err := NewDecimalFormat(precision, scale)
	if err != nil {
		b.desc.Err = fmt.Errorf("field %q: %w", name, err)
		return b
	}
	b.desc.Decimal = format
	return b
}

// Enum returns a new ENUM field with the given values.
func Enum(name string, values ...string) *Builder {
	return newBuilder(name, TypeEnum).Values(values...)
}

// Alias sets the external name of the field.
func (b *Builder) Alias(alias string) *Builder {
	b.desc.Alias = alias
	return b
}

// Default sets the default value of the field.
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = v
	return b
}

// DefaultFunc sets a function that computes the default value each time a
// record is reset.
func (b *Builder) DefaultFunc(fn func() any) *Builder {
	b.desc.Default = fn
	return b
}

// NotNull rejects NULL values.
func (b *Builder) NotNull() *Builder {
	b.desc.NotNull = true
	return b
}

// Unsigned stores numeric values as absolute values.
func (b *Builder) Unsigned() *Builder {
	b.desc.Unsigned = true
	return b
}

// Auto marks the field as generated by the store, such as an
// auto-increment key.
func (b *Builder) Auto() *Builder {
	b.desc.Auto = true
	return b
}

// MaxLen sets the maximum length in characters.
func (b *Builder) MaxLen(n int) *Builder {
	b.desc.MaxLength = n
	return b
}

// Rounding sets the number of fractional digits used when a DECIMAL value
// is rendered as a literal.
func (b *Builder) Rounding(digits int) *Builder {
	if b.desc.Type != TypeDecimal {
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("field %q: rounding is only valid for DECIMAL fields", b.desc.Name))
		return b
	}
	b.desc.Rounding = &digits
	return b
}

// Values sets the allowed values of an ENUM field.
func (b *Builder) Values(values ...string) *Builder {
	b.desc.Values = append(b.desc.Values, values...)
	return b
}

// Validate sets a custom validator.
func (b *Builder) Validate(v Validator) *Builder {
	b.desc.Validator = v
	return b
}

// Scrub sets a custom scrubber.
func (b *Builder) Scrub(s Scrubber) *Builder {
	b.desc.Scrubber = s
	return b
}

// GetHandler sets a custom read handler.
func (b *Builder) GetHandler(h GetHandler) *Builder {
	b.desc.GetHandler = h
	return b
}

// SetHandler sets a custom assignment handler.
func (b *Builder) SetHandler(h SetHandler) *Builder {
	b.desc.SetHandler = h
	return b
}

// Comment sets the comment of the field.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the recordkit.Field interface by returning its
// descriptor.
func (b *Builder) Descriptor() *Descriptor {
	if b.desc.Type == TypeEnum && len(b.desc.Values) == 0 && b.desc.Err == nil {
		b.desc.Err = fmt.Errorf("field %q: ENUM requires at least one value", b.desc.Name)
	}
	return b.desc
}

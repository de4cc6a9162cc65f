// Package field provides fluent builders for declaring record fields.
//
// A field has a name, a declared type and a set of flags. Declared types
// follow the column types of the backing table:
//
//	field.Int("id").Auto()
//	field.Varchar("name", 64).NotNull()
//	field.Decimal("total", 8, 2).Rounding(2)
//	field.Enum("status", "open", "closed")
//	field.Timestamp("created").Default("NOW()")
//	field.JSON("meta")
//
// Declared type strings are accepted too, which is how definitions loaded
// from YAML are built:
//
//	field.New("total", "DECIMAL(8,2)")
//	field.New("name", "VARCHAR(64)")
//
// # Aliases
//
// An alias is an alternate external name, matched case-insensitively:
//
//	field.Int("cust_id").Alias("CustomerID")
//
// # Hooks
//
// Fields may carry a Validator, a Scrubber, a GetHandler and a SetHandler.
// Each is an interface with a Func adapter:
//
//	field.Varchar("email", 255).
//	    Scrub(field.ScrubberFunc(func(_ context.Context, _ field.Values, v any) (any, error) {
//	        return strings.ToLower(fmt.Sprint(v)), nil
//	    }))
//
// A SetHandler takes over the whole assignment; the built-in checks for
// ENUM membership, integer shape, length and decimal budget are skipped.
package field

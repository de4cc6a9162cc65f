// Package schema groups the building blocks used to declare record types.
//
//   - [field]: field builders, types and assignment hooks
//   - [edge]: links and foreign fields
//   - [mixin]: reusable field sets such as auto-increment ids and timestamps
//   - [load]: record types declared in YAML documents
//
// A record type embeds recordkit.Schema and overrides what it needs:
//
//	type Product struct{ recordkit.Schema }
//
//	func (Product) Mixin() []recordkit.Mixin {
//	    return []recordkit.Mixin{mixin.AutoID{}, mixin.Time{}}
//	}
//
//	func (Product) Keys() []string { return []string{"id"} }
//
//	func (Product) Fields() []recordkit.Field {
//	    return []recordkit.Field{
//	        field.Varchar("sku", 16).Alias("SKU").NotNull(),
//	        field.Decimal("price", 8, 2).Rounding(2).Unsigned(),
//	        field.Enum("state", "draft", "live").Default("draft"),
//	    }
//	}
//
//	func (Product) Links() []recordkit.Link {
//	    return []recordkit.Link{
//	        edge.To("orders", OrderItem.Type).
//	            Field("id", "product_id").
//	            Child(edge.Next(Order.Type).Field("order_id", "id")),
//	    }
//	}
//
// # Field types
//
//	field.Int("qty")                 // INT, lenient integer parsing
//	field.Decimal("total", 8, 2)     // DECIMAL(p,s) with a digit budget
//	field.Float("ratio")             // FLOAT
//	field.Bool("active")             // BOOLEAN, stored as '1' or '0'
//	field.Varchar("name", 32)        // VARCHAR(n), length checked in characters
//	field.Text("body")               // TEXT
//	field.Enum("level", "low", "hi") // ENUM, membership checked on assignment
//	field.Timestamp("created")       // TIMESTAMP, accepts NOW()
//	field.Datetime("due")            // DATETIME, zero values become NULL
//	field.Date("day")                // DATE
//	field.Time("at")                 // TIME
//	field.JSON("payload")            // JSON
//	field.UUID("ref")                // UUID
//
// # Links
//
// A link matches local fields against fields of the target type. Flags
// change the result shape:
//
//	edge.To("items", OrderItem.Type).Field("id", "order_id").ForceArray()
//	edge.To("tags", Tag.Type).Field("id", "owner_id").AllowDuplicates()
//	edge.Foreign("customer_name", "customer", "name")
package schema

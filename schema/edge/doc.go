// Package edge provides fluent builders for declaring links between record
// types.
//
// A link follows foreign keys: each fetched target record must match every
// local to foreign field pair.
//
//	func (Order) Links() []recordkit.Link {
//	    return []recordkit.Link{
//	        edge.To("items", OrderItem.Type).
//	            Field("id", "order_id").
//	            OrderBy("sku"),
//	        edge.To("customer", Customer.Type).
//	            Field("customer_id", "id"),
//	    }
//	}
//
// A link resolves to nil when no record matches, to a single record when
// one matches and to a collection otherwise. ForceArray always yields a
// collection. Repeated records are removed from collections unless
// AllowDuplicates is set.
//
// # Chained links
//
// Child resolves a further link on every fetched record and replaces the
// result with the merged child results:
//
//	edge.To("products", OrderItem.Type).
//	    Field("id", "order_id").
//	    Child(edge.Next(Product.Type).Field("sku", "sku"))
//
// # Foreign fields
//
// A foreign field projects one field through a link:
//
//	func (Order) ForeignFields() []recordkit.ForeignField {
//	    return []recordkit.ForeignField{
//	        edge.Foreign("customer_name", "customer", "name"),
//	    }
//	}
package edge

package recordkit_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/schema/edge"
	"github.com/syssam/recordkit/schema/field"
)

type Customer struct{ recordkit.Schema }

func (Customer) Keys() []string { return []string{"id"} }

func (Customer) Fields() []recordkit.Field {
	return []recordkit.Field{
		field.Int("id").Auto(),
		field.Varchar("name", 32).NotNull().Default(""),
		field.Enum("tier", "basic", "gold").Default("basic"),
	}
}

type Order struct{ recordkit.Schema }

func (Order) Keys() []string { return []string{"id"} }

func (Order) Fields() []recordkit.Field {
	return []recordkit.Field{
		field.Int("id").Auto(),
		field.Int("customer_id").Alias("CustomerID").Unsigned(),
		field.Decimal("total", 8, 2).Rounding(2),
		field.Enum("status", "open", "closed").Default("open"),
	}
}

func (Order) Links() []recordkit.Link {
	return []recordkit.Link{
		edge.To("customer", Customer.Type).Field("customer_id", "id"),
		edge.To("owner", Customer.Type).Field("customer_id", "id").ForceArray(),
		edge.To("items", OrderItem.Type).Field("id", "order_id").OrderBy("id"),
		edge.To("products", OrderItem.Type).
			Field("id", "order_id").
			Child(edge.Next(Product.Type).Field("product_id", "id")),
		edge.To("all_products", OrderItem.Type).
			Field("id", "order_id").
			Child(edge.Next(Product.Type).Field("product_id", "id")).
			AllowDuplicates(),
		edge.To("item_count", OrderItem.Type).
			Field("id", "order_id").
			ForceArray().
			PostFetch(func(v any) any { return len(v.([]*recordkit.Record)) }),
	}
}

func (Order) ForeignFields() []recordkit.ForeignField {
	return []recordkit.ForeignField{
		edge.Foreign("customer_name", "customer", "name"),
		edge.Foreign("skus", "items", "product_id"),
	}
}

type OrderItem struct{ recordkit.Schema }

func (OrderItem) Keys() []string { return []string{"id"} }

func (OrderItem) Fields() []recordkit.Field {
	return []recordkit.Field{
		field.Int("id").Auto(),
		field.Int("order_id").NotNull(),
		field.Int("product_id").NotNull(),
	}
}

func (OrderItem) OrderBy() []string { return []string{"id"} }

type Product struct{ recordkit.Schema }

func (Product) Keys() []string { return []string{"id"} }

func (Product) Fields() []recordkit.Field {
	return []recordkit.Field{
		field.Int("id").Auto(),
		field.Varchar("sku", 16).Alias("SKU"),
		field.Varchar("name", 64),
	}
}

func (Product) OrderBy() []string { return []string{"name", "id DESC"} }

// Event covers every field type and the custom field hooks.
type Event struct{ recordkit.Schema }

func (Event) Keys() []string { return []string{"id"} }

func (Event) Fields() []recordkit.Field {
	return []recordkit.Field{
		field.Int("id").Auto(),
		field.Varchar("title", 5).Alias("Title"),
		field.Int("qty").Unsigned(),
		field.Decimal("price", 4, 2),
		field.Float("ratio").Unsigned(),
		field.Bool("active").Default(true),
		field.Timestamp("created").Default("NOW()"),
		field.Datetime("due"),
		field.Enum("level", "low", "high").NotNull().Default("low"),
		field.JSON("payload"),
		field.UUID("ref"),
		field.Date("day"),
		field.Text("code").
			Validate(field.ValidatorFunc(func(_ context.Context, _ field.Values, v any) error {
				if s, ok := v.(string); ok && strings.Contains(s, " ") {
					return errors.New("code must not contain spaces")
				}
				return nil
			})).
			Scrub(field.ScrubberFunc(func(_ context.Context, _ field.Values, v any) (any, error) {
				if s, ok := v.(string); ok {
					return strings.ToUpper(s), nil
				}
				return v, nil
			})),
		field.Varchar("slug", 32).
			SetHandler(field.SetHandlerFunc(func(_ context.Context, rec field.Values, v any) error {
				s, _ := v.(string)
				rec.SetValue("slug", strings.ReplaceAll(strings.ToLower(s), " ", "-"))
				return nil
			})).
			GetHandler(field.GetHandlerFunc(func(_ context.Context, rec field.Values) (any, error) {
				return "/" + rec.Value("slug").(string), nil
			})),
	}
}

func (Event) Table() string { return "event_log" }

// newRegistry returns a registry without a store, for in-memory tests.
func newRegistry(t *testing.T, opts ...recordkit.Option) *recordkit.Registry {
	t.Helper()
	reg := recordkit.NewRegistry(nil, append([]recordkit.Option{recordkit.WithDialect(dialect.MySQL)}, opts...)...)
	require.NoError(t, reg.Register(Customer{}, Order{}, OrderItem{}, Product{}, Event{}))
	return reg
}

// newMock returns a registry backed by sqlmock with exact query matching.
func newMock(t *testing.T, opts ...recordkit.Option) (*recordkit.Registry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	reg := recordkit.NewRegistry(sql.OpenDB(dialect.MySQL, db), opts...)
	require.NoError(t, reg.Register(Customer{}, Order{}, OrderItem{}, Product{}, Event{}))
	return reg, mock
}

func orderRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "customer_id", "total", "status"})
}

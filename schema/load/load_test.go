package load_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/schema/field"
	"github.com/syssam/recordkit/schema/load"
)

const shop = `
Customer:
  keys: id
  orderby: [name, id DESC]
  fields:
    id: {type: INT, auto: true}
    name: {type: VARCHAR(32), notnull: true, default: ""}
    tier: {type: ENUM, values: [basic, gold], default: basic}
Order:
  table: purchase_orders
  keys: [id]
  fields:
    id: {type: INT, auto: true}
    customer_id: {type: INT, alias: CustomerID, unsigned: true}
    total: {type: "DECIMAL(8,2)", rounding: 2}
  links:
    customer:
      class: Customer
      linkfields: {customer_id: id}
    owners:
      class: Customer
      linkfields:
        customer_id: id
      flags: force_array
      orderby: name
    products:
      class: OrderItem
      linkfields: {id: order_id}
      childlink:
        class: Product
        linkfields: {product_id: id}
  foreignfields:
    customer_name: {link: customer, field: name}
OrderItem:
  keys: [id]
  fields:
    id: {type: INT, auto: true}
    order_id: {type: INT}
    product_id: {type: INT}
Product:
  keys: [id]
  fields:
    id: {type: INT, auto: true}
    sku: {type: VARCHAR(16)}
`

func TestParse(t *testing.T) {
	defs, err := load.Parse([]byte(shop))
	require.NoError(t, err)
	require.Len(t, defs, 4)
	names := make([]string, len(defs))
	for i, d := range defs {
		names[i] = d.Name()
	}
	assert.Equal(t, []string{"Customer", "Order", "OrderItem", "Product"}, names)

	c := defs[0]
	assert.Equal(t, []string{"id"}, c.Keys())
	assert.Equal(t, []string{"name", "id DESC"}, c.OrderBy())
	require.Len(t, c.Fields(), 3)
	tier := c.Fields()[2].Descriptor()
	assert.Equal(t, field.TypeEnum, tier.Type)
	assert.Equal(t, []string{"basic", "gold"}, tier.Values)

	o := defs[1]
	assert.Equal(t, "purchase_orders", o.Table())
	require.Len(t, o.Links(), 3)
	owners := o.Links()[1].Descriptor()
	require.NoError(t, owners.Err)
	assert.True(t, owners.ForceArray)
	assert.Equal(t, []string{"name"}, owners.OrderBy)
	products := o.Links()[2].Descriptor()
	require.NotNil(t, products.Child)
	assert.Equal(t, "Product", products.Child.Type)
	require.Len(t, o.ForeignFields(), 1)
	assert.Equal(t, "customer", o.ForeignFields()[0].Descriptor().Link)
}

func TestRegister(t *testing.T) {
	defs, err := load.Parse([]byte(shop))
	require.NoError(t, err)
	reg := recordkit.NewRegistry(nil, recordkit.WithDialect(dialect.MySQL))
	require.NoError(t, load.Register(reg, defs...))
	assert.Equal(t, []string{"Customer", "Order", "OrderItem", "Product"}, reg.Types())

	o, err := reg.Type("Order")
	require.NoError(t, err)
	assert.Equal(t, "purchase_orders", o.Table())
	assert.Equal(t, []string{"id", "CustomerID", "total"}, o.FieldNames(false))
	assert.Equal(t, []string{"customer", "owners", "products"}, o.Links())
	item, err := reg.Type("OrderItem")
	require.NoError(t, err)
	assert.Equal(t, "order_items", item.Table())
}

func TestLinkResolution(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()
	defs, err := load.Parse([]byte(shop))
	require.NoError(t, err)
	reg := recordkit.NewRegistry(sql.OpenDB(dialect.MySQL, db))
	require.NoError(t, load.Register(reg, defs...))

	mock.ExpectQuery("SELECT * FROM `purchase_orders` WHERE `id` = '1'").
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "total"}).AddRow(int64(1), int64(5), "10.00"))
	o, err := reg.Load(ctx, "Order", 1)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT * FROM `customers` WHERE `id` = '5' ORDER BY `name`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "tier"}))
	v, err := o.Get(ctx, "owners")
	require.NoError(t, err)
	assert.Equal(t, []*recordkit.Record{}, v)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHooks(t *testing.T) {
	defs, err := load.Parse([]byte(`
Note:
  keys: [id]
  fields:
    id: {type: INT, auto: true}
    body: {type: TEXT}
`))
	require.NoError(t, err)
	called := false
	defs[0].WithHooks(recordkit.Hooks{
		OnNew: func(context.Context, *recordkit.Record) error {
			called = true
			return nil
		},
	})
	reg := recordkit.NewRegistry(nil, recordkit.WithDialect(dialect.MySQL))
	require.NoError(t, load.Register(reg, defs...))
	_, err = reg.New(context.Background(), "Note")
	require.NoError(t, err)
	assert.True(t, called)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	require.NoError(t, os.WriteFile(a, []byte("A:\n  keys: [id]\n  fields:\n    id: {type: INT}\n"), 0o600))
	require.NoError(t, os.WriteFile(b, []byte("B:\n  keys: [id]\n  fields:\n    id: {type: INT}\n"), 0o600))
	defs, err := load.Files(a, b)
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, "B", defs[1].Name())

	_, err = load.Files(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"Malformed", "A: [\n"},
		{"RootNotMapping", "- A\n- B\n"},
		{"FieldsNotMapping", "A:\n  fields: [id]\n"},
		{"LinkWithoutClass", "A:\n  links:\n    b: {linkfields: {id: id}}\n"},
		{"LinkFieldNotScalar", "A:\n  links:\n    b: {class: B, linkfields: {id: [x]}}\n"},
		{"ChildWithoutClass", "A:\n  links:\n    b: {class: B, childlink: {linkfields: {id: id}}}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load.Parse([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"BadType", "A:\n  keys: [id]\n  fields:\n    id: {type: BLOB}\n"},
		{"BadFlag", "A:\n  keys: [id]\n  fields:\n    id: {type: INT}\n  links:\n    self: {class: A, linkfields: {id: id}, flags: sticky}\n"},
		{"UnknownKey", "A:\n  keys: [uid]\n  fields:\n    id: {type: INT}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defs, err := load.Parse([]byte(tt.doc))
			require.NoError(t, err)
			reg := recordkit.NewRegistry(nil, recordkit.WithDialect(dialect.MySQL))
			require.NoError(t, load.Register(reg, defs...))
			_, err = reg.Type("A")
			require.True(t, recordkit.IsConfigurationError(err), "got %v", err)
		})
	}
}

func TestEmpty(t *testing.T) {
	defs, err := load.Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, defs)
}

package recordkit_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit"
)

func loadOrder(t *testing.T, reg *recordkit.Registry, mock sqlmock.Sqlmock) *recordkit.Record {
	t.Helper()
	mock.ExpectQuery("SELECT * FROM `orders` WHERE `id` = '1'").
		WillReturnRows(orderRows().AddRow(int64(1), int64(5), "12.35", "open"))
	o, err := reg.Load(context.Background(), "Order", 1)
	require.NoError(t, err)
	return o
}

func itemRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "order_id", "product_id"})
}

func productRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "sku", "name"})
}

func TestLinkedSingle(t *testing.T) {
	ctx := context.Background()
	reg, mock := newMock(t)
	o := loadOrder(t, reg, mock)
	customer := sqlmock.NewRows([]string{"id", "name", "tier"}).AddRow(int64(5), "Ada", "gold")
	mock.ExpectQuery("SELECT * FROM `customers` WHERE `id` = '5'").WillReturnRows(customer)

	v, err := o.Get(ctx, "Customer")
	require.NoError(t, err)
	c, ok := v.(*recordkit.Record)
	require.True(t, ok)
	assert.Equal(t, "Customer", c.Type().Name())
	assert.Equal(t, "Ada", c.Value("name"))
	assert.False(t, c.IsNew())
}

func TestLinkedNone(t *testing.T) {
	ctx := context.Background()
	reg, mock := newMock(t)
	o := loadOrder(t, reg, mock)
	mock.ExpectQuery("SELECT * FROM `customers` WHERE `id` = '5'").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "tier"}))
	mock.ExpectQuery("SELECT * FROM `customers` WHERE `id` = '5'").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "tier"}))

	v, err := o.Linked(ctx, "customer")
	require.NoError(t, err)
	assert.Nil(t, v)

	// A forced collection is empty rather than nil.
	v, err = o.Linked(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, []*recordkit.Record{}, v)
}

func TestLinkedNilLocalValue(t *testing.T) {
	ctx := context.Background()
	reg, _ := newMock(t)
	o, err := reg.New(ctx, "Order")
	require.NoError(t, err)
	// customer_id is NULL: no statement is issued.
	v, err := o.Linked(ctx, "customer")
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestLinkedForceArray(t *testing.T) {
	ctx := context.Background()
	reg, mock := newMock(t)
	o := loadOrder(t, reg, mock)
	mock.ExpectQuery("SELECT * FROM `customers` WHERE `id` = '5'").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "tier"}).AddRow(int64(5), "Ada", "gold"))

	v, err := o.Get(ctx, "owner")
	require.NoError(t, err)
	recs, ok := v.([]*recordkit.Record)
	require.True(t, ok)
	require.Len(t, recs, 1)
	assert.Equal(t, int64(5), recs[0].Value("id"))
}

func TestLinkedCollection(t *testing.T) {
	ctx := context.Background()
	reg, mock := newMock(t)
	o := loadOrder(t, reg, mock)
	mock.ExpectQuery("SELECT * FROM `order_items` WHERE `order_id` = '1' ORDER BY `id`").
		WillReturnRows(itemRows().AddRow(int64(10), int64(1), int64(7)).AddRow(int64(11), int64(1), int64(8)))

	v, err := o.Get(ctx, "items")
	require.NoError(t, err)
	items := v.([]*recordkit.Record)
	require.Len(t, items, 2)
	assert.Equal(t, int64(10), items[0].Value("id"))
	assert.Equal(t, int64(8), items[1].Value("product_id"))
}

func TestLinkedChild(t *testing.T) {
	ctx := context.Background()
	items := func() *sqlmock.Rows {
		return itemRows().
			AddRow(int64(10), int64(1), int64(7)).
			AddRow(int64(11), int64(1), int64(7)).
			AddRow(int64(12), int64(1), int64(8))
	}
	expect := func(mock sqlmock.Sqlmock) {
		mock.ExpectQuery("SELECT * FROM `order_items` WHERE `order_id` = '1'").WillReturnRows(items())
		mock.ExpectQuery("SELECT * FROM `products` WHERE `id` = '7'").
			WillReturnRows(productRows().AddRow(int64(7), "A-1", "Anvil"))
		mock.ExpectQuery("SELECT * FROM `products` WHERE `id` = '7'").
			WillReturnRows(productRows().AddRow(int64(7), "A-1", "Anvil"))
		mock.ExpectQuery("SELECT * FROM `products` WHERE `id` = '8'").
			WillReturnRows(productRows().AddRow(int64(8), "B-2", "Bucket"))
	}

	t.Run("Deduplicated", func(t *testing.T) {
		reg, mock := newMock(t)
		o := loadOrder(t, reg, mock)
		expect(mock)
		v, err := o.Get(ctx, "products")
		require.NoError(t, err)
		products := v.([]*recordkit.Record)
		require.Len(t, products, 2)
		assert.Equal(t, "Anvil", products[0].Value("name"))
		assert.Equal(t, "Bucket", products[1].Value("name"))
	})

	t.Run("AllowDuplicates", func(t *testing.T) {
		reg, mock := newMock(t)
		o := loadOrder(t, reg, mock)
		expect(mock)
		v, err := o.Get(ctx, "all_products")
		require.NoError(t, err)
		products := v.([]*recordkit.Record)
		require.Len(t, products, 3)
		// Rows reached twice resolve to the same record.
		assert.Same(t, products[0], products[1])
	})

	t.Run("SingleRowReplaced", func(t *testing.T) {
		reg, mock := newMock(t)
		o := loadOrder(t, reg, mock)
		mock.ExpectQuery("SELECT * FROM `order_items` WHERE `order_id` = '1'").
			WillReturnRows(itemRows().AddRow(int64(10), int64(1), int64(7)))
		mock.ExpectQuery("SELECT * FROM `products` WHERE `id` = '7'").
			WillReturnRows(productRows().AddRow(int64(7), "A-1", "Anvil"))
		v, err := o.Get(ctx, "products")
		require.NoError(t, err)
		p, ok := v.(*recordkit.Record)
		require.True(t, ok)
		assert.Equal(t, "Product", p.Type().Name())
	})
}

func TestLinkedRecursionLimit(t *testing.T) {
	ctx := context.Background()
	reg, mock := newMock(t, recordkit.WithMaxRecursion(1))
	o := loadOrder(t, reg, mock)
	mock.ExpectQuery("SELECT * FROM `order_items` WHERE `order_id` = '1'").
		WillReturnRows(itemRows().AddRow(int64(10), int64(1), int64(7)))

	_, err := o.Get(ctx, "products")
	require.Error(t, err)
	assert.True(t, recordkit.IsRecursionLimit(err))

	reg, _ = newMock(t, recordkit.WithMaxRecursion(0))
	o, err = reg.New(ctx, "Order")
	require.NoError(t, err)
	_, err = o.Linked(ctx, "customer")
	assert.ErrorIs(t, err, recordkit.ErrRecursionLimit)
}

func TestLinkedPostFetch(t *testing.T) {
	ctx := context.Background()
	reg, mock := newMock(t)
	o := loadOrder(t, reg, mock)
	mock.ExpectQuery("SELECT * FROM `order_items` WHERE `order_id` = '1'").
		WillReturnRows(itemRows().AddRow(int64(10), int64(1), int64(7)))

	v, err := o.Get(ctx, "item_count")
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestForeignFields(t *testing.T) {
	ctx := context.Background()
	reg, mock := newMock(t)
	o := loadOrder(t, reg, mock)
	mock.ExpectQuery("SELECT * FROM `customers` WHERE `id` = '5'").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "tier"}).AddRow(int64(5), "Ada", "gold"))
	mock.ExpectQuery("SELECT * FROM `order_items` WHERE `order_id` = '1' ORDER BY `id`").
		WillReturnRows(itemRows().AddRow(int64(10), int64(1), int64(7)).AddRow(int64(11), int64(1), int64(8)))

	v, err := o.Get(ctx, "customer_name")
	require.NoError(t, err)
	assert.Equal(t, "Ada", v)

	v, err = o.Get(ctx, "SKUS")
	require.NoError(t, err)
	assert.Equal(t, []any{int64(7), int64(8)}, v)
}

func TestSetLink(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t)
	o, err := reg.New(ctx, "Order")
	require.NoError(t, err)
	c, err := reg.New(ctx, "Customer")
	require.NoError(t, err)
	c.SetValue("id", int64(42))

	require.NoError(t, o.Set(ctx, "customer", c))
	assert.Equal(t, int64(42), o.Value("customer_id"))

	p, err := reg.New(ctx, "Product")
	require.NoError(t, err)
	err = o.Set(ctx, "customer", p)
	assert.True(t, recordkit.IsValidationError(err))
	err = o.Set(ctx, "customer", "42")
	assert.True(t, recordkit.IsValidationError(err))

	_, err = o.Linked(ctx, "nope")
	assert.True(t, recordkit.IsUnknownField(err))
}

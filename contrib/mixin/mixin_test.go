package mixin_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/contrib/mixin"
	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/schema/field"
)

const docID = "0b5c1a8e-4a3f-4f67-9d2a-3f1f6e2d9c10"

type Doc struct{ recordkit.Schema }

func (Doc) Keys() []string { return []string{"id"} }

func (Doc) Mixin() []recordkit.Mixin {
	return []recordkit.Mixin{mixin.UUIDKey{}, mixin.SoftDelete{}, mixin.TenantID{}}
}

func (Doc) Fields() []recordkit.Field {
	return []recordkit.Field{field.Varchar("title", 32)}
}

func newDocs(t *testing.T) (*recordkit.Registry, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	reg := recordkit.NewRegistry(sql.OpenDB(dialect.MySQL, db), recordkit.WithLocation(time.UTC))
	require.NoError(t, reg.Register(Doc{}))
	return reg, mock
}

func TestUUIDKey(t *testing.T) {
	reg := recordkit.NewRegistry(nil)
	require.NoError(t, reg.Register(Doc{}))
	a, err := reg.New(context.Background(), "Doc")
	require.NoError(t, err)
	b, err := reg.New(context.Background(), "Doc")
	require.NoError(t, err)

	id, ok := a.Value("id").(string)
	require.True(t, ok)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, a.Value("id"), b.Value("id"))
}

func TestTenant(t *testing.T) {
	ctx := context.Background()
	_, ok := mixin.Tenant(ctx)
	assert.False(t, ok)
	id, ok := mixin.Tenant(mixin.WithTenant(ctx, "acme"))
	assert.True(t, ok)
	assert.Equal(t, "acme", id)
	_, ok = mixin.Tenant(mixin.WithTenant(ctx, ""))
	assert.False(t, ok)
}

func TestTenantIDRequired(t *testing.T) {
	reg, _ := newDocs(t)
	d, err := reg.New(context.Background(), "Doc")
	require.NoError(t, err)
	assert.ErrorIs(t, d.Save(context.Background()), mixin.ErrNoTenant)
}

func TestSoftDelete(t *testing.T) {
	reg, mock := newDocs(t)
	ctx := mixin.WithTenant(context.Background(), "acme")
	row := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{"id", "deleted_at", "tenant_id", "title"}).AddRow(docID, nil, "acme", "Draft")
	}
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `docs` (`id`, `deleted_at`, `tenant_id`, `title`) VALUES ('" + docID + "', NULL, 'acme', 'Draft')")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `docs` WHERE `id` = '" + docID + "'")).
		WillReturnRows(row())
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `docs` SET `id` = '"+docID+"', `deleted_at` = '") + `\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}` + regexp.QuoteMeta("', `tenant_id` = 'acme', `title` = 'Draft' WHERE `id` = '"+docID+"'")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `docs` WHERE `id` = '" + docID + "'")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	d, err := reg.New(ctx, "Doc")
	require.NoError(t, err)
	require.NoError(t, d.SetData(ctx, map[string]any{"id": docID, "title": "Draft"}))
	require.NoError(t, d.Save(ctx))

	require.NoError(t, d.Delete(ctx))
	assert.False(t, d.IsNew(), "soft delete keeps the record")
	assert.IsType(t, time.Time{}, d.Value("deleted_at"))

	require.NoError(t, d.Delete(mixin.WithSkipSoftDelete(ctx)))
	assert.True(t, d.IsNew())
}

func TestTimeSoftDelete(t *testing.T) {
	m := mixin.TimeSoftDelete{}
	var names []string
	for _, f := range m.Fields() {
		names = append(names, f.Descriptor().Name)
	}
	assert.Equal(t, []string{"created", "updated", "deleted_at"}, names)
	h := m.Hooks()
	assert.NotNil(t, h.PreUpdate)
	assert.NotNil(t, h.PreDelete)
}

package mixin_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/recordkit"
	"github.com/syssam/recordkit/dialect"
	"github.com/syssam/recordkit/schema/field"
	"github.com/syssam/recordkit/schema/mixin"
)

type Post struct{ recordkit.Schema }

func (Post) Keys() []string { return []string{"id"} }

func (Post) Mixin() []recordkit.Mixin {
	return []recordkit.Mixin{mixin.AutoID{}, mixin.Time{}}
}

func (Post) Fields() []recordkit.Field {
	return []recordkit.Field{field.Varchar("title", 64)}
}

func TestSchemaBaseMixin(t *testing.T) {
	m := mixin.Schema{}
	assert.Nil(t, m.Fields())
	assert.Equal(t, recordkit.Hooks{}, m.Hooks())
}

func TestAutoID(t *testing.T) {
	fields := mixin.AutoID{}.Fields()
	require.Len(t, fields, 1)
	fd := fields[0].Descriptor()
	assert.Equal(t, "id", fd.Name)
	assert.Equal(t, field.TypeInt, fd.Type)
	assert.True(t, fd.Auto)
	assert.True(t, fd.Unsigned)
}

func TestTime(t *testing.T) {
	fields := mixin.Time{}.Fields()
	require.Len(t, fields, 2)
	for i, name := range []string{"created", "updated"} {
		fd := fields[i].Descriptor()
		assert.Equal(t, name, fd.Name)
		assert.Equal(t, field.TypeTimestamp, fd.Type)
		assert.Equal(t, "NOW()", fd.DefaultValue())
	}
}

func TestMixinsInRecordType(t *testing.T) {
	ctx := context.Background()
	reg := recordkit.NewRegistry(nil, recordkit.WithDialect(dialect.SQLite))
	require.NoError(t, reg.Register(Post{}))

	typ, err := reg.Type("Post")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "created", "updated", "title"}, typ.FieldNames(true))
	assert.Equal(t, "posts", typ.Table())

	p, err := reg.New(ctx, "Post")
	require.NoError(t, err)
	assert.Equal(t, "NOW()", p.Value("created"))

	require.NoError(t, p.Set(ctx, "updated", "2024-01-01 00:00:00"))
	hook := mixin.Time{}.Hooks().PreUpdate
	require.NoError(t, hook(ctx, p))
	assert.Equal(t, "NOW()", p.Value("updated"))
}

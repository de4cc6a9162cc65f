package field_test

import (
	"context"
	"errors"
	"testing"

	"github.com/syssam/recordkit/schema/field"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseType(t *testing.T) {
	tests := []struct {
		in      string
		typ     field.Type
		maxLen  int
		decimal *field.DecimalFormat
	}{
		{"INT", field.TypeInt, 0, nil},
		{"integer", field.TypeInt, 0, nil},
		{"VARCHAR(64)", field.TypeVarchar, 64, nil},
		{"varchar ( 8 )", field.TypeVarchar, 8, nil},
		{"DECIMAL(8,2)", field.TypeDecimal, 0, &field.DecimalFormat{Left: 6, Right: 2}},
		{"decimal( 4 , 4 )", field.TypeDecimal, 0, &field.DecimalFormat{Left: 0, Right: 4}},
		{"DECIMAL", field.TypeDecimal, 0, nil},
		{"BOOLEAN", field.TypeBool, 0, nil},
		{"TEXT", field.TypeText, 0, nil},
		{"ENUM", field.TypeEnum, 0, nil},
		{"TIMESTAMP", field.TypeTimestamp, 0, nil},
		{"DATETIME", field.TypeDatetime, 0, nil},
		{"DATE", field.TypeDate, 0, nil},
		{"TIME", field.TypeTime, 0, nil},
		{"FLOAT", field.TypeFloat, 0, nil},
		{"JSON", field.TypeJSON, 0, nil},
		{"UUID", field.TypeUUID, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			info, err := field.ParseType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.typ, info.Type)
			assert.Equal(t, tt.maxLen, info.MaxLength)
			assert.Equal(t, tt.decimal, info.Decimal)
		})
	}
}

func TestParseType_Invalid(t *testing.T) {
	for _, in := range []string{"DECIMAL(2,4)", "DECIMAL(-1,0)", "DECIMAL(4,-1)", "BLOB", ""} {
		t.Run(in, func(t *testing.T) {
			_, err := field.ParseType(in)
			assert.Error(t, err)
		})
	}
}

func TestType(t *testing.T) {
	assert.Equal(t, "DECIMAL", field.TypeDecimal.String())
	assert.Equal(t, "invalid", field.Type(200).String())
	assert.True(t, field.TypeInt.Valid())
	assert.False(t, field.TypeInvalid.Valid())
	assert.True(t, field.TypeFloat.Numeric())
	assert.False(t, field.TypeText.Numeric())
	assert.True(t, field.TypeDatetime.Temporal())
	assert.False(t, field.TypeDate.Temporal())
}

func TestNew(t *testing.T) {
	fd := field.New("total", "DECIMAL(8,2)").
		Rounding(2).
		Unsigned().
		Descriptor()
	require.NoError(t, fd.Err)
	assert.Equal(t, "total", fd.Name)
	assert.Equal(t, field.TypeDecimal, fd.Type)
	assert.Equal(t, &field.DecimalFormat{Left: 6, Right: 2}, fd.Decimal)
	require.NotNil(t, fd.Rounding)
	assert.Equal(t, 2, *fd.Rounding)
	assert.True(t, fd.Unsigned)

	fd = field.New("name", "VARCHAR(64)").NotNull().Alias("Name").Descriptor()
	require.NoError(t, fd.Err)
	assert.Equal(t, 64, fd.MaxLength)
	assert.True(t, fd.NotNull)
	assert.Equal(t, "Name", fd.ExternalName())

	fd = field.New("x", "DECIMAL(1,2)").Descriptor()
	assert.Error(t, fd.Err)
}

func TestBuilders(t *testing.T) {
	fd := field.Int("id").Auto().Descriptor()
	assert.Equal(t, field.TypeInt, fd.Type)
	assert.True(t, fd.Auto)
	assert.Nil(t, fd.Default)
	assert.Equal(t, "id", fd.ExternalName())

	fd = field.Varchar("name", 32).Descriptor()
	assert.Equal(t, 32, fd.MaxLength)
	assert.NoError(t, fd.Err)

	fd = field.Varchar("name", -1).Descriptor()
	assert.Error(t, fd.Err)

	fd = field.Decimal("total", 8, 2).Descriptor()
	assert.Equal(t, &field.DecimalFormat{Left: 6, Right: 2}, fd.Decimal)

	fd = field.Decimal("total", 2, 3).Descriptor()
	assert.Error(t, fd.Err)

	fd = field.Enum("status", "open", "closed").Descriptor()
	assert.Equal(t, []string{"open", "closed"}, fd.Values)
	assert.True(t, fd.HasValue("open"))
	assert.False(t, fd.HasValue("archived"))

	fd = field.Enum("status").Descriptor()
	assert.Error(t, fd.Err)

	fd = field.Int("qty").Rounding(2).Descriptor()
	assert.EqualError(t, fd.Err, `field "qty": rounding is only valid for DECIMAL fields`)

	assert.Equal(t, field.TypeFloat, field.Float("f").Descriptor().Type)
	assert.Equal(t, field.TypeBool, field.Bool("b").Descriptor().Type)
	assert.Equal(t, field.TypeText, field.Text("t").Descriptor().Type)
	assert.Equal(t, field.TypeTimestamp, field.Timestamp("ts").Descriptor().Type)
	assert.Equal(t, field.TypeDatetime, field.Datetime("dt").Descriptor().Type)
	assert.Equal(t, field.TypeDate, field.Date("d").Descriptor().Type)
	assert.Equal(t, field.TypeTime, field.Time("tm").Descriptor().Type)
	assert.Equal(t, field.TypeJSON, field.JSON("j").Descriptor().Type)
	assert.Equal(t, field.TypeUUID, field.UUID("u").Descriptor().Type)
	assert.Equal(t, 10, field.Text("t").MaxLen(10).Descriptor().MaxLength)
	assert.Equal(t, "note", field.Text("t").Comment("note").Descriptor().Comment)
}

func TestDefaultValue(t *testing.T) {
	fd := field.Enum("status", "open").Default("open").Descriptor()
	assert.Equal(t, "open", fd.DefaultValue())

	n := 0
	fd = field.Int("seq").DefaultFunc(func() any { n++; return n }).Descriptor()
	assert.Equal(t, 1, fd.DefaultValue())
	assert.Equal(t, 2, fd.DefaultValue())
}

type stubValues map[string]any

func (s stubValues) Value(name string) any       { return s[name] }
func (s stubValues) SetValue(name string, v any) { s[name] = v }

func TestHookAdapters(t *testing.T) {
	ctx := context.Background()
	rec := stubValues{"first": "Ada", "last": "Lovelace"}
	errBad := errors.New("bad")

	fd := field.Varchar("full", 64).
		Validate(field.ValidatorFunc(func(_ context.Context, _ field.Values, v any) error {
			if v == "" {
				return errBad
			}
			return nil
		})).
		Scrub(field.ScrubberFunc(func(_ context.Context, _ field.Values, v any) (any, error) {
			return v.(string) + "!", nil
		})).
		GetHandler(field.GetHandlerFunc(func(_ context.Context, r field.Values) (any, error) {
			return r.Value("first").(string) + " " + r.Value("last").(string), nil
		})).
		SetHandler(field.SetHandlerFunc(func(_ context.Context, r field.Values, v any) error {
			r.SetValue("first", v)
			return nil
		})).
		Descriptor()

	assert.ErrorIs(t, fd.Validator.Validate(ctx, rec, ""), errBad)
	assert.NoError(t, fd.Validator.Validate(ctx, rec, "x"))

	v, err := fd.Scrubber.Scrub(ctx, rec, "x")
	require.NoError(t, err)
	assert.Equal(t, "x!", v)

	v, err = fd.GetHandler.Get(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", v)

	require.NoError(t, fd.SetHandler.Set(ctx, rec, "Grace"))
	assert.Equal(t, "Grace", rec["first"])
}

package recordkit

import (
	"encoding/json"
	"strconv"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/syssam/recordkit/dialect/sql"
	"github.com/syssam/recordkit/schema/field"
)

// scrub converts v into the SQL literal written for fd. Numbers and text
// are quoted; NULL and NOW() are emitted raw.
func (t *Type) scrub(fd *field.Descriptor, v any) (sql.Value, error) {
	if v == nil && !fd.NotNull {
		return sql.Null(), nil
	}
	loc := t.reg.loc
	switch fd.Type {
	case field.TypeInt:
		n := toInt64(v)
		if fd.Unsigned && n < 0 {
			n = -n
		}
		return sql.Quoted(strconv.FormatInt(n, 10)), nil
	case field.TypeDecimal:
		d, err := toDecimal(v)
		if err != nil {
			d = decimal.NewFromFloat(toFloat64(v))
		}
		if fd.Unsigned {
			d = d.Abs()
		}
		if fd.Rounding != nil {
			return sql.Quoted(d.StringFixed(int32(*fd.Rounding))), nil
		}
		f, _ := d.Float64()
		return sql.Quoted(strconv.FormatFloat(f, 'f', -1, 64)), nil
	case field.TypeFloat:
		f := toFloat64(v)
		if fd.Unsigned && f < 0 {
			f = -f
		}
		return sql.Quoted(strconv.FormatFloat(f, 'f', -1, 64)), nil
	case field.TypeBool:
		if truthy(v) {
			return sql.Quoted("1"), nil
		}
		return sql.Quoted("0"), nil
	case field.TypeTimestamp:
		if isNow(v) {
			return sql.Raw("NOW()"), nil
		}
		tm, ok := parseTime(v, loc)
		if floor := epochFloor(loc); !ok || tm.Before(floor) {
			tm = floor
		}
		return sql.Quoted(tm.In(loc).Format(timeLayout)), nil
	case field.TypeDatetime:
		if isZeroDatetime(v) {
			return sql.Null(), nil
		}
		tm, ok := parseTime(v, loc)
		if !ok {
			return sql.Value{}, NewValidationError(fd.Name, errNotDate)
		}
		return sql.Quoted(tm.In(loc).Format(timeLayout)), nil
	case field.TypeEnum:
		s := stringify(v)
		if !fd.HasValue(s) {
			return sql.Null(), nil
		}
		return t.quote(s), nil
	case field.TypeJSON:
		b, err := json.Marshal(v)
		if err != nil {
			return sql.Value{}, NewValidationError(fd.Name, err)
		}
		return t.quote(string(b)), nil
	case field.TypeUUID:
		u, err := uuid.Parse(stringify(v))
		if err != nil {
			return sql.Value{}, NewValidationError(fd.Name, errNotUUID)
		}
		return t.quote(u.String()), nil
	}
	return t.quote(stringify(v)), nil
}

// quote normalizes s to UTF-8 and renders it as an escaped string literal.
func (t *Type) quote(s string) sql.Value {
	esc := t.reg.esc
	return sql.Quoted(esc.Escape(esc.Normalize(s)))
}

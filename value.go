package recordkit

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/syssam/recordkit/schema/field"
)

// timeLayout is the layout of TIMESTAMP and DATETIME literals.
const timeLayout = "2006-01-02 15:04:05"

var (
	intPattern   = regexp.MustCompile(`^[0-9+-]*$`)
	floatPrefix  = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)
	errNotNull   = errors.New("NULL value not allowed")
	errNotInt    = errors.New("expects an integer value")
	errNotDate   = errors.New("expects a date/time value")
	errNotUUID   = errors.New("expects a UUID value")
	errNotNumber = errors.New("expects a decimal value")
)

// toInt64 converts v to an integer the lenient way: numeric strings are
// parsed up to their first non-numeric character and anything else is 0.
func toInt64(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return floatToInt(x)
	case float32:
		return floatToInt(float64(x))
	case decimal.Decimal:
		return x.IntPart()
	case time.Time:
		return x.Unix()
	case string:
		return parseIntPrefix(x)
	case []byte:
		return parseIntPrefix(string(x))
	case json.Number:
		return parseIntPrefix(x.String())
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if u := rv.Uint(); u <= math.MaxInt64 {
			return int64(u)
		}
		return math.MaxInt64
	case reflect.Float32, reflect.Float64:
		return floatToInt(rv.Float())
	}
	return parseIntPrefix(fmt.Sprint(v))
}

func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(math.Trunc(f))
}

func parseIntPrefix(s string) int64 {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if m := floatPrefix.FindString(s); m != "" {
		if strings.ContainsAny(m, ".eE") {
			f, _ := strconv.ParseFloat(m, 64)
			return floatToInt(f)
		}
		// Out of range values saturate.
		n, _ := strconv.ParseInt(m, 10, 64)
		return n
	}
	return 0
}

// toFloat64 converts v to a float the lenient way, like toInt64.
func toFloat64(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case bool:
		if x {
			return 1
		}
		return 0
	case float64:
		return x
	case float32:
		return float64(x)
	case decimal.Decimal:
		f, _ := x.Float64()
		return f
	case string:
		return parseFloatPrefix(x)
	case []byte:
		return parseFloatPrefix(string(x))
	case json.Number:
		return parseFloatPrefix(x.String())
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return float64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	}
	return parseFloatPrefix(fmt.Sprint(v))
}

func parseFloatPrefix(s string) float64 {
	s = strings.TrimSpace(s)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	f, _ := strconv.ParseFloat(floatPrefix.FindString(s), 64)
	return f
}

// toDecimal converts v to an exact decimal. Strings must be numeric.
func toDecimal(v any) (decimal.Decimal, error) {
	switch x := v.(type) {
	case nil:
		return decimal.Zero, nil
	case decimal.Decimal:
		return x, nil
	case bool:
		if x {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case string:
		return decimal.NewFromString(strings.TrimSpace(x))
	case []byte:
		return decimal.NewFromString(strings.TrimSpace(string(x)))
	case json.Number:
		return decimal.NewFromString(x.String())
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return decimal.NewFromInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(rv.Uint()), 0), nil
	case reflect.Float32, reflect.Float64:
		return decimal.NewFromFloat(rv.Float()), nil
	}
	return decimal.NewFromString(fmt.Sprint(v))
}

// truthy reports the boolean value of v: nil, false, zero numbers, "" and
// "0" and empty collections are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != "" && x != "0"
	case []byte:
		return len(x) > 0 && string(x) != "0"
	case decimal.Decimal:
		return !x.IsZero()
	case time.Time:
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// stringify returns the text form of v.
func stringify(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case decimal.Decimal:
		return x.String()
	case time.Time:
		return x.Format(timeLayout)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// parseTime interprets v as a point in time in loc. Strings are parsed in
// any of the common date formats; integers are Unix seconds.
func parseTime(v any, loc *time.Location) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.In(loc), true
	case *time.Time:
		if x == nil {
			return time.Time{}, false
		}
		return x.In(loc), true
	case string:
		return parseTimeString(x, loc)
	case []byte:
		return parseTimeString(string(x), loc)
	case int64:
		return time.Unix(x, 0).In(loc), true
	case int:
		return time.Unix(int64(x), 0).In(loc), true
	}
	return time.Time{}, false
}

func parseTimeString(s string, loc *time.Location) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t.In(loc), true
}

// epochFloor is the lowest TIMESTAMP value stored: one second past the
// Unix epoch.
func epochFloor(loc *time.Location) time.Time {
	return time.Unix(1, 0).In(loc)
}

func isNow(v any) bool {
	s, ok := v.(string)
	return ok && strings.EqualFold(strings.TrimSpace(s), "NOW()")
}

// isZeroDatetime reports whether v means "no date": nil, zero, empty or an
// all-zero date.
func isZeroDatetime(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case time.Time:
		return x.IsZero()
	case *time.Time:
		return x == nil || x.IsZero()
	case string, []byte:
		s := strings.TrimSpace(stringify(x))
		return s == "" || s == "0" || s == "0000-00-00" || s == "0000-00-00 00:00:00"
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	}
	return false
}

// intDigits returns the number of integer digits of d, sign excluded.
func intDigits(d decimal.Decimal) int {
	return len(d.Truncate(0).Abs().String())
}

// absValue returns the absolute value of a canonical numeric value.
func absValue(v any) any {
	switch x := v.(type) {
	case int64:
		if x < 0 {
			return -x
		}
	case float64:
		return math.Abs(x)
	case decimal.Decimal:
		return x.Abs()
	}
	return v
}

// canonical converts a non-nil value to the in-memory form of fd's type.
func (t *Type) canonical(fd *field.Descriptor, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	loc := t.reg.loc
	switch fd.Type {
	case field.TypeInt:
		return toInt64(v), nil
	case field.TypeDecimal:
		d, err := toDecimal(v)
		if err != nil {
			return nil, errNotNumber
		}
		return d, nil
	case field.TypeFloat:
		return toFloat64(v), nil
	case field.TypeBool:
		return truthy(v), nil
	case field.TypeTimestamp:
		if isNow(v) {
			return "NOW()", nil
		}
		tm, ok := parseTime(v, loc)
		if floor := epochFloor(loc); !ok || tm.Before(floor) {
			return floor, nil
		}
		return tm, nil
	case field.TypeDatetime:
		if isZeroDatetime(v) {
			return nil, nil
		}
		tm, ok := parseTime(v, loc)
		if !ok {
			return nil, errNotDate
		}
		return tm, nil
	case field.TypeJSON:
		return v, nil
	case field.TypeUUID:
		u, err := uuid.Parse(stringify(v))
		if err != nil {
			return nil, errNotUUID
		}
		return u.String(), nil
	}
	return stringify(v), nil
}

// coerce runs the built-in checks of a field on a non-nil value and
// returns the value to store.
func (t *Type) coerce(fd *field.Descriptor, v any) (any, error) {
	switch fd.Type {
	case field.TypeEnum:
		if !fd.HasValue(stringify(v)) {
			return nil, fmt.Errorf("expects one of the following values: %s", strings.Join(fd.Values, ", "))
		}
	case field.TypeInt:
		if !intPattern.MatchString(stringify(v)) {
			return nil, errNotInt
		}
	}
	if fd.MaxLength > 0 {
		if n := len([]rune(stringify(v))); n > fd.MaxLength {
			return nil, fmt.Errorf("value of length %d exceeds maximum field length of %d", n, fd.MaxLength)
		}
	}
	val, err := t.canonical(fd, v)
	if err != nil {
		return nil, err
	}
	if d, ok := val.(decimal.Decimal); ok && fd.Decimal != nil {
		// Rounding can carry into a new integer digit, so the budget is
		// checked on the rounded value.
		d = d.Round(int32(fd.Decimal.Right))
		if intDigits(d) > fd.Decimal.Left {
			return nil, fmt.Errorf("value exceeds left digit limit of %d", fd.Decimal.Left)
		}
		val = d
	}
	if fd.Unsigned {
		val = absValue(val)
	}
	return val, nil
}

// decode converts a value read from the store to the in-memory form of
// fd's type. No set-time checks are applied.
func (t *Type) decode(fd *field.Descriptor, raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	if b, ok := raw.([]byte); ok {
		raw = string(b)
	}
	loc := t.reg.loc
	switch fd.Type {
	case field.TypeJSON:
		s, ok := raw.(string)
		if !ok {
			return raw, nil
		}
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		var v any
		if err := json.Unmarshal([]byte(t.reg.esc.Normalize(s)), &v); err != nil {
			return nil, fmt.Errorf("decode JSON field %q: %w", fd.Name, err)
		}
		return v, nil
	case field.TypeTimestamp, field.TypeDatetime:
		if isZeroDatetime(raw) {
			return nil, nil
		}
		tm, ok := parseTime(raw, loc)
		if !ok {
			return nil, fmt.Errorf("decode field %q: %w", fd.Name, errNotDate)
		}
		return tm, nil
	case field.TypeDate:
		if tm, ok := raw.(time.Time); ok {
			return tm.Format("2006-01-02"), nil
		}
	case field.TypeTime:
		if tm, ok := raw.(time.Time); ok {
			return tm.Format("15:04:05"), nil
		}
	}
	return t.canonical(fd, raw)
}

// equalValues compares two canonical values.
func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case decimal.Decimal:
		y, ok := b.(decimal.Decimal)
		return ok && x.Equal(y)
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	}
	return reflect.DeepEqual(a, b)
}

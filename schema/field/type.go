package field

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// A Type represents a declared column type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeInt
	TypeDecimal
	TypeFloat
	TypeBool
	TypeVarchar
	TypeText
	TypeEnum
	TypeTimestamp
	TypeDatetime
	TypeDate
	TypeTime
	TypeJSON
	TypeUUID
	endTypes
)

var typeNames = [...]string{
	TypeInvalid:   "invalid",
	TypeInt:       "INT",
	TypeDecimal:   "DECIMAL",
	TypeFloat:     "FLOAT",
	TypeBool:      "BOOLEAN",
	TypeVarchar:   "VARCHAR",
	TypeText:      "TEXT",
	TypeEnum:      "ENUM",
	TypeTimestamp: "TIMESTAMP",
	TypeDatetime:  "DATETIME",
	TypeDate:      "DATE",
	TypeTime:      "TIME",
	TypeJSON:      "JSON",
	TypeUUID:      "UUID",
}

// String returns the declared name of the type.
func (t Type) String() string {
	if t < endTypes {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is known.
func (t Type) Valid() bool {
	return t > TypeInvalid && t < endTypes
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t == TypeInt || t == TypeDecimal || t == TypeFloat
}

// Temporal reports if the given type stores an instant.
func (t Type) Temporal() bool {
	return t == TypeTimestamp || t == TypeDatetime
}

// DecimalFormat is the digit budget of a DECIMAL(p,s) column.
type DecimalFormat struct {
	// Left is the number of integer digits (p-s).
	Left int
	// Right is the number of fractional digits (s).
	Right int
}

// Info is the result of parsing a declared type string.
type Info struct {
	Type      Type
	MaxLength int
	Decimal   *DecimalFormat
}

var (
	varcharRe = regexp.MustCompile(`(?i)^VARCHAR\s*\(\s*(\d+)\s*\)$`)
	decimalRe = regexp.MustCompile(`(?i)^DECIMAL\s*\(\s*(-?\d+)\s*,\s*(-?\d+)\s*\)$`)
)

// ParseType parses a declared type such as "INT", "VARCHAR(64)" or
// "DECIMAL(8,2)". Type names are case-insensitive.
func ParseType(s string) (Info, error) {
	s = strings.TrimSpace(s)
	if m := varcharRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return Info{}, fmt.Errorf("field: invalid VARCHAR length in %q: %w", s, err)
		}
		return Info{Type: TypeVarchar, MaxLength: n}, nil
	}
	if m := decimalRe.FindStringSubmatch(s); m != nil {
		p, err := strconv.Atoi(m[1])
		if err != nil {
			return Info{}, fmt.Errorf("field: invalid DECIMAL precision in %q: %w", s, err)
		}
		d, err := strconv.Atoi(m[2])
		if err != nil {
			return Info{}, fmt.Errorf("field: invalid DECIMAL scale in %q: %w", s, err)
		}
		format, err := NewDecimalFormat(p, d)
		if err != nil {
			return Info{}, err
		}
		return Info{Type: TypeDecimal, Decimal: format}, nil
	}
	switch strings.ToUpper(s) {
	case "INT", "INTEGER":
		return Info{Type: TypeInt}, nil
	case "DECIMAL":
		return Info{Type: TypeDecimal}, nil
	case "FLOAT", "DOUBLE":
		return Info{Type: TypeFloat}, nil
	case "BOOLEAN", "BOOL":
		return Info{Type: TypeBool}, nil
	case "VARCHAR":
		return Info{Type: TypeVarchar}, nil
	case "TEXT":
		return Info{Type: TypeText}, nil
	case "ENUM":
		return Info{Type: TypeEnum}, nil
	case "TIMESTAMP":
		return Info{Type: TypeTimestamp}, nil
	case "DATETIME":
		return Info{Type: TypeDatetime}, nil
	case "DATE":
		return Info{Type: TypeDate}, nil
	case "TIME":
		return Info{Type: TypeTime}, nil
	case "JSON":
		return Info{Type: TypeJSON}, nil
	case "UUID":
		return Info{Type: TypeUUID}, nil
	}
	return Info{}, fmt.Errorf("field: unknown type %q", s)
}

// NewDecimalFormat returns the format of a DECIMAL(precision,scale) column.
func NewDecimalFormat(precision, scale int) (*DecimalFormat, error) {
	if precision < 0 || scale < 0 || scale > precision {
		return nil, fmt.Errorf("field: invalid DECIMAL format (%d,%d)", precision, scale)
	}
	return &DecimalFormat{Left: precision - scale, Right: scale}, nil
}

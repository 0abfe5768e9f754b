package sqlite

import (
	"fmt"
	"math"
	"time"
)

// typeZeroBlob marks a bind-only Value carrying a zero-blob length request.
// It is produced by ZeroBlob and consumed by the bind path; column reads
// never yield it.
const typeZeroBlob ColumnType = -1

// Value is one cell of data exchanged with the engine: NULL, a 64-bit
// integer, a 64-bit float, UTF-8 text, or a byte blob. Values read from a
// result row own their payload (text and blob bytes are copied out of engine
// memory before the Value is returned), so a Value never dangles.
//
// The zero Value behaves as NULL.
type Value struct {
	kind ColumnType
	n    int64
	f    float64
	s    string
	b    []byte
}

func NullValue() Value           { return Value{kind: SQLITE_NULL} }
func IntegerValue(v int64) Value { return Value{kind: SQLITE_INTEGER, n: v} }
func FloatValue(v float64) Value { return Value{kind: SQLITE_FLOAT, f: v} }
func TextValue(s string) Value   { return Value{kind: SQLITE_TEXT, s: s} }
func BlobValue(b []byte) Value   { return Value{kind: SQLITE_BLOB, b: b} }

// Kind reports the value's datatype code.
func (v Value) Kind() ColumnType {
	switch v.kind {
	case 0:
		return SQLITE_NULL
	case typeZeroBlob:
		return SQLITE_BLOB
	}
	return v.kind
}

func (v Value) IsNull() bool { return v.Kind() == SQLITE_NULL }

// Int64 returns the integer payload, or 0 when the value is not an INTEGER.
// There is no cross-kind coercion; use Kind to discriminate first.
func (v Value) Int64() int64 {
	if v.kind != SQLITE_INTEGER {
		return 0
	}
	return v.n
}

// Float returns the float payload, or 0 when the value is not a FLOAT.
func (v Value) Float() float64 {
	if v.kind != SQLITE_FLOAT {
		return 0
	}
	return v.f
}

// Text returns the text payload, or "" when the value is not TEXT.
func (v Value) Text() string {
	if v.kind != SQLITE_TEXT {
		return ""
	}
	return v.s
}

// Blob returns the blob payload, or nil when the value is not a BLOB. A
// zero-length blob read from a row is a non-nil empty slice, distinct from
// NULL.
func (v Value) Blob() []byte {
	if v.kind != SQLITE_BLOB {
		return nil
	}
	return v.b
}

func (v Value) String() string {
	switch v.kind {
	case SQLITE_INTEGER:
		return fmt.Sprintf("INTEGER(%d)", v.n)
	case SQLITE_FLOAT:
		return fmt.Sprintf("FLOAT(%g)", v.f)
	case SQLITE_TEXT:
		return fmt.Sprintf("TEXT(%q)", v.s)
	case SQLITE_BLOB:
		return fmt.Sprintf("BLOB(%d bytes)", len(v.b))
	case typeZeroBlob:
		return fmt.Sprintf("ZEROBLOB(%d)", v.n)
	default:
		return "NULL"
	}
}

// BindValue makes Value its own Binder.
func (v Value) BindValue() (Value, error) { return v, nil }

// ZeroBlob binds as a zero-filled blob of the given length, allocated by the
// engine. Useful to reserve space for incremental blob I/O.
type ZeroBlob int

func (z ZeroBlob) BindValue() (Value, error) {
	return Value{kind: typeZeroBlob, n: int64(z)}, nil
}

// Binder is the capability an application type implements to be usable as a
// bound parameter.
type Binder interface {
	BindValue() (Value, error)
}

// NamedArgs maps parameter names, including their ":"/"@"/"$" prefix, to
// values for named binding.
type NamedArgs map[string]any

// bindValueOf converts a native Go value to a Value. Integer conversions are
// lossless: a uint64 beyond the int64 domain is an error, never wrapped or
// capped.
func bindValueOf(arg any) (Value, error) {
	switch v := arg.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return v, nil
	case bool:
		if v {
			return IntegerValue(1), nil
		}
		return IntegerValue(0), nil
	case int:
		return IntegerValue(int64(v)), nil
	case int8:
		return IntegerValue(int64(v)), nil
	case int16:
		return IntegerValue(int64(v)), nil
	case int32:
		return IntegerValue(int64(v)), nil
	case int64:
		return IntegerValue(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d", ErrIntOverflow, v)
		}
		return IntegerValue(int64(v)), nil
	case uint8:
		return IntegerValue(int64(v)), nil
	case uint16:
		return IntegerValue(int64(v)), nil
	case uint32:
		return IntegerValue(int64(v)), nil
	case uint64:
		if v > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d", ErrIntOverflow, v)
		}
		return IntegerValue(int64(v)), nil
	case float32:
		return FloatValue(float64(v)), nil
	case float64:
		return FloatValue(v), nil
	case string:
		return TextValue(v), nil
	case []byte:
		return BlobValue(v), nil
	case time.Time:
		return TextValue(v.Format(time.RFC3339Nano)), nil
	case Binder:
		return v.BindValue()
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrBindType, arg)
	}
}

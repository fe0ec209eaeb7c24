package wire

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind is the variant held by a Value.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindBool
	KindNumber
	KindText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "ABSENT"
	case KindBool:
		return "BOOL"
	case KindNumber:
		return "NUMBER"
	case KindText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// Value is a property or parameter value. The zero Value is absent.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
}

// Absent returns the absent value.
func Absent() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, s: s} }

// ValueOf converts a decoded JSON or CBOR scalar into a Value.
func ValueOf(v any) (Value, error) {
	switch x := v.(type) {
	case nil:
		return Absent(), nil
	case Value:
		return x, nil
	case bool:
		return Bool(x), nil
	case float64:
		return Number(x), nil
	case float32:
		return Number(float64(x)), nil
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return Value{}, err
		}
		return Number(f), nil
	case string:
		return Text(x), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type %T", v)
	}
}

// ParseTextValue interprets a text wire value: "true" and "false" are
// booleans, anything parseable as a finite float is a number, the rest
// (including "inf" and "NaN") is text.
func ParseTextValue(s string) Value {
	switch s {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return Number(f)
	}
	return Text(s)
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent returns true if v carries no value.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsText returns the text held by v.
func (v Value) AsText() (string, bool) { return v.s, v.kind == KindText }

// Any returns v as nil, bool, float64 or string.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindText:
		return v.s
	default:
		return nil
	}
}

// String formats v the way the text wire carries it. Absent values format
// as the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindText:
		return v.s
	default:
		return ""
	}
}

// Equal reports whether v and o hold the same variant and value.
func (v Value) Equal(o Value) bool {
	return v == o
}

// MarshalCBOR encodes numbers as float64, absent values as null.
func (v Value) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal(v.Any())
}

// UnmarshalCBOR decodes a CBOR scalar or null.
func (v *Value) UnmarshalCBOR(data []byte) error {
	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

// MarshalJSON encodes v as a JSON scalar or null.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes a JSON scalar or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	val, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = val
	return nil
}

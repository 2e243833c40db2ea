package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the scalar carried by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindString
	KindInt
	KindFloat
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a node property value. It is a closed variant over string, int,
// float and bool; the zero Value is invalid.
type Value struct {
	kind Kind
	s    string
	i    int64
	f    float64
	b    bool
}

func StringValue(s string) Value { return Value{kind: KindString, s: s} }

func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }

func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }

func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// ValueOf converts loosely typed external data (decoded YAML/JSON, builder
// arguments) into a Value. It returns false for unsupported types.
func ValueOf(raw any) (Value, bool) {
	switch v := raw.(type) {
	case Value:
		return v, v.kind != KindInvalid
	case string:
		return StringValue(v), true
	case bool:
		return BoolValue(v), true
	case int:
		return IntValue(int64(v)), true
	case int8:
		return IntValue(int64(v)), true
	case int16:
		return IntValue(int64(v)), true
	case int32:
		return IntValue(int64(v)), true
	case int64:
		return IntValue(v), true
	case uint:
		return IntValue(int64(v)), true
	case uint8:
		return IntValue(int64(v)), true
	case uint16:
		return IntValue(int64(v)), true
	case uint32:
		return IntValue(int64(v)), true
	case uint64:
		if v > math.MaxInt64 {
			return FloatValue(float64(v)), true
		}
		return IntValue(int64(v)), true
	case float32:
		return FloatValue(float64(v)), true
	case float64:
		return FloatValue(v), true
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return IntValue(i), true
		}
		if f, err := v.Float64(); err == nil {
			return FloatValue(f), true
		}
		return StringValue(v.String()), true
	case fmt.Stringer:
		return StringValue(v.String()), true
	default:
		return Value{}, false
	}
}

// Kind returns the scalar kind.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v carries a value.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsString renders any valid value as text.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindInt:
		return strconv.FormatInt(v.i, 10), true
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	default:
		return "", false
	}
}

// AsInt coerces to an integer. Floats must be integral; strings must parse.
func (v Value) AsInt() (int64, bool) {
	switch v.kind {
	case KindInt:
		return v.i, true
	case KindFloat:
		if v.f != math.Trunc(v.f) || math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return 0, false
		}
		return int64(v.f), true
	case KindString:
		s := strings.TrimSpace(v.s)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && f == math.Trunc(f) {
			return int64(f), true
		}
		return 0, false
	default:
		return 0, false
	}
}

// AsFloat coerces to a float.
func (v Value) AsFloat() (float64, bool) {
	switch v.kind {
	case KindFloat:
		return v.f, true
	case KindInt:
		return float64(v.i), true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsBool coerces to a bool. Integers are true when non-zero.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.b, true
	case KindInt:
		return v.i != 0, true
	case KindString:
		b, err := strconv.ParseBool(strings.TrimSpace(v.s))
		return b, err == nil
	default:
		return false, false
	}
}

func (v Value) String() string {
	s, _ := v.AsString()
	return s
}

// MarshalJSON encodes the value as its bare scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a bare scalar, keeping integers as KindInt.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*v = Value{}
		return nil
	}
	parsed, ok := ValueOf(raw)
	if !ok {
		return fmt.Errorf("unsupported property value %s", string(data))
	}
	*v = parsed
	return nil
}

// Scalar constrains the types a property can be read as.
type Scalar interface {
	string | int | int64 | float64 | bool
}

// Properties maps case-folded parameter names to values.
type Properties map[string]Value

// NewProperties builds a property bag from loosely typed data. Entries whose
// values cannot be represented are dropped.
func NewProperties(raw map[string]any) Properties {
	props := make(Properties, len(raw))
	for name, rv := range raw {
		if v, ok := ValueOf(rv); ok {
			props[FoldID(name)] = v
		}
	}
	return props
}

// UnmarshalJSON folds the authored key spelling so lookups stay
// case-insensitive. When two keys fold to the same name the last one wins.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var raw map[string]Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		*p = nil
		return nil
	}
	out := make(Properties, len(raw))
	for name, v := range raw {
		out[FoldID(name)] = v
	}
	*p = out
	return nil
}

// Set stores a value under a case-insensitive name.
func (p Properties) Set(name string, v Value) {
	p[FoldID(name)] = v
}

// Lookup returns the raw value for a case-insensitive name.
func (p Properties) Lookup(name string) (Value, bool) {
	v, ok := p[FoldID(name)]
	return v, ok && v.IsValid()
}

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	out := make(Properties, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Get reads a property coerced to T, returning def when the property is absent
// or cannot be coerced.
func Get[T Scalar](p Properties, name string, def T) T {
	v, ok := p.Lookup(name)
	if !ok {
		return def
	}
	var out any
	switch any(def).(type) {
	case string:
		s, ok := v.AsString()
		if !ok {
			return def
		}
		out = s
	case int:
		i, ok := v.AsInt()
		if !ok || i > math.MaxInt || i < math.MinInt {
			return def
		}
		out = int(i)
	case int64:
		i, ok := v.AsInt()
		if !ok {
			return def
		}
		out = i
	case float64:
		f, ok := v.AsFloat()
		if !ok {
			return def
		}
		out = f
	case bool:
		b, ok := v.AsBool()
		if !ok {
			return def
		}
		out = b
	default:
		return def
	}
	if t, ok := out.(T); ok {
		return t
	}
	return def
}

func (p Properties) String(name, def string) string { return Get(p, name, def) }

func (p Properties) Int(name string, def int) int { return Get(p, name, def) }

func (p Properties) Float(name string, def float64) float64 { return Get(p, name, def) }

func (p Properties) Bool(name string, def bool) bool { return Get(p, name, def) }

package mvt

import (
	"fmt"

	"github.com/MeKo-Tech/vectortile/internal/pbf"
)

// ValueKind discriminates the typed variants of a layer value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueFloat
	ValueDouble
	ValueInt
	ValueUint
	ValueSint
	ValueBool
)

// Value is one entry in a layer's values dictionary. The struct is
// comparable so encoders can intern values through a map.
type Value struct {
	Kind ValueKind
	Str  string
	F32  float32
	F64  float64
	I64  int64
	U64  uint64
	B    bool
}

// StringValue wraps a string.
func StringValue(s string) Value { return Value{Kind: ValueString, Str: s} }

// DoubleValue wraps a float64.
func DoubleValue(f float64) Value { return Value{Kind: ValueDouble, F64: f} }

// FloatValue wraps a float32.
func FloatValue(f float32) Value { return Value{Kind: ValueFloat, F32: f} }

// IntValue wraps an int64.
func IntValue(i int64) Value { return Value{Kind: ValueInt, I64: i} }

// UintValue wraps a uint64.
func UintValue(u uint64) Value { return Value{Kind: ValueUint, U64: u} }

// SintValue wraps a zig-zag encoded int64.
func SintValue(i int64) Value { return Value{Kind: ValueSint, I64: i} }

// BoolValue wraps a bool.
func BoolValue(b bool) Value { return Value{Kind: ValueBool, B: b} }

// FromNative converts a property value from its Go representation.
// Unsupported types fall back to their string rendering so no
// attribute is silently dropped.
func FromNative(v interface{}) Value {
	switch x := v.(type) {
	case string:
		return StringValue(x)
	case float64:
		return DoubleValue(x)
	case float32:
		return FloatValue(x)
	case int:
		return IntValue(int64(x))
	case int64:
		return IntValue(x)
	case int32:
		return IntValue(int64(x))
	case uint:
		return UintValue(uint64(x))
	case uint64:
		return UintValue(x)
	case uint32:
		return UintValue(uint64(x))
	case bool:
		return BoolValue(x)
	default:
		return StringValue(fmt.Sprintf("%v", v))
	}
}

// Native returns the value as the Go type used in decoded feature
// properties.
func (v Value) Native() interface{} {
	switch v.Kind {
	case ValueString:
		return v.Str
	case ValueFloat:
		return float64(v.F32)
	case ValueDouble:
		return v.F64
	case ValueInt, ValueSint:
		return v.I64
	case ValueUint:
		return v.U64
	case ValueBool:
		return v.B
	default:
		return nil
	}
}

// encode appends the value message body to w.
func (v Value) encode(w *pbf.Writer) {
	switch v.Kind {
	case ValueString:
		w.String(TagValueString, v.Str)
	case ValueFloat:
		w.Float(TagValueFloat, v.F32)
	case ValueDouble:
		w.Double(TagValueDouble, v.F64)
	case ValueInt:
		w.Int64(TagValueInt, v.I64)
	case ValueUint:
		w.Varint(TagValueUint, v.U64)
	case ValueSint:
		w.Sint64(TagValueSint, v.I64)
	case ValueBool:
		w.Bool(TagValueBool, v.B)
	}
}

// decodeValue parses a value message body.
func decodeValue(data []byte) (Value, error) {
	r := pbf.NewReader(data)
	var v Value
	for {
		ok, err := r.Next()
		if err != nil {
			return v, err
		}
		if !ok {
			return v, nil
		}
		switch r.Tag() {
		case TagValueString:
			s, err := r.String()
			if err != nil {
				return v, err
			}
			v = StringValue(s)
		case TagValueFloat:
			f, err := r.Float()
			if err != nil {
				return v, err
			}
			v = FloatValue(f)
		case TagValueDouble:
			f, err := r.Double()
			if err != nil {
				return v, err
			}
			v = DoubleValue(f)
		case TagValueInt:
			u, err := r.Varint()
			if err != nil {
				return v, err
			}
			v = IntValue(int64(u))
		case TagValueUint:
			u, err := r.Varint()
			if err != nil {
				return v, err
			}
			v = UintValue(u)
		case TagValueSint:
			i, err := r.Sint64()
			if err != nil {
				return v, err
			}
			v = SintValue(i)
		case TagValueBool:
			b, err := r.Bool()
			if err != nil {
				return v, err
			}
			v = BoolValue(b)
		default:
			if err := r.Skip(); err != nil {
				return v, err
			}
		}
	}
}

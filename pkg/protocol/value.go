package protocol

import (
	"fmt"
	"math"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt32
	KindDouble
	KindString
	KindArray
	KindMap
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindInt32:
		return "Int32"
	case KindDouble:
		return "Double"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindMap:
		return "Map"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Value is the tagged union exchanged across the channel. Only the field
// matching Kind is meaningful. The zero Value is Null.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int32
	Float float64
	Str   string
	Items []Value // KindArray
	Pairs []Pair  // KindMap, in wire order
}

// Pair is one map entry. Keys may be any Value.
type Pair struct {
	Key   Value
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Int32 returns a 32-bit integer value.
func Int32(i int32) Value { return Value{Kind: KindInt32, Int: i} }

// Double returns a 64-bit float value.
func Double(f float64) Value { return Value{Kind: KindDouble, Float: f} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Array returns an array value holding items.
func Array(items ...Value) Value { return Value{Kind: KindArray, Items: items} }

// Map returns a map value holding pairs in the given order.
func Map(pairs ...Pair) Value { return Value{Kind: KindMap, Pairs: pairs} }

// Number applies the numeric policy of the control layer: integral values
// that fit in 32 bits become Int32, everything else (fractions, magnitudes
// beyond int32, -0, NaN, infinities) stays Double.
func Number(f float64) Value {
	if f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32 && !(f == 0 && math.Signbit(f)) {
		return Int32(int32(f))
	}
	return Double(f)
}

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// Len returns the element count of an Array or Map, and 0 otherwise.
func (v Value) Len() int {
	switch v.Kind {
	case KindArray:
		return len(v.Items)
	case KindMap:
		return len(v.Pairs)
	}
	return 0
}

// Get returns the value stored under the string key in a Map.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != KindMap {
		return Value{}, false
	}
	for _, p := range v.Pairs {
		if p.Key.Kind == KindString && p.Key.Str == key {
			return p.Value, true
		}
	}
	return Value{}, false
}

// AsNumber returns the numeric value of an Int32 or Double.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case KindInt32:
		return float64(v.Int), true
	case KindDouble:
		return v.Float, true
	}
	return 0, false
}

// Equal reports whether v and o hold the same kind and content. Doubles are
// compared bit for bit so NaN equals NaN and 0 differs from -0.
func (v Value) Equal(o Value) bool {
	if v.Kind != o.Kind {
		return false
	}
	switch v.Kind {
	case KindNull:
		return true
	case KindBool:
		return v.Bool == o.Bool
	case KindInt32:
		return v.Int == o.Int
	case KindDouble:
		return math.Float64bits(v.Float) == math.Float64bits(o.Float)
	case KindString:
		return v.Str == o.Str
	case KindArray:
		if len(v.Items) != len(o.Items) {
			return false
		}
		for i := range v.Items {
			if !v.Items[i].Equal(o.Items[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.Pairs) != len(o.Pairs) {
			return false
		}
		for i := range v.Pairs {
			if !v.Pairs[i].Key.Equal(o.Pairs[i].Key) || !v.Pairs[i].Value.Equal(o.Pairs[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// Interface converts v to plain Go values: nil, bool, int32, float64, string,
// []any, and map[any]any for maps (map[string]any when every key is a string).
func (v Value) Interface() any {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindInt32:
		return v.Int
	case KindDouble:
		return v.Float
	case KindString:
		return v.Str
	case KindArray:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		stringKeys := true
		for _, p := range v.Pairs {
			if p.Key.Kind != KindString {
				stringKeys = false
				break
			}
		}
		if stringKeys {
			out := make(map[string]any, len(v.Pairs))
			for _, p := range v.Pairs {
				out[p.Key.Str] = p.Value.Interface()
			}
			return out
		}
		out := make(map[any]any, len(v.Pairs))
		for _, p := range v.Pairs {
			k := p.Key.Interface()
			if p.Key.Kind == KindArray || p.Key.Kind == KindMap {
				// slices and maps are not comparable
				k = fmt.Sprint(k)
			}
			out[k] = p.Value.Interface()
		}
		return out
	}
	return nil
}

// FromGo converts a plain Go value to a Value. Integers and floats follow
// the Number policy. Map iteration order is not stable, so callers that need
// deterministic bytes should build a Map directly.
func FromGo(x any) (Value, error) {
	switch val := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Number(float64(val)), nil
	case int8:
		return Int32(int32(val)), nil
	case int16:
		return Int32(int32(val)), nil
	case int32:
		return Int32(val), nil
	case int64:
		return Number(float64(val)), nil
	case uint8:
		return Int32(int32(val)), nil
	case uint16:
		return Int32(int32(val)), nil
	case uint32:
		return Number(float64(val)), nil
	case float32:
		return Number(float64(val)), nil
	case float64:
		return Number(val), nil
	case string:
		return String(val), nil
	case []Value:
		return Array(val...), nil
	case []any:
		items := make([]Value, len(val))
		for i, item := range val {
			v, err := FromGo(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = v
		}
		return Array(items...), nil
	case map[string]any:
		pairs := make([]Pair, 0, len(val))
		for k, item := range val {
			v, err := FromGo(item)
			if err != nil {
				return Value{}, err
			}
			pairs = append(pairs, Pair{Key: String(k), Value: v})
		}
		return Map(pairs...), nil
	default:
		return Value{}, &MalformedMessageError{
			Reason: ReasonUnsupportedKind,
			Err:    fmt.Errorf("cannot encode %T", x),
		}
	}
}

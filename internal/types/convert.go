package types

import (
	"fmt"
	"maps"
	"slices"
)

// FromGo converts a plain Go value, as produced by a YAML or JSON decoder,
// into a Value. Map keys are sorted so objects have a stable order.
func FromGo(x any) (Value, error) {
	switch x := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return x.Clone(), nil
	case bool:
		return Bool(x), nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint64:
		if x > 1<<63-1 {
			return Value{}, fmt.Errorf("%w: %d overflows int", ErrTypeMismatch, x)
		}
		return Int(int64(x)), nil
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case string:
		return Str(x), nil
	case []string:
		elems := make([]Value, len(x))
		for i, s := range x {
			elems[i] = Str(s)
		}
		return NewArray(elems), nil
	case []any:
		elems := make([]Value, len(x))
		for i, e := range x {
			v, err := FromGo(e)
			if err != nil {
				return Value{}, err
			}
			elems[i] = v
		}
		return NewArray(elems), nil
	case map[string]any:
		obj := NewObject()
		for _, k := range slices.Sorted(maps.Keys(x)) {
			v, err := FromGo(x[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			obj.Set(k, v)
		}
		return ObjectOf(obj), nil
	}
	return Value{}, fmt.Errorf("%w: cannot convert %T", ErrTypeMismatch, x)
}

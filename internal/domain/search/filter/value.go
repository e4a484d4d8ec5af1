package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"

	"github.com/kailas-cloud/hybridsync/internal/domain"
)

// Kind tags the variant held by a Value.
type Kind uint8

// Value variants.
const (
	KindAbsent Kind = iota
	KindLeaf
	KindNested
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindNested:
		return "nested"
	case KindSequence:
		return "sequence"
	default:
		return "absent"
	}
}

// Value is a metadata query node: a scalar leaf, a nested mapping or a sequence.
// The zero Value is absent and compiles to no filter.
type Value struct {
	kind   Kind
	scalar any
	fields map[string]Value
	items  []Value
}

// Leaf creates a scalar node. Integers normalize to int64 and floats to float64.
func Leaf(v any) (Value, error) {
	s, err := normalizeScalar(v)
	if err != nil {
		return Value{}, err
	}
	return Value{kind: KindLeaf, scalar: s}, nil
}

// Nested creates a mapping node.
func Nested(fields map[string]Value) Value {
	return Value{kind: KindNested, fields: fields}
}

// Sequence creates a list node.
func Sequence(items ...Value) Value {
	return Value{kind: KindSequence, items: items}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// Scalar returns the leaf value (string, bool, int64 or float64).
func (v Value) Scalar() any { return v.scalar }

// Fields returns the mapping children.
func (v Value) Fields() map[string]Value { return v.fields }

// Items returns the sequence children.
func (v Value) Items() []Value { return v.items }

// Keys returns mapping keys in sorted order.
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Parse converts a decoded JSON/YAML query into a Value. The top level must be
// a mapping or nil; nil yields the absent Value.
func Parse(raw any) (Value, error) {
	if raw == nil {
		return Value{}, nil
	}
	if !isMapping(raw) {
		return Value{}, fmt.Errorf("%w: top level must be a mapping, got %T", domain.ErrUnsupportedFilterValue, raw)
	}
	return FromAny(raw)
}

// FromAny converts an arbitrary decoded value into a Value.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, child := range t {
			cv, err := FromAny(child)
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			fields[k] = cv
		}
		return Nested(fields), nil
	case []any:
		items := make([]Value, 0, len(t))
		for i, child := range t {
			cv, err := FromAny(child)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, cv)
		}
		return Sequence(items...), nil
	case Value:
		return t, nil
	}

	// Typed maps and slices (map[string]string, []string, ...) from Go callers.
	rv := reflect.ValueOf(raw)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("%w: map key type %s", domain.ErrUnsupportedFilterValue, rv.Type().Key())
		}
		fields := make(map[string]Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			cv, err := FromAny(iter.Value().Interface())
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", iter.Key().String(), err)
			}
			fields[iter.Key().String()] = cv
		}
		return Nested(fields), nil
	case reflect.Slice, reflect.Array:
		items := make([]Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			cv, err := FromAny(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, cv)
		}
		return Sequence(items...), nil
	}

	return Leaf(raw)
}

func isMapping(raw any) bool {
	if _, ok := raw.(map[string]any); ok {
		return true
	}
	if v, ok := raw.(Value); ok {
		return v.kind == KindNested || v.kind == KindAbsent
	}
	rv := reflect.ValueOf(raw)
	return rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String
}

func normalizeScalar(v any) (any, error) {
	switch t := v.(type) {
	case string, bool, int64, float64:
		return t, nil
	case int:
		return int64(t), nil
	case int8:
		return int64(t), nil
	case int16:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint8:
		return int64(t), nil
	case uint16:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case uint:
		return uintToInt(uint64(t))
	case uint64:
		return uintToInt(t)
	case float32:
		return float64(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: number %q", domain.ErrUnsupportedFilterValue, t.String())
		}
		return f, nil
	case nil:
		return nil, fmt.Errorf("%w: null", domain.ErrUnsupportedFilterValue)
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnsupportedFilterValue, v)
	}
}

func uintToInt(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("%w: integer %d overflows int64", domain.ErrUnsupportedFilterValue, u)
	}
	return int64(u), nil
}

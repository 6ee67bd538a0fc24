package util

import (
	"reflect"

	"github.com/unkn0wn-root/ddbsession/store"
)

// CloneItem deep-copies an item. Nested maps and slices are copied so that
// in-place edits of the clone never reach the source.
func CloneItem(it store.Item) store.Item {
	if it == nil {
		return nil
	}
	out := make(store.Item, len(it))
	for k, v := range it {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies maps and slices; other values are returned as is.
func CloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = CloneValue(vv)
		}
		return out
	case store.Item:
		return CloneItem(t)
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = CloneValue(vv)
		}
		return out
	case []string:
		return append([]string(nil), t...)
	case []byte:
		return append([]byte(nil), t...)
	default:
		return cloneReflect(v)
	}
}

// cloneReflect covers typed containers such as map[string]string, []int or
// []map[string]any. Nil maps and slices stay nil.
func cloneReflect(v any) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		elem := rv.Type().Elem()
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), cloneElem(iter.Value(), elem))
		}
		return out.Interface()
	case reflect.Slice:
		if rv.IsNil() {
			return v
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		elem := rv.Type().Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(cloneElem(rv.Index(i), elem))
		}
		return out.Interface()
	default:
		return v
	}
}

func cloneElem(v reflect.Value, elem reflect.Type) reflect.Value {
	if !v.CanInterface() {
		return v
	}
	c := CloneValue(v.Interface())
	if c == nil {
		return reflect.Zero(elem)
	}
	cv := reflect.ValueOf(c)
	if !cv.Type().AssignableTo(elem) {
		return v
	}
	return cv
}

// Equal reports whether a and b hold the same value once numbers are
// normalized to float64. Codecs decode numbers into different Go types
// (int8, int64, float64...) and a round trip must not look like a change.
func Equal(a, b any) bool {
	return reflect.DeepEqual(normalize(a), normalize(b))
}

func normalize(v any) any {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int8:
		return float64(t)
	case int16:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint8:
		return float64(t)
	case uint16:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case store.Item:
		return normalize(map[string]any(t))
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[k] = normalize(vv)
		}
		return out
	case map[any]any:
		// cbor and msgpack may hand back interface-keyed maps
		out := make(map[string]any, len(t))
		for k, vv := range t {
			ks, ok := k.(string)
			if !ok {
				return v
			}
			out[ks] = normalize(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, vv := range t {
			out[i] = normalize(vv)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return v
	}
}

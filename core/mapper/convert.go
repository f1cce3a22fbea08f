package mapper

import (
	"bytes"
	"reflect"
)

// scalarConverter converts a scalar value of one type into another.
type scalarConverter func(src reflect.Value) reflect.Value

// converters holds user supplied scalar converters keyed by ordered type pair.
type converters map[pairKey]reflect.Value

// compile returns a converter from src to dst, or false when no conversion applies.
func (cs converters) compile(src, dst reflect.Type) (scalarConverter, bool) {
	if fn, ok := cs[pairKey{source: src, target: dst}]; ok {
		return func(v reflect.Value) reflect.Value {
			return fn.Call([]reflect.Value{v})[0]
		}, true
	}

	if src == dst && src.Kind() != reflect.Ptr {
		if src.Kind() == reflect.Slice {
			return cloneBytes, true
		}
		return func(v reflect.Value) reflect.Value { return v }, true
	}

	switch {
	case src.Kind() == reflect.Ptr && dst.Kind() == reflect.Ptr:
		inner, ok := cs.compile(src.Elem(), dst.Elem())
		if !ok {
			return nil, false
		}
		return func(v reflect.Value) reflect.Value {
			if v.IsNil() {
				return reflect.Zero(dst)
			}
			out := reflect.New(dst.Elem())
			out.Elem().Set(inner(v.Elem()))
			return out
		}, true

	case src.Kind() == reflect.Ptr:
		inner, ok := cs.compile(src.Elem(), dst)
		if !ok {
			return nil, false
		}
		return func(v reflect.Value) reflect.Value {
			if v.IsNil() {
				return reflect.Zero(dst)
			}
			return inner(v.Elem())
		}, true

	case dst.Kind() == reflect.Ptr:
		inner, ok := cs.compile(src, dst.Elem())
		if !ok {
			return nil, false
		}
		return func(v reflect.Value) reflect.Value {
			out := reflect.New(dst.Elem())
			out.Elem().Set(inner(v))
			return out
		}, true
	}

	if convertibleScalars(src, dst) {
		return func(v reflect.Value) reflect.Value {
			out := v.Convert(dst)
			if dst.Kind() == reflect.Slice {
				return cloneBytes(out)
			}
			return out
		}, true
	}
	return nil, false
}

// convertibleScalars restricts reflect conversions to lossless-in-intent families;
// int to string is deliberately excluded.
func convertibleScalars(src, dst reflect.Type) bool {
	switch {
	case isNumber(src.Kind()) && isNumber(dst.Kind()):
		return true
	case src.Kind() == reflect.String && dst.Kind() == reflect.String:
		return true
	case src.Kind() == reflect.Bool && dst.Kind() == reflect.Bool:
		return true
	case src.Kind() == reflect.Slice && dst.Kind() == reflect.Slice:
		return src.Elem().Kind() == reflect.Uint8 && dst.Elem().Kind() == reflect.Uint8
	case src.Kind() == reflect.Array && dst.Kind() == reflect.Array:
		return src.Len() == dst.Len() && src.ConvertibleTo(dst)
	case src.Kind() == reflect.Struct && dst.Kind() == reflect.Struct:
		return src.ConvertibleTo(dst)
	default:
		return false
	}
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func cloneBytes(v reflect.Value) reflect.Value {
	if v.IsNil() {
		return v
	}
	out := reflect.New(v.Type()).Elem()
	out.SetBytes(bytes.Clone(v.Bytes()))
	return out
}

// scalarEqual compares two scalar values of the same type. Types with an
// Equal(T) bool method, such as time.Time, are compared with it.
func scalarEqual(a, b reflect.Value) bool {
	if a.Kind() == reflect.Ptr {
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		return scalarEqual(a.Elem(), b.Elem())
	}
	if a.Kind() == reflect.Slice {
		return bytes.Equal(a.Bytes(), b.Bytes())
	}
	if equal, ok := equalMethod(a); ok {
		return equal.Call([]reflect.Value{b})[0].Bool()
	}
	if !a.Type().Comparable() {
		return reflect.DeepEqual(a.Interface(), b.Interface())
	}
	return a.Interface() == b.Interface()
}

func equalMethod(v reflect.Value) (reflect.Value, bool) {
	method := v.MethodByName("Equal")
	if !method.IsValid() {
		return reflect.Value{}, false
	}
	mt := method.Type()
	if mt.NumIn() != 1 || mt.In(0) != v.Type() || mt.NumOut() != 1 || mt.Out(0).Kind() != reflect.Bool {
		return reflect.Value{}, false
	}
	return method, true
}

// scalarEmpty reports whether v is the "not yet persisted" value: nil, zero or an empty byte slice.
func scalarEmpty(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Ptr:
		return v.IsNil() || scalarEmpty(v.Elem())
	case reflect.Slice:
		return v.Len() == 0
	default:
		return v.IsZero()
	}
}

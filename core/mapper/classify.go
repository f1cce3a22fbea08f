package mapper

import (
	"database/sql/driver"
	"reflect"
	"sync"
	"time"
)

// propertyKind is the capability tag the recursive mapper dispatches on.
type propertyKind int

const (
	kindUnsupported propertyKind = iota
	kindScalar
	kindEntity
	kindEntityList
)

func (k propertyKind) String() string {
	switch k {
	case kindScalar:
		return "scalar"
	case kindEntity:
		return "entity"
	case kindEntityList:
		return "entity list"
	default:
		return "unsupported"
	}
}

var (
	bytesType  = reflect.TypeOf([]byte(nil))
	timeType   = reflect.TypeOf(time.Time{})
	valuerType = reflect.TypeOf((*driver.Valuer)(nil)).Elem()
)

var (
	kindCache  sync.Map // reflect.Type -> propertyKind
	fieldCache sync.Map // reflect.Type -> []fieldInfo
)

// classify returns the memoized kind of t.
func classify(t reflect.Type) propertyKind {
	if k, ok := kindCache.Load(t); ok {
		return k.(propertyKind)
	}
	k := classifyType(t)
	kindCache.Store(t, k)
	return k
}

func classifyType(t reflect.Type) propertyKind {
	if isScalar(t) {
		return kindScalar
	}
	switch t.Kind() {
	case reflect.Ptr:
		if t.Elem().Kind() == reflect.Struct {
			return kindEntity
		}
	case reflect.Slice:
		if classifyType(t.Elem()) == kindEntity {
			return kindEntityList
		}
	}
	return kindUnsupported
}

func isScalar(t reflect.Type) bool {
	if t == bytesType || t == timeType {
		return true
	}
	switch t.Kind() {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	case reflect.Ptr:
		return isScalar(t.Elem())
	case reflect.Array:
		// fixed-size identifiers such as uuid.UUID
		return isScalar(t.Elem())
	case reflect.Slice:
		return t.Elem().Kind() == reflect.Uint8
	case reflect.Struct:
		return t.Implements(valuerType)
	default:
		return false
	}
}

// isComparableScalar reports whether values of t can be compared with ==, as identities must be.
func isComparableScalar(t reflect.Type) bool {
	return isScalar(t) && t.Comparable()
}

type fieldInfo struct {
	name  string
	index []int
	typ   reflect.Type
	kind  propertyKind
}

// fieldsOf returns the exported, reachable fields of struct type t in declaration order.
// Fields promoted through embedded pointers are skipped since they may be nil.
func fieldsOf(t reflect.Type) []fieldInfo {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]fieldInfo)
	}

	var fields []fieldInfo
	for _, f := range reflect.VisibleFields(t) {
		if f.Anonymous || !f.IsExported() {
			continue
		}
		if resolved, ok := t.FieldByName(f.Name); !ok || !sameIndex(resolved.Index, f.Index) {
			continue
		}
		if crossesPointer(t, f.Index) {
			continue
		}
		fields = append(fields, fieldInfo{
			name:  f.Name,
			index: f.Index,
			typ:   f.Type,
			kind:  classify(f.Type),
		})
	}

	fieldCache.Store(t, fields)
	return fields
}

func fieldByName(t reflect.Type, name string) (fieldInfo, bool) {
	for _, f := range fieldsOf(t) {
		if f.name == name {
			return f, true
		}
	}
	return fieldInfo{}, false
}

func sameIndex(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func crossesPointer(t reflect.Type, index []int) bool {
	for _, i := range index[:len(index)-1] {
		f := t.Field(i)
		if f.Type.Kind() == reflect.Ptr {
			return true
		}
		t = f.Type
	}
	return false
}

package object

import (
	"reflect"
	"regexp"
	"time"
)

type valueKind int

const (
	kindNull valueKind = iota
	kindScalar
	kindSequence
	kindMapping
	kindDate
	kindFunc
	kindPattern
	kindReference
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	timePtrType = reflect.TypeOf(&time.Time{})
	patternType = reflect.TypeOf(&regexp.Regexp{})
)

func kindOf(v reflect.Value) valueKind {
	if !v.IsValid() {
		return kindNull
	}
	switch v.Type() {
	case timeType, timePtrType:
		return kindDate
	case patternType:
		return kindPattern
	}
	switch v.Kind() {
	case reflect.Func:
		return kindFunc
	case reflect.Slice, reflect.Array:
		return kindSequence
	case reflect.Map:
		return kindMapping
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer, reflect.Interface:
		return kindReference
	default:
		return kindScalar
	}
}

// IsEmpty reports whether value is a mapping with no keys.
func IsEmpty(value any) bool {
	v := reflect.ValueOf(value)
	return kindOf(v) == kindMapping && v.Len() == 0
}

// DeepEqual compares two values structurally. Nil only equals nil and
// values of different types are never equal. Functions, patterns and other
// references compare by identity; sequences compare element-wise and
// mappings need identical key sets with equal values.
//
// Dates never compare equal unless both sides are the same *time.Time.
func DeepEqual(x, y any) bool {
	return deepEqual(reflect.ValueOf(x), reflect.ValueOf(y))
}

func deepEqual(x, y reflect.Value) bool {
	x, y = unwrap(x), unwrap(y)
	xk, yk := kindOf(x), kindOf(y)
	if xk == kindNull || yk == kindNull {
		return xk == yk
	}
	if x.Type() != y.Type() {
		return false
	}

	if sameContainer(x, y) {
		return true
	}

	switch xk {
	case kindFunc, kindPattern, kindReference:
		return sameReference(x, y)
	case kindDate:
		return x.Kind() == reflect.Pointer && sameReference(x, y)
	case kindScalar:
		if x.Comparable() {
			return x.Equal(y)
		}
		return reflect.DeepEqual(x.Interface(), y.Interface())
	case kindSequence:
		if x.Len() != y.Len() {
			return false
		}
		for i := 0; i < x.Len(); i++ {
			if !deepEqual(x.Index(i), y.Index(i)) {
				return false
			}
		}
		return true
	case kindMapping:
		if x.Len() != y.Len() {
			return false
		}
		iter := x.MapRange()
		for iter.Next() {
			other := y.MapIndex(iter.Key())
			if !other.IsValid() {
				return false
			}
			if !deepEqual(iter.Value(), other) {
				return false
			}
		}
		return true
	}
	return false
}

// unwrap strips interface boxes so nested any values are classified by
// their dynamic type.
func unwrap(v reflect.Value) reflect.Value {
	for v.IsValid() && v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

// sameContainer reports whether x and y are the same map or the same
// slice view. Self-referencing values stop here instead of recursing.
func sameContainer(x, y reflect.Value) bool {
	switch x.Kind() {
	case reflect.Map, reflect.Slice:
		return !x.IsNil() && x.Pointer() == y.Pointer() && x.Len() == y.Len()
	}
	return false
}

func sameReference(x, y reflect.Value) bool {
	switch x.Kind() {
	case reflect.Func, reflect.Pointer, reflect.Chan, reflect.UnsafePointer, reflect.Map, reflect.Slice:
		if x.IsNil() || y.IsNil() {
			return x.IsNil() && y.IsNil()
		}
		return x.Pointer() == y.Pointer()
	}
	return false
}

package jsonutil

import (
	"bytes"
	"errors"
	"io"
	"reflect"

	"github.com/goccy/go-json"
)

// Option holds a value that may be absent.
type Option[T any] struct {
	value T
	ok    bool
}

// Some wraps a present value.
func Some[T any](value T) Option[T] {
	return Option[T]{value: value, ok: true}
}

// None is the absent value.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.ok
}

func (o Option[T]) IsSome() bool {
	return o.ok
}

// OrElse returns the value, or fallback when absent.
func (o Option[T]) OrElse(fallback T) T {
	if !o.ok {
		return fallback
	}
	return o.value
}

// TryParse decodes text as JSON. Malformed input, trailing garbage and
// empty text all yield None.
func TryParse(text string) Option[any] {
	return TryParseBytes([]byte(text))
}

func TryParseBytes(data []byte) Option[any] {
	if len(bytes.TrimSpace(data)) == 0 {
		return None[any]()
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	var result any
	if err := dec.Decode(&result); err != nil {
		return None[any]()
	}
	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return None[any]()
	}
	return Some(result)
}

// TryStringify encodes value as JSON. Cyclic structures and values JSON
// cannot represent yield None.
func TryStringify(value any) Option[string] {
	if hasCycle(reflect.ValueOf(value), map[uintptr]bool{}) {
		return None[string]()
	}
	data, err := json.Marshal(value)
	if err != nil {
		return None[string]()
	}
	return Some(string(data))
}

// hasCycle walks maps, slices and pointers looking for a container that
// contains itself.
func hasCycle(v reflect.Value, visiting map[uintptr]bool) bool {
	if !v.IsValid() {
		return false
	}
	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return false
		}
		return hasCycle(v.Elem(), visiting)
	case reflect.Pointer, reflect.Map, reflect.Slice:
		if v.IsNil() {
			return false
		}
		if v.Kind() == reflect.Slice && v.Len() == 0 {
			return false
		}
		ptr := v.Pointer()
		if visiting[ptr] {
			return true
		}
		visiting[ptr] = true
		defer delete(visiting, ptr)

		switch v.Kind() {
		case reflect.Pointer:
			return hasCycle(v.Elem(), visiting)
		case reflect.Map:
			iter := v.MapRange()
			for iter.Next() {
				if hasCycle(iter.Value(), visiting) {
					return true
				}
			}
		case reflect.Slice:
			for i := 0; i < v.Len(); i++ {
				if hasCycle(v.Index(i), visiting) {
					return true
				}
			}
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if hasCycle(v.Index(i), visiting) {
				return true
			}
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			if hasCycle(v.Field(i), visiting) {
				return true
			}
		}
	}
	return false
}

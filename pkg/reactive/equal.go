package reactive

import (
	"math"
	"reflect"
)

// sameValue reports whether a write of b over a is a no-op. It follows
// SameValueZero: NaN equals NaN, and +0 equals -0. Comparable values use ==;
// maps, slices and pointers compare by reference; functions never compare
// equal since their identity cannot be observed.
func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case float64:
		bv, ok := b.(float64)
		return ok && (av == bv || math.IsNaN(av) && math.IsNaN(bv))
	case float32:
		bv, ok := b.(float32)
		return ok && (av == bv || av != av && bv != bv)
	case *Object:
		bv, ok := b.(*Object)
		return ok && av == bv
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func:
		return false
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.UnsafePointer() == vb.UnsafePointer()
	case reflect.Slice:
		return va.Len() == vb.Len() && va.UnsafePointer() == vb.UnsafePointer()
	}
	if va.Comparable() {
		return a == b
	}
	return false
}

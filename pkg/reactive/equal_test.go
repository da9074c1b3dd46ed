package reactive

import (
	"math"
	"testing"
)

func nanValue() float64 {
	return math.NaN()
}

func TestSameValue(t *testing.T) {
	obj := NewObject()
	m := map[string]int{"a": 1}
	s := []int{1, 2, 3}
	type point struct{ X, Y int }

	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"nil nil", nil, nil, true},
		{"nil int", nil, 0, false},
		{"int equal", 1, 1, true},
		{"int differ", 1, 2, false},
		{"int vs int64", 1, int64(1), false},
		{"string", "a", "a", true},
		{"nan", nanValue(), nanValue(), true},
		{"nan vs number", nanValue(), 1.0, false},
		{"signed zero", 0.0, math.Copysign(0, -1), true},
		{"float32 nan", float32(nanValue()), float32(nanValue()), true},
		{"same object", obj, obj, true},
		{"different objects", obj, NewObject(), false},
		{"same map", m, m, true},
		{"equal maps", m, map[string]int{"a": 1}, false},
		{"same slice", s, s, true},
		{"resliced", s, s[:2], false},
		{"struct", point{1, 2}, point{1, 2}, true},
		{"struct differ", point{1, 2}, point{2, 1}, false},
		{"func", TestSameValue, TestSameValue, false},
		{"uncomparable struct", struct{ S []int }{s}, struct{ S []int }{s}, false},
	}
	for _, tt := range tests {
		if got := sameValue(tt.a, tt.b); got != tt.want {
			t.Errorf("%s: sameValue = %v, want %v", tt.name, got, tt.want)
		}
	}
}

package value

import (
	"math"
	"testing"

	"ember/internal/memory"
)

func TestIsFalsey(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want bool
	}{
		{"nil", Nil(), true},
		{"false", Bool(false), true},
		{"true", Bool(true), false},
		{"zero", Number(0), false},
		{"nonzero", Number(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.IsFalsey(); got != tt.want {
				t.Errorf("IsFalsey() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEqual(t *testing.T) {
	h := memory.NewHeap()
	s1 := NewString(h, "abc")
	s2 := NewString(h, "abc")
	s3 := NewString(h, "xyz")

	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"nil == nil", Nil(), Nil(), true},
		{"different kinds", Nil(), Bool(false), false},
		{"bool equal", Bool(true), Bool(true), true},
		{"bool unequal", Bool(true), Bool(false), false},
		{"number equal", Number(1), Number(1), true},
		{"number unequal", Number(1), Number(2), false},
		{"nan never equal", Number(math.NaN()), Number(math.NaN()), false},
		{"strings equal by content", s1, s2, true},
		{"strings unequal", s1, s3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrint(t *testing.T) {
	h := memory.NewHeap()
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"nil", Nil(), "nil"},
		{"true", Bool(true), "true"},
		{"false", Bool(false), "false"},
		{"integer-valued number", Number(3), "3"},
		{"fractional number", Number(3.5), "3.5"},
		{"string", NewString(h, "hi"), "hi"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Print(tt.v); got != tt.want {
				t.Errorf("Print() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeName(t *testing.T) {
	h := memory.NewHeap()
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"nil", Nil(), "nil"},
		{"bool", Bool(true), "boolean"},
		{"number", Number(1), "number"},
		{"string", NewString(h, "s"), "string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeName(tt.v); got != tt.want {
				t.Errorf("TypeName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewStringRootedOnce(t *testing.T) {
	h := memory.NewHeap()
	s := NewString(h, "hello")
	if s.AsString() != "hello" {
		t.Fatalf("AsString() = %q", s.AsString())
	}
	// Releasing the single root from Alloc must not underflow.
	s.Handle().Release()
}

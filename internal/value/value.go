// Package value implements the tagged Value union (spec.md section 3)
// and the heap object kinds it can point at. No Go repo in the
// retrieval pack implements structural-equality tagged values with a
// distinct GC handle layer — the teacher's own Value is a bare
// `interface{}` (internal/memory/types.go in the teacher tree), which
// is exactly the representation spec.md rules out since it can't carry
// a root-counted handle distinctly from a plain by-value number or
// bool. This package is grounded on original_source/src/value.rs and
// spec.md section 4.2 instead.
package value

import (
	"fmt"
	"math"
	"strconv"

	"ember/internal/memory"
)

// Kind tags which variant of the Value union is populated.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindNumber
	KindString
	KindFunction
	KindClosure
	KindNative
)

// Value is the tagged sum from spec.md section 3. Heap variants (String,
// Function, Closure, Native) hold a memory.Handle; the rest are held by
// value directly, so copying a Value never implicitly (un)roots
// anything — callers root/release the handle fields themselves at the
// point a Value enters or leaves a long-lived slot (stack, local,
// global, upvalue).
type Value struct {
	Kind Kind
	num  float64
	b    bool
	obj  memory.Handle
}

func Nil() Value                { return Value{Kind: KindNil} }
func Bool(b bool) Value         { return Value{Kind: KindBool, b: b} }
func Number(n float64) Value    { return Value{Kind: KindNumber, num: n} }
func fromObj(k Kind, h memory.Handle) Value { return Value{Kind: k, obj: h} }

func (v Value) AsBool() bool      { return v.b }
func (v Value) AsNumber() float64 { return v.num }
func (v Value) Handle() memory.Handle { return v.obj }

func (v Value) IsNil() bool      { return v.Kind == KindNil }
func (v Value) IsBool() bool     { return v.Kind == KindBool }
func (v Value) IsNumber() bool   { return v.Kind == KindNumber }
func (v Value) IsString() bool   { return v.Kind == KindString }
func (v Value) IsFunction() bool { return v.Kind == KindFunction }
func (v Value) IsClosure() bool  { return v.Kind == KindClosure }
func (v Value) IsNative() bool   { return v.Kind == KindNative }

// AsString returns the underlying Go string. Panics if v is not a
// String — callers must check Kind first, exactly like every other
// Value accessor.
func (v Value) AsString() string {
	return v.obj.Object().(*StringObj).Chars
}

func (v Value) AsFunction() *FunctionObj { return v.obj.Object().(*FunctionObj) }
func (v Value) AsClosure() *ClosureObj   { return v.obj.Object().(*ClosureObj) }
func (v Value) AsNative() *NativeObj     { return v.obj.Object().(*NativeObj) }

// IsFalsey implements spec.md section 4.2: Nil and Bool(false) are the
// only falsey values. Zero, the empty string, and every heap value are
// truthy.
func (v Value) IsFalsey() bool {
	return v.Kind == KindNil || (v.Kind == KindBool && !v.b)
}

// Equal implements structural equality per spec.md section 4.2: Nil=Nil,
// booleans/numbers by value (NaN != NaN, following IEEE 754), strings by
// content, function/closure/native by handle identity.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNil:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.num == b.num
	case KindString:
		return a.AsString() == b.AsString()
	case KindFunction, KindClosure, KindNative:
		return memory.PtrEqual(a.obj, b.obj)
	default:
		return false
	}
}

// Print renders v the way OpPrint writes it to standard output.
func Print(v Value) string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return formatNumber(v.num)
	case KindString:
		return v.AsString()
	case KindFunction:
		return fmt.Sprintf("<fn %s>", v.AsFunction().Name)
	case KindClosure:
		return fmt.Sprintf("<fn %s>", v.AsClosure().Function.Object().(*FunctionObj).Name)
	case KindNative:
		return fmt.Sprintf("<native fn %s>", v.AsNative().Name)
	default:
		return "<unknown>"
	}
}

func formatNumber(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// TypeName names a Value's kind for type-mismatch runtime errors.
func TypeName(v Value) string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindFunction, KindClosure:
		return "function"
	case KindNative:
		return "native function"
	default:
		return "value"
	}
}

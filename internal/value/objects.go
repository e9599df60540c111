package value

import (
	"ember/internal/bytecode"
	"ember/internal/memory"
)

// UpvalueSpec is the compile-time record spec.md section 3 describes:
// "this closure's i-th captured variable is either the enclosing
// frame's local slot Index (IsLocal) or the enclosing closure's
// Index-th upvalue."
type UpvalueSpec struct {
	Index   uint8
	IsLocal bool
}

// StringObj is the only string representation in the language: no
// interior handles, so Trace/Unroot are no-ops.
type StringObj struct {
	Chars string
}

func (s *StringObj) Trace(func(memory.Handle)) {}
func (s *StringObj) Unroot()                   {}
func (s *StringObj) Finalize()                 {}

// NewString heap-allocates a StringObj and returns a rooted String Value.
func NewString(h *memory.Heap, s string) Value {
	obj := &StringObj{Chars: s}
	handle := h.Alloc(obj, int64(len(s))+16)
	return fromObj(KindString, handle)
}

// FunctionObj is the immutable compiled prototype shared by every
// Closure of the same function literal (spec.md section 3). Its Chunk's
// constant pool may itself hold heap Values (nested function literals,
// string literals, global names) — Trace/Unroot must walk it so those
// stay reachable only via this prototype once it is boxed.
type FunctionObj struct {
	Arity    int
	Name     string
	Chunk    *bytecode.Chunk
	Upvalues []UpvalueSpec
}

func (f *FunctionObj) Trace(visit func(memory.Handle)) {
	for _, c := range f.Chunk.Constants {
		if cv, ok := c.(Value); ok && cv.obj.Valid() {
			visit(cv.obj)
		}
	}
}

func (f *FunctionObj) Unroot() {
	for _, c := range f.Chunk.Constants {
		if cv, ok := c.(Value); ok && cv.obj.Valid() {
			cv.obj.Release()
		}
	}
}

func (f *FunctionObj) Finalize() {}

// NewFunction heap-allocates a FunctionObj and returns a rooted
// Function Value.
func NewFunction(h *memory.Heap, fn *FunctionObj) Value {
	handle := h.Alloc(fn, int64(len(fn.Chunk.Code))*8+64)
	return fromObj(KindFunction, handle)
}

// ClosureObj binds a Function prototype to a particular set of
// captured upvalues, filled in at the moment OpClosure executes
// (spec.md section 3).
type ClosureObj struct {
	Function memory.Handle // *FunctionObj
	Upvalues []memory.Handle // *UpvalueObj, length == Function's Upvalues
}

func (c *ClosureObj) Trace(visit func(memory.Handle)) {
	visit(c.Function)
	for _, u := range c.Upvalues {
		visit(u)
	}
}

func (c *ClosureObj) Unroot() {
	c.Function.Release()
	for _, u := range c.Upvalues {
		u.Release()
	}
}

func (c *ClosureObj) Finalize() {}

// NewClosure heap-allocates a ClosureObj. The caller must have already
// produced rooted handles for fn and each upvalue (e.g. via Clone) —
// Unroot above releases exactly those roots once the closure itself is
// rooted and responsible for tracing them.
func NewClosure(h *memory.Heap, fn memory.Handle, upvalues []memory.Handle) Value {
	obj := &ClosureObj{Function: fn, Upvalues: upvalues}
	handle := h.Alloc(obj, int64(len(upvalues))*8+32)
	return fromObj(KindClosure, handle)
}

// UpvalueObj is the indirection through which closures read and write
// a captured variable (spec.md section 3/4.4). While open, Location
// points at a slot in the VM's operand stack; closing moves that slot's
// value into Value and sets Closed, and the transition is one-way.
type UpvalueObj struct {
	Location int
	Closed   bool
	Value    Value
}

func (u *UpvalueObj) Trace(visit func(memory.Handle)) {
	if u.Closed && u.Value.obj.Valid() {
		visit(u.Value.obj)
	}
}

func (u *UpvalueObj) Unroot() {
	if u.Closed && u.Value.obj.Valid() {
		u.Value.obj.Release()
	}
}

func (u *UpvalueObj) Finalize() {}

// NewOpenUpvalue heap-allocates an UpvalueObj pointing at a live stack
// slot. Returned as a bare Handle, not a Value: upvalues are never
// themselves a Value variant, only Closure.Upvalues entries.
func NewOpenUpvalue(h *memory.Heap, location int) memory.Handle {
	obj := &UpvalueObj{Location: location}
	return h.Alloc(obj, 40)
}

// NativeFn is a built-in invoked synchronously inside OpCall; it cannot
// capture variables (spec.md section 4.2). Natives may fail (a closed
// socket, a bad DSN) — returning an error surfaces as a runtime error
// at the call site, same as any other VM fault.
type NativeFn func(args []Value) (Value, error)

type NativeObj struct {
	Name string
	Fn   NativeFn
}

func (n *NativeObj) Trace(func(memory.Handle)) {}
func (n *NativeObj) Unroot()                   {}
func (n *NativeObj) Finalize()                 {}

func NewNative(h *memory.Heap, name string, fn NativeFn) Value {
	obj := &NativeObj{Name: name, Fn: fn}
	handle := h.Alloc(obj, 32)
	return fromObj(KindNative, handle)
}

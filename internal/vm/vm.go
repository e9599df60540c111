// Package vm implements the stack-based virtual machine: dispatch over
// bytecode.Instruction, a value stack, a global table, a bounded call
// frame stack, and the open-upvalue list backing closures (spec.md
// section 4.4). Grounded on the teacher's internal/vm/vm.go for the
// overall shape of a dispatch-loop interpreter (frame stack, stdout
// writer, error propagation via Go error values), generalized from the
// teacher's tree-walking/register design to the spec's stack-machine
// semantics — none of the teacher's opcode handling survives intact,
// since the instruction set and execution model are both different.
package vm

import (
	"fmt"
	"io"
	"os"

	"ember/internal/bytecode"
	"ember/internal/compiler"
	"ember/internal/emberrors"
	"ember/internal/memory"
	"ember/internal/value"
)

// VM owns every piece of mutable interpreter state named in spec.md
// section 4.4: the operand stack, globals, the frame stack, and the
// open-upvalue list.
type VM struct {
	heap    *memory.Heap
	stack   []value.Value
	globals *value.Table
	frames  []callFrame
	open    []memory.Handle // sorted by Location, strictly decreasing
	out     io.Writer
}

// New returns a VM with its own heap and a clean global namespace.
// Callers register native functions with DefineNative before the first
// Interpret call.
func New() *VM {
	return &VM{
		heap:    memory.NewHeap(),
		globals: value.NewTable(),
		out:     os.Stdout,
	}
}

// Heap exposes the VM's heap, e.g. for -gcstats reporting or a
// gc_stats() native.
func (vm *VM) Heap() *memory.Heap { return vm.heap }

// SetOutput redirects OpPrint's destination — tests use this to
// capture output instead of writing to stdout.
func (vm *VM) SetOutput(w io.Writer) { vm.out = w }

// ResetStack discards all interpreter state left behind by a runtime
// error (spec.md section 7: "the value stack is then reset"), releasing
// every remaining root so a long-lived VM (the REPL) can keep accepting
// input on the next line without leaking the aborted call's locals.
func (vm *VM) ResetStack() {
	for _, v := range vm.stack {
		v.Handle().Release()
	}
	for _, f := range vm.frames {
		f.closureHandle.Release()
	}
	for _, h := range vm.open {
		h.Release()
	}
	vm.stack = nil
	vm.frames = nil
	vm.open = nil
}

// DefineNative installs a native function under name in the global
// namespace, as though `name` had been the target of a DefineGlobal
// (spec.md section 4.4's "Native functions").
func (vm *VM) DefineNative(name string, fn value.NativeFn) {
	v := value.NewNative(vm.heap, name, fn)
	vm.globals.Set(value.NewHashKey(name), v)
}

// Interpret compiles and runs src to completion. Returns a
// *emberrors.Error of Kind Compile or Runtime on failure; panics
// (uncaught) with a Kind Fatal error on a broken core invariant, per
// spec.md section 7 — the CLI's top-level recover is the only place
// that ever looks at a Fatal error.
func (vm *VM) Interpret(src []byte) error {
	fn, err := compiler.Compile(src, vm.heap)
	if err != nil {
		return err
	}

	fnValue := value.NewFunction(vm.heap, fn)
	closureValue := value.NewClosure(vm.heap, fnValue.Handle(), nil)

	vm.push(closureValue)
	vm.callValue(closureValue, 0)

	return vm.run()
}

// --- stack helpers -------------------------------------------------------

func (vm *VM) push(v value.Value) {
	vm.stack = append(vm.stack, v)
}

// pop removes and returns the top value without touching its root —
// the caller takes over ownership of whatever root it carried.
func (vm *VM) pop() value.Value {
	n := len(vm.stack) - 1
	v := vm.stack[n]
	vm.stack = vm.stack[:n]
	return v
}

// discard pops and releases the top value's root — use when a value
// leaves the stack with nowhere else to go (OpPop, operands consumed
// by an arithmetic op).
func (vm *VM) discard() {
	vm.pop().Handle().Release()
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[len(vm.stack)-1-distance]
}

// pushClone duplicates v into a new stack slot, rooting the duplicate —
// use whenever an existing rooted Value (a constant, a local, a global,
// an upvalue) is read onto the stack without disturbing its original
// owner.
func (vm *VM) pushClone(v value.Value) {
	v.Handle().Clone()
	vm.push(v)
}

// --- running ---------------------------------------------------------------

func (vm *VM) run() error {
	for {
		frame := &vm.frames[len(vm.frames)-1]
		chunk := frame.function.Chunk
		if frame.ip >= len(chunk.Code) {
			return vm.runtimeError("instruction pointer ran past the end of the chunk")
		}
		instr := chunk.Code[frame.ip]
		line := chunk.Lines[frame.ip]
		frame.ip++

		switch instr.Op {
		case bytecode.OpConstant:
			vm.pushClone(chunk.Constants[instr.A].(value.Value))

		case bytecode.OpNil:
			vm.push(value.Nil())
		case bytecode.OpTrue:
			vm.push(value.Bool(true))
		case bytecode.OpFalse:
			vm.push(value.Bool(false))

		case bytecode.OpPop:
			vm.discard()

		case bytecode.OpAdd:
			if err := vm.add(); err != nil {
				return vm.wrapRuntime(err, line)
			}
		case bytecode.OpSub:
			if err := vm.numericBinary(line, func(a, b float64) float64 { return a - b }); err != nil {
				return err
			}
		case bytecode.OpMul:
			if err := vm.numericBinary(line, func(a, b float64) float64 { return a * b }); err != nil {
				return err
			}
		case bytecode.OpDiv:
			if err := vm.numericBinary(line, func(a, b float64) float64 { return a / b }); err != nil {
				return err
			}
		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				return vm.runtimeErrorAt(line, "Operand must be a number.")
			}
			v := vm.pop()
			vm.push(value.Number(-v.AsNumber()))
		case bytecode.OpNot:
			v := vm.pop()
			falsey := v.IsFalsey()
			v.Handle().Release()
			vm.push(value.Bool(falsey))

		case bytecode.OpEqual:
			b := vm.pop()
			a := vm.pop()
			eq := value.Equal(a, b)
			a.Handle().Release()
			b.Handle().Release()
			vm.push(value.Bool(eq))
		case bytecode.OpGreater:
			if err := vm.comparisonBinary(line, func(a, b float64) bool { return a > b }); err != nil {
				return err
			}
		case bytecode.OpLess:
			if err := vm.comparisonBinary(line, func(a, b float64) bool { return a < b }); err != nil {
				return err
			}

		case bytecode.OpPrint:
			v := vm.pop()
			fmt.Fprintln(vm.out, value.Print(v))
			v.Handle().Release()

		case bytecode.OpDefineGlobal:
			name := chunk.Constants[instr.A].(value.Value).AsString()
			v := vm.pop()
			if old, existed := vm.globals.Get(value.NewHashKey(name)); existed {
				old.Handle().Release()
			}
			vm.globals.Set(value.NewHashKey(name), v)

		case bytecode.OpGetGlobal:
			name := chunk.Constants[instr.A].(value.Value).AsString()
			v, ok := vm.globals.Get(value.NewHashKey(name))
			if !ok {
				return vm.runtimeErrorAt(line, "Undefined variable '%s'.", name)
			}
			vm.pushClone(v)

		case bytecode.OpSetGlobal:
			name := chunk.Constants[instr.A].(value.Value).AsString()
			key := value.NewHashKey(name)
			if _, ok := vm.globals.Get(key); !ok {
				return vm.runtimeErrorAt(line, "Undefined variable '%s'.", name)
			}
			top := vm.peek(0)
			top.Handle().Clone()
			if old, existed := vm.globals.Get(key); existed {
				old.Handle().Release()
			}
			vm.globals.Set(key, top)

		case bytecode.OpGetLocal:
			vm.pushClone(vm.stack[frame.stackBase+int(instr.A)])

		case bytecode.OpSetLocal:
			top := vm.peek(0)
			top.Handle().Clone()
			slot := frame.stackBase + int(instr.A)
			vm.stack[slot].Handle().Release()
			vm.stack[slot] = top

		case bytecode.OpGetUpvalue:
			u := frame.closure.Upvalues[instr.A].Object().(*value.UpvalueObj)
			if u.Closed {
				vm.pushClone(u.Value)
			} else {
				vm.pushClone(vm.stack[u.Location])
			}

		case bytecode.OpSetUpvalue:
			top := vm.peek(0)
			u := frame.closure.Upvalues[instr.A].Object().(*value.UpvalueObj)
			if u.Closed {
				// a closed value holds no root of its own; the
				// UpvalueObj's Trace keeps it alive (see closeUpvalues).
				u.Value = top
			} else {
				top.Handle().Clone()
				vm.stack[u.Location].Handle().Release()
				vm.stack[u.Location] = top
			}

		case bytecode.OpCloseUpvalue:
			vm.closeUpvalues(len(vm.stack) - 1)
			vm.stack = vm.stack[:len(vm.stack)-1]

		case bytecode.OpJump:
			frame.ip += int(instr.A)
		case bytecode.OpJumpIfFalse:
			if vm.peek(0).IsFalsey() {
				frame.ip += int(instr.A)
			}
		case bytecode.OpLoop:
			frame.ip -= int(instr.A)

		case bytecode.OpCall:
			argc := int(instr.A)
			callee := vm.peek(argc)
			if err := vm.callValue(callee, argc); err != nil {
				return vm.runtimeErrorAt(line, "%s", err.Error())
			}

		case bytecode.OpClosure:
			vm.makeClosure(frame, chunk.Constants[instr.A].(value.Value))

		case bytecode.OpReturn:
			result := vm.pop()
			popped := vm.frames[len(vm.frames)-1]
			vm.frames = vm.frames[:len(vm.frames)-1]
			popped.closureHandle.Release()

			vm.closeUpvalues(popped.stackBase)
			for i := popped.stackBase; i < len(vm.stack); i++ {
				vm.stack[i].Handle().Release()
			}
			vm.stack = vm.stack[:popped.stackBase]

			if len(vm.frames) == 0 {
				return nil
			}
			vm.push(result)
		}
	}
}

func (vm *VM) add() error {
	b := vm.peek(0)
	a := vm.peek(1)
	switch {
	case a.IsNumber() && b.IsNumber():
		vm.pop()
		vm.pop()
		vm.push(value.Number(a.AsNumber() + b.AsNumber()))
		return nil
	case a.IsString() && b.IsString():
		vm.pop()
		vm.pop()
		concatenated := a.AsString() + b.AsString()
		result := value.NewString(vm.heap, concatenated)
		a.Handle().Release()
		b.Handle().Release()
		vm.push(result)
		return nil
	default:
		return fmt.Errorf("Operands must be two numbers or two strings.")
	}
}

func (vm *VM) numericBinary(line int, f func(a, b float64) float64) error {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeErrorAt(line, "Operands must be numbers.")
	}
	vm.pop()
	vm.pop()
	vm.push(value.Number(f(a.AsNumber(), b.AsNumber())))
	return nil
}

func (vm *VM) comparisonBinary(line int, f func(a, b float64) bool) error {
	b := vm.peek(0)
	a := vm.peek(1)
	if !a.IsNumber() || !b.IsNumber() {
		return vm.runtimeErrorAt(line, "Operands must be numbers.")
	}
	vm.pop()
	vm.pop()
	vm.push(value.Bool(f(a.AsNumber(), b.AsNumber())))
	return nil
}

// callValue dispatches OpCall's target: a Closure gets a new frame, a
// Native is invoked synchronously, anything else is a runtime error
// (spec.md section 4.4).
func (vm *VM) callValue(callee value.Value, argc int) error {
	switch callee.Kind {
	case value.KindClosure:
		closure := callee.AsClosure()
		fn := closure.Function.Object().(*value.FunctionObj)
		if argc != fn.Arity {
			return fmt.Errorf("Expected %d arguments but got %d.", fn.Arity, argc)
		}
		if len(vm.frames) >= maxFrames {
			return fmt.Errorf("Stack overflow!")
		}
		vm.frames = append(vm.frames, callFrame{
			closureHandle: callee.Handle().Clone(),
			closure:       closure,
			function:      fn,
			stackBase:     len(vm.stack) - argc - 1,
		})
		return nil
	case value.KindNative:
		native := callee.AsNative()
		args := make([]value.Value, argc)
		copy(args, vm.stack[len(vm.stack)-argc:])
		result, err := native.Fn(args)
		for i := len(vm.stack) - argc - 1; i < len(vm.stack); i++ {
			vm.stack[i].Handle().Release()
		}
		vm.stack = vm.stack[:len(vm.stack)-argc-1]
		if err != nil {
			return err
		}
		vm.push(result)
		return nil
	default:
		return fmt.Errorf("Can only call functions and classes.")
	}
}

// makeClosure executes OpClosure: build a runtime Closure from a
// compiled Function prototype, binding each upvalue either from the
// enclosing frame's locals or from the enclosing closure's own upvalue
// array (spec.md section 4.3's "Functions" / section 4.4's "Closure").
func (vm *VM) makeClosure(frame *callFrame, protoValue value.Value) {
	proto := protoValue.AsFunction()
	fnHandle := protoValue.Handle().Clone()

	upvalues := make([]memory.Handle, len(proto.Upvalues))
	for i, spec := range proto.Upvalues {
		if spec.IsLocal {
			master := vm.captureUpvalue(frame.stackBase + int(spec.Index))
			upvalues[i] = master.Clone()
		} else {
			upvalues[i] = frame.closure.Upvalues[spec.Index].Clone()
		}
	}

	closureValue := value.NewClosure(vm.heap, fnHandle, upvalues)
	vm.push(closureValue)
}

// captureUpvalue implements spec.md section 4.4's capture_upvalue:
// reuse an existing open upvalue at location if one exists (bounded
// scan over the sorted list), else allocate and insert preserving
// strictly-decreasing order.
func (vm *VM) captureUpvalue(location int) memory.Handle {
	i := 0
	for i < len(vm.open) {
		u := vm.open[i].Object().(*value.UpvalueObj)
		if u.Location == location {
			return vm.open[i]
		}
		if u.Location < location {
			break
		}
		i++
	}
	h := value.NewOpenUpvalue(vm.heap, location)
	vm.open = append(vm.open, memory.Handle{})
	copy(vm.open[i+1:], vm.open[i:])
	vm.open[i] = h
	return h
}

// closeUpvalues closes every open upvalue whose Location is >= from,
// moving each one's stack value into its own Closed storage and
// releasing the open-list's master root — the object remains alive
// only through whatever closures already trace it (spec.md section
// 4.4's "Closing"). The drained stack slot is zeroed so a later blanket
// release over the same range does not double-release it. The moved
// value's root is released once Closed is set: from here on it is kept
// alive only by the UpvalueObj's own Trace, the same transfer Heap.Alloc
// performs for a freshly boxed object's children.
func (vm *VM) closeUpvalues(from int) {
	i := 0
	for i < len(vm.open) {
		u := vm.open[i].Object().(*value.UpvalueObj)
		if u.Location < from {
			i++
			continue
		}
		u.Value = vm.stack[u.Location]
		u.Closed = true
		u.Value.Handle().Release()
		vm.stack[u.Location] = value.Nil()
		vm.open[i].Release()
		vm.open = append(vm.open[:i], vm.open[i+1:]...)
	}
}

// --- error construction --------------------------------------------------

func (vm *VM) runtimeError(format string, args ...any) error {
	return vm.runtimeErrorAt(vm.currentLine(), format, args...)
}

func (vm *VM) currentLine() int {
	frame := &vm.frames[len(vm.frames)-1]
	ip := frame.ip - 1
	if ip < 0 || ip >= len(frame.function.Chunk.Lines) {
		return 0
	}
	return frame.function.Chunk.Lines[ip]
}

func (vm *VM) runtimeErrorAt(line int, format string, args ...any) error {
	err := emberrors.NewRuntime(line, format, args...)
	return err.WithStack(vm.backtrace())
}

func (vm *VM) wrapRuntime(err error, line int) error {
	if ee, ok := err.(*emberrors.Error); ok {
		return ee
	}
	return vm.runtimeErrorAt(line, "%s", err.Error())
}

// backtrace renders every live frame, innermost first, naming the
// function and the source line of the instruction at ip-1 (the
// instruction that was executing when the error was raised), per
// spec.md section 7.
func (vm *VM) backtrace() []emberrors.Frame {
	frames := make([]emberrors.Frame, 0, len(vm.frames))
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		ip := f.ip - 1
		line := 0
		if ip >= 0 && ip < len(f.function.Chunk.Lines) {
			line = f.function.Chunk.Lines[ip]
		}
		name := f.function.Name
		if name == "script" {
			name = ""
		}
		frames = append(frames, emberrors.Frame{Function: name, Line: line})
	}
	return frames
}

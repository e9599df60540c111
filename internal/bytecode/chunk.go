package bytecode

// Instruction is one decoded bytecode unit: an opcode plus the single
// generic operand its variant uses (see the per-opcode comments in
// opcodes.go for what A means for each one). spec.md section 3 specifies
// a flat instruction stream rather than a packed byte buffer with
// variable-width operands, so Chunk stores already-decoded Instructions
// instead of raw bytes — there is no separate decode step in the VM's
// dispatch loop.
type Instruction struct {
	Op Op
	A  uint32
}

// Chunk is a function body's compiled bytecode: the instruction stream,
// a parallel line table for runtime error reporting, and a constant
// pool.
//
// Constants is typed []interface{}, not []value.Value, so that this
// package never imports internal/value — value.FunctionObj embeds a
// *Chunk (a function's own compiled body), and if Chunk depended on
// value in turn that would be an import cycle. Everything that reads or
// writes Constants (the compiler, the VM, FunctionObj.Trace/Unroot)
// type-asserts the element back to value.Value itself.
type Chunk struct {
	Code      []Instruction
	Lines     []int
	Constants []interface{}
}

// NewChunk returns an empty chunk ready to be written into.
func NewChunk() *Chunk {
	return &Chunk{}
}

// Write appends one instruction, recording line for later error
// reporting. Returns the index the instruction was written at, which
// callers use to patch jump operands once the jump target is known.
func (c *Chunk) Write(op Op, a uint32, line int) int {
	c.Code = append(c.Code, Instruction{Op: op, A: a})
	c.Lines = append(c.Lines, line)
	return len(c.Code) - 1
}

// Patch overwrites the operand of the instruction at index — used once
// a forward jump's target address is known (spec.md section 4.3's
// "emit-then-patch" jump pattern).
func (c *Chunk) Patch(index int, a uint32) {
	c.Code[index].A = a
}

// AddConstant appends v to the constant pool and returns its index.
// Does not dedupe: a repeated string or number literal gets a fresh
// slot each time it's compiled, same as the teacher's constant pool.
func (c *Chunk) AddConstant(v interface{}) int {
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Len reports how many instructions have been written so far — the
// address the next Write call will land at, used when computing loop
// back-edge offsets.
func (c *Chunk) Len() int {
	return len(c.Code)
}

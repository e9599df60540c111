// Package bytecode defines the instruction set and the Chunk container
// the compiler emits into and the VM executes from. The opcode list
// mirrors spec.md section 3 exactly: one instruction per source
// operation, no folding, no dead-code elimination.
package bytecode

// Op is a single instruction's tag. Operand shape is fixed per variant
// and documented on Instruction.
type Op byte

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpNegate
	OpNot
	OpEqual
	OpGreater
	OpLess

	OpNil
	OpTrue
	OpFalse

	OpConstant // A = index into Chunk.Constants

	OpPop
	OpPrint
	OpReturn

	OpDefineGlobal // A = constant index holding the name string
	OpGetGlobal    // A = constant index holding the name string
	OpSetGlobal    // A = constant index holding the name string

	OpGetLocal // A = stack slot relative to the frame base
	OpSetLocal // A = stack slot relative to the frame base

	OpGetUpvalue // A = index into the running closure's upvalue list
	OpSetUpvalue // A = index into the running closure's upvalue list
	OpCloseUpvalue

	OpJump        // A = forward offset added to ip
	OpJumpIfFalse // A = forward offset added to ip, does not pop
	OpLoop        // A = backward offset subtracted from ip (already past the OpLoop)

	OpCall    // A = argument count
	OpClosure // A = constant index holding the Function prototype
)

func (op Op) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return "OpUnknown"
}

var opNames = [...]string{
	OpAdd:          "OP_ADD",
	OpSub:          "OP_SUB",
	OpMul:          "OP_MUL",
	OpDiv:          "OP_DIV",
	OpNegate:       "OP_NEGATE",
	OpNot:          "OP_NOT",
	OpEqual:        "OP_EQUAL",
	OpGreater:      "OP_GREATER",
	OpLess:         "OP_LESS",
	OpNil:          "OP_NIL",
	OpTrue:         "OP_TRUE",
	OpFalse:        "OP_FALSE",
	OpConstant:     "OP_CONSTANT",
	OpPop:          "OP_POP",
	OpPrint:        "OP_PRINT",
	OpReturn:       "OP_RETURN",
	OpDefineGlobal: "OP_DEFINE_GLOBAL",
	OpGetGlobal:    "OP_GET_GLOBAL",
	OpSetGlobal:    "OP_SET_GLOBAL",
	OpGetLocal:     "OP_GET_LOCAL",
	OpSetLocal:     "OP_SET_LOCAL",
	OpGetUpvalue:   "OP_GET_UPVALUE",
	OpSetUpvalue:   "OP_SET_UPVALUE",
	OpCloseUpvalue: "OP_CLOSE_UPVALUE",
	OpJump:         "OP_JUMP",
	OpJumpIfFalse:  "OP_JUMP_IF_FALSE",
	OpLoop:         "OP_LOOP",
	OpCall:         "OP_CALL",
	OpClosure:      "OP_CLOSURE",
}

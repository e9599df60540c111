// Package disasm renders a Chunk as human-readable bytecode listing, the
// CLI's -debug flag's backing implementation (SPEC_FULL.md). Grounded on
// the teacher's debugger/disassembly support for the general shape of a
// per-instruction line of {offset, name, operand, source line}, rebuilt
// against this core's Instruction/Chunk types since the teacher's own
// opcode set and operand encoding do not match spec.md section 3 at all.
package disasm

import (
	"fmt"
	"io"

	"ember/internal/bytecode"
	"ember/internal/value"
)

// Chunk writes name followed by one line per instruction in c to w.
func Chunk(w io.Writer, c *bytecode.Chunk, name string) {
	fmt.Fprintf(w, "== %s ==\n", name)
	for offset := 0; offset < len(c.Code); {
		offset = Instruction(w, c, offset)
	}
}

// Instruction writes one instruction at offset and returns the offset
// of the next one (always offset+1: every Instruction here is a single
// fixed-size unit, unlike a packed byte-code stream with variable
// operand widths).
func Instruction(w io.Writer, c *bytecode.Chunk, offset int) int {
	fmt.Fprintf(w, "%04d ", offset)
	if offset > 0 && c.Lines[offset] == c.Lines[offset-1] {
		fmt.Fprint(w, "   | ")
	} else {
		fmt.Fprintf(w, "%4d ", c.Lines[offset])
	}

	instr := c.Code[offset]
	switch instr.Op {
	case bytecode.OpConstant, bytecode.OpDefineGlobal, bytecode.OpGetGlobal, bytecode.OpSetGlobal, bytecode.OpClosure:
		fmt.Fprintf(w, "%-16s %4d '%s'\n", instr.Op, instr.A, describeConstant(c, instr.A))
	case bytecode.OpGetLocal, bytecode.OpSetLocal, bytecode.OpGetUpvalue, bytecode.OpSetUpvalue, bytecode.OpCall:
		fmt.Fprintf(w, "%-16s %4d\n", instr.Op, instr.A)
	case bytecode.OpJump, bytecode.OpJumpIfFalse:
		fmt.Fprintf(w, "%-16s %4d -> %d\n", instr.Op, instr.A, offset+1+int(instr.A))
	case bytecode.OpLoop:
		fmt.Fprintf(w, "%-16s %4d -> %d\n", instr.Op, instr.A, offset+1-int(instr.A))
	default:
		fmt.Fprintf(w, "%s\n", instr.Op)
	}
	return offset + 1
}

func describeConstant(c *bytecode.Chunk, idx uint32) string {
	if int(idx) >= len(c.Constants) {
		return "?"
	}
	v, ok := c.Constants[idx].(value.Value)
	if !ok {
		return "?"
	}
	return value.Print(v)
}

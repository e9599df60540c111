package disasm

import (
	"bytes"
	"strings"
	"testing"

	"ember/internal/bytecode"
	"ember/internal/memory"
	"ember/internal/value"
)

func TestInstructionFormatsConstant(t *testing.T) {
	c := bytecode.NewChunk()
	idx := c.AddConstant(value.Number(42))
	c.Write(bytecode.OpConstant, uint32(idx), 1)

	var out bytes.Buffer
	next := Instruction(&out, c, 0)
	if next != 1 {
		t.Errorf("next offset = %d, want 1", next)
	}
	if !strings.Contains(out.String(), "OP_CONSTANT") || !strings.Contains(out.String(), "42") {
		t.Errorf("output = %q, want it to show OP_CONSTANT and the constant's value", out.String())
	}
}

func TestInstructionFormatsJumpTarget(t *testing.T) {
	c := bytecode.NewChunk()
	c.Write(bytecode.OpJumpIfFalse, 3, 1) // offset 0, jumps to 0+1+3=4
	c.Write(bytecode.OpPop, 0, 1)

	var out bytes.Buffer
	Instruction(&out, c, 0)
	if !strings.Contains(out.String(), "-> 4") {
		t.Errorf("output = %q, want it to show the computed jump target 4", out.String())
	}
}

func TestInstructionFormatsLoopTarget(t *testing.T) {
	c := bytecode.NewChunk()
	c.Write(bytecode.OpNil, 0, 1)  // offset 0
	c.Write(bytecode.OpLoop, 2, 1) // offset 1, target = 1+1-2 = 0

	var out bytes.Buffer
	Instruction(&out, c, 1)
	if !strings.Contains(out.String(), "-> 0") {
		t.Errorf("output = %q, want it to show the computed loop target 0", out.String())
	}
}

func TestChunkListsEveryInstructionOnce(t *testing.T) {
	c := bytecode.NewChunk()
	c.Write(bytecode.OpTrue, 0, 1)
	c.Write(bytecode.OpPop, 0, 1)
	c.Write(bytecode.OpReturn, 0, 2)

	var out bytes.Buffer
	Chunk(&out, c, "test chunk")

	text := out.String()
	if !strings.HasPrefix(text, "== test chunk ==\n") {
		t.Errorf("output does not start with the chunk header: %q", text)
	}
	for _, want := range []string{"OP_TRUE", "OP_POP", "OP_RETURN"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q: %q", want, text)
		}
	}
}

func TestDescribeConstantOutOfRange(t *testing.T) {
	c := bytecode.NewChunk()
	if got := describeConstant(c, 0); got != "?" {
		t.Errorf("describeConstant on an empty pool = %q, want \"?\"", got)
	}
}

func TestInstructionShowsFunctionName(t *testing.T) {
	h := memory.NewHeap()
	fn := &value.FunctionObj{Name: "greet", Chunk: bytecode.NewChunk()}
	proto := value.NewFunction(h, fn)

	c := bytecode.NewChunk()
	idx := c.AddConstant(proto)
	c.Write(bytecode.OpClosure, uint32(idx), 1)

	var out bytes.Buffer
	Instruction(&out, c, 0)
	if !strings.Contains(out.String(), "<fn greet>") {
		t.Errorf("output = %q, want it to show <fn greet>", out.String())
	}
}

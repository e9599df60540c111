package bytecode

import "testing"

func TestChunkWriteAndLen(t *testing.T) {
	c := NewChunk()
	if c.Len() != 0 {
		t.Fatalf("new chunk Len() = %d, want 0", c.Len())
	}

	i0 := c.Write(OpConstant, 0, 1)
	i1 := c.Write(OpAdd, 0, 1)
	i2 := c.Write(OpReturn, 0, 2)

	if i0 != 0 || i1 != 1 || i2 != 2 {
		t.Fatalf("Write indices = %d,%d,%d, want 0,1,2", i0, i1, i2)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
	if c.Code[0].Op != OpConstant || c.Code[1].Op != OpAdd || c.Code[2].Op != OpReturn {
		t.Fatalf("unexpected code: %+v", c.Code)
	}
	if c.Lines[0] != 1 || c.Lines[2] != 2 {
		t.Fatalf("unexpected lines: %v", c.Lines)
	}
}

func TestChunkPatch(t *testing.T) {
	c := NewChunk()
	idx := c.Write(OpJumpIfFalse, 0, 1)
	c.Write(OpPop, 0, 1)
	c.Patch(idx, uint32(c.Len()-idx-1))

	if c.Code[idx].A != 1 {
		t.Errorf("patched operand = %d, want 1", c.Code[idx].A)
	}
}

func TestChunkAddConstantNoDedup(t *testing.T) {
	c := NewChunk()
	i0 := c.AddConstant(float64(1))
	i1 := c.AddConstant(float64(1))
	if i0 == i1 {
		t.Errorf("AddConstant deduped equal constants: both at index %d", i0)
	}
	if len(c.Constants) != 2 {
		t.Errorf("len(Constants) = %d, want 2", len(c.Constants))
	}
}

func TestOpString(t *testing.T) {
	if OpAdd.String() != "OP_ADD" {
		t.Errorf("OpAdd.String() = %q", OpAdd.String())
	}
	if OpClosure.String() != "OP_CLOSURE" {
		t.Errorf("OpClosure.String() = %q", OpClosure.String())
	}
	unknown := Op(255)
	if unknown.String() != "OpUnknown" {
		t.Errorf("unknown Op.String() = %q, want OpUnknown", unknown.String())
	}
}

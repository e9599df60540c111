package vm

import (
	"ember/internal/memory"
	"ember/internal/value"
)

const maxFrames = 64

// callFrame is one in-progress call: spec.md section 3's
// {closure, ip, stack_base}. closureHandle is a root distinct from
// whatever stack slot the Closure value also occupies (typically slot
// 0 of this very frame) — released when the frame is popped, same
// discipline as every other long-lived handle copy.
type callFrame struct {
	closureHandle memory.Handle
	closure       *value.ClosureObj
	function      *value.FunctionObj
	ip            int
	stackBase     int
}

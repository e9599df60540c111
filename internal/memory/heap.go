// Package memory implements the tracing garbage collector: an
// intrusive list of root-counted boxes, collected by a stop-the-world
// mark/finalize/sweep pass. There is no Go example in the retrieval
// pack that implements a from-scratch tracing GC (every Go repo here
// just leans on the host runtime's collector), so this package is
// grounded on original_source/crates/rox_gc — the Rust rust-gc-style
// crate spec.md's GC design was distilled from — translated from
// Cell<usize>-based root counting into explicit Go method calls, since
// Go has no Drop to hook destruction.
package memory

import (
	"fmt"

	"github.com/pkg/errors"

	"ember/internal/emberrors"
)

// finalizing is set for the duration of a collection's finalize phase.
// Single process-local flag, not per-Heap state: spec.md describes it
// as "a thread-local finalization-in-progress flag," and this runtime
// is single-threaded with exactly one Heap in play (spec.md section 5).
var finalizing bool

// Fatalf raises a Go panic carrying an *emberrors.Error of kind Fatal
// (spec.md section 7: GC root overflow, dereference during finalize,
// allocation failure), wrapped with github.com/pkg/errors so the panic
// carries a stack trace for diagnosis even though fatal errors are, by
// design, uncatchable application logic. The CLI's top-level recover
// unwraps with errors.Cause to recover the *emberrors.Error itself.
func Fatalf(format string, args ...any) {
	cause := emberrors.NewFatal("%s", fmt.Sprintf(format, args...))
	panic(errors.WithStack(cause))
}

// Stats mirrors rox_gc's GcStats: bytes currently live on the heap and
// the number of collections run so far. Surfaced through the
// -gcstats CLI flag and the gc_stats() native (SPEC_FULL.md).
type Stats struct {
	BytesAllocated int64
	Collections    int
}

// Heap owns the intrusive box list and the allocation trigger policy
// (spec.md section 4.1's "Trigger policy").
type Heap struct {
	head           *box
	threshold      int64
	usedSpaceRatio float64
	stats          Stats
}

const (
	defaultThreshold     = 1 << 20 // 1 MiB
	defaultUsedSpaceRatio = 0.8
)

// NewHeap returns an empty heap with the default trigger policy.
func NewHeap() *Heap {
	return &Heap{threshold: defaultThreshold, usedSpaceRatio: defaultUsedSpaceRatio}
}

// Stats returns a snapshot of the heap's live-byte counter and
// collection count.
func (h *Heap) Stats() Stats {
	return h.stats
}

// Alloc boxes obj, charging size bytes against the live-byte counter,
// collecting first if the counter is already over threshold. The
// returned Handle is rooted (root count 1); release it like any other
// root once it no longer needs to be kept alive directly (e.g. once a
// Closure containing it has itself been boxed).
//
// Per spec.md's Handle semantics, any Handle obj already holds (as a
// struct field reachable from obj) is unrooted here, since from this
// point it is reachable via obj.Trace during mark rather than via its
// own root count.
func (h *Heap) Alloc(obj Traceable, size int64) Handle {
	if h.stats.BytesAllocated > h.threshold {
		h.Collect()
		if h.stats.BytesAllocated > int64(float64(h.threshold)*h.usedSpaceRatio) {
			h.threshold = int64(float64(h.stats.BytesAllocated) / h.usedSpaceRatio)
		}
	}
	b := &box{obj: obj, next: h.head, size: size}
	h.head = b
	h.stats.BytesAllocated += size

	obj.Unroot()
	b.roots = 1
	return Handle{b: b}
}

// Collect runs one stop-the-world mark/finalize/sweep pass (spec.md
// section 4.1's three numbered phases).
func (h *Heap) Collect() {
	h.mark()
	h.finalize()
	h.markSurvivorsOfFinalize()
	h.sweep()
	h.stats.Collections++
}

func (h *Heap) mark() {
	for b := h.head; b != nil; b = b.next {
		if b.roots > 0 {
			h.markBox(b)
		}
	}
}

func (h *Heap) markBox(b *box) {
	if b.marked {
		return
	}
	b.marked = true
	b.obj.Trace(func(child Handle) {
		if child.b != nil {
			h.markBox(child.b)
		}
	})
}

func (h *Heap) finalize() {
	finalizing = true
	for b := h.head; b != nil; b = b.next {
		if !b.marked {
			b.obj.Finalize()
		}
	}
	finalizing = false
}

// markSurvivorsOfFinalize re-marks from roots registered during
// finalize, so objects a finalizer resurrected (by handing out a new
// root) survive the sweep below, per spec.md's second mark pass.
func (h *Heap) markSurvivorsOfFinalize() {
	for b := h.head; b != nil; b = b.next {
		if !b.marked && b.roots > 0 {
			h.markBox(b)
		}
	}
}

func (h *Heap) sweep() {
	var prev *box
	cur := h.head
	for cur != nil {
		next := cur.next
		if !cur.marked {
			if prev == nil {
				h.head = next
			} else {
				prev.next = next
			}
			h.stats.BytesAllocated -= cur.size
		} else {
			cur.marked = false
			prev = cur
		}
		cur = next
	}
}

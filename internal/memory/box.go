package memory

import "math"

// box is a single heap allocation: a header (root count, mark bit, the
// intrusive list link) plus the traceable payload. Spec.md section 4.1
// packs header fields into one machine word; Go has no bitfields worth
// fighting for here, so roots and marked are kept as separate fields —
// the invariant they encode is identical.
type box struct {
	roots  int32
	marked bool
	next   *box
	size   int64
	obj    Traceable
}

// Handle is a root-counted reference into the GC heap: spec.md's
// "smart handle type whose construction roots the target and whose
// destruction unroots it." Go has no destructors, so callers must call
// Release explicitly wherever the original would rely on a Rust Drop —
// at every point a Value is popped from the operand stack, overwritten
// in a local slot, or removed from the globals table.
type Handle struct {
	b *box
}

// Valid reports whether h refers to a box at all (the zero Handle does
// not — e.g. the handle of a Nil, Bool or Number Value).
func (h Handle) Valid() bool {
	return h.b != nil
}

// Object returns the boxed payload. Fails fatally if called while a
// collection's finalize phase is in progress, matching spec.md's
// "any attempt to dereference a Handle via the normal path fails with a
// fatal error" (prevents resurrection through a half-finalized object).
func (h Handle) Object() Traceable {
	if finalizing {
		Fatalf("dereferenced a Handle during GC finalization")
	}
	return h.b.obj
}

// Clone returns a new root on the same box, incrementing its root
// count. Use wherever a Value carrying this Handle is copied into a
// place that itself must keep the target alive (a stack slot, a global,
// a frame field) — mirroring Rust's Clone on Gc<T>.
func (h Handle) Clone() Handle {
	if h.b == nil {
		return h
	}
	if h.b.roots == math.MaxInt32 {
		Fatalf("GC root counter overflow")
	}
	h.b.roots++
	return h
}

// Release decrements the root count, mirroring Gc<T>'s Drop. Call
// exactly once for every Clone (including the Clone implicit in the
// Handle returned by Heap.Alloc).
func (h Handle) Release() {
	if h.b == nil {
		return
	}
	if h.b.roots == 0 {
		Fatalf("GC root counter underflow: released an unrooted handle")
	}
	h.b.roots--
}

// PtrEqual reports identity, used for function/closure/native equality
// per spec.md section 4.2 ("function/closure/native by handle identity").
func PtrEqual(a, b Handle) bool {
	return a.b == b.b
}

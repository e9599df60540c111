package memory

// Traceable is implemented by every payload that can live inside a Box.
// It plays the role rox_gc's Trace/Finalize traits play in the original
// Rust implementation (crates/rox_gc/src/trace.rs), translated into
// plain Go methods since this runtime has no trait-derive machinery.
type Traceable interface {
	// Trace visits every Handle directly held by the receiver, calling
	// visit on each exactly once. Used during mark to recurse into
	// reachable objects.
	Trace(visit func(Handle))

	// Unroot decrements the root count of every Handle directly held
	// by the receiver. Called once, immediately after the receiver is
	// boxed, so that interior edges are traced (via Trace) rather than
	// double-counted as roots.
	Unroot()

	// Finalize runs once, before the box holding the receiver is
	// reclaimed. It must not dereference any other Handle: during the
	// finalize phase of a collection, Handle.Object fails fatally.
	Finalize()
}

package compiler

import "ember/internal/bytecode"

const (
	maxLocals   = 256
	maxUpvalues = 256
	maxArgs     = 255
)

type local struct {
	name     string
	depth    int // -1 while uninitialized, between `var name` and its `=`/`;`
	captured bool
}

type upvalueRef struct {
	index   uint8
	isLocal bool
}

// funcState is one compiler context, one per function being compiled
// (spec.md section 4.3's "enclosing-compiler chain"). The chain is a
// parent-linked stack, not actual recursion, so resolveUpvalue can walk
// it iteratively no matter how deeply functions nest.
type funcState struct {
	enclosing  *funcState
	chunk      *bytecode.Chunk
	name       string
	arity      int
	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

func newFuncState(enclosing *funcState, name string) *funcState {
	fs := &funcState{enclosing: enclosing, chunk: bytecode.NewChunk(), name: name}
	// OpCall sets stack_base to the callee's own stack slot (spec.md
	// section 4.4), so slot 0 of every frame holds the running Closure
	// value, not a user local. Reserve it with an empty, undeclarable
	// name so named locals start at slot 1.
	fs.locals = append(fs.locals, local{name: "", depth: 0})
	return fs
}

// addLocal declares name as a new local in the current scope. Returns
// false (a compile error, reported by the caller) if it would exceed
// maxLocals or collide with another local already declared at this
// exact depth.
func (fs *funcState) addLocal(name string) bool {
	if len(fs.locals) >= maxLocals {
		return false
	}
	for i := len(fs.locals) - 1; i >= 0; i-- {
		l := fs.locals[i]
		if l.depth != -1 && l.depth < fs.scopeDepth {
			break
		}
		if l.name == name {
			return false
		}
	}
	fs.locals = append(fs.locals, local{name: name, depth: -1})
	return true
}

// markInitialized completes the most recently declared local's
// declaration, making it depth == scopeDepth and so resolvable.
func (fs *funcState) markInitialized() {
	fs.locals[len(fs.locals)-1].depth = fs.scopeDepth
}

// resolveLocal returns the slot of name in fs's own locals, walking top
// to bottom so shadowing within nested blocks finds the innermost
// declaration first. ok is false if not found; uninitialized is true
// when the local was found but is used before its initializer
// completed (var a = a;).
func (fs *funcState) resolveLocal(name string) (slot int, uninitialized bool, ok bool) {
	for i := len(fs.locals) - 1; i >= 0; i-- {
		if fs.locals[i].name == name {
			if fs.locals[i].depth == -1 {
				return i, true, true
			}
			return i, false, true
		}
	}
	return 0, false, false
}

// addUpvalue records that this function captures either an enclosing
// local (isLocal) or an enclosing upvalue, deduping by (index, isLocal)
// per spec.md section 4.3. Returns false if maxUpvalues would be
// exceeded.
func (fs *funcState) addUpvalue(index uint8, isLocal bool) (int, bool) {
	for i, u := range fs.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i, true
		}
	}
	if len(fs.upvalues) >= maxUpvalues {
		return 0, false
	}
	fs.upvalues = append(fs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fs.upvalues) - 1, true
}

// upvalueResult distinguishes the three outcomes resolveUpvalue's caller
// must react to differently: no enclosing binding by this name at all,
// a binding found but read before its initializer completed (a compile
// error), and this function's own upvalue list already being full (also
// a compile error).
type upvalueResult int

const (
	upvalueNotFound upvalueResult = iota
	upvalueFound
	upvalueUninitialized
	upvalueTooMany
)

// resolveUpvalue implements spec.md section 4.3's resolution order step
// 2: recurse into the enclosing function state; a local found there is
// captured (and marked captured so the enclosing function closes it
// properly on scope exit); an upvalue found there is chained through.
func resolveUpvalue(fs *funcState, name string) (int, upvalueResult) {
	if fs.enclosing == nil {
		return 0, upvalueNotFound
	}
	if slot, uninitialized, ok := fs.enclosing.resolveLocal(name); ok {
		if uninitialized {
			return 0, upvalueUninitialized
		}
		fs.enclosing.locals[slot].captured = true
		idx, added := fs.addUpvalue(uint8(slot), true)
		if !added {
			return 0, upvalueTooMany
		}
		return idx, upvalueFound
	}
	if idx, res := resolveUpvalue(fs.enclosing, name); res != upvalueNotFound {
		if res != upvalueFound {
			return 0, res
		}
		ui, added := fs.addUpvalue(uint8(idx), false)
		if !added {
			return 0, upvalueTooMany
		}
		return ui, upvalueFound
	}
	return 0, upvalueNotFound
}

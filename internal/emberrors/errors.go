// Package emberrors carries the three error kinds spec.md section 7
// distinguishes: compile errors, runtime errors, and fatal invariant
// violations. Shaped directly on the teacher's internal/errors package
// (SourceLocation, a rendered backtrace, a single Error() string) but
// narrowed to the three kinds this core actually raises.
package emberrors

import (
	"fmt"
	"strings"
)

// Kind distinguishes where an error was raised and how the driver
// should react to it (spec.md section 7 / section 6 exit codes).
type Kind int

const (
	Compile Kind = iota
	Runtime
	Fatal
)

// Location pinpoints a single source line; Column is best-effort and
// may be zero when the raiser didn't have one handy.
type Location struct {
	Line   int
	Column int
}

// Frame is one entry of a runtime backtrace: a call frame's function
// name and the source line of the instruction that was executing.
type Frame struct {
	Function string
	Line     int
}

// Error is the single error type the compiler and VM raise. Compile
// errors carry only a Location; runtime errors additionally carry a
// Stack backtrace, innermost frame first, per spec.md section 7's
// format ("Runtime error: <message> [line N]" followed by one line per
// frame).
type Error struct {
	Kind     Kind
	Message  string
	Location Location
	Stack    []Frame
}

func (e *Error) Error() string {
	var sb strings.Builder
	switch e.Kind {
	case Compile:
		fmt.Fprintf(&sb, "[line %d] Error: %s", e.Location.Line, e.Message)
	case Fatal:
		fmt.Fprintf(&sb, "Fatal error: %s", e.Message)
	default:
		fmt.Fprintf(&sb, "Runtime error: %s [line %d]", e.Message, e.Location.Line)
		for _, f := range e.Stack {
			if f.Function == "" {
				fmt.Fprintf(&sb, "\n  [line %d] in script", f.Line)
			} else {
				fmt.Fprintf(&sb, "\n  [line %d] in %s()", f.Line, f.Function)
			}
		}
	}
	return sb.String()
}

func NewCompile(line int, format string, args ...any) *Error {
	return &Error{Kind: Compile, Message: fmt.Sprintf(format, args...), Location: Location{Line: line}}
}

func NewRuntime(line int, format string, args ...any) *Error {
	return &Error{Kind: Runtime, Message: fmt.Sprintf(format, args...), Location: Location{Line: line}}
}

// WithStack attaches a backtrace to a runtime error, innermost frame
// first, and returns the same error for chaining at the raise site.
func (e *Error) WithStack(stack []Frame) *Error {
	e.Stack = stack
	return e
}

// NewFatal returns an *Error of Kind Fatal; Fatalf panics with one.
// Fatal errors mark a broken
// core invariant (GC root overflow, dereference during finalize,
// allocation failure, VM stack bounds violation) and are never meant to
// be recovered except by the CLI's top-level recover, which turns them
// into exit code 70.
func NewFatal(format string, args ...any) *Error {
	return &Error{Kind: Fatal, Message: fmt.Sprintf(format, args...)}
}

func Fatalf(format string, args ...any) {
	panic(NewFatal(format, args...))
}

// Command ember is the driver: no arguments launches the REPL, one
// argument interprets a source file (spec.md section 6). Grounded on
// the shape of cmd/sentra/main.go's argument dispatch and top-level
// error handling, trimmed to the two-mode contract spec.md section 6
// actually specifies — the teacher's build/lint/watch/lsp/test
// subcommands have no equivalent operation in this spec and are
// dropped rather than carried as dead code.
package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"ember/internal/compiler"
	"ember/internal/disasm"
	"ember/internal/emberrors"
	"ember/internal/memory"
	"ember/internal/natives"
	"ember/internal/repl"
	"ember/internal/vm"
)

func main() {
	args := os.Args[1:]

	var debug, gcstats bool
	var path string
	for _, a := range args {
		switch a {
		case "-debug":
			debug = true
		case "-gcstats":
			gcstats = true
		default:
			if path != "" {
				fmt.Fprintln(os.Stderr, "usage: ember [-debug] [-gcstats] [path]")
				os.Exit(64)
			}
			path = a
		}
	}

	if path == "" {
		repl.Start(os.Stdin, os.Stdout)
		return
	}

	os.Exit(run(path, debug, gcstats))
}

// run interprets the file at path and returns the process exit code,
// recovering a Fatal *emberrors.Error raised anywhere in the compiler
// or VM (GC invariant violations are never meant to propagate as an
// ordinary error return) and converting it to exit code 70.
func run(path string, debug, gcstats bool) (code int) {
	defer func() {
		if r := recover(); r != nil {
			if embErr, ok := errors.Cause(asError(r)).(*emberrors.Error); ok && embErr.Kind == emberrors.Fatal {
				fmt.Fprintln(os.Stderr, embErr.Error())
				code = 70
				return
			}
			panic(r)
		}
	}()

	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ember: %v\n", err)
		return 74
	}

	v := vm.New()
	natives.Register(v)

	if debug {
		if err := compileAndDisassemble(src, path); err != nil {
			return exitFor(err)
		}
	}

	if err := v.Interpret(src); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return exitFor(err)
	}

	if gcstats {
		stats := v.Heap().Stats()
		fmt.Fprintf(os.Stderr, "gc: %s allocated, %d collection(s)\n",
			humanize.Bytes(uint64(stats.BytesAllocated)), stats.Collections)
	}

	return 0
}

// compileAndDisassemble recompiles src on its own so -debug can print a
// listing before Interpret runs the same source for real. It compiles
// against a throwaway heap, not the VM's own — this listing is read and
// discarded, and boxing its string/function constants on the real heap
// would root them there for good (Unroot only runs once, at Alloc time,
// so nothing ever frees a constant from a compile whose FunctionObj is
// never itself passed to value.NewFunction). A compile error here is
// reported and returned, and run exits with it without calling
// Interpret.
func compileAndDisassemble(src []byte, path string) error {
	fn, err := compiler.Compile(src, memory.NewHeap())
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return err
	}
	disasm.Chunk(os.Stderr, fn.Chunk, path)
	return nil
}

func exitFor(err error) int {
	var embErr *emberrors.Error
	if errors.As(err, &embErr) {
		switch embErr.Kind {
		case emberrors.Compile:
			return 65
		case emberrors.Runtime:
			return 70
		}
	}
	return 70
}

func asError(r interface{}) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}

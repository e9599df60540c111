// Package repl implements the CLI's zero-argument interactive mode
// (spec.md section 6): read one line at a time, feed it to the same
// Interpret entry point the file-mode path uses, report errors without
// terminating. Grounded on the teacher's internal/repl/repl.go for the
// read-line/compile/run loop shape; rebuilt against the new compiler
// and VM packages, since the teacher's AST-walking compiler and its
// ResetWithChunk/Run API no longer exist.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"ember/internal/natives"
	"ember/internal/vm"
)

// Start runs the interactive loop against in/out until an empty line is
// read or input is exhausted.
func Start(in io.Reader, out io.Writer) {
	v := vm.New()
	v.SetOutput(out)
	natives.Register(v)

	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = isatty.IsTerminal(f.Fd())
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			fmt.Fprint(out, "> ")
		}
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		if line == "" {
			return
		}
		if err := v.Interpret([]byte(line)); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			v.ResetStack()
		}
	}
}

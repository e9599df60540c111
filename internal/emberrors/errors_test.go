package emberrors

import "testing"

func TestErrorRendering(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "compile error",
			err:  NewCompile(12, "Expect ')' after expression."),
			want: "[line 12] Error: Expect ')' after expression.",
		},
		{
			name: "fatal error",
			err:  NewFatal("GC root counter overflow"),
			want: "Fatal error: GC root counter overflow",
		},
		{
			name: "runtime error with no frames",
			err:  NewRuntime(3, "Undefined variable 'x'."),
			want: "Runtime error: Undefined variable 'x'. [line 3]",
		},
		{
			name: "runtime error with a backtrace",
			err: NewRuntime(5, "Operand must be a number.").WithStack([]Frame{
				{Function: "inner", Line: 5},
				{Function: "outer", Line: 2},
				{Function: "", Line: 8},
			}),
			want: "Runtime error: Operand must be a number. [line 5]\n" +
				"  [line 5] in inner()\n" +
				"  [line 2] in outer()\n" +
				"  [line 8] in script",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewCompileFormatsArgs(t *testing.T) {
	err := NewCompile(1, "Expect %s after %s.", "';'", "expression")
	want := "[line 1] Error: Expect ';' after expression."
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestKindsDistinct(t *testing.T) {
	if Compile == Runtime || Runtime == Fatal || Compile == Fatal {
		t.Fatalf("Kind constants are not pairwise distinct")
	}
}

package vm

import (
	"bytes"
	"strings"
	"testing"

	"ember/internal/value"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	v := New()
	v.SetOutput(&out)
	err := v.Interpret([]byte(src))
	return out.String(), err
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"addition", "print 10 + 20;", "30\n"},
		{"subtraction", "print 50 - 20;", "30\n"},
		{"multiplication", "print 5 * 6;", "30\n"},
		{"division", "print 60 / 2;", "30\n"},
		{"negation", "print -42;", "-42\n"},
		{"string concatenation", `print "foo" + "bar";`, "foobar\n"},
		{"precedence", "print 1 + 2 * 3;", "7\n"},
		{"grouping", "print (1 + 2) * 3;", "9\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := run(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComparisonAndEquality(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"print 1 < 2;", "true\n"},
		{"print 1 > 2;", "false\n"},
		{"print 1 <= 1;", "true\n"},
		{"print 1 >= 2;", "false\n"},
		{"print 1 == 1;", "true\n"},
		{"print 1 != 1;", "false\n"},
		{`print "a" == "a";`, "true\n"},
		{"print nil == nil;", "true\n"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := run(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestShortCircuit(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"print false and (1/0 == 1/0);", "false\n"}, // right side never evaluated
		{"print true or (1/0 == 1/0);", "true\n"},
		{"print 1 and 2;", "2\n"},
		{"print nil or 3;", "3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got, err := run(t, tt.src)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGlobalsSemantics(t *testing.T) {
	t.Run("define then read", func(t *testing.T) {
		got, err := run(t, "var x = 5; print x;")
		if err != nil || got != "5\n" {
			t.Fatalf("got %q, %v", got, err)
		}
	})

	t.Run("define overwrites an existing global", func(t *testing.T) {
		got, err := run(t, "var x = 1; var x = 2; print x;")
		if err != nil || got != "2\n" {
			t.Fatalf("got %q, %v", got, err)
		}
	})

	t.Run("get undefined global is a runtime error", func(t *testing.T) {
		_, err := run(t, "print undeclared;")
		if err == nil || !strings.Contains(err.Error(), "Undefined variable") {
			t.Fatalf("err = %v, want an undefined-variable runtime error", err)
		}
	})

	t.Run("set undefined global is a runtime error", func(t *testing.T) {
		_, err := run(t, "undeclared = 1;")
		if err == nil || !strings.Contains(err.Error(), "Undefined variable") {
			t.Fatalf("err = %v, want an undefined-variable runtime error", err)
		}
	})
}

func TestScopeIsolation(t *testing.T) {
	got, err := run(t, `
		var x = "outer";
		{
			var x = "inner";
			print x;
		}
		print x;
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "inner\nouter\n" {
		t.Errorf("output = %q, want %q", got, "inner\nouter\n")
	}
}

func TestControlFlow(t *testing.T) {
	t.Run("if/else", func(t *testing.T) {
		got, err := run(t, `if (1 < 2) { print "yes"; } else { print "no"; }`)
		if err != nil || got != "yes\n" {
			t.Fatalf("got %q, %v", got, err)
		}
	})

	t.Run("while loop", func(t *testing.T) {
		got, err := run(t, `
			var i = 0;
			while (i < 3) {
				print i;
				i = i + 1;
			}
		`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "0\n1\n2\n" {
			t.Errorf("output = %q", got)
		}
	})

	t.Run("for loop", func(t *testing.T) {
		got, err := run(t, `
			for (var i = 0; i < 3; i = i + 1) {
				print i;
			}
		`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "0\n1\n2\n" {
			t.Errorf("output = %q", got)
		}
	})
}

func TestFunctionsAndRecursion(t *testing.T) {
	got, err := run(t, `
		fun fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
		print fib(10);
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "55\n" {
		t.Errorf("output = %q, want 55", got)
	}
}

func TestClosuresCaptureAndMutateSharedUpvalue(t *testing.T) {
	got, err := run(t, `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var counter = makeCounter();
		print counter();
		print counter();
		print counter();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1\n2\n3\n" {
		t.Errorf("output = %q, want 1\\n2\\n3\\n", got)
	}
}

func TestClosuresCaptureByReferenceAcrossIndependentInstances(t *testing.T) {
	got, err := run(t, `
		fun makeCounter() {
			var count = 0;
			fun increment() {
				count = count + 1;
				return count;
			}
			return increment;
		}
		var a = makeCounter();
		var b = makeCounter();
		print a();
		print a();
		print b();
	`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "1\n2\n1\n" {
		t.Errorf("output = %q, distinct counters must not share state", got)
	}
}

func TestRuntimeErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{"negate a string", `-"x";`, "Operand must be a number."},
		{"add incompatible types", `1 + "x";`, "Operands must be two numbers or two strings."},
		{"call a number", `var x = 1; x();`, "Can only call functions and classes."},
		{"wrong arity", `fun f(a, b) { return a + b; } f(1);`, "Expected 2 arguments but got 1."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.src)
			if err == nil {
				t.Fatalf("expected a runtime error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestStackOverflow(t *testing.T) {
	_, err := run(t, `
		fun recurse() { return recurse(); }
		recurse();
	`)
	if err == nil || !strings.Contains(err.Error(), "Stack overflow!") {
		t.Fatalf("err = %v, want a stack overflow runtime error", err)
	}
}

func TestResetStackAfterRuntimeError(t *testing.T) {
	v := New()
	var out bytes.Buffer
	v.SetOutput(&out)

	if err := v.Interpret([]byte(`print 1 + "x";`)); err == nil {
		t.Fatalf("expected a runtime error")
	}
	v.ResetStack()

	// the VM must remain usable for a fresh program after a reset, the
	// REPL's recovery contract (spec.md section 7).
	if err := v.Interpret([]byte(`print 42;`)); err != nil {
		t.Fatalf("unexpected error after ResetStack: %v", err)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q, want %q", out.String(), "42\n")
	}
}

func TestDefineNative(t *testing.T) {
	v := New()
	var out bytes.Buffer
	v.SetOutput(&out)
	v.DefineNative("answer", func(args []value.Value) (value.Value, error) {
		return value.Number(42), nil
	})

	if err := v.Interpret([]byte(`print answer();`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "42\n" {
		t.Errorf("output = %q, want 42", out.String())
	}
}

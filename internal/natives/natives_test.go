package natives

import (
	"bytes"
	"strings"
	"testing"

	"ember/internal/value"
	"ember/internal/vm"
)

func TestArgString(t *testing.T) {
	h := vm.New().Heap()
	args := []value.Value{value.NewString(h, "hi"), value.Number(1)}

	got, err := argString(args, 0, "f")
	if err != nil || got != "hi" {
		t.Fatalf("argString(0) = %q, %v, want hi, nil", got, err)
	}

	if _, err := argString(args, 1, "f"); err == nil {
		t.Errorf("argString on a Number arg did not error")
	}
	if _, err := argString(args, 5, "f"); err == nil {
		t.Errorf("argString out of range did not error")
	}
}

func TestArgNumber(t *testing.T) {
	args := []value.Value{value.Number(3.5), value.Bool(true)}

	got, err := argNumber(args, 0, "f")
	if err != nil || got != 3.5 {
		t.Fatalf("argNumber(0) = %v, %v, want 3.5, nil", got, err)
	}
	if _, err := argNumber(args, 1, "f"); err == nil {
		t.Errorf("argNumber on a Bool arg did not error")
	}
}

func TestRegisterClockUUIDGCStats(t *testing.T) {
	v := vm.New()
	var out bytes.Buffer
	v.SetOutput(&out)
	Register(v)

	if err := v.Interpret([]byte(`print clock() >= 0;`)); err != nil {
		t.Fatalf("clock(): %v", err)
	}
	if out.String() != "true\n" {
		t.Errorf("clock() >= 0 = %q, want true", out.String())
	}

	out.Reset()
	if err := v.Interpret([]byte(`var id = uuid(); print id == id;`)); err != nil {
		t.Fatalf("uuid(): %v", err)
	}
	if out.String() != "true\n" {
		t.Errorf("uuid() == uuid() (same value) = %q, want true", out.String())
	}

	out.Reset()
	if err := v.Interpret([]byte(`print gc_stats();`)); err != nil {
		t.Fatalf("gc_stats(): %v", err)
	}
	if !strings.Contains(out.String(), "allocated") {
		t.Errorf("gc_stats() = %q, want it to mention bytes allocated", out.String())
	}
}

func TestCryptoRoundTrip(t *testing.T) {
	v := vm.New()
	var out bytes.Buffer
	v.SetOutput(&out)
	Register(v)

	err := v.Interpret([]byte(`
		var h = hash_password("correct horse");
		print check_password("correct horse", h);
		print check_password("wrong", h);
	`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.String() != "true\nfalse\n" {
		t.Errorf("output = %q, want true\\nfalse\\n", out.String())
	}
}

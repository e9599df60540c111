package natives

import (
	"testing"

	"ember/internal/vm"
)

func TestWebSocketNativesRegistered(t *testing.T) {
	v := vm.New()
	Register(v)
	for _, name := range []string{"ws_connect", "ws_send", "ws_recv", "ws_close"} {
		if err := v.Interpret([]byte(name + ";")); err != nil {
			t.Errorf("%s is not registered as a global: %v", name, err)
		}
	}
}

func TestWSSendOnUnknownSocketIsRuntimeError(t *testing.T) {
	v := vm.New()
	Register(v)
	err := v.Interpret([]byte(`ws_send(999999, "hi");`))
	if err == nil {
		t.Fatalf("ws_send on a socket id that was never opened succeeded, want an error")
	}
}

func TestWSCloseOnUnknownSocketIsNoop(t *testing.T) {
	v := vm.New()
	Register(v)
	if err := v.Interpret([]byte(`ws_close(999999);`)); err != nil {
		t.Fatalf("ws_close on an unknown id returned an error: %v", err)
	}
}

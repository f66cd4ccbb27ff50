package hub

import (
	"bytes"
	"testing"

	"github.com/alex-quiterio/infact/demo"
	"github.com/alex-quiterio/infact/env"
	"github.com/alex-quiterio/infact/interp"
)

func newTestHub() (*Hub, *bytes.Buffer) {
	e := env.New()
	demo.RegisterAll(e)
	i := interp.New(e)
	var buf bytes.Buffer
	return New(i, &buf), &buf
}

func TestDoEvaluatesPlainScriptLines(t *testing.T) {
	h, _ := newTestHub()
	if quit := h.Do(`int n = 5;`); quit {
		t.Fatal("a plain script line should never quit the hub")
	}
	if v, ok := interp.Get[int](h.interp, "n"); !ok || v != 5 {
		t.Fatalf("n = %v, %v; want 5, true", v, ok)
	}
}

func TestDoQuitCommand(t *testing.T) {
	h, _ := newTestHub()
	if quit := h.Do("hub quit"); !quit {
		t.Fatal("expected 'hub quit' to signal quit")
	}
}

func TestDoHelpAndEnvCommandsProduceOutput(t *testing.T) {
	h, buf := newTestHub()
	h.Do("hub help")
	if buf.Len() == 0 {
		t.Fatal("expected 'hub help' to write something")
	}
	buf.Reset()

	h.Do(`int n = 1;`)
	h.Do("hub env")
	if buf.Len() == 0 {
		t.Fatal("expected 'hub env' to describe the bound variable")
	}
}

func TestDoEvalSubcommand(t *testing.T) {
	h, _ := newTestHub()
	h.Do(`hub eval "int n = 9;"`)
	if v, ok := interp.Get[int](h.interp, "n"); !ok || v != 9 {
		t.Fatalf("n = %v, %v; want 9, true", v, ok)
	}
}

func TestDoUnknownHubVerbReportsError(t *testing.T) {
	h, buf := newTestHub()
	h.Do("hub nonsense")
	if buf.Len() == 0 {
		t.Fatal("expected an error message for an unrecognized hub verb")
	}
}

func TestDoEvalErrorIsReportedNotPanicked(t *testing.T) {
	h, buf := newTestHub()
	h.Do(`int n = "oops";`)
	if buf.Len() == 0 {
		t.Fatal("expected a type-mismatch error to be reported")
	}
}

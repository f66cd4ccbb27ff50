package env

import (
	"testing"

	"github.com/alex-quiterio/infact/lexer"
	"github.com/alex-quiterio/infact/typetag"
)

func TestSetAndGetRoundTrip(t *testing.T) {
	e := New()
	if err := e.Set("n", typetag.Int, 42); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := Get[int](e, "n")
	if !ok || got != 42 {
		t.Fatalf("Get[int] = %v, %v; want 42, true", got, ok)
	}
	if _, ok := Get[string](e, "n"); ok {
		t.Fatal("Get[string] on an int variable should fail")
	}
	if _, ok := Get[int](e, "missing"); ok {
		t.Fatal("Get on an undefined variable should fail")
	}
}

func TestTypeOfUndefinedReturnsFalse(t *testing.T) {
	e := New()
	if _, ok := e.TypeOf("nope"); ok {
		t.Fatal("TypeOf on an undefined variable should return ok=false")
	}
}

func TestReassignSameTypeOverwrites(t *testing.T) {
	e := New()
	if err := e.Set("n", typetag.Int, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Set("n", typetag.Int, 2); err != nil {
		t.Fatalf("unexpected error on same-type reassignment: %v", err)
	}
	got, _ := Get[int](e, "n")
	if got != 2 {
		t.Fatalf("got %d, want 2 (overwrite)", got)
	}
}

func TestReassignDifferentTypeIsTypeMismatch(t *testing.T) {
	e := New()
	if err := e.Set("n", typetag.Int, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := e.Set("n", typetag.String, "oops"); err == nil {
		t.Fatal("expected a TypeMismatch error reassigning with a different type")
	}
}

func TestCopyIsIndependent(t *testing.T) {
	e := New()
	if err := e.Set("n", typetag.Int, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cp := e.Copy()
	if got, ok := Get[int](cp, "n"); !ok || got != 1 {
		t.Fatalf("copy does not see original's variable: %v, %v", got, ok)
	}
	if err := cp.Set("n", typetag.Int, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := cp.Set("m", typetag.Int, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := Get[int](e, "n"); got != 1 {
		t.Fatalf("writing to the copy mutated the original: n = %d", got)
	}
	if e.Defined("m") {
		t.Fatal("writing to the copy leaked a new variable into the original")
	}
}

func TestReadAndSetPrimitivesAndVectors(t *testing.T) {
	e := New()
	s := lexer.New(`42`)
	if err := e.ReadAndSet("n", typetag.Int, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := Get[int](e, "n"); !ok || got != 42 {
		t.Fatalf("got %v, %v; want 42, true", got, ok)
	}

	s2 := lexer.New(`{1, 2, 3,}`)
	if err := e.ReadAndSet("xs", typetag.Vector(typetag.Int), s2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := Get[[]int](e, "xs")
	if !ok || len(got) != 3 {
		t.Fatalf("got %v, %v; want a 3-element []int", got, ok)
	}
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("vector contents wrong: %v", got)
	}
	if _, ok := Get[[]any](e, "xs"); ok {
		t.Fatal("Get[[]any] should not match a vector stored as []int")
	}
	if _, ok := Get[[]string](e, "xs"); ok {
		t.Fatal("Get[[]string] should not match a vector of a different element type")
	}
}

func TestReadAndSetVariableReference(t *testing.T) {
	e := New()
	s := lexer.New(`"hello"`)
	if err := e.ReadAndSet("s", typetag.String, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s2 := lexer.New(`s`)
	if err := e.ReadAndSet("t", typetag.String, s2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := Get[string](e, "t")
	if !ok || got != "hello" {
		t.Fatalf("got %v, %v; want hello, true", got, ok)
	}
}

func TestInferTypePrimitives(t *testing.T) {
	e := New()
	cases := []struct {
		src  string
		want typetag.Tag
	}{
		{"true", typetag.Bool},
		{`"x"`, typetag.String},
		{"42", typetag.Int},
		{"2.5e1", typetag.Double},
	}
	for _, c := range cases {
		tag, err := e.InferType(lexer.New(c.src))
		if err != nil {
			t.Fatalf("InferType(%q): unexpected error: %v", c.src, err)
		}
		if tag != c.want {
			t.Fatalf("InferType(%q) = %q, want %q", c.src, tag, c.want)
		}
	}
}

func TestInferTypeVectorOfInts(t *testing.T) {
	e := New()
	tag, err := e.InferType(lexer.New(`{1, 2, 3}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tag != typetag.Vector(typetag.Int) {
		t.Fatalf("got %q, want %q", tag, typetag.Vector(typetag.Int))
	}
}

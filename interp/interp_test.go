package interp

import (
	"bytes"
	"testing"

	"github.com/alex-quiterio/infact/demo"
	"github.com/alex-quiterio/infact/env"
	"github.com/alex-quiterio/infact/errs"
)

func newTestInterpreter() *Interpreter {
	e := env.New()
	demo.RegisterAll(e)
	return New(e)
}

// Scenario 1 (SPEC_FULL.md section 8).
func TestScenarioPrimitiveLiterals(t *testing.T) {
	i := newTestInterpreter()
	src := `bool b = true; int n = 42; double d = 2.5e1; string s = "hi";`
	if err := i.Eval(src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := Get[bool](i, "b"); !ok || v != true {
		t.Fatalf("b = %v, %v; want true, true", v, ok)
	}
	if v, ok := Get[int](i, "n"); !ok || v != 42 {
		t.Fatalf("n = %v, %v; want 42, true", v, ok)
	}
	if v, ok := Get[float64](i, "d"); !ok || v != 25.0 {
		t.Fatalf("d = %v, %v; want 25.0, true", v, ok)
	}
	if v, ok := Get[string](i, "s"); !ok || v != "hi" {
		t.Fatalf("s = %v, %v; want hi, true", v, ok)
	}
}

// Scenario 2.
func TestScenarioVectorOfIntsWithTrailingComma(t *testing.T) {
	i := newTestInterpreter()
	if err := i.Eval(`int[] xs = {1, 2, 3,};`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := Get[[]int](i, "xs")
	if !ok || len(got) != 3 {
		t.Fatalf("xs = %v, %v; want a 3-element []int", got, ok)
	}
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("vector contents wrong: %v", got)
	}
}

// Scenario 3.
func TestScenarioCowInitializerOrderIndependence(t *testing.T) {
	i := newTestInterpreter()
	src := `Animal c = Cow(name("foo"), age(3)); Animal d = Cow(age(7), name("bar")); Animal e = Cow(name("baz"));`
	if err := i.Eval(src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, _ := Get[demo.Animal](i, "c")
	d, _ := Get[demo.Animal](i, "d")
	e, _ := Get[demo.Animal](i, "e")
	if c.(*demo.Cow).Name != "foo" || c.(*demo.Cow).Age != 3 {
		t.Fatalf("c wrong: %+v", c)
	}
	if d.(*demo.Cow).Name != "bar" || d.(*demo.Cow).Age != 7 {
		t.Fatalf("d wrong: %+v", d)
	}
	if e.(*demo.Cow).Name != "baz" || e.(*demo.Cow).Age != 0 {
		t.Fatalf("e wrong (should keep default age): %+v", e)
	}
}

// Scenario 4.
func TestScenarioMissingRequiredIsFatal(t *testing.T) {
	i := newTestInterpreter()
	err := i.Eval(`Animal bad = Cow(age(5));`)
	if !errs.Is(err, errs.MissingRequired) {
		t.Fatalf("expected MissingRequired, got %v", err)
	}
}

// Scenario 5.
func TestScenarioVariableReferenceInSpec(t *testing.T) {
	i := newTestInterpreter()
	src := `string s = "hello"; Animal c = Cow(name(s));`
	if err := i.Eval(src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c, _ := Get[demo.Animal](i, "c")
	if c.(*demo.Cow).Name != "hello" {
		t.Fatalf("expected name to resolve from variable s, got %+v", c)
	}
}

// Scenario 6.
func TestScenarioModelVectorWithNullElement(t *testing.T) {
	i := newTestInterpreter()
	src := `Model[] ms = {PerceptronModel(name("a")), nullptr, PerceptronModel(name("b"))};`
	if err := i.Eval(src); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := Get[[]demo.Model](i, "ms")
	if !ok || len(got) != 3 {
		t.Fatalf("ms = %v, %v; want a 3-element []demo.Model", got, ok)
	}
	if got[1] != nil {
		t.Fatalf("expected the middle element to be nil, got %v", got[1])
	}
	first, ok := got[0].(*demo.PerceptronModel)
	if !ok || first.Name != "a" {
		t.Fatalf("first element wrong: %v", got[0])
	}
}

func TestReassignmentOverwriteAndTypeMismatch(t *testing.T) {
	i := newTestInterpreter()
	if err := i.Eval(`int n = 1; int n = 2;`); err != nil {
		t.Fatalf("same-type reassignment should overwrite, got error: %v", err)
	}
	if v, _ := Get[int](i, "n"); v != 2 {
		t.Fatalf("n = %d, want 2", v)
	}
	if err := i.Eval(`string n = "oops";`); !errs.Is(err, errs.TypeMismatch) {
		t.Fatalf("expected TypeMismatch reassigning n with a different type, got %v", err)
	}
}

func TestUndefinedVariableReferenceIsFatal(t *testing.T) {
	i := newTestInterpreter()
	err := i.Eval(`string s = nope;`)
	if !errs.Is(err, errs.Undefined) {
		t.Fatalf("expected Undefined, got %v", err)
	}
}

func TestTypeOfUndefinedIsExplicitNotFound(t *testing.T) {
	i := newTestInterpreter()
	if _, ok := i.Env().TypeOf("nope"); ok {
		t.Fatal("TypeOf on an undefined variable should report ok=false, not panic or return a dangling reference")
	}
}

func TestPrintEnvAndPrintFactoriesDoNotPanic(t *testing.T) {
	i := newTestInterpreter()
	if err := i.Eval(`int n = 1;`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var buf bytes.Buffer
	i.PrintEnv(&buf)
	i.PrintFactories(&buf)
	if buf.Len() == 0 {
		t.Fatal("expected some diagnostic output")
	}
}

// Package demo provides example registered concrete types — Cow, Sheep,
// and Model/PerceptronModel — standing in for the "external collaborator"
// concrete types that SPEC_FULL.md section 1 places outside the core's
// scope. They exist so the registry, schema, environment, and
// interpreter packages have something concrete to construct, and they
// mirror the worked scenarios of SPEC_FULL.md section 8 and the
// FactoryConstructible doc-comment examples in
// original_source/src/infact/factory.h.
package demo

import (
	"fmt"

	"github.com/alex-quiterio/infact/env"
	"github.com/alex-quiterio/infact/registry"
	"github.com/alex-quiterio/infact/schema"
	"github.com/alex-quiterio/infact/typetag"
)

// Animal is the abstract base type of the farm-animal examples.
type Animal interface {
	Sound() string
}

// Cow is the running example of SPEC_FULL.md section 8, scenario 3: a
// required string member and an optional int member with a default.
type Cow struct {
	Name string
	Age  int
}

func (c *Cow) Sound() string { return "moo" }

// NewCow is Cow's zero-argument constructor, as infact's Factory<T>
// requires.
func NewCow() *Cow { return &Cow{Age: 0} }

// CowSchema registers Cow's constructor parameters: name is required,
// age is optional and defaults to 0.
func CowSchema(c *Cow) *schema.Schema {
	s := schema.New()
	schema.AddRequiredParam(s, "name", typetag.String, &c.Name)
	schema.AddParam(s, "age", typetag.Int, &c.Age)
	return s
}

// Sheep additionally exercises a temporary slot: woolGrade is read from
// the construction environment and folded into a derived field rather
// than stored verbatim, showing the PostInit hook in action.
type Sheep struct {
	Name       string
	Woolliness int
}

func (s *Sheep) Sound() string { return "baa" }

func NewSheep() *Sheep { return &Sheep{} }

func SheepSchema(s *Sheep) *schema.Schema {
	sch := schema.New()
	schema.AddRequiredParam(sch, "name", typetag.String, &s.Name)
	schema.AddTemporary[int](sch, "woolGrade", typetag.Int)
	return sch
}

// PostInit reads the woolGrade temporary, which was bound into the scoped
// environment by its schema slot but never written to a field directly,
// and derives Woolliness from it — the Go analogue of infact's
// FactoryConstructible::PostInit hook.
func (s *Sheep) PostInit(e *env.Environment, initString string) error {
	grade, ok := env.Get[int](e, "woolGrade")
	if !ok {
		grade = 1
	}
	s.Woolliness = grade * 10
	return nil
}

// Model is the abstract base of SPEC_FULL.md section 8, scenario 6 —
// used there as a vector element type that may be null.
type Model interface {
	Describe() string
}

// PerceptronModel is the one registered concrete Model.
type PerceptronModel struct {
	Name string
}

func (p *PerceptronModel) Describe() string { return fmt.Sprintf("PerceptronModel(%s)", p.Name) }

func NewPerceptronModel() *PerceptronModel { return &PerceptronModel{} }

func PerceptronModelSchema(p *PerceptronModel) *schema.Schema {
	s := schema.New()
	schema.AddRequiredParam(s, "name", typetag.String, &p.Name)
	return s
}

// RegisterAll wires every demo type into e: Cow and Sheep against the
// "Animal" base, PerceptronModel against the "Model" base. Host code
// (cmd/infact, tests) calls this once before any Eval.
func RegisterAll(e *env.Environment) {
	animals := registry.New[Animal]("Animal")
	registry.Register[Animal, Cow](animals, "Cow", NewCow, CowSchema)
	registry.Register[Animal, Sheep](animals, "Sheep", NewSheep, SheepSchema)
	e.RegisterBase(animals)

	models := registry.New[Model]("Model")
	registry.Register[Model, PerceptronModel](models, "PerceptronModel", NewPerceptronModel, PerceptronModelSchema)
	e.RegisterBase(models)
}

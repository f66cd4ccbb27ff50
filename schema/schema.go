// Package schema implements the per-concrete-type parameter slots of
// SPEC_FULL.md section 4.3: the Go replacement for infact's Initializers
// / MemberInitializer / TypedMemberInitializer<T> family
// (original_source/src/infact/factory.h).
//
// A concrete type's schema function (the one passed to registry.Register)
// builds one Schema by
// calling AddParam / AddRequiredParam / AddTemporary / AddRequiredTemporary
// once per named member. Because Go does not allow a method to carry its
// own type parameter, the role infact's templated Initializers::Add<T>
// plays here is a set of free generic functions rather than methods on
// Schema (SPEC_FULL.md section 9) — each one closing over a *T field
// pointer the way the INFACT_ADD_PARAM macro captures an address.
package schema

import (
	"github.com/alex-quiterio/infact/env"
	"github.com/alex-quiterio/infact/errs"
	"github.com/alex-quiterio/infact/lexer"
	"github.com/alex-quiterio/infact/typetag"
)

// Slot is one named parameter of a concrete type's constructor spec. A
// temporary slot (set == nil) only ever lives in the scoped Environment
// used to construct the enclosing spec; a regular slot also copies its
// value into a field of the object under construction.
type Slot struct {
	Name      string
	Tag       typetag.Tag
	Required  bool
	initCount int
	set       func(any)
}

// Schema is the ordered, duplicate-checked set of parameter slots for one
// concrete type, built fresh each time that type's constructor is
// invoked by the registry's specification parser.
type Schema struct {
	order []string
	slots map[string]*Slot
}

// New returns an empty Schema.
func New() *Schema {
	return &Schema{slots: make(map[string]*Slot)}
}

func (s *Schema) add(name string, tag typetag.Tag, required bool, set func(any)) error {
	if _, exists := s.slots[name]; exists {
		return errs.New(errs.DuplicateMember, nil, "duplicate parameter name %q", name)
	}
	s.slots[name] = &Slot{Name: name, Tag: tag, Required: required, set: set}
	s.order = append(s.order, name)
	return nil
}

// AddParam registers an optional named parameter whose value, once
// parsed, is copied into *target.
func AddParam[T any](s *Schema, name string, tag typetag.Tag, target *T) error {
	return s.add(name, tag, false, func(v any) { *target = v.(T) })
}

// AddRequiredParam registers a named parameter that must be initialized
// at least once before construction completes.
func AddRequiredParam[T any](s *Schema, name string, tag typetag.Tag, target *T) error {
	return s.add(name, tag, true, func(v any) { *target = v.(T) })
}

// AddTemporary registers a named slot that is parsed into the scoped
// construction environment but never written to any field of the object
// under construction — infact's "temporary" member.
func AddTemporary[T any](s *Schema, name string, tag typetag.Tag) error {
	return s.add(name, tag, false, nil)
}

// AddRequiredTemporary is AddTemporary with the required flag set.
func AddRequiredTemporary[T any](s *Schema, name string, tag typetag.Tag) error {
	return s.add(name, tag, true, nil)
}

// Has reports whether name is a known slot of this schema.
func (s *Schema) Has(name string) bool {
	_, ok := s.slots[name]
	return ok
}

// InitSlot parses one value for the named member out of stream, binds it
// into e under name (so later members and the PostInit hook can see it
// as a variable), and — for non-temporary slots — copies it into the
// constructed object's field.
func (s *Schema) InitSlot(e *env.Environment, name string, stream *lexer.Stream) error {
	slot, ok := s.slots[name]
	if !ok {
		return errs.New(errs.UnknownMember, nil, "unknown member %q", name)
	}
	if err := e.ReadAndSet(name, slot.Tag, stream); err != nil {
		return err
	}
	if slot.set != nil {
		v, ok := e.Value(name)
		if !ok {
			return errs.New(errs.InternalInconsistency, nil, "member %q was not actually stored after ReadAndSet", name)
		}
		slot.set(v)
	}
	slot.initCount++
	return nil
}

// CheckRequired returns a MissingRequired error naming the first required
// slot (in registration order) that was never initialized, or nil if all
// required slots were satisfied.
func (s *Schema) CheckRequired() error {
	for _, name := range s.order {
		slot := s.slots[name]
		if slot.Required && slot.initCount == 0 {
			return errs.New(errs.MissingRequired, nil, "missing required parameter %q", name)
		}
	}
	return nil
}

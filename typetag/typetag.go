// Package typetag gives canonical string names to the value types the
// specification language knows about: the four primitives, any registered
// abstract base type, and the vector variant of either.
//
// This is the Go replacement for infact's compile-time TypeName<T>
// template family (original_source/src/infact/factory.h): where the C++
// library specializes a template per C++ type to produce a name string,
// here a value type is just its canonical tag string, computed once at
// registration time rather than resolved by the compiler (see
// SPEC_FULL.md section 9, "heavy compile-time template specialization").
package typetag

import "strings"

// Tag is the canonical name of a value type: "bool", "int", "double",
// "string", a registered abstract base name, or any of those suffixed
// with "[]" to denote a vector of that type.
type Tag string

// The four built-in primitive tags.
const (
	Bool   Tag = "bool"
	Int    Tag = "int"
	Double Tag = "double"
	String Tag = "string"
)

const vectorSuffix = "[]"

// IsPrimitive reports whether tag names one of the four built-in scalar
// types (not a vector, not a registered object type).
func IsPrimitive(tag Tag) bool {
	switch tag {
	case Bool, Int, Double, String:
		return true
	default:
		return false
	}
}

// Vector returns the vector tag over elem, e.g. Vector("int") == "int[]".
func Vector(elem Tag) Tag {
	return elem + vectorSuffix
}

// IsVector reports whether tag denotes a vector type.
func IsVector(tag Tag) bool {
	return strings.HasSuffix(string(tag), vectorSuffix)
}

// Elem strips one vector suffix from tag. It returns ok=false if tag is
// not a vector tag.
func Elem(tag Tag) (elem Tag, ok bool) {
	if !IsVector(tag) {
		return "", false
	}
	return tag[:len(tag)-len(vectorSuffix)], true
}

// Package env implements the Environment of SPEC_FULL.md sections 3 and
// 4.5: a typed variable store keyed by canonical type tag, with scoped
// copying and checked generic retrieval.
//
// This is grounded on two sources: the Go idiom of a Store/Ext-chained
// environment (source/object/environment.go) for the general shape of a
// variable table, and infact's environment-impl.h for the exact semantics
// this spec actually wants — a single flat table per interpreter instance
// (no lexical-scope chaining; scoping here means an explicit Copy, not a
// parent pointer), a types-map plus a per-type-tag store, and a
// concrete-to-abstract redirect so a variable declared with a concrete
// registered type name is filed under its abstract base.
//
// Go forbids type parameters on methods (SPEC_FULL.md section 9), so the
// checked-narrowing role infact's EnvironmentImpl::Get<T> plays is a
// free function here, Get[T], rather than a method.
package env

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/alex-quiterio/infact/errs"
	"github.com/alex-quiterio/infact/lexer"
	"github.com/alex-quiterio/infact/token"
	"github.com/alex-quiterio/infact/typetag"
)

// ObjectRegistry is the surface the env package needs from a
// registry.Registry[B] in order to dispatch object-typed reads without
// importing the registry package (which itself imports env — see
// DESIGN.md). Any type implementing this interface can be wired in with
// RegisterBase.
type ObjectRegistry interface {
	// BaseName is the abstract base type tag this registry constructs
	// concrete instances of.
	BaseName() typetag.Tag
	// Owns reports whether concreteName is a type name registered
	// against this base.
	Owns(concreteName string) bool
	// ParseValue consumes one spec_or_null expression from s (see
	// SPEC_FULL.md section 4.4) and returns the constructed value, or
	// nil for an explicit nullptr/NULL.
	ParseValue(s *lexer.Stream, e *Environment) (any, error)
	// MakeSlice builds the registry's own concretely typed slice (e.g.
	// []Model, not []any) out of elements, each of which must be nil or
	// a value this registry constructed. It lets readVector return a
	// value that later narrows under Get[[]Model] the same way a scalar
	// object narrows under Get[Model].
	MakeSlice(elements []any) (any, error)
}

// Environment is a typed variable store. The zero value is not usable;
// construct with New.
type Environment struct {
	types              map[string]typetag.Tag
	byType             map[typetag.Tag]map[string]any
	concreteToAbstract map[string]typetag.Tag
	registries         map[typetag.Tag]ObjectRegistry
	logger             *zerolog.Logger
}

// Option configures an Environment at construction time.
type Option func(*Environment)

// WithLogger attaches a zerolog logger used for debug-level diagnostic
// events (resolving Open Question 2 of SPEC_FULL.md section 9: Get and
// TypeOf themselves remain pure, side-effect-free returns; the logger is
// an optional side channel, never consulted for control flow).
func WithLogger(logger *zerolog.Logger) Option {
	return func(e *Environment) { e.logger = logger }
}

// New returns an empty Environment with no variables and no registries.
func New(opts ...Option) *Environment {
	e := &Environment{
		types:              make(map[string]typetag.Tag),
		byType:             make(map[typetag.Tag]map[string]any),
		concreteToAbstract: make(map[string]typetag.Tag),
		registries:         make(map[typetag.Tag]ObjectRegistry),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RegisterBase wires a registry into this environment so that variables
// declared with reg's abstract base, or with any concrete type name reg
// owns, can be parsed and stored. Call during program setup, before any
// Eval — registries are treated as append-only-during-init (SPEC_FULL.md
// section 5).
func (e *Environment) RegisterBase(reg ObjectRegistry) {
	e.registries[reg.BaseName()] = reg
}

// Defined reports whether name has been bound.
func (e *Environment) Defined(name string) bool {
	_, ok := e.types[name]
	return ok
}

// TypeOf returns the canonical type tag a variable was declared or
// inferred with. ok is false if name is undefined — this is the explicit
// "not found" return that resolves Open Question 3 of SPEC_FULL.md
// section 9, in place of a dangling reference.
func (e *Environment) TypeOf(name string) (typetag.Tag, bool) {
	tag, ok := e.types[name]
	if !ok && e.logger != nil {
		e.logger.Debug().Str("var", name).Msg("typeOf: variable undefined")
	}
	return tag, ok
}

// resolve follows the concrete-to-abstract redirect for object tags
// (possibly under a vector), leaving primitive tags unchanged.
func (e *Environment) resolve(tag typetag.Tag) typetag.Tag {
	if elem, ok := typetag.Elem(tag); ok {
		return typetag.Vector(e.resolve(elem))
	}
	if cached, ok := e.concreteToAbstract[string(tag)]; ok {
		return cached
	}
	if _, ok := e.registries[tag]; ok {
		return tag
	}
	if base, ok := e.baseForConcrete(string(tag)); ok {
		e.concreteToAbstract[string(tag)] = base
		return base
	}
	return tag
}

// baseForConcrete searches every registered base for one that owns name,
// the Go equivalent of infact's concrete_to_factory_type_ construction.
func (e *Environment) baseForConcrete(name string) (typetag.Tag, bool) {
	for base, reg := range e.registries {
		if reg.Owns(name) {
			return base, true
		}
	}
	return "", false
}

// Set stores value under name with canonical type tag. Re-declaring an
// existing name with the same resolved type overwrites it (Open Question
// 1 of SPEC_FULL.md section 9); re-declaring it with a different resolved
// type is a TypeMismatch.
func (e *Environment) Set(name string, tag typetag.Tag, value any) error {
	resolved := e.resolve(tag)
	if existing, ok := e.types[name]; ok {
		if e.resolve(existing) != resolved {
			return errs.New(errs.TypeMismatch, nil, "cannot reassign %q: already declared as %s, new value is %s", name, existing, tag)
		}
	}
	e.types[name] = tag
	store, ok := e.byType[resolved]
	if !ok {
		store = make(map[string]any)
		e.byType[resolved] = store
	}
	store[name] = value
	return nil
}

// rawValue returns the stored value for name along with the resolved
// store tag it was found under.
func (e *Environment) rawValue(name string) (any, typetag.Tag, bool) {
	tag, ok := e.types[name]
	if !ok {
		return nil, "", false
	}
	resolved := e.resolve(tag)
	store, ok := e.byType[resolved]
	if !ok {
		return nil, "", false
	}
	v, ok := store[name]
	return v, resolved, ok
}

// Get performs a checked, typed read of a variable. It returns (zero,
// false) whenever name is undefined or its stored value does not have
// the requested Go type — this is the Go analogue of infact's
// EnvironmentImpl::Get<T>'s dynamic_cast-based narrowing.
//
// Methods cannot carry their own type parameters in Go, so this is a free
// function rather than a method on Environment (SPEC_FULL.md section 9).
func Get[T any](e *Environment, name string) (T, bool) {
	var zero T
	raw, _, ok := e.rawValue(name)
	if !ok {
		if e.logger != nil {
			e.logger.Debug().Str("var", name).Msg("get: variable undefined")
		}
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		if e.logger != nil {
			e.logger.Debug().Str("var", name).Msg("get: stored value has a different type")
		}
		return zero, false
	}
	return v, true
}

// Copy returns a deep duplicate of e: a subsequent write to the copy
// never mutates e, and vice versa. Registries are process-wide and are
// shared by reference, matching infact's treatment of factory tables as
// immutable after program start.
func (e *Environment) Copy() *Environment {
	nt := make(map[string]typetag.Tag, len(e.types))
	for k, v := range e.types {
		nt[k] = v
	}
	nb := make(map[typetag.Tag]map[string]any, len(e.byType))
	for tag, store := range e.byType {
		ns := make(map[string]any, len(store))
		for k, v := range store {
			ns[k] = v
		}
		nb[tag] = ns
	}
	nc := make(map[string]typetag.Tag, len(e.concreteToAbstract))
	for k, v := range e.concreteToAbstract {
		nc[k] = v
	}
	nr := make(map[typetag.Tag]ObjectRegistry, len(e.registries))
	for k, v := range e.registries {
		nr[k] = v
	}
	return &Environment{types: nt, byType: nb, concreteToAbstract: nc, registries: nr, logger: e.logger}
}

// ReadAndSet parses one value of the given type tag from s and binds it
// to name, recursively invoking the registered ObjectRegistry for object
// (or vector-of-object) tags. This is the environment-side half of
// infact's Factory<T>::CreateOrDie member-initializer loop.
func (e *Environment) ReadAndSet(name string, tag typetag.Tag, s *lexer.Stream) error {
	val, err := e.ReadValue(tag, s)
	if err != nil {
		return err
	}
	return e.Set(name, tag, val)
}

// ReadValue parses and returns one value of the given type tag from s,
// without binding it to any name. Exported so the registry package's
// specification parser can read initializer values using exactly the
// same logic this environment uses for top-level statements.
func (e *Environment) ReadValue(tag typetag.Tag, s *lexer.Stream) (any, error) {
	if elem, ok := typetag.Elem(tag); ok {
		return e.readVector(elem, s)
	}
	return e.readScalar(tag, s)
}

// readVector reads a brace-delimited, comma-separated list of elem-typed
// values and returns them as a concretely typed Go slice — []bool, []int,
// []float64, []string, or the registry's own []B for an object element
// type — never the untyped []any, so that Get[[]T] can discriminate by
// element type the same way Get[T] already discriminates scalars.
func (e *Environment) readVector(elem typetag.Tag, s *lexer.Stream) (any, error) {
	if err := expect(s, token.LBRACE); err != nil {
		return nil, err
	}
	var raw []any
	for {
		tok, err := s.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Type == token.RBRACE {
			break
		}
		v, err := e.readScalar(elem, s)
		if err != nil {
			return nil, err
		}
		raw = append(raw, v)
		tok, err = s.Peek()
		if err != nil {
			return nil, err
		}
		if tok.Type == token.COMMA {
			if _, err := s.Next(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}
	if err := expect(s, token.RBRACE); err != nil {
		return nil, err
	}
	return e.typedSlice(elem, raw)
}

// typedSlice converts a slice of untyped elements, each already produced by
// readScalar for the given element tag, into the one concrete Go slice
// type that tag denotes.
func (e *Environment) typedSlice(elem typetag.Tag, raw []any) (any, error) {
	resolved := e.resolve(elem)
	switch resolved {
	case typetag.Bool:
		out := make([]bool, len(raw))
		for i, v := range raw {
			out[i] = v.(bool)
		}
		return out, nil
	case typetag.Int:
		out := make([]int, len(raw))
		for i, v := range raw {
			out[i] = v.(int)
		}
		return out, nil
	case typetag.Double:
		out := make([]float64, len(raw))
		for i, v := range raw {
			out[i] = v.(float64)
		}
		return out, nil
	case typetag.String:
		out := make([]string, len(raw))
		for i, v := range raw {
			out[i] = v.(string)
		}
		return out, nil
	default:
		reg, ok := e.registries[resolved]
		if !ok {
			return nil, errs.New(errs.UnknownType, nil, "no registry is wired in for vector element type %q", resolved)
		}
		return reg.MakeSlice(raw)
	}
}

func (e *Environment) readScalar(tag typetag.Tag, s *lexer.Stream) (any, error) {
	resolved := e.resolve(tag)
	if typetag.IsPrimitive(resolved) {
		return e.readPrimitiveOrRef(resolved, s)
	}
	reg, ok := e.registries[resolved]
	if !ok {
		tok, _ := s.Peek()
		return nil, errs.New(errs.UnknownType, &tok, "no registry is wired in for type %q", resolved)
	}
	return reg.ParseValue(s, e)
}

func (e *Environment) readPrimitiveOrRef(tag typetag.Tag, s *lexer.Stream) (any, error) {
	tok, err := s.Peek()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case token.IDENT:
		if _, err := s.Next(); err != nil {
			return nil, err
		}
		refTag, ok := e.TypeOf(tok.Literal)
		if !ok {
			return nil, errs.New(errs.Undefined, &tok, "undefined variable %q", tok.Literal)
		}
		if e.resolve(refTag) != tag {
			return nil, errs.New(errs.TypeMismatch, &tok, "variable %q has type %s, expected %s", tok.Literal, refTag, tag)
		}
		v, _, ok := e.rawValue(tok.Literal)
		if !ok {
			return nil, errs.New(errs.InternalInconsistency, &tok, "variable %q is declared but has no stored value", tok.Literal)
		}
		return v, nil
	case token.RESERVED:
		if _, err := s.Next(); err != nil {
			return nil, err
		}
		if tag != typetag.Bool || (tok.Literal != "true" && tok.Literal != "false") {
			return nil, errs.New(errs.TypeMismatch, &tok, "expected a %s literal, got %q", tag, tok.Literal)
		}
		return tok.Literal == "true", nil
	case token.NUMBER_INT, token.NUMBER_FLOAT:
		if _, err := s.Next(); err != nil {
			return nil, err
		}
		return parseNumber(tag, tok)
	case token.STRING:
		if _, err := s.Next(); err != nil {
			return nil, err
		}
		if tag != typetag.String {
			return nil, errs.New(errs.TypeMismatch, &tok, "expected a %s, got a string literal", tag)
		}
		return tok.Literal, nil
	default:
		return nil, errs.New(errs.SyntaxError, &tok, "unexpected token while reading a %s value", tag)
	}
}

func parseNumber(tag typetag.Tag, tok token.Token) (any, error) {
	switch tag {
	case typetag.Int:
		if tok.Type != token.NUMBER_INT {
			return nil, errs.New(errs.TypeMismatch, &tok, "expected an int, got %q", tok.Literal)
		}
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return nil, errs.New(errs.LexError, &tok, "malformed integer literal %q", tok.Literal)
		}
		return int(n), nil
	case typetag.Double:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			return nil, errs.New(errs.LexError, &tok, "malformed floating-point literal %q", tok.Literal)
		}
		return f, nil
	default:
		return nil, errs.New(errs.TypeMismatch, &tok, "expected a %s, got a number literal %q", tag, tok.Literal)
	}
}

// InferType peeks (without consuming) enough of s to determine the
// canonical type tag of the value that comes next, following infact's
// InferType rules: booleans and literals infer directly, an identifier
// followed by '(' infers as the registered type's abstract base (a name
// registered under more than one base is an UnknownType error), a bare
// identifier infers as the type of the variable it names, and a vector
// infers element-wise from its first member.
func (e *Environment) InferType(s *lexer.Stream) (typetag.Tag, error) {
	tok, err := s.Peek()
	if err != nil {
		return "", err
	}
	switch tok.Type {
	case token.RESERVED:
		if tok.Literal == "true" || tok.Literal == "false" {
			return typetag.Bool, nil
		}
		return "", errs.New(errs.SyntaxError, &tok, "cannot infer a type for a bare null literal; give an explicit type specifier")
	case token.STRING:
		return typetag.String, nil
	case token.NUMBER_INT:
		return typetag.Int, nil
	case token.NUMBER_FLOAT:
		return typetag.Double, nil
	case token.IDENT:
		follow, err := peekSecond(s)
		if err != nil {
			return "", err
		}
		if follow.Type == token.LPAREN {
			var base typetag.Tag
			found := false
			for b, reg := range e.registries {
				if !reg.Owns(tok.Literal) {
					continue
				}
				if found {
					return "", errs.New(errs.UnknownType, &tok, "ambiguous type %q: registered under both %q and %q", tok.Literal, base, b)
				}
				base, found = b, true
			}
			if !found {
				return "", errs.New(errs.UnknownType, &tok, "unknown type %q", tok.Literal)
			}
			return base, nil
		}
		refTag, ok := e.TypeOf(tok.Literal)
		if !ok {
			return "", errs.New(errs.Undefined, &tok, "undefined variable %q", tok.Literal)
		}
		return refTag, nil
	case token.LBRACE:
		clone := *s
		if _, err := clone.Next(); err != nil {
			return "", err
		}
		elem, err := e.InferType(&clone)
		if err != nil {
			return "", err
		}
		return typetag.Vector(elem), nil
	default:
		return "", errs.New(errs.SyntaxError, &tok, "cannot infer a type here")
	}
}

// peekSecond looks one token past the current lookahead without
// disturbing s, by trial-running a byte-for-byte copy of the stream.
// Stream holds no pointers of its own but a cached lookahead token
// pointer, which is safe to share since tokens are never mutated in
// place.
func peekSecond(s *lexer.Stream) (token.Token, error) {
	clone := *s
	if _, err := clone.Next(); err != nil {
		return token.Token{}, err
	}
	return clone.Peek()
}

func expect(s *lexer.Stream, want token.Type) error {
	tok, err := s.Next()
	if err != nil {
		return err
	}
	if tok.Type != want {
		return errs.New(errs.SyntaxError, &tok, "expected %q, got %q", want, tok.Literal)
	}
	return nil
}

// IsRegisteredBase reports whether tag names an abstract base that has a
// registry wired in via RegisterBase — used by the interpreter to decide
// whether a leading identifier in a statement is an explicit type
// specifier.
func (e *Environment) IsRegisteredBase(tag typetag.Tag) bool {
	_, ok := e.registries[tag]
	return ok
}

// Value returns the raw stored value for name, with no type checking.
// Exported for the schema package, which must copy a freshly parsed
// member value out of the environment and into a constructed object's
// field without knowing its static Go type at the call site (see
// schema.Slot).
func (e *Environment) Value(name string) (any, bool) {
	v, _, ok := e.rawValue(name)
	return v, ok
}

// Names returns every bound variable name in sorted order, for
// deterministic diagnostic output (see interp.Interpreter.PrintEnv).
func (e *Environment) Names() []string {
	names := make([]string, 0, len(e.types))
	for name := range e.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe renders one variable's declared type and value for diagnostic
// dumps.
func (e *Environment) Describe(name string) string {
	tag, ok := e.types[name]
	if !ok {
		return fmt.Sprintf("%s: <undefined>", name)
	}
	raw, _, _ := e.rawValue(name)
	return fmt.Sprintf("%s %s = %v", tag, name, raw)
}

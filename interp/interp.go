// Package interp implements the Interpreter of SPEC_FULL.md section 4.6:
// the top-level statement loop that drives the lexer, the environment,
// and the registries together.
//
// Grounded on original_source/src/infact/interpreter.h (read in full):
// the statement grammar, the funnel of Eval/EvalString down to one
// token-stream-driven loop, and the templated Get<T> host accessor —
// which, per SPEC_FULL.md section 9, becomes a free function here
// because Go does not allow a method to introduce its own type
// parameter.
package interp

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/alex-quiterio/infact/env"
	"github.com/alex-quiterio/infact/errs"
	"github.com/alex-quiterio/infact/lexer"
	"github.com/alex-quiterio/infact/registry"
	"github.com/alex-quiterio/infact/token"
	"github.com/alex-quiterio/infact/typetag"
)

// Interpreter drives evaluation of a script against one Environment.
type Interpreter struct {
	env    *env.Environment
	logger *zerolog.Logger
}

// Option configures an Interpreter at construction time.
type Option func(*Interpreter)

// WithLogger attaches a zerolog logger emitting debug events at statement
// boundaries (SPEC_FULL.md section 10.2).
func WithLogger(logger *zerolog.Logger) Option {
	return func(i *Interpreter) { i.logger = logger }
}

// New returns an Interpreter over e. e should already have every base
// type's registry wired in via env.Environment.RegisterBase before the
// first Eval call.
func New(e *env.Environment, opts ...Option) *Interpreter {
	i := &Interpreter{env: e}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Env returns the interpreter's underlying environment, for host code
// that wants to inspect or extend it directly.
func (i *Interpreter) Env() *env.Environment { return i.env }

// Eval tokenizes and executes every statement in src in order. It stops
// at the first error: per SPEC_FULL.md section 7, all diagnostics are
// fatal to the current Eval, and the environment may already contain
// variables bound by statements that ran before the failing one.
func (i *Interpreter) Eval(src string) error {
	s := lexer.New(src)
	for {
		tok, err := s.Peek()
		if err != nil {
			return err
		}
		if tok.Type == token.EOF {
			return nil
		}
		if err := i.statement(s); err != nil {
			return err
		}
	}
}

// statement parses and executes one
// `[ type_specifier ] IDENT '=' value ';'` statement.
func (i *Interpreter) statement(s *lexer.Stream) error {
	tag, explicit, err := i.readTypeSpecifier(s)
	if err != nil {
		return err
	}

	nameTok, err := s.Next()
	if err != nil {
		return err
	}
	if nameTok.Type != token.IDENT {
		return errs.New(errs.SyntaxError, &nameTok, "expected a variable name")
	}
	if err := expect(s, token.ASSIGN); err != nil {
		return err
	}

	if !explicit {
		tag, err = i.env.InferType(s)
		if err != nil {
			return err
		}
	}

	if err := i.env.ReadAndSet(nameTok.Literal, tag, s); err != nil {
		return err
	}
	if err := expect(s, token.SEMI); err != nil {
		return err
	}

	if i.logger != nil {
		i.logger.Debug().Str("var", nameTok.Literal).Str("type", string(tag)).Msg("statement evaluated")
	}
	return nil
}

// readTypeSpecifier looks at the next one to four tokens of s to decide
// whether the statement begins with an explicit type_specifier (a known
// primitive or registered abstract base name, optionally followed by
// '[]', itself followed by another identifier — the variable name) or
// whether the type should instead be inferred from the value
// (SPEC_FULL.md section 4.6, step 1). It only consumes tokens from s once
// it has committed to returning explicit=true.
func (i *Interpreter) readTypeSpecifier(s *lexer.Stream) (typetag.Tag, bool, error) {
	tok, err := s.Peek()
	if err != nil {
		return "", false, err
	}
	if tok.Type != token.IDENT {
		return "", false, nil
	}
	tag, known := i.knownTypeName(tok.Literal)
	if !known {
		return "", false, nil
	}

	clone := *s
	if _, err := clone.Next(); err != nil {
		return "", false, err
	}
	isVector := false
	p, err := clone.Peek()
	if err != nil {
		return "", false, err
	}
	if p.Type == token.LBRACK {
		ahead := clone
		if _, err := ahead.Next(); err != nil {
			return "", false, err
		}
		p2, err := ahead.Peek()
		if err != nil {
			return "", false, err
		}
		if p2.Type == token.RBRACK {
			if _, err := ahead.Next(); err != nil {
				return "", false, err
			}
			isVector = true
			clone = ahead
		}
	}
	final, err := clone.Peek()
	if err != nil {
		return "", false, err
	}
	if final.Type != token.IDENT {
		return "", false, nil
	}

	if _, err := s.Next(); err != nil { // the type name
		return "", false, err
	}
	if isVector {
		if _, err := s.Next(); err != nil { // '['
			return "", false, err
		}
		if _, err := s.Next(); err != nil { // ']'
			return "", false, err
		}
		tag = typetag.Vector(tag)
	}
	return tag, true, nil
}

func (i *Interpreter) knownTypeName(name string) (typetag.Tag, bool) {
	tag := typetag.Tag(name)
	if typetag.IsPrimitive(tag) {
		return tag, true
	}
	if i.env.IsRegisteredBase(tag) {
		return tag, true
	}
	return "", false
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

// Get performs a checked, typed read of a variable bound by a previous
// Eval. Free function rather than a method, for the same reason as
// env.Get (SPEC_FULL.md section 9).
func Get[T any](i *Interpreter, name string) (T, bool) {
	return env.Get[T](i.env, name)
}

// PrintEnv writes every bound variable, sorted by name, to w — the Go
// analogue of infact's Interpreter::PrintEnv.
func (i *Interpreter) PrintEnv(w io.Writer) {
	for _, name := range i.env.Names() {
		fmt.Fprintln(w, i.env.Describe(name))
	}
}

// PrintFactories writes every registered base type and its concrete type
// names to w.
func (i *Interpreter) PrintFactories(w io.Writer) {
	registry.PrintAll(w)
}

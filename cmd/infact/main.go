// Command infact is the entry point for the interpreter: given a file
// argument it evaluates the file and prints the resulting environment;
// given no arguments it drops into the interactive hub shell.
//
// Grounded on the teacher's root main.go (the logo-then-hub-then-optional-
// one-shot-command shape), simplified to this module's one-Interpreter
// scope.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/alex-quiterio/infact/demo"
	"github.com/alex-quiterio/infact/env"
	"github.com/alex-quiterio/infact/hub"
	"github.com/alex-quiterio/infact/interp"
)

func main() {
	color.Cyan("infact — a declarative configuration interpreter")

	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()
	e := env.New(env.WithLogger(&logger))
	demo.RegisterAll(e)
	i := interp.New(e, interp.WithLogger(&logger))

	if len(os.Args) > 1 {
		runFile(i, os.Args[1])
		return
	}

	hub.New(i, os.Stdout).Run()
}

func runFile(i *interp.Interpreter, path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		fail(errors.Wrap(err, "reading script"))
	}
	if err := i.Eval(string(src)); err != nil {
		fail(errors.Wrap(err, "evaluating script"))
	}
	i.PrintEnv(os.Stdout)
}

// fail reports a wrapped, stack-traced error (distinct from the core's own
// *errs.Error, which carries a source offset instead of a Go stack trace —
// see SPEC_FULL.md section 10.3) and exits.
func fail(err error) {
	fmt.Fprintf(os.Stderr, "%s\n", color.RedString("infact: %+v", err))
	os.Exit(1)
}

// Package hub implements the small REPL shell that drives an Interpreter
// interactively: it reads lines, recognizes a handful of "hub ..."
// meta-commands, and otherwise feeds the line straight to Eval.
//
// Grounded on source/hub/hub.go's Do/DoHubCommand split (radically cut
// down: no services, no database, no HTTP listener — there is exactly
// one Interpreter and a fixed, small verb table) and source/repl/repl.go's
// use of github.com/lmorg/readline for the input loop itself.
package hub

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/google/shlex"
	"github.com/lmorg/readline"

	"github.com/alex-quiterio/infact/interp"
)

const prompt = "infact> "

// Hub owns one Interpreter and the readline instance driving it.
type Hub struct {
	interp *interp.Interpreter
	out    io.Writer
	rline  *readline.Instance
}

// New returns a Hub wrapping i, writing command output and diagnostics to
// out.
func New(i *interp.Interpreter, out io.Writer) *Hub {
	rline := readline.NewInstance()
	rline.SetPrompt(prompt)
	return &Hub{interp: i, out: out, rline: rline}
}

// Run reads lines until EOF or a "hub quit" command, evaluating each one
// against the Hub's Interpreter.
func (h *Hub) Run() {
	for {
		line, err := h.rline.Readline()
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if quit := h.Do(line); quit {
			return
		}
	}
}

// Do executes one line of input, returning true if it was "hub quit". It
// is also the entry point test code drives directly, bypassing Run's
// readline loop.
func (h *Hub) Do(line string) bool {
	if rest, ok := strings.CutPrefix(line, "hub"); ok && (rest == "" || rest[0] == ' ') {
		verb, args, err := parseHubCommand(rest)
		if err != nil {
			h.writeError(err.Error())
			return false
		}
		return h.doHubCommand(verb, args)
	}
	if err := h.interp.Eval(line); err != nil {
		h.writeError(err.Error())
	}
	return false
}

func parseHubCommand(rest string) (string, []string, error) {
	fields, err := shlex.Split(strings.TrimSpace(rest))
	if err != nil {
		return "", nil, err
	}
	if len(fields) == 0 {
		return "help", nil, nil
	}
	return fields[0], fields[1:], nil
}

func (h *Hub) doHubCommand(verb string, args []string) bool {
	switch verb {
	case "quit":
		return true
	case "help":
		h.writeHelp()
	case "env":
		h.interp.PrintEnv(h.out)
	case "factories":
		h.interp.PrintFactories(h.out)
	case "eval":
		if len(args) == 0 {
			h.writeError("'hub eval' needs a script argument")
			break
		}
		if err := h.interp.Eval(strings.Join(args, " ")); err != nil {
			h.writeError(err.Error())
		}
	default:
		h.writeError(fmt.Sprintf("the hub doesn't recognize %q; try 'hub help'", verb))
	}
	return false
}

func (h *Hub) writeHelp() {
	fmt.Fprintln(h.out, "hub quit            leave the shell")
	fmt.Fprintln(h.out, "hub env             show every bound variable")
	fmt.Fprintln(h.out, "hub factories       show every registered type")
	fmt.Fprintln(h.out, "hub eval <script>   evaluate a script given on the command line")
	fmt.Fprintln(h.out, "anything else is evaluated directly as a script")
}

func (h *Hub) writeError(s string) {
	fmt.Fprintln(h.out, color.RedString("error: %s", s))
}

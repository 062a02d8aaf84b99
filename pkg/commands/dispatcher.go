// Package commands implements the slash commands typed at the prompt
// instead of an instruction, such as /good and /bad.
package commands

import (
	"context"
	"strings"

	"github.com/sipeed/alfred/pkg/session"
)

type Handler func(ctx context.Context, req Request) error

type Request struct {
	Session *session.Session
	Text    string
	Reply   func(text string) error
}

type Result struct {
	Matched bool
	Handled bool
	Command string
	Err     error
}

type Dispatcher struct {
	reg *Registry
}

type Dispatching interface {
	Dispatch(ctx context.Context, req Request) Result
}

type DispatchFunc func(ctx context.Context, req Request) Result

func (f DispatchFunc) Dispatch(ctx context.Context, req Request) Result {
	return f(ctx, req)
}

func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{reg: reg}
}

func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Result {
	cmdName, ok := parseCommandName(req.Text)
	if !ok || d == nil || d.reg == nil {
		return Result{Matched: false}
	}

	def, ok := d.reg.Lookup(cmdName)
	if !ok {
		return Result{Matched: false, Command: cmdName}
	}
	if def.Handler == nil {
		// listed for /help only; the text goes on to the resolver
		return Result{Matched: false, Handled: false, Command: def.Name}
	}
	err := def.Handler(ctx, req)
	return Result{Matched: true, Handled: true, Command: def.Name, Err: err}
}

// IsCommand reports whether text starts with a slash command token.
func IsCommand(text string) bool {
	_, ok := parseCommandName(text)
	return ok
}

func firstToken(input string) string {
	parts := strings.Fields(strings.TrimSpace(input))
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func parseCommandName(input string) (string, bool) {
	token := firstToken(input)
	if token == "" || !strings.HasPrefix(token, "/") {
		return "", false
	}

	name := strings.TrimPrefix(token, "/")
	if i := strings.Index(name, "@"); i >= 0 {
		name = name[:i]
	}
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "", false
	}
	return name, true
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}

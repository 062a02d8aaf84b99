package dispatch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sipeed/alfred/pkg/catalog"
)

var (
	ErrScriptNotFound = errors.New("script not found")
	ErrMissingParam   = errors.New("missing required argument")
	ErrNoScript       = errors.New("domain has no script")
)

type MissingParamError struct {
	Name string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingParam, e.Name)
}

func (e *MissingParamError) Is(target error) bool {
	return target == ErrMissingParam
}

// Invocation is a concrete command line ready to run.
type Invocation struct {
	Interpreter string
	Path        string
	Args        []string
}

// Argv is the full argument vector, interpreter first when there is one.
func (i *Invocation) Argv() []string {
	argv := make([]string, 0, len(i.Args)+2)
	if i.Interpreter != "" {
		argv = append(argv, i.Interpreter)
	}
	argv = append(argv, i.Path)
	return append(argv, i.Args...)
}

// Build fills cmd's template from args. Required placeholders must be
// present and non-empty, optional ones are added only when non-empty, and
// literals are copied as they are. The script path is resolved against root
// and must exist. Nothing is executed.
func Build(root string, domain catalog.Domain, cmd catalog.Command, args map[string]string) (*Invocation, error) {
	if domain.Script == "" {
		return nil, ErrNoScript
	}
	path := domain.Script
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrScriptNotFound, path)
	}

	inv := &Invocation{
		Interpreter: domain.Interpreter,
		Path:        path,
		Args:        make([]string, 0, len(cmd.Args)),
	}
	for _, tok := range cmd.Template() {
		switch tok.Kind {
		case catalog.TokenRequired:
			v := args[tok.Name]
			if v == "" {
				return nil, &MissingParamError{Name: tok.Name}
			}
			inv.Args = append(inv.Args, v)
		case catalog.TokenOptional:
			if v := args[tok.Name]; v != "" {
				inv.Args = append(inv.Args, v)
			}
		default:
			inv.Args = append(inv.Args, tok.Raw)
		}
	}
	return inv, nil
}

// Package catalog reads the command catalog: for every domain, the external
// executable that serves it and the argument template of each command.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownDomain  = errors.New("unknown domain")
	ErrUnknownCommand = errors.New("unknown command")
)

// Domain is one executable and the commands it understands.
type Domain struct {
	Script      string             `json:"script" yaml:"script" toml:"script"`
	Interpreter string             `json:"interpreter,omitempty" yaml:"interpreter,omitempty" toml:"interpreter,omitempty"`
	Commands    map[string]Command `json:"commands" yaml:"commands" toml:"commands"`
}

// Command is the ordered argument template of a single command.
type Command struct {
	Args        []string `json:"args" yaml:"args" toml:"args"`
	Description string   `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty"`
}

// Catalog is a loaded catalog file.
type Catalog struct {
	Path    string
	Domains map[string]Domain
}

// Source hands out the current catalog.
type Source interface {
	Load() (*Catalog, error)
}

type staticSource struct{ c *Catalog }

func (s staticSource) Load() (*Catalog, error) { return s.c, nil }

// Static wraps an in-memory catalog as a Source.
func Static(c *Catalog) Source { return staticSource{c: c} }

type fileSource string

func (p fileSource) Load() (*Catalog, error) { return LoadFile(string(p)) }

// FileSource re-reads path on every Load.
func FileSource(path string) Source { return fileSource(path) }

// New builds an in-memory catalog.
func New(domains map[string]Domain) *Catalog {
	if domains == nil {
		domains = map[string]Domain{}
	}
	return &Catalog{Domains: domains}
}

// LoadFile reads a catalog in JSON, YAML (.yaml/.yml) or TOML (.toml).
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	domains, err := decode(path, data)
	if err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return &Catalog{Path: abs, Domains: domains}, nil
}

func decode(path string, data []byte) (map[string]Domain, error) {
	domains := map[string]Domain{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &domains); err != nil {
			return nil, err
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &domains); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &domains); err != nil {
			return nil, err
		}
	}
	return domains, nil
}

// Root is the directory the catalog was loaded from. Relative script paths
// and child working directories are resolved against it.
func (c *Catalog) Root() string {
	if c == nil || c.Path == "" {
		wd, _ := os.Getwd()
		return wd
	}
	return filepath.Dir(c.Path)
}

// Domain looks a domain up by exact name, then case-insensitively.
func (c *Catalog) Domain(name string) (string, Domain, bool) {
	if c == nil {
		return "", Domain{}, false
	}
	if d, ok := c.Domains[name]; ok {
		return name, d, true
	}
	for _, key := range c.DomainNames() {
		if strings.EqualFold(key, name) {
			return key, c.Domains[key], true
		}
	}
	return "", Domain{}, false
}

// Lookup resolves a domain (case-insensitively) and a command name. The
// returned name is the domain as spelled in the catalog.
func (c *Catalog) Lookup(domain, command string) (string, Domain, Command, error) {
	name, d, ok := c.Domain(domain)
	if !ok {
		return "", Domain{}, Command{}, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	cmd, ok := d.Commands[command]
	if !ok {
		return name, d, Command{}, fmt.Errorf("%w for %q: %s", ErrUnknownCommand, name, command)
	}
	return name, d, cmd, nil
}

// FindByTrigger returns the command of domain whose template starts with the
// literal trigger (case-insensitive). Commands whose first template token is
// a placeholder never match. Commands are scanned in name order.
func (c *Catalog) FindByTrigger(domain, trigger string) (string, Command, bool) {
	_, d, ok := c.Domain(domain)
	if !ok {
		return "", Command{}, false
	}
	for _, name := range d.CommandNames() {
		cmd := d.Commands[name]
		if len(cmd.Args) == 0 {
			continue
		}
		tok := ParseToken(cmd.Args[0])
		if tok.Kind == TokenLiteral && strings.EqualFold(tok.Name, trigger) {
			return name, cmd, true
		}
	}
	return "", Command{}, false
}

// DomainNames returns the domain names sorted.
func (c *Catalog) DomainNames() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.Domains))
	for name := range c.Domains {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CommandNames returns the command names sorted.
func (d Domain) CommandNames() []string {
	names := make([]string, 0, len(d.Commands))
	for name := range d.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}


// JSON renders the catalog in its canonical JSON form, the shape sent to the
// NL service.
func (c *Catalog) JSON() string {
	if c == nil {
		return "{}"
	}
	b, err := json.Marshal(c.Domains)
	if err != nil {
		return "{}"
	}
	return string(b)
}

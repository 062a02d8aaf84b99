package commands

type Registry struct {
	defs []Definition
}

func NewRegistry(defs []Definition) *Registry {
	return &Registry{defs: defs}
}

// Definitions returns every registered command in registration order.
func (r *Registry) Definitions() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Lookup finds a command by name or alias.
func (r *Registry) Lookup(name string) (Definition, bool) {
	for _, d := range r.defs {
		if matchesCommand(d, name) {
			return d, true
		}
	}
	return Definition{}, false
}

func matchesCommand(def Definition, cmdName string) bool {
	if def.Name == cmdName {
		return true
	}
	return contains(def.Aliases, cmdName)
}

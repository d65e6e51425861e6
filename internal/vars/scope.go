// Package vars implements the layered variable scope and the {{name}} template expander.
package vars

import "sort"

// Well-known constant variable names populated by the CLI for every run.
const (
	// KeyCwd is the directory tr was started from.
	KeyCwd = "cwd"
	// KeyTaskRoot is the directory of the root configuration file.
	KeyTaskRoot = "taskRoot"
	// KeyCLIArgs holds the pass-through arguments given after "--", joined by spaces.
	KeyCLIArgs = "cliArgs"
)

// Map is a set of variables keyed by name. Values are scalars (string, bool, numbers);
// composite values may be present in configuration but cannot be expanded.
type Map map[string]any

// Scope is an immutable three-layer variable namespace. Constants always win over
// task-local variables, which in turn shadow globals.
type Scope struct {
	constants Map
	globals   Map
	values    Map
}

// NewScope builds a scope from the constant and global layers.
func NewScope(constants, globals Map) Scope {
	s := Scope{
		constants: copyMap(constants),
		globals:   copyMap(globals),
	}
	s.values = layer(s.globals, nil, s.constants)
	return s
}

// WithLocals returns a new scope where locals shadow the globals of s.
// The receiver is left untouched.
func (s Scope) WithLocals(locals Map) Scope {
	return Scope{
		constants: s.constants,
		globals:   s.globals,
		values:    layer(s.globals, locals, s.constants),
	}
}

// Lookup returns the effective value of name.
func (s Scope) Lookup(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Values returns a copy of the effective variable map.
func (s Scope) Values() Map {
	return copyMap(s.values)
}

// Names returns the effective variable names in sorted order.
func (s Scope) Names() []string {
	names := make([]string, 0, len(s.values))
	for k := range s.values {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func layer(globals, locals, constants Map) Map {
	out := make(Map, len(globals)+len(locals)+len(constants))
	for _, m := range []Map{globals, locals, constants} {
		for k, v := range m {
			out[k] = v
		}
	}
	return out
}

func copyMap(m Map) Map {
	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

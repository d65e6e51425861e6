package vars

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"regexp"
	"strings"
)

var (
	// ErrRecursiveExpansion is returned when a variable refers back to itself.
	ErrRecursiveExpansion = errors.New("recursive variable expansion")
	// ErrInvalidExpansionTarget is returned when a marker names a list or map value.
	ErrInvalidExpansionTarget = errors.New("variable does not refer to a scalar value")
)

var markerRe = regexp.MustCompile(`{{\S*?}}`)

// Expander substitutes {{name}} markers using a Scope. {{$NAME}} markers read the
// host environment and are not expanded further.
type Expander struct {
	scope  Scope
	getenv func(string) string
}

// NewExpander constructs an Expander bound to scope.
func NewExpander(scope Scope) *Expander {
	return &Expander{scope: scope, getenv: os.Getenv}
}

// Scope returns the scope the expander reads from.
func (e *Expander) Scope() Scope {
	return e.scope
}

// Expand replaces every marker in s. Each call tracks its own expansion stack,
// so independent calls never observe each other's state.
func (e *Expander) Expand(s string) (string, error) {
	return e.expand(s, make(map[string]struct{}))
}

// ExpandAll expands each element of list into a new slice.
func (e *Expander) ExpandAll(list []string) ([]string, error) {
	if list == nil {
		return nil, nil
	}
	out := make([]string, len(list))
	for i, item := range list {
		v, err := e.Expand(item)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// ExpandMap expands both keys and values of m into a new map.
func (e *Expander) ExpandMap(m map[string]string) (map[string]string, error) {
	if m == nil {
		return nil, nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		key, err := e.Expand(k)
		if err != nil {
			return nil, err
		}
		value, err := e.Expand(v)
		if err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, nil
}

func (e *Expander) expand(s string, active map[string]struct{}) (string, error) {
	locs := markerRe.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s, nil
	}

	var b strings.Builder
	last := 0
	for _, loc := range locs {
		b.WriteString(s[last:loc[0]])
		value, err := e.resolve(s[loc[0]+2:loc[1]-2], active)
		if err != nil {
			return "", err
		}
		b.WriteString(value)
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String(), nil
}

func (e *Expander) resolve(name string, active map[string]struct{}) (string, error) {
	if _, busy := active[name]; busy {
		return "", fmt.Errorf("%w of %q", ErrRecursiveExpansion, name)
	}
	if envName, ok := strings.CutPrefix(name, "$"); ok {
		return e.getenv(envName), nil
	}

	raw, ok := e.scope.Lookup(name)
	if !ok {
		return "", nil
	}
	text, err := scalarString(name, raw)
	if err != nil {
		return "", err
	}

	active[name] = struct{}{}
	defer delete(active, name)
	return e.expand(text, active)
}

func scalarString(name string, v any) (string, error) {
	switch tv := v.(type) {
	case nil:
		return "", nil
	case string:
		return tv, nil
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return "", fmt.Errorf("%w: %q", ErrInvalidExpansionTarget, name)
	}
	return fmt.Sprint(v), nil
}

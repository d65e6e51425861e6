package config

import (
	"fmt"
	"sort"
	"strings"
)

// TaskNames returns all task names in sorted order.
func (f *File) TaskNames() []string {
	names := make([]string, 0, len(f.Tasks))
	for name := range f.Tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup finds a task by exact name or, failing that, by unique name prefix.
// It returns the canonical task name with the raw record.
func (f *File) Lookup(name string) (string, *TaskDef, error) {
	if def, ok := f.Tasks[name]; ok {
		return name, def, nil
	}
	var matches []string
	for _, candidate := range f.TaskNames() {
		if name != "" && strings.HasPrefix(candidate, name) {
			matches = append(matches, candidate)
		}
	}
	switch len(matches) {
	case 0:
		return "", nil, fmt.Errorf("%w '%s'", ErrUnknownTask, name)
	case 1:
		return matches[0], f.Tasks[matches[0]], nil
	default:
		return "", nil, fmt.Errorf("%w '%s' (matches %s)", ErrAmbiguousTask, name, strings.Join(matches, ", "))
	}
}

// lookupExact is the LookupFunc used for base references, which must name a task exactly.
func (f *File) lookupExact(name string) (*TaskDef, error) {
	def, ok := f.Tasks[name]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownTask, name)
	}
	return def, nil
}

// TaskName returns the task to operate on: requested when non-empty, otherwise the
// configured default task. Prefixes are expanded to the canonical name.
func (f *File) TaskName(requested string) (string, error) {
	if strings.TrimSpace(requested) == "" {
		if f.DefaultTask == "" {
			return "", ErrNoTask
		}
		requested = f.DefaultTask
	}
	name, _, err := f.Lookup(requested)
	return name, err
}

// Resolver returns a Resolver over the file's tasks and defaults.
func (f *File) Resolver() *Resolver {
	return NewResolver(f.lookupExact, f.Defaults())
}

// Resolve looks up name (prefixes allowed) and resolves it.
func (f *File) Resolve(name string) (*Task, error) {
	canonical, err := f.TaskName(name)
	if err != nil {
		return nil, err
	}
	return f.Resolver().Resolve(canonical)
}

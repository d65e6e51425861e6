package config

import (
	"fmt"
	"strings"
)

// LookupFunc returns the raw record of the named task.
type LookupFunc func(name string) (*TaskDef, error)

// Resolver flattens task inheritance chains into resolved tasks.
type Resolver struct {
	Lookup   LookupFunc
	Defaults Defaults
}

// NewResolver constructs a Resolver over lookup with the given defaults.
func NewResolver(lookup LookupFunc, defaults Defaults) *Resolver {
	return &Resolver{Lookup: lookup, Defaults: defaults}
}

// Resolve returns the resolved task for name. The merged record is validated by
// Flatten; defaults fill every field a resolved task requires.
func (r *Resolver) Resolve(name string) (*Task, error) {
	def, err := r.Flatten(name)
	if err != nil {
		return nil, err
	}
	return def.resolved(name, r.Defaults), nil
}

// Flatten returns the merged raw record for name with the inheritance chain applied,
// before defaults and command consolidation.
func (r *Resolver) Flatten(name string) (*TaskDef, error) {
	def, err := r.flatten(name, make(map[string]struct{}))
	if err != nil {
		return nil, err
	}
	if err := ValidateTask(name, def); err != nil {
		return nil, err
	}
	return def, nil
}

func (r *Resolver) flatten(name string, visited map[string]struct{}) (*TaskDef, error) {
	if _, seen := visited[name]; seen {
		return nil, fmt.Errorf("%w for task '%s'", ErrInheritanceLoop, name)
	}
	visited[name] = struct{}{}

	def, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	if err := ValidateTask(name, def); err != nil {
		return nil, err
	}

	baseName := strings.TrimSpace(def.Base)
	if baseName == "" {
		return def, nil
	}

	base, err := r.flatten(baseName, visited)
	if err != nil {
		return nil, err
	}
	return mergeDefs(base, def), nil
}

// resolved applies defaults and consolidates commands into a Task.
func (d *TaskDef) resolved(name string, defaults Defaults) *Task {
	commands := make([]string, 0, len(d.PreCommands)+len(d.Commands)+len(d.PostCommands))
	commands = append(commands, d.PreCommands...)
	commands = append(commands, d.Commands...)
	commands = append(commands, d.PostCommands...)

	task := &Task{
		Name:         name,
		ShortDesc:    stringOr(d.ShortDesc, ""),
		Description:  stringOr(d.Description, ""),
		Commands:     commands,
		Cwd:          stringOr(d.Cwd, ""),
		Shell:        boolOr(d.Shell, false),
		ShellPath:    stringOr(d.ShellPath, defaults.ShellPath),
		StopOnError:  boolOr(d.StopOnError, true),
		Env:          copyStringMap(d.Env),
		InheritOSEnv: boolOr(d.InheritOSEnv, true),
		Variables:    copyAnyMap(d.Variables),
		Hidden:       d.Hidden,
		Abstract:     d.Abstract,
		Meta:         copyAnyMap(d.Meta),
	}

	c := d.Container
	if c == nil {
		c = &ContainerDef{}
	}
	task.Container = Container{
		Image:       c.Image,
		Tool:        stringOr(c.Tool, defaults.ContainerTool),
		Volumes:     copyStrings(c.Volumes),
		Interactive: boolOr(c.Interactive, false),
		TTY:         boolOr(c.TTY, false),
		Flags:       stringOr(c.Flags, ""),
		Exec:        boolOr(c.Exec, false),
		Remove:      boolOr(c.Remove, true),
		Sudo:        boolOr(c.Sudo, false),
		Shell:       boolOr(c.Shell, false),
		ShellPath:   stringOr(c.ShellPath, defaults.ContainerShellPath),
		Env:         copyStringMap(c.Env),
		Cwd:         stringOr(c.Cwd, ""),
	}
	return task
}

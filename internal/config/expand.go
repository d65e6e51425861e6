package config

import (
	"fmt"

	"github.com/taskrun/tr/internal/vars"
)

// Expand returns a copy of t with every {{name}} marker in its runtime fields expanded
// against scope shadowed by the task's own variables.
func (t *Task) Expand(scope vars.Scope) (*Task, error) {
	e := vars.NewExpander(scope.WithLocals(t.Variables))
	out := *t
	var err error

	wrap := func(field string, err error) error {
		return fmt.Errorf("expand %s of task '%s': %w", field, t.Name, err)
	}

	if out.Env, err = e.ExpandMap(t.Env); err != nil {
		return nil, wrap("env", err)
	}
	if out.Cwd, err = e.Expand(t.Cwd); err != nil {
		return nil, wrap("cwd", err)
	}
	if out.Commands, err = e.ExpandAll(t.Commands); err != nil {
		return nil, wrap("commands", err)
	}

	c := &out.Container
	if c.Cwd, err = e.Expand(t.Container.Cwd); err != nil {
		return nil, wrap("container cwd", err)
	}
	if c.Image, err = e.Expand(t.Container.Image); err != nil {
		return nil, wrap("container image", err)
	}
	if c.Flags, err = e.Expand(t.Container.Flags); err != nil {
		return nil, wrap("container flags", err)
	}
	if c.Env, err = e.ExpandMap(t.Container.Env); err != nil {
		return nil, wrap("container env", err)
	}
	if c.Volumes, err = e.ExpandAll(t.Container.Volumes); err != nil {
		return nil, wrap("container volumes", err)
	}
	return &out, nil
}

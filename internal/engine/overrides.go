package engine

import (
	"github.com/taskrun/tr/internal/config"
	"github.com/taskrun/tr/internal/env"
)

// Overrides replace fields of a resolved task for a single run. Nil fields keep the
// task's value.
type Overrides struct {
	Commands    []string
	Cwd         *string
	Shell       *bool
	ShellPath   *string
	StopOnError *bool
	// Env replaces the task environment entirely when non-nil.
	Env       map[string]string
	Container ContainerOverrides
}

// ContainerOverrides replace fields of the task's container settings.
type ContainerOverrides struct {
	Image       *string
	Tool        *string
	Volumes     []string
	Interactive *bool
	TTY         *bool
	Flags       *string
	Exec        *bool
	Remove      *bool
	Sudo        *bool
	Shell       *bool
	ShellPath   *string
	Env         map[string]string
	Cwd         *string
}

// Apply returns a copy of task with the overrides applied.
func (o Overrides) Apply(task *config.Task) *config.Task {
	out := *task
	if o.Commands != nil {
		out.Commands = append([]string(nil), o.Commands...)
	}
	set(&out.Cwd, o.Cwd)
	set(&out.Shell, o.Shell)
	set(&out.ShellPath, o.ShellPath)
	set(&out.StopOnError, o.StopOnError)
	if o.Env != nil {
		out.Env = env.Vars(o.Env).Clone()
	}

	c := o.Container
	set(&out.Container.Image, c.Image)
	set(&out.Container.Tool, c.Tool)
	if c.Volumes != nil {
		out.Container.Volumes = append([]string(nil), c.Volumes...)
	}
	set(&out.Container.Interactive, c.Interactive)
	set(&out.Container.TTY, c.TTY)
	set(&out.Container.Flags, c.Flags)
	set(&out.Container.Exec, c.Exec)
	set(&out.Container.Remove, c.Remove)
	set(&out.Container.Sudo, c.Sudo)
	set(&out.Container.Shell, c.Shell)
	set(&out.Container.ShellPath, c.ShellPath)
	if c.Env != nil {
		out.Container.Env = env.Vars(c.Env).Clone()
	}
	set(&out.Container.Cwd, c.Cwd)
	return &out
}

// Empty reports whether no override is set.
func (o Overrides) Empty() bool {
	c := o.Container
	return o.Commands == nil && o.Cwd == nil && o.Shell == nil && o.ShellPath == nil &&
		o.StopOnError == nil && o.Env == nil &&
		c.Image == nil && c.Tool == nil && c.Volumes == nil && c.Interactive == nil &&
		c.TTY == nil && c.Flags == nil && c.Exec == nil && c.Remove == nil && c.Sudo == nil &&
		c.Shell == nil && c.ShellPath == nil && c.Env == nil && c.Cwd == nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

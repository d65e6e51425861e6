// Package config contains the loader and strongly typed model for task configuration files.
package config

// SupportedMajorVersion is the configuration format major version understood by tr.
const SupportedMajorVersion = 1

// SupportedMinorVersion is the newest configuration format minor version understood by tr.
const SupportedMinorVersion = 0

// Built-in process-wide defaults used when a configuration file does not set them.
const (
	DefaultShellPath          = "/bin/sh"
	DefaultContainerTool      = "/usr/bin/docker"
	DefaultContainerShellPath = "/bin/sh"
)

// File represents one configuration document, or the merged result of a document
// and everything it includes.
type File struct {
	// Schema is an optional JSON schema reference, kept for editors.
	Schema string `yaml:"$schema,omitempty" json:"$schema,omitempty"`
	// Version declares the configuration format version.
	Version *Version `yaml:"version,omitempty" json:"version,omitempty"`
	// Include lists further configuration files merged before this one.
	Include []string `yaml:"include,omitempty" json:"include,omitempty" validate:"dive,min=1"`
	// UseDefaultInclude controls whether the per-user default file is included (default true).
	UseDefaultInclude *bool `yaml:"use_default_include,omitempty" json:"use_default_include,omitempty"`
	// Tasks maps task names to raw task definitions.
	Tasks map[string]*TaskDef `yaml:"tasks,omitempty" json:"tasks,omitempty"`
	// Variables is the global variable layer.
	Variables map[string]any `yaml:"variables,omitempty" json:"variables,omitempty"`
	// Suppress lists task names removed after includes are merged.
	Suppress []string `yaml:"suppress,omitempty" json:"suppress,omitempty" validate:"dive,min=1"`
	// DefaultTask is run when no task name is given.
	DefaultTask string `yaml:"default_task,omitempty" json:"default_task,omitempty"`
	// DefaultShellPath is the shell used by tasks with shell enabled.
	DefaultShellPath string `yaml:"default_shell_path,omitempty" json:"default_shell_path,omitempty" validate:"max=255" jsonschema:"maxLength=255"`
	// DefaultContainerTool is the container CLI used by container tasks.
	DefaultContainerTool string `yaml:"default_container_tool,omitempty" json:"default_container_tool,omitempty" validate:"max=255" jsonschema:"maxLength=255"`
	// DefaultContainerShellPath is the shell used inside containers when shell wrapping is enabled.
	DefaultContainerShellPath string `yaml:"default_container_shell_path,omitempty" json:"default_container_shell_path,omitempty" validate:"max=255" jsonschema:"maxLength=255"`

	// Path is the absolute path of the root document.
	Path string `yaml:"-" json:"-"`
}

// Version describes a configuration format version.
type Version struct {
	Major int `yaml:"major" json:"major" validate:"min=0"`
	Minor int `yaml:"minor" json:"minor" validate:"min=0"`
}

// CommandsPolicy selects how a task's main commands combine with its base task's.
type CommandsPolicy string

const (
	// CommandsDefault inherits the base commands only when the task declares none.
	CommandsDefault CommandsPolicy = "default"
	// CommandsIgnore never inherits the base commands.
	CommandsIgnore CommandsPolicy = "ignore"
	// CommandsBefore runs the base commands before the task's own.
	CommandsBefore CommandsPolicy = "before"
	// CommandsAfter runs the base commands after the task's own.
	CommandsAfter CommandsPolicy = "after"
)

// TaskDef is a raw task record as written in a configuration file. Optional scalars are
// pointers so that inheritance can tell "unset" from "set to the zero value".
//
// The merge tag is the inheritance policy table consumed by mergeDefs.
type TaskDef struct {
	Base         string         `yaml:"base,omitempty" json:"base,omitempty"`
	BaseCommands CommandsPolicy `yaml:"base_commands,omitempty" json:"base_commands,omitempty" validate:"omitempty,oneof=default ignore before after" merge:"child" jsonschema:"enum=default,enum=ignore,enum=before,enum=after"`
	ShortDesc    *string        `yaml:"short_desc,omitempty" json:"short_desc,omitempty" validate:"omitempty,max=75" merge:"replace" jsonschema:"maxLength=75"`
	Description  *string        `yaml:"description,omitempty" json:"description,omitempty" merge:"replace"`

	PreCommands  []string `yaml:"pre_commands,omitempty" json:"pre_commands,omitempty" validate:"dive,min=1" merge:"concat"`
	Commands     []string `yaml:"commands,omitempty" json:"commands,omitempty" validate:"dive,min=1" merge:"commands,BaseCommands"`
	PostCommands []string `yaml:"post_commands,omitempty" json:"post_commands,omitempty" validate:"dive,min=1" merge:"concat"`

	Cwd         *string `yaml:"cwd,omitempty" json:"cwd,omitempty" validate:"omitempty,min=1" merge:"replace"`
	Shell       *bool   `yaml:"shell,omitempty" json:"shell,omitempty" merge:"replace"`
	ShellPath   *string `yaml:"shell_path,omitempty" json:"shell_path,omitempty" validate:"omitempty,min=1,max=255" merge:"replace" jsonschema:"minLength=1,maxLength=255"`
	StopOnError *bool   `yaml:"stop_on_error,omitempty" json:"stop_on_error,omitempty" merge:"replace"`

	Env          map[string]string `yaml:"env,omitempty" json:"env,omitempty" merge:"map,InheritEnv"`
	InheritEnv   *bool             `yaml:"inherit_env,omitempty" json:"inherit_env,omitempty" merge:"child"`
	InheritOSEnv *bool             `yaml:"inherit_os_env,omitempty" json:"inherit_os_env,omitempty" merge:"replace"`

	Variables        map[string]any `yaml:"variables,omitempty" json:"variables,omitempty" merge:"map,InheritVariables"`
	InheritVariables *bool          `yaml:"inherit_variables,omitempty" json:"inherit_variables,omitempty" merge:"child"`

	Hidden   bool           `yaml:"hidden,omitempty" json:"hidden,omitempty" merge:"child"`
	Abstract bool           `yaml:"abstract,omitempty" json:"abstract,omitempty" merge:"child"`
	Meta     map[string]any `yaml:"meta,omitempty" json:"meta,omitempty" merge:"replace"`

	Container *ContainerDef `yaml:"container,omitempty" json:"container,omitempty" merge:"nested"`
}

// ContainerDef is the raw container section of a task.
type ContainerDef struct {
	Image          string            `yaml:"image,omitempty" json:"image,omitempty" merge:"replace"`
	Tool           *string           `yaml:"tool,omitempty" json:"tool,omitempty" validate:"omitempty,min=1,max=255" merge:"replace" jsonschema:"minLength=1,maxLength=255"`
	Volumes        []string          `yaml:"volumes,omitempty" json:"volumes,omitempty" validate:"dive,min=1" merge:"concat,InheritVolumes"`
	InheritVolumes *bool             `yaml:"inherit_volumes,omitempty" json:"inherit_volumes,omitempty" merge:"child"`
	Interactive    *bool             `yaml:"interactive,omitempty" json:"interactive,omitempty" merge:"replace"`
	TTY            *bool             `yaml:"tty,omitempty" json:"tty,omitempty" merge:"replace"`
	Flags          *string           `yaml:"flags,omitempty" json:"flags,omitempty" merge:"replace"`
	Exec           *bool             `yaml:"exec,omitempty" json:"exec,omitempty" merge:"replace"`
	Remove         *bool             `yaml:"remove,omitempty" json:"remove,omitempty" merge:"replace"`
	Sudo           *bool             `yaml:"sudo,omitempty" json:"sudo,omitempty" merge:"replace"`
	Shell          *bool             `yaml:"shell,omitempty" json:"shell,omitempty" merge:"replace"`
	ShellPath      *string           `yaml:"shell_path,omitempty" json:"shell_path,omitempty" validate:"omitempty,min=1,max=255" merge:"replace" jsonschema:"minLength=1,maxLength=255"`
	Env            map[string]string `yaml:"env,omitempty" json:"env,omitempty" merge:"map,InheritEnv"`
	InheritEnv     *bool             `yaml:"inherit_env,omitempty" json:"inherit_env,omitempty" merge:"child"`
	Cwd            *string           `yaml:"cwd,omitempty" json:"cwd,omitempty" validate:"omitempty,min=1" merge:"replace"`
}

// Task is a fully resolved task: inheritance is flattened, defaults are applied and the
// pre, main and post command lists are consolidated into Commands.
type Task struct {
	Name         string            `yaml:"name" json:"name"`
	ShortDesc    string            `yaml:"short_desc,omitempty" json:"short_desc,omitempty"`
	Description  string            `yaml:"description,omitempty" json:"description,omitempty"`
	Commands     []string          `yaml:"commands" json:"commands"`
	Cwd          string            `yaml:"cwd,omitempty" json:"cwd,omitempty"`
	Shell        bool              `yaml:"shell" json:"shell"`
	ShellPath    string            `yaml:"shell_path,omitempty" json:"shell_path,omitempty" validate:"required_if=Shell true"`
	StopOnError  bool              `yaml:"stop_on_error" json:"stop_on_error"`
	Env          map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	InheritOSEnv bool              `yaml:"inherit_os_env" json:"inherit_os_env"`
	Variables    map[string]any    `yaml:"variables,omitempty" json:"variables,omitempty"`
	Hidden       bool              `yaml:"hidden" json:"hidden"`
	Abstract     bool              `yaml:"abstract" json:"abstract"`
	Meta         map[string]any    `yaml:"meta,omitempty" json:"meta,omitempty"`
	Container    Container         `yaml:"container,omitempty" json:"container,omitempty"`
}

// Container holds the resolved container settings of a task. An empty Image means the
// task runs directly on the host.
type Container struct {
	Image       string            `yaml:"image,omitempty" json:"image,omitempty"`
	Tool        string            `yaml:"tool,omitempty" json:"tool,omitempty" validate:"required_with=Image"`
	Volumes     []string          `yaml:"volumes,omitempty" json:"volumes,omitempty"`
	Interactive bool              `yaml:"interactive,omitempty" json:"interactive,omitempty"`
	TTY         bool              `yaml:"tty,omitempty" json:"tty,omitempty"`
	Flags       string            `yaml:"flags,omitempty" json:"flags,omitempty"`
	Exec        bool              `yaml:"exec,omitempty" json:"exec,omitempty"`
	Remove      bool              `yaml:"remove,omitempty" json:"remove,omitempty"`
	Sudo        bool              `yaml:"sudo,omitempty" json:"sudo,omitempty"`
	Shell       bool              `yaml:"shell,omitempty" json:"shell,omitempty"`
	ShellPath   string            `yaml:"shell_path,omitempty" json:"shell_path,omitempty" validate:"required_if=Shell true"`
	Env         map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	Cwd         string            `yaml:"cwd,omitempty" json:"cwd,omitempty"`
}

// Defaults carries the process-wide defaults applied while resolving tasks.
type Defaults struct {
	ShellPath          string
	ContainerTool      string
	ContainerShellPath string
}

// Defaults returns the file's process-wide defaults with built-in fallbacks.
func (f *File) Defaults() Defaults {
	d := Defaults{
		ShellPath:          DefaultShellPath,
		ContainerTool:      DefaultContainerTool,
		ContainerShellPath: DefaultContainerShellPath,
	}
	if f == nil {
		return d
	}
	if f.DefaultShellPath != "" {
		d.ShellPath = f.DefaultShellPath
	}
	if f.DefaultContainerTool != "" {
		d.ContainerTool = f.DefaultContainerTool
	}
	if f.DefaultContainerShellPath != "" {
		d.ContainerShellPath = f.DefaultContainerShellPath
	}
	return d
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func stringOr(p *string, def string) string {
	if p == nil || *p == "" {
		return def
	}
	return *p
}

func copyStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func copyStringMap(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/taskrun/tr/internal/vars"
)

// Loader reads a configuration file together with its includes.
type Loader struct {
	// Logger receives debug traces of the include walk.
	Logger *slog.Logger
	// Constants is the constant variable layer used to expand include paths.
	Constants vars.Map
	// DefaultInclude is prepended to the root file's includes when non-empty,
	// unless the root file opts out with use_default_include: false.
	DefaultInclude string
}

// NewLoader constructs a Loader.
func NewLoader(logger *slog.Logger, constants vars.Map, defaultInclude string) *Loader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{Logger: logger, Constants: constants, DefaultInclude: defaultInclude}
}

// Load reads path and merges every file it includes. The returned File is never
// mutated by tr afterwards.
func (l *Loader) Load(path string) (*File, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%w: empty path", ErrConfigNotFound)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}
	expander := vars.NewExpander(vars.NewScope(l.Constants, nil))
	return l.load(absPath, expander, make(map[string]struct{}), true)
}

func (l *Loader) load(path string, expander *vars.Expander, reading map[string]struct{}, root bool) (*File, error) {
	if _, busy := reading[path]; busy {
		return nil, fmt.Errorf("%w - '%s'", ErrIncludeLoop, path)
	}

	l.Logger.Debug("reading configuration file", "path", path)
	own, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	includes := slices.Clone(own.Include)
	if root && l.useDefaultInclude(own, path) {
		includes = append([]string{l.DefaultInclude}, includes...)
	}

	reading[path] = struct{}{}
	defer delete(reading, path)

	merged := &File{}
	dir := filepath.Dir(path)
	for _, inc := range includes {
		incPath, err := expander.Expand(inc)
		if err != nil {
			return nil, fmt.Errorf("expand include %q in %s: %w", inc, path, err)
		}
		if !filepath.IsAbs(incPath) {
			incPath = filepath.Join(dir, incPath)
		}
		incPath = filepath.Clean(incPath)
		l.Logger.Debug("including configuration file", "path", incPath, "from", path)

		included, err := l.load(incPath, expander, reading, false)
		if err != nil {
			return nil, err
		}
		merged.absorb(included)
	}
	merged.absorb(own)

	merged.Schema = own.Schema
	merged.Version = own.Version
	merged.Include = own.Include
	merged.UseDefaultInclude = own.UseDefaultInclude
	merged.Path = path

	for _, name := range merged.Suppress {
		if _, ok := merged.Tasks[name]; ok {
			l.Logger.Debug("removing suppressed task", "task", name, "file", path)
			delete(merged.Tasks, name)
		}
	}

	if own.Version != nil && own.Version.Minor > SupportedMinorVersion {
		l.Logger.Warn("configuration minor version is newer than supported",
			"path", path, "found", fmt.Sprintf("%d.%d", own.Version.Major, own.Version.Minor),
			"supported", fmt.Sprintf("%d.%d", SupportedMajorVersion, SupportedMinorVersion))
	}
	return merged, nil
}

func (l *Loader) useDefaultInclude(own *File, path string) bool {
	if l.DefaultInclude == "" || !boolOr(own.UseDefaultInclude, true) {
		return false
	}
	defaultPath, err := filepath.Abs(l.DefaultInclude)
	if err != nil || defaultPath == path {
		return false
	}
	if _, err := os.Stat(defaultPath); err != nil {
		return false
	}
	return !slices.Contains(own.Include, l.DefaultInclude)
}

// absorb merges other into f: tasks, variables and suppressions accumulate with other
// winning on collisions; non-empty defaults of other override those of f.
func (f *File) absorb(other *File) {
	if len(other.Tasks) > 0 && f.Tasks == nil {
		f.Tasks = make(map[string]*TaskDef, len(other.Tasks))
	}
	for name, def := range other.Tasks {
		f.Tasks[name] = def
	}
	if len(other.Variables) > 0 && f.Variables == nil {
		f.Variables = make(map[string]any, len(other.Variables))
	}
	for name, value := range other.Variables {
		f.Variables[name] = value
	}
	f.Suppress = append(f.Suppress, other.Suppress...)
	if other.DefaultTask != "" {
		f.DefaultTask = other.DefaultTask
	}
	if other.DefaultShellPath != "" {
		f.DefaultShellPath = other.DefaultShellPath
	}
	if other.DefaultContainerTool != "" {
		f.DefaultContainerTool = other.DefaultContainerTool
	}
	if other.DefaultContainerShellPath != "" {
		f.DefaultContainerShellPath = other.DefaultContainerShellPath
	}
}

// ReadFile reads and validates a single configuration document without following includes.
func ReadFile(path string) (*File, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: '%s'", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config %q: %w", path, err)
	}
	f, err := Decode(path, raw)
	if err != nil {
		return nil, err
	}
	if err := ValidateFile(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Decode parses a YAML or JSON configuration document, rejecting unknown keys.
// The format is chosen by the file extension of name.
func Decode(name string, raw []byte) (*File, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("%s: unsupported configuration file format", name)
	}

	var f File
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", name, &SchemaError{Reason: decodeReason(err)})
	}
	return &f, nil
}

func decodeReason(err error) string {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return strings.Join(typeErr.Errors, "; ")
	}
	return err.Error()
}

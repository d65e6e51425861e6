// Package env contains helpers for building and merging process environments.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// Vars represents a simple string-to-string map of variables.
type Vars map[string]string

// FromOS builds a Vars map from the current process environment.
func FromOS() Vars {
	return FromList(os.Environ())
}

// FromList builds a Vars map from KEY=VALUE entries. Entries without '=' are skipped.
func FromList(list []string) Vars {
	out := make(Vars, len(list))
	for _, kv := range list {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		out[parts[0]] = parts[1]
	}
	return out
}

// Merge merges several Vars maps into one, later maps overriding earlier keys.
func Merge(sets ...Vars) Vars {
	out := make(Vars)
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}

// Clone returns a copy of v, or nil when v is nil.
func (v Vars) Clone() Vars {
	if v == nil {
		return nil
	}
	return Merge(v)
}

// Keys returns the variable names in sorted order.
func (v Vars) Keys() []string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// List renders the map as sorted KEY=VALUE entries suitable for exec.Cmd.Env.
func (v Vars) List() []string {
	out := make([]string, 0, len(v))
	for _, k := range v.Keys() {
		out = append(out, k+"="+v[k])
	}
	return out
}

// LoadEnvFile loads a single .env-style file into Vars.
func LoadEnvFile(path string) (Vars, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	envMap, err := godotenv.Parse(f)
	if err != nil {
		return nil, err
	}
	out := make(Vars, len(envMap))
	for k, v := range envMap {
		out[k] = v
	}
	return out, nil
}

// LoadEnvFiles loads multiple .env-style files and merges them in order.
func LoadEnvFiles(baseDir string, files []string) (Vars, error) {
	result := make(Vars)
	for _, name := range files {
		if name == "" {
			continue
		}
		path := name
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, name)
		}
		vars, err := LoadEnvFile(path)
		if err != nil {
			return nil, fmt.Errorf("load env file %q: %w", path, err)
		}
		result = Merge(result, vars)
	}
	return result, nil
}

// ParseAssignment splits a NAME=VALUE string. A missing '=' yields an empty value.
func ParseAssignment(s string) (string, string) {
	name, value, _ := strings.Cut(s, "=")
	return name, value
}

// ParseAssignments parses a list of NAME=VALUE strings into Vars.
func ParseAssignments(list []string) (Vars, error) {
	out := make(Vars, len(list))
	for _, item := range list {
		name, value := ParseAssignment(item)
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("empty name in assignment %q", item)
		}
		out[name] = value
	}
	return out, nil
}

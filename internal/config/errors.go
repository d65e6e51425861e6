package config

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigNotFound is returned when a configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
	// ErrIncludeLoop is returned when a file transitively includes itself.
	ErrIncludeLoop = errors.New("include loop detected")
	// ErrSchemaValidation is returned for malformed configuration or task records.
	ErrSchemaValidation = errors.New("schema validation error")
	// ErrInheritanceLoop is returned when a task transitively inherits from itself.
	ErrInheritanceLoop = errors.New("inheritance loop detected")
	// ErrUnknownTask is returned when no task matches a requested name.
	ErrUnknownTask = errors.New("no such task")
	// ErrAmbiguousTask is returned when a name prefix matches several tasks.
	ErrAmbiguousTask = errors.New("ambiguous task name")
	// ErrNoTask is returned when no task name was given and no default task is configured.
	ErrNoTask = errors.New("no task name given and no default task configured")
)

// SchemaError describes a schema violation at a slash-separated field path.
type SchemaError struct {
	Path   string
	Reason string
}

// Error implements error.
func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s: %s", ErrSchemaValidation, e.Reason)
	}
	return fmt.Sprintf("%s at '%s': %s", ErrSchemaValidation, e.Path, e.Reason)
}

// Unwrap lets errors.Is match ErrSchemaValidation.
func (e *SchemaError) Unwrap() error {
	return ErrSchemaValidation
}

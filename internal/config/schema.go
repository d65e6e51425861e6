package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func schemaValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// validateStruct validates v and reports the first violation under prefix.
func validateStruct(prefix string, v any) error {
	err := schemaValidator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &SchemaError{Path: prefix, Reason: err.Error()}
	}
	fe := fieldErrs[0]
	return &SchemaError{
		Path:   joinPath(prefix, fieldPath(fe.Namespace())),
		Reason: describe(fe),
	}
}

// ValidateTask validates a raw or merged task record.
func ValidateTask(name string, def *TaskDef) error {
	if def == nil {
		return &SchemaError{Path: joinPath("tasks", name), Reason: "task record is empty"}
	}
	return validateStruct(joinPath("tasks", name), def)
}

// ValidateResolved validates the invariants of a resolved task after run overrides have
// replaced some of its fields.
func ValidateResolved(task *Task) error {
	return validateStruct(joinPath("tasks", task.Name), task)
}

// ValidateFile validates the top-level keys of a configuration document.
func ValidateFile(f *File) error {
	if err := validateStruct("", f); err != nil {
		return err
	}
	if f.Version == nil {
		return nil
	}
	if f.Version.Major != SupportedMajorVersion {
		return &SchemaError{
			Path:   "version/major",
			Reason: fmt.Sprintf("incompatible configuration version %d.%d, expected %d.x", f.Version.Major, f.Version.Minor, SupportedMajorVersion),
		}
	}
	return nil
}

// fieldPath turns "TaskDef.container.volumes[0]" into "container/volumes/0".
func fieldPath(namespace string) string {
	_, rest, found := strings.Cut(namespace, ".")
	if !found {
		return ""
	}
	rest = strings.ReplaceAll(rest, "[", ".")
	rest = strings.ReplaceAll(rest, "]", "")
	return strings.ReplaceAll(rest, ".", "/")
}

func joinPath(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "/")
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "min":
		return fmt.Sprintf("must have a length of at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must have a length of at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "required_with", "required_if", "required":
		return "is required"
	}
	return fmt.Sprintf("failed %q validation", fe.Tag())
}

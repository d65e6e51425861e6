package config

import (
	"fmt"

	"github.com/invopop/jsonschema"
)

// SchemaKind selects which document JSONSchema describes.
type SchemaKind string

const (
	// SchemaConfig describes a whole configuration file.
	SchemaConfig SchemaKind = "config"
	// SchemaTask describes a single task record.
	SchemaTask SchemaKind = "task"
	// SchemaAll bundles both schemas keyed by kind.
	SchemaAll SchemaKind = "all"
)

// JSONSchema reflects the configuration model into JSON Schema. Property names follow
// the yaml keys and unknown keys are disallowed, as when loading.
func JSONSchema(kind SchemaKind) (any, error) {
	switch kind {
	case SchemaConfig:
		return reflectSchema(&File{}), nil
	case SchemaTask:
		return reflectSchema(&TaskDef{}), nil
	case SchemaAll:
		return map[string]*jsonschema.Schema{
			string(SchemaConfig): reflectSchema(&File{}),
			string(SchemaTask):   reflectSchema(&TaskDef{}),
		}, nil
	default:
		return nil, fmt.Errorf("unknown schema type %q (want %s, %s or %s)", kind, SchemaConfig, SchemaTask, SchemaAll)
	}
}

func reflectSchema(v any) *jsonschema.Schema {
	r := &jsonschema.Reflector{
		FieldNameTag:               "yaml",
		ExpandedStruct:             true,
		RequiredFromJSONSchemaTags: true,
	}
	return r.Reflect(v)
}

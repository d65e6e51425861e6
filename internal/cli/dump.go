package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/taskrun/tr/internal/config"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

// newDumpCommand creates the "dump" subcommand that prints a task record.
func newDumpCommand(opts *Options) *cobra.Command {
	var (
		includes bool
		sorted   bool
		format   string
	)

	cmd := &cobra.Command{
		Use:   "dump [TASK]",
		Short: "Dump a task record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(cmd, opts, nil)
			if err != nil {
				return err
			}
			name, err := s.file.TaskName(firstArg(args))
			if err != nil {
				return err
			}

			var record any
			if includes {
				record, err = s.file.Resolver().Flatten(name)
				if err != nil {
					return err
				}
			} else {
				_, record, _ = s.file.Lookup(name)
			}
			return writeDocument(cmd.OutOrStdout(), format, sorted, map[string]any{name: record})
		},
	}

	cmd.Flags().BoolVarP(&includes, "includes", "i", false, "Dump the task merged with its base chain")
	addDumpFlags(cmd, &format, &sorted)
	return cmd
}

// newDumpConfigCommand creates the "dump-config" subcommand that prints the merged configuration.
func newDumpConfigCommand(opts *Options) *cobra.Command {
	var (
		sorted bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "dump-config",
		Short: "Dump the configuration with all includes merged",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSession(cmd, opts, nil)
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), format, sorted, s.file)
		},
	}

	addDumpFlags(cmd, &format, &sorted)
	return cmd
}

// newDumpSchemaCommand creates the "dump-schema" subcommand that prints the JSON Schema of
// configuration files and task records.
func newDumpSchemaCommand() *cobra.Command {
	var (
		kind   string
		sorted bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "dump-schema",
		Short: "Dump the configuration file schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := config.JSONSchema(config.SchemaKind(kind))
			if err != nil {
				return err
			}
			// schemas carry their own JSON encoding; yaml needs the plain form
			doc, err := plainDocument(schema)
			if err != nil {
				return err
			}
			return writeDocument(cmd.OutOrStdout(), format, sorted, doc)
		},
	}

	cmd.Flags().StringVarP(&kind, "type", "t", string(config.SchemaAll), "Schema to dump (config, task, all)")
	addDumpFlags(cmd, &format, &sorted)
	return cmd
}

func addDumpFlags(cmd *cobra.Command, format *string, sorted *bool) {
	cmd.Flags().StringVarP(format, "format", "f", formatYAML, "Output format (yaml, json)")
	cmd.Flags().BoolVarP(sorted, "sort", "s", false, "Sort all keys alphabetically")
}

// writeDocument encodes doc in format. With sorted, doc is first reduced to plain maps so
// that struct fields are emitted in key order as well.
func writeDocument(w io.Writer, format string, sorted bool, doc any) error {
	if sorted {
		plain, err := plainDocument(doc)
		if err != nil {
			return err
		}
		doc = plain
	}

	switch format {
	case formatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err := w.Write(buf.Bytes())
		return err
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "    ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format %q (want %s or %s)", format, formatYAML, formatJSON)
	}
}

// plainDocument round-trips doc through JSON into maps, slices and scalars.
func plainDocument(doc any) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var plain any
	if err := json.Unmarshal(raw, &plain); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return plain, nil
}

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskrun/tr/internal/config"
	"github.com/taskrun/tr/internal/engine"
	"github.com/taskrun/tr/internal/logging"
)

const testConfig = `
default_task: greet
variables:
  who: world
tasks:
  greet:
    short_desc: Say hello
    shell: true
    commands:
      - echo hello {{who}} {{cliArgs}}
  fail:
    shell: true
    stop_on_error: false
    commands:
      - exit 3
      - echo after
  envs:
    shell: true
    commands:
      - echo "$FOO-$BAR"
  secret:
    hidden: true
    commands: ["true"]
  template:
    abstract: true
    commands: ["echo from template"]
  child:
    base: template
  cyclic:
    abstract: true
    variables:
      a: "{{b}}"
      b: "{{a}}"
    commands: ["echo {{a}}"]
  build:
    commands: ["true"]
  bundle:
    commands: ["true"]
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "tasks.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, *Options, error) {
	t.Helper()
	color.NoColor = true

	opts := &Options{}
	cmd := newRootCommand(opts, logging.Discard(), baseEnv{LogLevel: "error"})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), opts, err
}

func TestRunDefaultTaskWithPassThroughArgs(t *testing.T) {
	conf := writeTestConfig(t)

	out, opts, err := runCLI(t, "-C", conf, "run", "--", "a", "b")
	require.NoError(t, err)
	assert.Equal(t, "hello world a b\n", out)
	assert.Equal(t, 0, opts.ExitCode)
}

func TestRunVariableOverride(t *testing.T) {
	conf := writeTestConfig(t)

	out, _, err := runCLI(t, "-C", conf, "-V", "who=you", "run", "greet")
	require.NoError(t, err)
	assert.Equal(t, "hello you\n", out)
}

func TestRunReportsChildExitCode(t *testing.T) {
	conf := writeTestConfig(t)

	out, opts, err := runCLI(t, "-C", conf, "run", "fail")
	require.NoError(t, err)
	assert.Equal(t, "after\n", out)
	assert.Equal(t, 3, opts.ExitCode)
}

func TestRunCommandOverride(t *testing.T) {
	conf := writeTestConfig(t)

	out, _, err := runCLI(t, "-C", conf, "run", "greet", "-c", "echo {{who}}", "-c", "echo again")
	require.NoError(t, err)
	assert.Equal(t, "world\nagain\n", out)
}

func TestRunEnvOverrides(t *testing.T) {
	conf := writeTestConfig(t)
	envFile := filepath.Join(t.TempDir(), "run.env")
	require.NoError(t, os.WriteFile(envFile, []byte("FOO=file\nBAR=file\n"), 0o644))

	out, _, err := runCLI(t, "-C", conf, "run", "envs", "--env-file", envFile, "--env", "BAR=cli")
	require.NoError(t, err)
	assert.Equal(t, "file-cli\n", out)
}

func TestRunSummary(t *testing.T) {
	conf := writeTestConfig(t)

	out, _, err := runCLI(t, "-C", conf, "run", "-s", "greet")
	require.NoError(t, err)
	assert.Contains(t, out, "Task name:")
	assert.Contains(t, out, strings.Repeat("-", 70)+"\nhello world\n")
	assert.NotContains(t, out, "Short description:")
}

func TestRunErrors(t *testing.T) {
	conf := writeTestConfig(t)

	_, _, err := runCLI(t, "-C", conf, "run", "template")
	assert.ErrorIs(t, err, engine.ErrAbstractTask)

	_, _, err = runCLI(t, "-C", conf, "run", "cyclic")
	assert.ErrorIs(t, err, engine.ErrAbstractTask)

	_, _, err = runCLI(t, "-C", conf, "run", "bu")
	assert.ErrorIs(t, err, config.ErrAmbiguousTask)

	_, _, err = runCLI(t, "-C", conf, "run", "nope")
	assert.ErrorIs(t, err, config.ErrUnknownTask)

	_, _, err = runCLI(t, "-C", conf, "run", "greet", "extra")
	assert.Error(t, err)

	_, _, err = runCLI(t, "-C", filepath.Join(t.TempDir(), "missing.yaml"), "run")
	assert.ErrorIs(t, err, config.ErrConfigNotFound)
}

func TestRunValidatesOverrides(t *testing.T) {
	conf := writeTestConfig(t)

	_, _, err := runCLI(t, "-C", conf, "run", "greet", "--shell-path", "")
	require.ErrorIs(t, err, config.ErrSchemaValidation)
	var schemaErr *config.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, "tasks/greet/shell_path", schemaErr.Path)

	_, _, err = runCLI(t, "-C", conf, "run", "greet", "--c-image", "alpine", "--c-tool", "")
	assert.ErrorIs(t, err, config.ErrSchemaValidation)
}

func TestRunByPrefix(t *testing.T) {
	conf := writeTestConfig(t)

	out, _, err := runCLI(t, "-C", conf, "run", "ch")
	require.NoError(t, err)
	assert.Equal(t, "from template\n", out)
}

func TestList(t *testing.T) {
	conf := writeTestConfig(t)

	out, _, err := runCLI(t, "-C", conf, "list")
	require.NoError(t, err)
	lines := strings.Split(out, "\n")
	assert.Equal(t, "Name                    Flags Description", lines[0])
	assert.Contains(t, out, "greet                   *     Say hello\n")
	assert.NotContains(t, out, "template")
	assert.NotContains(t, out, "secret")

	out, _, err = runCLI(t, "-C", conf, "list", "--all")
	require.NoError(t, err)
	assert.Contains(t, out, "template                A     \n")
	assert.Contains(t, out, "secret                  H     \n")
}

func TestTaskFlagsAreExclusive(t *testing.T) {
	tests := []struct {
		task config.Task
		want string
	}{
		{task: config.Task{Name: "main", Abstract: true, Hidden: true}, want: "A"},
		{task: config.Task{Name: "main", Hidden: true}, want: "H"},
		{task: config.Task{Name: "main"}, want: "*"},
		{task: config.Task{Name: "other"}, want: ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, taskFlags(&tt.task, "main"))
	}
}

func TestInfo(t *testing.T) {
	conf := writeTestConfig(t)

	out, _, err := runCLI(t, "-C", conf, "info", "greet")
	require.NoError(t, err)
	assert.Contains(t, out, "Short description:      Say hello\n")
	assert.Contains(t, out, "Command:                echo hello {{who}} {{cliArgs}}\n")

	out, _, err = runCLI(t, "-C", conf, "info", "-x")
	require.NoError(t, err)
	assert.Contains(t, out, "Task name:              greet\n")
	assert.Contains(t, out, "Command:                echo hello world \n")
}

func TestDump(t *testing.T) {
	conf := writeTestConfig(t)

	out, _, err := runCLI(t, "-C", conf, "dump", "child", "-f", "json")
	require.NoError(t, err)
	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &raw))
	assert.Equal(t, "template", raw["child"]["base"])
	assert.NotContains(t, raw["child"], "commands")

	out, _, err = runCLI(t, "-C", conf, "dump", "child", "-i", "-f", "json")
	require.NoError(t, err)
	var merged map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &merged))
	assert.Equal(t, []any{"echo from template"}, merged["child"]["commands"])
	assert.NotContains(t, merged["child"], "base")

	out, _, err = runCLI(t, "-C", conf, "dump", "greet")
	require.NoError(t, err)
	assert.Contains(t, out, "greet:\n")
	assert.Contains(t, out, "short_desc: Say hello\n")

	_, _, err = runCLI(t, "-C", conf, "dump", "greet", "-f", "toml")
	assert.Error(t, err)
}

func TestDumpConfig(t *testing.T) {
	conf := writeTestConfig(t)

	out, _, err := runCLI(t, "-C", conf, "dump-config")
	require.NoError(t, err)
	assert.Contains(t, out, "default_task: greet\n")
	assert.Contains(t, out, "tasks:\n")
}

func TestDumpSorted(t *testing.T) {
	conf := writeTestConfig(t)

	out, _, err := runCLI(t, "-C", conf, "dump-config", "-f", "json")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, `"tasks"`), strings.Index(out, `"default_task"`))

	out, _, err = runCLI(t, "-C", conf, "dump-config", "-f", "json", "-s")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, `"default_task"`), strings.Index(out, `"tasks"`))

	out, _, err = runCLI(t, "-C", conf, "dump", "greet", "-s")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "commands:"), strings.Index(out, "short_desc:"))
}

func TestDumpSchema(t *testing.T) {
	out, _, err := runCLI(t, "dump-schema", "-t", "task", "-f", "json")
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc["properties"], "short_desc")

	out, _, err = runCLI(t, "dump-schema")
	require.NoError(t, err)
	assert.Contains(t, out, "config:\n")
	assert.Contains(t, out, "task:\n")

	_, _, err = runCLI(t, "dump-schema", "-t", "bogus")
	assert.Error(t, err)
}

func TestConfigDiscovery(t *testing.T) {
	conf := writeTestConfig(t)
	nested := filepath.Join(filepath.Dir(conf), "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(oldWd) })
	t.Setenv("PWD", nested)

	out, _, err := runCLI(t, "run", "greet")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)
}

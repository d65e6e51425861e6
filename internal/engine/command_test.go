package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskrun/tr/internal/config"
)

func fullContainer() config.Container {
	return config.Container{
		Image:       "alpine:3",
		Tool:        "docker",
		Volumes:     []string{"/src:/src", "/cache:/cache"},
		Interactive: true,
		TTY:         true,
		Flags:       "--network host --label 'team=build tools'",
		Remove:      true,
		Sudo:        true,
		Shell:       true,
		ShellPath:   "/bin/sh",
		Env:         map[string]string{"B": "2", "A": "1"},
		Cwd:         "/src",
	}
}

func TestContainerArgsRun(t *testing.T) {
	args, err := ContainerArgs(fullContainer(), "make all")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"sudo", "docker", "run", "-w", "/src", "-i", "-t", "--rm",
		"-v", "/src:/src", "-v", "/cache:/cache",
		"-e", "A=1", "-e", "B=2",
		"--network", "host", "--label", "team=build tools",
		"alpine:3", "/bin/sh", "-c", "make all",
	}, args)
}

func TestContainerArgsExecOmitsRunOptions(t *testing.T) {
	c := fullContainer()
	c.Exec = true
	c.Sudo = false

	args, err := ContainerArgs(c, "make all")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"docker", "exec", "-w", "/src", "-i", "-t",
		"-e", "A=1", "-e", "B=2",
		"--network", "host", "--label", "team=build tools",
		"alpine:3", "/bin/sh", "-c", "make all",
	}, args)
	assert.NotContains(t, args, "--rm")
	assert.NotContains(t, args, "-v")
}

func TestContainerArgsWithoutShellPassesCommandAsOneArgument(t *testing.T) {
	c := config.Container{Image: "alpine", Tool: "podman", Remove: true}

	args, err := ContainerArgs(c, "echo hello world")
	require.NoError(t, err)
	assert.Equal(t, []string{"podman", "run", "--rm", "alpine", "echo hello world"}, args)
}

func TestContainerArgsDefaultEntrypoint(t *testing.T) {
	args, err := ContainerArgs(fullContainer(), "")
	require.NoError(t, err)
	assert.Equal(t, "alpine:3", args[len(args)-1])
	assert.NotContains(t, args, "-c")
}

func TestContainerArgsFlagsKeepBackslashes(t *testing.T) {
	c := config.Container{Image: "alpine", Tool: "docker", Flags: `--label "path=C:\tmp"`}
	args, err := ContainerArgs(c, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"docker", "run", "--label", `path=C:\tmp`, "alpine"}, args)
}

func TestContainerArgsRejectsBadFlags(t *testing.T) {
	c := config.Container{Image: "alpine", Tool: "docker", Flags: "--label 'open"}
	_, err := ContainerArgs(c, "true")
	require.ErrorIs(t, err, ErrCommandParse)
}

func TestDirectArgs(t *testing.T) {
	tests := []struct {
		name    string
		task    config.Task
		command string
		want    []string
	}{
		{
			name:    "shell",
			task:    config.Task{Shell: true, ShellPath: "/bin/bash"},
			command: "echo $HOME | wc -c",
			want:    []string{"/bin/bash", "-c", "echo $HOME | wc -c"},
		},
		{
			name:    "split",
			task:    config.Task{},
			command: `git commit -m "first commit" --author 'A B'`,
			want:    []string{"git", "commit", "-m", "first commit", "--author", "A B"},
		},
		{
			name:    "backslash kept in double quotes",
			task:    config.Task{},
			command: `printf "%s\n" x`,
			want:    []string{"printf", `%s\n`, "x"},
		},
		{
			name:    "regexp escape kept in double quotes",
			task:    config.Task{},
			command: `grep "a\.b" f`,
			want:    []string{"grep", `a\.b`, "f"},
		},
		{
			name:    "escaped quote in double quotes",
			task:    config.Task{},
			command: `echo "say \"hi\"" '\n'`,
			want:    []string{"echo", `say "hi"`, `\n`},
		},
		{
			name:    "quoted operator",
			task:    config.Task{},
			command: `grep "a|b" f`,
			want:    []string{"grep", "a|b", "f"},
		},
		{
			name:    "escaped space",
			task:    config.Task{},
			command: `ls my\ dir`,
			want:    []string{"ls", "my dir"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DirectArgs(&tt.task, tt.command)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDirectArgsParseErrors(t *testing.T) {
	for _, command := range []string{`echo "unterminated`, `echo 'open`, "   ", "echo a | wc -l"} {
		_, err := DirectArgs(&config.Task{}, command)
		assert.ErrorIs(t, err, ErrCommandParse, command)
	}
}

func TestCommandArgsSelectsMode(t *testing.T) {
	task := &config.Task{Shell: true, ShellPath: "/bin/sh"}
	args, err := CommandArgs(task, "true")
	require.NoError(t, err)
	assert.Equal(t, []string{"/bin/sh", "-c", "true"}, args)

	task.Container = config.Container{Image: "alpine", Tool: "docker"}
	args, err = CommandArgs(task, "true")
	require.NoError(t, err)
	assert.Equal(t, []string{"docker", "run", "alpine", "true"}, args)
}

package engine

import (
	"fmt"
	"sort"

	"github.com/kballard/go-shellquote"
	"github.com/mattn/go-shellwords"

	"github.com/taskrun/tr/internal/config"
)

// CommandArgs builds the argument vector for one command of task.
func CommandArgs(task *config.Task, command string) ([]string, error) {
	if task.Container.Image != "" {
		return ContainerArgs(task.Container, command)
	}
	return DirectArgs(task, command)
}

// DirectArgs builds the argument vector for running command on the host. Shell tasks hand
// the command verbatim to the shell; others are split with POSIX shell word rules.
func DirectArgs(task *config.Task, command string) ([]string, error) {
	if task.Shell {
		return []string{task.ShellPath, "-c", command}, nil
	}
	return splitWords(command)
}

// ContainerArgs builds the container tool invocation for command. An empty command
// runs the image's default entrypoint.
//
//	[sudo] <tool> <exec|run> [-w cwd] [-i] [-t] [--rm] [-v vol]... [-e k=v]... <flags> <image> [<shell> -c] [<command>]
func ContainerArgs(c config.Container, command string) ([]string, error) {
	var args []string
	if c.Sudo {
		args = append(args, "sudo")
	}
	args = append(args, c.Tool)
	if c.Exec {
		args = append(args, "exec")
	} else {
		args = append(args, "run")
	}
	if c.Cwd != "" {
		args = append(args, "-w", c.Cwd)
	}
	if c.Interactive {
		args = append(args, "-i")
	}
	if c.TTY {
		args = append(args, "-t")
	}
	// run-only options; exec targets an existing container
	if !c.Exec {
		if c.Remove {
			args = append(args, "--rm")
		}
		for _, v := range c.Volumes {
			args = append(args, "-v", v)
		}
	}

	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+c.Env[k])
	}

	if c.Flags != "" {
		flags, err := shellquote.Split(c.Flags)
		if err != nil {
			return nil, fmt.Errorf("%w: container flags '%s' - %v", ErrCommandParse, c.Flags, err)
		}
		args = append(args, flags...)
	}

	args = append(args, c.Image)
	if command == "" {
		return args, nil
	}
	if c.Shell {
		args = append(args, c.ShellPath, "-c")
	}
	return append(args, command), nil
}

// splitWords splits command with POSIX shell word rules. Unquoted shell operators are
// rejected since only a shell can interpret them.
func splitWords(command string) ([]string, error) {
	p := shellwords.NewParser()
	if _, err := p.Parse(command); err != nil {
		return nil, fmt.Errorf("%w '%s' - %v", ErrCommandParse, command, err)
	}
	// the operator scan stops at the first unquoted ;, &, |, < or >
	if p.Position >= 0 {
		return nil, fmt.Errorf("%w '%s' - shell operator at offset %d requires shell mode", ErrCommandParse, command, p.Position)
	}

	words, err := shellquote.Split(command)
	if err != nil {
		return nil, fmt.Errorf("%w '%s' - %v", ErrCommandParse, command, err)
	}
	if len(words) == 0 {
		return nil, fmt.Errorf("%w '%s' - empty command", ErrCommandParse, command)
	}
	return words, nil
}

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskrun/tr/internal/config"
	"github.com/taskrun/tr/internal/engine"
	"github.com/taskrun/tr/internal/env"
)

// newRunCommand creates the "run" subcommand that executes a task.
func newRunCommand(opts *Options) *cobra.Command {
	var summary bool

	cmd := &cobra.Command{
		Use:   "run [TASK] [-- ARGS...]",
		Short: "Run a task (the default task when none is given)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := LoggerFromContext(cmd.Context())

			requested, cliArgs, err := splitTaskArgs(cmd, args)
			if err != nil {
				return err
			}
			s, err := loadSession(cmd, opts, cliArgs)
			if err != nil {
				return err
			}
			task, err := s.resolveTask(requested)
			if err != nil {
				return err
			}

			overrides, err := runOverrides(cmd, s.cwd)
			if err != nil {
				return err
			}
			if !overrides.Empty() {
				logger.Debug("applying command line overrides", "task", task.Name)
				task = overrides.Apply(task)
				if err := config.ValidateResolved(task); err != nil {
					return err
				}
			}
			if task.Abstract {
				return fmt.Errorf("%w: task '%s'", engine.ErrAbstractTask, task.Name)
			}

			task, err = task.Expand(s.scope)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if summary {
				printTask(out, task, false)
				fmt.Fprintln(out, strings.Repeat("-", 70))
			}

			runner := engine.NewRunner(logger)
			runner.Stdin = cmd.InOrStdin()
			runner.Stdout = out
			runner.Stderr = cmd.ErrOrStderr()

			code, err := runner.Run(cmd.Context(), task)
			if err != nil {
				return err
			}
			opts.ExitCode = code
			return nil
		},
	}

	cmd.Flags().BoolVarP(&summary, "summary", "s", false, "Print a task summary before running")
	cmd.Flags().StringArrayP("command", "c", nil, "Replace the task commands (repeatable)")
	cmd.Flags().String("cwd", "", "Set the working directory")
	cmd.Flags().Bool("shell", false, "Run commands through the shell")
	cmd.Flags().String("shell-path", "", "Set the shell path")
	cmd.Flags().Bool("stop-on-error", true, "Stop at the first failing command")
	cmd.Flags().StringArray("env", nil, "Replace the task environment with NAME=VALUE entries (repeatable)")
	cmd.Flags().StringArray("env-file", nil, "Load environment entries from a .env file (repeatable)")

	cmd.Flags().String("c-image", "", "Run in a container of this image")
	cmd.Flags().String("c-tool", "", "Container tool to use")
	cmd.Flags().StringArray("c-volume", nil, "Replace the container volumes (repeatable)")
	cmd.Flags().Bool("c-interactive", false, "Keep the container stdin open")
	cmd.Flags().Bool("c-tty", false, "Allocate a container tty")
	cmd.Flags().String("c-flags", "", "Extra container run/exec flags")
	cmd.Flags().Bool("c-exec", false, "Execute in an already running container")
	cmd.Flags().Bool("c-rm", true, "Remove the container on exit")
	cmd.Flags().Bool("c-sudo", false, "Run the container tool with sudo")
	cmd.Flags().Bool("c-shell", false, "Wrap commands with the container shell")
	cmd.Flags().String("c-shell-path", "", "Container shell path")
	cmd.Flags().StringArray("c-env", nil, "Replace the container environment with NAME=VALUE entries (repeatable)")
	cmd.Flags().String("c-cwd", "", "Container working directory")
	cmd.MarkFlagsMutuallyExclusive("c-exec", "c-rm")

	return cmd
}

// runOverrides collects the explicitly set run flags. Relative --env-file paths are taken
// from cwd.
func runOverrides(cmd *cobra.Command, cwd string) (engine.Overrides, error) {
	flags := cmd.Flags()
	o := engine.Overrides{
		Cwd:         stringFlag(cmd, "cwd"),
		Shell:       boolFlag(cmd, "shell"),
		ShellPath:   stringFlag(cmd, "shell-path"),
		StopOnError: boolFlag(cmd, "stop-on-error"),
		Container: engine.ContainerOverrides{
			Image:       stringFlag(cmd, "c-image"),
			Tool:        stringFlag(cmd, "c-tool"),
			Interactive: boolFlag(cmd, "c-interactive"),
			TTY:         boolFlag(cmd, "c-tty"),
			Flags:       stringFlag(cmd, "c-flags"),
			Exec:        boolFlag(cmd, "c-exec"),
			Remove:      boolFlag(cmd, "c-rm"),
			Sudo:        boolFlag(cmd, "c-sudo"),
			Shell:       boolFlag(cmd, "c-shell"),
			ShellPath:   stringFlag(cmd, "c-shell-path"),
			Cwd:         stringFlag(cmd, "c-cwd"),
		},
	}

	if flags.Changed("command") {
		o.Commands, _ = flags.GetStringArray("command")
	}
	if flags.Changed("c-volume") {
		o.Container.Volumes, _ = flags.GetStringArray("c-volume")
	}

	if flags.Changed("env") || flags.Changed("env-file") {
		files, _ := flags.GetStringArray("env-file")
		fromFiles, err := env.LoadEnvFiles(cwd, files)
		if err != nil {
			return o, err
		}
		entries, _ := flags.GetStringArray("env")
		assigned, err := env.ParseAssignments(entries)
		if err != nil {
			return o, err
		}
		o.Env = env.Merge(fromFiles, assigned)
	}
	if flags.Changed("c-env") {
		entries, _ := flags.GetStringArray("c-env")
		assigned, err := env.ParseAssignments(entries)
		if err != nil {
			return o, err
		}
		o.Container.Env = assigned
	}
	return o, nil
}

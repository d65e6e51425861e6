// Package cli defines the command-line interface for tr.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskrun/tr/internal/logging"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ConfigPath string
	LogLevel   logging.Level
	// Vars are NAME=VALUE assignments added to the constant variable layer.
	Vars []string
	// ExitCode is the status of the last task run.
	ExitCode int
}

// Execute builds the root command, runs it with the provided args and logger, and returns
// the exit status of the task run (if any) or an error.
func Execute(args []string, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelWarn)
	}

	defaults := baseEnv{}
	if err := parseEnv(&defaults); err != nil {
		return 0, err
	}

	opts := &Options{
		ConfigPath: defaults.ConfigPath,
		LogLevel:   logging.LevelWarn,
	}

	rootCmd := newRootCommand(opts, logger, defaults)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		return 0, err
	}
	return opts.ExitCode, nil
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger, defaults baseEnv) *cobra.Command {
	logLevel := defaults.LogLevel
	if logLevel == "" {
		logLevel = "warn"
	}

	cmd := &cobra.Command{
		Use:           "tr",
		Short:         "tr is a declarative task runner",
		Long:          "tr runs named tasks defined in a tasks.yaml file, directly on the host or inside a container.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.ParseLevel(cmd.Flag("log-level").Value.String())
			opts.LogLevel = level
			logger = logging.NewLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "conf", "C", opts.ConfigPath, "Configuration file to use (default: search from the working directory upwards)")
	cmd.PersistentFlags().String("log-level", logLevel, "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringArrayVarP(&opts.Vars, "var", "V", nil, "Set a variable, NAME=VALUE (repeatable)")

	cmd.AddCommand(
		newRunCommand(opts),
		newListCommand(opts),
		newInfoCommand(opts),
		newDumpCommand(opts),
		newDumpConfigCommand(opts),
		newDumpSchemaCommand(),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelWarn)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelWarn)
}

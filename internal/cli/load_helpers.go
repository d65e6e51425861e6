package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/taskrun/tr/internal/config"
	"github.com/taskrun/tr/internal/env"
	"github.com/taskrun/tr/internal/vars"
)

// session is a loaded configuration with the variable scope its tasks expand against.
type session struct {
	file  *config.File
	scope vars.Scope
	cwd   string
}

// loadSession locates and loads the configuration, seeding the constant variable layer
// with cwd, taskRoot, cliArgs and any --var assignments.
func loadSession(cmd *cobra.Command, opts *Options, cliArgs []string) (*session, error) {
	logger := LoggerFromContext(cmd.Context())

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	home := homeDir()
	path := opts.ConfigPath
	if path == "" {
		if path, err = findConfigFile(cwd, home); err != nil {
			return nil, err
		}
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}

	userVars, err := env.ParseAssignments(opts.Vars)
	if err != nil {
		return nil, err
	}

	constants := vars.Map{
		vars.KeyCwd:      cwd,
		vars.KeyTaskRoot: filepath.Dir(path),
		vars.KeyCLIArgs:  strings.Join(cliArgs, " "),
	}
	for k, v := range userVars {
		constants[k] = v
	}

	logger.Debug("loading configuration", "path", path)
	file, err := config.NewLoader(logger, constants, userConfigFile(home)).Load(path)
	if err != nil {
		return nil, err
	}

	return &session{
		file:  file,
		scope: vars.NewScope(constants, vars.Map(file.Variables)),
		cwd:   cwd,
	}, nil
}

// splitTaskArgs separates the optional task name from the pass-through arguments given
// after "--".
func splitTaskArgs(cmd *cobra.Command, args []string) (string, []string, error) {
	head, tail := args, []string(nil)
	if at := cmd.ArgsLenAtDash(); at >= 0 {
		head, tail = args[:at], args[at:]
	}
	switch len(head) {
	case 0:
		return "", tail, nil
	case 1:
		return head[0], tail, nil
	default:
		return "", nil, fmt.Errorf("expected at most one task name, got %d (%s)", len(head), strings.Join(head, " "))
	}
}

// resolveTask resolves the requested task (or the default task) of s.
func (s *session) resolveTask(requested string) (*config.Task, error) {
	name, err := s.file.TaskName(requested)
	if err != nil {
		return nil, err
	}
	return s.file.Resolver().Resolve(name)
}

func boolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}

func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

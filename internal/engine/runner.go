package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/taskrun/tr/internal/config"
	"github.com/taskrun/tr/internal/env"
	"github.com/taskrun/tr/internal/logging"
)

// Runner executes resolved tasks one command at a time.
type Runner struct {
	Logger *slog.Logger
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Environ returns the host environment for tasks that inherit it.
	Environ func() env.Vars

	notify     func(c chan<- os.Signal, sig ...os.Signal)
	stopNotify func(c chan<- os.Signal)
}

// NewRunner constructs a Runner attached to the process standard streams.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{
		Logger:  logger,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Environ: env.FromOS,
	}
}

// Run executes every command of task in order and returns the aggregated exit code.
// The code is meaningless when err is non-nil.
func (r *Runner) Run(ctx context.Context, task *config.Task) (int, error) {
	if task.Abstract {
		return 0, fmt.Errorf("%w: task '%s'", ErrAbstractTask, task.Name)
	}
	logger := r.logger().With("task", task.Name)

	if task.Container.Image != "" && task.Container.TTY && !isTerminal(r.Stdin) {
		logger.Warn("container tty requested but stdin is not a terminal")
	}

	sigs := make(chan os.Signal, 1)
	r.signalNotify(sigs, os.Interrupt)
	defer r.signalStop(sigs)

	if len(task.Commands) == 0 {
		if task.Container.Image == "" {
			fmt.Fprintf(r.stdout(), "No commands defined for task '%s'. Nothing to do.\n", task.Name)
			return 0, nil
		}
		argv, err := ContainerArgs(task.Container, "")
		if err != nil {
			return 0, err
		}
		return r.execute(ctx, logger, task, argv, "<default entrypoint>", sigs)
	}

	result := 0
	for _, command := range task.Commands {
		argv, err := CommandArgs(task, command)
		if err != nil {
			return 0, fmt.Errorf("task '%s': %w", task.Name, err)
		}
		code, err := r.execute(ctx, logger, task, argv, command, sigs)
		if err != nil {
			return 0, err
		}
		if code == 0 {
			continue
		}
		logger.Debug("command failed", "command", command, "code", code)
		if result == 0 {
			result = code
		}
		if task.StopOnError {
			return result, nil
		}
	}
	return result, nil
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, task *config.Task, argv []string, display string, sigs <-chan os.Signal) (int, error) {
	logger.Info("running command", "command", display)
	logger.Debug("argument vector", "argv", argv)

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = task.Cwd
	cmd.Env = r.environment(task).List()
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.stdout()
	cmd.Stderr = r.Stderr
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("%w '%s' of task '%s': %w", ErrCommandLaunch, display, task.Name, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case err := <-done:
		return exitCode(err)
	case <-sigs:
	case <-ctx.Done():
	}

	logger.Warn("interrupted, waiting for child to exit", "pid", cmd.Process.Pid)
	if err := cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		logger.Debug("signal child", "error", err)
	}
	<-done
	return 0, fmt.Errorf("%w while running task '%s'", ErrUserInterrupted, task.Name)
}

func (r *Runner) environment(task *config.Task) env.Vars {
	base := env.Vars{}
	if task.InheritOSEnv {
		environ := r.Environ
		if environ == nil {
			environ = env.FromOS
		}
		base = environ()
	}
	return env.Merge(base, task.Env)
}

// exitCode maps a Wait result to a process exit code. Children killed by a signal
// report 128+signal like a POSIX shell.
func exitCode(err error) (int, error) {
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return 0, fmt.Errorf("wait for command: %w", err)
	}
	if code := exitErr.ExitCode(); code >= 0 {
		return code, nil
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal()), nil
	}
	return 0, fmt.Errorf("wait for command: %w", err)
}

func (r *Runner) signalNotify(c chan<- os.Signal, sig ...os.Signal) {
	if r.notify != nil {
		r.notify(c, sig...)
		return
	}
	signal.Notify(c, sig...)
}

func (r *Runner) signalStop(c chan<- os.Signal) {
	if r.stopNotify != nil {
		r.stopNotify(c)
		return
	}
	signal.Stop(c)
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

func (r *Runner) stdout() io.Writer {
	if r.Stdout == nil {
		return io.Discard
	}
	return r.Stdout
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

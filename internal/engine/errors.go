package engine

import "errors"

var (
	// ErrAbstractTask is returned when an abstract task is run.
	ErrAbstractTask = errors.New("abstract tasks can't be run")
	// ErrCommandParse is returned when a command can't be split into arguments.
	ErrCommandParse = errors.New("illegal command")
	// ErrCommandLaunch is returned when a command process fails to start.
	ErrCommandLaunch = errors.New("error occurred running command")
	// ErrUserInterrupted is returned after an interrupted child process has exited.
	ErrUserInterrupted = errors.New("user interrupt")
)

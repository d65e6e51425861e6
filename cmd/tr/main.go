package main

import (
	"os"

	"github.com/taskrun/tr/internal/cli"
	"github.com/taskrun/tr/internal/logging"
)

// exitInternalError is reported for every failure that is not a task's own exit status.
const exitInternalError = 255

// main is the entry point for the tr CLI binary.
func main() {
	logger := logging.NewLogger(os.Stderr, logging.LevelWarn)
	code, err := cli.Execute(os.Args[1:], logger)
	if err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(exitInternalError)
	}
	os.Exit(code)
}

package cli

import (
	envparse "github.com/caarlos0/env/v11"
)

// baseEnv defines root CLI defaults sourced from TR_* env vars.
type baseEnv struct {
	// ConfigPath is the configuration file path from TR_CONFIG.
	ConfigPath string `env:"TR_CONFIG"`
	// LogLevel is the logging level from TR_LOG_LEVEL.
	LogLevel string `env:"TR_LOG_LEVEL"`
}

func parseEnv(target interface{}) error {
	return envparse.Parse(target)
}

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taskrun/tr/internal/config"
)

// configFileNames are checked in order in every directory searched.
var configFileNames = []string{".tasks.yaml", "tasks.yaml", ".tasks.json", "tasks.json"}

// findConfigFile walks from start up to the filesystem root looking for a configuration
// file, then falls back to the user's ~/.config directory.
func findConfigFile(start, home string) (string, error) {
	dir := filepath.Clean(start)
	for {
		if path, ok := firstConfigIn(dir); ok {
			return path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	if path := userConfigFile(home); path != "" {
		return path, nil
	}
	return "", fmt.Errorf("%w: none of %s found from '%s' upwards", config.ErrConfigNotFound, strings.Join(configFileNames, ", "), start)
}

// userConfigFile returns the configuration file in ~/.config, or "" if there is none.
// It doubles as the default include of every other configuration file.
func userConfigFile(home string) string {
	if home == "" {
		return ""
	}
	path, _ := firstConfigIn(filepath.Join(home, ".config"))
	return path
}

func firstConfigIn(dir string) (string, bool) {
	for _, name := range configFileNames {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}

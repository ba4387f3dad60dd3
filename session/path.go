package session

import (
	"os"
	"path/filepath"
)

// userStateDir returns $XDG_STATE_HOME or the platform config dir.
func userStateDir() (string, error) {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return dir, nil
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "state"), nil
	}
	return os.UserConfigDir()
}

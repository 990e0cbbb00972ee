package config

import (
	"os"
	"path/filepath"
)

// EnvHome overrides the default grove home directory
const EnvHome = "GROVE_HOME"

// GetGroveHome returns GROVE_HOME or the ~/.grove default
func GetGroveHome() string {
	groveHome := os.Getenv(EnvHome)
	if groveHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".grove"
		}
		return filepath.Join(homeDir, ".grove")
	}
	return ExpandPath(groveHome)
}

// GetDBPath returns $GROVE_HOME/state.db
func GetDBPath() string {
	return filepath.Join(GetGroveHome(), "state.db")
}

// GetSettingsPath returns $GROVE_HOME/settings.json
func GetSettingsPath() string {
	return filepath.Join(GetGroveHome(), "settings.json")
}

// GetSSHDir returns $GROVE_HOME/ssh, where the gateway host key lives
func GetSSHDir() string {
	return filepath.Join(GetGroveHome(), "ssh")
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			if len(path) == 1 {
				return homeDir
			}
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}

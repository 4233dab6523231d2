package config

import (
	"os"
	"path/filepath"
)

const (
	APP_DIR_NAME = "soleklart"
)

// DataDir is where the database lives: $XDG_DATA_HOME/soleklart, else
// ~/.local/share/soleklart, else ~/.soleklart.
func DataDir() string {
	return appDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

// ConfigDir is where settings.json lives: $XDG_CONFIG_HOME/soleklart, else
// ~/.config/soleklart, else ~/.soleklart.
func ConfigDir() string {
	return appDir("XDG_CONFIG_HOME", ".config")
}

func appDir(xdgVar, homeRelative string) string {
	if base := os.Getenv(xdgVar); base != "" {
		return filepath.Join(base, APP_DIR_NAME)
	}

	homeDir, err := os.UserHomeDir()
	// In case the home directory cannot be determined use the current working directory
	if err != nil {
		if currentDir, err := os.Getwd(); err == nil {
			return filepath.Join(currentDir, "."+APP_DIR_NAME)
		}
		return "."
	}

	base := filepath.Join(homeDir, homeRelative)
	if _, err := os.Stat(base); err == nil {
		return filepath.Join(base, APP_DIR_NAME)
	}

	return filepath.Join(homeDir, "."+APP_DIR_NAME)
}

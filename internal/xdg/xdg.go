// Package xdg resolves XDG Base Directory paths for the uniq CLI.
//
// Directories are created on first use with private permissions. When
// XDG_CONFIG_HOME is unset the usual ~/.config fallback applies.
package xdg

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under every XDG base directory.
const AppName = "uniq"

// ConfigDir returns $XDG_CONFIG_HOME/uniq (or ~/.config/uniq), creating it 0700.
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", ".config")
}

func resolve(envVar, homeRel string) (string, error) {
	base := os.Getenv(envVar)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, homeRel)
	}
	dir := filepath.Join(base, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil { // private dir
		return "", err
	}
	return dir, nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ProjectConfigDir is the per-project directory holding config.yaml and the history database.
const ProjectConfigDir = ".shockcast"

// ProjectConfigPath returns the project config file path relative to the working directory.
func ProjectConfigPath() string {
	return filepath.Join(ProjectConfigDir, "config.yaml")
}

// UserConfigDir returns ~/.config/shockcast.
func UserConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "shockcast"), nil
}

// WriteDefaultConfig writes DefaultConfigYAML to path. An existing file is
// left untouched unless force is set; the returned bool reports whether a
// file was written.
func WriteDefaultConfig(path string, force bool) (bool, error) {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return false, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return false, fmt.Errorf("checking config: %w", err)
		}
	}

	if err := AtomicWrite(path, []byte(DefaultConfigYAML)); err != nil {
		return false, fmt.Errorf("writing config: %w", err)
	}
	return true, nil
}

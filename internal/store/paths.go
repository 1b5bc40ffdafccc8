package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DataDirName is the per-user data directory name.
const DataDirName = ".pheromones"

// GlobalDataPath returns the path to the per-user data directory.
// On Unix: ~/.pheromones
// On Windows: %USERPROFILE%\.pheromones
func GlobalDataPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, DataDirName), nil
}

// ResolveDataDir returns dir if set, otherwise the global data path.
func ResolveDataDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	return GlobalDataPath()
}

// EnsureDataDir creates dir if it doesn't exist.
func EnsureDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory %s: %w", dir, err)
	}
	return nil
}

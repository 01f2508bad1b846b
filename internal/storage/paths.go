// Package storage provides persistent storage for weights, recorded training
// examples, user preferences and game statistics.
package storage

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/pkg/errors"
)

const appName = "shallowblue"

// HomeEnv overrides the data directory when set.
const HomeEnv = "SHALLOWBLUE_HOME"

// GetDataDir returns the data directory, creating it if needed.
//   - $SHALLOWBLUE_HOME when set
//   - macOS: ~/Library/Application Support/shallowblue/
//   - Linux: $XDG_DATA_HOME/shallowblue/ or ~/.local/share/shallowblue/
//   - Windows: %APPDATA%/shallowblue/
func GetDataDir() (string, error) {
	if dir := os.Getenv(HomeEnv); dir != "" {
		return ensureDir(dir)
	}
	base, err := platformDataHome()
	if err != nil {
		return "", errors.Wrap(err, "locating data directory")
	}
	return ensureDir(filepath.Join(base, appName))
}

// platformDataHome returns the per-user application data root.
func platformDataHome() (string, error) {
	var env string
	var fallback []string
	switch runtime.GOOS {
	case "darwin":
		fallback = []string{"Library", "Application Support"}
	case "windows":
		env, fallback = "APPDATA", []string{"AppData", "Roaming"}
	default:
		env, fallback = "XDG_DATA_HOME", []string{".local", "share"}
	}
	if env != "" {
		if dir := os.Getenv(env); dir != "" {
			return dir, nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// GetWeightsDir returns the directory holding the weight text files.
func GetWeightsDir() (string, error) {
	return subDir("weights")
}

// GetDatabaseDir returns the directory holding the badger database.
func GetDatabaseDir() (string, error) {
	return subDir("db")
}

func subDir(name string) (string, error) {
	dataDir, err := GetDataDir()
	if err != nil {
		return "", err
	}
	return ensureDir(filepath.Join(dataDir, name))
}

func ensureDir(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating %s", dir)
	}
	return dir, nil
}

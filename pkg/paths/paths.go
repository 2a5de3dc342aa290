package paths

import (
	"os"
	"path/filepath"
)

// GetConfigDir returns the user's config directory for power-analytics.
//
// If the home directory cannot be determined, it falls back to a directory
// under the system temporary directory.
func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".power-analytics-config"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".config", "power-analytics"))
}

// GetDataDir returns the user's data directory (cache databases, logs).
//
// If the home directory cannot be determined, it falls back to a directory
// under the system temporary directory.
func GetDataDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Clean(filepath.Join(os.TempDir(), ".power-analytics"))
	}
	return filepath.Clean(filepath.Join(homeDir, ".power-analytics"))
}

// GetCacheDir returns the directory holding the shared key-value cache.
func GetCacheDir() string {
	return filepath.Join(GetDataDir(), "cache")
}

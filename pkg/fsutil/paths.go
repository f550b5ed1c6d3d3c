package fsutil

import (
	"os"
	"path/filepath"
)

const (
	// AppName is the name of the application used in paths
	AppName = "sigsync"
)

// GetCacheDir returns the platform-specific cache directory for the application
// On Linux: ~/.cache/sigsync/
// On macOS: ~/Library/Caches/sigsync/
// On Windows: %LOCALAPPDATA%\sigsync\cache\
func GetCacheDir() (string, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, AppName), nil
}

// GetSignatureCacheDir returns the directory for storing downloaded signatures
// Format: <cache_dir>/sigs/
func GetSignatureCacheDir() (string, error) {
	cacheDir, err := GetCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "sigs"), nil
}

package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "tubebridge"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// ConfigDir returns where config.{yaml,json,toml} is looked up.
// - Linux: $XDG_CONFIG_HOME/tubebridge or ~/.config/tubebridge
// - macOS: ~/Library/Application Support/tubebridge
// - others: os.UserConfigDir()/tubebridge
func ConfigDir() (string, error) {
	return resolve("XDG_CONFIG_HOME", []string{".config"}, []string{"Library", "Application Support"}, os.UserConfigDir)
}

// CacheDir returns the app's cache directory.
// - Linux: $XDG_CACHE_HOME/tubebridge or ~/.cache/tubebridge
// - macOS: ~/Library/Caches/tubebridge
// - others: os.UserCacheDir()/tubebridge
func CacheDir() (string, error) {
	return resolve("XDG_CACHE_HOME", []string{".cache"}, []string{"Library", "Caches"}, os.UserCacheDir)
}

func resolve(xdgVar string, linuxHome, darwinHome []string, fallback func() (string, error)) (string, error) {
	switch runtime.GOOS {
	case "linux":
		if xdg := os.Getenv(xdgVar); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append(append([]string{home}, linuxHome...), appName)...), nil
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(append(append([]string{home}, darwinHome...), appName)...), nil
	default:
		base, err := fallback()
		if err != nil {
			return "", err
		}
		return filepath.Join(base, appName), nil
	}
}

// TempBaseDir is the default download directory. Its contents are wiped on
// bot start and shutdown.
func TempBaseDir() (string, error) {
	c, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(c, "temp"), nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}

// EnsureAll ensures the config and cache dirs exist.
func EnsureAll() error {
	for _, fn := range []func() (string, error){ConfigDir, CacheDir} {
		p, err := fn()
		if err != nil {
			continue
		}
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}

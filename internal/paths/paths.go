// Package paths provides directory paths for composer.
//
// Directory Priority Order (first found wins for lookups):
//  1. ./.config/composer (local project config)
//  2. ~/.config/composer (user config)
//
// For writes, composer uses ~/.config/composer (or ./.config/composer with
// --local). Logs go to the data directory.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const appName = "composer"

var (
	// localMode is set by SetLocalMode to force local directory paths
	localMode     bool
	localModeOnce sync.Once
)

// SetLocalMode enables local mode, which uses ./.config/composer and
// ./.local/share/composer instead of the user directories. Must be called
// before any directory functions are used.
func SetLocalMode() {
	localModeOnce.Do(func() {
		localMode = true
	})
}

// IsLocalMode returns true if local mode is enabled via SetLocalMode.
func IsLocalMode() bool {
	return localMode
}

// windowsBase returns %LOCALAPPDATA%, falling back to the home directory.
func windowsBase() string {
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		home, _ := os.UserHomeDir()
		localAppData = filepath.Join(home, "AppData", "Local")
	}
	return localAppData
}

// ConfigDir returns the config directory.
//
// Local mode: ./.config/composer (current directory)
// Unix (macOS, Linux): ~/.config/composer
// Windows: %LOCALAPPDATA%\composer
func ConfigDir() string {
	if localMode {
		return LocalConfigDir()
	}
	return UserConfigDir()
}

// DataDir returns the data directory, which holds the log file.
//
// Local mode: ./.local/share/composer (current directory)
// Unix (macOS, Linux): ~/.local/share/composer (XDG compliant)
// Windows: %LOCALAPPDATA%\composer
func DataDir() string {
	if localMode {
		wd, _ := os.Getwd()
		return filepath.Join(wd, ".local", "share", appName)
	}
	if runtime.GOOS == "windows" {
		return filepath.Join(windowsBase(), appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// ConfigFile returns the path to the config file to write.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// LogFile returns the default log file path.
func LogFile() string {
	return filepath.Join(DataDir(), "composer.log")
}

// LocalConfigDir returns the local project config directory
// (./.config/composer), or empty when the working directory is unknown.
func LocalConfigDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(wd, ".config", appName)
}

// UserConfigDir returns the global user config directory (~/.config/composer).
// On Windows, returns %LOCALAPPDATA%\composer.
func UserConfigDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(windowsBase(), appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// FindConfigFile returns the first existing config file in lookup priority
// order, or ConfigFile when none exists.
func FindConfigFile() string {
	for _, dir := range []string{LocalConfigDir(), UserConfigDir()} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, "config.yaml")
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ConfigFile()
}

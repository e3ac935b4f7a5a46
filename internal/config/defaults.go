// Package config handles configuration loading and validation for kderelay.
package config

import (
	"os"
	"path/filepath"
	"runtime"
)

const appName = "kderelay"

// PlatformDataDir returns the platform-specific data directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/kderelay/
//   - Linux:   ~/.local/share/kderelay/
//   - Windows: %APPDATA%\kderelay\
//
// KDERELAY_DATA_DIR overrides it.
func PlatformDataDir() string {
	if envDir := os.Getenv("KDERELAY_DATA_DIR"); envDir != "" {
		return envDir
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", appName)
	case "windows":
		return windowsDir("APPDATA", "Roaming")
	default:
		// XDG_DATA_HOME or ~/.local/share
		if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
			return filepath.Join(xdgData, appName)
		}
		return filepath.Join(homeDir(), ".local", "share", appName)
	}
}

// PlatformConfigDir returns the platform-specific config directory.
//
// Platform paths:
//   - macOS:   ~/Library/Application Support/kderelay/
//   - Linux:   ~/.config/kderelay/
//   - Windows: %APPDATA%\kderelay\
func PlatformConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Application Support", appName)
	case "windows":
		return windowsDir("APPDATA", "Roaming")
	default:
		// XDG_CONFIG_HOME or ~/.config
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, appName)
		}
		return filepath.Join(homeDir(), ".config", appName)
	}
}

// PlatformLogDir returns the platform-specific log directory.
//
// Platform paths:
//   - macOS:   ~/Library/Logs/kderelay/
//   - Linux:   $XDG_STATE_HOME/kderelay/ or ~/.local/state/kderelay/
//   - Windows: %LOCALAPPDATA%\kderelay\logs\
func PlatformLogDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Logs", appName)
	case "windows":
		return filepath.Join(windowsDir("LOCALAPPDATA", "Local"), "logs")
	default:
		if stateHome := os.Getenv("XDG_STATE_HOME"); stateHome != "" {
			return filepath.Join(stateHome, appName)
		}
		return filepath.Join(homeDir(), ".local", "state", appName)
	}
}

func homeDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return home
}

func windowsDir(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName)
	}
	return filepath.Join(homeDir(), "AppData", fallback, appName)
}

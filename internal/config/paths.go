package config

import (
	"os"
	"path/filepath"
	"runtime"
)

// Platform identifiers.
const (
	platformLinux  = "linux"
	platformDarwin = "darwin"
)

// Application directory name used across all platforms.
const appName = "putiodown"

// File names inside the config and data directories.
const (
	configFileName = "config.toml"
	tokenFileName  = "token.json"
	ledgerFileName = "ledger.db"
)

// DefaultConfigDir returns the platform-specific directory for config files.
// On Linux, respects XDG_CONFIG_HOME (defaults to ~/.config/putiodown).
// On macOS, uses ~/Library/Application Support/putiodown.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return xdgDir("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".config", appName)
	}
}

// DefaultDataDir returns the platform-specific directory for the token
// file and the download ledger.
// On Linux, respects XDG_DATA_HOME (defaults to ~/.local/share/putiodown).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	switch runtime.GOOS {
	case platformLinux:
		return xdgDir("XDG_DATA_HOME", filepath.Join(home, ".local", "share"))
	case platformDarwin:
		return filepath.Join(home, "Library", "Application Support", appName)
	default:
		return filepath.Join(home, ".local", "share", appName)
	}
}

func xdgDir(envVar, fallback string) string {
	if xdg := os.Getenv(envVar); xdg != "" {
		return filepath.Join(xdg, appName)
	}

	return filepath.Join(fallback, appName)
}

// DefaultConfigPath returns the full path to the default config file.
func DefaultConfigPath() string {
	return inDir(DefaultConfigDir(), configFileName)
}

// DefaultTokenPath returns the path of the saved put.io token.
func DefaultTokenPath() string {
	return inDir(DefaultDataDir(), tokenFileName)
}

// DefaultLedgerPath returns the path of the download ledger database.
func DefaultLedgerPath() string {
	return inDir(DefaultDataDir(), ledgerFileName)
}

func inDir(dir, name string) string {
	if dir == "" {
		return ""
	}

	return filepath.Join(dir, name)
}

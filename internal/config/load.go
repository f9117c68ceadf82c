package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads and parses a TOML config file, validates it, and returns the
// resulting Config. Unknown keys are fatal errors with "did you mean?"
// suggestions.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := checkUnknownKeys(&md); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadOrDefault reads a TOML config file if it exists, otherwise returns
// a Config populated with all default values.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}

	return Load(path)
}

// Resolve loads configuration and applies the four-layer override chain:
// defaults -> config file -> environment variables -> CLI flags.
func Resolve(env EnvOverrides, cli CLIOverrides, logger *slog.Logger) (*Resolved, error) {
	if logger == nil {
		logger = slog.Default()
	}

	// 1. Resolve config path: CLI > env > default
	cfgPath := DefaultConfigPath()
	if env.ConfigPath != "" {
		cfgPath = env.ConfigPath
	}

	if cli.ConfigPath != "" {
		cfgPath = cli.ConfigPath
	}

	// 2. Load config file (returns defaults if no file exists)
	cfg, err := LoadOrDefault(cfgPath)
	if err != nil {
		return nil, err
	}

	logger.Debug("config loaded", slog.String("path", cfgPath))

	resolved := &Resolved{Config: *cfg, ConfigPath: cfgPath, Token: env.Token}

	// 3. Apply env overrides
	if env.DownloadDir != "" {
		resolved.DownloadDir = env.DownloadDir
	}

	// 4. Apply CLI overrides (pointer fields: nil = not specified)
	if cli.DownloadDir != nil {
		resolved.DownloadDir = *cli.DownloadDir
	}

	if cli.ParallelDownloads != nil {
		resolved.ParallelDownloads = *cli.ParallelDownloads
	}

	resolved.DownloadDir = expandTilde(resolved.DownloadDir)
	resolved.LogFile = expandTilde(resolved.LogFile)
	resolved.MetricsFile = expandTilde(resolved.MetricsFile)

	// 5. Validate the final resolved values
	if err := ValidateResolved(resolved); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return resolved, nil
}

// expandTilde replaces a leading "~/" with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[2:])
}

// Package config implements TOML configuration loading, validation, and
// platform-specific path resolution for putiodown. It supports a four-layer
// override chain (defaults -> config file -> environment -> CLI flags). All
// keys are flat top-level keys; the sub-structs only group them in Go.
package config

import (
	"time"

	"github.com/tonimelisma/putiodown/internal/walk"
)

// Config is the top-level configuration structure parsed from a TOML file.
type Config struct {
	DownloadConfig
	ListingConfig
	LoggingConfig
	NetworkConfig
	MetricsConfig
}

// DownloadConfig controls where and how files are written locally.
type DownloadConfig struct {
	DownloadDir       string `toml:"download_dir"`
	ParallelDownloads int    `toml:"parallel_downloads"`
	SkipExisting      bool   `toml:"skip_existing"`
	VerifyCRC32       bool   `toml:"verify_crc32"`
	NormalizeNames    bool   `toml:"normalize_names"`
}

// ListingConfig controls how the remote tree is enumerated.
type ListingConfig struct {
	DuplicateFolders string `toml:"duplicate_folders"`
	PerPage          int    `toml:"per_page"`
}

// LoggingConfig controls log output behavior: level, format, and rotation.
type LoggingConfig struct {
	LogLevel         string `toml:"log_level"`
	LogFile          string `toml:"log_file"`
	LogFormat        string `toml:"log_format"`
	LogRetentionDays int    `toml:"log_retention_days"`
	LogMaxSize       string `toml:"log_max_size"`
}

// NetworkConfig controls HTTP client behavior.
type NetworkConfig struct {
	ConnectTimeout string `toml:"connect_timeout"`
	DataTimeout    string `toml:"data_timeout"`
	UserAgent      string `toml:"user_agent"`
	APIURL         string `toml:"api_url"`
}

// MetricsConfig controls the optional Prometheus textfile export.
type MetricsConfig struct {
	MetricsFile string `toml:"metrics_file"`
}

// CLIOverrides holds values from CLI flags that override config file and
// environment settings. Pointer fields distinguish "not specified" (nil)
// from "explicitly set to zero value".
type CLIOverrides struct {
	ConfigPath        string  // --config flag (empty = use default)
	DownloadDir       *string // --dest flag
	ParallelDownloads *int    // --parallel flag
}

// Resolved is the effective configuration after all override layers.
type Resolved struct {
	Config

	// ConfigPath is the file that was consulted, whether or not it exists.
	ConfigPath string

	// Token is an access token supplied through the environment. When set
	// it takes precedence over the saved token file.
	Token string
}

// DuplicatePolicy returns the parsed duplicate_folders value. Validation
// guarantees it parses.
func (c ListingConfig) DuplicatePolicy() walk.DuplicatePolicy {
	p, err := walk.ParseDuplicatePolicy(c.DuplicateFolders)
	if err != nil {
		return walk.DuplicateError
	}

	return p
}

// Timeouts returns the parsed connect and data timeouts, falling back to the
// defaults for values that do not parse.
func (n NetworkConfig) Timeouts() (connect, data time.Duration) {
	connect = parseDurationOr(n.ConnectTimeout, defaultConnectTimeout)
	data = parseDurationOr(n.DataTimeout, defaultDataTimeout)

	return connect, data
}

// MaxSizeMB returns log_max_size in whole megabytes, at least 1.
func (l LoggingConfig) MaxSizeMB() int {
	n, err := parseSize(l.LogMaxSize)
	if err != nil || n < megabyte {
		return 1
	}

	return int(n / megabyte)
}

func parseDurationOr(s, fallback string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}

	d, _ := time.ParseDuration(fallback)

	return d
}

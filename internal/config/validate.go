package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/tonimelisma/putiodown/internal/walk"
)

// Validation range constants.
const (
	minParallelDownloads = 1
	maxParallelDownloads = 32
	minPerPage           = 1
	maxPerPage           = 1000
	minLogRetention      = 1
	minLogMaxSize        = megabyte
	minConnectTimeout    = 1 * time.Second
	minDataTimeout       = 5 * time.Second
)

// Validate checks all configuration values and returns all errors found.
// It accumulates every error rather than stopping at the first, so users
// see a complete report and can fix all issues in one pass.
func Validate(cfg *Config) error {
	var errs []error

	errs = append(errs, validateDownload(&cfg.DownloadConfig)...)
	errs = append(errs, validateListing(&cfg.ListingConfig)...)
	errs = append(errs, validateLogging(&cfg.LoggingConfig)...)
	errs = append(errs, validateNetwork(&cfg.NetworkConfig)...)

	return errors.Join(errs...)
}

// ValidateResolved checks the final values after env and CLI overrides.
// Overrides bypass Validate, so ranges are checked again here along with
// constraints that only make sense after tilde expansion.
func ValidateResolved(r *Resolved) error {
	var errs []error

	errs = append(errs, validateDownload(&r.DownloadConfig)...)

	if r.DownloadDir != "" && !filepath.IsAbs(r.DownloadDir) {
		errs = append(errs, fmt.Errorf("download_dir: must be absolute after expansion, got %q", r.DownloadDir))
	}

	return errors.Join(errs...)
}

func validateDownload(d *DownloadConfig) []error {
	var errs []error

	if d.DownloadDir == "" {
		errs = append(errs, errors.New("download_dir: must not be empty"))
	}

	if d.ParallelDownloads < minParallelDownloads || d.ParallelDownloads > maxParallelDownloads {
		errs = append(errs, fmt.Errorf("parallel_downloads: must be between %d and %d, got %d",
			minParallelDownloads, maxParallelDownloads, d.ParallelDownloads))
	}

	return errs
}

func validateListing(l *ListingConfig) []error {
	var errs []error

	if _, err := walk.ParseDuplicatePolicy(l.DuplicateFolders); err != nil {
		errs = append(errs, fmt.Errorf("duplicate_folders: must be one of error, keep_first; got %q",
			l.DuplicateFolders))
	}

	if l.PerPage < minPerPage || l.PerPage > maxPerPage {
		errs = append(errs, fmt.Errorf("per_page: must be between %d and %d, got %d",
			minPerPage, maxPerPage, l.PerPage))
	}

	return errs
}

func validateLogging(l *LoggingConfig) []error {
	var errs []error

	errs = append(errs, validateLogLevel(l.LogLevel)...)
	errs = append(errs, validateLogFormat(l.LogFormat)...)

	if l.LogRetentionDays < minLogRetention {
		errs = append(errs, fmt.Errorf("log_retention_days: must be >= %d, got %d",
			minLogRetention, l.LogRetentionDays))
	}

	size, err := parseSize(l.LogMaxSize)

	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("log_max_size: %w", err))
	case size < minLogMaxSize:
		errs = append(errs, fmt.Errorf("log_max_size: must be at least 1MB, got %q", l.LogMaxSize))
	}

	return errs
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

func validateLogLevel(level string) []error {
	if !validLogLevels[level] {
		return []error{fmt.Errorf("log_level: must be one of debug, info, warn, error; got %q", level)}
	}

	return nil
}

var validLogFormats = map[string]bool{
	"auto": true,
	"text": true,
	"json": true,
}

func validateLogFormat(format string) []error {
	if !validLogFormats[format] {
		return []error{fmt.Errorf("log_format: must be one of auto, text, json; got %q", format)}
	}

	return nil
}

func validateNetwork(n *NetworkConfig) []error {
	var errs []error

	errs = append(errs, validateDurationMin("connect_timeout", n.ConnectTimeout, minConnectTimeout)...)
	errs = append(errs, validateDurationMin("data_timeout", n.DataTimeout, minDataTimeout)...)
	errs = append(errs, validateAPIURL(n.APIURL)...)

	return errs
}

func validateAPIURL(s string) []error {
	u, err := url.Parse(s)
	if err != nil {
		return []error{fmt.Errorf("api_url: %w", err)}
	}

	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return []error{fmt.Errorf("api_url: must be an absolute http(s) URL, got %q", s)}
	}

	return nil
}

func validateDurationMin(field, value string, minimum time.Duration) []error {
	d, err := time.ParseDuration(value)
	if err != nil {
		return []error{fmt.Errorf("%s: invalid duration %q: %w", field, value, err)}
	}

	if d < minimum {
		return []error{fmt.Errorf("%s: must be >= %s, got %s", field, minimum, d)}
	}

	return nil
}

package config

import (
	"fmt"
	"io"
)

// RenderEffective writes the resolved configuration as a human-readable
// annotated summary to w. This powers the "config show" command.
func RenderEffective(r *Resolved, w io.Writer) error {
	ew := &errWriter{w: w}

	ew.printf("# Effective configuration (%s)\n\n", r.ConfigPath)

	renderDownloadSection(ew, &r.DownloadConfig)
	renderListingSection(ew, &r.ListingConfig)
	renderLoggingSection(ew, &r.LoggingConfig)
	renderNetworkSection(ew, &r.NetworkConfig)
	renderMetricsSection(ew, &r.MetricsConfig)

	if r.Token != "" {
		ew.printf("\n# access token supplied by %s\n", EnvToken)
	}

	return ew.err
}

// errWriter wraps an io.Writer and captures the first write error.
// Subsequent writes after an error are no-ops.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}

	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func renderDownloadSection(ew *errWriter, d *DownloadConfig) {
	ew.printf("# download\n")
	ew.printf("download_dir       = %q\n", d.DownloadDir)
	ew.printf("parallel_downloads = %d\n", d.ParallelDownloads)
	ew.printf("skip_existing      = %t\n", d.SkipExisting)
	ew.printf("verify_crc32       = %t\n", d.VerifyCRC32)
	ew.printf("normalize_names    = %t\n", d.NormalizeNames)
	ew.printf("\n")
}

func renderListingSection(ew *errWriter, l *ListingConfig) {
	ew.printf("# listing\n")
	ew.printf("duplicate_folders = %q\n", l.DuplicateFolders)
	ew.printf("per_page          = %d\n", l.PerPage)
	ew.printf("\n")
}

func renderLoggingSection(ew *errWriter, l *LoggingConfig) {
	ew.printf("# logging\n")
	ew.printf("log_level          = %q\n", l.LogLevel)

	if l.LogFile != "" {
		ew.printf("log_file           = %q\n", l.LogFile)
	}

	ew.printf("log_format         = %q\n", l.LogFormat)
	ew.printf("log_retention_days = %d\n", l.LogRetentionDays)
	ew.printf("log_max_size       = %q\n", l.LogMaxSize)
	ew.printf("\n")
}

func renderNetworkSection(ew *errWriter, n *NetworkConfig) {
	ew.printf("# network\n")
	ew.printf("connect_timeout = %q\n", n.ConnectTimeout)
	ew.printf("data_timeout    = %q\n", n.DataTimeout)
	ew.printf("api_url         = %q\n", n.APIURL)

	if n.UserAgent != "" {
		ew.printf("user_agent      = %q\n", n.UserAgent)
	}

	ew.printf("\n")
}

func renderMetricsSection(ew *errWriter, m *MetricsConfig) {
	ew.printf("# metrics\n")

	if m.MetricsFile == "" {
		ew.printf("# metrics_file not set\n")
		return
	}

	ew.printf("metrics_file = %q\n", m.MetricsFile)
}

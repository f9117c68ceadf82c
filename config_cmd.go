package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/tonimelisma/putiodown/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
	}

	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration after all overrides",
		RunE:  runConfigShow,
	}
}

// configJSON is the JSON schema for `config show --json`. The token itself
// is never printed.
type configJSON struct {
	ConfigPath        string `json:"config_path"`
	TokenFromEnv      bool   `json:"token_from_env"`
	DownloadDir       string `json:"download_dir"`
	ParallelDownloads int    `json:"parallel_downloads"`
	SkipExisting      bool   `json:"skip_existing"`
	VerifyCRC32       bool   `json:"verify_crc32"`
	NormalizeNames    bool   `json:"normalize_names"`
	DuplicateFolders  string `json:"duplicate_folders"`
	PerPage           int    `json:"per_page"`
	LogLevel          string `json:"log_level"`
	LogFile           string `json:"log_file,omitempty"`
	LogFormat         string `json:"log_format"`
	LogRetentionDays  int    `json:"log_retention_days"`
	LogMaxSize        string `json:"log_max_size"`
	ConnectTimeout    string `json:"connect_timeout"`
	DataTimeout       string `json:"data_timeout"`
	UserAgent         string `json:"user_agent,omitempty"`
	APIURL            string `json:"api_url"`
	MetricsFile       string `json:"metrics_file,omitempty"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	cc := mustCLIContext(cmd.Context())
	r := cc.Cfg
	out := cmd.OutOrStdout()

	if !cc.Flags.JSON {
		return config.RenderEffective(r, out)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")

	return enc.Encode(configJSON{
		ConfigPath:        r.ConfigPath,
		TokenFromEnv:      r.Token != "",
		DownloadDir:       r.DownloadDir,
		ParallelDownloads: r.ParallelDownloads,
		SkipExisting:      r.SkipExisting,
		VerifyCRC32:       r.VerifyCRC32,
		NormalizeNames:    r.NormalizeNames,
		DuplicateFolders:  r.DuplicateFolders,
		PerPage:           r.PerPage,
		LogLevel:          r.LogLevel,
		LogFile:           r.LogFile,
		LogFormat:         r.LogFormat,
		LogRetentionDays:  r.LogRetentionDays,
		LogMaxSize:        r.LogMaxSize,
		ConnectTimeout:    r.ConnectTimeout,
		DataTimeout:       r.DataTimeout,
		UserAgent:         r.UserAgent,
		APIURL:            r.APIURL,
		MetricsFile:       r.MetricsFile,
	})
}

package config

// Default values for configuration options. These represent the "layer 0"
// of the four-layer override chain and work without any config file.
const (
	defaultDownloadDir       = "~/Downloads/putio"
	defaultParallelDownloads = 4
	defaultDuplicateFolders  = "error"
	defaultPerPage           = 1000
	defaultLogLevel          = "info"
	defaultLogFormat         = "auto"
	defaultLogRetentionDays  = 30
	defaultLogMaxSize        = "50MB"
	defaultConnectTimeout    = "10s"
	defaultDataTimeout       = "60s"
	defaultAPIURL            = "https://api.put.io/v2"
)

// DefaultConfig returns a Config populated with all default values.
// This is used both as the starting point for TOML decoding (so unset
// fields retain defaults) and as the fallback when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		DownloadConfig: defaultDownloadConfig(),
		ListingConfig:  defaultListingConfig(),
		LoggingConfig:  defaultLoggingConfig(),
		NetworkConfig:  defaultNetworkConfig(),
	}
}

func defaultDownloadConfig() DownloadConfig {
	return DownloadConfig{
		DownloadDir:       defaultDownloadDir,
		ParallelDownloads: defaultParallelDownloads,
		SkipExisting:      true,
		VerifyCRC32:       true,
		NormalizeNames:    true,
	}
}

func defaultListingConfig() ListingConfig {
	return ListingConfig{
		DuplicateFolders: defaultDuplicateFolders,
		PerPage:          defaultPerPage,
	}
}

func defaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		LogLevel:         defaultLogLevel,
		LogFormat:        defaultLogFormat,
		LogRetentionDays: defaultLogRetentionDays,
		LogMaxSize:       defaultLogMaxSize,
	}
}

func defaultNetworkConfig() NetworkConfig {
	return NetworkConfig{
		ConnectTimeout: defaultConnectTimeout,
		DataTimeout:    defaultDataTimeout,
		APIURL:         defaultAPIURL,
	}
}

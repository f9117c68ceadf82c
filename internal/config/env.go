package config

import "os"

// Environment variable names for overrides.
const (
	EnvConfig      = "PUTIODOWN_CONFIG"
	EnvToken       = "PUTIODOWN_TOKEN"
	EnvDownloadDir = "PUTIODOWN_DOWNLOAD_DIR"
)

// EnvOverrides holds values derived from environment variables.
type EnvOverrides struct {
	ConfigPath  string // PUTIODOWN_CONFIG: override config file path
	Token       string // PUTIODOWN_TOKEN: access token, bypasses the token file
	DownloadDir string // PUTIODOWN_DOWNLOAD_DIR: download directory override
}

// ReadEnvOverrides reads environment variables and returns any overrides found.
// This does not modify the Config; callers apply the relevant fields.
func ReadEnvOverrides() EnvOverrides {
	return EnvOverrides{
		ConfigPath:  os.Getenv(EnvConfig),
		Token:       os.Getenv(EnvToken),
		DownloadDir: os.Getenv(EnvDownloadDir),
	}
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/putiodown/internal/walk"
)

func TestDefaultConfig_AllFieldsPopulated(t *testing.T) {
	cfg := DefaultConfig()
	require.NotNil(t, cfg)

	// Download defaults (using promoted field access)
	assert.Equal(t, "~/Downloads/putio", cfg.DownloadDir)
	assert.Equal(t, 4, cfg.ParallelDownloads)
	assert.True(t, cfg.SkipExisting)
	assert.True(t, cfg.VerifyCRC32)
	assert.True(t, cfg.NormalizeNames)

	// Listing defaults
	assert.Equal(t, "error", cfg.DuplicateFolders)
	assert.Equal(t, 1000, cfg.PerPage)

	// Logging defaults
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "auto", cfg.LogFormat)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, 30, cfg.LogRetentionDays)
	assert.Equal(t, "50MB", cfg.LogMaxSize)

	// Network defaults
	assert.Equal(t, "10s", cfg.ConnectTimeout)
	assert.Equal(t, "60s", cfg.DataTimeout)
	assert.Equal(t, "https://api.put.io/v2", cfg.APIURL)
	assert.Empty(t, cfg.UserAgent)

	// Metrics defaults
	assert.Empty(t, cfg.MetricsFile)
}

func TestListingConfig_DuplicatePolicy(t *testing.T) {
	assert.Equal(t, walk.DuplicateError, ListingConfig{DuplicateFolders: "error"}.DuplicatePolicy())
	assert.Equal(t, walk.DuplicateKeepFirst, ListingConfig{DuplicateFolders: "keep_first"}.DuplicatePolicy())
	assert.Equal(t, walk.DuplicateError, ListingConfig{DuplicateFolders: "bogus"}.DuplicatePolicy())
}

func TestNetworkConfig_Timeouts(t *testing.T) {
	connect, data := NetworkConfig{ConnectTimeout: "3s", DataTimeout: "2m"}.Timeouts()
	assert.Equal(t, 3*time.Second, connect)
	assert.Equal(t, 2*time.Minute, data)

	connect, data = NetworkConfig{ConnectTimeout: "nope"}.Timeouts()
	assert.Equal(t, 10*time.Second, connect)
	assert.Equal(t, 60*time.Second, data)
}

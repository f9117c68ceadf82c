package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/putiodown/internal/config"
)

// Global flag reset pattern: newRootCmd() binds flags via StringVar/BoolVar,
// which reset the global flag variables to their zero values. Tests that
// need flags go through cmd.SetArgs() + cmd.Execute().

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name  string
		cfg   string
		flags cliFlags
		want  slog.Level
	}{
		{"default", "info", cliFlags{}, slog.LevelInfo},
		{"config debug", "debug", cliFlags{}, slog.LevelDebug},
		{"config warn", "warn", cliFlags{}, slog.LevelWarn},
		{"config error", "error", cliFlags{}, slog.LevelError},
		{"verbose beats config", "error", cliFlags{Verbose: true}, slog.LevelDebug},
		{"quiet beats config", "debug", cliFlags{Quiet: true}, slog.LevelError},
		{"quiet beats verbose", "info", cliFlags{Verbose: true, Quiet: true}, slog.LevelError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logLevel(tt.cfg, tt.flags))
		})
	}
}

func testResolved() *config.Resolved {
	return &config.Resolved{Config: *config.DefaultConfig()}
}

func TestBuildLogger_AutoFormatIsJSONWhenNotTerminal(t *testing.T) {
	var buf bytes.Buffer

	logger, closer := buildLogger(testResolved(), cliFlags{}, &buf)
	assert.Nil(t, closer)

	logger.Info("hello", slog.String("k", "v"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "v", rec["k"])
}

func TestBuildLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer

	cfg := testResolved()
	cfg.LogFormat = "text"

	logger, _ := buildLogger(cfg, cliFlags{}, &buf)
	logger.Info("hello")

	assert.Contains(t, buf.String(), "msg=hello")
}

func TestBuildLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer

	logger, _ := buildLogger(testResolved(), cliFlags{Quiet: true}, &buf)
	logger.Info("hidden")

	assert.Empty(t, buf.String())
	assert.True(t, logger.Enabled(context.Background(), slog.LevelError))
}

func TestBuildLogger_LogFile(t *testing.T) {
	var buf bytes.Buffer

	cfg := testResolved()
	cfg.LogFile = filepath.Join(t.TempDir(), "putiodown.log")

	logger, closer := buildLogger(cfg, cliFlags{}, &buf)
	require.NotNil(t, closer)

	logger.Info("to both")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(cfg.LogFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to both")
	assert.Contains(t, buf.String(), "to both")
}

func TestMustCLIContext_Missing(t *testing.T) {
	assert.Panics(t, func() {
		mustCLIContext(context.Background())
	})
}

func TestConfigShow_Text(t *testing.T) {
	api := newFakeAPI(t)
	env := newTestEnv(t, api, "parallel_downloads = 7\n")

	out, err := env.run(t, "config", "show")
	require.NoError(t, err)

	assert.Contains(t, out, "parallel_downloads = 7")
	assert.Contains(t, out, env.dest)
	assert.Contains(t, out, "PUTIODOWN_TOKEN")
	assert.NotContains(t, out, testToken)
}

func TestConfigShow_JSON(t *testing.T) {
	api := newFakeAPI(t)
	env := newTestEnv(t, api, "")

	out, err := env.run(t, "--json", "config", "show")
	require.NoError(t, err)

	var got configJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, env.configPath, got.ConfigPath)
	assert.True(t, got.TokenFromEnv)
	assert.Equal(t, api.URL+"/v2", got.APIURL)
	assert.Equal(t, "error", got.DuplicateFolders)
}

func TestRoot_InvalidConfig(t *testing.T) {
	api := newFakeAPI(t)
	env := newTestEnv(t, api, "parralel_downloads = 3\n") //nolint:misspell // intentional typo

	_, err := env.run(t, "config", "show")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading config")
	assert.Contains(t, err.Error(), "parallel_downloads")
}

package config

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderEffective_Defaults(t *testing.T) {
	r := &Resolved{Config: *DefaultConfig(), ConfigPath: "/etc/putiodown/config.toml"}

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(r, &buf))

	output := buf.String()
	assert.Contains(t, output, "/etc/putiodown/config.toml")
	assert.Contains(t, output, `download_dir       = "~/Downloads/putio"`)
	assert.Contains(t, output, "parallel_downloads = 4")
	assert.Contains(t, output, `duplicate_folders = "error"`)
	assert.Contains(t, output, `api_url         = "https://api.put.io/v2"`)
	assert.Contains(t, output, "metrics_file not set")
	assert.NotContains(t, output, "log_file")
	assert.NotContains(t, output, "access token")
}

func TestRenderEffective_OptionalFieldsShown(t *testing.T) {
	r := &Resolved{Config: *DefaultConfig(), Token: "secret"}
	r.LogFile = "/var/log/putiodown.log"
	r.UserAgent = "custom/1.0"
	r.MetricsFile = "/tmp/p.prom"

	var buf bytes.Buffer
	require.NoError(t, RenderEffective(r, &buf))

	output := buf.String()
	assert.Contains(t, output, "log_file")
	assert.Contains(t, output, "user_agent")
	assert.Contains(t, output, `metrics_file = "/tmp/p.prom"`)
	assert.Contains(t, output, EnvToken)
	assert.NotContains(t, output, "secret")
}

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestRenderEffective_WriteError(t *testing.T) {
	r := &Resolved{Config: *DefaultConfig()}

	err := RenderEffective(r, failWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

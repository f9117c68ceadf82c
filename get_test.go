package main

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/putiodown/internal/download"
	"github.com/tonimelisma/putiodown/internal/ledger"
	"github.com/tonimelisma/putiodown/internal/putio"
)

func readString(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

func TestGet_DownloadsTree(t *testing.T) {
	api := newFakeAPI(t)
	env := newTestEnv(t, api, "")

	_, err := env.run(t, "get")
	require.NoError(t, err)

	assert.Equal(t, "alpha", readString(t, filepath.Join(env.dest, "root", "a.txt")))
	assert.Equal(t, "music-bytes", readString(t, filepath.Join(env.dest, "root", "Music", "b.mp3")))
}

func TestGet_SecondRunSkipsLedgerEntries(t *testing.T) {
	api := newFakeAPI(t)
	env := newTestEnv(t, api, "skip_existing = false\n")

	_, err := env.run(t, "get")
	require.NoError(t, err)

	out, err := env.run(t, "--json", "get")
	require.NoError(t, err)

	var report getJSONReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 0, report.Downloaded)
	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, api.downloadCount(1))
	assert.Equal(t, 1, api.downloadCount(11))
}

func TestGet_NoLedgerRedownloads(t *testing.T) {
	api := newFakeAPI(t)
	env := newTestEnv(t, api, "skip_existing = false\n")

	_, err := env.run(t, "get", "--no-ledger")
	require.NoError(t, err)

	_, err = env.run(t, "get", "--no-ledger")
	require.NoError(t, err)

	assert.Equal(t, 2, api.downloadCount(1))
}

func TestGet_DryRun(t *testing.T) {
	api := newFakeAPI(t)
	env := newTestEnv(t, api, "")

	out, err := env.run(t, "--json", "get", "--dry-run")
	require.NoError(t, err)

	var report getJSONReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Planned)
	assert.Zero(t, api.downloadCount(1))

	_, statErr := os.Stat(env.dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestGet_SubfolderWithDestFlag(t *testing.T) {
	api := newFakeAPI(t)
	env := newTestEnv(t, api, "")
	dest := filepath.Join(t.TempDir(), "elsewhere")

	_, err := env.run(t, "get", "--folder", "10", "--dest", dest, "--parallel", "2")
	require.NoError(t, err)

	assert.Equal(t, "music-bytes", readString(t, filepath.Join(dest, "root", "Music", "b.mp3")))
	assert.NoFileExists(t, filepath.Join(dest, "root", "a.txt"))
}

func TestGet_ChecksumMismatchFails(t *testing.T) {
	api := newFakeAPI(t)
	api.files[11].CRC32 = "00000000"
	env := newTestEnv(t, api, "")

	out, err := env.run(t, "--json", "get")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 file(s) failed")

	var report getJSONReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 1, report.Downloaded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, int64(11), report.Errors[0].ID)
}

func TestGet_BadTokenIsFatal(t *testing.T) {
	api := newFakeAPI(t)
	env := newTestEnv(t, api, "")
	t.Setenv("PUTIODOWN_TOKEN", "wrong")

	_, err := env.run(t, "get")
	require.Error(t, err)
	assert.ErrorIs(t, err, putio.ErrUnauthorized)
}

func TestIsFatalDownloadError(t *testing.T) {
	assert.True(t, isFatalDownloadError(&putio.APIError{StatusCode: 401, Err: putio.ErrUnauthorized}))
	assert.True(t, isFatalDownloadError(putio.ErrForbidden))
	assert.False(t, isFatalDownloadError(putio.ErrNotFound))
	assert.False(t, isFatalDownloadError(download.ErrChecksumMismatch))
}

func TestRunStatus(t *testing.T) {
	assert.Equal(t, ledger.StatusCompleted, runStatus(nil, &download.Report{}))
	assert.Equal(t, ledger.StatusFailed, runStatus(nil, &download.Report{Failed: 1}))
	assert.Equal(t, ledger.StatusFailed, runStatus(errors.New("x"), &download.Report{}))
	assert.Equal(t, ledger.StatusCanceled, runStatus(context.Canceled, &download.Report{}))
}

//go:build e2e

// Package e2e runs the built putiodown binary against a live put.io account.
// The tests only read: ls and get --dry-run never touch remote state, and real
// downloads only run when the live folder is small.
package e2e

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/putiodown/testutil"
)

var (
	binaryPath string
	folderID   string
	liveToken  string
)

func TestMain(m *testing.M) {
	root := testutil.FindModuleRoot("..")
	testutil.LoadDotEnv(filepath.Join(root, ".env"))

	liveToken = testutil.RequireLiveToken()
	folderID = testutil.LiveFolderID()

	tmpDir, err := os.MkdirTemp("", "putiodown-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating temp dir: %v\n", err)
		os.Exit(1)
	}

	binaryPath = filepath.Join(tmpDir, "putiodown")

	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "building binary: %v\n", err)
		os.RemoveAll(tmpDir)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// runCLI runs the binary with an isolated HOME so no real config, token file
// or ledger is read or written.
func runCLI(t *testing.T, home string, args ...string) (string, string) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(),
		"HOME="+home,
		"XDG_CONFIG_HOME="+filepath.Join(home, ".config"),
		"XDG_DATA_HOME="+filepath.Join(home, ".local", "share"),
		"PUTIODOWN_CONFIG="+filepath.Join(home, "absent.toml"),
		"PUTIODOWN_TOKEN="+liveToken,
		"PUTIODOWN_DOWNLOAD_DIR="+filepath.Join(home, "downloads"),
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("CLI command %v failed: %v\nstdout: %s\nstderr: %s", args, err, stdout.String(), stderr.String())
	}

	return stdout.String(), stderr.String()
}

type lsLine struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	ID    int64  `json:"id"`
	Size  int64  `json:"size"`
	CRC32 string `json:"crc32"`
}

func listRecords(t *testing.T, home string) []lsLine {
	t.Helper()

	stdout, _ := runCLI(t, home, "--json", "ls", "--folder", folderID)

	var recs []lsLine

	sc := bufio.NewScanner(strings.NewReader(stdout))
	for sc.Scan() {
		var rec lsLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		recs = append(recs, rec)
	}

	require.NoError(t, sc.Err())

	return recs
}

func TestE2E_Whoami(t *testing.T) {
	stdout, _ := runCLI(t, t.TempDir(), "--json", "whoami")

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(stdout), &out))
	assert.NotEmpty(t, out["username"])
}

func TestE2E_ListIsUniqueAndStable(t *testing.T) {
	home := t.TempDir()

	first := listRecords(t, home)
	second := listRecords(t, home)

	seen := make(map[int64]bool, len(first))
	for _, rec := range first {
		assert.False(t, seen[rec.ID], "file %d listed twice", rec.ID)
		seen[rec.ID] = true
		assert.NotEmpty(t, rec.Name)
	}

	assert.ElementsMatch(t, first, second)
}

func TestE2E_DryRunPlansEveryFile(t *testing.T) {
	home := t.TempDir()
	recs := listRecords(t, home)

	stdout, _ := runCLI(t, home, "--json", "get", "--folder", folderID, "--dry-run")

	var report struct {
		Downloaded int `json:"downloaded"`
		Planned    int `json:"planned"`
		Failed     int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))

	assert.Equal(t, len(recs), report.Planned)
	assert.Zero(t, report.Downloaded)
	assert.Zero(t, report.Failed)
	assert.NoDirExists(t, filepath.Join(home, "downloads"))
}

func TestE2E_DownloadThenLedgerSkips(t *testing.T) {
	home := t.TempDir()
	recs := listRecords(t, home)
	if len(recs) == 0 {
		t.Skip("live folder has no files")
	}

	smallest := recs[0]
	for _, rec := range recs[1:] {
		if rec.Size < smallest.Size {
			smallest = rec
		}
	}

	var total int64
	for _, rec := range recs {
		total += rec.Size
	}

	if total > 50<<20 {
		t.Skipf("live folder holds %d bytes, skipping full download", total)
	}

	dest := filepath.Join(home, "downloads")
	runCLI(t, home, "get", "--folder", folderID, "--dest", dest)

	info, err := os.Stat(filepath.Join(dest, smallest.Path, smallest.Name))
	require.NoError(t, err)
	assert.Equal(t, smallest.Size, info.Size())

	// Second run is served from the ledger.
	stdout, _ := runCLI(t, home, "--json", "get", "--folder", folderID, "--dest", dest)

	var report struct {
		Downloaded int `json:"downloaded"`
		Skipped    int `json:"skipped"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &report))
	assert.Zero(t, report.Downloaded)
	assert.Equal(t, len(recs), report.Skipped)
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

// fakeFile is one node of the fake account. ParentID nil marks the root.
type fakeFile struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	ParentID    *int64 `json:"parent_id"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	CRC32       string `json:"crc32,omitempty"`

	content string
}

// fakeAPI serves the subset of the put.io API the CLI uses:
//
//	root (0)
//	├── a.txt (1)
//	└── Music (10)
//	    └── b.mp3 (11)
type fakeAPI struct {
	*httptest.Server

	mu        sync.Mutex
	files     map[int64]*fakeFile
	downloads map[int64]int
}

func ptr(v int64) *int64 { return &v }

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()

	api := &fakeAPI{
		files:     make(map[int64]*fakeFile),
		downloads: make(map[int64]int),
	}

	api.add(&fakeFile{ID: 0, Name: "Your Files", ContentType: "application/x-directory"})
	api.add(&fakeFile{ID: 1, Name: "a.txt", ParentID: ptr(0), ContentType: "text/plain", content: "alpha"})
	api.add(&fakeFile{ID: 10, Name: "Music", ParentID: ptr(0), ContentType: "application/x-directory"})
	api.add(&fakeFile{ID: 11, Name: "b.mp3", ParentID: ptr(10), ContentType: "audio/mpeg", content: "music-bytes"})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v2/files/list", api.handleList)
	mux.HandleFunc("GET /v2/files/{id}", api.handleGet)
	mux.HandleFunc("GET /v2/files/{id}/url", api.handleURL)
	mux.HandleFunc("GET /v2/account/info", api.handleAccount)
	mux.HandleFunc("GET /dl/{id}", api.handleContent)

	api.Server = httptest.NewServer(api.authorized(mux))
	t.Cleanup(api.Close)

	return api
}

func (a *fakeAPI) add(f *fakeFile) {
	if f.content != "" {
		f.Size = int64(len(f.content))
		f.CRC32 = fmt.Sprintf("%08x", crc32.ChecksumIEEE([]byte(f.content)))
	}

	a.files[f.ID] = f
}

func (a *fakeAPI) downloadCount(id int64) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.downloads[id]
}

func (a *fakeAPI) authorized(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/dl/") && r.Header.Get("Authorization") != "token "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			writeJSON(w, map[string]string{"error_type": "invalid_grant", "error_message": "bad token"})

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (a *fakeAPI) handleList(w http.ResponseWriter, r *http.Request) {
	parentID, err := strconv.ParseInt(r.URL.Query().Get("parent_id"), 10, 64)
	if err != nil || a.files[parentID] == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	var children []*fakeFile
	for id := int64(0); id < 100; id++ {
		if f := a.files[id]; f != nil && f.ParentID != nil && *f.ParentID == parentID {
			children = append(children, f)
		}
	}

	writeJSON(w, map[string]any{
		"files":  children,
		"parent": a.files[parentID],
		"cursor": "",
		"total":  len(children),
	})
}

func (a *fakeAPI) handleGet(w http.ResponseWriter, r *http.Request) {
	f := a.lookup(r)
	if f == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]any{"file": f})
}

func (a *fakeAPI) handleURL(w http.ResponseWriter, r *http.Request) {
	f := a.lookup(r)
	if f == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, map[string]string{"url": fmt.Sprintf("%s/dl/%d", a.URL, f.ID)})
}

func (a *fakeAPI) handleContent(w http.ResponseWriter, r *http.Request) {
	f := a.lookup(r)
	if f == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	a.mu.Lock()
	a.downloads[f.ID]++
	a.mu.Unlock()

	_, _ = w.Write([]byte(f.content))
}

func (a *fakeAPI) handleAccount(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"info": map[string]any{
		"username": "alice",
		"mail":     "alice@example.com",
		"disk":     map[string]int64{"avail": 900, "used": 100, "size": 1000},
	}})
}

func (a *fakeAPI) lookup(r *http.Request) *fakeFile {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		return nil
	}

	return a.files[id]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// testEnv isolates a CLI run: HOME and XDG dirs point into a temp dir, the
// token comes from the environment, and a config file points at api.
type testEnv struct {
	home       string
	configPath string
	dest       string
}

func newTestEnv(t *testing.T, api *fakeAPI, extraConfig string) *testEnv {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("PUTIODOWN_TOKEN", testToken)
	t.Setenv("PUTIODOWN_CONFIG", "")
	t.Setenv("PUTIODOWN_DOWNLOAD_DIR", "")

	dest := filepath.Join(home, "downloads")
	cfg := fmt.Sprintf("api_url = %q\ndownload_dir = %q\nlog_level = \"debug\"\n%s", api.URL+"/v2", dest, extraConfig)

	configPath := filepath.Join(home, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))

	return &testEnv{home: home, configPath: configPath, dest: dest}
}

// run executes the root command with args and returns its stdout.
func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()

	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(append([]string{"--config", e.configPath}, args...))

	err := cmd.Execute()

	return out.String(), err
}

func TestFakeAPI_RejectsBadToken(t *testing.T) {
	api := newFakeAPI(t)

	resp, err := http.Get(api.URL + "/v2/account/info")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

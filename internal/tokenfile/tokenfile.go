// Package tokenfile reads and writes the put.io token file: the OAuth token
// plus cached account metadata (username, email). It is a leaf package so
// both config and putio can use it.
package tokenfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/oauth2"
)

// FilePerms restricts token files to owner-only read/write.
const FilePerms = 0o600

// DirPerms is used when creating the token directory.
const DirPerms = 0o700

// File is the on-disk format.
type File struct {
	Token   *oauth2.Token     `json:"token"`
	Meta    map[string]string `json:"meta,omitempty"`
	SavedAt time.Time         `json:"saved_at"`
}

// Load reads a token file. Returns (nil, nil, nil) if the file does not
// exist.
func Load(path string) (*oauth2.Token, map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil //nolint:nilnil // sentinel for "not found"
	}

	if err != nil {
		return nil, nil, fmt.Errorf("tokenfile: reading %s: %w", path, err)
	}

	var tf File
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, nil, fmt.Errorf("tokenfile: decoding %s: %w", path, err)
	}

	if tf.Token == nil || tf.Token.AccessToken == "" {
		return nil, nil, fmt.Errorf("tokenfile: %s has no token (run login again)", path)
	}

	return tf.Token, tf.Meta, nil
}

// Save writes the token file atomically with FilePerms. Token values are
// never logged.
func Save(path string, tok *oauth2.Token, meta map[string]string) error {
	data, err := json.MarshalIndent(File{Token: tok, Meta: meta, SavedAt: time.Now().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenfile: encoding: %w", err)
	}

	if err := writeAtomic(path, data); err != nil {
		return fmt.Errorf("tokenfile: %w", err)
	}

	return nil
}

// writeAtomic writes data to a temp file in path's directory, syncs it and
// renames it over path, so readers see either the old or the new content.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerms); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".token-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if err := tmp.Chmod(FilePerms); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("syncing: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("renaming: %w", err)
	}

	return nil
}

// Package testutil provides shared test environment helpers for E2E tests.
// It depends only on stdlib so that E2E tests (which cannot import
// internal/) can use it.
package testutil

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LiveTokenEnvVar names the variable holding the put.io token for live tests.
// A dedicated variable keeps a developer's everyday PUTIODOWN_TOKEN out of
// test runs.
const LiveTokenEnvVar = "PUTIODOWN_E2E_TOKEN"

// LoadDotEnv reads KEY=VALUE pairs from a .env file at the given path.
// Missing file is not an error (CI sets env vars directly).
// Existing env vars take precedence over .env values.
func LoadDotEnv(envPath string) {
	f, err := os.Open(envPath)
	if err != nil {
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}

		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		value = strings.Trim(value, "\"'")

		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// RequireLiveToken returns the live test token, crashing the process if it
// is not set. Live tests must never fall back to the user's own login.
func RequireLiveToken() string {
	token := strings.TrimSpace(os.Getenv(LiveTokenEnvVar))
	if token == "" {
		fmt.Fprintf(os.Stderr, "FATAL: %s not set\n", LiveTokenEnvVar)
		fmt.Fprintln(os.Stderr, "Set it in .env or as an environment variable.")
		os.Exit(1)
	}

	return token
}

// LiveFolderID returns the folder the live tests walk, from
// PUTIODOWN_E2E_FOLDER. Defaults to "0" (account root).
func LiveFolderID() string {
	if id := strings.TrimSpace(os.Getenv("PUTIODOWN_E2E_FOLDER")); id != "" {
		return id
	}

	return "0"
}

// FindModuleRoot walks up from the current directory to find go.mod.
// Returns the fallback if the root is not found.
func FindModuleRoot(fallback string) string {
	dir, err := os.Getwd()
	if err != nil {
		return fallback
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return fallback
		}

		dir = parent
	}
}

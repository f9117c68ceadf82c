package config

import (
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultDirs_NonEmpty(t *testing.T) {
	assert.Contains(t, DefaultConfigDir(), appName)
	assert.Contains(t, DefaultDataDir(), appName)
}

func TestDefaultPaths_FileNames(t *testing.T) {
	assert.True(t, strings.HasSuffix(DefaultConfigPath(), "config.toml"))
	assert.True(t, strings.HasSuffix(DefaultTokenPath(), "token.json"))
	assert.True(t, strings.HasSuffix(DefaultLedgerPath(), "ledger.db"))
}

func TestDefaultConfigDir_MacOS(t *testing.T) {
	if runtime.GOOS != platformDarwin {
		t.Skip("macOS-only test")
	}

	assert.Contains(t, DefaultConfigDir(), "Library/Application Support")
}

func TestDefaultDirs_XDGOverride(t *testing.T) {
	if runtime.GOOS != platformLinux {
		t.Skip("Linux-only test")
	}

	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_DATA_HOME", "/custom/data")

	assert.Equal(t, filepath.Join("/custom/config", appName), DefaultConfigDir())
	assert.Equal(t, filepath.Join("/custom/data", appName, "token.json"), DefaultTokenPath())
	assert.Equal(t, filepath.Join("/custom/data", appName, "ledger.db"), DefaultLedgerPath())
}

func TestXDGDir_Fallback(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "")

	assert.Equal(t, filepath.Join("/home/testuser/.local/share", appName),
		xdgDir("XDG_DATA_HOME", "/home/testuser/.local/share"))
}

func TestInDir_EmptyDir(t *testing.T) {
	assert.Empty(t, inDir("", "x"))
}

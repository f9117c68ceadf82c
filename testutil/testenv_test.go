package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "# comment\n\nPUTIODOWN_TEST_A=\"quoted\"\nPUTIODOWN_TEST_B = plain \nnot a pair\nPUTIODOWN_TEST_C=from-file\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("PUTIODOWN_TEST_A", "")
	t.Setenv("PUTIODOWN_TEST_B", "")
	t.Setenv("PUTIODOWN_TEST_C", "from-env")

	LoadDotEnv(path)

	assert.Equal(t, "quoted", os.Getenv("PUTIODOWN_TEST_A"))
	assert.Equal(t, "plain", os.Getenv("PUTIODOWN_TEST_B"))
	assert.Equal(t, "from-env", os.Getenv("PUTIODOWN_TEST_C"))
}

func TestLoadDotEnv_MissingFile(t *testing.T) {
	assert.NotPanics(t, func() {
		LoadDotEnv(filepath.Join(t.TempDir(), "absent.env"))
	})
}

func TestLiveFolderID(t *testing.T) {
	t.Setenv("PUTIODOWN_E2E_FOLDER", "")
	assert.Equal(t, "0", LiveFolderID())

	t.Setenv("PUTIODOWN_E2E_FOLDER", " 42 ")
	assert.Equal(t, "42", LiveFolderID())
}

func TestFindModuleRoot(t *testing.T) {
	root := FindModuleRoot("fallback")
	assert.FileExists(t, filepath.Join(root, "go.mod"))
}

package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTempManagerLifecycle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "temp")
	tm := NewTempManager(dir)

	require.NoError(t, tm.EnsureDir())
	assert.True(t, FileExists(dir))

	// Unique paths never collide and stay inside the managed directory.
	first := tm.UniquePath(".txt")
	second := tm.UniquePath(".txt")
	assert.NotEqual(t, first, second)
	assert.Equal(t, dir, filepath.Dir(first))

	require.NoError(t, os.WriteFile(first, []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(tm.Path("report.xlsx"), []byte("b"), 0o644))

	removed, err := tm.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.False(t, FileExists(first))
}

func TestTempManagerCleanupMissingDir(t *testing.T) {
	tm := NewTempManager(filepath.Join(t.TempDir(), "absent"))

	removed, err := tm.Cleanup()
	require.NoError(t, err)
	assert.Zero(t, removed)
}

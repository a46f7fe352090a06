package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPruneOlderThanRemovesOnlyStaleEntries(t *testing.T) {
	dir := t.TempDir()

	staleDir := filepath.Join(dir, "stale")
	freshDir := filepath.Join(dir, "fresh")
	require.NoError(t, os.MkdirAll(staleDir, 0o755))
	require.NoError(t, os.MkdirAll(freshDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staleDir, "artifact.bin"), []byte("0123456789"), 0o644))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(staleDir, old, old))

	cutoff := time.Now().Add(-24 * time.Hour)
	removed, bytesFreed, err := pruneOlderThan(dir, cutoff, false)
	require.NoError(t, err)
	require.Equal(t, 1, removed)
	require.EqualValues(t, 10, bytesFreed)

	_, statErr := os.Stat(staleDir)
	require.True(t, os.IsNotExist(statErr), "stale directory should have been removed")
	_, statErr = os.Stat(freshDir)
	require.NoError(t, statErr, "fresh directory should have been left alone")
}

func TestPruneOlderThanDryRunRemovesNothing(t *testing.T) {
	dir := t.TempDir()
	staleDir := filepath.Join(dir, "stale")
	require.NoError(t, os.MkdirAll(staleDir, 0o755))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(staleDir, old, old))

	cutoff := time.Now().Add(-24 * time.Hour)
	removed, _, err := pruneOlderThan(dir, cutoff, true)
	require.NoError(t, err)
	require.Equal(t, 1, removed, "removed count should still reflect what would be removed")

	_, statErr := os.Stat(staleDir)
	require.NoError(t, statErr, "dry-run must not actually remove the directory")
}

func TestPruneOlderThanMissingDirIsNotAnError(t *testing.T) {
	removed, bytesFreed, err := pruneOlderThan(filepath.Join(t.TempDir(), "missing"), time.Now(), false)
	require.NoError(t, err, "missing cache dir should not be an error")
	require.Zero(t, removed)
	require.Zero(t, bytesFreed)
}

package manifest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"))
	m, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Nil(t, m)
}

// TestFileRepository_SaveLoad_Roundtrip ensures Save followed by Load returns equal entries.
func TestFileRepository_SaveLoad_Roundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "main.alhConfig")
	output := filepath.Join(dir, "main.xml")
	require.NoError(t, os.WriteFile(input, []byte("GROUP NULL G\n"), 0o600))
	require.NoError(t, os.WriteFile(output, []byte("<config/>"), 0o600))

	entry, err := NewEntry("main", output, []string{input}, []string{output})
	require.NoError(t, err)

	want := New("1.2.3")
	want.Record(input, entry)

	repo := NewFileRepository(filepath.Join(dir, "manifest.yaml"))
	require.NoError(t, repo.Save(context.Background(), want))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1.2.3", got.Version)
	require.Equal(t, 1, got.Len())

	loaded, ok := got.Lookup(input)
	require.True(t, ok)
	require.Equal(t, entry.ConfigName, loaded.ConfigName)
	require.Equal(t, entry.Output, loaded.Output)
	require.Equal(t, entry.Inputs, loaded.Inputs)
	require.Equal(t, entry.Outputs, loaded.Outputs)
	require.True(t, entry.ConvertedAt.Equal(loaded.ConvertedAt))
	require.True(t, loaded.IsCurrent())

	info, err := os.Stat(repo.Path())
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

// TestFileRepository_Corrupted reports undecodable manifests.
func TestFileRepository_Corrupted(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("entries: [oops"), 0o600))

	_, err := NewFileRepository(path).Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCollectJobs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"b.alhConfig":        "",
		"nested/a.ALHCONFIG": "",
		"nested/readme.md":   "",
	})

	b := filepath.Join(dir, "b.alhConfig")
	a := filepath.Join(dir, "nested", "a.ALHCONFIG")

	jobs, err := collectJobs([]string{dir, b}, "")
	require.NoError(t, err)
	require.Equal(t, []job{
		{input: b, configName: "b", output: filepath.Join(dir, "b.xml")},
		{input: a, configName: "a", output: filepath.Join(dir, "nested", "a.xml")},
	}, jobs)

	out := filepath.Join(dir, "out")

	jobs, err = collectJobs([]string{a}, out)
	require.NoError(t, err)
	require.Equal(t, []job{{input: a, configName: "a", output: filepath.Join(out, "a.xml")}}, jobs)
}

func TestCollectJobs_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"x/sector.alhConfig": "",
		"y/sector.alhConfig": "",
		"empty/readme.md":    "",
	})

	_, err := collectJobs([]string{filepath.Join(dir, "x"), filepath.Join(dir, "y")}, filepath.Join(dir, "out"))
	require.ErrorIs(t, err, errOutputCollision)

	_, err = collectJobs([]string{filepath.Join(dir, "empty")}, "")
	require.ErrorIs(t, err, errNoInputs)

	_, err = collectJobs([]string{filepath.Join(dir, "missing")}, "")
	require.ErrorIs(t, err, os.ErrNotExist)
}

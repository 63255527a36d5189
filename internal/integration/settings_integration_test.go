package integration

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alh2phoebus/internal/config"
	"github.com/oshokin/alh2phoebus/internal/service/converter"
)

// TestRun_DefaultSettingsFile picks up the settings file from the working directory.
func TestRun_DefaultSettingsFile(t *testing.T) {
	dir := copyTestdata(t)

	t.Chdir(dir)

	require.NoError(t, os.WriteFile(config.DefaultConfigFilename,
		[]byte("resolve_includes: true\nindent: \"\\t\"\noutput_dir: xml\n"), 0o600))

	err := converter.Run(context.Background(), &converter.Options{
		ConfigName: "sr",
		InputPath:  "sr.alhConfig",
		OutputPath: "sr.xml",
	})
	require.NoError(t, err)

	require.Contains(t, read(t, "sr.xml"), "\n\t<component name=\"SR\">")
	require.Contains(t, read(t, "sr.xml"), `href="xml/sr_vacuum.xml"`)
	require.FileExists(t, filepath.Join(dir, "xml", "sr_vacuum.xml"))
}

// TestRun_WithoutSettingsFile falls back to defaults.
func TestRun_WithoutSettingsFile(t *testing.T) {
	dir := copyTestdata(t)

	t.Chdir(dir)

	err := converter.Run(context.Background(), &converter.Options{
		ConfigName: "sr",
		InputPath:  "sr.alhConfig",
		OutputPath: "sr.xml",
	})
	require.NoError(t, err)

	require.Contains(t, read(t, "sr.xml"), "\n  <component name=\"SR\">")
	require.NoFileExists(t, "sr_vacuum.xml")
}

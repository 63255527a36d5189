package converter

import (
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/alh2phoebus/internal/parser"
	"github.com/oshokin/alh2phoebus/internal/xinclude"
)

// writeFiles stores name -> content pairs under dir.
func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
}

// readFile returns the contents of path.
func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(data)
}

// hrefs lists the href attributes of inclusions in doc.
func hrefs(t *testing.T, doc string) []string {
	t.Helper()

	var (
		result []string
		dec    = xml.NewDecoder(strings.NewReader(doc))
	)

	for {
		token, err := dec.Token()
		if err != nil {
			break
		}

		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "include" {
			continue
		}

		for _, attr := range start.Attr {
			if attr.Name.Local == "href" {
				result = append(result, attr.Value)
			}
		}
	}

	return result
}

func TestConvert(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.alhConfig": "GROUP NULL G\nCHANNEL G X\n$BEEPSEVERITY MAJOR\nINCLUDE G other.alhConfig\n",
	})

	input := filepath.Join(dir, "main.alhConfig")
	output := filepath.Join(dir, "main.xml")

	result, err := Convert(context.Background(), "Accelerator", input, output)
	require.NoError(t, err)
	require.Equal(t, []string{output}, result.Outputs)
	require.Equal(t, []string{input}, result.Inputs)
	require.Len(t, result.Diagnostics, 1)
	require.Empty(t, result.Unresolved)
	require.Equal(t, 1, result.Report.PVs)
	require.Equal(t, 1, result.Report.Inclusions)

	doc := readFile(t, output)
	require.True(t, strings.HasPrefix(doc, xml.Header+`<config name="Accelerator">`))
	require.Contains(t, doc, `<pv name="X">`)
	require.Equal(t, []string{filepath.Join(dir, "other.alhConfig")}, hrefs(t, doc))
}

func TestConvert_ResolveIncludes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.alhConfig":        "GROUP NULL MAIN\nINCLUDE MAIN sub/pumps.alhConfig\n",
		"sub/pumps.alhConfig":   "GROUP NULL PUMPS\nCHANNEL PUMPS P1\nINCLUDE PUMPS valves.alhConfig\n",
		"sub/valves.alhConfig":  "GROUP NULL VALVES\nCHANNEL VALVES V1\n",
		"unused/ignored.config": "GROUP NULL IGNORED\n",
	})

	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	output := filepath.Join(outDir, "main.xml")

	result, err := Convert(context.Background(), "main", filepath.Join(dir, "main.alhConfig"), output, WithResolveIncludes(""))
	require.NoError(t, err)
	require.Len(t, result.Outputs, 3)
	require.Equal(t, output, result.Outputs[2])
	require.Equal(t, 0, result.Report.PVs)

	require.Equal(t, []string{"pumps.xml"}, hrefs(t, readFile(t, output)))
	require.Equal(t, []string{"valves.xml"}, hrefs(t, readFile(t, filepath.Join(outDir, "pumps.xml"))))
	require.Contains(t, readFile(t, filepath.Join(outDir, "pumps.xml")), `<config name="pumps">`)

	var flat strings.Builder
	require.NoError(t, xinclude.Flatten(context.Background(), &flat, output))
	require.Contains(t, flat.String(), `<pv name="P1">`)
	require.Contains(t, flat.String(), `<pv name="V1">`)
	require.NotContains(t, flat.String(), "include")
}

func TestConvert_SeparateOutputDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.alhConfig":    "GROUP NULL MAIN\nINCLUDE MAIN a/pumps.alhConfig\nINCLUDE MAIN b/pumps.alhConfig\n",
		"a/pumps.alhConfig": "GROUP NULL A\n",
		"b/pumps.alhConfig": "GROUP NULL B\n",
	})

	output := filepath.Join(dir, "main.xml")
	includes := filepath.Join(dir, "includes")

	_, err := Convert(context.Background(), "main", filepath.Join(dir, "main.alhConfig"), output, WithResolveIncludes(includes))
	require.NoError(t, err)

	require.Equal(t, []string{"includes/pumps.xml", "includes/pumps_1.xml"}, hrefs(t, readFile(t, output)))
	require.Contains(t, readFile(t, filepath.Join(includes, "pumps.xml")), `<component name="A">`)
	require.Contains(t, readFile(t, filepath.Join(includes, "pumps_1.xml")), `<component name="B">`)
}

func TestConvert_SharedRegistry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a/top.alhConfig":         "GROUP NULL TOP\nINCLUDE TOP common.alhConfig\nINCLUDE TOP ../shared/pumps.alhConfig\n",
		"a/common.alhConfig":      "GROUP NULL COMMON_A\n",
		"b/other.alhConfig":       "GROUP NULL OTHER\nINCLUDE OTHER common.alhConfig\nINCLUDE OTHER ../shared/pumps.alhConfig\n",
		"b/common.alhConfig":      "GROUP NULL COMMON_B\n",
		"shared/pumps.alhConfig":  "GROUP NULL PUMPS\nINCLUDE PUMPS valves.alhConfig\n",
		"shared/valves.alhConfig": "GROUP NULL VALVES\n",
	})

	out := filepath.Join(dir, "out")
	registry := NewRegistry()
	require.NoError(t, registry.Reserve(filepath.Join(out, "top.xml"), filepath.Join(out, "other.xml"), filepath.Join(out, "valves.xml")))

	first, err := Convert(context.Background(), "top", filepath.Join(dir, "a", "top.alhConfig"), filepath.Join(out, "top.xml"),
		WithResolveIncludes(out), WithRegistry(registry))
	require.NoError(t, err)
	require.Len(t, first.Outputs, 4)

	second, err := Convert(context.Background(), "other", filepath.Join(dir, "b", "other.alhConfig"), filepath.Join(out, "other.xml"),
		WithResolveIncludes(out), WithRegistry(registry))
	require.NoError(t, err)

	// Reserved paths and documents of the first conversion are never overwritten.
	require.Equal(t, []string{"common.xml", "pumps.xml"}, hrefs(t, readFile(t, filepath.Join(out, "top.xml"))))
	require.Equal(t, []string{"common_1.xml", "pumps.xml"}, hrefs(t, readFile(t, filepath.Join(out, "other.xml"))))
	require.Equal(t, []string{"valves_1.xml"}, hrefs(t, readFile(t, filepath.Join(out, "pumps.xml"))))
	require.Contains(t, readFile(t, filepath.Join(out, "common.xml")), `<component name="COMMON_A">`)
	require.Contains(t, readFile(t, filepath.Join(out, "common_1.xml")), `<component name="COMMON_B">`)

	// The shared include is reused but still listed with everything it includes.
	require.Equal(t, []string{
		filepath.Join(out, "common_1.xml"),
		filepath.Join(out, "valves_1.xml"),
		filepath.Join(out, "pumps.xml"),
		filepath.Join(out, "other.xml"),
	}, second.Outputs)
	require.Equal(t, []string{
		filepath.Join(dir, "b", "common.alhConfig"),
		filepath.Join(dir, "shared", "valves.alhConfig"),
		filepath.Join(dir, "shared", "pumps.alhConfig"),
		filepath.Join(dir, "b", "other.alhConfig"),
	}, second.Inputs)
}

func TestConvert_MissingInclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.alhConfig": "GROUP NULL G\nINCLUDE G gone.alhConfig\n",
	})

	output := filepath.Join(dir, "main.xml")

	result, err := Convert(context.Background(), "main", filepath.Join(dir, "main.alhConfig"), output, WithResolveIncludes(""))
	require.NoError(t, err)

	missing := filepath.Join(dir, "gone.alhConfig")
	require.Equal(t, []string{missing}, result.Unresolved)
	require.Equal(t, []string{missing}, hrefs(t, readFile(t, output)))
}

func TestConvert_CyclicIncludes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.alhConfig": "GROUP NULL A\nINCLUDE A b.alhConfig\n",
		"b.alhConfig": "GROUP NULL B\nINCLUDE B a.alhConfig\n",
	})

	output := filepath.Join(dir, "a.xml")

	result, err := Convert(context.Background(), "a", filepath.Join(dir, "a.alhConfig"), output, WithResolveIncludes(""))
	require.NoError(t, err)
	require.Len(t, result.Outputs, 2)

	require.Equal(t, []string{"b.xml"}, hrefs(t, readFile(t, output)))
	require.Equal(t, []string{"a.xml"}, hrefs(t, readFile(t, filepath.Join(dir, "b.xml"))))

	err = xinclude.Flatten(context.Background(), new(strings.Builder), output)
	require.ErrorIs(t, err, xinclude.ErrInclusionCycle)
}

func TestConvert_BaseDir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"src/main.alhConfig": "INCLUDE NULL shared.alhConfig\n",
	})

	base := filepath.Join(dir, "lib")
	output := filepath.Join(dir, "main.xml")

	_, err := Convert(context.Background(), "main", filepath.Join(dir, "src", "main.alhConfig"), output, WithBaseDir(base), WithIndent(""))
	require.NoError(t, err)

	doc := readFile(t, output)
	require.Equal(t, []string{filepath.Join(base, "shared.alhConfig")}, hrefs(t, doc))
	require.NotContains(t, doc, "\n  ")
}

func TestConvert_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"bad.alhConfig":    "GROUP NULL\n",
		"nested.alhConfig": "GROUP NULL G\nINCLUDE G bad.alhConfig\n",
	})

	_, err := Convert(context.Background(), "x", filepath.Join(dir, "missing.alhConfig"), filepath.Join(dir, "x.xml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	var directiveErr *parser.DirectiveError

	_, err = Convert(context.Background(), "x", filepath.Join(dir, "bad.alhConfig"), filepath.Join(dir, "x.xml"))
	require.ErrorAs(t, err, &directiveErr)
	require.Equal(t, 1, directiveErr.Line)

	_, err = Convert(context.Background(), "x", filepath.Join(dir, "nested.alhConfig"), filepath.Join(dir, "y.xml"), WithResolveIncludes(""))
	require.ErrorIs(t, err, parser.ErrMalformedDirective)
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.alhConfig":  "GROUP NULL MAIN\nINCLUDE MAIN pumps.alhConfig\n",
		"pumps.alhConfig": "GROUP NULL PUMPS\nCHANNEL PUMPS P1\n",
		"settings.toml":   "indent = \"\\t\"\n",
	})

	opts := &Options{
		ConfigPath:      filepath.Join(dir, "settings.toml"),
		ConfigName:      "main",
		InputPath:       filepath.Join(dir, "main.alhConfig"),
		OutputPath:      filepath.Join(dir, "main.xml"),
		OutputDir:       filepath.Join(dir, "includes"),
		ResolveIncludes: true,
		FlattenPath:     filepath.Join(dir, "flat.xml"),
	}

	require.NoError(t, Run(context.Background(), opts))

	require.Contains(t, readFile(t, opts.OutputPath), "\n\t<component name=\"MAIN\">")
	require.Equal(t, []string{"includes/pumps.xml"}, hrefs(t, readFile(t, opts.OutputPath)))
	require.Contains(t, readFile(t, opts.FlattenPath), `<pv name="P1">`)
}

func TestRun_FlattenResolvesIncludes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"main.alhConfig":  "GROUP NULL MAIN\nINCLUDE MAIN pumps.alhConfig\n",
		"pumps.alhConfig": "GROUP NULL PUMPS\nCHANNEL PUMPS P1\n",
		"settings.yaml":   "resolve_includes: false\n",
	})

	opts := &Options{
		ConfigPath:  filepath.Join(dir, "settings.yaml"),
		ConfigName:  "main",
		InputPath:   filepath.Join(dir, "main.alhConfig"),
		OutputPath:  filepath.Join(dir, "main.xml"),
		FlattenPath: filepath.Join(dir, "flat.xml"),
	}

	require.NoError(t, Run(context.Background(), opts))

	require.Equal(t, []string{"pumps.xml"}, hrefs(t, readFile(t, opts.OutputPath)))
	require.FileExists(t, filepath.Join(dir, "pumps.xml"))

	flat := readFile(t, opts.FlattenPath)
	require.Contains(t, flat, `<pv name="P1">`)
	require.NotContains(t, flat, "xi:include")
}

func TestRun_InvalidSettings(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"settings.yaml": "jobs: -1\n"})

	err := Run(context.Background(), &Options{ConfigPath: filepath.Join(dir, "settings.yaml")})
	require.Error(t, err)
}

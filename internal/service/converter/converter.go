package converter

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/alh2phoebus/internal/logger"
	"github.com/oshokin/alh2phoebus/internal/parser"
	"github.com/oshokin/alh2phoebus/internal/phoebus"
	"github.com/oshokin/alh2phoebus/internal/tree"
)

const (
	// outputExtension is appended to the stem of converted included files.
	outputExtension = ".xml"
	// outputDirMode is used when creating the directory of converted included files.
	outputDirMode os.FileMode = 0o755
)

// Result describes one conversion.
type Result struct {
	// Report summarizes the main document.
	Report *phoebus.Report
	// Diagnostics lists recoverable anomalies of the main file.
	Diagnostics []parser.Diagnostic
	// Outputs lists the main document and every document it includes, directly
	// or not, included ones first and the main one last.
	Outputs []string
	// Inputs lists the source file of each document in Outputs.
	Inputs []string
	// Unresolved lists included files that could not be found.
	Unresolved []string
}

// Option configures Convert.
type Option func(*settings)

// settings are the knobs of one conversion.
type settings struct {
	// baseDir overrides the directory relative INCLUDE paths are resolved against.
	baseDir string
	// indent is passed to the serializer.
	indent string
	// resolveIncludes converts included files too.
	resolveIncludes bool
	// outputDir receives converted included files.
	outputDir string
	// includeLevel filters log messages about included files.
	includeLevel zapcore.Level
	// registry is shared with other conversions when set.
	registry *Registry
}

// WithBaseDir resolves relative INCLUDE paths against dir instead of each file's directory.
func WithBaseDir(dir string) Option {
	return func(s *settings) {
		s.baseDir = dir
	}
}

// WithIndent sets the XML indentation.
func WithIndent(indent string) Option {
	return func(s *settings) {
		s.indent = indent
	}
}

// WithResolveIncludes converts included files into outputDir. An empty
// outputDir means the directory of the main output.
func WithResolveIncludes(outputDir string) Option {
	return func(s *settings) {
		s.resolveIncludes = true
		s.outputDir = outputDir
	}
}

// WithRegistry shares converted included files and claimed outputs with other
// conversions using the same registry.
func WithRegistry(registry *Registry) Option {
	return func(s *settings) {
		s.registry = registry
	}
}

// WithIncludeLogLevel sets the minimum level of messages logged while converting included files.
func WithIncludeLogLevel(level zapcore.Level) Option {
	return func(s *settings) {
		s.includeLevel = level
	}
}

// converter holds the state shared by a main file and its inclusions.
type converter struct {
	settings

	// visited maps an absolute input path seen by this conversion to its output.
	visited map[string]string
	// listed holds inputs already added to the result.
	listed map[string]bool
	// result accumulates what was written.
	result *Result
}

// Convert reads the ALH file at inputPath and writes the Phoebus document to
// outputPath. configName names the document's root.
func Convert(ctx context.Context, configName, inputPath, outputPath string, opts ...Option) (*Result, error) {
	ctx = logger.WithName(ctx, "converter")

	c := &converter{
		settings: settings{
			indent:       phoebus.DefaultIndent,
			includeLevel: zapcore.WarnLevel,
		},
		visited: make(map[string]string),
		listed:  make(map[string]bool),
		result:  new(Result),
	}

	for _, opt := range opts {
		opt(&c.settings)
	}

	if c.registry == nil {
		c.registry = NewRegistry()
	}

	if c.resolveIncludes && c.outputDir == "" {
		c.outputDir = filepath.Dir(outputPath)
	}

	report, diagnostics, err := c.convert(ctx, configName, inputPath, outputPath)
	if err != nil {
		return nil, err
	}

	c.result.Report = report
	c.result.Diagnostics = diagnostics

	return c.result, nil
}

// convert runs the pipeline for one file, converting its inclusions first when enabled.
func (c *converter) convert(
	ctx context.Context,
	configName, inputPath, outputPath string,
) (*phoebus.Report, []parser.Diagnostic, error) {
	absInput, err := filepath.Abs(inputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s: %w", inputPath, err)
	}

	absOutput, err := filepath.Abs(outputPath)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve %s: %w", outputPath, err)
	}

	c.visited[absInput] = absOutput
	c.registry.claimPath(absOutput)

	var parseOpts []parser.Option
	if c.baseDir != "" {
		parseOpts = append(parseOpts, parser.WithBaseDir(c.baseDir))
	}

	parsed, err := parser.ParseFile(ctx, configName, inputPath, parseOpts...)
	if err != nil {
		return nil, nil, err
	}

	t, err := tree.Build(parsed.Entities, parsed.Root)
	if err != nil {
		return nil, nil, fmt.Errorf("build tree of %s: %w", inputPath, err)
	}

	writeOpts := []phoebus.Option{phoebus.WithIndent(c.indent)}

	var (
		hrefs map[string]string
		conv  = &conversion{output: absOutput}
	)

	if c.resolveIncludes {
		if hrefs, err = c.resolveInclusions(ctx, t, conv); err != nil {
			return nil, nil, err
		}

		writeOpts = append(writeOpts, phoebus.WithHref(func(filename string) string {
			if href, ok := hrefs[filename]; ok {
				return href
			}

			return filename
		}))
	}

	report, err := phoebus.WriteFile(ctx, outputPath, t, writeOpts...)
	if err != nil {
		return nil, nil, err
	}

	conv.add(inputPath, outputPath)
	c.registry.record(absInput, conv)

	for i := range conv.inputs {
		c.list(conv.inputs[i], conv.outputs[i])
	}

	logger.InfoKV(ctx, "Converted configuration",
		"input", inputPath,
		"output", outputPath,
		"components", report.Components,
		"pvs", report.PVs,
		"inclusions", report.Inclusions,
		"duplicate_pvs", len(report.DuplicatePVs),
		"diagnostics", len(parsed.Diagnostics))

	return report, parsed.Diagnostics, nil
}

// resolveInclusions converts every file referenced by t, adds what they depend
// on to conv and returns the href of each converted file relative to conv's document.
func (c *converter) resolveInclusions(ctx context.Context, t *tree.Tree, conv *conversion) (map[string]string, error) {
	var filenames []string

	t.Walk(func(n *tree.Node) bool {
		if n.Entity.Inclusion != nil {
			filenames = append(filenames, n.Entity.Inclusion.Filename)
		}

		return true
	})

	hrefs := make(map[string]string, len(filenames))

	for _, filename := range filenames {
		if _, done := hrefs[filename]; done {
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		included, found, err := c.resolveInclusion(ctx, filename)
		if err != nil {
			return nil, err
		}

		if !found {
			continue
		}

		hrefs[filename] = relativeHref(conv.output, included.output)

		for i := range included.inputs {
			conv.add(included.inputs[i], included.outputs[i])
		}
	}

	return hrefs, nil
}

// resolveInclusion converts one included file unless it was already converted
// and returns what converting it produced.
func (c *converter) resolveInclusion(ctx context.Context, filename string) (*conversion, bool, error) {
	absInput, err := filepath.Abs(filename)
	if err != nil {
		return nil, false, fmt.Errorf("resolve %s: %w", filename, err)
	}

	if conv, ok := c.registry.lookup(absInput); ok {
		logger.DebugKV(ctx, "Included file already converted", "include", filename, "output", conv.output)

		return conv, true, nil
	}

	// Still being converted further up an inclusion cycle.
	if output, ok := c.visited[absInput]; ok {
		return &conversion{output: output}, true, nil
	}

	if _, err = os.Stat(absInput); errors.Is(err, os.ErrNotExist) {
		logger.WarnKV(ctx, "Included file not found, keeping reference", "include", filename)

		c.result.Unresolved = append(c.result.Unresolved, filename)

		return nil, false, nil
	} else if err != nil {
		return nil, false, fmt.Errorf("stat %s: %w", filename, err)
	}

	if err = os.MkdirAll(c.outputDir, outputDirMode); err != nil {
		return nil, false, fmt.Errorf("create %s: %w", c.outputDir, err)
	}

	stem := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	output, err := c.registry.claim(c.outputDir, stem)
	if err != nil {
		return nil, false, err
	}

	nestedCtx := logger.WithContextLevel(logger.WithKV(ctx, "include", filename), c.includeLevel)
	if _, _, err = c.convert(nestedCtx, stem, filename, output); err != nil {
		return nil, false, fmt.Errorf("convert included %s: %w", filename, err)
	}

	conv, _ := c.registry.lookup(absInput)

	return conv, true, nil
}

// list adds a converted input and its output to the result once.
func (c *converter) list(input, output string) {
	if c.listed[input] {
		return
	}

	c.listed[input] = true
	c.result.Inputs = append(c.result.Inputs, input)
	c.result.Outputs = append(c.result.Outputs, output)
}

// relativeHref returns target relative to the directory of the document at from, with forward slashes.
func relativeHref(from, target string) string {
	rel, err := filepath.Rel(filepath.Dir(from), target)
	if err != nil {
		return filepath.ToSlash(target)
	}

	return filepath.ToSlash(rel)
}

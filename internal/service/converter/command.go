package converter

import (
	"context"
	"fmt"

	"github.com/oshokin/alh2phoebus/internal/config"
	"github.com/oshokin/alh2phoebus/internal/logger"
	"github.com/oshokin/alh2phoebus/internal/xinclude"
)

// Options contains inputs for the converter entry point.
type Options struct {
	// ConfigPath is an optional settings file (defaults to alh2phoebus.yaml when present).
	ConfigPath string
	// ConfigName names the root of the produced document.
	ConfigName string
	// InputPath is the ALH file to convert.
	InputPath string
	// OutputPath is the Phoebus document to write.
	OutputPath string
	// BaseDir overrides the configured include base directory when set.
	BaseDir string
	// OutputDir overrides the configured directory of converted included files when set.
	OutputDir string
	// ResolveIncludes enables inclusion resolution on top of the settings file.
	ResolveIncludes bool
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// FlattenPath additionally writes a copy with every inclusion spliced in when set.
	// It implies ResolveIncludes, since only converted inclusions can be spliced.
	FlattenPath string
}

// Run loads settings, applies overrides and converts one file.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "alh2phoebus")

	cfg, err := LoadSettings(opts.ConfigPath, opts.overrides)
	if err != nil {
		return err
	}

	result, err := Convert(ctx, opts.ConfigName, opts.InputPath, opts.OutputPath, ConfigOptions(cfg)...)
	if err != nil {
		return fmt.Errorf("convert %s: %w", opts.InputPath, err)
	}

	if opts.FlattenPath != "" {
		if err = xinclude.FlattenFile(ctx, opts.OutputPath, opts.FlattenPath); err != nil {
			return fmt.Errorf("flatten %s: %w", opts.OutputPath, err)
		}

		logger.InfoKV(ctx, "Wrote flattened document", "path", opts.FlattenPath)
	}

	logger.InfoKV(ctx, "Conversion completed",
		"documents", len(result.Outputs),
		"diagnostics", len(result.Diagnostics),
		"unresolved_includes", len(result.Unresolved))

	return nil
}

// LoadSettings reads the settings file, lets override adjust it, validates the
// result and applies its log level.
func LoadSettings(path string, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if override != nil {
		override(cfg)
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	if err = logger.SetLevelString(cfg.LogLevel); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigOptions translates settings into conversion options.
func ConfigOptions(cfg *config.Config) []Option {
	opts := []Option{
		WithBaseDir(cfg.IncludeBaseDir),
		WithIndent(cfg.OutputIndent()),
	}

	if level, ok := logger.ParseLogLevel(cfg.IncludeLogLevel); ok {
		opts = append(opts, WithIncludeLogLevel(level))
	}

	if cfg.ResolveIncludes {
		opts = append(opts, WithResolveIncludes(cfg.OutputDir))
	}

	return opts
}

// overrides applies command-line values on top of loaded settings.
func (o *Options) overrides(cfg *config.Config) {
	if o.BaseDir != "" {
		cfg.IncludeBaseDir = o.BaseDir
	}

	if o.OutputDir != "" {
		cfg.OutputDir = o.OutputDir
	}

	if o.ResolveIncludes || o.FlattenPath != "" {
		cfg.ResolveIncludes = true
	}

	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
}

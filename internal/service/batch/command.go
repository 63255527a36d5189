package batch

import (
	"context"

	"github.com/oshokin/alh2phoebus/internal/config"
	"github.com/oshokin/alh2phoebus/internal/logger"
	"github.com/oshokin/alh2phoebus/internal/repository/manifest"
	"github.com/oshokin/alh2phoebus/internal/service/converter"
)

// Options contains inputs for the batch entry point.
type Options struct {
	// ConfigPath is an optional settings file (defaults to alh2phoebus.yaml when present).
	ConfigPath string
	// Inputs are ALH files or directories scanned for them.
	Inputs []string
	// OutputDir receives all documents when set; otherwise each goes next to its input.
	OutputDir string
	// Force converts inputs even when the manifest shows them unchanged.
	Force bool
	// Jobs overrides the configured concurrency when positive.
	Jobs int
	// ResolveIncludes enables inclusion resolution on top of the settings file.
	ResolveIncludes bool
	// BaseDir overrides the configured include base directory when set.
	BaseDir string
	// ManifestFile overrides the configured manifest location when set.
	ManifestFile string
	// LogLevel overrides the configured log level when set.
	LogLevel string
}

// Run loads settings and converts every input.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "batch")

	cfg, err := converter.LoadSettings(opts.ConfigPath, opts.overrides)
	if err != nil {
		return err
	}

	summary, err := Process(ctx, cfg, manifest.NewFileRepository(cfg.ManifestFile), opts)
	if summary != nil {
		logger.InfoKV(ctx, "Batch completed",
			"converted", len(summary.Converted),
			"skipped", len(summary.Skipped),
			"failed", len(summary.Failed),
			"manifest", cfg.ManifestFile)
	}

	return err
}

// overrides applies command-line values on top of loaded settings.
func (o *Options) overrides(cfg *config.Config) {
	if o.Jobs > 0 {
		cfg.Jobs = o.Jobs
	}

	if o.ResolveIncludes {
		cfg.ResolveIncludes = true
	}

	if o.BaseDir != "" {
		cfg.IncludeBaseDir = o.BaseDir
	}

	if o.ManifestFile != "" {
		cfg.ManifestFile = o.ManifestFile
	}

	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
}

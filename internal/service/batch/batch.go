package batch

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/oshokin/alh2phoebus/internal/config"
	"github.com/oshokin/alh2phoebus/internal/logger"
	"github.com/oshokin/alh2phoebus/internal/repository/manifest"
	"github.com/oshokin/alh2phoebus/internal/service/converter"
	"github.com/oshokin/alh2phoebus/internal/version"
)

// outputDirMode is used when creating the output directory.
const outputDirMode os.FileMode = 0o755

// errConversionFailed is returned when at least one input could not be converted.
var errConversionFailed = errors.New("conversion failed")

// Summary lists what happened to every input.
type Summary struct {
	// Converted lists inputs that were converted, sorted.
	Converted []string
	// Skipped lists unchanged inputs, sorted.
	Skipped []string
	// Failed maps inputs that could not be converted to the reason.
	Failed map[string]error
}

// processor converts jobs and keeps the manifest current.
type processor struct {
	// cfg holds conversion settings.
	cfg *config.Config
	// force converts inputs even when unchanged.
	force bool
	// manifest is updated by every successful job.
	manifest *manifest.Manifest
	// registry is shared by every job so included files get distinct outputs.
	registry *converter.Registry
	// current holds inputs found unchanged before any job ran.
	current map[string]bool
	// mu guards summary.
	mu sync.Mutex
	// summary collects job outcomes.
	summary *Summary
}

// Process converts every input named by opts and stores the updated manifest
// in repo. It returns an error wrapping every failed input after the others finished.
func Process(ctx context.Context, cfg *config.Config, repo manifest.Repository, opts *Options) (*Summary, error) {
	jobs, err := collectJobs(opts.Inputs, opts.OutputDir)
	if err != nil {
		return nil, err
	}

	if opts.OutputDir != "" {
		if err = os.MkdirAll(opts.OutputDir, outputDirMode); err != nil {
			return nil, fmt.Errorf("create %s: %w", opts.OutputDir, err)
		}
	}

	m, err := loadManifest(ctx, repo)
	if err != nil {
		return nil, err
	}

	p := &processor{
		cfg:      cfg,
		force:    opts.Force,
		manifest: m,
		registry: converter.NewRegistry(),
		current:  make(map[string]bool, len(jobs)),
		summary:  &Summary{Failed: make(map[string]error)},
	}

	if err = p.plan(jobs); err != nil {
		return nil, err
	}

	limit := cfg.Concurrency()
	if cfg.ResolveIncludes {
		// Inputs may include the same file and would write its document concurrently.
		limit = 1
	}

	logger.InfoKV(ctx, "Converting inputs", "files", len(jobs), "jobs", limit)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for _, j := range jobs {
		g.Go(func() error {
			return p.process(gctx, j)
		})
	}

	waitErr := g.Wait()

	if err = repo.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("save manifest: %w", err)
	}

	if waitErr != nil {
		return nil, waitErr
	}

	sort.Strings(p.summary.Converted)
	sort.Strings(p.summary.Skipped)

	if len(p.summary.Failed) > 0 {
		failures := make([]error, 0, len(p.summary.Failed))
		for _, j := range jobs {
			if jobErr, failed := p.summary.Failed[j.input]; failed {
				failures = append(failures, jobErr)
			}
		}

		return p.summary, fmt.Errorf("%w: %d of %d inputs: %w",
			errConversionFailed, len(failures), len(jobs), errors.Join(failures...))
	}

	return p.summary, nil
}

// loadManifest reads the manifest, starting over when it is missing or was
// written by another converter version.
func loadManifest(ctx context.Context, repo manifest.Repository) (*manifest.Manifest, error) {
	m, err := repo.Load(ctx)

	switch {
	case errors.Is(err, manifest.ErrNotFound):
		return manifest.New(version.Short()), nil
	case err != nil:
		return nil, fmt.Errorf("load manifest: %w", err)
	case m.Version != version.Short():
		logger.InfoKV(ctx, "Manifest written by another version, converting everything",
			"manifest_version", m.Version, "version", version.Short())

		return manifest.New(version.Short()), nil
	default:
		return m, nil
	}
}

// process converts one input unless it is unchanged.
func (p *processor) process(ctx context.Context, j job) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx = logger.WithKV(ctx, "input", j.input)

	if p.current[j.input] {
		logger.Debug(ctx, "Skipping unchanged input")

		p.mu.Lock()
		p.summary.Skipped = append(p.summary.Skipped, j.input)
		p.mu.Unlock()

		return nil
	}

	convertOpts := converter.ConfigOptions(p.cfg)
	convertOpts = append(convertOpts, converter.WithRegistry(p.registry))

	result, err := converter.Convert(ctx, j.configName, j.input, j.output, convertOpts...)
	if err == nil {
		var entry *manifest.Entry

		entry, err = manifest.NewEntry(j.configName, j.output, result.Inputs, result.Outputs)
		if err == nil {
			p.manifest.Record(j.input, entry)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case errors.Is(err, context.Canceled):
		return err
	case err != nil:
		logger.ErrorKV(ctx, "Conversion failed", "error", err)

		p.summary.Failed[j.input] = fmt.Errorf("%s: %w", j.input, err)
	default:
		p.summary.Converted = append(p.summary.Converted, j.input)
	}

	return nil
}

// plan finds unchanged inputs and reserves every main output and every
// document of unchanged inputs, so no job writes an included file over them.
func (p *processor) plan(jobs []job) error {
	for _, j := range jobs {
		if err := p.registry.Reserve(j.output); err != nil {
			return err
		}

		if p.force {
			continue
		}

		entry, ok := p.currentEntry(j)
		if !ok {
			continue
		}

		p.current[j.input] = true

		if err := p.registry.Reserve(slices.Collect(maps.Keys(entry.Outputs))...); err != nil {
			return err
		}
	}

	return nil
}

// currentEntry returns the manifest entry of j when it proves j's output is up to date.
func (p *processor) currentEntry(j job) (*manifest.Entry, bool) {
	entry, ok := p.manifest.Lookup(j.input)

	if !ok ||
		entry.ConfigName != j.configName ||
		entry.Output != j.output ||
		!entry.IsCurrent() {
		return nil, false
	}

	return entry, true
}

package packager

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshokin/plugin-packager/internal/config"
	"github.com/oshokin/plugin-packager/internal/domain/packaging"
	"github.com/oshokin/plugin-packager/internal/logger"
	"github.com/oshokin/plugin-packager/internal/service/archiver"
	"github.com/oshokin/plugin-packager/internal/service/merger"
)

// Options contains inputs for the packager entry point.
type Options struct {
	// ConfigPath is the YAML file listing build targets (defaults to plugin-packager.yaml).
	ConfigPath string
	// Plugins builds ad-hoc targets from plugin names instead of reading ConfigPath.
	Plugins []string
	// Configuration is the build configuration used for Plugins (defaults to Debug).
	Configuration string
	// Targets restricts the run to the named targets; empty runs all of them.
	Targets []string
	// LogLevel overrides the level from the configuration file when set.
	LogLevel string
	// DryRun merges manifests in memory and skips every write.
	DryRun bool
}

// TargetResult is the outcome of a single target.
type TargetResult struct {
	// Target is the processed build target.
	Target config.Target
	// Merge describes the manifest merge.
	Merge *merger.Result
	// Artifact describes the archive; nil for dry runs.
	Artifact *packaging.ArtifactInfo
}

// packager runs the merge and archive steps for every selected target.
// It is unexported; callers should use Run.
type packager struct {
	// targets are the build targets in processing order.
	targets []config.Target
	// dryRun skips manifest writes and archive builds.
	dryRun bool
	// results collects one entry per completed target.
	results []*TargetResult
}

// Run executes the packaging workflow and returns the per-target results.
func Run(ctx context.Context, opts *Options) ([]*TargetResult, error) {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "plugin-packager")

	pkg, err := newPackager(opts)
	if err != nil {
		return nil, fmt.Errorf("initialize packager: %w", err)
	}

	if err = pkg.Run(ctx); err != nil {
		return pkg.results, err
	}

	pkg.printSummary(ctx)
	logger.Info(ctx, "Build process completed successfully")

	return pkg.results, nil
}

// newPackager resolves the configuration and the targets to process.
func newPackager(opts *Options) (*packager, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}

	if err = logger.Configure(level); err != nil {
		return nil, err
	}

	targets, err := cfg.Select(opts.Targets...)
	if err != nil {
		return nil, err
	}

	return &packager{
		targets: targets,
		dryRun:  opts.DryRun,
	}, nil
}

// loadConfig builds the configuration from plugin names or reads it from disk.
func loadConfig(opts *Options) (*config.Config, error) {
	if len(opts.Plugins) == 0 {
		return config.Load(opts.ConfigPath)
	}

	cfg := config.ForPlugins(opts.Configuration, opts.Plugins...)
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Run processes the targets in order and stops at the first failure.
func (p *packager) Run(ctx context.Context) error {
	for _, target := range p.targets {
		targetCtx := logger.WithKV(ctx, "target", target.Name)

		logger.Infof(targetCtx, "Starting %s build process", target.Name)

		result, err := p.runTarget(targetCtx, target)
		if err != nil {
			return fmt.Errorf("target %s: %w", target.Name, err)
		}

		p.results = append(p.results, result)
	}

	return nil
}

// runTarget merges the manifest and, once that succeeded, archives the build output.
func (p *packager) runTarget(ctx context.Context, target config.Target) (*TargetResult, error) {
	mergeResult, err := merger.Merge(
		ctx,
		target.SourceManifest,
		target.TargetManifest,
		merger.WithDryRun(p.dryRun),
	)
	if err != nil {
		return nil, err
	}

	result := &TargetResult{
		Target: target,
		Merge:  mergeResult,
	}

	if p.dryRun {
		logger.InfoKV(ctx, "5. Skipping archive (dry run)", "path", target.ArchivePath())
		return result, nil
	}

	logger.InfoKV(ctx, "5. Building archive", "directory", target.Directory, "path", target.ArchivePath())

	artifact, err := archiver.Archive(
		ctx,
		target.Directory,
		target.ArchivePath(),
		archiver.WithCompressionLevel(target.CompressionLevel),
	)
	if err != nil {
		return nil, fmt.Errorf("step 5 build archive: %w", err)
	}

	logger.InfoKV(ctx, "6. Archive ready", "path", artifact.Path, "entries", len(artifact.Entries))
	logger.Infof(ctx, "   Zip file size: %.1f KB", artifact.SizeKB())

	result.Artifact = artifact

	return result, nil
}

// printSummary logs one line per processed target.
func (p *packager) printSummary(ctx context.Context) {
	var builder strings.Builder

	builder.WriteString("Packaged targets:")

	for _, result := range p.results {
		builder.WriteString("\n  ")
		builder.WriteString(result.Target.Name)

		if result.Artifact == nil {
			builder.WriteString(": manifest checked, nothing written (dry run)")
			continue
		}

		fmt.Fprintf(&builder, ": %s (%.1f KB, %d files)",
			result.Artifact.Path, result.Artifact.SizeKB(), len(result.Artifact.Entries))
	}

	logger.Info(ctx, builder.String())
}

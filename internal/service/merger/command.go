package merger

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	domain "github.com/oshokin/plugin-packager/internal/domain/manifest"
	"github.com/oshokin/plugin-packager/internal/logger"
	repo "github.com/oshokin/plugin-packager/internal/repository/manifest"
)

// Result describes a completed merge.
type Result struct {
	// Applied lists the well-known keys written to the target manifest.
	Applied []string
	// Shape is the top-level form the target manifest was read in.
	Shape domain.Shape
	// Previous is the target manifest content before the merge.
	Previous []byte
	// Current is the normalized target manifest content after the merge.
	Current []byte
	// Written is false for dry runs.
	Written bool
}

// Changed reports whether the merge altered the target file content.
func (r *Result) Changed() bool {
	return !bytes.Equal(r.Previous, r.Current)
}

// Diff returns a unified diff between the previous and the current content.
func (r *Result) Diff(path string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(r.Previous)),
		B:        difflib.SplitLines(string(r.Current)),
		FromFile: path,
		ToFile:   path + " (merged)",
		Context:  3,
	})
}

// Option configures a merge.
type Option func(*merger)

// WithDryRun performs the merge in memory without writing the target manifest.
func WithDryRun(dryRun bool) Option {
	return func(m *merger) {
		m.dryRun = dryRun
	}
}

// merger holds the repositories of a single merge run.
type merger struct {
	// source is the manifest carrying the download links; it is never written.
	source repo.Repository
	// target is the build output manifest that receives the links.
	target repo.Repository
	// dryRun skips the write.
	dryRun bool
}

// Merge copies the download links from the manifest at sourcePath into the
// manifest at targetPath and rewrites the target as a JSON array.
func Merge(ctx context.Context, sourcePath, targetPath string, opts ...Option) (*Result, error) {
	return MergeRepositories(ctx, repo.NewFileRepository(sourcePath), repo.NewFileRepository(targetPath), opts...)
}

// MergeRepositories is Merge over arbitrary manifest repositories.
func MergeRepositories(ctx context.Context, source, target repo.Repository, opts ...Option) (*Result, error) {
	m := &merger{
		source: source,
		target: target,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m.Run(ctx)
}

// Run loads both manifests, merges them and persists the target.
func (m *merger) Run(ctx context.Context) (*Result, error) {
	logger.InfoKV(ctx, "1. Reading source manifest", "path", m.source.Path())

	sourceDoc, _, err := m.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("step 1 read source manifest: %w", err)
	}

	logger.InfoKV(ctx, "2. Reading target manifest", "path", m.target.Path())

	targetDoc, previous, err := m.target.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("step 2 read target manifest: %w", err)
	}

	logger.InfoKV(ctx, "3. Merging download links", "target_shape", targetDoc.Shape().String())

	applied := domain.Merge(sourceDoc.Head(), targetDoc)
	m.logApplied(ctx, targetDoc, applied)

	current, err := targetDoc.Encode()
	if err != nil {
		return nil, fmt.Errorf("step 3 merge download links: %w", err)
	}

	result := &Result{
		Applied:  applied,
		Shape:    targetDoc.Shape(),
		Previous: previous,
		Current:  current,
	}

	m.logDiff(ctx, result)

	if m.dryRun {
		logger.InfoKV(ctx, "4. Skipping target manifest write (dry run)", "path", m.target.Path())

		return result, nil
	}

	logger.InfoKV(ctx, "4. Writing target manifest", "path", m.target.Path(), "records", targetDoc.Len())

	if err = m.target.Write(ctx, current); err != nil {
		return nil, fmt.Errorf("step 4 write target manifest: %w", err)
	}

	result.Written = true

	return result, nil
}

// logApplied reports every link copied to the target.
func (m *merger) logApplied(ctx context.Context, targetDoc *domain.Document, applied []string) {
	if len(applied) == 0 {
		logger.Warn(ctx, "   Source manifest has no download links to copy")
		return
	}

	for _, key := range applied {
		value, _ := targetDoc.Head().Get(key)
		logger.Infof(ctx, "   Added %s: %s", key, strings.TrimSpace(string(value)))
	}
}

// logDiff writes the manifest change: at info level for dry runs, debug otherwise.
func (m *merger) logDiff(ctx context.Context, result *Result) {
	if !result.Changed() {
		logger.Debug(ctx, "Target manifest content is unchanged")
		return
	}

	diff, err := result.Diff(m.target.Path())
	if err != nil {
		logger.DebugKV(ctx, "Unable to render manifest diff", "error", err)
		return
	}

	if m.dryRun {
		logger.Infof(ctx, "Target manifest change:\n%s", diff)
		return
	}

	logger.Debugf(ctx, "Target manifest change:\n%s", diff)
}

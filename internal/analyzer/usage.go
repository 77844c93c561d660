// Package analyzer orchestrates the reference-counting pipeline: index the
// dependency archives, discover the project's class files, then decode, scan
// and count in parallel.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tkoenig/jarusage/internal/artifact"
	"github.com/tkoenig/jarusage/internal/cache"
	"github.com/tkoenig/jarusage/internal/classfile"
	"github.com/tkoenig/jarusage/internal/counter"
	"github.com/tkoenig/jarusage/internal/fileproc"
	"github.com/tkoenig/jarusage/internal/index"
	"github.com/tkoenig/jarusage/internal/models"
	"github.com/tkoenig/jarusage/internal/progress"
	"github.com/tkoenig/jarusage/internal/scan"
	"github.com/tkoenig/jarusage/internal/scanner"
)

// UsageAnalyzer counts bytecode references from a project's compiled classes
// into its resolved dependency set.
type UsageAnalyzer struct {
	workers  int
	excludes []string
	cache    *cache.Cache
	progress bool
	warn     func(format string, args ...any)
}

// Option is a functional option for configuring UsageAnalyzer.
type Option func(*UsageAnalyzer)

// WithWorkers caps the scan worker count. Zero or negative keeps the default.
func WithWorkers(n int) Option {
	return func(a *UsageAnalyzer) {
		if n > 0 {
			a.workers = n
		}
	}
}

// WithExcludePatterns sets gitignore-style patterns for class files to skip.
func WithExcludePatterns(patterns []string) Option {
	return func(a *UsageAnalyzer) {
		a.excludes = patterns
	}
}

// WithCache enables archive-listing caching.
func WithCache(c *cache.Cache) Option {
	return func(a *UsageAnalyzer) {
		if c != nil {
			a.cache = c
		}
	}
}

// WithProgress enables terminal progress reporting: a spinner while the
// dependency archives are indexed, a counting bar while class files are
// scanned. Both write to stderr and clear themselves when done.
func WithProgress(enabled bool) Option {
	return func(a *UsageAnalyzer) {
		a.progress = enabled
	}
}

// WithWarnFunc routes recoverable warnings (skipped archives, unparseable
// class files). The default discards them.
func WithWarnFunc(fn func(format string, args ...any)) Option {
	return func(a *UsageAnalyzer) {
		a.warn = fn
	}
}

// New creates a usage analyzer.
func New(opts ...Option) *UsageAnalyzer {
	a := &UsageAnalyzer{
		cache: cache.Disabled(),
		warn:  func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze runs the full pipeline. artifacts is the resolved dependency set in
// manifest order (the order fixes the index collision policy); classesDir is
// the compiled-output root. A missing classesDir is not an error: the result
// simply carries zero counts for every artifact.
//
// Per-unit parse failures are isolated: they are reported through the warn
// callback, counted in the summary, and never abort the batch.
func (a *UsageAnalyzer) Analyze(ctx context.Context, artifacts []artifact.Artifact, classesDir string) (*models.UsageAnalysis, error) {
	var spin *progress.Tracker
	if a.progress {
		spin = progress.NewSpinner("Indexing dependency archives...")
	}
	ix, err := index.Build(artifacts,
		index.WithCache(a.cache),
		index.WithWarnFunc(func(art artifact.Artifact, err error) {
			a.warn("skipping archive of %s: %v", art.Coordinate(), err)
		}),
	)
	if spin != nil {
		spin.FinishSuccess()
	}
	if err != nil {
		return nil, fmt.Errorf("building class index: %w", err)
	}

	counts := counter.New(artifacts)

	result := &models.UsageAnalysis{
		ClassesDir: classesDir,
		Summary: models.UsageSummary{
			Artifacts:       len(artifacts),
			ClassesIndexed:  ix.Len(),
			IndexCollisions: ix.Collisions(),
			ArchivesSkipped: ix.Skipped(),
		},
	}

	files, err := a.discover(classesDir)
	if err != nil {
		return nil, err
	}

	var failed int
	if len(files) > 0 {
		failed = a.scanAll(ctx, files, ix, counts)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}

	result.Summary.ClassFilesScanned = len(files) - failed
	result.Summary.ClassFilesFailed = failed
	result.Summary.TotalReferences = counts.Total()

	snapshot := counts.Snapshot()
	for _, art := range artifacts {
		n := snapshot[art.Coordinate()]
		result.Artifacts = append(result.Artifacts, models.ArtifactUsage{
			Coordinate: art.Coordinate(),
			Group:      art.Group,
			Name:       art.Name,
			Version:    art.Version,
			References: n,
		})
		if n > 0 {
			result.Summary.ArtifactsUsed++
		}
	}
	result.Sort()
	return result, nil
}

// discover lists the class files under the output root. A missing root warns
// and yields an empty list, matching the "have you compiled?" behavior.
func (a *UsageAnalyzer) discover(classesDir string) ([]string, error) {
	if _, err := os.Stat(classesDir); os.IsNotExist(err) {
		a.warn("compiled-output directory %s not found; have you compiled the project?", classesDir)
		return nil, nil
	}

	files, err := scanner.New(a.excludes).ScanDir(classesDir)
	if err != nil {
		return nil, fmt.Errorf("discovering class files under %s: %w", classesDir, err)
	}
	return files, nil
}

// scanAll decodes, scans and counts every class file in parallel. Returns the
// number of files that failed to parse.
func (a *UsageAnalyzer) scanAll(ctx context.Context, files []string, ix *index.Index, counts *counter.Counts) int {
	onProgress := fileproc.ProgressFunc(nil)
	var tracker *progress.Tracker
	if a.progress {
		tracker = progress.NewTracker("Scanning class files", len(files))
		onProgress = tracker.Tick
	}

	_, errs := fileproc.ForEachFileWithContext(ctx, files, a.workers,
		func(path string) (struct{}, error) {
			return struct{}{}, a.scanOne(path, ix, counts)
		},
		onProgress,
	)

	if tracker != nil {
		if err := ctx.Err(); err != nil {
			tracker.FinishError(err)
		} else {
			tracker.FinishSuccess()
		}
	}

	if errs == nil {
		return 0
	}
	failed := 0
	for _, pe := range errs.Errors {
		if errors.Is(pe.Err, context.Canceled) || errors.Is(pe.Err, context.DeadlineExceeded) {
			continue
		}
		a.warn("skipping %s: %v", pe.Path, pe.Err)
		failed++
	}
	return failed
}

// scanOne runs the decode-scan-count pipeline for a single compiled unit.
func (a *UsageAnalyzer) scanOne(path string, ix *index.Index, counts *counter.Counts) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	cf, err := classfile.Parse(data)
	if err != nil {
		return err
	}
	if err := scan.Err(cf); err != nil {
		return err
	}

	for name := range scan.References(cf) {
		// array descriptors carry no owner, same treatment as the unknown
		if name == "" || strings.HasPrefix(name, "[") {
			continue
		}
		if art, ok := ix.Lookup(name); ok {
			counts.Inc(art.Coordinate())
		}
	}
	return nil
}

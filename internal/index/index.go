// Package index builds the class-name to artifact index from the resolved
// dependency archives. The index is constructed once, before any scan worker
// starts, and is read-only afterwards.
package index

import (
	"archive/zip"
	"fmt"
	"os"
	"strings"

	"github.com/tkoenig/jarusage/internal/artifact"
	"github.com/tkoenig/jarusage/internal/cache"
)

const classSuffix = ".class"

// Index maps internal class names (slash-separated) to the artifact that
// supplies them.
type Index struct {
	classes    map[string]artifact.Artifact
	collisions int
	skipped    int
}

// Lookup returns the artifact owning the given internal class name.
func (ix *Index) Lookup(name string) (artifact.Artifact, bool) {
	a, ok := ix.classes[name]
	return a, ok
}

// Len returns the number of indexed classes.
func (ix *Index) Len() int {
	return len(ix.classes)
}

// Collisions returns how many class entries were dropped because another
// artifact earlier in the dependency set already supplied the same name.
// A non-zero value usually means shaded or duplicated jars on the classpath.
func (ix *Index) Collisions() int {
	return ix.collisions
}

// Skipped returns how many archives could not be read and contributed no
// classes. References into those artifacts read as zero.
func (ix *Index) Skipped() int {
	return ix.skipped
}

// WarnFunc receives recoverable per-archive problems. The archive's classes
// are simply absent from the index; the build continues.
type WarnFunc func(a artifact.Artifact, err error)

// Options configures Build.
type Options struct {
	Cache *cache.Cache
	Warn  WarnFunc
}

// Option is a functional option for Build.
type Option func(*Options)

// WithCache uses c to memoize per-archive class listings across runs.
func WithCache(c *cache.Cache) Option {
	return func(o *Options) {
		o.Cache = c
	}
}

// WithWarnFunc installs a callback for skipped archives.
func WithWarnFunc(fn WarnFunc) Option {
	return func(o *Options) {
		o.Warn = fn
	}
}

// Build indexes every archive in the dependency set, in order. When two
// artifacts supply a class of the same internal name the first one in the set
// wins; later duplicates are counted as collisions and dropped, so the policy
// is deterministic in the manifest order rather than an accident of map
// iteration.
//
// Archives that are missing, are directories, or cannot be opened as ZIP
// containers are reported through the warn callback and skipped.
func Build(artifacts []artifact.Artifact, opts ...Option) (*Index, error) {
	options := &Options{Cache: cache.Disabled()}
	for _, opt := range opts {
		opt(options)
	}

	ix := &Index{classes: make(map[string]artifact.Artifact)}

	for _, a := range artifacts {
		classes, err := archiveClasses(a, options.Cache)
		if err != nil {
			ix.skipped++
			if options.Warn != nil {
				options.Warn(a, err)
			}
			continue
		}
		for _, name := range classes {
			if _, taken := ix.classes[name]; taken {
				ix.collisions++
				continue
			}
			ix.classes[name] = a
		}
	}
	return ix, nil
}

// archiveClasses lists the normalized class names inside one archive,
// consulting the cache first.
func archiveClasses(a artifact.Artifact, c *cache.Cache) ([]string, error) {
	if a.ArchivePath == "" {
		return nil, fmt.Errorf("artifact %s has no archive path", a.Coordinate())
	}

	info, err := os.Stat(a.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", a.ArchivePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("archive %s is a directory", a.ArchivePath)
	}

	stamp, err := cache.ArchiveStamp(a.ArchivePath)
	if err == nil {
		if classes, ok := c.GetClasses(a.ArchivePath, stamp); ok {
			return classes, nil
		}
	}

	zr, err := zip.OpenReader(a.ArchivePath)
	if err != nil {
		return nil, fmt.Errorf("opening archive %s: %w", a.ArchivePath, err)
	}
	defer zr.Close()

	var classes []string
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, classSuffix) {
			continue
		}
		classes = append(classes, normalizeEntryName(f.Name))
	}

	if stamp != "" {
		// best effort; a failed write only costs the next run a re-read
		_ = c.PutClasses(a.ArchivePath, stamp, classes)
	}
	return classes, nil
}

// normalizeEntryName strips the class suffix and normalizes separators, so
// archive entries written with backslashes still index correctly.
func normalizeEntryName(name string) string {
	name = strings.TrimSuffix(name, classSuffix)
	return strings.ReplaceAll(name, `\`, "/")
}

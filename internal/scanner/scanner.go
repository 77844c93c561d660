// Package scanner discovers compiled class files under an output root.
package scanner

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

const classSuffix = ".class"

// Scanner finds .class files beneath a compiled-output directory.
type Scanner struct {
	matcher gitignore.Matcher
}

// New creates a scanner. The exclude patterns use gitignore syntax and are
// matched against paths relative to the scanned root, so patterns like
// "generated/**" or "*Test.class" work as expected.
func New(excludePatterns []string) *Scanner {
	s := &Scanner{}
	if len(excludePatterns) > 0 {
		patterns := make([]gitignore.Pattern, 0, len(excludePatterns))
		for _, p := range excludePatterns {
			patterns = append(patterns, gitignore.ParsePattern(p, nil))
		}
		s.matcher = gitignore.NewMatcher(patterns)
	}
	return s
}

func (s *Scanner) isExcluded(relPath string, isDir bool) bool {
	if s.matcher == nil {
		return false
	}
	return s.matcher.Match(strings.Split(relPath, string(filepath.Separator)), isDir)
}

// ScanDir recursively collects all class files under root. Unreadable
// subtrees are skipped rather than failing the walk; a missing root is the
// caller's case to handle (os.IsNotExist on the returned error).
func (s *Scanner) ScanDir(root string) ([]string, error) {
	files := make([]string, 0, 256)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}

		relPath, _ := filepath.Rel(root, path)

		if d.IsDir() {
			if s.isExcluded(relPath, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(d.Name(), classSuffix) {
			return nil
		}
		if s.isExcluded(relPath, false) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Package fs provides file system adapters for discovering units and fingerprinting the environment.
package fs

import (
	"io/fs"
	"iter"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// Walker provides file walking functionality.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields the path of every file below root. Hidden entries and paths
// excluded by the .gitignore files inside root are skipped.
func (w *Walker) WalkFiles(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		var ignored gitignore.Matcher
		if patterns, err := gitignore.ReadPatterns(osfs.New(root), nil); err == nil && len(patterns) > 0 {
			ignored = gitignore.NewMatcher(patterns)
		}

		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}

			if w.shouldSkip(root, path, d, ignored) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}

			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

// shouldSkip reports whether a hidden or ignored entry should be left out.
func (w *Walker) shouldSkip(root, path string, d fs.DirEntry, ignored gitignore.Matcher) bool {
	if strings.HasPrefix(d.Name(), ".") {
		return true
	}
	if ignored == nil {
		return false
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return ignored.Match(strings.Split(filepath.ToSlash(rel), "/"), d.IsDir())
}

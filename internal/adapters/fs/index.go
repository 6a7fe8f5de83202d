package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

type source struct {
	provider *domain.UnitProvider
	path     string
}

// Index implements ports.SourceIndex over the source roots of a project.
// Locations are slash-separated paths relative to the project root.
type Index struct {
	base     string
	roots    []string
	volatile []gitignore.Pattern
	walker   *Walker

	mu     sync.Mutex
	byLoc  map[string]source
	byName map[string]*domain.UnitProvider
}

var _ ports.SourceIndex = (*Index)(nil)

// NewIndex creates an index over the source path of project.
func NewIndex(project *domain.Project, walker *Walker) *Index {
	volatile := make([]gitignore.Pattern, 0, len(project.Volatile))
	for _, p := range project.Volatile {
		volatile = append(volatile, gitignore.ParsePattern(p, nil))
	}
	return &Index{
		base:     project.Root,
		roots:    project.SourcePath,
		volatile: volatile,
		walker:   walker,
		byLoc:    make(map[string]source),
		byName:   make(map[string]*domain.UnitProvider),
	}
}

// Scan walks every source root and returns the units on the source path.
// When two roots hold the same package path, the earlier root wins.
func (x *Index) Scan(ctx context.Context) ([]*domain.UnitProvider, error) {
	var (
		units  []*domain.UnitProvider
		byLoc  = make(map[string]source)
		byName = make(map[string]*domain.UnitProvider)
		seen   = make(map[string]struct{})
	)

	x.mu.Lock()
	previous := x.byLoc
	x.mu.Unlock()

	for _, root := range x.roots {
		if _, err := os.Stat(root); err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceScanFailed.Error()), "root", root)
		}
		for path := range x.walker.WalkFiles(root) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if !strings.HasSuffix(path, domain.SourceExt) {
				continue
			}
			info, err := os.Stat(path)
			if err != nil {
				continue
			}

			p := x.newProvider(root, path, info.ModTime())
			if _, shadowed := seen[p.TypeName]; shadowed {
				continue
			}
			seen[p.TypeName] = struct{}{}
			if old, ok := previous[p.Location]; ok && old.provider.LastModified.Equal(p.LastModified) {
				p = old.provider
			}
			byLoc[p.Location] = source{provider: p, path: path}
			if !p.IsPackageInfo() {
				byName[p.TypeName] = p
			}
			units = append(units, p)
		}
	}

	x.mu.Lock()
	x.byLoc = byLoc
	x.byName = byName
	x.mu.Unlock()
	return units, nil
}

// Lookup returns the unit declaring the top-level type qualifiedName. Units
// created after the last scan are found by probing the source roots.
func (x *Index) Lookup(qualifiedName string) (*domain.UnitProvider, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if p, ok := x.byName[qualifiedName]; ok {
		return p, true
	}
	if qualifiedName == "" {
		return nil, false
	}

	rel := filepath.FromSlash(strings.ReplaceAll(qualifiedName, ".", "/")) + domain.SourceExt
	for _, root := range x.roots {
		path := filepath.Join(root, rel)
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		p := x.newProvider(root, path, info.ModTime())
		x.byLoc[p.Location] = source{provider: p, path: path}
		x.byName[qualifiedName] = p
		return p, true
	}
	return nil, false
}

// Exists reports whether the file backing p is still present.
func (x *Index) Exists(p *domain.UnitProvider) bool {
	x.mu.Lock()
	src, ok := x.byLoc[p.Location]
	x.mu.Unlock()
	if !ok {
		return false
	}
	_, err := os.Stat(src.path)
	return err == nil
}

func (x *Index) newProvider(root, path string, modified time.Time) *domain.UnitProvider {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	rel = filepath.ToSlash(rel)

	stem := strings.TrimSuffix(rel, domain.SourceExt)
	pkg, _ := domain.SplitQualified(strings.ReplaceAll(stem, "/", "."))
	typeName := strings.ReplaceAll(stem, "/", ".")

	p := domain.NewUnitProvider(x.location(path), pkg, typeName, modified, func() ([]byte, error) {
		//nolint:gosec // Path comes from walking a configured source root
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrSourceReadFailed.Error()), "path", path)
		}
		return data, nil
	})
	p.Volatile = x.isVolatile(rel)
	return p
}

func (x *Index) location(path string) string {
	if rel, err := filepath.Rel(x.base, path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

func (x *Index) isVolatile(rel string) bool {
	parts := strings.Split(rel, "/")
	for _, p := range x.volatile {
		if p.Match(parts, false) == gitignore.Exclude {
			return true
		}
	}
	return false
}

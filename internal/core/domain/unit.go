package domain

import (
	"strings"
	"sync"
	"time"
)

// SourceFunc fetches the source text of a unit.
type SourceFunc func() ([]byte, error)

// UnitProvider describes one translation unit known to the build.
// Location is its identity; two providers with the same location describe the same unit.
type UnitProvider struct {
	// Location is the stable, slash-separated location of the unit (e.g. "src/com/example/Foo.java").
	Location string
	// Package is the package the unit declares, in dotted form.
	Package string
	// TypeName is the qualified name of the unit's main top-level type.
	TypeName string
	// LastModified is the modification time of the backing source.
	LastModified time.Time
	// Transient marks synthetic units that must never be cached across builds.
	Transient bool
	// Volatile marks units produced by non-deterministic sources; they count as changed every cycle.
	Volatile bool

	fetch SourceFunc
	once  sync.Once
	src   []byte
	err   error
}

// NewUnitProvider creates a provider whose source is fetched lazily by fetch.
func NewUnitProvider(location, pkg, typeName string, modified time.Time, fetch SourceFunc) *UnitProvider {
	return &UnitProvider{
		Location:     location,
		Package:      pkg,
		TypeName:     typeName,
		LastModified: modified,
		fetch:        fetch,
	}
}

// NewSourceUnit creates a provider over in-memory source text.
func NewSourceUnit(location, pkg, typeName string, modified time.Time, src string) *UnitProvider {
	return NewUnitProvider(location, pkg, typeName, modified, func() ([]byte, error) {
		return []byte(src), nil
	})
}

// Source returns the unit's source text, fetching it on first use.
func (u *UnitProvider) Source() ([]byte, error) {
	u.once.Do(func() {
		if u.fetch == nil {
			u.err = ErrSourceReadFailed
			return
		}
		u.src, u.err = u.fetch()
	})
	return u.src, u.err
}

// IsPackageInfo reports whether the unit is a package descriptor.
func (u *UnitProvider) IsPackageInfo() bool {
	return strings.HasSuffix(u.Location, "/"+PackageInfoName+SourceExt) || u.Location == PackageInfoName+SourceExt
}

// Stamp returns the cache stamp of the unit's resolved form under env.
func (u *UnitProvider) Stamp(env string) Stamp {
	return Stamp{Env: env, SourceTime: u.LastModified.UnixNano()}
}

// OuterName strips nested-type markers from a binary name, leaving the top-level type
// that declares it ("a.b.Outer$Inner" becomes "a.b.Outer").
func OuterName(name string) string {
	if i := strings.IndexByte(name, '$'); i > 0 {
		return name[:i]
	}
	return name
}

// SplitQualified splits a qualified name into its package and simple name.
func SplitQualified(name string) (string, string) {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}

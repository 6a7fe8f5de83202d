package ports

import "go.trai.ch/lathe/internal/core/domain"

// ArtifactCache is a string-keyed store of opaque payloads with version stamps.
// Implementations must be safe for concurrent use.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type ArtifactCache interface {
	// Get returns the payload stored under key if its stamp equals want.
	// A mismatching entry is evicted and reported as absent.
	Get(key string, want domain.Stamp) ([]byte, bool)
	// Put stores payload under key. Only persisted entries survive the process.
	Put(key string, payload []byte, stamp domain.Stamp, persist bool)
	// PutIfAbsent stores payload unless an entry for key already exists.
	PutIfAbsent(key string, payload []byte, stamp domain.Stamp, persist bool) bool
	// Remove deletes key from memory and disk.
	Remove(key string)
	// Clear drops every entry and the backing directory.
	Clear() error
	// Persistent reports whether entries are currently written to disk.
	Persistent() bool
}

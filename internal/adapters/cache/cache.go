// Package cache implements the persistent artifact cache: an in-memory overlay
// with an optional one-file-per-key backing directory.
package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

type entry struct {
	payload []byte
	stamp   domain.Stamp
	persist bool
}

// Cache implements ports.ArtifactCache.
// Every read and write runs under one lock, so a get-then-put sequence is atomic.
type Cache struct {
	mu      sync.Mutex
	dir     string
	logger  ports.Logger
	entries map[string]entry
	// misses remembers keys known to be absent on disk.
	misses   map[string]struct{}
	degraded bool
}

var _ ports.ArtifactCache = (*Cache)(nil)

// New creates a cache backed by dir. An empty dir keeps every entry in memory.
func New(dir string, logger ports.Logger) *Cache {
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	return &Cache{
		dir:     dir,
		logger:  logger,
		entries: make(map[string]entry),
		misses:  make(map[string]struct{}),
	}
}

// NewMemory creates a cache without a backing directory.
func NewMemory(logger ports.Logger) *Cache {
	return New("", logger)
}

// Dir returns the backing directory, or "" for a memory-only cache.
func (c *Cache) Dir() string {
	return c.dir
}

// Get returns the payload stored under key if its stamp equals want.
func (c *Cache) Get(key string, want domain.Stamp) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key, want)
}

// Put stores payload under key, writing it through to disk when persist is set.
func (c *Cache) Put(key string, payload []byte, stamp domain.Stamp, persist bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.put(key, payload, stamp, persist)
}

// PutIfAbsent stores payload unless a valid entry for key already exists.
func (c *Cache) PutIfAbsent(key string, payload []byte, stamp domain.Stamp, persist bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.get(key, stamp); ok {
		return false
	}
	c.put(key, payload, stamp, persist)
	return true
}

// Remove deletes key from memory and disk.
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	c.misses[key] = struct{}{}
	c.removeFile(key)
}

// Clear drops every entry and removes the backing directory.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.misses = make(map[string]struct{})
	if c.dir == "" {
		return nil
	}
	if err := os.RemoveAll(c.dir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCacheClearFailed.Error()), "dir", c.dir)
	}
	return nil
}

// Persistent reports whether entries are currently written to disk.
func (c *Cache) Persistent() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.persistent()
}

func (c *Cache) persistent() bool {
	return c.dir != "" && !c.degraded
}

func (c *Cache) get(key string, want domain.Stamp) ([]byte, bool) {
	if e, ok := c.entries[key]; ok {
		if e.stamp.Equal(want) {
			return e.payload, true
		}
		delete(c.entries, key)
		c.misses[key] = struct{}{}
		if e.persist {
			c.removeFile(key)
		}
		return nil, false
	}
	if c.dir == "" {
		return nil, false
	}
	if _, ok := c.misses[key]; ok {
		return nil, false
	}

	e, err := c.readFile(key)
	if err != nil {
		c.misses[key] = struct{}{}
		if !errors.Is(err, fs.ErrNotExist) {
			c.removeFile(key)
		}
		return nil, false
	}
	if !e.stamp.Equal(want) {
		c.misses[key] = struct{}{}
		c.removeFile(key)
		return nil, false
	}
	c.entries[key] = e
	return e.payload, true
}

func (c *Cache) put(key string, payload []byte, stamp domain.Stamp, persist bool) {
	c.entries[key] = entry{payload: payload, stamp: stamp, persist: persist}
	delete(c.misses, key)
	if !c.persistent() {
		return
	}
	if !persist {
		c.removeFile(key)
		return
	}
	if err := c.writeFile(key, payload, stamp); err != nil {
		c.degrade(err)
	}
}

func (c *Cache) degrade(err error) {
	c.degraded = true
	c.logger.Warn("artifact cache directory " + c.dir + " is not writable, continuing in memory: " + err.Error())
}

func (c *Cache) readFile(key string) (entry, error) {
	//nolint:gosec // Path is built from the configured cache dir and a sanitized key
	data, err := os.ReadFile(filepath.Join(c.dir, fileName(key)))
	if err != nil {
		return entry{}, err
	}
	stored, payload, stamp, err := decode(data)
	if err != nil {
		return entry{}, err
	}
	if stored != key {
		return entry{}, zerr.With(zerr.Wrap(domain.ErrCacheEntryCorrupt, "key mismatch"), "key", key)
	}
	return entry{payload: payload, stamp: stamp, persist: true}, nil
}

func (c *Cache) writeFile(key string, payload []byte, stamp domain.Stamp) error {
	if err := os.MkdirAll(c.dir, domain.DirPerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(c.dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(encode(key, payload, stamp)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(c.dir, fileName(key))); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func (c *Cache) removeFile(key string) {
	if c.dir == "" {
		return
	}
	_ = os.Remove(filepath.Join(c.dir, fileName(key)))
}

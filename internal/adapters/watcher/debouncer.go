package watcher

import (
	"slices"
	"sync"
	"time"
	"unique"
)

// DefaultDebounceWindow is the quiet period after the last event before a rebuild starts.
const DefaultDebounceWindow = 100 * time.Millisecond

// Debouncer coalesces rapid file system events into one batch per quiet period.
type Debouncer struct {
	mu       sync.Mutex
	pending  map[unique.Handle[string]]struct{}
	timer    *time.Timer
	window   time.Duration
	callback func(paths []string)
	stopped  bool
}

// NewDebouncer creates a debouncer that calls callback with the sorted set of
// paths seen during each quiet period.
func NewDebouncer(window time.Duration, callback func(paths []string)) *Debouncer {
	return &Debouncer{
		pending:  make(map[unique.Handle[string]]struct{}),
		window:   window,
		callback: callback,
	}
}

// Add records path and restarts the quiet period. Paths added after Stop are dropped.
func (d *Debouncer) Add(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[unique.Make(path)] = struct{}{}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

// take empties the pending set. The caller holds d.mu.
func (d *Debouncer) take() []string {
	paths := make([]string, 0, len(d.pending))
	for handle := range d.pending {
		paths = append(paths, handle.Value())
	}
	slices.Sort(paths)
	d.pending = make(map[unique.Handle[string]]struct{})
	return paths
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	d.timer = nil
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	paths := d.take()
	d.mu.Unlock()

	if d.callback != nil {
		go d.callback(paths)
	}
}

// Flush runs the callback for the pending paths now and waits for it to return.
// It does nothing if the quiet period has already ended.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		if !d.timer.Stop() {
			d.mu.Unlock()
			return
		}
		d.timer = nil
	}
	paths := d.take()
	d.mu.Unlock()

	if len(paths) > 0 && d.callback != nil {
		d.callback(paths)
	}
}

// Stop drops pending paths and ignores later ones.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = make(map[unique.Handle[string]]struct{})
}

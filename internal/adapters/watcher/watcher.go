// Package watcher turns file system events under the source roots into
// batched rebuild triggers.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// skipDirectories are never watched.
var skipDirectories = map[string]bool{
	".git":         true,
	".jj":          true,
	".lathe":       true,
	"node_modules": true,
}

const eventChannelBuffer = 100

// Watcher implements ports.Watcher using fsnotify. Only events that can change
// a compilation unit are forwarded: Java sources, and directories that appear
// or disappear.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	events    chan ports.WatchEvent
}

// NewWatcher creates a new file system watcher. Watch errors are reported to logger.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}
	return &Watcher{
		fsWatcher: watcher,
		logger:    logger,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
	}, nil
}

// Start begins watching every root recursively. A root that does not exist is
// skipped; one that cannot be watched fails the call.
func (w *Watcher) Start(ctx context.Context, roots []string) error {
	for _, root := range roots {
		if _, err := os.Stat(root); err != nil {
			continue
		}
		for dir := range watchRecursively(root) {
			if err := w.fsWatcher.Add(dir); err != nil {
				return zerr.With(zerr.Wrap(err, "failed to watch directory"), "dir", dir)
			}
		}
	}

	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events returns an iterator of file system events. It ends when the watcher
// stops or the context passed to Start is done.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// watchRecursively yields root and every directory below it that is not skipped.
func watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are not watched
			}
			if !d.IsDir() {
				return nil
			}
			if path != root && skipDirectories[d.Name()] {
				return fs.SkipDir
			}
			if !yield(path) {
				return filepath.SkipAll
			}
			return nil
		})
	}
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			dir := false
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					dir = true
					if skipDirectories[info.Name()] {
						continue
					}
					for sub := range watchRecursively(event.Name) {
						_ = w.fsWatcher.Add(sub)
					}
				}
			}

			watchEvent, ok := convertEvent(event, dir)
			if !ok {
				continue
			}
			select {
			case w.events <- watchEvent:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn("watcher: file system error: " + err.Error())
			}
		}
	}
}

// convertEvent maps an fsnotify event to a ports.WatchEvent. Events on files
// that are not Java sources are dropped. The path of a removed or renamed
// entry can no longer be inspected, so one without an extension is assumed to
// be a directory.
func convertEvent(event fsnotify.Event, dir bool) (ports.WatchEvent, bool) {
	var op ports.WatchOp
	switch {
	case event.Op.Has(fsnotify.Write):
		op = ports.OpWrite
	case event.Op.Has(fsnotify.Create):
		op = ports.OpCreate
	case event.Op.Has(fsnotify.Remove):
		op = ports.OpRemove
	case event.Op.Has(fsnotify.Rename):
		op = ports.OpRename
	default:
		return ports.WatchEvent{}, false
	}

	relevant := isSource(event.Name)
	switch op {
	case ports.OpCreate:
		relevant = relevant || dir
	case ports.OpRemove, ports.OpRename:
		relevant = relevant || filepath.Ext(event.Name) == ""
	case ports.OpWrite:
	}
	if !relevant {
		return ports.WatchEvent{}, false
	}
	return ports.WatchEvent{Path: event.Name, Operation: op}, true
}

func isSource(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".java") && !strings.HasPrefix(name, ".")
}

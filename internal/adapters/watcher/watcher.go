package watcher

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"unique"

	"github.com/fsnotify/fsnotify"
	"github.com/planoci/plano/internal/core/ports"
)

var _ ports.Watcher = (*Watcher)(nil)

const eventChannelBuffer = 100

// Watcher implements document watching using fsnotify. It watches the parent
// directories of the given files because editors replace files on save, which
// would otherwise drop the watch on the inode.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	events    chan ports.WatchEvent

	mu      sync.Mutex
	files   map[unique.Handle[string]]struct{}
	watched map[string]struct{}
}

// NewWatcher creates a new document watcher.
func NewWatcher() (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
		files:     make(map[unique.Handle[string]]struct{}),
		watched:   make(map[string]struct{}),
	}, nil
}

// Watch replaces the set of watched files.
func (w *Watcher) Watch(paths []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.files = make(map[unique.Handle[string]]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		w.files[unique.Make(abs)] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := w.watched[dir]; ok {
			continue
		}
		if err := w.fsWatcher.Add(dir); err != nil {
			return err
		}
		w.watched[dir] = struct{}{}
	}
	return nil
}

// Start begins dispatching events for the watched set.
func (w *Watcher) Start(ctx context.Context) error {
	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events returns an iterator of file system events.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// interested reports whether the event path is one of the watched files.
func (w *Watcher) interested(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[unique.Make(abs)]
	return ok
}

// processEvents converts raw fsnotify events to ports.WatchEvent, filtering
// down to the watched file set.
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

			if !w.interested(event.Name) {
				continue
			}
			watchEvent := w.convertEvent(event)
			if watchEvent == nil {
				continue
			}

			select {
			case w.events <- *watchEvent:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			fmt.Fprintf(os.Stderr, "watcher: file system error: %v\n", err)
		}
	}
}

// convertEvent converts an fsnotify event to a ports.WatchEvent.
func (w *Watcher) convertEvent(event fsnotify.Event) *ports.WatchEvent {
	path := event.Name

	if event.Op&fsnotify.Write == fsnotify.Write {
		return &ports.WatchEvent{Path: path, Operation: ports.OpWrite}
	}
	if event.Op&fsnotify.Create == fsnotify.Create {
		return &ports.WatchEvent{Path: path, Operation: ports.OpCreate}
	}
	if event.Op&fsnotify.Remove == fsnotify.Remove {
		return &ports.WatchEvent{Path: path, Operation: ports.OpRemove}
	}
	if event.Op&fsnotify.Rename == fsnotify.Rename {
		return &ports.WatchEvent{Path: path, Operation: ports.OpRename}
	}
	return nil
}

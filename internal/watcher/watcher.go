// Package watcher reports debounced changes to a document and theme files.
package watcher

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/tmstyle/internal/log"
	"github.com/zjrosen/tmstyle/internal/pubsub"
)

// Event is the payload published on the watcher's broker. Paths is set for
// FilesChangedEvent and lists the paths touched during one debounce window,
// sorted. Err is set for WatchErrorEvent.
type Event struct {
	Paths []string
	Err   error
}

// Watcher monitors files and theme directories and publishes one event per
// burst of writes.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	broker    *pubsub.Broker[Event]
	files     map[string]bool
	dirs      map[string]bool
	exts      map[string]bool
	debounce  time.Duration
	done      chan struct{}
	stopOnce  sync.Once
}

// Config holds watcher configuration options.
type Config struct {
	// Files are watched individually through their parent directory.
	Files []string
	// Dirs report changes to any file whose extension is in Extensions.
	Dirs        []string
	Extensions  []string
	DebounceDur time.Duration
}

// DefaultConfig watches file with the default debounce.
func DefaultConfig(file string) Config {
	return Config{
		Files:       []string{file},
		Extensions:  []string{".json", ".yaml", ".yml", ".toml"},
		DebounceDur: 200 * time.Millisecond,
	}
}

// New creates a watcher. Nothing is watched until Start.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher: fsw,
		broker:    pubsub.NewBroker[Event](pubsub.WithName("watcher")),
		files:     make(map[string]bool),
		dirs:      make(map[string]bool),
		exts:      make(map[string]bool),
		debounce:  cfg.DebounceDur,
		done:      make(chan struct{}),
	}
	for _, f := range cfg.Files {
		w.files[filepath.Clean(f)] = true
	}
	for _, d := range cfg.Dirs {
		w.dirs[filepath.Clean(d)] = true
	}
	for _, e := range cfg.Extensions {
		w.exts[strings.ToLower(e)] = true
	}
	return w, nil
}

// Broker delivers FilesChangedEvent and WatchErrorEvent. Subscribe before
// Start to see every event.
func (w *Watcher) Broker() *pubsub.Broker[Event] {
	return w.broker
}

// Start begins watching the parent directories of the files and the
// configured directories.
func (w *Watcher) Start() error {
	targets := make(map[string]bool)
	for f := range w.files {
		targets[filepath.Dir(f)] = true
	}
	for d := range w.dirs {
		targets[d] = true
	}
	for dir := range targets {
		if err := w.fsWatcher.Add(dir); err != nil {
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
		log.Debug(log.CatWatcher, "watching directory", "dir", dir)
	}

	go w.loop()
	return nil
}

// Stop terminates the watcher, closes the broker and releases resources.
// It is idempotent.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.fsWatcher.Close()
		w.broker.Close()
	})
	return err
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending = make(map[string]bool)
	)

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.isRelevantEvent(event) {
				continue
			}
			pending[filepath.Clean(event.Name)] = true

			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-func() <-chan time.Time {
			if timer != nil {
				return timer.C
			}
			return nil
		}():
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(pending)

			log.Debug(log.CatWatcher, "change detected", "paths", paths)
			w.broker.Publish(pubsub.FilesChangedEvent, Event{Paths: paths})

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err)
			w.broker.Publish(pubsub.WatchErrorEvent, Event{Err: err})

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// isRelevantEvent accepts writes, creates and renames of watched files and
// of theme files inside watched directories.
func (w *Watcher) isRelevantEvent(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}

	name := filepath.Clean(event.Name)
	if w.files[name] {
		return true
	}
	return w.dirs[filepath.Dir(name)] && w.exts[strings.ToLower(filepath.Ext(name))]
}

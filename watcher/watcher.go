package watcher

import (
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay is how long changes must settle before a re-run.
const debounceDelay = 500 * time.Millisecond

// Watcher re-runs the pipeline when the config file or a source image
// changes. Parent directories are watched so that editor save-by-rename
// still produces events for the files we care about.
type Watcher struct {
	watcher *fsnotify.Watcher
	run     func()

	// mu guards paths, timers and stopped; timer callbacks run on their
	// own goroutines.
	mu      sync.Mutex
	paths   map[string]bool
	timers  map[string]*time.Timer
	stopped bool
}

// New creates a watcher that invokes run after changes settle.
func New(run func()) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher: fsWatcher,
		run:     run,
		paths:   make(map[string]bool),
		timers:  make(map[string]*time.Timer),
	}, nil
}

// Add registers a file to watch.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	dir := filepath.Dir(abs)
	w.mu.Lock()
	w.paths[abs] = true
	w.mu.Unlock()

	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch folder %s: %w", dir, err)
	}
	log.Printf("Watching: %s", abs)
	return nil
}

// Start begins processing events in the background.
func (w *Watcher) Start() {
	go w.processEvents()
}

// processEvents filters fsnotify events down to the registered files and
// debounces rapid successive writes before re-running the pipeline.
func (w *Watcher) processEvents() {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			name, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}

			// Debounce: (re)arm the timer for this file
			w.mu.Lock()
			if !w.paths[name] || w.stopped {
				w.mu.Unlock()
				continue
			}
			if timer, exists := w.timers[name]; exists {
				timer.Stop()
			}
			w.timers[name] = time.AfterFunc(debounceDelay, func() {
				w.fire(name)
			})
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

// fire runs the pipeline for a settled change, unless Stop got there first.
func (w *Watcher) fire(name string) {
	w.mu.Lock()
	delete(w.timers, name)
	stopped := w.stopped
	w.mu.Unlock()

	if stopped {
		return
	}
	log.Printf("Change detected: %s", name)
	w.run()
}

// Stop stops the watcher and cancels any pending re-runs.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	w.stopped = true
	for name, timer := range w.timers {
		timer.Stop()
		delete(w.timers, name)
	}
	w.mu.Unlock()

	return w.watcher.Close()
}

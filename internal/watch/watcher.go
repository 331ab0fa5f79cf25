// Package watch re-runs the organizer when files arrive in a directory.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"filenest/internal/fsops"
	"filenest/internal/log"

	"github.com/fsnotify/fsnotify"
)

// FileEvent is a file arrival or change detected by the watcher.
type FileEvent struct {
	Path      string
	Info      os.FileInfo
	Timestamp time.Time
	Op        fsnotify.Op
}

// Watcher monitors directories (non-recursively) for files that appear or
// change. Directories, in-flight copies and ignored paths never produce events.
type Watcher struct {
	directories []string
	ignore      map[string]struct{}

	events    chan FileEvent
	stopChan  chan struct{}
	done      chan struct{}
	fsWatcher *fsnotify.Watcher

	mutex   sync.RWMutex
	running bool
}

// New creates a watcher. Paths in ignore (made absolute) are never reported;
// filenest passes its own config, log and history files here.
func New(ignore ...string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	ignored := make(map[string]struct{}, len(ignore))
	for _, p := range ignore {
		if abs, err := filepath.Abs(p); err == nil {
			ignored[abs] = struct{}{}
		}
	}
	return &Watcher{
		ignore:    ignored,
		events:    make(chan FileEvent, 64),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		fsWatcher: fsWatcher,
	}, nil
}

// AddDirectory starts watching dir.
func (w *Watcher) AddDirectory(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("error resolving directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", abs)
	}

	if err := w.fsWatcher.Add(abs); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", abs, err)
	}

	w.mutex.Lock()
	found := false
	for _, existing := range w.directories {
		if existing == abs {
			found = true
			break
		}
	}
	if !found {
		w.directories = append(w.directories, abs)
	}
	w.mutex.Unlock()
	log.LogWithFields(log.F("directory", abs)).Info("Watching directory")
	return nil
}

// Events delivers file events until the watcher stops.
func (w *Watcher) Events() <-chan FileEvent {
	return w.events
}

// Start begins delivering events.
func (w *Watcher) Start() error {
	w.mutex.Lock()
	defer w.mutex.Unlock()
	if w.running {
		return fmt.Errorf("watcher already running")
	}
	w.running = true

	go w.loop(w.stopChan)
	log.Debug("Watcher started")
	return nil
}

// loop owns the event channel and closes it on exit.
func (w *Watcher) loop(stop <-chan struct{}) {
	defer close(w.done)
	defer close(w.events)
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if ev, ok := w.accept(event); ok {
				// A full channel already holds a pending trigger.
				select {
				case w.events <- ev:
				default:
					log.LogWithFields(log.F("file", event.Name)).Debug("Event channel full, dropped event")
				}
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			log.LogWithError(err).Error("fsnotify watcher error")

		case <-stop:
			return
		}
	}
}

// accept filters raw fsnotify events down to regular files that exist now.
func (w *Watcher) accept(event fsnotify.Event) (FileEvent, bool) {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Rename) {
		return FileEvent{}, false
	}
	if fsops.IsPartial(filepath.Base(event.Name)) {
		return FileEvent{}, false
	}
	if _, ok := w.ignore[event.Name]; ok {
		return FileEvent{}, false
	}

	// Renames report the old name, and files may vanish right after creation.
	info, err := os.Stat(event.Name)
	if err != nil {
		if !os.IsNotExist(err) {
			log.LogWithError(err).With(log.F("file", event.Name)).Warn("Error stating file")
		}
		return FileEvent{}, false
	}
	if info.IsDir() {
		return FileEvent{}, false
	}
	return FileEvent{Path: event.Name, Info: info, Timestamp: time.Now(), Op: event.Op}, true
}

// Stop halts the watcher and closes the event channel.
func (w *Watcher) Stop() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if !w.running {
		return
	}
	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithError(err).Error("Error closing fsnotify watcher")
	}
	<-w.done
	w.running = false
	log.Debug("Watcher stopped")
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	return w.running
}

// Directories returns the watched directories.
func (w *Watcher) Directories() []string {
	w.mutex.RLock()
	defer w.mutex.RUnlock()
	out := make([]string, len(w.directories))
	copy(out, w.directories)
	return out
}

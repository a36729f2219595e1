// Package watcher provides file system watching for the spot data file.
//
// The serve command keeps the session in sync with external edits: when the
// data document changes on disk outside the session (another tool, a manual
// edit), the watcher emits a reload event after a short debounce. Writes
// performed through the session itself are suppressed so saves do not
// boomerang back as reloads.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event signals that the watched data file changed on disk.
type Event struct {
	// Path is the absolute path of the data file.
	Path string
}

// DefaultDebounce batches rapid successive writes into one event.
const DefaultDebounce = 100 * time.Millisecond

// Watcher watches one data file for external modifications.
// It uses fsnotify for cross-platform file system event monitoring.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	debounce time.Duration

	events chan Event
	errors chan error
	done   chan struct{}
	wg     sync.WaitGroup

	mu            sync.Mutex
	running       bool
	suppressUntil time.Time
}

// New creates a watcher for the given data file path. A non-positive
// debounce uses DefaultDebounce. The watcher must be started with Start()
// before it will emit events.
func New(path string, debounce time.Duration) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("path cannot be empty")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		watcher:  fsw,
		path:     abs,
		debounce: debounce,
		events:   make(chan Event, 100),
		errors:   make(chan error, 10),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the data file's directory. Watching the directory
// rather than the file itself survives the atomic temp-file-and-rename
// writes the gateways perform.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("watcher already running")
	}

	dir := filepath.Dir(w.path)
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.running = true
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop stops watching and closes the event channels.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = false
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	close(w.events)
	close(w.errors)
	return err
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Events returns the channel of debounced change events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel of watch errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Suppress ignores file events for the given duration. Callers invoke this
// right before writing the data file themselves so their own save is not
// reported as an external change.
func (w *Watcher) Suppress(d time.Duration) {
	w.mu.Lock()
	until := time.Now().Add(d)
	if until.After(w.suppressUntil) {
		w.suppressUntil = until
	}
	w.mu.Unlock()
}

// suppressed reports whether events are currently being ignored.
func (w *Watcher) suppressed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return time.Now().Before(w.suppressUntil)
}

// loop consumes raw fsnotify events, filters them to the data file, and
// emits one debounced Event per burst of changes.
func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(ev) {
				continue
			}
			if w.suppressed() {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.events <- Event{Path: w.path}:
			default:
				// Listener is behind; the pending event already
				// implies a reload, dropping is safe.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
			}
		}
	}
}

// matches reports whether a raw event concerns the watched file with an
// operation that changes its content.
func (w *Watcher) matches(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

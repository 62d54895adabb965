// Package watcher reports changes of a single data file using fsnotify.
// The parent directory is watched so that atomic replace-by-rename is seen,
// and bursts of events are collapsed into one notification after a quiet period.
package watcher

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is the quiet period used when none is configured.
const DefaultDebounce = 2 * time.Second

// Watcher notifies about changes of one file.
type Watcher struct {
	fw       *fsnotify.Watcher
	path     string
	debounce time.Duration
	logger   *zap.Logger

	done    chan struct{}
	stopped bool
	mu      sync.Mutex
}

// New creates a watcher for path. A debounce <= 0 takes DefaultDebounce.
func New(path string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{
		fw:       fw,
		path:     abs,
		debounce: debounce,
		logger:   logger,
		done:     make(chan struct{}),
	}, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Watch starts monitoring. onChange runs once per burst of events, from the
// watcher goroutine.
func (w *Watcher) Watch(onChange func()) error {
	if err := w.fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	go func() {
		var timer *time.Timer
		var fire <-chan time.Time
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(w.debounce)
				} else {
					timer.Reset(w.debounce)
				}
				fire = timer.C

			case <-fire:
				fire = nil
				w.logger.Info("Data file changed", zap.String("path", w.path))
				onChange()

			case err, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				w.logger.Warn("File watcher error", zap.Error(err))

			case <-w.done:
				if timer != nil {
					timer.Stop()
				}
				return
			}
		}
	}()
	return nil
}

// Stop ends monitoring. Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.done)
	return w.fw.Close()
}

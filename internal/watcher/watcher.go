// Package watcher provides a debounced file watcher used by the
// preview server to pick up glossary and content changes. Rapid
// successive writes (editors often truncate and write in bursts) are
// grouped into a single change notification.
package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/glosslink/glosslink/internal/errors"
	"github.com/glosslink/glosslink/internal/logging"
)

// ChangeHandler handles a debounced batch of changed paths.
type ChangeHandler func(paths []string)

// FileWatcher watches individual files with debouncing.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	delay    time.Duration
	logger   logging.Logger
	handlers []ChangeHandler
	mutex    sync.Mutex
	pending  map[string]struct{}
	timer    *time.Timer
}

// New creates a watcher that groups changes within debounceDelay.
func New(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "watcher_init", "cannot create file watcher")
	}

	return &FileWatcher{
		watcher: w,
		delay:   debounceDelay,
		logger:  logger.WithComponent("watcher"),
		pending: make(map[string]struct{}),
	}, nil
}

// AddHandler registers a handler for debounced change batches.
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddPath watches one file or directory.
func (fw *FileWatcher) AddPath(path string) error {
	if err := fw.watcher.Add(path); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "watcher_add", "cannot watch path").
			WithContext("path", path)
	}
	return nil
}

// Start runs the watch loop until the context is canceled.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.watchLoop(ctx)
}

// Stop stops the watcher and releases its resources.
func (fw *FileWatcher) Stop() error {
	fw.mutex.Lock()
	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.mutex.Unlock()
	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fw.record(event.Name)
			}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn(ctx, err, "file watcher error, continuing")
		}
	}
}

// record marks a path dirty and (re)arms the debounce timer.
func (fw *FileWatcher) record(path string) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()

	fw.pending[path] = struct{}{}

	if fw.timer != nil {
		fw.timer.Stop()
	}
	fw.timer = time.AfterFunc(fw.delay, fw.flush)
}

// flush delivers the pending batch to every handler.
func (fw *FileWatcher) flush() {
	fw.mutex.Lock()
	paths := make([]string, 0, len(fw.pending))
	for p := range fw.pending {
		paths = append(paths, p)
	}
	fw.pending = make(map[string]struct{})
	handlers := make([]ChangeHandler, len(fw.handlers))
	copy(handlers, fw.handlers)
	fw.mutex.Unlock()

	if len(paths) == 0 {
		return
	}
	for _, handler := range handlers {
		handler(paths)
	}
}

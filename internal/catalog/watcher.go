package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stwalsh4118/fairshare/internal/logger"
)

const defaultDebounce = 100 * time.Millisecond

// Watcher reloads a catalog file when it changes on disk and hands each
// successfully decoded document to the registered callback
type Watcher struct {
	path     string
	debounce time.Duration
	onChange func(*Document)
	onError  func(error)

	watcher *fsnotify.Watcher
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher creates a watcher for path. onError may be nil, in which case
// reload failures are only logged.
func NewWatcher(path string, onChange func(*Document), onError func(error)) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog path cannot be empty")
	}
	if onChange == nil {
		return nil, fmt.Errorf("change callback cannot be nil")
	}
	if _, err := ParseFormat(filepath.Ext(path)); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		path:     path,
		debounce: defaultDebounce,
		onChange: onChange,
		onError:  onError,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching the directory that contains the catalog file.
// Editors often replace files rather than write them in place, so the
// directory is watched instead of the file itself.
func (w *Watcher) Start() error {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	dir := filepath.Dir(w.path)
	if err := fsWatcher.Add(dir); err != nil {
		_ = fsWatcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}
	w.watcher = fsWatcher

	go w.watchLoop()

	logger.Log.Info().
		Str("path", w.path).
		Msg("Catalog watcher started")
	return nil
}

// Close stops the watcher and waits for the event loop to exit
func (w *Watcher) Close() error {
	w.cancel()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.scheduleReload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(fmt.Errorf("watch catalog: %w", err))
		}
	}
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}

	doc, err := LoadFile(w.path)
	if err != nil {
		w.report(err)
		return
	}

	logger.Log.Info().
		Str("path", w.path).
		Int("clips", len(doc.Clips)).
		Msg("Catalog file reloaded")
	w.onChange(doc)
}

func (w *Watcher) report(err error) {
	logger.Log.Warn().
		Err(err).
		Str("path", w.path).
		Msg("Catalog reload failed")
	if w.onError != nil {
		w.onError(err)
	}
}

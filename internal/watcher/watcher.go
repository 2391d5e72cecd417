// Package watcher re-ingests files as they change on disk.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/calder-labs/filekb/internal/core/ports/driving"
	"github.com/calder-labs/filekb/internal/logger"
)

// DefaultDebounce is how long a file must stay quiet before it is
// re-ingested. Editors produce bursts of writes per save.
const DefaultDebounce = 2 * time.Second

// Watcher watches a directory tree and ingests changed files after a
// per-file debounce interval.
type Watcher struct {
	ingest    driving.IngestService
	supported func(path string) bool
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// Option configures the watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet interval before re-ingesting a file.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher. supported filters events down to ingestible
// files.
func New(ingest driving.IngestService, supported func(path string) bool, opts ...Option) *Watcher {
	w := &Watcher{
		ingest:    ingest,
		supported: supported,
		debounce:  DefaultDebounce,
		pending:   make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Watch blocks, re-ingesting files under dir as they change, until
// ctx is cancelled. New subdirectories are picked up as they appear.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := addRecursive(fsw, dir); err != nil {
		return err
	}
	logger.Info("Watching %s (debounce %s)", dir, w.debounce)

	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fsw, event)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}

	// A created directory needs its own watch.
	if event.Op&fsnotify.Create != 0 && isDir(event.Name) {
		if err := addRecursive(fsw, event.Name); err != nil {
			logger.Warn("Cannot watch new directory %s: %v", event.Name, err)
		}
		return
	}

	if !w.supported(event.Name) {
		return
	}

	w.schedule(ctx, event.Name)
}

// schedule starts (or resets) the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}

	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
		logger.Info("Re-ingesting %s", path)
		report, err := w.ingest.IngestFile(ctx, path)
		if err != nil {
			logger.Error("Ingest of %s failed: %v", path, err)
			return
		}
		if len(report.Errors) > 0 {
			logger.Warn("Ingest of %s finished with errors: %v", path, report.Errors)
			return
		}
		logger.Debug("Wrote %d chunks from %s", report.ChunksWritten, path)
	})
}

// drain cancels every pending timer.
func (w *Watcher) drain() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
}

// addRecursive watches dir and all subdirectories, skipping hidden
// ones.
func addRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if name := d.Name(); name != "." && len(name) > 1 && name[0] == '.' && path != dir {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

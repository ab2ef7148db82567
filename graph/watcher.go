// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
)

// DefaultDebounceWindow is how long the watcher waits for further
// changes before re-indexing a batch.
const DefaultDebounceWindow = 100 * time.Millisecond

// defaultIgnoreDirs are directory names the watcher never descends into.
var defaultIgnoreDirs = []string{".git", "node_modules", "vendor", "dist"}

// WatcherOptions configures a Watcher.
type WatcherOptions struct {
	// DebounceWindow is how long to wait for more changes before
	// re-indexing. Default: 100ms.
	DebounceWindow time.Duration

	// IgnoreDirs are directory names to skip. Default: .git,
	// node_modules, vendor, dist.
	IgnoreDirs []string
}

// WatcherOption is a functional option for configuring Watcher.
type WatcherOption func(*WatcherOptions)

// WithDebounceWindow sets the debounce window.
func WithDebounceWindow(d time.Duration) WatcherOption {
	return func(o *WatcherOptions) {
		if d > 0 {
			o.DebounceWindow = d
		}
	}
}

// WithIgnoreDirs replaces the ignored directory names.
func WithIgnoreDirs(dirs []string) WatcherOption {
	return func(o *WatcherOptions) {
		o.IgnoreDirs = dirs
	}
}

// Watcher keeps a builder's graph in sync with a source tree.
//
// Description:
//
//	Watches a directory recursively with fsnotify and batches change
//	events through a debounce window, so rapid successive writes during
//	editing trigger one re-index instead of many. Changed files that
//	the builder's adapter supports are re-parsed and re-indexed through
//	Builder.AddFile; deleted files are removed with RemoveFile.
//
//	Because AddFile is a single-file incremental update, references
//	from a changed file into files that have not been re-analyzed carry
//	the documented single-file resolution limitation.
//
// Thread Safety:
//
//	The watcher serializes all builder access through its own event
//	goroutine; it is the single writer for the builder's graph while
//	running.
type Watcher struct {
	builder *Builder
	root    string
	options WatcherOptions

	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a Watcher over root driving the given builder.
func NewWatcher(builder *Builder, root string, opts ...WatcherOption) (*Watcher, error) {
	options := WatcherOptions{
		DebounceWindow: DefaultDebounceWindow,
		IgnoreDirs:     defaultIgnoreDirs,
	}
	for _, opt := range opts {
		opt(&options)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		builder: builder,
		root:    root,
		options: options,
		watcher: fsw,
		done:    make(chan struct{}),
	}, nil
}

// Start begins watching. It registers every non-ignored directory under
// root and launches the event loop. Stop must be called to release the
// underlying watches.
func (w *Watcher) Start(ctx context.Context) error {
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(d.Name()) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
	if err != nil {
		return err
	}

	w.wg.Add(1)
	go w.loop(ctx)
	return nil
}

// Stop ends watching and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
		w.wg.Wait()
	})
}

// ignored reports whether a directory name is skipped.
func (w *Watcher) ignored(name string) bool {
	for _, dir := range w.options.IgnoreDirs {
		if name == dir {
			return true
		}
	}
	return false
}

// loop is the debounced event loop. Changes accumulate until the window
// elapses with no further events, then the batch is applied.
func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	pending := make(map[string]fsnotify.Op)
	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			// New directories need their own watch.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.ignored(filepath.Base(event.Name)) {
						_ = w.watcher.Add(event.Name)
					}
					continue
				}
			}
			pending[event.Name] |= event.Op
			if timer == nil {
				timer = time.NewTimer(w.options.DebounceWindow)
			} else {
				timer.Reset(w.options.DebounceWindow)
			}
			fire = timer.C
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", slog.String("error", err.Error()))
		case <-fire:
			w.apply(ctx, pending)
			pending = make(map[string]fsnotify.Op)
			fire = nil
		}
	}
}

// apply re-indexes one debounced batch of changes.
func (w *Watcher) apply(ctx context.Context, pending map[string]fsnotify.Op) {
	batchID := uuid.NewString()
	for path, op := range pending {
		rel, err := filepath.Rel(w.root, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if op&(fsnotify.Remove|fsnotify.Rename) != 0 {
			if removed := w.builder.Graph().RemoveFile(rel); removed > 0 {
				slog.Debug("removed deleted file from graph",
					slog.String("batch_id", batchID),
					slog.String("file", rel),
					slog.Int("nodes_removed", removed),
				)
			}
			continue
		}

		if !w.builder.adapter.Supports(path) {
			continue
		}
		code, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("cannot read changed file",
				slog.String("file", rel),
				slog.String("error", err.Error()),
			)
			continue
		}
		file, err := w.builder.adapter.Parse(ctx, code, rel)
		if err != nil {
			slog.Warn("cannot re-parse changed file",
				slog.String("file", rel),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := w.builder.AddFile(ctx, file); err != nil {
			slog.Warn("re-index failed",
				slog.String("batch_id", batchID),
				slog.String("file", rel),
				slog.String("error", err.Error()),
			)
			continue
		}
		slog.Debug("re-indexed changed file",
			slog.String("batch_id", batchID),
			slog.String("file", rel),
		)
	}
}

// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package discovery

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeHandler is called with the debounced batch of changed candidates.
type ChangeHandler func(changed []Candidate)

// Watcher re-discovers scannable files as they change on disk. It backs the
// scan --watch mode: edits are debounced so a save storm triggers one
// re-scan batch, not one per write.
//
// Thread Safety: Safe for concurrent use. The handler runs on a single
// goroutine.
type Watcher struct {
	root     string
	handler  ChangeHandler
	debounce time.Duration
	skipDirs map[string]bool

	fsw     *fsnotify.Watcher
	changes chan Candidate

	done     chan struct{}
	stopOnce sync.Once
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce replaces the default 250ms debounce window.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithWatchSkipDirs replaces the default skip-directory list for watching.
func WithWatchSkipDirs(dirs ...string) WatcherOption {
	return func(w *Watcher) {
		w.skipDirs = make(map[string]bool, len(dirs))
		for _, d := range dirs {
			w.skipDirs[d] = true
		}
	}
}

// NewWatcher creates a watcher over root. Call Start to begin watching and
// Stop to release the underlying notifier.
func NewWatcher(root string, handler ChangeHandler, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:     root,
		handler:  handler,
		debounce: 250 * time.Millisecond,
		skipDirs: make(map[string]bool, len(DefaultSkipDirs)),
		fsw:      fsw,
		changes:  make(chan Candidate, 256),
		done:     make(chan struct{}),
	}
	for _, d := range DefaultSkipDirs {
		w.skipDirs[d] = true
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches root and all non-skipped subdirectories until ctx is
// canceled or Stop is called. New directories created under root are added
// to the watch as they appear.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	go w.processEvents(ctx)
	go w.debounceLoop(ctx)
	return nil
}

// Stop releases the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fsw.Close()
	})
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDirs[d.Name()] {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				// A new directory needs its own watch before files inside
				// it produce events.
				if err := w.addRecursive(event.Name); err != nil {
					slog.Warn("Failed to watch new path",
						slog.String("path", event.Name),
						slog.Any("error", err),
					)
				}
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			kind, scannable := Classify(event.Name)
			if !scannable {
				continue
			}
			select {
			case w.changes <- Candidate{Path: event.Name, Kind: kind}:
			default:
				// Buffer full; the debounced batch already has plenty to
				// re-scan.
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("File watcher error", slog.Any("error", err))
		}
	}
}

// debounceLoop batches changes until the window expires quietly, then hands
// the deduplicated batch to the handler.
func (w *Watcher) debounceLoop(ctx context.Context) {
	pending := make(map[string]Candidate)
	var timer *time.Timer
	var fire <-chan time.Time

	flush := func() {
		if len(pending) == 0 {
			return
		}
		batch := make([]Candidate, 0, len(pending))
		for _, c := range pending {
			batch = append(batch, c)
		}
		pending = make(map[string]Candidate)
		w.handler(batch)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case c := <-w.changes:
			pending[c.Path] = c
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			fire = timer.C
		case <-fire:
			fire = nil
			flush()
		}
	}
}

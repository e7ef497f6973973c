// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package runner drives whole-tree scans: it walks roots, fans files out to
// a bounded worker pool, consults the results cache, and folds per-file
// results into a run report. The engine itself stays a pure function; all
// I/O and parallelism live here.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/AleutianAI/markguard/services/scanner"
	"github.com/AleutianAI/markguard/services/scanner/cache"
	"github.com/AleutianAI/markguard/services/scanner/discovery"
)

// ReadFailure records one file the run could not read. Read failures do not
// abort the run; the remaining files are still scanned.
type ReadFailure struct {
	Path string `json:"path"`
	Err  string `json:"error"`
}

// Report is the outcome of one run over one or more roots.
type Report struct {
	// Summary aggregates enabled/disabled counts across all files.
	Summary *scanner.Summary `json:"summary"`

	// Files holds per-file results with at least one violation, sorted by
	// path.
	Files []*scanner.FileResults `json:"files"`

	// ReadFailures lists files that could not be read.
	ReadFailures []ReadFailure `json:"read_failures,omitempty"`

	// CacheHits counts files served from the results cache.
	CacheHits int `json:"cache_hits"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
}

// Clean reports whether the run found no enabled violations and read every
// file it discovered.
func (r *Report) Clean() bool {
	return r.Summary.Clean() && len(r.ReadFailures) == 0
}

// Runner scans directory trees with a bounded worker pool.
//
// Thread Safety: Safe for concurrent use; each Run builds its own state.
type Runner struct {
	eng     *scanner.Engine
	walker  *discovery.Walker
	store   *cache.Store
	workers int
}

// Option configures the Runner.
type Option func(*Runner)

// WithEngine replaces the default scan engine.
func WithEngine(eng *scanner.Engine) Option {
	return func(r *Runner) {
		r.eng = eng
	}
}

// WithWalker replaces the default file walker.
func WithWalker(w *discovery.Walker) Option {
	return func(r *Runner) {
		r.walker = w
	}
}

// WithCache attaches a results cache. Without one every file is scanned.
func WithCache(store *cache.Store) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// WithWorkers bounds scan parallelism. Defaults to GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// New creates a runner with a default engine and walker, no cache, and
// GOMAXPROCS workers.
func New(opts ...Option) *Runner {
	r := &Runner{
		eng:     scanner.New(),
		walker:  discovery.NewWalker(),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run scans every scannable file under the given roots.
//
// Description:
//
//	Discovers candidates via the walker, scans them on a bounded worker
//	pool, and aggregates a Report. Scanners hold no cross-file state, so
//	file-level parallelism needs no locking beyond result collection. A
//	canceled ctx stops the run with the context's error.
//
// Inputs:
//   - ctx: cancels discovery and scanning.
//   - roots: directories (or single files) to scan.
//
// Outputs:
//   - *Report: aggregated results, files sorted by path.
//   - error: discovery failure or ctx cancellation. Per-file read
//     failures are reported in the Report, not returned.
func (r *Runner) Run(ctx context.Context, roots ...string) (*Report, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", discovery.ErrInvalidInput)
	}
	start := time.Now()

	var candidates []discovery.Candidate
	for _, root := range roots {
		found, err := r.walker.Walk(ctx, root)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
	}

	return r.scanAll(ctx, candidates, start)
}

// RunCandidates scans an explicit candidate list, bypassing discovery. The
// watch and diff modes use this for their pre-filtered file sets.
func (r *Runner) RunCandidates(ctx context.Context, candidates []discovery.Candidate) (*Report, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", discovery.ErrInvalidInput)
	}
	return r.scanAll(ctx, candidates, time.Now())
}

func (r *Runner) scanAll(ctx context.Context, candidates []discovery.Candidate, start time.Time) (*Report, error) {
	var (
		mu       sync.Mutex
		files    []*scanner.FileResults
		failures []ReadFailure
		hits     int
	)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, c := range candidates {
		g.Go(func() error {
			results, fromCache, err := r.scanOne(ctx, c)
			if err != nil {
				mu.Lock()
				failures = append(failures, ReadFailure{Path: c.Path, Err: err.Error()})
				mu.Unlock()
				slog.Warn("Skipping unreadable file",
					slog.String("path", c.Path),
					slog.Any("error", err),
				)
				return nil
			}
			mu.Lock()
			files = append(files, results)
			if fromCache {
				hits++
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge single-threaded: Summary is not synchronized.
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	summary := scanner.NewSummary()
	report := &Report{Summary: summary, ReadFailures: failures, CacheHits: hits}
	for _, f := range files {
		summary.Add(f)
		if len(f.Violations) > 0 {
			report.Files = append(report.Files, f)
		}
	}
	report.Duration = time.Since(start)

	slog.Info("Scan run completed",
		slog.String("run_id", summary.RunID),
		slog.Int("files", summary.FilesScanned),
		slog.Int("enabled", summary.TotalEnabled),
		slog.Int("cache_hits", hits),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

// scanOne reads, serves from cache when possible, scans, and backfills the
// cache. The bool reports a cache hit.
func (r *Runner) scanOne(ctx context.Context, c discovery.Candidate) (*scanner.FileResults, bool, error) {
	text, err := discovery.ReadText(c.Path)
	if err != nil {
		return nil, false, err
	}

	if r.store != nil {
		if cached, hit, err := r.store.Get(c.Path, text, c.Kind); err == nil && hit {
			return cached, true, nil
		}
	}

	results, err := r.eng.ScanText(ctx, c.Path, text, c.Kind)
	if err != nil {
		return nil, false, err
	}

	if r.store != nil {
		if err := r.store.Put(text, results); err != nil {
			slog.Debug("Cache write failed", slog.String("path", c.Path), slog.Any("error", err))
		}
	}
	return results, false, nil
}

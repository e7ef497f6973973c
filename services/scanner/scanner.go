// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// =============================================================================
// SCAN ENGINE
// =============================================================================

// Engine dispatches file text to the dialect scanners and applies the shared
// suppression passes.
//
// Description:
//
//	The engine is the core of markguard: it turns (text, kind) into a
//	sorted FileResults. It holds no per-file state, so one Engine may scan
//	many files concurrently. File reads, kind classification, and report
//	rendering are collaborator concerns.
//
// Thread Safety: Safe for concurrent use.
type Engine struct {
	disabledRules map[string]bool
	pragmas       bool
}

// Option configures the Engine.
type Option func(*Engine)

// WithDisabledRules removes the given rule ids from every scan's output.
// Unknown ids are ignored.
func WithDisabledRules(ids ...string) Option {
	return func(e *Engine) {
		for _, id := range ids {
			e.disabledRules[id] = true
		}
	}
}

// WithoutPragmas disables `xss-lint: disable=` processing, so every
// violation stays enabled regardless of in-source annotations.
func WithoutPragmas() Option {
	return func(e *Engine) {
		e.pragmas = false
	}
}

// New creates a scan engine.
//
// Description:
//
//	Creates an engine with the full rule catalog active and pragma
//	processing on. Options narrow that behavior.
//
// Inputs:
//
//	opts - Optional configuration options
//
// Outputs:
//
//	*Engine - The configured engine
func New(opts ...Option) *Engine {
	e := &Engine{
		disabledRules: make(map[string]bool),
		pragmas:       true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// ScanText scans one file's text as the given artifact kind.
//
// Description:
//
//	Runs the dialect scanner for kind, drops violations anchored on
//	comment-only lines, applies disable pragmas, and sorts the result by
//	(line, rule id, column). The JavaScript scanner includes the
//	Underscore template scan, since client templates are routinely
//	inlined in script files.
//
//	A Python parse failure is not a Go error: it surfaces as a single
//	parse-error violation in the results.
//
// Inputs:
//
//	ctx - Context for tracing; scans do not block and are not cancellable
//	path - File path used for reporting; may be empty for in-memory text
//	text - The complete file contents
//	kind - The artifact kind classified by the caller
//
// Outputs:
//
//	*FileResults - Sorted violations for the file
//	error - ErrUnknownKind for an unrecognized kind, ErrInvalidInput for
//	        a nil context
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) ScanText(ctx context.Context, path, text string, kind ArtifactKind) (*FileResults, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}

	ctx, span := startScanSpan(ctx, kind, path)
	defer span.End()
	start := time.Now()

	ix := newLineIndex(text)

	var (
		vs    []Violation
		delim string
	)
	switch kind {
	case KindMako:
		vs, delim = scanMako(text, ix), makoCommentDelim
	case KindUnderscore:
		vs = scanUnderscore(text, ix)
	case KindJavaScript:
		vs, delim = scanJavaScript(text, ix), jsCommentDelim
	case KindPython:
		vs, delim = scanPython(text, ix), pyCommentDelim
	default:
		recordScanMetrics(ctx, kind, time.Since(start), nil, false)
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	if len(e.disabledRules) > 0 {
		kept := vs[:0]
		for _, v := range vs {
			if !e.disabledRules[v.Rule] {
				kept = append(kept, v)
			}
		}
		vs = kept
	}

	vs = dropCommentedViolations(vs, ix, delim)
	if e.pragmas {
		applyDisablePragmas(vs, text)
	}

	results := NewFileResults(path, kind)
	for _, v := range vs {
		results.append(v)
	}
	results.Sort()

	setScanSpanResult(span, results)
	recordScanMetrics(ctx, kind, time.Since(start), results, true)

	slog.Debug("Scan completed",
		slog.String("file", path),
		slog.String("kind", string(kind)),
		slog.Int("violations", len(results.Violations)),
		slog.Int("enabled", results.EnabledCount()),
		slog.Duration("duration", time.Since(start)),
	)

	return results, nil
}

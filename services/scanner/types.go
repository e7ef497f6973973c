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
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// =============================================================================
// Artifact Kinds
// =============================================================================

// ArtifactKind identifies which dialect scanner a file is dispatched to.
// Classification happens outside the engine (by extension and location);
// the engine never sniffs file contents.
type ArtifactKind string

const (
	// KindMako targets server-rendered Mako templates (.html, .xml).
	KindMako ArtifactKind = "mako"

	// KindUnderscore targets Underscore.js client templates (.underscore).
	KindUnderscore ArtifactKind = "underscore"

	// KindJavaScript targets browser scripts (.js).
	KindJavaScript ArtifactKind = "javascript"

	// KindPython targets server scripts (.py).
	KindPython ArtifactKind = "python"
)

// ParseKind converts a user-supplied kind name to an ArtifactKind.
//
// Outputs:
//   - ArtifactKind: the matching kind.
//   - error: ErrUnknownKind (wrapped with the input) for anything else.
func ParseKind(s string) (ArtifactKind, error) {
	switch ArtifactKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindMako:
		return KindMako, nil
	case KindUnderscore:
		return KindUnderscore, nil
	case KindJavaScript:
		return KindJavaScript, nil
	case KindPython:
		return KindPython, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Kinds returns all artifact kinds in dispatch order.
func Kinds() []ArtifactKind {
	return []ArtifactKind{KindMako, KindUnderscore, KindJavaScript, KindPython}
}

// =============================================================================
// Violations
// =============================================================================

// Violation is a single rule match at a specific source position.
//
// Line and StartLine are 1-based. They are equal unless the matched
// construct spans a multi-line literal, in which case StartLine is the line
// where the literal or call opened and Line is where the offending token
// sits. Column is 1-based and 0 when unknown.
type Violation struct {
	Rule      string `json:"rule"`
	Line      int    `json:"line"`
	StartLine int    `json:"start_line"`
	Column    int    `json:"column,omitempty"`

	// Disabled is set by the pragma pass when a preceding
	// `xss-lint: disable=` comment consumed this violation.
	Disabled bool `json:"disabled"`

	// Context is the trimmed source line the violation starts on.
	Context string `json:"context,omitempty"`
}

// sortKey ordering: ascending line, then lexical rule id, then column.
// Detection order never leaks into sorted output.
func violationLess(a, b Violation) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	if a.Rule != b.Rule {
		return a.Rule < b.Rule
	}
	return a.Column < b.Column
}

// =============================================================================
// Per-File Results
// =============================================================================

// FileResults owns the ordered violations for one file. It is mutated only
// by appending during a scan pass and is read-only once the engine returns
// it.
type FileResults struct {
	// Path identifies the scanned file. May be empty for in-memory text.
	Path string `json:"path"`

	// Kind is the artifact kind the text was scanned as.
	Kind ArtifactKind `json:"kind"`

	// Violations are sorted by (line, rule, column) once the scan
	// completes.
	Violations []Violation `json:"violations"`
}

// NewFileResults creates an empty result set for one file.
func NewFileResults(path string, kind ArtifactKind) *FileResults {
	return &FileResults{Path: path, Kind: kind}
}

func (r *FileResults) append(v Violation) {
	r.Violations = append(r.Violations, v)
}

// Sort orders violations by (line, rule id, column). Sorting is idempotent
// and independent of detection order.
func (r *FileResults) Sort() {
	sort.SliceStable(r.Violations, func(i, j int) bool {
		return violationLess(r.Violations[i], r.Violations[j])
	})
}

// EnabledCount returns the number of violations not consumed by a disable
// pragma.
func (r *FileResults) EnabledCount() int {
	n := 0
	for _, v := range r.Violations {
		if !v.Disabled {
			n++
		}
	}
	return n
}

// HasEnabled reports whether any violation survived the pragma pass.
func (r *FileResults) HasEnabled() bool {
	return r.EnabledCount() > 0
}

// =============================================================================
// Run Summary
// =============================================================================

// Summary aggregates results across one scan run.
//
// Thread Safety: Summary is not synchronized; drivers that scan files in
// parallel must merge per-file results from a single goroutine.
type Summary struct {
	// RunID uniquely identifies this scan run in logs and reports.
	RunID string `json:"run_id"`

	// FilesScanned counts every file handed to the engine.
	FilesScanned int `json:"files_scanned"`

	// FilesWithViolations counts files with at least one enabled violation.
	FilesWithViolations int `json:"files_with_violations"`

	// TotalEnabled is the run-wide enabled-violation count. The process
	// exit contract keys off this value.
	TotalEnabled int `json:"total_enabled"`

	// TotalDisabled counts violations consumed by disable pragmas.
	TotalDisabled int `json:"total_disabled"`

	// ByRule maps rule id to enabled-violation count.
	ByRule map[string]int `json:"by_rule"`

	// ByFile maps file path to enabled-violation count, only for files
	// with at least one enabled violation.
	ByFile map[string]int `json:"by_file"`
}

// NewSummary creates an empty summary with a fresh run id.
func NewSummary() *Summary {
	return &Summary{
		RunID:  uuid.NewString(),
		ByRule: make(map[string]int),
		ByFile: make(map[string]int),
	}
}

// Add merges one file's results into the summary.
func (s *Summary) Add(r *FileResults) {
	s.FilesScanned++
	enabled := 0
	for _, v := range r.Violations {
		if v.Disabled {
			s.TotalDisabled++
			continue
		}
		enabled++
		s.ByRule[v.Rule]++
	}
	s.TotalEnabled += enabled
	if enabled > 0 {
		s.FilesWithViolations++
		s.ByFile[r.Path] += enabled
	}
}

// Clean reports whether the run found no enabled violations.
func (s *Summary) Clean() bool {
	return s.TotalEnabled == 0
}

// RuleIDs returns the rule ids present in ByRule, lexically sorted.
func (s *Summary) RuleIDs() []string {
	ids := make([]string, 0, len(s.ByRule))
	for id := range s.ByRule {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// FilePaths returns the paths present in ByFile, lexically sorted.
func (s *Summary) FilePaths() []string {
	paths := make([]string, 0, len(s.ByFile))
	for p := range s.ByFile {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

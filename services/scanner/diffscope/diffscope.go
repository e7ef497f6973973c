// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package diffscope narrows a scan run to the lines touched by a unified
// diff. `markguard diff` feeds it the patch under review: the full new-side
// files are still scanned (the dialect scanners need whole-file lexical
// state), but only violations overlapping added or changed lines are kept,
// so pre-existing debt does not fail a review.
package diffscope

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/AleutianAI/markguard/services/scanner"
	"github.com/AleutianAI/markguard/services/scanner/discovery"
	"github.com/AleutianAI/markguard/services/scanner/runner"
)

// ErrEmptyDiff indicates the input contained no file diffs.
var ErrEmptyDiff = errors.New("empty diff")

// ChangedLines records, per new-side path, the 1-based lines a diff added
// or modified. Deleted files and pure deletions contribute nothing.
type ChangedLines struct {
	lines map[string]map[int]bool
}

// Parse reads a unified diff and extracts its new-side changed lines.
//
// Description:
//
//	Accepts single- or multi-file unified diffs (git or plain). New-side
//	paths are normalized by stripping the conventional a/ and b/ prefixes.
//	Files deleted by the diff (new side /dev/null) are skipped.
//
// Inputs:
//   - r: the diff text.
//
// Outputs:
//   - *ChangedLines: changed-line sets keyed by path.
//   - error: ErrEmptyDiff, or a parse error from the diff reader.
func Parse(r io.Reader) (*ChangedLines, error) {
	fds, err := diff.NewMultiFileDiffReader(r).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	if len(fds) == 0 {
		return nil, ErrEmptyDiff
	}

	ch := &ChangedLines{lines: make(map[string]map[int]bool, len(fds))}
	for _, fd := range fds {
		path := normalizePath(fd.NewName)
		if path == "" {
			continue
		}
		for _, h := range fd.Hunks {
			addHunk(ch, path, h)
		}
	}
	if len(ch.lines) == 0 {
		return nil, ErrEmptyDiff
	}
	return ch, nil
}

// ParseText is Parse over an in-memory diff.
func ParseText(text string) (*ChangedLines, error) {
	return Parse(strings.NewReader(text))
}

// addHunk walks a hunk body tracking the new-side line number and records
// each added line.
func addHunk(ch *ChangedLines, path string, h *diff.Hunk) {
	line := int(h.NewStartLine)
	for _, body := range bytes.Split(h.Body, []byte("\n")) {
		if len(body) == 0 {
			continue
		}
		switch body[0] {
		case '+':
			ch.add(path, line)
			line++
		case '-':
			// old side only
		default:
			line++
		}
	}
}

func (c *ChangedLines) add(path string, line int) {
	set, ok := c.lines[path]
	if !ok {
		set = make(map[int]bool)
		c.lines[path] = set
	}
	set[line] = true
}

// Paths returns the changed new-side paths, lexically sorted.
func (c *ChangedLines) Paths() []string {
	paths := make([]string, 0, len(c.lines))
	for p := range c.lines {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Contains reports whether the diff touched the given line of path.
func (c *ChangedLines) Contains(path string, line int) bool {
	return c.lines[path][line]
}

// ContainsRange reports whether the diff touched any line in [start, end].
// Violations spanning multi-line literals use their whole span, so editing
// the middle of a triple-quoted literal still surfaces its violation.
func (c *ChangedLines) ContainsRange(path string, start, end int) bool {
	set, ok := c.lines[path]
	if !ok {
		return false
	}
	if end < start {
		start, end = end, start
	}
	// Iterate the smaller side: a short span checks its lines, a wide one
	// checks the set.
	if end-start+1 <= len(set) {
		for l := start; l <= end; l++ {
			if set[l] {
				return true
			}
		}
		return false
	}
	for l := range set {
		if l >= start && l <= end {
			return true
		}
	}
	return false
}

// Candidates classifies the changed paths into scan candidates, dropping
// paths whose extension no dialect scanner handles.
func (c *ChangedLines) Candidates() []discovery.Candidate {
	var out []discovery.Candidate
	for _, path := range c.Paths() {
		if kind, ok := discovery.Classify(path); ok {
			out = append(out, discovery.Candidate{Path: path, Kind: kind})
		}
	}
	return out
}

// Filter rebuilds a report keeping only violations on changed lines.
//
// Description:
//
//	Per-file results are trimmed to violations whose [StartLine, Line]
//	span intersects the diff's changed lines for that path; the summary is
//	recomputed from the surviving violations. Read failures and timing
//	carry over unchanged. The input report is not modified.
//
// Inputs:
//   - rep: a completed scan run over the diff's files.
//
// Outputs:
//   - *runner.Report: the scoped report.
func (c *ChangedLines) Filter(rep *runner.Report) *runner.Report {
	out := &runner.Report{
		Summary:      scanner.NewSummary(),
		ReadFailures: rep.ReadFailures,
		CacheHits:    rep.CacheHits,
		Duration:     rep.Duration,
	}
	for _, f := range rep.Files {
		kept := scanner.NewFileResults(f.Path, f.Kind)
		for _, v := range f.Violations {
			if c.ContainsRange(f.Path, v.StartLine, v.Line) {
				kept.Violations = append(kept.Violations, v)
			}
		}
		out.Summary.Add(kept)
		if len(kept.Violations) > 0 {
			out.Files = append(out.Files, kept)
		}
	}
	return out
}

// normalizePath strips the conventional diff prefixes and rejects deleted
// files.
func normalizePath(name string) string {
	if name == "" || name == "/dev/null" {
		return ""
	}
	for _, prefix := range []string{"b/", "a/"} {
		if strings.HasPrefix(name, prefix) {
			return name[len(prefix):]
		}
	}
	return name
}

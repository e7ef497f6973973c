// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package report renders scan runs for humans and machines. The text form
// prints one file:line:column line per violation plus a run summary; the
// JSON form is the runner.Report marshaled as-is for CI consumers.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/markguard/pkg/ux"
	"github.com/AleutianAI/markguard/services/scanner"
	"github.com/AleutianAI/markguard/services/scanner/runner"
)

// Options selects what the renderer emits.
type Options struct {
	// JSON emits the whole report as one JSON document and ignores the
	// other options except Verbose.
	JSON bool

	// ListFiles emits only the paths of files with enabled violations.
	ListFiles bool

	// RuleTotals appends per-rule enabled counts after the listing.
	RuleTotals bool

	// Verbose includes violations consumed by disable pragmas, marked as
	// disabled.
	Verbose bool

	// Color styles the text output. Leave false when writing to a file
	// or a pipe.
	Color bool
}

// Renderer writes scan reports to a single destination.
//
// Thread Safety: Not synchronized; render one report at a time.
type Renderer struct {
	w    io.Writer
	opts Options
}

// NewRenderer creates a renderer over w.
func NewRenderer(w io.Writer, opts Options) *Renderer {
	return &Renderer{w: w, opts: opts}
}

// Render writes the report in the configured form.
func (r *Renderer) Render(rep *runner.Report) error {
	if r.opts.JSON {
		enc := json.NewEncoder(r.w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	if r.opts.ListFiles {
		return r.renderFileList(rep)
	}
	return r.renderText(rep)
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.opts.Color {
		return text
	}
	return s.Render(text)
}

func (r *Renderer) renderFileList(rep *runner.Report) error {
	for _, path := range rep.Summary.FilePaths() {
		if _, err := fmt.Fprintln(r.w, path); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderText(rep *runner.Report) error {
	for _, f := range rep.Files {
		for _, v := range f.Violations {
			if v.Disabled && !r.opts.Verbose {
				continue
			}
			if err := r.renderViolation(f.Path, v); err != nil {
				return err
			}
		}
	}

	for _, rf := range rep.ReadFailures {
		line := fmt.Sprintf("%s: read failure: %s", rf.Path, rf.Err)
		if _, err := fmt.Fprintln(r.w, r.style(ux.Styles.Warning, line)); err != nil {
			return err
		}
	}

	if r.opts.RuleTotals {
		if err := r.renderRuleTotals(rep); err != nil {
			return err
		}
	}
	return r.renderSummary(rep)
}

func (r *Renderer) renderViolation(path string, v scanner.Violation) error {
	loc := fmt.Sprintf("%s:%d", path, v.Line)
	if v.Column > 0 {
		loc = fmt.Sprintf("%s:%d", loc, v.Column)
	}

	message := ""
	if rule, err := scanner.RuleByID(v.Rule); err == nil {
		message = rule.Message
	}

	line := fmt.Sprintf("%s: %s: %s", loc, r.style(ux.Styles.Error, v.Rule), message)
	if v.Disabled {
		line = fmt.Sprintf("%s: %s: %s %s",
			loc, r.style(ux.Styles.Muted, v.Rule), message, r.style(ux.Styles.Muted, "[disabled]"))
	}
	_, err := fmt.Fprintln(r.w, line)
	return err
}

func (r *Renderer) renderRuleTotals(rep *runner.Report) error {
	if len(rep.Summary.ByRule) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(r.w); err != nil {
		return err
	}
	for _, id := range rep.Summary.RuleIDs() {
		line := fmt.Sprintf("%5d  %s", rep.Summary.ByRule[id], id)
		if _, err := fmt.Fprintln(r.w, line); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) renderSummary(rep *runner.Report) error {
	s := rep.Summary
	line := fmt.Sprintf("\n%d violation(s) in %d of %d file(s)",
		s.TotalEnabled, s.FilesWithViolations, s.FilesScanned)
	if s.TotalDisabled > 0 {
		line = fmt.Sprintf("%s, %d disabled by pragma", line, s.TotalDisabled)
	}
	style := ux.Styles.Error
	if s.Clean() {
		style = ux.Styles.Success
	}
	_, err := fmt.Fprintln(r.w, r.style(style, line))
	return err
}

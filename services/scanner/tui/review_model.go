// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tui provides the interactive violation review interface.
//
// # Description
//
// This package implements `markguard review` using bubbletea: a viewport
// over one file's violations at a time, with file-to-file navigation and a
// run summary view. Review is read-only; fixing code stays in the editor.
//
// # Thread Safety
//
// TUI components are designed for single-threaded use within the bubbletea
// event loop. Do not access TUI state from multiple goroutines.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/AleutianAI/markguard/pkg/ux"
	"github.com/AleutianAI/markguard/services/scanner"
	"github.com/AleutianAI/markguard/services/scanner/runner"
)

// =============================================================================
// View Mode
// =============================================================================

// ViewMode determines what the viewport shows.
type ViewMode int

const (
	// ViewFile shows one file's violations.
	ViewFile ViewMode = iota

	// ViewSummary shows run-wide totals by rule and file.
	ViewSummary
)

// =============================================================================
// Config
// =============================================================================

// ReviewConfig configures the review TUI.
type ReviewConfig struct {
	// ShowDisabled includes violations consumed by disable pragmas.
	ShowDisabled bool

	// Width overrides terminal width (0 = auto-detect).
	Width int

	// Height overrides terminal height (0 = auto-detect).
	Height int
}

// =============================================================================
// Model
// =============================================================================

// ReviewModel is the bubbletea model for interactive violation review.
type ReviewModel struct {
	config ReviewConfig
	report *runner.Report

	// Navigation state
	currentFile int
	viewMode    ViewMode

	viewport viewport.Model
	width    int
	height   int

	ready    bool
	showHelp bool
	quitting bool
}

// NewReviewModel creates a review model over a completed scan run.
//
// # Inputs
//
//   - report: the run to review. Files with no violations are not shown.
//   - config: display options.
//
// # Outputs
//
//   - ReviewModel: ready-to-use model for tea.NewProgram.
func NewReviewModel(report *runner.Report, config ReviewConfig) ReviewModel {
	return ReviewModel{
		config:   config,
		report:   report,
		viewMode: ViewFile,
	}
}

// Init implements tea.Model.
func (m ReviewModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m ReviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 2
		footerHeight := 2
		viewportHeight := m.height - headerHeight - footerHeight

		if !m.ready {
			m.viewport = viewport.New(m.width, viewportHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = viewportHeight
		}
		m.updateViewportContent()

	case tea.KeyMsg:
		if m.showHelp {
			switch msg.String() {
			case "q", "?", "esc":
				m.showHelp = false
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "Q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit

		case "?":
			m.showHelp = true

		case "left", "h":
			if m.currentFile > 0 {
				m.currentFile--
				m.viewport.GotoTop()
				m.updateViewportContent()
			}

		case "right", "l":
			if m.currentFile < len(m.report.Files)-1 {
				m.currentFile++
				m.viewport.GotoTop()
				m.updateViewportContent()
			}

		case "d":
			m.config.ShowDisabled = !m.config.ShowDisabled
			m.updateViewportContent()

		case "tab":
			if m.viewMode == ViewFile {
				m.viewMode = ViewSummary
			} else {
				m.viewMode = ViewFile
			}
			m.viewport.GotoTop()
			m.updateViewportContent()

		case "j", "down":
			m.viewport.LineDown(1)

		case "k", "up":
			m.viewport.LineUp(1)

		case "ctrl+d":
			m.viewport.HalfViewDown()

		case "ctrl+u":
			m.viewport.HalfViewUp()

		case "g", "home":
			m.viewport.GotoTop()

		case "G", "end":
			m.viewport.GotoBottom()
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m ReviewModel) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}
	if m.showHelp {
		return m.helpView()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.footerView(),
	)
}

// =============================================================================
// Rendering
// =============================================================================

func (m *ReviewModel) updateViewportContent() {
	if !m.ready {
		return
	}
	if m.viewMode == ViewSummary || len(m.report.Files) == 0 {
		m.viewport.SetContent(m.summaryContent())
		return
	}
	m.viewport.SetContent(m.fileContent(m.report.Files[m.currentFile]))
}

func (m *ReviewModel) fileContent(f *scanner.FileResults) string {
	var b strings.Builder
	for _, v := range f.Violations {
		if v.Disabled && !m.config.ShowDisabled {
			continue
		}
		loc := fmt.Sprintf("%d", v.Line)
		if v.Column > 0 {
			loc = fmt.Sprintf("%d:%d", v.Line, v.Column)
		}
		ruleStyle := ux.Styles.Error
		suffix := ""
		if v.Disabled {
			ruleStyle = ux.Styles.Muted
			suffix = ux.Styles.Muted.Render(" [disabled]")
		}
		fmt.Fprintf(&b, "%s %s%s\n",
			ux.Styles.Bold.Render(loc), ruleStyle.Render(v.Rule), suffix)
		if rule, err := scanner.RuleByID(v.Rule); err == nil {
			fmt.Fprintf(&b, "    %s\n", rule.Message)
		}
		if v.Context != "" {
			fmt.Fprintf(&b, "    %s\n", ux.Styles.Muted.Render(v.Context))
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return ux.Styles.Success.Render("No violations to show in this file.")
	}
	return b.String()
}

func (m *ReviewModel) summaryContent() string {
	s := m.report.Summary
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n\n", ux.Styles.Subtitle.Render("By rule"))
	for _, id := range s.RuleIDs() {
		fmt.Fprintf(&b, "  %5d  %s\n", s.ByRule[id], id)
	}

	fmt.Fprintf(&b, "\n%s\n\n", ux.Styles.Subtitle.Render("By file"))
	for _, path := range s.FilePaths() {
		fmt.Fprintf(&b, "  %5d  %s\n", s.ByFile[path], path)
	}

	fmt.Fprintf(&b, "\n%d violation(s) in %d of %d file(s), %d disabled\n",
		s.TotalEnabled, s.FilesWithViolations, s.FilesScanned, s.TotalDisabled)
	return b.String()
}

func (m *ReviewModel) headerView() string {
	if m.viewMode == ViewSummary || len(m.report.Files) == 0 {
		return ux.Styles.Title.Render("markguard review — summary")
	}
	f := m.report.Files[m.currentFile]
	return ux.Styles.Title.Render(fmt.Sprintf("markguard review — %s (%d/%d)",
		f.Path, m.currentFile+1, len(m.report.Files)))
}

func (m *ReviewModel) footerView() string {
	return ux.Styles.Muted.Render(
		"←/→ file  ↑/↓ scroll  tab summary  d disabled  ? help  q quit")
}

func (m *ReviewModel) helpView() string {
	help := strings.Join([]string{
		"markguard review keys",
		"",
		"  ←/h, →/l      previous / next file",
		"  ↑/k, ↓/j      scroll",
		"  ctrl+u/d      half-page scroll",
		"  g, G          top / bottom",
		"  tab           toggle file / summary view",
		"  d             toggle disabled violations",
		"  q, esc        quit",
	}, "\n")
	return ux.Styles.Box.Render(help)
}

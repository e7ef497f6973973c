// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/markguard/services/scanner"
	"github.com/AleutianAI/markguard/services/scanner/runner"
)

func testReport() *runner.Report {
	a := scanner.NewFileResults("a.py", scanner.KindPython)
	a.Violations = []scanner.Violation{
		{Rule: scanner.RulePythonWrapHTML, Line: 3, StartLine: 3, Context: `html = "<b>hi</b>"`},
		{Rule: scanner.RulePythonConcatHTML, Line: 7, StartLine: 7, Disabled: true},
	}
	b := scanner.NewFileResults("b.js", scanner.KindJavaScript)
	b.Violations = []scanner.Violation{
		{Rule: scanner.RuleJavaScriptJQueryHTML, Line: 12, StartLine: 12},
	}

	summary := scanner.NewSummary()
	summary.Add(a)
	summary.Add(b)
	return &runner.Report{
		Summary: summary,
		Files:   []*scanner.FileResults{a, b},
	}
}

func sized(m ReviewModel) ReviewModel {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(ReviewModel)
}

func key(m ReviewModel, k string) ReviewModel {
	var msg tea.Msg
	switch k {
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, _ := m.Update(msg)
	return next.(ReviewModel)
}

// =============================================================================
// Model Tests
// =============================================================================

func TestReviewModel_ShowsFirstFile(t *testing.T) {
	m := sized(NewReviewModel(testReport(), ReviewConfig{}))

	view := m.View()
	assert.Contains(t, view, "a.py")
	assert.Contains(t, view, "(1/2)")
	assert.Contains(t, view, scanner.RulePythonWrapHTML)
}

func TestReviewModel_FileNavigation(t *testing.T) {
	m := sized(NewReviewModel(testReport(), ReviewConfig{}))

	m = key(m, "l")
	assert.Contains(t, m.View(), "b.js")
	assert.Contains(t, m.View(), "(2/2)")

	// Past the last file stays put.
	m = key(m, "l")
	assert.Contains(t, m.View(), "(2/2)")

	m = key(m, "h")
	assert.Contains(t, m.View(), "(1/2)")
}

func TestReviewModel_DisabledToggle(t *testing.T) {
	m := sized(NewReviewModel(testReport(), ReviewConfig{}))
	assert.NotContains(t, m.View(), scanner.RulePythonConcatHTML)

	m = key(m, "d")
	view := m.View()
	assert.Contains(t, view, scanner.RulePythonConcatHTML)
	assert.Contains(t, view, "[disabled]")
}

func TestReviewModel_SummaryView(t *testing.T) {
	m := sized(NewReviewModel(testReport(), ReviewConfig{}))

	m = key(m, "tab")
	view := m.View()
	assert.Contains(t, view, "summary")
	assert.Contains(t, view, scanner.RuleJavaScriptJQueryHTML)
	assert.Contains(t, view, "2 violation(s) in 2 of 2 file(s), 1 disabled")
}

func TestReviewModel_Quit(t *testing.T) {
	m := sized(NewReviewModel(testReport(), ReviewConfig{}))

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Equal(t, "", next.(ReviewModel).View())
}

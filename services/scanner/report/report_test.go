// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/markguard/services/scanner"
	"github.com/AleutianAI/markguard/services/scanner/runner"
)

// =============================================================================
// Fixtures
// =============================================================================

func sampleReport() *runner.Report {
	f := scanner.NewFileResults("lms/static/app.js", scanner.KindJavaScript)
	f.Violations = append(f.Violations,
		scanner.Violation{Rule: scanner.RuleJavaScriptJQueryHTML, Line: 3, Column: 9},
		scanner.Violation{Rule: scanner.RuleJavaScriptConcatHTML, Line: 7, Column: 1, Disabled: true},
	)

	sum := scanner.NewSummary()
	sum.Add(f)

	return &runner.Report{
		Summary: sum,
		Files:   []*scanner.FileResults{f},
	}
}

// =============================================================================
// Render Tests
// =============================================================================

func TestRender_Text(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{})
	require.NoError(t, r.Render(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, "lms/static/app.js:3:9: "+scanner.RuleJavaScriptJQueryHTML)
	assert.Contains(t, out, "1 violation(s) in 1 of 1 file(s)")
	assert.Contains(t, out, "1 disabled by pragma")
	// Disabled violations stay hidden without Verbose.
	assert.NotContains(t, out, scanner.RuleJavaScriptConcatHTML)
}

func TestRender_TextVerbose(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{Verbose: true})
	require.NoError(t, r.Render(sampleReport()))

	out := buf.String()
	assert.Contains(t, out, scanner.RuleJavaScriptConcatHTML)
	assert.Contains(t, out, "[disabled]")
}

func TestRender_RuleTotals(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{RuleTotals: true})
	require.NoError(t, r.Render(sampleReport()))

	assert.Contains(t, buf.String(), "    1  "+scanner.RuleJavaScriptJQueryHTML)
}

func TestRender_ListFiles(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{ListFiles: true})
	require.NoError(t, r.Render(sampleReport()))

	assert.Equal(t, "lms/static/app.js\n", buf.String())
}

func TestRender_JSON(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf, Options{JSON: true})
	rep := sampleReport()
	require.NoError(t, r.Render(rep))

	var decoded runner.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, rep.Summary.RunID, decoded.Summary.RunID)
	assert.Equal(t, 1, decoded.Summary.TotalEnabled)
	require.Len(t, decoded.Files, 1)
	assert.Len(t, decoded.Files[0].Violations, 2)
}

func TestRender_ReadFailures(t *testing.T) {
	rep := sampleReport()
	rep.ReadFailures = []runner.ReadFailure{{Path: "cms/huge.js", Err: "file too large"}}

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf, Options{}).Render(rep))
	assert.True(t, strings.Contains(buf.String(), "cms/huge.js: read failure: file too large"))
}

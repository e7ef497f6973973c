// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diffscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/markguard/services/scanner"
	"github.com/AleutianAI/markguard/services/scanner/runner"
)

const sampleDiff = `diff --git a/templates/profile.html b/templates/profile.html
--- a/templates/profile.html
+++ b/templates/profile.html
@@ -1,3 +1,4 @@
 <div>
+${user.name | n}
 <p>ok</p>
 </div>
diff --git a/static/js/view.js b/static/js/view.js
--- a/static/js/view.js
+++ b/static/js/view.js
@@ -10,2 +10,3 @@
 var el = $('.target');
+el.append(body);
 el.show();
`

// =============================================================================
// Parse Tests
// =============================================================================

func TestParse_ChangedLines(t *testing.T) {
	ch, err := ParseText(sampleDiff)
	require.NoError(t, err)

	assert.Equal(t, []string{"static/js/view.js", "templates/profile.html"}, ch.Paths())

	assert.True(t, ch.Contains("templates/profile.html", 2))
	assert.False(t, ch.Contains("templates/profile.html", 1))
	assert.False(t, ch.Contains("templates/profile.html", 3))

	assert.True(t, ch.Contains("static/js/view.js", 11))
	assert.False(t, ch.Contains("static/js/view.js", 10))
}

func TestParse_EmptyDiff(t *testing.T) {
	_, err := ParseText("")
	assert.ErrorIs(t, err, ErrEmptyDiff)
}

func TestParse_DeletedFileSkipped(t *testing.T) {
	deleted := `diff --git a/old.py b/old.py
--- a/old.py
+++ /dev/null
@@ -1,2 +0,0 @@
-html = "<b>" + name
-print(html)
`
	_, err := ParseText(deleted)
	assert.ErrorIs(t, err, ErrEmptyDiff)
}

func TestParse_Garbage(t *testing.T) {
	_, err := ParseText("this is not a diff at all")
	assert.Error(t, err)
}

// =============================================================================
// Range and Candidate Tests
// =============================================================================

func TestContainsRange_SpansMultiLineLiteral(t *testing.T) {
	ch, err := ParseText(sampleDiff)
	require.NoError(t, err)

	// A violation anchored on line 4 whose literal opened on line 1
	// overlaps changed line 2.
	assert.True(t, ch.ContainsRange("templates/profile.html", 1, 4))
	assert.False(t, ch.ContainsRange("templates/profile.html", 3, 4))
	assert.False(t, ch.ContainsRange("missing.py", 1, 100))
}

func TestCandidates_ClassifiedByExtension(t *testing.T) {
	ch, err := ParseText(sampleDiff)
	require.NoError(t, err)

	cands := ch.Candidates()
	require.Len(t, cands, 2)
	assert.Equal(t, scanner.KindJavaScript, cands[0].Kind)
	assert.Equal(t, scanner.KindMako, cands[1].Kind)
}

// =============================================================================
// Filter Tests
// =============================================================================

func TestFilter_KeepsOnlyChangedLineViolations(t *testing.T) {
	ch, err := ParseText(sampleDiff)
	require.NoError(t, err)

	onChanged := scanner.Violation{
		Rule: scanner.RuleMakoNotEscaped, Line: 2, StartLine: 2,
	}
	preExisting := scanner.Violation{
		Rule: scanner.RuleMakoNotEscaped, Line: 3, StartLine: 3,
	}
	results := scanner.NewFileResults("templates/profile.html", scanner.KindMako)
	results.Violations = []scanner.Violation{onChanged, preExisting}

	summary := scanner.NewSummary()
	summary.Add(results)
	rep := &runner.Report{
		Summary: summary,
		Files:   []*scanner.FileResults{results},
	}

	scoped := ch.Filter(rep)
	require.Len(t, scoped.Files, 1)
	require.Len(t, scoped.Files[0].Violations, 1)
	assert.Equal(t, 2, scoped.Files[0].Violations[0].Line)
	assert.Equal(t, 1, scoped.Summary.TotalEnabled)
	assert.Equal(t, 1, scoped.Summary.FilesScanned)
}

func TestFilter_AllPreExisting(t *testing.T) {
	ch, err := ParseText(sampleDiff)
	require.NoError(t, err)

	results := scanner.NewFileResults("static/js/view.js", scanner.KindJavaScript)
	results.Violations = []scanner.Violation{
		{Rule: scanner.RuleJavaScriptJQueryAppend, Line: 5, StartLine: 5},
	}
	summary := scanner.NewSummary()
	summary.Add(results)

	scoped := ch.Filter(&runner.Report{Summary: summary, Files: []*scanner.FileResults{results}})
	assert.Empty(t, scoped.Files)
	assert.True(t, scoped.Summary.Clean())
}

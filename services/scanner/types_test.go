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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Kind Parsing
// =============================================================================

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    ArtifactKind
		wantErr bool
	}{
		{"mako", KindMako, false},
		{"underscore", KindUnderscore, false},
		{"javascript", KindJavaScript, false},
		{"python", KindPython, false},
		{"  Python ", KindPython, false},
		{"JavaScript", KindJavaScript, false},
		{"ruby", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.input)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrUnknownKind, "input %q", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

// =============================================================================
// Sort Ordering
// =============================================================================

func TestFileResults_Sort_OrderInsensitiveAndIdempotent(t *testing.T) {
	canonical := []Violation{
		{Rule: RulePythonConcatHTML, Line: 1, StartLine: 1, Column: 4},
		{Rule: RulePythonWrapHTML, Line: 1, StartLine: 1, Column: 2},
		{Rule: RulePythonWrapHTML, Line: 1, StartLine: 1, Column: 9},
		{Rule: RulePythonConcatHTML, Line: 3, StartLine: 2, Column: 1},
		{Rule: RulePythonInterpolateHTML, Line: 7, StartLine: 7},
	}

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		r := NewFileResults("f.py", KindPython)
		for _, i := range rng.Perm(len(canonical)) {
			r.append(canonical[i])
		}
		r.Sort()
		assert.Equal(t, canonical, r.Violations, "trial %d", trial)

		r.Sort()
		assert.Equal(t, canonical, r.Violations, "re-sort changed order")
	}
}

// =============================================================================
// Enabled Counting
// =============================================================================

func TestFileResults_EnabledCount(t *testing.T) {
	r := NewFileResults("f.html", KindMako)
	r.append(Violation{Rule: RuleMakoNotEscaped, Line: 1, StartLine: 1, Disabled: true})
	r.append(Violation{Rule: RuleMakoNotEscaped, Line: 2, StartLine: 2})

	assert.Equal(t, 1, r.EnabledCount())
	assert.True(t, r.HasEnabled())

	empty := NewFileResults("g.html", KindMako)
	assert.Equal(t, 0, empty.EnabledCount())
	assert.False(t, empty.HasEnabled())
}

// =============================================================================
// Summary Aggregation
// =============================================================================

func TestSummary_Add(t *testing.T) {
	s := NewSummary()
	require.NotEmpty(t, s.RunID)

	first := NewFileResults("a.py", KindPython)
	first.append(Violation{Rule: RulePythonWrapHTML, Line: 1, StartLine: 1})
	first.append(Violation{Rule: RulePythonWrapHTML, Line: 5, StartLine: 5, Disabled: true})
	first.append(Violation{Rule: RulePythonConcatHTML, Line: 9, StartLine: 9})

	second := NewFileResults("b.js", KindJavaScript)

	s.Add(first)
	s.Add(second)

	assert.Equal(t, 2, s.FilesScanned)
	assert.Equal(t, 1, s.FilesWithViolations)
	assert.Equal(t, 2, s.TotalEnabled)
	assert.Equal(t, 1, s.TotalDisabled)
	assert.Equal(t, map[string]int{
		RulePythonWrapHTML:   1,
		RulePythonConcatHTML: 1,
	}, s.ByRule)
	assert.Equal(t, map[string]int{"a.py": 2}, s.ByFile)
	assert.False(t, s.Clean())

	assert.Equal(t, []string{RulePythonConcatHTML, RulePythonWrapHTML}, s.RuleIDs())
	assert.Equal(t, []string{"a.py"}, s.FilePaths())
}

func TestSummary_Clean_WhenEmpty(t *testing.T) {
	s := NewSummary()
	assert.True(t, s.Clean())
	assert.Equal(t, 0, s.TotalEnabled)
}

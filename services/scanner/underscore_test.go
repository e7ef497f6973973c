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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Safe Forms
// =============================================================================

func TestUnderscore_EscapedInterpolation_NoViolation(t *testing.T) {
	texts := []string{
		`<p><%- message %></p>`,
		`<% if (enabled) { %><p>static</p><% } %>`,
		`<p>no templates at all</p>`,
	}
	for _, text := range texts {
		results := scanAs(t, text, KindUnderscore)
		assert.Empty(t, results.Violations, "text: %s", text)
	}
}

func TestUnderscore_SelfEscapingExpressions_NoViolation(t *testing.T) {
	texts := []string{
		`<p><%= HtmlUtils.ensureHtml(message) %></p>`,
		`<p><%= HtmlUtils.HTML(message) %></p>`,
		`<p><%= _.escape(message) %></p>`,
	}
	for _, text := range texts {
		results := scanAs(t, text, KindUnderscore)
		assert.Empty(t, results.Violations, "text: %s", text)
	}
}

// =============================================================================
// Raw Interpolation Violations
// =============================================================================

func TestUnderscore_RawInterpolation_OneViolationPerOccurrence(t *testing.T) {
	text := "<p><%= message %></p>\n" +
		"<p><%- safe %></p>\n" +
		"<p><%= another %> and <%= third %></p>\n"

	results := scanAs(t, text, KindUnderscore)
	require.Len(t, results.Violations, 3)
	for _, v := range results.Violations {
		assert.Equal(t, RuleUnderscoreNotEscaped, v.Rule)
	}
	assert.Equal(t, 1, results.Violations[0].Line)
	assert.Equal(t, 3, results.Violations[1].Line)
	assert.Equal(t, 3, results.Violations[2].Line)
	assert.Less(t, results.Violations[1].Column, results.Violations[2].Column)
}

func TestUnderscore_MultiLineTag_AnchorsAtOpeningLine(t *testing.T) {
	text := "<div>\n" +
		"<%=\n" +
		"  interpolate(gettext('Hello %s'), [name])\n" +
		"%>\n" +
		"</div>\n"

	results := scanAs(t, text, KindUnderscore)
	require.Len(t, results.Violations, 1)
	assert.Equal(t, 2, results.Violations[0].Line)
	assert.Equal(t, 2, results.Violations[0].StartLine)
}

func TestUnderscore_EscapeCallOnOtherReceiver_StillViolates(t *testing.T) {
	// Only the _.escape( shape is allow-listed; lookalikes are not.
	results := scanAs(t, `<p><%= util.escape(message) %></p>`, KindUnderscore)
	require.Len(t, results.Violations, 1)
	assert.Equal(t, RuleUnderscoreNotEscaped, results.Violations[0].Rule)
}

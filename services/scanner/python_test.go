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
// Clean Files
// =============================================================================

func TestPython_CleanFile_NoViolations(t *testing.T) {
	text := "import logging\n" +
		"\n" +
		"def greet(name):\n" +
		"    message = 'Hello, {}'.format(name)\n" +
		"    return message\n"

	results := scanAs(t, text, KindPython)
	assert.Empty(t, results.Violations)
}

func TestPython_ComparisonOperators_NotMarkup(t *testing.T) {
	text := "if a < b:\n" +
		"    pass\n" +
		"label = 'count < total'\n"

	results := scanAs(t, text, KindPython)
	assert.Empty(t, results.Violations)
}

func TestPython_RegexNamedGroup_NotMarkup(t *testing.T) {
	results := scanAs(t, `pattern = r'(?P<id>[0-9]+)/(?P<slug>\w+)'.format()`+"\n", KindPython)
	assert.Empty(t, results.Violations)
}

// =============================================================================
// Parse Errors
// =============================================================================

func TestPython_UnterminatedString_SingleParseError(t *testing.T) {
	text := "html = '<p>' + name\n" +
		"broken = 'oops\n" +
		"more = '<b>' + tail\n"

	results := scanAs(t, text, KindPython)
	require.Len(t, results.Violations, 1)
	assert.Equal(t, RulePythonParseError, results.Violations[0].Rule)
	assert.Equal(t, 2, results.Violations[0].Line)
}

func TestPython_UnbalancedBrackets_SingleParseError(t *testing.T) {
	for _, text := range []string{
		"value = compute(a, b\n",
		"value = compute(a))\n",
		"value = [1, 2}\n",
	} {
		results := scanAs(t, text, KindPython)
		require.Len(t, results.Violations, 1, "text: %s", text)
		assert.Equal(t, RulePythonParseError, results.Violations[0].Rule)
	}
}

// =============================================================================
// Concatenation and Interpolation
// =============================================================================

func TestPython_ConcatHTML_OneViolationPerMarkupOperand(t *testing.T) {
	results := scanAs(t, `msg = "<p>" + name + "</p>"`+"\n", KindPython)

	require.Len(t, results.Violations, 2)
	assert.Equal(t, RulePythonConcatHTML, results.Violations[0].Rule)
	assert.Equal(t, RulePythonConcatHTML, results.Violations[1].Rule)
	assert.Less(t, results.Violations[0].Column, results.Violations[1].Column)
}

func TestPython_ConcatWithoutMarkup_NoViolation(t *testing.T) {
	results := scanAs(t, `msg = "Hello, " + name + "!"`+"\n", KindPython)
	assert.Empty(t, results.Violations)
}

func TestPython_PercentInterpolationWithMarkup_Violates(t *testing.T) {
	results := scanAs(t, `msg = "<p>%s</p>" % name`+"\n", KindPython)

	require.Len(t, results.Violations, 1)
	assert.Equal(t, RulePythonInterpolateHTML, results.Violations[0].Rule)
}

// =============================================================================
// Manual Escaping and Deprecated Accessor
// =============================================================================

func TestPython_CustomEscape_Violates(t *testing.T) {
	results := scanAs(t, `safe = name.replace('<', '&lt;')`+"\n", KindPython)

	require.Len(t, results.Violations, 1)
	assert.Equal(t, RulePythonCustomEscape, results.Violations[0].Rule)
}

func TestPython_DeprecatedDisplayName_Violates(t *testing.T) {
	results := scanAs(t, "title = course.display_name_with_default_escaped\n", KindPython)

	require.Len(t, results.Violations, 1)
	assert.Equal(t, RulePythonDeprecatedDisplay, results.Violations[0].Rule)
}

// =============================================================================
// format() Wrapping
// =============================================================================

func TestPython_FormatOnBareHTMLLiteral_RequiresWrap(t *testing.T) {
	results := scanAs(t, `msg = "<p>{name}</p>".format(name=name)`+"\n", KindPython)

	require.Len(t, results.Violations, 1)
	assert.Equal(t, RulePythonWrapHTML, results.Violations[0].Rule)
}

func TestPython_FormatOnWrappedLiteral_NoViolation(t *testing.T) {
	results := scanAs(t, `msg = HTML("<p>{name}</p>").format(name=name)`+"\n", KindPython)
	assert.Empty(t, results.Violations)
}

func TestPython_FormatInsideOpenWrapper_CloseBeforeFormat(t *testing.T) {
	results := scanAs(t, `msg = HTML("<p>{name}</p>".format(name=name))`+"\n", KindPython)

	require.Len(t, results.Violations, 1)
	assert.Equal(t, RulePythonCloseBeforeFormat, results.Violations[0].Rule)
}

func TestPython_TripleQuotedLiteral_StartLineAtOpeningQuote(t *testing.T) {
	text := `template = """` + "\n" +
		"<div>\n" +
		"  content\n" +
		"  <p>{name}</p>\n" +
		`""".format(name=name)` + "\n"

	results := scanAs(t, text, KindPython)
	require.Len(t, results.Violations, 1)
	assert.Equal(t, RulePythonWrapHTML, results.Violations[0].Rule)
	assert.Equal(t, 1, results.Violations[0].StartLine)
	assert.Equal(t, 2, results.Violations[0].Line)
}

// =============================================================================
// Wrapper Nesting and Ordering
// =============================================================================

func TestPython_WrappedFormatInsideWrapperArgs_NoViolation(t *testing.T) {
	// The inner literal is wrapped and format()-ed inside the enclosing
	// Text() call's argument list: escaping composes after interpolation.
	text := `msg = Text("Hello {m}").format(m=HTML("<b>{}</b>").format(u))` + "\n"

	results := scanAs(t, text, KindPython)
	assert.Empty(t, results.Violations)
}

func TestPython_FormatBeforeWrapperCloses_BothViolations(t *testing.T) {
	// The same construct assembled inside the still-open Text() call:
	// interpolation happens before the wrapper closes, and the formatted
	// receiver is a plain literal even though its arguments carry HTML().
	text := `msg = Text("Hello {m}".format(m=HTML("<b>hi</b>")))` + "\n"

	results := scanAs(t, text, KindPython)
	ids := ruleIDs(results)
	require.Len(t, ids, 2)
	assert.Contains(t, ids, RulePythonCloseBeforeFormat)
	assert.Contains(t, ids, RulePythonRequiresHTMLOrText)
}

func TestPython_NestedWrappers_OneCloseBeforeFormatPerLevel(t *testing.T) {
	text := `msg = Text(HTML("<p>{}</p>".format(x)))` + "\n"

	results := scanAs(t, text, KindPython)
	count := 0
	for _, v := range results.Violations {
		if v.Rule == RulePythonCloseBeforeFormat {
			count++
		}
	}
	assert.Equal(t, 2, count, "each open wrapper level reports once")
}

// =============================================================================
// __repr__ Suppression
// =============================================================================

func TestPython_ReprBody_Suppressed(t *testing.T) {
	text := "class Block:\n" +
		"    def __repr__(self):\n" +
		"        return '<Block %s>' % self.name\n" +
		"\n" +
		"    def render(self):\n" +
		"        return '<p>%s</p>' % self.name\n"

	results := scanAs(t, text, KindPython)
	require.Len(t, results.Violations, 1)
	assert.Equal(t, RulePythonInterpolateHTML, results.Violations[0].Rule)
	assert.Equal(t, 6, results.Violations[0].Line)
}

// =============================================================================
// Comments
// =============================================================================

func TestPython_CommentedCode_NoViolation(t *testing.T) {
	text := "# msg = '<p>{}</p>'.format(name)\n" +
		"# safe = name.replace('<', '&lt;')\n"

	results := scanAs(t, text, KindPython)
	assert.Empty(t, results.Violations)
}

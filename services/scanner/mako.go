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
	"regexp"
	"strings"
)

// =============================================================================
// Mako Template Scanner
// =============================================================================

// makoCommentDelim is the Mako line-comment token. Expressions opening on
// comment-only lines are not scanned.
const makoCommentDelim = "##"

// makoFiltersRe captures the filter chain of an expression: the last pipe
// whose remainder up to the closing brace holds only filter-name
// characters. Example: "${x | n, decode.utf8}" captures " n, decode.utf8".
var makoFiltersRe = regexp.MustCompile(`\|([.,\w\s]*)\}`)

// makoSafeRawExpression reports whether a raw-filtered expression escapes
// its own value: wrapped in the HTML() marker or escaped through
// markupsafe.
func makoSafeRawExpression(inner string) bool {
	if strings.HasPrefix(inner, "HTML(") {
		return true
	}
	if strings.HasPrefix(inner, "markupsafe.escape(") {
		return true
	}
	return false
}

// scanMako emits a violation for every ${...} expression that disables
// auto-escaping via the n filter without wrapping its value.
//
// Expressions are located by balanced-brace matching that skips quoted
// strings and comment-only lines; an expression that never closes (or
// nests another "${") degrades to no match. The default, auto-escaping
// form without an n filter is never flagged.
func scanMako(text string, ix *lineIndex) []Violation {
	var vs []Violation
	start := 0
	for {
		idx := strings.Index(text[start:], "${")
		if idx < 0 {
			break
		}
		idx += start

		adj := uncommentedFrom(text, idx, makoCommentDelim)
		if adj < 0 {
			break
		}
		if adj != idx {
			start = adj
			continue
		}

		closeIdx := findClosingChar(text, "${", '{', '}', idx+2, makoCommentDelim)
		if closeIdx < 0 {
			start = idx + 2
			continue
		}
		if v, ok := makoRawViolation(text[idx:closeIdx+1], idx, ix); ok {
			vs = append(vs, v)
		}
		start = closeIdx + 1
	}
	return vs
}

// makoRawViolation classifies one complete ${...} expression. Only the raw
// form (filter list containing n) can violate; the violation anchors at
// the opening delimiter.
func makoRawViolation(expr string, off int, ix *lineIndex) (Violation, bool) {
	m := makoFiltersRe.FindStringSubmatchIndex(expr)
	if m == nil {
		return Violation{}, false
	}
	raw := false
	for _, f := range strings.Split(expr[m[2]:m[3]], ",") {
		if strings.TrimSpace(f) == "n" {
			raw = true
			break
		}
	}
	if !raw {
		return Violation{}, false
	}
	if makoSafeRawExpression(strings.TrimSpace(expr[2:m[0]])) {
		return Violation{}, false
	}
	line := ix.lineOf(off)
	return Violation{
		Rule:      RuleMakoNotEscaped,
		Line:      line,
		StartLine: line,
		Column:    ix.colOf(off),
		Context:   ix.contextAt(line),
	}, true
}

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
// Underscore.js Template Scanner
// =============================================================================

// underscoreRawRe matches the unescaped interpolation form <%= ... %>,
// including tags spanning multiple lines. The escaping form <%- ... %> is
// never scanned.
var underscoreRawRe = regexp.MustCompile(`(?s)<%=(.*?)%>`)

// underscoreSafeExpression reports whether an unescaped tag's inner
// expression escapes on its own. Matching is purely syntactic: callee name
// plus open paren, never evaluation.
func underscoreSafeExpression(inner string) bool {
	if strings.HasPrefix(inner, "HtmlUtils.") {
		return true
	}
	if strings.HasPrefix(inner, "_.escape(") {
		return true
	}
	return false
}

// scanUnderscore emits a violation for every raw interpolation tag whose
// inner expression is not self-escaping. The violation is anchored at the
// opening delimiter's line.
func scanUnderscore(text string, ix *lineIndex) []Violation {
	var vs []Violation
	for _, m := range underscoreRawRe.FindAllStringSubmatchIndex(text, -1) {
		inner := strings.TrimSpace(text[m[2]:m[3]])
		if underscoreSafeExpression(inner) {
			continue
		}
		line := ix.lineOf(m[0])
		vs = append(vs, Violation{
			Rule:      RuleUnderscoreNotEscaped,
			Line:      line,
			StartLine: line,
			Column:    ix.colOf(m[0]),
			Context:   ix.contextAt(line),
		})
	}
	return vs
}

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
// JavaScript Scanner
// =============================================================================

// jsCommentDelim is the JavaScript line-comment token. Violations anchored
// on comment-only lines are dropped by the shared post-pass.
const jsCommentDelim = "//"

// violationAt builds a single-point violation anchored at a byte offset.
func violationAt(rule string, off int, ix *lineIndex) Violation {
	line := ix.lineOf(off)
	return Violation{
		Rule:      rule,
		Line:      line,
		StartLine: line,
		Column:    ix.colOf(off),
		Context:   ix.contextAt(line),
	}
}

// Call-site matching for the receiver-method families: a candidate is a
// method-name token preceded by exactly one consumed character (so a call
// at file start never matches, and the consumed character may not be a
// newline), minus an excluded qualifier spelled immediately before that
// character. Rejected candidates resume the search one byte later so
// overlapping alternations are still found.
type jsCallSite struct {
	// start is the consumed character's offset; violations anchor here.
	start int

	// innerStart is the offset just after the call's open paren.
	innerStart int
}

func jsCallSites(text string, nameRe *regexp.Regexp, excl string) []jsCallSite {
	var sites []jsCallSite
	from := 0
	for {
		loc := nameRe.FindStringIndex(text[from:])
		if loc == nil {
			return sites
		}
		i, end := from+loc[0], from+loc[1]
		p := i - 1
		if i == 0 || text[p] == '\n' || (p >= len(excl) && text[p-len(excl):p] == excl) {
			from = i + 1
			continue
		}
		sites = append(sites, jsCallSite{start: p, innerStart: end})
		from = end
	}
}

// =============================================================================
// jQuery Call Families
// =============================================================================

// jqueryFamily is one data-described matcher: a trigger alternation plus
// either an argument allow-list or a caller allow-list, never both.
type jqueryFamily struct {
	rule       string
	names      string
	argSafe    func(arg string) bool
	callerSafe func(callerLineStart string) bool

	re *regexp.Regexp
}

var jqueryFamilies = []*jqueryFamily{
	{rule: RuleJavaScriptJQueryAppend, names: "append", argSafe: isJQueryArgumentSafe},
	{rule: RuleJavaScriptJQueryPrepend, names: "prepend", argSafe: isJQueryArgumentSafe},
	{
		rule:    RuleJavaScriptJQueryInsertion,
		names:   "unwrap|wrap|wrapAll|wrapInner|after|before|replaceAll|replaceWith",
		argSafe: isJQueryArgumentSafe,
	},
	{
		rule:       RuleJavaScriptJQueryInsertIntoTarget,
		names:      "appendTo|prependTo|insertAfter|insertBefore",
		callerSafe: isJQueryInsertCallerSafe,
	},
	{rule: RuleJavaScriptJQueryHTML, names: "html", argSafe: isJQueryHTMLArgumentSafe},
}

func init() {
	for _, fam := range jqueryFamilies {
		fam.re = regexp.MustCompile(`(?:` + fam.names + `)\(`)
	}
}

var (
	jsIdentRe         = regexp.MustCompile(`[_$a-zA-Z]+[_$a-zA-Z0-9]*`)
	jsHTMLUtilsCallRe = regexp.MustCompile(`(?:edx\.)?HtmlUtils\.[a-zA-Z0-9]+\(.*\)\.toString\(\)`)
	jsTagCtorRe       = regexp.MustCompile(`\$\(\s*['"]<[a-zA-Z0-9]+\s*/?>['"]\s*[,)]`)
	jsInsertCallerRe  = regexp.MustCompile(`(?:\s*|[.])([_$a-zA-Z]+[_$a-zA-Z0-9])*$`)

	jsInterpolateRe = regexp.MustCompile(`interpolate\(`)
	jsEscapeRe      = regexp.MustCompile(`escape\(`)
)

// isJQueryHTMLUtilsCall reports whether the whole argument is an
// HtmlUtils.xxx(...).toString() call, optionally under the edx namespace.
func isJQueryHTMLUtilsCall(arg string) bool {
	m := jsHTMLUtilsCallRe.FindStringIndex(arg)
	return m != nil && m[0] == 0 && m[1] == len(arg)
}

// isJQueryArgumentSafe applies the DOM-insertion argument allow-list:
// an element-reference identifier, a markup-free string literal, a
// single-tag $() constructor, an HtmlUtils toString call, or a
// concatenation-free .el/.$el member chain. Anything else is unsafe.
func isJQueryArgumentSafe(arg string) bool {
	if m := jsIdentRe.FindStringIndex(arg); m != nil && m[0] == 0 && m[1] == len(arg) {
		return strings.HasSuffix(arg, "El") || strings.HasPrefix(arg, "$")
	}
	switch {
	case strings.HasPrefix(arg, `"`) || strings.HasPrefix(arg, `'`):
		// A lone literal is fine: jQuery treats it as text, not markup.
		return wholeString(arg) && !strings.Contains(arg, "<")
	case strings.HasPrefix(arg, "$("):
		return jsTagCtorRe.MatchString(arg)
	case isJQueryHTMLUtilsCall(arg):
		return true
	case !strings.Contains(arg, "+"):
		return strings.HasSuffix(arg, ".el") || strings.HasSuffix(arg, ".$el")
	}
	return false
}

// isJQueryHTMLArgumentSafe allows html() as a getter, an explicit empty
// string, or escaped HTML via HtmlUtils.
func isJQueryHTMLArgumentSafe(arg string) bool {
	if arg == "" || arg == "''" || arg == `""` {
		return true
	}
	return isJQueryHTMLUtilsCall(arg)
}

// isJQueryInsertCallerSafe checks the receiver of appendTo()-style calls:
// the trailing identifier of the line leading up to the call must name an
// already-constructed element ("...El", "$...", "el", "parentNode"). A
// receiver ending in a call or other expression is unsafe.
func isJQueryInsertCallerSafe(callerLineStart string) bool {
	m := jsInsertCallerRe.FindStringSubmatchIndex(callerLineStart)
	if m == nil || m[2] < 0 {
		return false
	}
	caller := callerLineStart[m[2]:m[3]]
	if strings.HasSuffix(caller, "El") || strings.HasPrefix(caller, "$") {
		return true
	}
	return caller == "el" || caller == "parentNode"
}

func scanJQueryFamilies(text string, ix *lineIndex) []Violation {
	var vs []Violation
	for _, fam := range jqueryFamilies {
		for _, site := range jsCallSites(text, fam.re, "HtmlUtils") {
			bad := true
			closeIdx := findClosingChar(text, "", '(', ')', site.innerStart, jsCommentDelim)
			if closeIdx >= 0 {
				if fam.argSafe != nil {
					bad = !fam.argSafe(strings.TrimSpace(text[site.innerStart:closeIdx]))
				} else {
					ls := ix.lineStart(site.start)
					bad = !fam.callerSafe(text[ls:site.start])
				}
			}
			if bad {
				vs = append(vs, violationAt(fam.rule, site.start, ix))
			}
		}
	}
	return vs
}

// =============================================================================
// Interpolation / Escape Calls
// =============================================================================

// scanJSInterpolate flags every interpolate() call not qualified by the
// sanctioned StringUtils namespace. Unlike the jQuery families, a bare call
// at file or line start still triggers: qualification is what makes the
// call safe, not position. HtmlUtils.interpolateHtml is unaffected because
// the trigger requires the bare name.
func scanJSInterpolate(text string, ix *lineIndex) []Violation {
	const safe = "StringUtils."
	var vs []Violation
	from := 0
	for {
		loc := jsInterpolateRe.FindStringIndex(text[from:])
		if loc == nil {
			return vs
		}
		i := from + loc[0]
		from += loc[1]
		if i >= len(safe) && text[i-len(safe):i] == safe {
			continue
		}
		vs = append(vs, violationAt(RuleJavaScriptInterpolate, i, ix))
	}
}

// scanJSEscape flags every escape() call except on the underscore alias.
func scanJSEscape(text string, ix *lineIndex) []Violation {
	var vs []Violation
	for _, site := range jsCallSites(text, jsEscapeRe, "_") {
		vs = append(vs, violationAt(RuleJavaScriptEscape, site.start, ix))
	}
	return vs
}

// =============================================================================
// HTML Concatenation
// =============================================================================

// jsConcatRe matches a quoted string that opens with '<' or closes with '>'
// adjacent to a '+'. Built per quote kind, mirroring:
//
//	(\+\s*STR|STR\s*\+)  where STR starts with < or ends with >
var jsConcatRe = regexp.MustCompile(jsConcatPattern())

func jsConcatPattern() string {
	str := func(q string) string {
		body := `(?:[^` + q + `]|\\` + q + `)*`
		return q + `(?:\s*<` + body + `|` + body + `>\s*)` + q
	}
	s := `(?:` + str(`'`) + `|` + str(`"`) + `)`
	return `(?:\+\s*` + s + `|` + s + `\s*\+)`
}

// scanJSConcat emits one violation per source line containing HTML-string
// concatenation, anchored at the line's first match; further matches on
// the same line fold into it.
func scanJSConcat(text string, ix *lineIndex) []Violation {
	var vs []Violation
	lastLine := -1
	for _, m := range jsConcatRe.FindAllStringIndex(text, -1) {
		line := ix.lineOf(m[0])
		if line == lastLine {
			continue
		}
		vs = append(vs, violationAt(RuleJavaScriptConcatHTML, m[0], ix))
		lastLine = line
	}
	return vs
}

// =============================================================================
// Dialect Entry Point
// =============================================================================

// scanJavaScript runs every browser-dialect family plus the Underscore
// template scanner, since client templates are routinely inlined in script
// sources. The combined list shares one comment-suppression and pragma
// pass downstream.
func scanJavaScript(text string, ix *lineIndex) []Violation {
	vs := scanJQueryFamilies(text, ix)
	vs = append(vs, scanJSInterpolate(text, ix)...)
	vs = append(vs, scanJSEscape(text, ix)...)
	vs = append(vs, scanJSConcat(text, ix)...)
	vs = append(vs, scanUnderscore(text, ix)...)
	return vs
}

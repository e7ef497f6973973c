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
	"fmt"
	"sort"
)

// =============================================================================
// Rule Identifiers
// =============================================================================

// Rule ids are the symbolic identifiers used in reports and in
// `xss-lint: disable=` pragmas. They are registered once at init and never
// change at runtime.
const (
	RuleMakoNotEscaped       = "mako-not-escaped"
	RuleUnderscoreNotEscaped = "underscore-not-escaped"

	RuleJavaScriptConcatHTML             = "javascript-concat-html"
	RuleJavaScriptEscape                 = "javascript-escape"
	RuleJavaScriptInterpolate            = "javascript-interpolate"
	RuleJavaScriptJQueryAppend           = "javascript-jquery-append"
	RuleJavaScriptJQueryHTML             = "javascript-jquery-html"
	RuleJavaScriptJQueryInsertIntoTarget = "javascript-jquery-insert-into-target"
	RuleJavaScriptJQueryInsertion        = "javascript-jquery-insertion"
	RuleJavaScriptJQueryPrepend          = "javascript-jquery-prepend"

	RulePythonCloseBeforeFormat  = "python-close-before-format"
	RulePythonConcatHTML         = "python-concat-html"
	RulePythonCustomEscape       = "python-custom-escape"
	RulePythonDeprecatedDisplay  = "python-deprecated-display-name"
	RulePythonInterpolateHTML    = "python-interpolate-html"
	RulePythonParseError         = "python-parse-error"
	RulePythonRequiresHTMLOrText = "python-requires-html-or-text"
	RulePythonWrapHTML           = "python-wrap-html"
)

// Rule is one immutable catalog entry. Identity is the ID; the message is a
// remediation hint rendered next to each violation.
type Rule struct {
	// ID is the symbolic identifier (e.g. "javascript-concat-html").
	ID string `json:"id"`

	// Kind is the artifact kind whose scanner emits this rule.
	Kind ArtifactKind `json:"kind"`

	// Message is the human-readable remediation guidance.
	Message string `json:"message"`
}

// =============================================================================
// Catalog
// =============================================================================

// catalog is the process-wide rule registry, read-only after init.
var catalog = map[string]Rule{}

// catalogOrder preserves lexical id order for deterministic listings.
var catalogOrder []string

func register(r Rule) {
	if _, dup := catalog[r.ID]; dup {
		panic(fmt.Sprintf("scanner: duplicate rule id %q", r.ID))
	}
	catalog[r.ID] = r
	catalogOrder = append(catalogOrder, r.ID)
}

func init() {
	register(Rule{
		ID:      RuleMakoNotEscaped,
		Kind:    KindMako,
		Message: "Expressions using the raw (n) filter must wrap their value in HTML() or escape it with markupsafe.escape().",
	})
	register(Rule{
		ID:      RuleUnderscoreNotEscaped,
		Kind:    KindUnderscore,
		Message: "Unescaped expressions (<%= ... %>) are only allowed for HtmlUtils helpers or _.escape().",
	})
	register(Rule{
		ID:      RuleJavaScriptConcatHTML,
		Kind:    KindJavaScript,
		Message: "Strings containing HTML must not be built with concatenation. Use HtmlUtils.interpolateHtml().",
	})
	register(Rule{
		ID:      RuleJavaScriptEscape,
		Kind:    KindJavaScript,
		Message: "Avoid calling escape() directly. Use an HtmlUtils helper, or _.escape() where unavoidable.",
	})
	register(Rule{
		ID:      RuleJavaScriptInterpolate,
		Kind:    KindJavaScript,
		Message: "Only StringUtils.interpolate() may interpolate plain text. For HTML, use HtmlUtils.interpolateHtml().",
	})
	register(Rule{
		ID:      RuleJavaScriptJQueryAppend,
		Kind:    KindJavaScript,
		Message: "append() must receive an element reference or escaped HTML, e.g. HtmlUtils.xxx(...).toString().",
	})
	register(Rule{
		ID:      RuleJavaScriptJQueryHTML,
		Kind:    KindJavaScript,
		Message: "html() must be called with no argument, an empty string, or HtmlUtils.xxx(...).toString().",
	})
	register(Rule{
		ID:      RuleJavaScriptJQueryInsertIntoTarget,
		Kind:    KindJavaScript,
		Message: "appendTo(), prependTo(), insertAfter() and insertBefore() must be called on an element reference.",
	})
	register(Rule{
		ID:      RuleJavaScriptJQueryInsertion,
		Kind:    KindJavaScript,
		Message: "DOM insertion calls (wrap, after, before, replaceWith, ...) must receive an element reference or escaped HTML.",
	})
	register(Rule{
		ID:      RuleJavaScriptJQueryPrepend,
		Kind:    KindJavaScript,
		Message: "prepend() must receive an element reference or escaped HTML, e.g. HtmlUtils.xxx(...).toString().",
	})
	register(Rule{
		ID:      RulePythonCloseBeforeFormat,
		Kind:    KindPython,
		Message: "Close the HTML() or Text() call before calling format(), e.g. HTML('<p>{}</p>').format(...).",
	})
	register(Rule{
		ID:      RulePythonConcatHTML,
		Kind:    KindPython,
		Message: "String concatenation must not be used to build HTML. Use HTML() and Text() with format().",
	})
	register(Rule{
		ID:      RulePythonCustomEscape,
		Kind:    KindPython,
		Message: "Hand-rolled escaping (replace('<', '&lt;')) is not allowed. Use markupsafe.escape().",
	})
	register(Rule{
		ID:      RulePythonDeprecatedDisplay,
		Kind:    KindPython,
		Message: "display_name_with_default_escaped is deprecated. Use display_name_with_default with proper escaping.",
	})
	register(Rule{
		ID:      RulePythonInterpolateHTML,
		Kind:    KindPython,
		Message: "%-interpolation must not be used to build HTML. Use HTML() and Text() with format().",
	})
	register(Rule{
		ID:      RulePythonParseError,
		Kind:    KindPython,
		Message: "File could not be parsed; fix the syntax error so it can be checked.",
	})
	register(Rule{
		ID:      RulePythonRequiresHTMLOrText,
		Kind:    KindPython,
		Message: "format() calls taking HTML() or Text() arguments must themselves be made on HTML() or Text().",
	})
	register(Rule{
		ID:      RulePythonWrapHTML,
		Kind:    KindPython,
		Message: "String literals containing HTML must be wrapped in HTML().",
	})
	sort.Strings(catalogOrder)
}

// RuleByID looks up a catalog entry.
//
// Description:
//
//	Resolves a symbolic rule id to its immutable catalog entry.
//
// Inputs:
//   - id: the symbolic rule id, exactly as registered.
//
// Outputs:
//   - Rule: the catalog entry.
//   - error: ErrUnknownRule (wrapped with the id) when not registered.
func RuleByID(id string) (Rule, error) {
	r, ok := catalog[id]
	if !ok {
		return Rule{}, fmt.Errorf("%w: %q", ErrUnknownRule, id)
	}
	return r, nil
}

// KnownRule reports whether id is registered in the catalog.
func KnownRule(id string) bool {
	_, ok := catalog[id]
	return ok
}

// Rules returns all catalog entries in lexical id order.
func Rules() []Rule {
	out := make([]Rule, 0, len(catalogOrder))
	for _, id := range catalogOrder {
		out = append(out, catalog[id])
	}
	return out
}

// RulesForKind returns the catalog entries emitted by one dialect scanner,
// in lexical id order.
func RulesForKind(kind ArtifactKind) []Rule {
	out := make([]Rule, 0, 8)
	for _, id := range catalogOrder {
		if catalog[id].Kind == kind {
			out = append(out, catalog[id])
		}
	}
	return out
}

// CatalogVersion identifies the rule set for cache keying: bump when rule
// ids, messages, or detection behavior change.
const CatalogVersion = "1"

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
	"sort"
	"strings"
)

// =============================================================================
// Disable-Pragma Engine
// =============================================================================

// pragmaRe recognizes `xss-lint: disable=<rule>[,<rule>...]` markers. The
// marker must begin after at most five whitespace-delimited tokens from the
// line start, which keeps matches anchored to leading comment annotations
// rather than arbitrary text deep inside a line.
var pragmaRe = regexp.MustCompile(`^[ \t]*(?:\S+[ \t]+){0,5}xss-lint:\s*disable=([a-zA-Z,\- ]+)`)

// scanPragmas builds the pending-disable table for one file: rule id to the
// line of its most recent marker. Later markers overwrite earlier ones for
// the same rule.
func scanPragmas(text string) map[string]int {
	pending := make(map[string]int)
	for i, row := range strings.Split(text, "\n") {
		m := pragmaRe.FindStringSubmatch(row)
		if m == nil {
			continue
		}
		for _, id := range strings.Split(m[1], ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			pending[id] = i + 1
		}
	}
	return pending
}

// applyDisablePragmas mutates each violation's Disabled flag against the
// pragmas found in the same text.
//
// Description:
//
//	Violations are visited in ascending line order (ties keep detection
//	order). A violation of rule R on line V is disabled when the pending
//	table holds R at a line ≤ V; the entry is then consumed, so one pragma
//	suppresses exactly one violation even when the marker textually
//	follows the violation on its own line. Markers naming rules with no
//	subsequent violation are never consumed and never error.
//
// Inputs:
//   - vs: detected violations in file-scan order, mutated in place.
//   - text: the raw file text the violations came from.
func applyDisablePragmas(vs []Violation, text string) {
	if len(vs) == 0 {
		return
	}
	pending := scanPragmas(text)
	if len(pending) == 0 {
		return
	}

	order := make([]int, len(vs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return vs[order[i]].Line < vs[order[j]].Line
	})

	for _, idx := range order {
		v := &vs[idx]
		if l, ok := pending[v.Rule]; ok && l <= v.Line {
			v.Disabled = true
			delete(pending, v.Rule)
		}
	}
}

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
	"sort"
	"strings"
)

// =============================================================================
// Line Index
// =============================================================================

// lineIndex maps byte offsets to 1-based line/column positions. Built once
// per scanned file and shared by every dialect pass over that file.
type lineIndex struct {
	text   string
	starts []int
}

func newLineIndex(text string) *lineIndex {
	starts := make([]int, 1, 64)
	starts[0] = 0
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return &lineIndex{text: text, starts: starts}
}

// lineOf returns the 1-based line containing the byte offset. Offsets at or
// past EOF map to the last line.
func (ix *lineIndex) lineOf(off int) int {
	if off < 0 {
		return 1
	}
	return sort.SearchInts(ix.starts, off+1)
}

// colOf returns the 1-based byte column of the offset within its line.
func (ix *lineIndex) colOf(off int) int {
	line := ix.lineOf(off)
	return off - ix.starts[line-1] + 1
}

// lineStart returns the byte offset of the start of the line containing off.
func (ix *lineIndex) lineStart(off int) int {
	return ix.starts[ix.lineOf(off)-1]
}

// lineText returns the 1-based line's text without its newline.
func (ix *lineIndex) lineText(line int) string {
	if line < 1 || line > len(ix.starts) {
		return ""
	}
	start := ix.starts[line-1]
	end := len(ix.text)
	if line < len(ix.starts) {
		end = ix.starts[line] - 1
	}
	return strings.TrimSuffix(ix.text[start:end], "\r")
}

// contextAt returns the trimmed source line used as a violation snippet.
func (ix *lineIndex) contextAt(line int) string {
	return strings.TrimSpace(ix.lineText(line))
}

// =============================================================================
// Quoted Strings
// =============================================================================

// parsedString is a single- or double-quoted literal located in raw text.
// start is -1 when no literal was found; end is -1 when the literal never
// closes.
type parsedString struct {
	start int
	end   int
}

// findString locates the first quoted literal whose opening quote lies in
// [from, to). The literal itself may extend past to; backslash escapes are
// honored inside it.
func findString(text string, from, to int) parsedString {
	for i := from; i < to && i < len(text); i++ {
		c := text[i]
		if c != '\'' && c != '"' {
			continue
		}
		q := c
		j := i + 1
		for j < len(text) {
			switch text[j] {
			case '\\':
				j += 2
			case q:
				return parsedString{start: i, end: j + 1}
			default:
				j++
			}
		}
		return parsedString{start: i, end: -1}
	}
	return parsedString{start: -1, end: -1}
}

// wholeString reports whether s is exactly one quoted literal, nothing
// before or after.
func wholeString(s string) bool {
	ps := findString(s, 0, len(s))
	return ps.start == 0 && ps.end == len(s)
}

// =============================================================================
// Comment-Aware Scanning
// =============================================================================

func isPySpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}

// lineCommentedAt reports whether the line starting at ls leads (possibly
// across blank lines) into the comment delimiter. Blank lines directly
// preceding a commented line count as commented, matching the whitespace
// class used by the delimiter check.
func lineCommentedAt(text string, ls int, delim string) bool {
	i := ls
	for i < len(text) && isPySpace(text[i]) {
		i++
	}
	return strings.HasPrefix(text[i:], delim)
}

// uncommentedFrom returns idx when the line containing idx is not a
// comment-only line; otherwise the start of the next uncommented line, or
// -1 when only commented text remains. A delim of "" disables comment
// awareness.
func uncommentedFrom(text string, idx int, delim string) int {
	if delim == "" {
		return idx
	}
	if idx > len(text) {
		return -1
	}
	ls := idx
	for ls > 0 && text[ls-1] != '\n' {
		ls--
	}
	for {
		if !lineCommentedAt(text, ls, delim) {
			if ls <= idx {
				return idx
			}
			return ls
		}
		nl := strings.IndexByte(text[ls:], '\n')
		if nl < 0 {
			return -1
		}
		ls += nl + 1
	}
}

func indexByteFrom(text string, b byte, from int) int {
	if from >= len(text) {
		return -1
	}
	i := strings.IndexByte(text[from:], b)
	if i < 0 {
		return -1
	}
	return from + i
}

func indexByteBetween(text string, b byte, from, to int) int {
	i := indexByteFrom(text, b, from)
	if i < 0 || i >= to {
		return -1
	}
	return i
}

// findClosingChar finds the closing delimiter matching an already-consumed
// opening one, tracking nesting depth, skipping quoted literals and
// comment-only lines.
//
// Description:
//
//	Starting just after an opening delimiter, walks forward to the close
//	byte that balances it. Quoted literals are skipped wholesale so
//	brackets inside strings do not count; comment-only lines (per
//	commentDelim) are skipped entirely. When startDelim is non-empty and a
//	nested occurrence of it appears before the next open byte, the
//	construct is unparseable.
//
// Inputs:
//   - text: the full source text.
//   - startDelim: the multi-byte opening delimiter (e.g. "${"), or "" when
//     nesting of the opener is legal (function call parens).
//   - open, close: the bracket pair being balanced.
//   - from: offset just past the opening delimiter.
//   - commentDelim: line-comment token, or "" for none.
//
// Outputs:
//   - int: offset of the balancing close byte, or -1 when unparseable or
//     unterminated.
func findClosingChar(text, startDelim string, open, close byte, from int, commentDelim string) int {
	depth := 0
	idx := uncommentedFrom(text, from, commentDelim)
	for idx >= 0 {
		var closeIdx, openIdx int
		var str parsedString
		minValid := -1
		for {
			closeIdx = indexByteFrom(text, close, idx)
			if closeIdx < 0 {
				return -1
			}
			openIdx = indexByteBetween(text, open, idx, closeIdx)
			str = findString(text, idx, closeIdx)
			minValid = closeIdx
			if openIdx >= 0 && openIdx < minValid {
				minValid = openIdx
			}
			if str.start >= 0 && str.start < minValid {
				minValid = str.start
			}
			adj := uncommentedFrom(text, minValid, commentDelim)
			if adj < 0 {
				return -1
			}
			if adj == minValid {
				break
			}
			idx = adj
		}
		switch minValid {
		case str.start:
			if str.end < 0 {
				return -1
			}
			idx = uncommentedFrom(text, str.end, commentDelim)
		case openIdx:
			if startDelim != "" {
				sd := strings.Index(text[idx:closeIdx], startDelim)
				if sd >= 0 && idx+sd < openIdx {
					return -1
				}
			}
			depth++
			idx = uncommentedFrom(text, openIdx+1, commentDelim)
		default:
			if depth == 0 {
				return closeIdx
			}
			depth--
			idx = uncommentedFrom(text, closeIdx+1, commentDelim)
		}
	}
	return -1
}

// dropCommentedViolations removes violations anchored on comment-only
// lines. Pragmas live in comments, so this runs before the pragma pass to
// keep commented-out code from consuming a disable.
func dropCommentedViolations(vs []Violation, ix *lineIndex, delim string) []Violation {
	if delim == "" {
		return vs
	}
	out := vs[:0]
	for _, v := range vs {
		lead := strings.TrimLeft(ix.lineText(v.StartLine), " \t")
		if strings.HasPrefix(lead, delim) {
			continue
		}
		out = append(out, v)
	}
	return out
}

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
// Python Scanner
// =============================================================================
//
// The server dialect needs more than per-line regexes: its rules concern the
// ordering and nesting of HTML()/Text() wrapper calls around .format() calls,
// and literals routinely span lines. A finite-state lexical tracker walks the
// byte stream once, maintaining a quote state, a bracket stack that records
// the call name preceding each open paren, and a per-frame expression cursor
// so the receiver of a .format() call is known without building a parse tree.
//
// Unbalanced quotes or brackets are unrecoverable for this tracker: the scan
// stops and the file reports a single parse-error violation.

const pyCommentDelim = "#"

var (
	// pyMarkupRe recognizes an HTML tag opening: '<' immediately followed by
	// a tag-name character. Bare comparison operators do not match.
	pyMarkupRe = regexp.MustCompile(`<[a-zA-Z/!]`)

	// pyNamedGroupRe excludes regex named groups such as (?P<id>) from
	// markup detection; a literal containing one is never treated as HTML.
	pyNamedGroupRe = regexp.MustCompile(`\(\?P<`)

	// pyCustomEscapeRe catches hand-rolled escaping, a raw '<' being
	// substituted with its entity on the same line.
	pyCustomEscapeRe = regexp.MustCompile(`(<.*&lt;|&lt;.*<)`)
)

// pyDeprecatedAttr is flagged wherever it is accessed as an attribute.
const pyDeprecatedAttr = "display_name_with_default_escaped"

// pyContainsMarkup reports whether a literal body carries an HTML tag, and
// the offset of the first tag within it.
func pyContainsMarkup(body string) (int, bool) {
	if pyNamedGroupRe.MatchString(body) {
		return 0, false
	}
	if m := pyMarkupRe.FindStringIndex(body); m != nil {
		return m[0], true
	}
	return 0, false
}

// =============================================================================
// Expression Cursor
// =============================================================================

const (
	pyExprNone = iota
	pyExprLiteral
	pyExprCallClose
	pyExprIdent
	pyExprOther
)

// pyExpr is the most recently completed expression within one bracket frame.
// It is what a following '.' or '(' attaches to: the receiver of a .format()
// call, the callee of a call, or a literal about to be formatted.
type pyExpr struct {
	kind  int
	start int
	end   int

	// ident fields
	name   string
	dotted bool
	prior  *pyExpr // expression preceding the '.' of a dotted ident

	// call-close fields
	isWrapper bool

	// literal fields
	hasMarkup bool
	markupOff int  // absolute offset of the first tag inside the literal
	wrapped   bool // literal was read inside an open HTML()/Text() frame
}

// pyFrame is one open bracket plus the context needed when it closes.
type pyFrame struct {
	open    byte
	openOff int

	callName  string
	nameStart int
	wasCall   bool
	exprStart int

	last pyExpr

	// lits are the unwrapped markup literals completed inside this frame,
	// including ones bubbled up from closed subframes. When a .format()
	// attaches to an expression in this frame, every recorded literal at or
	// after the receiver's start is inside that expression and needs a
	// wrapper, no matter how deeply a helper call buried it.
	lits []pyExpr

	isWrapper bool
	isFormat  bool

	// format frames
	receiverStart     int
	receiverIsWrapper bool
	argsHaveWrapper   bool

	// wrapper frames: a .format() inside this call is reported once
	formatFlagged bool
}

type pyIdent struct {
	name  string
	start int
}

// =============================================================================
// Scanner State
// =============================================================================

type pyScanner struct {
	text string
	ix   *lineIndex

	// frames[0] is the synthetic module frame; real brackets stack above it.
	frames []pyFrame
	vs     []Violation

	wrapperDepth int
	formatDepth  int

	// once dedupes literal-anchored emissions: a literal flagged as a format
	// argument is not flagged again when it turns out to be the receiver.
	once map[onceKey]bool

	prevIdent pyIdent

	// __repr__ bodies use '<' conventionally; everything but parse errors is
	// suppressed until the first code line at or left of the def's indent.
	suppress       bool
	suppressIndent int
}

type onceKey struct {
	rule string
	off  int
}

func scanPython(text string, ix *lineIndex) []Violation {
	s := &pyScanner{
		text:   text,
		ix:     ix,
		frames: []pyFrame{{}},
		once:   make(map[onceKey]bool),
	}
	if v, failed := s.run(); failed {
		return []Violation{v}
	}
	for _, m := range pyCustomEscapeRe.FindAllStringIndex(text, -1) {
		s.vs = append(s.vs, violationAt(RulePythonCustomEscape, m[0], ix))
	}
	return s.vs
}

func (s *pyScanner) cur() *pyFrame { return &s.frames[len(s.frames)-1] }

func (s *pyScanner) bracketed() bool { return len(s.frames) > 1 }

func (s *pyScanner) emit(v Violation) {
	if !s.suppress {
		s.vs = append(s.vs, v)
	}
}

// emitLiteral anchors a violation at the first markup inside a literal while
// start_line stays on the literal's opening quote.
func (s *pyScanner) emitLiteral(rule string, lit pyExpr) {
	k := onceKey{rule, lit.start}
	if s.once[k] {
		return
	}
	s.once[k] = true
	line := s.ix.lineOf(lit.markupOff)
	s.emit(Violation{
		Rule:      rule,
		Line:      line,
		StartLine: s.ix.lineOf(lit.start),
		Column:    s.ix.colOf(lit.markupOff),
		Context:   s.ix.contextAt(line),
	})
}

func pyParseError(off int, ix *lineIndex) Violation {
	return violationAt(RulePythonParseError, off, ix)
}

// =============================================================================
// Main Loop
// =============================================================================

func (s *pyScanner) run() (Violation, bool) {
	t := s.text
	i := 0
	for i < len(t) {
		c := t[i]
		switch {
		case c == '#':
			for i < len(t) && t[i] != '\n' {
				i++
			}
		case c == '\'' || c == '"':
			ni, ok := s.literal(i)
			if !ok {
				return pyParseError(i, s.ix), true
			}
			i = ni
		case c == '\n':
			if !s.bracketed() {
				// Statement boundary. Backslash continuations never reach
				// this case, so the expression cursor survives them.
				s.cur().last = pyExpr{}
				s.cur().lits = s.cur().lits[:0]
				if s.suppress {
					s.checkDedent(i + 1)
				}
			}
			i++
		case isPyIdentStart(c):
			j := i + 1
			for j < len(t) && isPyIdentChar(t[j]) {
				j++
			}
			s.ident(i, j)
			i = j
		case c == '(' || c == '[' || c == '{':
			s.push(c, i)
			i++
		case c == ')' || c == ']' || c == '}':
			if v, bad := s.pop(c, i); bad {
				return v, true
			}
			i++
		case c == '\\':
			i += 2
		case c == ' ' || c == '\t' || c == '\r' || c == '.':
			i++
		default:
			s.cur().last = pyExpr{}
			i++
		}
	}
	if s.bracketed() {
		return pyParseError(s.cur().openOff, s.ix), true
	}
	return Violation{}, false
}

func isPyIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

func isPyIdentChar(c byte) bool {
	return isPyIdentStart(c) || (c >= '0' && c <= '9')
}

// checkDedent ends __repr__ suppression once the next non-blank, non-comment
// line starts at or left of the def's indentation.
func (s *pyScanner) checkDedent(lineStart int) {
	t := s.text
	j := lineStart
	for j < len(t) && (t[j] == ' ' || t[j] == '\t') {
		j++
	}
	if j >= len(t) || t[j] == '\n' || t[j] == '\r' || t[j] == '#' {
		return
	}
	if j-lineStart <= s.suppressIndent {
		s.suppress = false
	}
}

// =============================================================================
// String Literals
// =============================================================================

// literal consumes a quoted literal starting at the opening quote and runs
// the per-literal checks. A backslash always joins the next byte to the
// literal, so raw-string prefixes need no special casing: they change escape
// interpretation, not where the literal ends. Returns the offset past the
// closing quote, or false when the literal never terminates (a newline in a
// single-quoted string, or end of input).
func (s *pyScanner) literal(i int) (int, bool) {
	t := s.text
	q := t[i]
	delim := string(q)
	triple := strings.HasPrefix(t[i:], delim+delim+delim)
	contentStart := i + 1
	if triple {
		contentStart = i + 3
	}
	j := contentStart
	for {
		if j >= len(t) {
			return 0, false
		}
		c := t[j]
		switch {
		case c == '\\':
			j += 2
		case c == '\n' && !triple:
			return 0, false
		case c == q && (!triple || strings.HasPrefix(t[j:], delim+delim+delim)):
			end := j + 1
			if triple {
				end = j + 3
			}
			s.closeLiteral(i, end, contentStart, j)
			return end, true
		default:
			j++
		}
	}
}

func (s *pyScanner) closeLiteral(start, end, contentStart, contentEnd int) {
	mOff, has := pyContainsMarkup(s.text[contentStart:contentEnd])
	lit := pyExpr{
		kind:      pyExprLiteral,
		start:     start,
		end:       end,
		hasMarkup: has,
		markupOff: contentStart + mOff,
		wrapped:   s.wrapperDepth > 0,
	}
	cur := s.cur()
	// Adjacent literals are one concatenated expression; the merged literal
	// keeps the first part's opening position.
	if prev := cur.last; prev.kind == pyExprLiteral && s.blankGap(prev.end, start) {
		merged := prev
		merged.end = end
		if !merged.hasMarkup && has {
			merged.hasMarkup = true
			merged.markupOff = lit.markupOff
		}
		lit = merged
	}
	cur.last = lit
	if lit.hasMarkup && !lit.wrapped {
		cur.lits = append(cur.lits, lit)
	}
	s.literalChecks(lit)
}

// literalChecks covers the rules decided by the literal itself: markup used
// as a bare format argument, and markup concatenated or %-interpolated in
// place.
func (s *pyScanner) literalChecks(lit pyExpr) {
	if !lit.hasMarkup {
		return
	}
	if s.formatDepth > 0 && !lit.wrapped {
		s.emitLiteral(RulePythonWrapHTML, lit)
	}
	if p, ok := s.prevNonBlank(lit.start); ok {
		switch s.text[p] {
		case '+':
			s.emitLiteral(RulePythonConcatHTML, lit)
		case '%':
			s.emitLiteral(RulePythonInterpolateHTML, lit)
		}
	}
	if n, ok := s.nextNonBlank(lit.end); ok {
		switch s.text[n] {
		case '+':
			s.emitLiteral(RulePythonConcatHTML, lit)
		case '%':
			s.emitLiteral(RulePythonInterpolateHTML, lit)
		}
	}
}

// blankGap reports whether [from,to) holds only whitespace, crossing line
// breaks only inside brackets where Python continues the expression.
func (s *pyScanner) blankGap(from, to int) bool {
	for j := from; j < to; j++ {
		switch s.text[j] {
		case ' ', '\t', '\r':
		case '\n':
			if !s.bracketed() {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (s *pyScanner) prevNonBlank(i int) (int, bool) {
	for j := i - 1; j >= 0; j-- {
		switch s.text[j] {
		case ' ', '\t', '\r':
		case '\n':
			if j > 0 && s.text[j-1] == '\\' {
				j--
				continue
			}
			if !s.bracketed() {
				return 0, false
			}
		default:
			return j, true
		}
	}
	return 0, false
}

func (s *pyScanner) nextNonBlank(i int) (int, bool) {
	for j := i; j < len(s.text); j++ {
		switch s.text[j] {
		case ' ', '\t', '\r':
		case '\\':
			if j+1 < len(s.text) && s.text[j+1] == '\n' {
				j++
				continue
			}
			return j, true
		case '\n':
			if !s.bracketed() {
				return 0, false
			}
		case '#':
			for j < len(s.text) && s.text[j] != '\n' {
				j++
			}
			if j < len(s.text) && !s.bracketed() {
				return 0, false
			}
			j--
		default:
			return j, true
		}
	}
	return 0, false
}

// =============================================================================
// Identifiers
// =============================================================================

func (s *pyScanner) ident(start, end int) {
	name := s.text[start:end]
	cur := s.cur()

	dotted := false
	var prior *pyExpr
	if p, ok := s.prevNonBlank(start); ok && s.text[p] == '.' {
		dotted = true
		if cur.last.kind != pyExprNone {
			cp := cur.last
			prior = &cp
		}
	}

	if dotted && name == pyDeprecatedAttr {
		s.emit(violationAt(RulePythonDeprecatedDisplay, start, s.ix))
	}
	if name == "__repr__" && s.prevIdent.name == "def" {
		s.suppress = true
		s.suppressIndent = s.prevIdent.start - s.ix.lineStart(s.prevIdent.start)
	}
	s.prevIdent = pyIdent{name: name, start: start}

	cur.last = pyExpr{
		kind:   pyExprIdent,
		start:  start,
		end:    end,
		name:   name,
		dotted: dotted,
		prior:  prior,
	}
}

// =============================================================================
// Bracket Frames
// =============================================================================

func (s *pyScanner) push(open byte, off int) {
	cur := s.cur()
	f := pyFrame{
		open:      open,
		openOff:   off,
		wasCall:   cur.last.kind != pyExprNone,
		exprStart: off,
	}
	if f.wasCall {
		f.exprStart = cur.last.start
	}
	if open == '(' && cur.last.kind == pyExprIdent {
		last := cur.last
		f.callName = last.name
		f.nameStart = last.start
		f.exprStart = chainStart(last)
		switch {
		case !last.dotted && (last.name == "HTML" || last.name == "Text"):
			f.isWrapper = true
			s.wrapperDepth++
			// A wrapper call appearing in any open format call's arguments
			// means that format interpolates authorized markup.
			for idx := range s.frames {
				if s.frames[idx].isFormat {
					s.frames[idx].argsHaveWrapper = true
				}
			}
		case last.dotted && last.name == "format":
			f.isFormat = true
			s.formatDepth++
			f.receiverStart = off
			if r := last.prior; r != nil {
				f.receiverStart = chainStart(*r)
				f.receiverIsWrapper = r.kind == pyExprCallClose && r.isWrapper
			}
			// Every unwrapped markup literal inside the receiver expression
			// needs a wrapper: a bare literal, a chained one, or one buried
			// in a helper call such as textwrap.dedent().
			for _, lit := range cur.lits {
				if lit.start >= f.receiverStart {
					s.emitLiteral(RulePythonWrapHTML, lit)
				}
			}
			// Formatting inside a still-open wrapper call means the wrapper
			// closes after interpolation instead of before it.
			for idx := range s.frames {
				fr := &s.frames[idx]
				if fr.isWrapper && !fr.formatFlagged {
					fr.formatFlagged = true
					s.emit(violationAt(RulePythonCloseBeforeFormat, fr.nameStart, s.ix))
				}
			}
		}
	}
	s.frames = append(s.frames, f)
}

func (s *pyScanner) pop(close byte, off int) (Violation, bool) {
	if !s.bracketed() || s.cur().open != pyOpenFor(close) {
		return pyParseError(off, s.ix), true
	}
	f := *s.cur()
	s.frames = s.frames[:len(s.frames)-1]
	cur := s.cur()
	cur.lits = append(cur.lits, f.lits...)

	if f.isWrapper {
		s.wrapperDepth--
	}
	if f.isFormat {
		s.formatDepth--
		if f.argsHaveWrapper && !f.receiverIsWrapper {
			s.emit(violationAt(RulePythonRequiresHTMLOrText, f.receiverStart, s.ix))
		}
	}

	switch {
	case close != ')':
		cur.last = pyExpr{kind: pyExprOther, start: f.exprStart, end: off + 1}
	case f.wasCall:
		cur.last = pyExpr{
			kind:      pyExprCallClose,
			start:     f.exprStart,
			end:       off + 1,
			isWrapper: f.isWrapper,
		}
	case f.last.kind != pyExprNone:
		// A grouping paren hands its inner expression to the outer frame, so
		// ('<p>{}').format(x) still sees a literal receiver.
		cur.last = f.last
		cur.last.end = off + 1
	default:
		cur.last = pyExpr{kind: pyExprOther, start: f.openOff, end: off + 1}
	}
	return Violation{}, false
}

func pyOpenFor(close byte) byte {
	switch close {
	case ')':
		return '('
	case ']':
		return '['
	default:
		return '{'
	}
}

// chainStart walks a dotted attribute chain back to the expression heading
// it, so textwrap.dedent(...) anchors at textwrap.
func chainStart(e pyExpr) int {
	for e.kind == pyExprIdent && e.dotted && e.prior != nil {
		e = *e.prior
	}
	return e.start
}

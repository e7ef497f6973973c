// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package scanner implements the cross-artifact XSS-risk linting engine.
//
// The scanner inspects the source text of four artifact kinds — Mako
// templates, Underscore.js templates, JavaScript, and Python — and reports,
// per file, a sorted list of rule violations that indicate likely
// unescaped-markup injection risk. Detection is lexical pattern recognition
// over token and line structure, not grammar parsing or AST construction,
// and never data-flow analysis: the engine cannot prove a value is
// attacker-controlled. When a construct is ambiguous it is flagged
// (conservative bias).
//
// # Architecture
//
//	File text + ArtifactKind
//	        │
//	        ▼
//	┌──────────────────────────────────────────────┐
//	│ Engine.ScanText                              │
//	│   Mako / Underscore / JavaScript / Python    │
//	│   dialect scanners (pure functions of text)  │
//	└──────────────────────────────────────────────┘
//	        │  raw violations (detection order)
//	        ▼
//	  comment suppression → disable pragmas → sort
//	        │
//	        ▼
//	   FileResults (sorted by line, rule, column)
//
// Each dialect scanner is a pure function of the file text. The shared
// post-pass drops violations on commented-out lines, applies the
// `xss-lint: disable=<rule>` pragma engine, and sorts the survivors by
// (line, rule id, column).
//
// # Dialects
//
//	| Kind       | Extensions        | Detects                                 |
//	|------------|-------------------|-----------------------------------------|
//	| mako       | .html, .xml       | raw-filtered ${...} without a wrapper   |
//	| underscore | .underscore       | <%= ... %> without HtmlUtils/_.escape   |
//	| javascript | .js               | HTML concat, unsafe jQuery DOM calls    |
//	| python     | .py               | HTML literals outside HTML()/Text()     |
//
// JavaScript files additionally run the Underscore scanner, because client
// templates are frequently inlined in script sources.
//
// # Usage
//
//	eng := scanner.New()
//
//	results, err := eng.ScanText(ctx, "static/js/view.js", text, scanner.KindJavaScript)
//	if err != nil {
//	    // unknown artifact kind
//	}
//	for _, v := range results.Violations {
//	    fmt.Printf("%s:%d: %s\n", results.Path, v.Line, v.Rule)
//	}
//
// # Concurrency
//
// Scanners hold no cross-file state; the only shared resource is the
// read-only rule catalog. Multiple files may be scanned in parallel, and
// all four scanners may run concurrently over the same immutable text.
//
// # Thread Safety
//
// All exported types are safe for concurrent use.
package scanner

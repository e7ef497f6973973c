// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command markguard is the cross-artifact XSS-risk linter CLI.
//
// Usage:
//
//	markguard scan [path...]     scan directory trees
//	markguard diff [patch]       scan only the lines a diff touched
//	markguard review [path...]   interactive violation review
//	markguard rules              list the rule catalog
//	markguard serve              HTTP scan API
//	markguard cache clear        drop the results cache
//
// Exit codes: 0 when no enabled violations were found, 1 when violations
// remain, 2 on operational errors.
package main

import (
	"os"
)

// Build metadata, overridden at link time via -ldflags.
var (
	version = "0.1.0"
	commit  = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(CLIExitError)
	}
}

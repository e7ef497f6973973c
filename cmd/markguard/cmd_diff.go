// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/markguard/pkg/ux"
	"github.com/AleutianAI/markguard/services/scanner/diffscope"
	"github.com/AleutianAI/markguard/services/scanner/runner"
)

// runDiff executes `markguard diff [patch-file]`.
//
// Description:
//
//	Parses a unified diff (from the argument file, or stdin with no
//	argument), scans the current working-tree contents of every file the
//	diff touches, and reports only the violations whose span overlaps a
//	changed line. The cache is skipped: a diff run touches few files and
//	the filtered report would poison cached full-file results.
func runDiff(cmd *cobra.Command, args []string) {
	var in io.Reader = os.Stdin
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			ux.Error("Cannot read patch: " + err.Error())
			os.Exit(CLIExitError)
		}
		defer f.Close()
		in = f
	}

	ch, err := diffscope.Parse(in)
	if err != nil {
		if errors.Is(err, diffscope.ErrEmptyDiff) {
			ux.Info("Empty diff, nothing to scan")
			os.Exit(CLIExitSuccess)
		}
		ux.Error("Cannot parse diff: " + err.Error())
		os.Exit(CLIExitError)
	}

	run := runner.New(runner.WithEngine(buildEngine()))
	rep, err := run.RunCandidates(context.Background(), ch.Candidates())
	if err != nil {
		ux.Error("Scan failed: " + err.Error())
		os.Exit(CLIExitError)
	}

	os.Exit(renderReport(ch.Filter(rep)))
}

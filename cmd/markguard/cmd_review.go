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
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/markguard/pkg/ux"
	"github.com/AleutianAI/markguard/services/scanner/tui"
)

// runReview executes `markguard review [path...]`: a full scan followed by
// an interactive terminal walkthrough of the findings.
func runReview(cmd *cobra.Command, args []string) {
	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}

	run, store := buildRunner()
	rep, err := run.Run(context.Background(), roots...)
	if store != nil {
		_ = store.Close()
	}
	if err != nil {
		ux.Error("Scan failed: " + err.Error())
		os.Exit(CLIExitError)
	}

	if len(rep.Files) == 0 {
		ux.Success("No violations found, nothing to review")
		os.Exit(CLIExitSuccess)
	}

	model := tui.NewReviewModel(rep, tui.ReviewConfig{ShowDisabled: showDisabled})
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		ux.Error("Review UI failed: " + err.Error())
		os.Exit(CLIExitError)
	}

	if rep.Clean() {
		os.Exit(CLIExitSuccess)
	}
	os.Exit(CLIExitViolations)
}

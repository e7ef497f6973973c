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
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/markguard/pkg/ux"
	"github.com/AleutianAI/markguard/services/scanner"
)

// runRules executes `markguard rules`, listing the rule catalog grouped by
// artifact kind.
func runRules(cmd *cobra.Command, args []string) {
	rules := scanner.Rules()

	if jsonOut {
		payload := struct {
			CatalogVersion string         `json:"catalog_version"`
			Rules          []scanner.Rule `json:"rules"`
		}{scanner.CatalogVersion, rules}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(payload); err != nil {
			ux.Error("Failed to encode catalog: " + err.Error())
			os.Exit(CLIExitError)
		}
		return
	}

	ux.Title(fmt.Sprintf("Rule catalog (version %s)", scanner.CatalogVersion))
	var lastKind scanner.ArtifactKind
	for _, r := range rules {
		if r.Kind != lastKind {
			fmt.Println()
			fmt.Println(ux.Styles.Subtitle.Render(string(r.Kind)))
			lastKind = r.Kind
		}
		fmt.Printf("  %s\n    %s\n", ux.Styles.Bold.Render(r.ID), ux.Styles.Muted.Render(r.Message))
	}
}

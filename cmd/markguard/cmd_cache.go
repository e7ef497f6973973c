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
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/markguard/cmd/markguard/config"
	"github.com/AleutianAI/markguard/pkg/ux"
)

// runCacheClear executes `markguard cache clear`, deleting the on-disk
// results cache. The next scan repopulates it.
func runCacheClear(cmd *cobra.Command, args []string) {
	dir := expandHome(config.Global.Cache.Dir)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		ux.Info("Cache is already empty")
		return
	}
	if err := os.RemoveAll(dir); err != nil {
		ux.Error("Failed to clear the cache: " + err.Error())
		os.Exit(CLIExitError)
	}
	ux.Success("Cleared the cache at " + dir)
}

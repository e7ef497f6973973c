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
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/AleutianAI/markguard/cmd/markguard/config"
	"github.com/AleutianAI/markguard/pkg/ux"
	"github.com/AleutianAI/markguard/services/scanner"
	"github.com/AleutianAI/markguard/services/scanner/cache"
	"github.com/AleutianAI/markguard/services/scanner/discovery"
	"github.com/AleutianAI/markguard/services/scanner/report"
	"github.com/AleutianAI/markguard/services/scanner/runner"
)

// buildEngine assembles the scan engine from config plus flags.
func buildEngine() *scanner.Engine {
	var opts []scanner.Option
	disabled := append([]string{}, config.Global.Scan.DisabledRules...)
	disabled = append(disabled, disableRules...)
	if len(disabled) > 0 {
		opts = append(opts, scanner.WithDisabledRules(disabled...))
	}
	if noPragmas {
		opts = append(opts, scanner.WithoutPragmas())
	}
	return scanner.New(opts...)
}

// buildWalker assembles the file walker from config.
func buildWalker() *discovery.Walker {
	var opts []discovery.WalkerOption
	if dirs := config.Global.Scan.SkipDirs; len(dirs) > 0 {
		opts = append(opts, discovery.WithSkipDirs(dirs...))
	}
	if config.Global.Scan.MaxFileSize > 0 {
		opts = append(opts, discovery.WithMaxFileSize(config.Global.Scan.MaxFileSize))
	}
	return discovery.NewWalker(opts...)
}

// openCache opens the configured results cache, or nil when caching is off
// or the open fails (a broken cache degrades to full re-scans, never a
// failed run).
func openCache() *cache.Store {
	if !config.Global.Cache.Enabled || noCache {
		return nil
	}
	cfg := cache.Config{
		Path: expandHome(config.Global.Cache.Dir),
		TTL:  time.Duration(config.Global.Cache.TTLDays) * 24 * time.Hour,
	}
	store, err := cache.Open(cfg)
	if err != nil {
		slog.Warn("Results cache unavailable", slog.Any("error", err))
		return nil
	}
	return store
}

// buildRunner assembles the scan runner from config plus flags. The caller
// must Close the returned cache store when non-nil.
func buildRunner() (*runner.Runner, *cache.Store) {
	store := openCache()
	opts := []runner.Option{
		runner.WithEngine(buildEngine()),
		runner.WithWalker(buildWalker()),
	}
	if store != nil {
		opts = append(opts, runner.WithCache(store))
	}
	w := workers
	if w == 0 {
		w = config.Global.Scan.Workers
	}
	if w > 0 {
		opts = append(opts, runner.WithWorkers(w))
	}
	return runner.New(opts...), store
}

// renderReport writes the report to stdout in the flag-selected form and
// returns the exit code the run should end with.
func renderReport(rep *runner.Report) int {
	r := report.NewRenderer(os.Stdout, report.Options{
		JSON:       jsonOut,
		ListFiles:  listFiles,
		RuleTotals: ruleTotals,
		Verbose:    verboseOut,
		Color:      !jsonOut && ux.ShouldShowColors(),
	})
	if err := r.Render(rep); err != nil {
		ux.Error("Failed to render report: " + err.Error())
		return CLIExitError
	}
	if rep.Clean() {
		return CLIExitSuccess
	}
	return CLIExitViolations
}

// expandHome expands a leading ~ to the user's home directory.
func expandHome(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

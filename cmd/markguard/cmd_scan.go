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
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/markguard/cmd/markguard/config"
	"github.com/AleutianAI/markguard/pkg/ux"
	"github.com/AleutianAI/markguard/services/scanner/discovery"
	"github.com/AleutianAI/markguard/services/scanner/runner"
)

// runScan executes `markguard scan [path...]`.
//
// Description:
//
//	Walks the given roots (default "."), scans every recognized artifact,
//	and renders the report. With --watch it then stays running and
//	re-scans files as they change until interrupted.
//
// Exit codes: 0 clean, 1 enabled violations found, 2 operational error.
func runScan(cmd *cobra.Command, args []string) {
	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	run, store := buildRunner()
	closeStore := func() {
		if store != nil {
			_ = store.Close()
		}
	}

	rep, err := run.Run(ctx, roots...)
	if err != nil {
		ux.Error("Scan failed: " + err.Error())
		closeStore()
		os.Exit(CLIExitError)
	}
	code := renderReport(rep)

	if !watchMode {
		closeStore()
		os.Exit(code)
	}

	watchRoots(ctx, run, roots)
	closeStore()
	os.Exit(CLIExitSuccess)
}

// watchRoots re-scans debounced change batches under each root until ctx is
// canceled. Roots that cannot be watched are reported and skipped.
func watchRoots(ctx context.Context, run *runner.Runner, roots []string) {
	handler := func(changed []discovery.Candidate) {
		rep, err := run.RunCandidates(ctx, changed)
		if err != nil {
			ux.Error("Re-scan failed: " + err.Error())
			return
		}
		_ = renderReport(rep)
	}

	var opts []discovery.WatcherOption
	if dirs := config.Global.Scan.SkipDirs; len(dirs) > 0 {
		opts = append(opts, discovery.WithWatchSkipDirs(dirs...))
	}

	var watchers []*discovery.Watcher
	for _, root := range roots {
		w, err := discovery.NewWatcher(root, handler, opts...)
		if err != nil {
			ux.Error("Cannot watch " + root + ": " + err.Error())
			continue
		}
		if err := w.Start(ctx); err != nil {
			ux.Error("Cannot watch " + root + ": " + err.Error())
			w.Stop()
			continue
		}
		watchers = append(watchers, w)
	}
	if len(watchers) == 0 {
		return
	}

	ux.Info("Watching for changes (Ctrl-C to stop)")
	<-ctx.Done()
	for _, w := range watchers {
		w.Stop()
	}
}

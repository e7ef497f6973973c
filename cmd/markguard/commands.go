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
	"github.com/spf13/cobra"

	"github.com/AleutianAI/markguard/cmd/markguard/config"
	"github.com/AleutianAI/markguard/pkg/logging"
	"github.com/AleutianAI/markguard/pkg/ux"
)

// Exit codes shared by all commands.
const (
	CLIExitSuccess    = 0
	CLIExitViolations = 1
	CLIExitError      = 2
)

// --- Global Command Variables ---
var (
	personalityLevel string // UX personality level (standard/minimal/machine)
	logLevel         string // overrides config log.level
	jsonOut          bool
	listFiles        bool
	ruleTotals       bool
	verboseOut       bool
	noPragmas        bool
	noCache          bool
	watchMode        bool
	workers          int
	disableRules     []string
	showDisabled     bool
	serveAddr        string
	serveDebug       bool

	rootCmd = &cobra.Command{
		Use:   "markguard",
		Short: "A cross-artifact XSS-risk linter for templates and scripts",
		Long: `MarkGuard statically scans Mako templates, Underscore.js templates,
JavaScript, and Python sources for likely unescaped-markup injection
risk, and reports per-file rule violations.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if personalityLevel != "" {
				ux.SetPersonalityLevel(ux.ParsePersonalityLevel(personalityLevel))
			} else {
				ux.InitPersonality()
			}
			if err := config.Load(); err != nil {
				ux.Warning("Config not loaded, using defaults: " + err.Error())
			}
			initLogging(cmd)
		},
	}

	// --- Scanning ---
	scanCmd = &cobra.Command{
		Use:   "scan [path...]",
		Short: "Scan directory trees for XSS-risk violations",
		Run:   runScan, // Defined in cmd_scan.go
	}
	diffCmd = &cobra.Command{
		Use:   "diff [patch-file]",
		Short: "Scan a unified diff, reporting only violations on changed lines",
		Long: `Reads a unified diff from the given file (or stdin with no argument),
scans the new side of every changed file, and reports only violations
that overlap added or modified lines.`,
		Args: cobra.MaximumNArgs(1),
		Run:  runDiff, // Defined in cmd_diff.go
	}
	reviewCmd = &cobra.Command{
		Use:   "review [path...]",
		Short: "Interactively review violations in a terminal UI",
		Run:   runReview, // Defined in cmd_review.go
	}

	// --- Catalog ---
	rulesCmd = &cobra.Command{
		Use:   "rules",
		Short: "List the rule catalog",
		Run:   runRules, // Defined in cmd_rules.go
	}

	// --- Server ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the scan engine over HTTP",
		Run:   runServe, // Defined in cmd_serve.go
	}

	// --- Cache ---
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Manage the scan results cache",
	}
	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Delete all cached scan results",
		Run:   runCacheClear, // Defined in cmd_cache.go
	}

	// --- Version ---
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run:   runVersion, // Defined in cmd_version.go
	}
)

// initLogging wires the configured logger into slog's default, which the
// scanner, runner, cache, and server packages log through.
func initLogging(cmd *cobra.Command) {
	level := config.Global.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	quiet := jsonOut || cmd == reviewCmd
	logger := logging.New(logging.Config{
		Level:   logging.ParseLevel(level),
		LogDir:  config.Global.Log.Dir,
		Service: "cli",
		JSON:    config.Global.Log.JSON,
		Quiet:   quiet,
	})
	logger.SetAsDefault()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&personalityLevel, "personality", "",
		"Output style: standard, minimal, or machine")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error")

	// Scan / diff / review share the engine and rendering flags.
	for _, cmd := range []*cobra.Command{scanCmd, diffCmd, reviewCmd} {
		cmd.Flags().BoolVar(&noPragmas, "no-pragmas", false,
			"Ignore xss-lint disable pragmas; report every violation as enabled")
		cmd.Flags().StringSliceVar(&disableRules, "disable", nil,
			"Rule ids to drop from the run entirely")
	}
	for _, cmd := range []*cobra.Command{scanCmd, diffCmd} {
		cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the report as JSON")
		cmd.Flags().BoolVar(&listFiles, "list-files", false,
			"List only the files with enabled violations")
		cmd.Flags().BoolVar(&ruleTotals, "rule-totals", false,
			"Append per-rule enabled-violation counts")
		cmd.Flags().BoolVar(&verboseOut, "verbose", false,
			"Include violations disabled by pragmas")
	}
	scanCmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the results cache")
	scanCmd.Flags().BoolVar(&watchMode, "watch", false,
		"Stay running and re-scan files as they change")
	scanCmd.Flags().IntVar(&workers, "workers", 0,
		"Scan parallelism (default: number of CPUs)")
	reviewCmd.Flags().BoolVar(&showDisabled, "show-disabled", false,
		"Start with pragma-disabled violations visible")

	rulesCmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the catalog as JSON")

	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"Listen address (default from config, :8750)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false,
		"Enable request logging and gin debug mode")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(reviewCmd)
	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	rootCmd.AddCommand(versionCmd)
}

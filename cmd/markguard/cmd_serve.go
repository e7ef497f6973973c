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
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/markguard/cmd/markguard/config"
	"github.com/AleutianAI/markguard/pkg/ux"
	"github.com/AleutianAI/markguard/services/scanner/server"
	"github.com/AleutianAI/markguard/services/scanner/telemetry"
)

// runServe executes `markguard serve`: the HTTP scan API with Prometheus
// metrics and OTLP tracing enabled, running until interrupted.
func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	shutdown, err := telemetry.Init(ctx, telemetry.ServeConfig())
	if err != nil {
		ux.Warning("Telemetry disabled: " + err.Error())
		shutdown = nil
	}

	cfg := server.DefaultConfig()
	if config.Global.Server.Addr != "" {
		cfg.Addr = config.Global.Server.Addr
	}
	if serveAddr != "" {
		cfg.Addr = serveAddr
	}
	if config.Global.Server.MaxFiles > 0 {
		cfg.MaxFiles = config.Global.Server.MaxFiles
	}
	cfg.Debug = serveDebug

	ux.Info("Serving the scan API on " + cfg.Addr)
	runErr := server.New(buildEngine(), cfg).Run(ctx)

	if shutdown != nil {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = shutdown(flushCtx)
	}
	if runErr != nil {
		ux.Error("Server failed: " + runErr.Error())
		os.Exit(CLIExitError)
	}
}

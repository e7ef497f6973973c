// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes the scan engine over HTTP for editor plugins and
// CI jobs that keep a warm markguard process instead of forking the CLI.
//
// Endpoints:
//
//	POST /v1/scan        - scan a batch of in-memory files
//	GET  /v1/rules       - the rule catalog
//	GET  /v1/scan/stream - websocket, one result per submitted file
//	GET  /healthz        - liveness
//	GET  /metrics        - Prometheus metrics (when the exporter is on)
//
// File contents travel in the request; the server never reads the client's
// filesystem.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/AleutianAI/markguard/services/scanner"
	"github.com/AleutianAI/markguard/services/scanner/telemetry"
)

// ErrInvalidInput indicates a malformed argument such as a nil context.
var ErrInvalidInput = errors.New("invalid input")

// Config holds server configuration.
type Config struct {
	// Addr is the listen address, e.g. ":8750".
	Addr string

	// Debug switches gin to debug mode with request logging.
	Debug bool

	// MaxFiles caps the number of files in one scan request.
	MaxFiles int

	// MaxFileBytes caps the text size of a single submitted file.
	MaxFileBytes int
}

// DefaultConfig returns the serve-mode defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         ":8750",
		MaxFiles:     256,
		MaxFileBytes: 4 << 20,
	}
}

// Server serves scan requests over HTTP and websocket.
//
// Thread Safety: Safe for concurrent use; the engine holds no per-file
// state.
type Server struct {
	cfg    Config
	eng    *scanner.Engine
	router *gin.Engine
}

// New creates a server around the given engine.
//
// Inputs:
//   - eng: the scan engine. Nil gets a default engine.
//   - cfg: server configuration. Zero-value fields fall back to defaults.
//
// Outputs:
//   - *Server: ready to Run.
func New(eng *scanner.Engine, cfg Config) *Server {
	if eng == nil {
		eng = scanner.New()
	}
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = def.MaxFiles
	}
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = def.MaxFileBytes
	}

	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{cfg: cfg, eng: eng}
	s.router = s.buildRouter()
	return s
}

func (s *Server) buildRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("markguard-server"))
	if s.cfg.Debug {
		router.Use(gin.Logger())
	}

	router.GET("/healthz", s.handleHealth)
	if mh := telemetry.MetricsHandler(); mh != nil {
		router.GET("/metrics", gin.WrapH(mh))
	}

	v1 := router.Group("/v1")
	{
		v1.POST("/scan", s.handleScan)
		v1.GET("/rules", s.handleRules)
		v1.GET("/scan/stream", s.handleScanStream)
	}
	return router
}

// Router returns the underlying gin router, for tests and embedding.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run serves until ctx is canceled, then shuts down gracefully.
//
// Description:
//
//	Binds cfg.Addr and serves requests. When ctx is canceled the listener
//	drains in-flight requests for up to five seconds before closing.
//
// Inputs:
//   - ctx: cancels the server.
//
// Outputs:
//   - error: a bind or serve failure. Graceful shutdown returns nil.
func (s *Server) Run(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Scan server listening", slog.String("addr", s.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	slog.Info("Scan server stopped")
	return nil
}

// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/AleutianAI/markguard/services/scanner"
)

// validate checks scan request payloads. Initialized once; validator
// instances cache struct metadata and are safe for concurrent use.
var validate = validator.New()

// ScanFile is one in-memory file submitted for scanning.
type ScanFile struct {
	// Path identifies the file in results; it is never opened server-side.
	Path string `json:"path" validate:"required"`

	// Kind is the artifact kind: mako, underscore, javascript, or python.
	Kind string `json:"kind" validate:"required"`

	// Text is the complete file contents.
	Text string `json:"text"`
}

// ScanRequest is the POST /v1/scan payload.
type ScanRequest struct {
	Files []ScanFile `json:"files" validate:"required,min=1,dive"`
}

// ScanResponse is the POST /v1/scan reply.
type ScanResponse struct {
	// RequestID correlates the reply with server logs and traces.
	RequestID string `json:"request_id"`

	// Summary aggregates all submitted files.
	Summary *scanner.Summary `json:"summary"`

	// Files holds per-file sorted violations, in submission order.
	Files []*scanner.FileResults `json:"files"`
}

// handleScan handles POST /v1/scan.
func (s *Server) handleScan(c *gin.Context) {
	requestID := uuid.NewString()

	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := validate.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Files) > s.cfg.MaxFiles {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "too many files", "max_files": s.cfg.MaxFiles,
		})
		return
	}

	summary := scanner.NewSummary()
	resp := ScanResponse{RequestID: requestID, Summary: summary}
	for _, f := range req.Files {
		results, status, msg := s.scanFile(c, f)
		if results == nil {
			c.JSON(status, gin.H{"error": msg, "path": f.Path})
			return
		}
		summary.Add(results)
		resp.Files = append(resp.Files, results)
	}

	slog.Info("Scan request served",
		slog.String("request_id", requestID),
		slog.Int("files", summary.FilesScanned),
		slog.Int("enabled", summary.TotalEnabled),
	)
	c.JSON(http.StatusOK, resp)
}

// scanFile validates and scans one submitted file. A nil result carries an
// HTTP status and message instead.
func (s *Server) scanFile(c *gin.Context, f ScanFile) (*scanner.FileResults, int, string) {
	if len(f.Text) > s.cfg.MaxFileBytes {
		return nil, http.StatusRequestEntityTooLarge, "file too large"
	}
	kind, err := scanner.ParseKind(f.Kind)
	if err != nil {
		return nil, http.StatusBadRequest, err.Error()
	}
	results, err := s.eng.ScanText(c.Request.Context(), f.Path, f.Text, kind)
	if err != nil {
		return nil, http.StatusInternalServerError, err.Error()
	}
	return results, 0, ""
}

// handleRules handles GET /v1/rules.
func (s *Server) handleRules(c *gin.Context) {
	kindParam := c.Query("kind")
	if kindParam == "" {
		c.JSON(http.StatusOK, gin.H{"rules": scanner.Rules()})
		return
	}
	kind, err := scanner.ParseKind(kindParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": scanner.RulesForKind(kind)})
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"rules":  len(scanner.Rules()),
	})
}

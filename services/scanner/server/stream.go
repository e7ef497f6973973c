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
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/AleutianAI/markguard/services/scanner"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// The server binds loopback by default; the payload is the
		// client's own source text, so cross-origin reads leak nothing
		// the client did not send.
		return true
	},
	ReadBufferSize:  1 << 20,
	WriteBufferSize: 1 << 20,
}

// StreamRequest is one inbound websocket message. A file message carries
// Path/Kind/Text; the "summary" action closes the session with totals.
type StreamRequest struct {
	Action string `json:"action,omitempty"` // "" (scan file) or "summary"
	Path   string `json:"path,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Text   string `json:"text,omitempty"`
}

// StreamResponse is one outbound websocket message.
type StreamResponse struct {
	// Results is the scanned file's violations, nil for non-file replies.
	Results *scanner.FileResults `json:"results,omitempty"`

	// Summary is sent in reply to the "summary" action.
	Summary *scanner.Summary `json:"summary,omitempty"`

	Error string `json:"error,omitempty"`
}

func sendJSON(ws *websocket.Conn, v any) error {
	err := ws.WriteJSON(v)
	if err != nil {
		slog.Warn("Failed to write websocket JSON", slog.Any("error", err))
	}
	return err
}

// handleScanStream handles GET /v1/scan/stream.
//
// The client submits one file per message and receives its results before
// the next file is read, so editors can lint save-by-save over a single
// connection. A final "summary" action returns session totals.
func (s *Server) handleScanStream(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("Failed to upgrade websocket", slog.Any("error", err))
		return
	}
	defer ws.Close()

	sessionID := uuid.NewString()
	slog.Info("Scan stream connected", slog.String("session_id", sessionID))

	summary := scanner.NewSummary()
	for {
		var req StreamRequest
		if err := ws.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("Scan stream read failed",
					slog.String("session_id", sessionID),
					slog.Any("error", err),
				)
			}
			return
		}

		if req.Action == "summary" {
			if err := sendJSON(ws, StreamResponse{Summary: summary}); err != nil {
				return
			}
			continue
		}

		results, _, msg := s.scanFile(c, ScanFile{Path: req.Path, Kind: req.Kind, Text: req.Text})
		if results == nil {
			if err := sendJSON(ws, StreamResponse{Error: msg}); err != nil {
				return
			}
			continue
		}
		summary.Add(results)
		if err := sendJSON(ws, StreamResponse{Results: results}); err != nil {
			return
		}
	}
}

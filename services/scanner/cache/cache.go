// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package cache stores scan results keyed by file content, so unchanged
// files skip re-scanning between runs.
//
// Keys combine the rule-catalog version, the artifact kind, and the SHA-256
// of the file text. A file whose content changed, or a run under a newer
// rule set, simply misses and re-scans; stale entries age out via TTL
// rather than explicit invalidation. The store is BadgerDB, the same
// embedded engine the rest of the Aleutian tooling uses for warm local
// state.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/markguard/services/scanner"
)

// ErrClosed is returned when the cache is used after Close.
var ErrClosed = errors.New("cache is closed")

// DefaultTTL is how long an entry survives without being rewritten.
const DefaultTTL = 14 * 24 * time.Hour

// Config holds cache configuration.
type Config struct {
	// Path is the directory for the BadgerDB files. Ignored when InMemory
	// is true.
	Path string

	// InMemory disables disk persistence. Used by tests and --no-cache
	// runs that still want the process-local hit path.
	InMemory bool

	// TTL bounds entry lifetime. Zero means DefaultTTL.
	TTL time.Duration

	// Logger receives BadgerDB's internal logging. Nil disables it.
	Logger *slog.Logger
}

// Store is a content-addressed scan-results cache.
//
// Thread Safety: Safe for concurrent use.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open creates or opens the cache.
//
// Inputs:
//   - cfg: cache configuration. Path is required unless InMemory is true.
//
// Outputs:
//   - *Store: the opened cache. Caller must Close it.
//   - error: invalid configuration or an underlying BadgerDB error.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("cache: path is required for persistent mode")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Store{db: db, ttl: ttl}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Key derives the cache key for one file's text scanned as kind.
func Key(kind scanner.ArtifactKind, text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("scan/v%s/%s/%s", scanner.CatalogVersion, kind, hex.EncodeToString(sum[:]))
}

// entry is the stored form. The path is re-stamped on every Get because the
// same content can appear under different paths.
type entry struct {
	Kind       scanner.ArtifactKind `json:"kind"`
	Violations []scanner.Violation  `json:"violations"`
}

// Get returns the cached results for (kind, text), or a miss.
//
// Outputs:
//   - *scanner.FileResults: rebuilt results with Path set to path; nil on
//     miss.
//   - bool: whether the lookup hit.
//   - error: an underlying database error. A corrupt entry is treated as a
//     miss, not an error.
func (s *Store) Get(path, text string, kind scanner.ArtifactKind) (*scanner.FileResults, bool, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(Key(kind, text)))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		return nil, false, nil
	case errors.Is(err, badger.ErrDBClosed):
		return nil, false, ErrClosed
	case err != nil:
		return nil, false, fmt.Errorf("cache get: %w", err)
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		slog.Debug("Dropping corrupt cache entry", slog.String("path", path))
		return nil, false, nil
	}
	results := scanner.NewFileResults(path, e.Kind)
	results.Violations = e.Violations
	return results, true, nil
}

// Put stores one file's results under its content key.
func (s *Store) Put(text string, results *scanner.FileResults) error {
	raw, err := json.Marshal(entry{Kind: results.Kind, Violations: results.Violations})
	if err != nil {
		return fmt.Errorf("cache encode: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(Key(results.Kind, text)), raw).WithTTL(s.ttl)
		return txn.SetEntry(e)
	})
	if err != nil {
		if errors.Is(err, badger.ErrDBClosed) {
			return ErrClosed
		}
		return fmt.Errorf("cache put: %w", err)
	}
	return nil
}

// Clear drops every cached scan entry.
func (s *Store) Clear() error {
	if err := s.db.DropAll(); err != nil {
		return fmt.Errorf("cache clear: %w", err)
	}
	return nil
}

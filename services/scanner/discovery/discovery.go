// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package discovery finds scannable files and classifies their artifact
// kind. The scan engine itself never touches the filesystem: discovery walks
// directories, filters by extension and skip rules, and hands (path, kind)
// candidates to the driver.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/AleutianAI/markguard/services/scanner"
)

// Sentinel errors for discovery failures.
var (
	// ErrInvalidInput indicates a malformed argument such as a nil context.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotDirectory indicates a walk root that is not a directory.
	ErrNotDirectory = errors.New("not a directory")
)

// DefaultSkipDirs are directory names pruned from every walk. Paths are
// matched per component, so "node_modules" prunes at any depth.
var DefaultSkipDirs = []string{
	".git",
	".tox",
	"node_modules",
	"vendor",
	"bundles",
	"perf_tests",
	"reports",
}

// DefaultMaxFileSize caps how large a file discovery will hand to the
// engine. Generated bundles past this size are skipped, not failed.
const DefaultMaxFileSize = 4 << 20 // 4 MiB

// Candidate is one file the walker classified as scannable.
type Candidate struct {
	// Path is relative to the walk root when the root is relative,
	// absolute otherwise.
	Path string `json:"path"`

	// Kind is the artifact kind derived from the file extension.
	Kind scanner.ArtifactKind `json:"kind"`
}

// Classify maps a file path to its artifact kind by extension.
//
// Outputs:
//   - scanner.ArtifactKind: the kind for a recognized extension.
//   - bool: false when the extension is not scannable.
func Classify(path string) (scanner.ArtifactKind, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".xml":
		return scanner.KindMako, true
	case ".underscore":
		return scanner.KindUnderscore, true
	case ".js":
		return scanner.KindJavaScript, true
	case ".py":
		return scanner.KindPython, true
	default:
		return "", false
	}
}

// Walker walks directory trees and yields scan candidates.
//
// Thread Safety: Safe for concurrent use; Walk holds no state on the
// receiver.
type Walker struct {
	skipDirs    map[string]bool
	maxFileSize int64
}

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithSkipDirs replaces the default skip-directory list.
func WithSkipDirs(dirs ...string) WalkerOption {
	return func(w *Walker) {
		w.skipDirs = make(map[string]bool, len(dirs))
		for _, d := range dirs {
			w.skipDirs[d] = true
		}
	}
}

// WithMaxFileSize replaces the default size cap. Zero disables the cap.
func WithMaxFileSize(n int64) WalkerOption {
	return func(w *Walker) {
		w.maxFileSize = n
	}
}

// NewWalker creates a walker with the default skip list and size cap.
func NewWalker(opts ...WalkerOption) *Walker {
	w := &Walker{
		skipDirs:    make(map[string]bool, len(DefaultSkipDirs)),
		maxFileSize: DefaultMaxFileSize,
	}
	for _, d := range DefaultSkipDirs {
		w.skipDirs[d] = true
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk returns every scannable file under root in walk order.
//
// Description:
//
//	Walks root depth-first, pruning skip directories, ignoring symlinks and
//	files past the size cap, and classifying the rest by extension. The
//	walk honors ctx cancellation between directory entries.
//
// Inputs:
//   - ctx: cancels the walk early.
//   - root: directory to walk. A single-file root yields one candidate.
//
// Outputs:
//   - []Candidate: scannable files, in filepath.WalkDir order.
//   - error: ErrInvalidInput, ErrNotDirectory (wrapped with the path), or
//     the underlying filesystem error.
func (w *Walker) Walk(ctx context.Context, root string) ([]Candidate, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}
	if root == "" {
		return nil, fmt.Errorf("%w: root must not be empty", ErrInvalidInput)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		if kind, ok := Classify(root); ok {
			return []Candidate{{Path: root, Kind: kind}}, nil
		}
		return nil, nil
	}

	var out []Candidate
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && w.skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		kind, ok := Classify(path)
		if !ok {
			return nil
		}
		if w.maxFileSize > 0 {
			fi, err := d.Info()
			if err != nil || fi.Size() > w.maxFileSize {
				return nil
			}
		}
		out = append(out, Candidate{Path: path, Kind: kind})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return out, nil
}

// ReadText loads a candidate's full contents as a string.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(data), nil
}

// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/markguard/services/scanner"
)

// =============================================================================
// Classification
// =============================================================================

func TestClassify(t *testing.T) {
	tests := []struct {
		path string
		want scanner.ArtifactKind
		ok   bool
	}{
		{"templates/course.html", scanner.KindMako, true},
		{"templates/feed.XML", scanner.KindMako, true},
		{"static/templates/item.underscore", scanner.KindUnderscore, true},
		{"static/js/view.js", scanner.KindJavaScript, true},
		{"lms/views.py", scanner.KindPython, true},
		{"README.md", "", false},
		{"style.css", "", false},
		{"no_extension", "", false},
	}
	for _, tt := range tests {
		kind, ok := Classify(tt.path)
		assert.Equal(t, tt.ok, ok, "path %s", tt.path)
		assert.Equal(t, tt.want, kind, "path %s", tt.path)
	}
}

// =============================================================================
// Walking
// =============================================================================

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestWalker_Walk(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "templates", "course.html"), "<p>${x | h}</p>")
	writeFile(t, filepath.Join(root, "static", "view.js"), "var a = 1;")
	writeFile(t, filepath.Join(root, "lms", "views.py"), "x = 1")
	writeFile(t, filepath.Join(root, "lms", "notes.txt"), "not scannable")
	writeFile(t, filepath.Join(root, "node_modules", "dep", "index.js"), "skipped")
	writeFile(t, filepath.Join(root, ".git", "hook.py"), "skipped")

	got, err := NewWalker().Walk(context.Background(), root)
	require.NoError(t, err)

	byPath := make(map[string]scanner.ArtifactKind, len(got))
	for _, c := range got {
		rel, err := filepath.Rel(root, c.Path)
		require.NoError(t, err)
		byPath[filepath.ToSlash(rel)] = c.Kind
	}
	assert.Equal(t, map[string]scanner.ArtifactKind{
		"templates/course.html": scanner.KindMako,
		"static/view.js":        scanner.KindJavaScript,
		"lms/views.py":          scanner.KindPython,
	}, byPath)
}

func TestWalker_SingleFileRoot(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "item.underscore")
	writeFile(t, file, "<p><%- x %></p>")

	got, err := NewWalker().Walk(context.Background(), file)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, scanner.KindUnderscore, got[0].Kind)

	other := filepath.Join(root, "readme.md")
	writeFile(t, other, "hi")
	got, err = NewWalker().Walk(context.Background(), other)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestWalker_MaxFileSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "small.py"), "x = 1")
	writeFile(t, filepath.Join(root, "big.py"), string(make([]byte, 128)))

	got, err := NewWalker(WithMaxFileSize(64)).Walk(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "small.py", filepath.Base(got[0].Path))
}

func TestWalker_InvalidInput(t *testing.T) {
	_, err := NewWalker().Walk(nil, t.TempDir()) //nolint:staticcheck
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewWalker().Walk(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewWalker().Walk(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestReadText(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "view.js")
	writeFile(t, path, "var a = 1;\n")

	text, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "var a = 1;\n", text)

	_, err = ReadText(filepath.Join(root, "missing.js"))
	assert.Error(t, err)
}

// =============================================================================
// Watching
// =============================================================================

func TestWatcher_DebouncedBatch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "view.js"), "var a = 1;")

	batches := make(chan []Candidate, 4)
	w, err := NewWatcher(root, func(changed []Candidate) {
		batches <- changed
	}, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	// Two rapid writes to the same file should coalesce into one batch.
	writeFile(t, filepath.Join(root, "view.js"), "var a = 2;")
	writeFile(t, filepath.Join(root, "view.js"), "var a = 3;")

	select {
	case batch := <-batches:
		require.Len(t, batch, 1)
		assert.Equal(t, scanner.KindJavaScript, batch[0].Kind)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
	}
}

func TestWatcher_IgnoresUnscannableFiles(t *testing.T) {
	root := t.TempDir()

	batches := make(chan []Candidate, 4)
	w, err := NewWatcher(root, func(changed []Candidate) {
		batches <- changed
	}, WithDebounce(30*time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))

	writeFile(t, filepath.Join(root, "notes.txt"), "not scannable")

	select {
	case batch := <-batches:
		t.Fatalf("unexpected batch: %v", batch)
	case <-time.After(300 * time.Millisecond):
	}
}

// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/markguard/services/scanner"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleResults(path string) *scanner.FileResults {
	r := scanner.NewFileResults(path, scanner.KindMako)
	r.Violations = []scanner.Violation{
		{Rule: scanner.RuleMakoNotEscaped, Line: 3, StartLine: 3, Column: 4, Context: "${x | n}"},
	}
	return r
}

func TestStore_MissThenHit(t *testing.T) {
	s := openTestStore(t)
	text := "<p>${x | n}</p>\n"

	_, hit, err := s.Get("a.html", text, scanner.KindMako)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, s.Put(text, sampleResults("a.html")))

	got, hit, err := s.Get("b.html", text, scanner.KindMako)
	require.NoError(t, err)
	require.True(t, hit)

	// Same content under a new path hits and carries the new path.
	assert.Equal(t, "b.html", got.Path)
	assert.Equal(t, scanner.KindMako, got.Kind)
	require.Len(t, got.Violations, 1)
	assert.Equal(t, scanner.RuleMakoNotEscaped, got.Violations[0].Rule)
}

func TestStore_ContentChange_Misses(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Put("v1", sampleResults("a.html")))

	_, hit, err := s.Get("a.html", "v2", scanner.KindMako)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStore_KindIsPartOfKey(t *testing.T) {
	assert.NotEqual(t,
		Key(scanner.KindMako, "same text"),
		Key(scanner.KindPython, "same text"),
	)
	assert.Equal(t,
		Key(scanner.KindMako, "same text"),
		Key(scanner.KindMako, "same text"),
	)
}

func TestStore_Clear(t *testing.T) {
	s := openTestStore(t)
	text := "<p>${x | n}</p>\n"
	require.NoError(t, s.Put(text, sampleResults("a.html")))

	require.NoError(t, s.Clear())

	_, hit, err := s.Get("a.html", text, scanner.KindMako)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestStore_PersistentModeRequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}

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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/markguard/cmd/markguard/config"
	"github.com/AleutianAI/markguard/services/scanner"
)

// =============================================================================
// Helper Tests
// =============================================================================

func TestExpandHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "tilde prefix",
			input:    "~/.markguard/cache",
			expected: filepath.Join(home, ".markguard", "cache"),
		},
		{
			name:     "absolute path untouched",
			input:    "/var/cache/markguard",
			expected: "/var/cache/markguard",
		},
		{
			name:     "relative path untouched",
			input:    "cache",
			expected: "cache",
		},
		{
			name:     "empty path untouched",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandHome(tt.input))
		})
	}
}

func TestBuildEngine_DisabledRules(t *testing.T) {
	config.Global = config.DefaultConfig()
	config.Global.Scan.DisabledRules = []string{"javascript-jquery-html"}
	defer func() {
		config.Global = config.DefaultConfig()
		disableRules = nil
	}()

	eng := buildEngine()
	res, err := eng.ScanText(context.Background(), "app.js",
		"element.html(message);\n", scanner.KindJavaScript)
	require.NoError(t, err)
	assert.Empty(t, res.Violations)

	// Flag-disabled rules stack on top of config-disabled ones.
	config.Global.Scan.DisabledRules = nil
	disableRules = []string{"javascript-jquery-html"}
	eng = buildEngine()
	res, err = eng.ScanText(context.Background(), "app.js",
		"element.html(message);\n", scanner.KindJavaScript)
	require.NoError(t, err)
	assert.Empty(t, res.Violations)
}

// =============================================================================
// Command Wiring Tests
// =============================================================================

func TestRootCommand_SubcommandsRegistered(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"scan", "diff", "review", "rules", "serve", "cache", "version"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
}

func TestScanCommand_Flags(t *testing.T) {
	for _, flag := range []string{"json", "list-files", "rule-totals", "verbose",
		"no-pragmas", "disable", "no-cache", "watch", "workers"} {
		assert.NotNil(t, scanCmd.Flags().Lookup(flag), "missing flag --%s", flag)
	}
}

// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Default Tests
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, ":8750", cfg.Server.Addr)
	assert.Contains(t, cfg.Scan.SkipDirs, "node_modules")
	assert.NoError(t, validate.Struct(&cfg))
}

func TestDefaultConfig_RoundTripsThroughYAML(t *testing.T) {
	cfg := DefaultConfig()

	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	var loaded MarkguardConfig
	require.NoError(t, yaml.Unmarshal(data, &loaded))
	assert.Equal(t, cfg, loaded)
}

// =============================================================================
// Load Tests
// =============================================================================

func TestLoadInternal_ProjectConfig(t *testing.T) {
	dir := t.TempDir()
	projectCfg := `
scan:
  workers: 4
  disabled_rules: [python-deprecated-display-name]
cache:
  enabled: false
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte(projectCfg), 0644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	Global = DefaultConfig()
	require.NoError(t, loadInternal())

	assert.Equal(t, 4, Global.Scan.Workers)
	assert.Equal(t, []string{"python-deprecated-display-name"}, Global.Scan.DisabledRules)
	assert.False(t, Global.Cache.Enabled)
	assert.Equal(t, "debug", Global.Log.Level)
	// Unset fields keep their defaults.
	assert.Equal(t, ":8750", Global.Server.Addr)
}

func TestLoadInternal_InvalidConfigRejected(t *testing.T) {
	dir := t.TempDir()
	bad := `
log:
  level: shouting
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte(bad), 0644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	Global = DefaultConfig()
	assert.Error(t, loadInternal())
}

func TestLoadInternal_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigName), []byte("scan: ["), 0644))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer os.Chdir(cwd)

	Global = DefaultConfig()
	assert.Error(t, loadInternal())
}

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
	"github.com/AleutianAI/markguard/services/scanner/discovery"
)

// MarkguardConfig is the on-disk configuration for the markguard CLI.
//
// Flags override config values; config values override defaults. The file
// is looked up as .markguard.yaml in the working directory, then
// ~/.markguard/markguard.yaml.
type MarkguardConfig struct {
	// Scan controls discovery and engine behavior.
	Scan ScanConfig `yaml:"scan"`

	// Cache controls the content-addressed results cache.
	Cache CacheConfig `yaml:"cache"`

	// Log controls structured logging.
	Log LogConfig `yaml:"log"`

	// Server controls `markguard serve`.
	Server ServerConfig `yaml:"server"`
}

// ScanConfig controls discovery and the scan engine.
type ScanConfig struct {
	// SkipDirs are directory names pruned from every walk.
	SkipDirs []string `yaml:"skip_dirs"`

	// MaxFileSize caps, in bytes, how large a file gets scanned.
	// Zero disables the cap.
	MaxFileSize int64 `yaml:"max_file_size" validate:"gte=0"`

	// Workers bounds scan parallelism. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" validate:"gte=0,lte=256"`

	// DisabledRules removes rule ids from every scan's output.
	DisabledRules []string `yaml:"disabled_rules"`
}

// CacheConfig controls the BadgerDB results cache.
type CacheConfig struct {
	// Enabled turns the cache on. --no-cache overrides per run.
	Enabled bool `yaml:"enabled"`

	// Dir is the cache directory. Supports ~ expansion.
	Dir string `yaml:"dir"`

	// TTLDays bounds entry lifetime. Zero means the cache default.
	TTLDays int `yaml:"ttl_days" validate:"gte=0,lte=365"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn warning error"`

	// Dir enables file logging when set. Supports ~ expansion.
	Dir string `yaml:"dir"`

	// JSON switches stderr logs to JSON.
	JSON bool `yaml:"json"`
}

// ServerConfig controls serve mode.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`

	// MaxFiles caps files per scan request.
	MaxFiles int `yaml:"max_files" validate:"gte=0,lte=4096"`
}

// DefaultConfig returns the configuration written on first run.
func DefaultConfig() MarkguardConfig {
	return MarkguardConfig{
		Scan: ScanConfig{
			SkipDirs:    discovery.DefaultSkipDirs,
			MaxFileSize: discovery.DefaultMaxFileSize,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "~/.markguard/cache",
			TTLDays: 14,
		},
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr:     ":8750",
			MaxFiles: 256,
		},
	}
}

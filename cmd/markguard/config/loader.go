// Copyright (C) 2026 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads the markguard CLI configuration.
//
// Resolution order: .markguard.yaml in the working directory (per-project
// overrides, committed alongside the code they lint), then
// ~/.markguard/markguard.yaml (user defaults, created on first run).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ProjectConfigName is the per-project config filename.
const ProjectConfigName = ".markguard.yaml"

var (
	// Global is a singleton instance, populated by Load.
	Global MarkguardConfig
	once   sync.Once

	validate = validator.New()
)

// Load ensures the config is loaded into the Global variable.
//
// Description:
//
//	Loads the project config when present, otherwise the user config
//	(creating it with defaults on first run), then validates it. Safe to
//	call from every command handler; only the first call does work.
//
// Outputs:
//   - error: read, parse, or validation failure. Global holds defaults
//     when Load fails, so callers may proceed degraded.
func Load() error {
	var err error
	once.Do(func() {
		Global = DefaultConfig()
		err = loadInternal()
	})
	return err
}

func loadInternal() error {
	path, err := resolvePath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &Global); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := validate.Struct(&Global); err != nil {
		return fmt.Errorf("invalid config %s: %w", path, err)
	}
	return nil
}

// resolvePath picks the config file to read, creating the user config with
// defaults when neither exists.
func resolvePath() (string, error) {
	if _, err := os.Stat(ProjectConfigName); err == nil {
		return ProjectConfigName, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find the user's home directory: %w", err)
	}
	userPath := filepath.Join(home, ".markguard", "markguard.yaml")
	if _, err := os.Stat(userPath); os.IsNotExist(err) {
		fmt.Printf("First run detected, creating the config at %s\n", userPath)
		if err := createDefault(userPath); err != nil {
			return "", err
		}
	}
	return userPath, nil
}

func createDefault(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create the config directory: %w", err)
	}
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

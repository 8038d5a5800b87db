// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for pinlock.
//
// Supports both TOML and JSON configuration formats, with defaults,
// environment variable overrides, validation, and reload on change.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - LockConfig: PIN and relock settings
//   - LabelsConfig: Display text overrides
//   - AuditConfig: Audit log and event history settings
//   - Watcher: Reloads the config file when it changes on disk
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (PINLOCK_*)
//   - ~/.pinlock/config.toml
//   - ~/.pinlock/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Build a gate from it:
//
//	g := gate.New(cfg.GateOptions())
package config

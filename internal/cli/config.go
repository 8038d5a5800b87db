// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Config command implementation for pinlock.
//
// Command: config [subcommand]
//
// Subcommands:
//   show (default)      Display current configuration (PIN redacted)
//   get <key>           Display one value
//   set <key> <value>   Set a configuration value
//   keys                List all keys
//   reset               Reset to default configuration
//   path                Show configuration file path
//
// Examples:
//   pinlock config set lock.auto_lock_minutes 5
//   pinlock config set lock.lock_on_resume true
//   pinlock config set labels.header "Vault locked"
//   pinlock config set lock.correct_pin ""      Forget the PIN (next lock opens in setup)

package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jeranaias/pinlock-tui/internal/config"
)

const pinKey = "lock.correct_pin"

// HandleConfig handles the "config" command.
func HandleConfig(args Args) error {
	return runConfig(os.Stdout, args)
}

func runConfig(w io.Writer, args Args) error {
	switch args.Subcommand {
	case "", "show":
		return configShow(w, args)
	case "get":
		return configGet(w, args)
	case "set":
		return configSet(w, args)
	case "keys":
		return configKeys(w, args)
	case "reset":
		return configReset(w, args)
	case "path":
		return configPath(w, args)
	default:
		return NewUsageError("config subcommand", args.Subcommand,
			"expected show, get, set, keys, reset or path", "pinlock config show")
	}
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func configShow(w io.Writer, args Args) error {
	cfg, path, err := loadConfig(args)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("config show", redacted(cfg)).Fprint(w)
	}

	fmt.Fprintln(w, TitleStyle.Render("pinlock configuration"))
	fmt.Fprintln(w, RenderField("file", path))
	fmt.Fprintln(w)
	for _, key := range config.GetAllKeys() {
		if key == "version" {
			continue
		}
		value, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, RenderField(key, displayValue(key, value)))
	}
	return nil
}

func configGet(w io.Writer, args Args) error {
	if args.ConfigKey == "" {
		return NewUsageError("key", "", "missing config key", "pinlock config get lock.auto_lock_minutes")
	}
	cfg, _, err := loadConfig(args)
	if err != nil {
		return err
	}
	value, err := cfg.Get(args.ConfigKey)
	if err != nil {
		return &NotFoundError{Resource: "config key", ID: args.ConfigKey}
	}

	shown := displayValue(args.ConfigKey, value)
	if args.JSON {
		return NewJSONResponse("config get", ConfigValueData{Key: args.ConfigKey, Value: shown}).Fprint(w)
	}
	fmt.Fprintln(w, shown)
	return nil
}

func configSet(w io.Writer, args Args) error {
	if args.ConfigKey == "" {
		return NewUsageError("key", "", "missing config key", "pinlock config set lock.lock_on_resume true")
	}
	if len(args.Raw) < 3 {
		return NewUsageError("value", "", "missing value for "+args.ConfigKey,
			"pinlock config set "+args.ConfigKey+" <value>")
	}

	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}
	// Edit the file as written so PINLOCK_* overrides are not saved.
	cfg, err := config.ReadFile(path)
	if err != nil {
		return NewCommandError("config", "set", "could not read config", err)
	}
	if _, err := cfg.Get(args.ConfigKey); err != nil {
		return &NotFoundError{Resource: "config key", ID: args.ConfigKey}
	}
	value := strings.Trim(args.ConfigVal, `"'`)
	if err := cfg.Set(args.ConfigKey, value); err != nil {
		return NewUsageError("value", value, err.Error(), "")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := saveConfig(cfg, path); err != nil {
		return NewCommandError("config", "set", "could not save config", err)
	}

	shown := displayValue(args.ConfigKey, value)
	if args.JSON {
		return NewJSONResponse("config set", ConfigValueData{Key: args.ConfigKey, Value: shown}).Fprint(w)
	}
	if !args.Quiet {
		fmt.Fprintf(w, "%s %s = %s\n", SuccessStyle.Render("Set"), args.ConfigKey, shown)
	}
	return nil
}

func configKeys(w io.Writer, args Args) error {
	keys := config.GetAllKeys()
	if args.JSON {
		return NewJSONResponse("config keys", keys).Fprint(w)
	}
	for _, k := range keys {
		fmt.Fprintln(w, k)
	}
	return nil
}

func configReset(w io.Writer, args Args) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}
	if err := saveConfig(config.Default(), path); err != nil {
		return NewCommandError("config", "reset", "could not save config", err)
	}
	if args.JSON {
		return NewJSONResponse("config reset", ConfigPathData{Path: path, Exists: true}).Fprint(w)
	}
	if !args.Quiet {
		fmt.Fprintf(w, "%s configuration reset to defaults (%s)\n", SuccessStyle.Render("OK"), path)
	}
	return nil
}

func configPath(w io.Writer, args Args) error {
	path, err := resolveConfigPath(args)
	if err != nil {
		return err
	}
	if args.JSON {
		return NewJSONResponse("config path", ConfigPathData{Path: path, Exists: fileExists(path)}).Fprint(w)
	}
	fmt.Fprintln(w, path)
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// displayValue formats a value for output, hiding the PIN.
func displayValue(key string, value interface{}) string {
	s := fmt.Sprint(value)
	if strings.EqualFold(key, pinKey) {
		if s == "" {
			return "(not set)"
		}
		return "[REDACTED]"
	}
	if s == "" {
		return DimStyle.Render("(default)")
	}
	return s
}

func redacted(cfg *config.Config) *config.Config {
	safe := cfg.Clone()
	if safe.Lock.CorrectPin != "" {
		safe.Lock.CorrectPin = "[REDACTED]"
	}
	return safe
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Wiring shared by the tui and prompt commands.
//
// An Env loads the config, opens the audit log and event history, and
// builds the gate with both trails attached as sinks. A newly confirmed PIN
// is written back to the config file and applied to the gate.

package cli

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/jeranaias/pinlock-tui/internal/audit"
	"github.com/jeranaias/pinlock-tui/internal/config"
	"github.com/jeranaias/pinlock-tui/internal/gate"
	"github.com/jeranaias/pinlock-tui/internal/storage"
)

// Env holds the open resources for one interactive run.
type Env struct {
	Args       Args
	Config     *config.Config
	ConfigPath string

	Audit   *audit.Logger       // nil when disabled
	History *storage.EventStore // nil when disabled
	Gate    *gate.Gate
}

// OpenEnv loads configuration and opens the audit trails. Trail failures
// are reported and skipped; the lock works without them.
func OpenEnv(args Args) (*Env, error) {
	cfg, path, err := loadConfig(args)
	if err != nil {
		return nil, err
	}

	e := &Env{Args: args, Config: cfg, ConfigPath: path}

	if cfg.Audit.Enabled && !args.NoAudit {
		logPath := cfg.Audit.LogPath
		if logPath == "" {
			logPath = audit.DefaultPath()
		}
		logger, err := audit.NewLogger(logPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: audit log disabled: %v\n", err)
		} else {
			logger.SetOnFailure(func(err error) {
				log.Printf("AUDIT_WRITE_FAILED | path=%s error=%v", logPath, err)
			})
			e.Audit = logger
		}
	}

	if cfg.Audit.HistoryEnabled && !args.NoAudit {
		histPath := cfg.Audit.HistoryPath
		if histPath == "" {
			histPath = storage.DefaultHistoryPath()
		}
		store, err := storage.OpenEventStore(histPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: event history disabled: %v\n", err)
		} else {
			e.History = store
		}
	}

	e.Gate = gate.New(e.gateOptions())
	return e, nil
}

// gateOptions builds gate options from the current config with the
// env's sinks and PIN callback attached.
func (e *Env) gateOptions() gate.Options {
	opts := e.Config.GateOptions()
	opts.OnSetPin = e.storePin

	var sinks gate.Sinks
	if e.Audit != nil {
		sinks = append(sinks, e.Audit)
	}
	if e.History != nil {
		sinks = append(sinks, e.History)
	}
	if len(sinks) > 0 {
		opts.Sink = sinks
	}
	return opts
}

// storePin adopts a newly confirmed PIN and saves it when configured to.
// Only lock.correct_pin changes in the file; env overrides stay out of it.
func (e *Env) storePin(pin string) {
	e.Config.Lock.CorrectPin = pin
	if e.Config.Lock.SaveNewPin {
		err := editConfigFile(e.ConfigPath, func(cfg *config.Config) error {
			cfg.Lock.CorrectPin = pin
			return nil
		})
		if err != nil {
			log.Printf("PIN_SAVE_FAILED | path=%s error=%v", e.ConfigPath, err)
		} else {
			log.Printf("PIN_SAVED | path=%s length=%d", e.ConfigPath, len(pin))
		}
		if os.Getenv("PINLOCK_PIN") != "" {
			log.Printf("PIN_ENV_OVERRIDE | PINLOCK_PIN replaces the saved PIN on reload")
		}
	}
	e.Gate.Reconfigure(e.gateOptions())
}

// ApplyConfig switches to a reloaded config. Lifecycle history is kept.
func (e *Env) ApplyConfig(cfg *config.Config) {
	e.Config = cfg
	e.Gate.Reconfigure(e.gateOptions())
}

// SessionID returns the current gate session, or "startup" before the
// first presentation.
func (e *Env) SessionID() string {
	if id := e.Gate.SessionID(); id != "" {
		return id
	}
	return "startup"
}

// Close flushes and closes the audit trails.
func (e *Env) Close() error {
	var errs []string
	if e.Audit != nil {
		if err := e.Audit.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if e.History != nil {
		if err := e.History.Close(); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to close trails: %s", strings.Join(errs, "; "))
	}
	return nil
}

// =============================================================================
// CONFIG FILE RESOLUTION
// =============================================================================

// resolveConfigPath returns the file config commands read and write:
// --config, else config.toml, else an existing config.json.
func resolveConfigPath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	tomlPath, err := config.ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if fileExists(tomlPath) {
		return tomlPath, nil
	}
	if jsonPath, err := config.ConfigPathJSON(); err == nil && fileExists(jsonPath) {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// loadConfig loads the resolved config file, or defaults (with env
// overrides) when it does not exist yet.
func loadConfig(args Args) (*config.Config, string, error) {
	path, err := resolveConfigPath(args)
	if err != nil {
		return nil, "", err
	}

	if !fileExists(path) {
		cfg := config.Default()
		cfg.ApplyEnvOverrides()
		cfg.SetDefaults()
		if err := cfg.Validate(); err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// editConfigFile applies edit to the file at path as written and saves it.
func editConfigFile(path string, edit func(*config.Config) error) error {
	cfg, err := config.ReadFile(path)
	if err != nil {
		return err
	}
	if err := edit(cfg); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return saveConfig(cfg, path)
}

// saveConfig writes cfg in the format implied by path's extension.
func saveConfig(cfg *config.Config, path string) error {
	if strings.HasSuffix(path, ".json") {
		return config.SaveJSON(cfg, path)
	}
	return config.SaveTOML(cfg, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for pinlock.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/pinlock-tui/internal/gate"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete pinlock configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Lock behaviour
	Lock LockConfig `toml:"lock" json:"lock"`

	// Display text overrides
	Labels LabelsConfig `toml:"labels" json:"labels"`

	// Audit trail and event history
	Audit AuditConfig `toml:"audit" json:"audit"`

	// Terminal UI
	UI UIConfig `toml:"ui" json:"ui"`
}

// LockConfig holds the PIN and relock settings.
type LockConfig struct {
	// CorrectPin is the PIN to unlock with. Empty means none is set and the
	// lock opens in Setup mode. Digits only.
	CorrectPin string `toml:"correct_pin" json:"correct_pin"`
	// LockOnResume locks every time the app returns to the foreground.
	LockOnResume bool `toml:"lock_on_resume" json:"lock_on_resume"`
	// AutoLockMinutes locks on return after this long in the background (0 = off).
	AutoLockMinutes float64 `toml:"auto_lock_minutes" json:"auto_lock_minutes"`
	// LockOnStart shows the lock when the TUI starts.
	LockOnStart bool `toml:"lock_on_start" json:"lock_on_start"`
	// SaveNewPin writes a newly confirmed PIN back to the config file.
	SaveNewPin bool `toml:"save_new_pin" json:"save_new_pin"`
}

// LabelsConfig overrides the lock's display text. Empty values keep the defaults.
type LabelsConfig struct {
	Header  string `toml:"header" json:"header"`
	Setup   string `toml:"setup" json:"setup"`
	Confirm string `toml:"confirm" json:"confirm"`
	Reset   string `toml:"reset" json:"reset"`
	Cancel  string `toml:"cancel" json:"cancel"`
}

// AuditConfig controls the audit log and the SQLite event history.
type AuditConfig struct {
	// Enabled turns on the audit log.
	Enabled bool `toml:"enabled" json:"enabled"`
	// LogPath is the audit log file (empty = ~/.pinlock/audit.log).
	LogPath string `toml:"log_path" json:"log_path"`
	// HistoryEnabled records events in the SQLite history database.
	HistoryEnabled bool `toml:"history_enabled" json:"history_enabled"`
	// HistoryPath is the history database (empty = ~/.pinlock/history.db).
	HistoryPath string `toml:"history_path" json:"history_path"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Shake enables the shake feedback on a wrong PIN.
	Shake bool `toml:"shake" json:"shake"`
	// ASCII forces ASCII glyphs for the PIN dots.
	ASCII bool `toml:"ascii" json:"ascii"`
	// WatchConfig reloads the config file when it changes.
	WatchConfig bool `toml:"watch_config" json:"watch_config"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Lock: LockConfig{
			CorrectPin:      "",
			LockOnResume:    false,
			AutoLockMinutes: 0,
			LockOnStart:     true,
			SaveNewPin:      true,
		},
		Audit: AuditConfig{
			Enabled:        true,
			HistoryEnabled: true,
		},
		UI: UIConfig{
			Shake:       true,
			ASCII:       false,
			WatchConfig: true,
		},
	}
}

// GateOptions converts the lock settings to gate options. Callbacks and
// sinks are left for the caller.
func (c *Config) GateOptions() gate.Options {
	return gate.Options{
		CorrectPin:      c.Lock.CorrectPin,
		LockOnResume:    c.Lock.LockOnResume,
		AutoLockMinutes: c.Lock.AutoLockMinutes,
		Labels: gate.Labels{
			Header:  c.Labels.Header,
			Setup:   c.Labels.Setup,
			Confirm: c.Labels.Confirm,
			Reset:   c.Labels.Reset,
			Cancel:  c.Labels.Cancel,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the pinlock configuration directory.
// PINLOCK_HOME overrides the default ~/.pinlock.
func ConfigDir() (string, error) {
	if dir := os.Getenv("PINLOCK_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".pinlock"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// ensureSecurePermissions tightens a config file to 0600; it may hold the PIN.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile loads the file at path as written: no environment overrides and
// no validation. A missing file yields the defaults. Edit and save the
// result to change the file without writing overrides into it.
func ReadFile(path string) (*Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	var err error
	if strings.HasSuffix(path, ".json") {
		err = LoadJSON(cfg, path)
	} else {
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.Migrate()
	cfg.SetDefaults()
	return cfg, nil
}

// finish applies env overrides, migration, defaults and validation.
func (c *Config) finish() error {
	c.ApplyEnvOverrides()
	c.Migrate()
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path atomically with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# pinlock configuration file\n")
	b.WriteString("# Generated by pinlock - edit with care\n\n")

	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := atomicWriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes cfg to path atomically with 0600 permissions.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := atomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// atomicWriteFile writes to a temp file in the target directory, syncs it,
// and renames it over path, so readers (and the config watcher) never see a
// partial file.
func atomicWriteFile(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}

	f, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := f.Name()

	success := false
	defer func() {
		if !success {
			f.Close()
			os.Remove(tempPath)
		}
	}()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync data to disk: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to set file permissions: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ErrInvalidPin is wrapped by ValidatePin errors.
var ErrInvalidPin = errors.New("PIN must contain only the digits 0-9")

// ValidatePin checks that pin is empty or all ASCII digits.
func ValidatePin(pin string) error {
	for _, r := range pin {
		if r < '0' || r > '9' {
			return ErrInvalidPin
		}
	}
	return nil
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if err := ValidatePin(c.Lock.CorrectPin); err != nil {
		errs = append(errs, ValidationError{
			Field:   "lock.correct_pin",
			Message: err.Error(),
		})
	}

	if c.Lock.AutoLockMinutes < 0 {
		errs = append(errs, ValidationError{
			Field:   "lock.auto_lock_minutes",
			Message: fmt.Sprintf("must be 0 (disabled) or positive, got %v", c.Lock.AutoLockMinutes),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills in zero-value fields that must not stay empty.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = Default().Version
	}
}

// Migrate normalizes values written by older versions.
func (c *Config) Migrate() {
	// Older files wrote the PIN with surrounding whitespace or as a number.
	c.Lock.CorrectPin = strings.TrimSpace(c.Lock.CorrectPin)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - PINLOCK_PIN: overrides lock.correct_pin, including a PIN set from
//     the lock screen once the file is reloaded
//   - PINLOCK_LOCK_ON_RESUME: "1" or "true" to lock on every resume
//   - PINLOCK_AUTO_LOCK_MINUTES: overrides lock.auto_lock_minutes
//   - PINLOCK_AUDIT: "0" or "false" disables the audit log
func (c *Config) ApplyEnvOverrides() {
	if pin := os.Getenv("PINLOCK_PIN"); pin != "" {
		c.Lock.CorrectPin = pin
	}

	if v := os.Getenv("PINLOCK_LOCK_ON_RESUME"); v != "" {
		c.Lock.LockOnResume = parseBool(v)
	}

	if v := os.Getenv("PINLOCK_AUTO_LOCK_MINUTES"); v != "" {
		if mins, err := strconv.ParseFloat(v, 64); err == nil {
			c.Lock.AutoLockMinutes = mins
		} else {
			fmt.Fprintf(os.Stderr, "Warning: ignoring PINLOCK_AUTO_LOCK_MINUTES=%q: %v\n", v, err)
		}
	}

	if v := os.Getenv("PINLOCK_AUDIT"); v != "" {
		c.Audit.Enabled = parseBool(v)
	}
}

func parseBool(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "1" || v == "true" || v == "yes"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "lock.lock_on_resume").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"lock.correct_pin",
		"lock.lock_on_resume",
		"lock.auto_lock_minutes",
		"lock.lock_on_start",
		"lock.save_new_pin",
		"labels.header",
		"labels.setup",
		"labels.confirm",
		"labels.reset",
		"labels.cancel",
		"audit.enabled",
		"audit.log_path",
		"audit.history_enabled",
		"audit.history_path",
		"ui.shake",
		"ui.ascii",
		"ui.watch_config",
	}
}

// Clone returns a copy of the configuration. Config holds no reference types.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as JSON with the PIN redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.Lock.CorrectPin != "" {
		safe.Lock.CorrectPin = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Load errors fall back to defaults with a warning.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	SetGlobal(cfg)
	return nil
}

// SetGlobal sets the global configuration instance.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}

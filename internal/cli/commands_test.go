// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pinlock-tui/internal/config"
	"github.com/jeranaias/pinlock-tui/internal/storage"
)

// isolateHome points PINLOCK_HOME at a temp dir and clears env overrides.
func isolateHome(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PINLOCK_HOME", dir)
	t.Setenv("PINLOCK_PIN", "")
	t.Setenv("PINLOCK_LOCK_ON_RESUME", "")
	t.Setenv("PINLOCK_AUTO_LOCK_MINUTES", "")
	t.Setenv("PINLOCK_AUDIT", "")
	return dir
}

// writeConfig saves cfg as the default config file.
func writeConfig(t *testing.T, dir string, mutate func(*config.Config)) string {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, config.SaveTOML(cfg, path))
	return path
}

func runConfigArgs(t *testing.T, argv ...string) (string, error) {
	t.Helper()
	_, args := ParseArgs(append([]string{"config"}, argv...))
	var buf bytes.Buffer
	err := runConfig(&buf, args)
	return buf.String(), err
}

// =============================================================================
// CONFIG COMMAND
// =============================================================================

func TestConfigCmd_Path(t *testing.T) {
	dir := isolateHome(t)

	out, err := runConfigArgs(t, "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.toml"), strings.TrimSpace(out))
}

func TestConfigCmd_SetPersists(t *testing.T) {
	dir := isolateHome(t)

	_, err := runConfigArgs(t, "set", "lock.auto_lock_minutes", "5")
	require.NoError(t, err)
	_, err = runConfigArgs(t, "set", "labels.header", "Vault", "locked")
	require.NoError(t, err)

	cfg, err := config.LoadFromPath(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.Equal(t, 5.0, cfg.Lock.AutoLockMinutes)
	assert.Equal(t, "Vault locked", cfg.Labels.Header)
}

func TestConfigCmd_SetLeavesEnvOverridesOut(t *testing.T) {
	dir := isolateHome(t)
	t.Setenv("PINLOCK_AUTO_LOCK_MINUTES", "30")
	t.Setenv("PINLOCK_PIN", "9999")

	_, err := runConfigArgs(t, "set", "lock.lock_on_resume", "true")
	require.NoError(t, err)

	raw, err := config.ReadFile(filepath.Join(dir, "config.toml"))
	require.NoError(t, err)
	assert.True(t, raw.Lock.LockOnResume)
	assert.Zero(t, raw.Lock.AutoLockMinutes)
	assert.Empty(t, raw.Lock.CorrectPin)
}

func TestConfigCmd_SetRejectsInvalid(t *testing.T) {
	isolateHome(t)

	_, err := runConfigArgs(t, "set", "lock.correct_pin", "12ab")
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))

	_, err = runConfigArgs(t, "set", "no.such_key", "1")
	require.Error(t, err)
	assert.Equal(t, ExitNotFoundError, GetExitCode(err))

	_, err = runConfigArgs(t, "set", "lock.lock_on_resume")
	require.Error(t, err)
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestConfigCmd_ShowRedactsPin(t *testing.T) {
	dir := isolateHome(t)
	writeConfig(t, dir, func(c *config.Config) { c.Lock.CorrectPin = "482193" })

	out, err := runConfigArgs(t, "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "482193")
	assert.Contains(t, out, "[REDACTED]")
	assert.Contains(t, out, "lock.auto_lock_minutes")

	out, err = runConfigArgs(t, "--json", "show")
	require.NoError(t, err)
	assert.NotContains(t, out, "482193")

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Lock struct {
				CorrectPin string `json:"correct_pin"`
			} `json:"lock"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "[REDACTED]", resp.Data.Lock.CorrectPin)
}

func TestConfigCmd_Get(t *testing.T) {
	dir := isolateHome(t)
	writeConfig(t, dir, func(c *config.Config) {
		c.Lock.CorrectPin = "1234"
		c.Lock.LockOnResume = true
	})

	out, err := runConfigArgs(t, "get", "lock.lock_on_resume")
	require.NoError(t, err)
	assert.Equal(t, "true", strings.TrimSpace(out))

	out, err = runConfigArgs(t, "get", "lock.correct_pin")
	require.NoError(t, err)
	assert.Equal(t, "[REDACTED]", strings.TrimSpace(out))

	_, err = runConfigArgs(t, "get")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestConfigCmd_Reset(t *testing.T) {
	dir := isolateHome(t)
	path := writeConfig(t, dir, func(c *config.Config) { c.Lock.AutoLockMinutes = 9 })

	_, err := runConfigArgs(t, "reset")
	require.NoError(t, err)

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.Lock.AutoLockMinutes)
}

func TestConfigCmd_KeysAndUnknownSubcommand(t *testing.T) {
	isolateHome(t)

	out, err := runConfigArgs(t, "keys")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), len(config.GetAllKeys()))

	_, err = runConfigArgs(t, "frobnicate")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

func TestConfigCmd_ExplicitJSONPath(t *testing.T) {
	isolateHome(t)
	path := filepath.Join(t.TempDir(), "pinlock.json")

	_, err := runConfigArgs(t, "--config", path, "set", "ui.shake", "false")
	require.NoError(t, err)

	cfg, err := config.LoadFromPath(path)
	require.NoError(t, err)
	assert.False(t, cfg.UI.Shake)
}

// =============================================================================
// HISTORY COMMAND
// =============================================================================

func seedHistory(t *testing.T, records ...storage.Record) {
	t.Helper()
	store, err := storage.OpenEventStore(storage.DefaultHistoryPath())
	require.NoError(t, err)
	defer store.Close()
	for _, r := range records {
		_, err := store.Append(context.Background(), r)
		require.NoError(t, err)
	}
}

func runHistoryArgs(t *testing.T, argv ...string) (string, error) {
	t.Helper()
	_, args := ParseArgs(append([]string{"history"}, argv...))
	var buf bytes.Buffer
	err := runHistory(context.Background(), &buf, args)
	return buf.String(), err
}

func TestHistoryCmd_ListEmpty(t *testing.T) {
	isolateHome(t)

	out, err := runHistoryArgs(t)
	require.NoError(t, err)
	assert.Contains(t, out, "No events recorded")
}

func TestHistoryCmd_ListAndLimit(t *testing.T) {
	isolateHome(t)
	now := time.Now()
	seedHistory(t,
		storage.Record{SessionID: "aaaaaaaa-1", Kind: "INVALID_ATTEMPT", Mode: "unlock", At: now.Add(-3 * time.Minute)},
		storage.Record{SessionID: "aaaaaaaa-1", Kind: "UNLOCKED", Mode: "unlock", At: now.Add(-2 * time.Minute)},
		storage.Record{SessionID: "bbbbbbbb-2", Kind: storage.KindLockRequested, Reason: "idle", Elapsed: 6 * time.Minute, At: now},
	)

	out, err := runHistoryArgs(t, "list", "--limit", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], storage.KindLockRequested)
	assert.Contains(t, lines[0], "reason=idle")
	assert.Contains(t, lines[1], "UNLOCKED")

	out, err = runHistoryArgs(t, "--json")
	require.NoError(t, err)
	var resp struct {
		Data []HistoryEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 3)
	assert.Equal(t, int64(6*60*1000), resp.Data[0].ElapsedMs)
}

func TestHistoryCmd_Stats(t *testing.T) {
	isolateHome(t)
	now := time.Now()
	seedHistory(t,
		storage.Record{SessionID: "s", Kind: "INVALID_ATTEMPT", At: now.Add(-time.Minute)},
		storage.Record{SessionID: "s", Kind: "INVALID_ATTEMPT", At: now},
		storage.Record{SessionID: "s", Kind: "UNLOCKED", At: now},
	)

	out, err := runHistoryArgs(t, "--json", "stats")
	require.NoError(t, err)
	var resp struct {
		Data HistoryStatsData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 3, resp.Data.Total)
	assert.Equal(t, 2, resp.Data.ByKind["INVALID_ATTEMPT"])
	assert.NotEmpty(t, resp.Data.First)
}

func TestHistoryCmd_Prune(t *testing.T) {
	isolateHome(t)
	now := time.Now()
	seedHistory(t,
		storage.Record{SessionID: "s", Kind: "UNLOCKED", At: now.Add(-48 * time.Hour)},
		storage.Record{SessionID: "s", Kind: "UNLOCKED", At: now},
	)

	_, err := runHistoryArgs(t, "prune")
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	_, err = runHistoryArgs(t, "prune", "--before", "soon")
	assert.Equal(t, ExitUsageError, GetExitCode(err))

	out, err := runHistoryArgs(t, "--json", "prune", "--before=24h")
	require.NoError(t, err)
	var resp struct {
		Data PruneData `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(1), resp.Data.Deleted)
}

func TestHistoryCmd_UnknownSubcommand(t *testing.T) {
	isolateHome(t)
	_, err := runHistoryArgs(t, "export")
	assert.Equal(t, ExitUsageError, GetExitCode(err))
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/pinlock-tui/internal/config"
	"github.com/jeranaias/pinlock-tui/internal/gate"
	"github.com/jeranaias/pinlock-tui/internal/pinlock"
)

// scriptedReader replays lines, then reports EOF like ctrl+d.
type scriptedReader struct {
	lines   []string
	prompts []string
}

func (r *scriptedReader) PasswordPrompt(prompt string) (string, error) {
	r.prompts = append(r.prompts, prompt)
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func openTestEnv(t *testing.T, mutate func(*config.Config)) *Env {
	t.Helper()
	dir := isolateHome(t)
	path := writeConfig(t, dir, mutate)
	env, err := OpenEnv(Args{ConfigPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	return env
}

// =============================================================================
// ENV
// =============================================================================

func TestOpenEnv_TrailsFollowConfig(t *testing.T) {
	env := openTestEnv(t, nil)
	assert.NotNil(t, env.Audit)
	assert.NotNil(t, env.History)

	env = openTestEnv(t, func(c *config.Config) {
		c.Audit.Enabled = false
		c.Audit.HistoryEnabled = false
	})
	assert.Nil(t, env.Audit)
	assert.Nil(t, env.History)
}

func TestOpenEnv_NoAuditFlag(t *testing.T) {
	dir := isolateHome(t)
	path := writeConfig(t, dir, nil)
	env, err := OpenEnv(Args{ConfigPath: path, NoAudit: true})
	require.NoError(t, err)
	defer env.Close()
	assert.Nil(t, env.Audit)
	assert.Nil(t, env.History)
}

func TestOpenEnv_InvalidConfig(t *testing.T) {
	dir := isolateHome(t)
	path := writeConfig(t, dir, func(c *config.Config) { c.Lock.AutoLockMinutes = -1 })
	_, err := OpenEnv(Args{ConfigPath: path})
	require.Error(t, err)
	assert.Equal(t, ExitConfigError, GetExitCode(err))
}

func TestEnv_NewPinIsSavedAndApplied(t *testing.T) {
	env := openTestEnv(t, nil)
	g := env.Gate
	require.Equal(t, pinlock.ModeSetup, g.Session().Mode)

	g.Show(pinlock.ShowOptions{})
	for _, d := range "135790135790" {
		g.PressDigit(d)
	}
	require.False(t, g.Visible())
	assert.Equal(t, "135790", g.Session().CorrectPin)

	saved, err := config.LoadFromPath(env.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "135790", saved.Lock.CorrectPin)
}

func TestEnv_NewPinSaveLeavesEnvOverridesOut(t *testing.T) {
	dir := isolateHome(t)
	path := writeConfig(t, dir, func(c *config.Config) { c.Lock.CorrectPin = "1234" })
	t.Setenv("PINLOCK_AUTO_LOCK_MINUTES", "30")
	t.Setenv("PINLOCK_LOCK_ON_RESUME", "true")

	env, err := OpenEnv(Args{ConfigPath: path})
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	require.Equal(t, 30.0, env.Config.Lock.AutoLockMinutes)

	env.Gate.RequestSetPin()
	for _, d := range "56785678" {
		env.Gate.PressDigit(d)
	}
	require.Equal(t, "5678", env.Gate.Session().CorrectPin)

	raw, err := config.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "5678", raw.Lock.CorrectPin)
	assert.Zero(t, raw.Lock.AutoLockMinutes)
	assert.False(t, raw.Lock.LockOnResume)
}

func TestEnv_NewPinNotSavedWhenDisabled(t *testing.T) {
	env := openTestEnv(t, func(c *config.Config) { c.Lock.SaveNewPin = false })
	env.Gate.Show(pinlock.ShowOptions{})
	for _, d := range "111111111111" {
		env.Gate.PressDigit(d)
	}
	assert.Equal(t, "111111", env.Gate.Session().CorrectPin)

	saved, err := config.LoadFromPath(env.ConfigPath)
	require.NoError(t, err)
	assert.Empty(t, saved.Lock.CorrectPin)
}

func TestEnv_ApplyConfig(t *testing.T) {
	env := openTestEnv(t, func(c *config.Config) { c.Lock.CorrectPin = "1234" })
	next := env.Config.Clone()
	next.Lock.CorrectPin = "9876"
	next.Labels.Header = "Vault"
	env.ApplyConfig(next)

	assert.Equal(t, "9876", env.Gate.Session().CorrectPin)
	assert.Equal(t, "Vault", env.Gate.Labels().Header)
}

// =============================================================================
// PROMPT
// =============================================================================

func TestRunPrompt_Unlock(t *testing.T) {
	env := openTestEnv(t, func(c *config.Config) { c.Lock.CorrectPin = "1234" })
	in := &scriptedReader{lines: []string{"12", "12x4", "9999", "1234"}}
	var out bytes.Buffer

	require.NoError(t, runPrompt(env, in, &out))
	assert.Contains(t, out.String(), "Enter exactly 4 digits")
	assert.Contains(t, out.String(), "Digits only")
	assert.Contains(t, out.String(), "Wrong PIN")
	assert.Contains(t, out.String(), "Unlocked")
	assert.Len(t, in.prompts, 4)
	assert.Equal(t, "PIN (4 digits): ", in.prompts[0])
}

func TestRunPrompt_AbortWhileLocked(t *testing.T) {
	env := openTestEnv(t, func(c *config.Config) { c.Lock.CorrectPin = "1234" })
	err := runPrompt(env, &scriptedReader{}, io.Discard)
	assert.True(t, errors.Is(err, ErrPromptAborted))
	assert.True(t, env.Gate.Visible())
}

func TestRunPrompt_SetupAndConfirm(t *testing.T) {
	env := openTestEnv(t, nil)
	in := &scriptedReader{lines: []string{"123456", "654321", "123456", "123456"}}
	var out bytes.Buffer

	require.NoError(t, runPrompt(env, in, &out))
	assert.Contains(t, out.String(), "PINs did not match")
	assert.Contains(t, out.String(), "PIN saved")
	assert.Equal(t, "123456", env.Config.Lock.CorrectPin)
}

func TestSubmitLine_ResetAndCancel(t *testing.T) {
	g := gate.New(gate.Options{CorrectPin: "1234"})
	g.Show(pinlock.ShowOptions{})

	assert.NotEmpty(t, submitLine(g, "c"), "cancel is not offered in unlock mode")
	assert.Empty(t, submitLine(g, "r"))
	assert.Equal(t, pinlock.ModeSetup, g.Session().Mode)
	assert.NotEmpty(t, submitLine(g, "reset"), "reset is not offered in setup mode")

	assert.Empty(t, submitLine(g, " CANCEL "))
	assert.Equal(t, pinlock.ModeUnlock, g.Session().Mode)

	assert.Empty(t, submitLine(g, "１２３４"))
	assert.False(t, g.Visible(), "full-width digits fold to ASCII")
}

func TestSubmitLine_Close(t *testing.T) {
	g := gate.New(gate.Options{CorrectPin: "1234"})
	g.Show(pinlock.ShowOptions{})

	assert.NotEmpty(t, submitLine(g, "x"), "close is not offered in unlock mode")
	assert.True(t, g.Visible())

	g.RequestSetPin()
	submitLine(g, "5678")
	require.Equal(t, pinlock.ModeConfirm, g.Session().Mode)
	assert.Empty(t, submitLine(g, "x"))
	assert.False(t, g.Visible(), "x closes the lock from confirm")
	assert.Equal(t, "1234", g.Session().CorrectPin, "closing keeps the old PIN")

	noPin := gate.New(gate.Options{})
	noPin.Show(pinlock.ShowOptions{})
	assert.NotEmpty(t, submitLine(noPin, "close"), "nothing to return to without a PIN")
	assert.True(t, noPin.Visible())
}

func TestRunPrompt_CloseWhileChangingPin(t *testing.T) {
	env := openTestEnv(t, func(c *config.Config) { c.Lock.CorrectPin = "1234" })
	in := &scriptedReader{lines: []string{"r", "x"}}
	var out bytes.Buffer

	require.NoError(t, runPrompt(env, in, &out))
	assert.Contains(t, out.String(), "Closed without changing the PIN")
	assert.NotContains(t, out.String(), "PIN saved")
	assert.Equal(t, "1234", env.Config.Lock.CorrectPin)
}

func TestPromptHint(t *testing.T) {
	g := gate.New(gate.Options{CorrectPin: "1234"})
	g.Show(pinlock.ShowOptions{})
	assert.Equal(t, "r = Reset PIN", promptHint(g))

	g.RequestSetPin()
	assert.Equal(t, "c = Cancel  x = Close", promptHint(g))
}

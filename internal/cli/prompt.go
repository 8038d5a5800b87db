// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// prompt.go - Line-mode lock for terminals where the full-screen UI is
// unwanted (serial consoles, screen readers, scripts wrapped in expect).
//
// Each line is one full entry. "r" starts a PIN reset, "c" cancels one and
// "x" closes the lock without changing the PIN, matching the lock screen.

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/text/unicode/norm"

	"github.com/jeranaias/pinlock-tui/internal/gate"
	"github.com/jeranaias/pinlock-tui/internal/pinlock"
)

// ErrPromptAborted is returned when the user leaves the prompt while locked.
var ErrPromptAborted = errors.New("prompt aborted while locked")

// HandlePrompt handles the "prompt" command.
func HandlePrompt(args Args) error {
	if err := RequiresTTY("enter a PIN"); err != nil {
		return err
	}

	env, err := OpenEnv(args)
	if err != nil {
		return err
	}
	defer env.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	return runPrompt(env, line, os.Stdout)
}

// passwordReader is the part of liner.State the prompt uses.
type passwordReader interface {
	PasswordPrompt(prompt string) (string, error)
}

func runPrompt(env *Env, in passwordReader, w io.Writer) error {
	g := env.Gate
	unlocked, pinSet := false, false
	g.OnIntent(func(in pinlock.Intent) {
		if in.Kind == pinlock.IntentPinSet {
			pinSet = true
		}
	})
	g.Show(pinlock.ShowOptions{OnUnlock: func() { unlocked = true }})
	if env.Audit != nil {
		env.Audit.LogStartup(env.SessionID(), map[string]string{"host": "prompt"})
	}

	for g.Visible() {
		fmt.Fprintln(w, TitleStyle.Render(g.Title()))
		if hint := promptHint(g); hint != "" {
			fmt.Fprintln(w, DimStyle.Render(hint))
		}

		input, err := in.PasswordPrompt(fmt.Sprintf("PIN (%d digits): ", g.Session().PinLength()))
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			logShutdown(env, "aborted")
			return ErrPromptAborted
		}
		if err != nil {
			return NewCommandError("prompt", "read", "could not read input", err)
		}

		if msg := submitLine(g, input); msg != "" {
			fmt.Fprintln(w, msg)
		}
	}

	outcome := "unlocked"
	switch {
	case unlocked:
		fmt.Fprintln(w, SuccessStyle.Render("Unlocked"))
	case pinSet:
		fmt.Fprintln(w, SuccessStyle.Render("PIN saved"))
	default:
		outcome = "closed"
		fmt.Fprintln(w, DimStyle.Render("Closed without changing the PIN"))
	}
	logShutdown(env, outcome)
	return nil
}

// submitLine applies one line of input to g and returns feedback for the
// user, or "" when there is nothing to say.
func submitLine(g *gate.Gate, input string) string {
	input = strings.TrimSpace(input)

	switch strings.ToLower(input) {
	case "r", "reset":
		if g.ShowsReset() {
			g.RequestSetPin()
			return ""
		}
		return WarningStyle.Render("Reset is only available on the unlock screen")
	case "c", "cancel":
		if g.ShowsCancel() {
			g.Cancel()
			return ""
		}
		return WarningStyle.Render("Nothing to cancel")
	case "x", "close":
		if g.ShowsCancel() {
			g.Dismiss()
			return ""
		}
		return WarningStyle.Render("Close is only available while changing the PIN")
	}

	digits := norm.NFKC.String(input)
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ErrorStyle.Render("Digits only")
		}
	}

	clearEntry(g)
	mode := g.Session().Mode
	want := g.Session().PinLength()
	if len(digits) != want {
		return ErrorStyle.Render(fmt.Sprintf("Enter exactly %d digits", want))
	}

	var intents []pinlock.Intent
	for _, r := range digits {
		intents = append(intents, g.PressDigit(r)...)
		if !g.Visible() {
			break
		}
	}

	for _, in := range intents {
		if in.Kind != pinlock.IntentInvalidAttempt {
			continue
		}
		if mode == pinlock.ModeUnlock {
			return ErrorStyle.Render("Wrong PIN")
		}
		return ErrorStyle.Render("PINs did not match")
	}
	return ""
}

func clearEntry(g *gate.Gate) {
	for g.Session().Entered != "" {
		g.Backspace()
	}
}

func promptHint(g *gate.Gate) string {
	var hints []string
	if g.ShowsReset() {
		hints = append(hints, "r = "+g.Labels().Reset)
	}
	if g.ShowsCancel() {
		hints = append(hints, "c = "+g.Labels().Cancel, "x = Close")
	}
	return strings.Join(hints, "  ")
}

func logShutdown(env *Env, outcome string) {
	if env.Audit != nil {
		env.Audit.LogShutdown(env.SessionID(), map[string]string{"host": "prompt", "outcome": outcome})
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pinlock-tui/internal/gate"
	"github.com/jeranaias/pinlock-tui/internal/pinlock"
	"github.com/jeranaias/pinlock-tui/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

func runeKey(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newShownOverlay(t *testing.T, pin string) (PinLockOverlay, *gate.Gate) {
	t.Helper()
	g := gate.New(gate.Options{CorrectPin: pin})
	g.Show(pinlock.ShowOptions{})
	o := NewPinLockOverlay(g, styles.ASCIIGlyphs)
	o.SetSize(80, 24)
	return o, g
}

func typeKeys(o PinLockOverlay, keys string) (PinLockOverlay, []tea.Cmd) {
	var cmds []tea.Cmd
	for _, r := range keys {
		var cmd tea.Cmd
		o, cmd = o.Update(runeKey(string(r)))
		cmds = append(cmds, cmd)
	}
	return o, cmds
}

// collectIntents runs cmd (and any batch it returns) and gathers intent messages.
func collectIntents(cmd tea.Cmd) []pinlock.Intent {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case PinLockIntentMsg:
		return msg.Intents
	case tea.BatchMsg:
		var out []pinlock.Intent
		for _, c := range msg {
			if c == nil {
				continue
			}
			if m, ok := c().(PinLockIntentMsg); ok {
				out = append(out, m.Intents...)
			}
		}
		return out
	}
	return nil
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func TestPinLockOverlay_DigitsUnlock(t *testing.T) {
	o, g := newShownOverlay(t, "1234")

	o, cmds := typeKeys(o, "1234")
	if g.Visible() {
		t.Fatal("gate should be hidden after the correct PIN")
	}
	intents := collectIntents(cmds[len(cmds)-1])
	if len(intents) != 2 || intents[0].Kind != pinlock.IntentUnlocked || intents[1].Kind != pinlock.IntentHidden {
		t.Errorf("intents = %v, want [UNLOCKED HIDDEN]", intents)
	}
	if o.View() != "" {
		t.Error("View() should be empty while hidden")
	}
}

func TestPinLockOverlay_FullWidthDigits(t *testing.T) {
	o, g := newShownOverlay(t, "12")
	o, _ = o.Update(runeKey("１２"))
	if g.Visible() {
		t.Error("full-width digits should unlock")
	}
}

func TestPinLockOverlay_PasteStopsWhenHidden(t *testing.T) {
	o, g := newShownOverlay(t, "12")
	o, _ = o.Update(runeKey("1299"))
	if g.Visible() {
		t.Fatal("pasted PIN should unlock")
	}
	if g.Session().Entered != "" {
		t.Errorf("Entered = %q, trailing digits must be dropped", g.Session().Entered)
	}
}

func TestPinLockOverlay_WrongPinShakes(t *testing.T) {
	o, g := newShownOverlay(t, "12")
	o, cmds := typeKeys(o, "13")

	if !g.Visible() {
		t.Fatal("gate should stay visible after a wrong PIN")
	}
	if !o.Shaking() {
		t.Error("wrong PIN should start a shake")
	}
	if o.Message() != "Wrong PIN" {
		t.Errorf("Message() = %q, want %q", o.Message(), "Wrong PIN")
	}
	intents := collectIntents(cmds[1])
	if len(intents) != 1 || intents[0].Kind != pinlock.IntentInvalidAttempt {
		t.Errorf("intents = %v, want [INVALID_ATTEMPT]", intents)
	}

	o, _ = typeKeys(o, "1")
	if o.Message() != "" {
		t.Error("next digit should clear the message")
	}
}

func TestPinLockOverlay_ConfirmMismatchMessage(t *testing.T) {
	o, g := newShownOverlay(t, "")
	o, _ = typeKeys(o, "111111")
	o, _ = typeKeys(o, "222222")

	if g.Session().Mode != pinlock.ModeSetup {
		t.Errorf("Mode = %v, want setup", g.Session().Mode)
	}
	if o.Message() != "PINs did not match" {
		t.Errorf("Message() = %q", o.Message())
	}
}

func TestPinLockOverlay_Backspace(t *testing.T) {
	o, g := newShownOverlay(t, "1234")
	o, _ = typeKeys(o, "12")
	o, _ = o.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if g.Session().Entered != "1" {
		t.Errorf("Entered = %q, want %q", g.Session().Entered, "1")
	}
}

func TestPinLockOverlay_ResetAndCancel(t *testing.T) {
	o, g := newShownOverlay(t, "1234")

	o, _ = o.Update(runeKey("r"))
	if g.Session().Mode != pinlock.ModeSetup {
		t.Fatalf("Mode = %v, want setup after reset", g.Session().Mode)
	}

	o, _ = o.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if g.Session().Mode != pinlock.ModeUnlock {
		t.Errorf("Mode = %v, want unlock after cancel", g.Session().Mode)
	}
	if !g.Visible() {
		t.Error("cancel keeps the lock visible")
	}
}

func TestPinLockOverlay_CloseFromSetup(t *testing.T) {
	o, g := newShownOverlay(t, "1234")

	o, _ = o.Update(runeKey("x"))
	if !g.Visible() {
		t.Fatal("x must not close the lock in unlock mode")
	}

	o, _ = o.Update(runeKey("r"))
	o, _ = typeKeys(o, "5678")
	if g.Session().Mode != pinlock.ModeConfirm {
		t.Fatalf("Mode = %v, want confirm", g.Session().Mode)
	}
	if !strings.Contains(o.View(), "0 x") {
		t.Error("keypad should show the close key while changing the PIN")
	}

	o, cmd := o.Update(runeKey("x"))
	if g.Visible() {
		t.Fatal("x should close the lock from confirm")
	}
	if g.Session().CorrectPin != "1234" {
		t.Errorf("CorrectPin = %q, closing must keep the old PIN", g.Session().CorrectPin)
	}
	intents := collectIntents(cmd)
	if len(intents) != 1 || intents[0].Kind != pinlock.IntentHidden {
		t.Errorf("intents = %v, want [HIDDEN]", intents)
	}
	if o.Shaking() {
		t.Error("close should not shake")
	}
}

func TestPinLockOverlay_CloseNeedsExistingPin(t *testing.T) {
	o, g := newShownOverlay(t, "")
	o, _ = o.Update(runeKey("x"))
	if !g.Visible() {
		t.Error("first-run setup has nothing to return to")
	}
	if strings.Contains(o.View(), "0 x") {
		t.Error("close key should be hidden without a PIN")
	}
}

func TestPinLockOverlay_UnboundKeyShakes(t *testing.T) {
	o, _ := newShownOverlay(t, "1234")
	o, cmd := o.Update(runeKey("x"))
	if !o.Shaking() || cmd == nil {
		t.Error("unbound key should shake")
	}

	// Esc has no cancel affordance in Unlock mode.
	o2, _ := newShownOverlay(t, "1234")
	o2, _ = o2.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !o2.Shaking() {
		t.Error("esc without cancel should shake")
	}
}

func TestPinLockOverlay_ShakeDisabled(t *testing.T) {
	o, _ := newShownOverlay(t, "12")
	o.SetShake(false)
	o, _ = typeKeys(o, "99")
	if o.Shaking() {
		t.Error("shake disabled")
	}
}

func TestPinLockOverlay_KeysIgnoredWhileHidden(t *testing.T) {
	g := gate.New(gate.Options{CorrectPin: "12"})
	o := NewPinLockOverlay(g, styles.ASCIIGlyphs)
	o, cmd := o.Update(runeKey("1"))
	if cmd != nil || g.Session().Entered != "" {
		t.Error("hidden overlay must not consume keys")
	}
}

// =============================================================================
// SHAKE ANIMATION
// =============================================================================

func TestPinLockOverlay_ShakeRunsToRest(t *testing.T) {
	o, _ := newShownOverlay(t, "12")
	o, _ = o.Update(runeKey("x"))
	id := o.shakeID

	for frame := 1; frame < styles.ShakeFrames(); frame++ {
		var cmd tea.Cmd
		o, cmd = o.Update(ShakeTickMsg{ID: id, Frame: frame})
		if cmd == nil {
			t.Fatalf("frame %d: expected another tick", frame)
		}
		if o.shakeFrame != frame {
			t.Errorf("shakeFrame = %d, want %d", o.shakeFrame, frame)
		}
	}

	o, cmd := o.Update(ShakeTickMsg{ID: id, Frame: styles.ShakeFrames()})
	if cmd != nil || o.Shaking() {
		t.Error("shake should come to rest after the last frame")
	}
}

func TestPinLockOverlay_StaleShakeTickIgnored(t *testing.T) {
	o, _ := newShownOverlay(t, "12")
	o, _ = o.Update(runeKey("x"))
	o, _ = o.Update(runeKey("x"))

	o, cmd := o.Update(ShakeTickMsg{ID: o.shakeID - 1, Frame: 1})
	if cmd != nil || o.shakeFrame != 0 {
		t.Error("tick from a superseded shake should be ignored")
	}
}

// =============================================================================
// VIEW
// =============================================================================

func TestPinLockOverlay_ViewContents(t *testing.T) {
	o, _ := newShownOverlay(t, "1234")
	o, _ = typeKeys(o, "12")

	view := o.View()
	for _, want := range []string{"Enter PIN", "* * - -", "Reset PIN"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q", want)
		}
	}
	if strings.Contains(view, "Cancel") {
		t.Error("Cancel should not show in unlock mode")
	}
}

func TestPinLockOverlay_ViewSetupModes(t *testing.T) {
	o, g := newShownOverlay(t, "1234")
	g.RequestSetPin()

	view := o.View()
	if !strings.Contains(view, "Set a new PIN") || !strings.Contains(view, "Cancel") {
		t.Error("setup view should show its title and Cancel")
	}

	o, _ = typeKeys(o, "1234")
	if !strings.Contains(o.View(), "Confirm your PIN") {
		t.Error("confirm view should show its title")
	}
}

func TestPinLockOverlay_LongLabelTruncated(t *testing.T) {
	long := strings.Repeat("W", 100)
	g := gate.New(gate.Options{CorrectPin: "12", Labels: gate.Labels{Header: long}})
	g.Show(pinlock.ShowOptions{})
	o := NewPinLockOverlay(g, styles.ASCIIGlyphs)
	o.SetSize(80, 24)

	view := o.View()
	if strings.Contains(view, long) {
		t.Error("long header should be truncated")
	}
	if !strings.Contains(view, "...") {
		t.Error("truncated header should end with an ellipsis")
	}
}

func TestPinLockOverlay_WindowSize(t *testing.T) {
	o, _ := newShownOverlay(t, "12")
	o, _ = o.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	if o.width != 100 || o.height != 40 {
		t.Errorf("size = %dx%d, want 100x40", o.width, o.height)
	}
	if lines := strings.Count(o.View(), "\n") + 1; lines != 40 {
		t.Errorf("View() has %d lines, want 40", lines)
	}
}

func TestPinLockKeyMap_Help(t *testing.T) {
	k := DefaultPinLockKeyMap()
	if len(k.ShortHelp()) == 0 || len(k.FullHelp()) != 2 {
		t.Error("help bindings missing")
	}
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the Bubble Tea components of the pinlock TUI.

# Key Types

PinLockOverlay (pinlock_overlay.go) renders a gate.Gate as a full-screen
lock: title, PIN dots, feedback line, keypad hint, Reset/Cancel links and a
key help line. It turns key presses into gate operations and shakes the
panel on a wrong PIN or an unbound key. While a PIN change is in progress
x closes the lock and returns to the app.

PinLockKeyMap holds the bubbles/key bindings and feeds bubbles/help.

# Usage

	g := gate.New(gate.Options{CorrectPin: "4821"})
	overlay := components.NewPinLockOverlay(g, styles.DetectGlyphs(false))
	g.Show(pinlock.ShowOptions{})

	// in the host Update:
	overlay, cmd = overlay.Update(msg)

	// in the host View:
	if overlay.IsVisible() {
		return overlay.View()
	}

The overlay forwards intents to the host as PinLockIntentMsg and schedules
its own ShakeTickMsg frames; hosts pass both back to Update.
*/
package components

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pinlock implements the PIN entry state machine behind the lock
// overlay.
//
// The machine has three modes:
//
//   - ModeUnlock: the user must enter the configured PIN
//   - ModeSetup: the user enters a new PIN (first, provisional entry)
//   - ModeConfirm: the user re-enters the new PIN to confirm it
//
// All transitions go through Reduce, a pure function from (Session, Event)
// to (Session, []Intent). Machine wraps a Session and the per-presentation
// unlock callback for hosts that prefer a stateful API.
//
// # Usage
//
//	m := pinlock.NewMachine("4821")
//	m.Show(pinlock.ShowOptions{OnUnlock: func() { fmt.Println("open") }})
//	for _, d := range "4821" {
//	    for _, in := range m.PressDigit(d) {
//	        // Unlocked, then Hidden
//	    }
//	}
//
// Nothing in this package returns an error. Input that does not fit the
// current state (a non-digit, a digit past the PIN length) is ignored.
package pinlock

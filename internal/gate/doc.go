// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate is the public face of the PIN lock.
//
// A Gate combines the pinlock state machine with the lifecycle relock
// policy, and turns intents into effects: the per-presentation unlock
// callback, OnSetPin, a Sink (audit log, history store) and any listeners
// registered by the UI.
//
// A Registry exposes the one mounted gate to code that has no reference to
// it:
//
//	g := gate.New(gate.Options{CorrectPin: "4821", AutoLockMinutes: 5})
//	gate.Default.Mount(g)
//	defer gate.Default.Unmount(g)
//
//	gate.Show(pinlock.ShowOptions{OnUnlock: openVault})
package gate

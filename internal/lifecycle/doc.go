// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lifecycle decides when the PIN lock should be re-shown based on
// application foreground/background transitions.
//
// # Key Types
//
//   - AppState: Active, Background or Inactive
//   - Snapshot: last reported state and the last time the app went to the background
//   - Policy: applies Decide to a Snapshot it owns
//   - StateMsg / LockRequestMsg: Bubble Tea messages for hosts
//
// # Usage
//
//	p := lifecycle.NewPolicy(lifecycle.Config{AutoLockMinutes: 5}, lifecycle.StateActive)
//	p.Observe(lifecycle.StateBackground, t0, true)
//	d := p.Observe(lifecycle.StateActive, t0.Add(6*time.Minute), true)
//	if d.Lock {
//	    // show the lock
//	}
//
// # Rules
//
// Locking is only requested when a PIN is configured, on a transition from
// Background or Inactive to Active. LockOnResume always locks; otherwise the
// lock triggers once the time since the last Active->Background transition
// reaches AutoLockMinutes. Without a recorded background time nothing is
// requested.
package lifecycle

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"time"

	"github.com/jeranaias/pinlock-tui/internal/lifecycle"
	"github.com/jeranaias/pinlock-tui/internal/pinlock"
)

// Sink records what the gate did. Implementations must not block for long;
// they run on the caller's goroutine.
type Sink interface {
	// RecordIntent is called for every intent. mode is the mode after the
	// transition. For IntentPinSet the intent carries the new PIN; sinks
	// must not persist it.
	RecordIntent(sessionID string, mode pinlock.Mode, in pinlock.Intent, at time.Time)

	// RecordLockRequest is called when the lifecycle policy locked the app.
	RecordLockRequest(sessionID string, d lifecycle.Decision, at time.Time)
}

// Sinks fans out to several sinks in order.
type Sinks []Sink

// RecordIntent implements Sink.
func (s Sinks) RecordIntent(sessionID string, mode pinlock.Mode, in pinlock.Intent, at time.Time) {
	for _, sink := range s {
		sink.RecordIntent(sessionID, mode, in, at)
	}
}

// RecordLockRequest implements Sink.
func (s Sinks) RecordLockRequest(sessionID string, d lifecycle.Decision, at time.Time) {
	for _, sink := range s {
		sink.RecordLockRequest(sessionID, d, at)
	}
}

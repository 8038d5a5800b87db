// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lifecycle

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// StateMsg reports an application state transition.
type StateMsg struct {
	State AppState
	Time  time.Time
}

// LockRequestMsg is sent when a transition decided to lock.
type LockRequestMsg struct {
	Decision Decision
}

// FromTeaMsg maps terminal focus and suspend messages to app states.
// A terminal that loses focus is still visible, so BlurMsg is Inactive;
// ResumeMsg follows a ctrl+z suspend, which the host reports as Background
// before suspending.
func FromTeaMsg(msg tea.Msg) (AppState, bool) {
	switch msg.(type) {
	case tea.FocusMsg:
		return StateActive, true
	case tea.BlurMsg:
		return StateInactive, true
	case tea.ResumeMsg:
		return StateActive, true
	}
	return StateActive, false
}

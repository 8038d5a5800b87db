// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pinlock

import (
	"crypto/subtle"
)

// DefaultPinLength is the PIN length used when no PIN is configured yet.
const DefaultPinLength = 6

// =============================================================================
// MODE
// =============================================================================

// Mode is the current stage of the PIN flow.
type Mode int

const (
	// ModeUnlock verifies the configured PIN.
	ModeUnlock Mode = iota
	// ModeSetup collects the first entry of a new PIN.
	ModeSetup
	// ModeConfirm collects the confirmation entry of a new PIN.
	ModeConfirm
)

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeUnlock:
		return "unlock"
	case ModeSetup:
		return "setup"
	case ModeConfirm:
		return "confirm"
	default:
		return "unknown"
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the state of one lock presentation.
// The zero value is a hidden session in Unlock mode with no PIN configured;
// use NewSession to get the correct initial mode.
type Session struct {
	Mode Mode

	// Entered holds the digits typed so far. Never longer than PinLength().
	Entered string

	// PendingNewPin is the provisional PIN from Setup, awaiting
	// confirmation. Empty outside Confirm mode.
	PendingNewPin string

	// CorrectPin is the PIN to verify against. Empty means none configured.
	CorrectPin string

	Visible bool
}

// NewSession returns a hidden session for the given PIN.
func NewSession(correctPin string) Session {
	return Session{
		Mode:       initialMode(correctPin),
		CorrectPin: correctPin,
	}
}

// HasPin reports whether a PIN is configured.
func (s Session) HasPin() bool {
	return s.CorrectPin != ""
}

// PinLength is the number of digits expected per entry.
func (s Session) PinLength() int {
	if s.HasPin() {
		return len(s.CorrectPin)
	}
	return DefaultPinLength
}

// HasPending reports whether a provisional PIN awaits confirmation.
func (s Session) HasPending() bool {
	return s.PendingNewPin != ""
}

func initialMode(correctPin string) Mode {
	if correctPin != "" {
		return ModeUnlock
	}
	return ModeSetup
}

// =============================================================================
// INTENTS
// =============================================================================

// IntentKind identifies an outcome the host should act on.
type IntentKind int

const (
	// IntentUnlocked means the correct PIN was entered.
	IntentUnlocked IntentKind = iota + 1
	// IntentInvalidAttempt means an entry was rejected; drives error feedback.
	IntentInvalidAttempt
	// IntentPinSet means a new PIN was entered and confirmed.
	IntentPinSet
	// IntentHidden means the overlay should be dismissed.
	IntentHidden
)

// String returns the intent name as used in logs.
func (k IntentKind) String() string {
	switch k {
	case IntentUnlocked:
		return "UNLOCKED"
	case IntentInvalidAttempt:
		return "INVALID_ATTEMPT"
	case IntentPinSet:
		return "PIN_SET"
	case IntentHidden:
		return "HIDDEN"
	default:
		return "UNKNOWN"
	}
}

// Intent is a discrete outcome of a transition.
type Intent struct {
	Kind IntentKind
	// Pin carries the confirmed digits for IntentPinSet and is empty otherwise.
	Pin string
}

// =============================================================================
// EVENTS
// =============================================================================

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// ShowEvent starts a fresh presentation.
type ShowEvent struct{}

// HideEvent dismisses the presentation.
type HideEvent struct{}

// SetPinModeEvent forces a fresh Setup presentation ("reset PIN").
type SetPinModeEvent struct{}

// CancelEvent abandons Setup/Confirm and returns to Unlock.
type CancelEvent struct{}

// DigitEvent is a key press on the keypad.
type DigitEvent struct {
	Digit rune
}

// BackspaceEvent removes the last entered digit.
type BackspaceEvent struct{}

// ConfigureEvent replaces the configured PIN.
type ConfigureEvent struct {
	CorrectPin string
}

func (ShowEvent) isEvent()       {}
func (HideEvent) isEvent()       {}
func (SetPinModeEvent) isEvent() {}
func (CancelEvent) isEvent()     {}
func (DigitEvent) isEvent()      {}
func (BackspaceEvent) isEvent()  {}
func (ConfigureEvent) isEvent()  {}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Reduce applies ev to s and returns the next session and any intents,
// in the order the host should handle them.
func Reduce(s Session, ev Event) (Session, []Intent) {
	switch ev := ev.(type) {
	case ShowEvent:
		return show(s), nil

	case HideEvent:
		return hide(s)

	case SetPinModeEvent:
		s.Mode = ModeSetup
		s.Entered = ""
		s.PendingNewPin = ""
		s.Visible = true
		return s, nil

	case CancelEvent:
		if !s.HasPin() || s.Mode == ModeUnlock {
			return s, nil
		}
		return show(s), nil

	case BackspaceEvent:
		if s.Entered != "" {
			s.Entered = s.Entered[:len(s.Entered)-1]
		}
		return s, nil

	case DigitEvent:
		return pressDigit(s, ev.Digit)

	case ConfigureEvent:
		s.CorrectPin = ev.CorrectPin
		s.Entered = ""
		if !s.HasPin() && s.Mode == ModeUnlock {
			s.Mode = ModeSetup
		}
		return s, nil
	}

	return s, nil
}

func show(s Session) Session {
	s.Entered = ""
	s.PendingNewPin = ""
	s.Mode = initialMode(s.CorrectPin)
	s.Visible = true
	return s
}

func hide(s Session) (Session, []Intent) {
	wasVisible := s.Visible
	s.Visible = false
	s.Entered = ""
	s.PendingNewPin = ""
	if !wasVisible {
		return s, nil
	}
	return s, []Intent{{Kind: IntentHidden}}
}

func pressDigit(s Session, d rune) (Session, []Intent) {
	if d < '0' || d > '9' {
		return s, nil
	}
	if len(s.Entered) >= s.PinLength() {
		return s, nil
	}

	s.Entered += string(d)
	if len(s.Entered) < s.PinLength() {
		return s, nil
	}

	switch s.Mode {
	case ModeUnlock:
		if pinsEqual(s.Entered, s.CorrectPin) {
			next, hidden := hide(s)
			return next, append([]Intent{{Kind: IntentUnlocked}}, hidden...)
		}
		s.Entered = ""
		return s, []Intent{{Kind: IntentInvalidAttempt}}

	case ModeSetup:
		s.PendingNewPin = s.Entered
		s.Entered = ""
		s.Mode = ModeConfirm
		return s, nil

	case ModeConfirm:
		if pinsEqual(s.Entered, s.PendingNewPin) {
			newPin := s.Entered
			next, hidden := hide(s)
			return next, append([]Intent{{Kind: IntentPinSet, Pin: newPin}}, hidden...)
		}
		s.Entered = ""
		s.PendingNewPin = ""
		s.Mode = ModeSetup
		return s, []Intent{{Kind: IntentInvalidAttempt}}
	}

	return s, nil
}

// pinsEqual compares digit strings exactly; "0123" and "123" differ.
func pinsEqual(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package pinlock

// ShowOptions configures one presentation.
type ShowOptions struct {
	// OnUnlock is called once when this presentation is unlocked, then dropped.
	OnUnlock func()
}

// Machine holds a Session and the unlock callback bound by the last Show.
// It is not safe for concurrent use; drive it from one goroutine.
type Machine struct {
	session  Session
	onUnlock func()
}

// NewMachine returns a hidden machine for the given PIN ("" for none).
func NewMachine(correctPin string) *Machine {
	return &Machine{session: NewSession(correctPin)}
}

// Session returns a copy of the current state.
func (m *Machine) Session() Session {
	return m.session
}

// Show starts a fresh presentation and binds opts.OnUnlock.
func (m *Machine) Show(opts ShowOptions) []Intent {
	m.onUnlock = opts.OnUnlock
	return m.apply(ShowEvent{})
}

// Hide dismisses the presentation. The bound unlock callback is kept so a
// later Show can replace it.
func (m *Machine) Hide() []Intent {
	return m.apply(HideEvent{})
}

// SetPinMode switches to a fresh Setup presentation.
func (m *Machine) SetPinMode() []Intent {
	return m.apply(SetPinModeEvent{})
}

// Cancel leaves Setup/Confirm for Unlock when a PIN is configured.
// Like the cancel button it restarts the presentation, which drops any
// bound unlock callback.
func (m *Machine) Cancel() []Intent {
	if !m.session.HasPin() || m.session.Mode == ModeUnlock {
		return nil
	}
	m.onUnlock = nil
	return m.apply(CancelEvent{})
}

// PressDigit feeds one keypad digit.
func (m *Machine) PressDigit(d rune) []Intent {
	return m.apply(DigitEvent{Digit: d})
}

// Backspace removes the last entered digit.
func (m *Machine) Backspace() []Intent {
	return m.apply(BackspaceEvent{})
}

// SetCorrectPin replaces the configured PIN. Partial entry is discarded.
func (m *Machine) SetCorrectPin(pin string) {
	m.apply(ConfigureEvent{CorrectPin: pin})
}

func (m *Machine) apply(ev Event) []Intent {
	next, intents := Reduce(m.session, ev)
	m.session = next

	for _, in := range intents {
		if in.Kind == IntentUnlocked && m.onUnlock != nil {
			fn := m.onUnlock
			m.onUnlock = nil
			fn()
		}
	}
	return intents
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

// Labels is the display text of the lock. It carries no behaviour.
type Labels struct {
	Header  string
	Setup   string
	Confirm string
	Reset   string
	Cancel  string
}

// DefaultLabels returns the built-in English labels.
func DefaultLabels() Labels {
	return Labels{
		Header:  "Enter PIN",
		Setup:   "Set a new PIN",
		Confirm: "Confirm your PIN",
		Reset:   "Reset PIN",
		Cancel:  "Cancel",
	}
}

func (l Labels) withDefaults() Labels {
	d := DefaultLabels()
	if l.Header == "" {
		l.Header = d.Header
	}
	if l.Setup == "" {
		l.Setup = d.Setup
	}
	if l.Confirm == "" {
		l.Confirm = d.Confirm
	}
	if l.Reset == "" {
		l.Reset = d.Reset
	}
	if l.Cancel == "" {
		l.Cancel = d.Cancel
	}
	return l
}

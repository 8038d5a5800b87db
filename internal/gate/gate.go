// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/pinlock-tui/internal/lifecycle"
	"github.com/jeranaias/pinlock-tui/internal/pinlock"
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a Gate.
type Options struct {
	// CorrectPin is the PIN to verify. Empty means none is set yet and the
	// gate starts in Setup mode.
	CorrectPin string

	// OnSetPin receives a newly confirmed PIN. The caller stores it.
	OnSetPin func(newPin string)

	// LockOnResume locks on every return to the foreground.
	LockOnResume bool

	// AutoLockMinutes locks on return to the foreground after this many
	// minutes in the background. Zero disables it.
	AutoLockMinutes float64

	// Labels overrides the display text. Empty fields keep the defaults.
	Labels Labels

	// Sink receives every intent and lock request. Optional.
	Sink Sink

	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

func (o Options) policyConfig() lifecycle.Config {
	return lifecycle.Config{
		LockOnResume:    o.LockOnResume,
		AutoLockMinutes: o.AutoLockMinutes,
	}
}

// =============================================================================
// GATE
// =============================================================================

// Gate joins the PIN machine with the relock policy and dispatches intents
// to the caller's callbacks and sink. It implements Handle.
// Like the machine it is not safe for concurrent use.
type Gate struct {
	machine *pinlock.Machine
	policy  *lifecycle.Policy

	onSetPin  func(string)
	labels    Labels
	sink      Sink
	clock     func() time.Time
	sessionID string

	listeners []func(pinlock.Intent)
}

// New creates a hidden gate. The app is assumed to start Active.
func New(opts Options) *Gate {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Gate{
		machine:  pinlock.NewMachine(opts.CorrectPin),
		policy:   lifecycle.NewPolicy(opts.policyConfig(), lifecycle.StateActive),
		onSetPin: opts.OnSetPin,
		labels:   opts.Labels.withDefaults(),
		sink:     opts.Sink,
		clock:    clock,
	}
}

// OnIntent registers fn to be called for every intent, after the sink.
func (g *Gate) OnIntent(fn func(pinlock.Intent)) {
	g.listeners = append(g.listeners, fn)
}

// Reconfigure applies new options without losing lifecycle history.
// A changed PIN discards any partial entry. OnSetPin and Sink are replaced
// only when set.
func (g *Gate) Reconfigure(opts Options) {
	if opts.CorrectPin != g.machine.Session().CorrectPin {
		g.machine.SetCorrectPin(opts.CorrectPin)
	}
	g.policy.SetConfig(opts.policyConfig())
	g.labels = opts.Labels.withDefaults()
	if opts.OnSetPin != nil {
		g.onSetPin = opts.OnSetPin
	}
	if opts.Sink != nil {
		g.sink = opts.Sink
	}
}

// =============================================================================
// STATE
// =============================================================================

// Session returns the machine state.
func (g *Gate) Session() pinlock.Session {
	return g.machine.Session()
}

// Visible reports whether the lock is shown.
func (g *Gate) Visible() bool {
	return g.machine.Session().Visible
}

// SessionID identifies the current presentation in logs.
func (g *Gate) SessionID() string {
	return g.sessionID
}

// AppState returns the last reported application state.
func (g *Gate) AppState() lifecycle.AppState {
	return g.policy.Snapshot().Current
}

// RelockConfig returns the relock settings in effect.
func (g *Gate) RelockConfig() lifecycle.Config {
	return g.policy.Config()
}

// Labels returns the display text in effect.
func (g *Gate) Labels() Labels {
	return g.labels
}

// Title returns the heading for the current mode.
func (g *Gate) Title() string {
	switch g.machine.Session().Mode {
	case pinlock.ModeSetup:
		return g.labels.Setup
	case pinlock.ModeConfirm:
		return g.labels.Confirm
	default:
		return g.labels.Header
	}
}

// ShowsReset reports whether the reset-PIN affordance applies.
func (g *Gate) ShowsReset() bool {
	return g.machine.Session().Mode == pinlock.ModeUnlock
}

// ShowsCancel reports whether the cancel affordance applies.
func (g *Gate) ShowsCancel() bool {
	s := g.machine.Session()
	return s.HasPin() && (s.Mode == pinlock.ModeSetup || s.Mode == pinlock.ModeConfirm)
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Show presents the lock, binding opts.OnUnlock to this presentation.
func (g *Gate) Show(opts pinlock.ShowOptions) {
	g.sessionID = uuid.NewString()
	g.dispatch(g.machine.Show(opts))
}

// Hide dismisses the lock.
func (g *Gate) Hide() {
	g.dispatch(g.machine.Hide())
}

// RequestSetPin presents the lock in Setup mode.
func (g *Gate) RequestSetPin() {
	if !g.machine.Session().Visible {
		g.sessionID = uuid.NewString()
	}
	g.dispatch(g.machine.SetPinMode())
}

// Dismiss closes the lock from Setup/Confirm without changing the PIN,
// returning the user to the app. It applies exactly when ShowsCancel does
// and does not fire the unlock callback.
func (g *Gate) Dismiss() []pinlock.Intent {
	if !g.ShowsCancel() {
		return nil
	}
	return g.dispatch(g.machine.Hide())
}

// Cancel leaves Setup/Confirm for Unlock.
func (g *Gate) Cancel() []pinlock.Intent {
	return g.dispatch(g.machine.Cancel())
}

// PressDigit forwards a keypad digit and returns the resulting intents.
func (g *Gate) PressDigit(d rune) []pinlock.Intent {
	return g.dispatch(g.machine.PressDigit(d))
}

// Backspace removes the last entered digit.
func (g *Gate) Backspace() {
	g.machine.Backspace()
}

// ReportAppState feeds a lifecycle transition to the policy and shows the
// lock when it decides to. A lock request while already visible restarts
// entry.
func (g *Gate) ReportAppState(next lifecycle.AppState, now time.Time) lifecycle.Decision {
	d := g.policy.Observe(next, now, g.machine.Session().HasPin())
	if !d.Lock {
		return d
	}

	log.Printf("LOCK_REQUESTED | reason=%s from=%s elapsed=%s",
		d.Reason, d.From, lifecycle.FormatDuration(d.Elapsed))
	g.Show(pinlock.ShowOptions{})
	if g.sink != nil {
		g.sink.RecordLockRequest(g.sessionID, d, now)
	}
	return d
}

// ReportAppStateNow is ReportAppState at the gate's clock time.
func (g *Gate) ReportAppStateNow(next lifecycle.AppState) lifecycle.Decision {
	return g.ReportAppState(next, g.clock())
}

func (g *Gate) dispatch(intents []pinlock.Intent) []pinlock.Intent {
	for _, in := range intents {
		if in.Kind == pinlock.IntentPinSet && g.onSetPin != nil {
			g.onSetPin(in.Pin)
		}
		if g.sink != nil {
			g.sink.RecordIntent(g.sessionID, g.machine.Session().Mode, in, g.clock())
		}
		for _, fn := range g.listeners {
			fn(in)
		}
	}
	return intents
}

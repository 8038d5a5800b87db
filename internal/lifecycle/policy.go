// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package lifecycle

import (
	"fmt"
	"time"
)

// =============================================================================
// APP STATE
// =============================================================================

// AppState is the host application's foreground status.
type AppState int

const (
	// StateActive means the app is in the foreground and focused.
	StateActive AppState = iota
	// StateBackground means the app is not visible.
	StateBackground
	// StateInactive means the app is visible but not focused.
	StateInactive
)

// String returns the lowercase state name.
func (s AppState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateBackground:
		return "background"
	case StateInactive:
		return "inactive"
	default:
		return "unknown"
	}
}

// =============================================================================
// CONFIG & SNAPSHOT
// =============================================================================

// Config holds the relock settings.
type Config struct {
	// LockOnResume locks on every return to the foreground.
	LockOnResume bool

	// AutoLockMinutes locks on return to the foreground once the app has
	// been in the background at least this long. Zero or negative disables it.
	AutoLockMinutes float64
}

// AutoLockEnabled reports whether the elapsed-time rule applies.
func (c Config) AutoLockEnabled() bool {
	return c.AutoLockMinutes > 0
}

// Threshold returns AutoLockMinutes as a duration.
func (c Config) Threshold() time.Duration {
	return time.Duration(c.AutoLockMinutes * float64(time.Minute))
}

// Snapshot is the lifecycle history the policy needs.
type Snapshot struct {
	Current AppState

	// LastBackground is when the app last went Active->Background.
	// The zero time means it never has.
	LastBackground time.Time
}

// HasBackground reports whether a background time was recorded.
func (s Snapshot) HasBackground() bool {
	return !s.LastBackground.IsZero()
}

// =============================================================================
// DECISION
// =============================================================================

// Reason explains a Decision.
type Reason int

const (
	// ReasonNone means no lock was requested.
	ReasonNone Reason = iota
	// ReasonResume means LockOnResume fired.
	ReasonResume
	// ReasonIdle means the background time reached AutoLockMinutes.
	ReasonIdle
)

// String returns the reason as used in logs.
func (r Reason) String() string {
	switch r {
	case ReasonResume:
		return "resume"
	case ReasonIdle:
		return "idle"
	default:
		return "none"
	}
}

// Decision is the outcome of one transition.
type Decision struct {
	Lock   bool
	Reason Reason

	From AppState
	To   AppState

	// Elapsed is the time spent in the background, when known.
	Elapsed time.Duration
}

// Decide applies one reported transition to snap. now is the time of the
// transition; hasPin reports whether a PIN is configured.
func Decide(snap Snapshot, cfg Config, hasPin bool, next AppState, now time.Time) (Snapshot, Decision) {
	prev := snap.Current
	d := Decision{From: prev, To: next}

	if snap.HasBackground() {
		d.Elapsed = now.Sub(snap.LastBackground)
	}

	switch {
	case prev == StateActive && next == StateBackground:
		snap.LastBackground = now
		d.Elapsed = 0

	case (prev == StateBackground || prev == StateInactive) && next == StateActive && hasPin:
		if cfg.LockOnResume {
			d.Lock = true
			d.Reason = ReasonResume
		} else if cfg.AutoLockEnabled() && snap.HasBackground() {
			elapsedMinutes := float64(now.Sub(snap.LastBackground)) / float64(time.Minute)
			if elapsedMinutes >= cfg.AutoLockMinutes {
				d.Lock = true
				d.Reason = ReasonIdle
			}
		}
	}

	snap.Current = next
	return snap, d
}

// =============================================================================
// POLICY
// =============================================================================

// Policy owns the process-wide Snapshot. It is not safe for concurrent use.
type Policy struct {
	cfg  Config
	snap Snapshot
}

// NewPolicy returns a policy starting in the given state.
func NewPolicy(cfg Config, initial AppState) *Policy {
	return &Policy{
		cfg:  cfg,
		snap: Snapshot{Current: initial},
	}
}

// Config returns the current settings.
func (p *Policy) Config() Config {
	return p.cfg
}

// SetConfig replaces the settings. History is kept.
func (p *Policy) SetConfig(cfg Config) {
	p.cfg = cfg
}

// Snapshot returns a copy of the lifecycle history.
func (p *Policy) Snapshot() Snapshot {
	return p.snap
}

// Observe records a transition to next and reports whether to lock.
func (p *Policy) Observe(next AppState, now time.Time, hasPin bool) Decision {
	var d Decision
	p.snap, d = Decide(p.snap, p.cfg, hasPin, next, now)
	return d
}

// FormatDuration returns a short human-readable duration such as "4m 30s".
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm %ds", mins, secs)
}

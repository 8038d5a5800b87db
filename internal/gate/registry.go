// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"sync"

	"github.com/jeranaias/pinlock-tui/internal/pinlock"
)

// Handle is what a mounted lock exposes to the rest of the application.
type Handle interface {
	Show(opts pinlock.ShowOptions)
	Hide()
	RequestSetPin()
}

// Registry holds at most one mounted Handle. Calls made while nothing is
// mounted are dropped.
type Registry struct {
	mu      sync.Mutex
	current Handle
}

// Default is the process-wide registry used by the package-level functions.
var Default = &Registry{}

// Mount makes h the active handle, replacing any previous one. In-progress
// entry on the previous handle is not carried over.
func (r *Registry) Mount(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = h
}

// Unmount clears the active handle if it is h. Unmounting a handle that
// was already replaced does nothing.
func (r *Registry) Unmount(h Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == h {
		r.current = nil
	}
}

// Mounted reports whether a handle is active.
func (r *Registry) Mounted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

func (r *Registry) active() Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Show forwards to the active handle.
func (r *Registry) Show(opts pinlock.ShowOptions) {
	if h := r.active(); h != nil {
		h.Show(opts)
	}
}

// Hide forwards to the active handle.
func (r *Registry) Hide() {
	if h := r.active(); h != nil {
		h.Hide()
	}
}

// RequestSetPin forwards to the active handle.
func (r *Registry) RequestSetPin() {
	if h := r.active(); h != nil {
		h.RequestSetPin()
	}
}

// Show requests the lock on the default registry.
func Show(opts pinlock.ShowOptions) { Default.Show(opts) }

// Hide dismisses the lock on the default registry.
func Hide() { Default.Hide() }

// RequestSetPin requests Setup mode on the default registry.
func RequestSetPin() { Default.RequestSetPin() }

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jeranaias/pinlock-tui/internal/gate"
	"github.com/jeranaias/pinlock-tui/internal/lifecycle"
	"github.com/jeranaias/pinlock-tui/internal/pinlock"
)

var _ gate.Sink = (*EventStore)(nil)

func openTestStore(t *testing.T) *EventStore {
	t.Helper()
	store, err := OpenEventStore(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// EVENT STORE TESTS
// =============================================================================

func TestEventStore_AppendAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	for i, kind := range []string{"INVALID_ATTEMPT", "UNLOCKED", "HIDDEN"} {
		_, err := store.Append(ctx, Record{
			SessionID: "s1",
			Kind:      kind,
			Mode:      "unlock",
			At:        base.Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("len(recent) = %d, want 2", len(recent))
	}
	if recent[0].Kind != "HIDDEN" || recent[1].Kind != "UNLOCKED" {
		t.Errorf("recent kinds = %q, %q; want newest first", recent[0].Kind, recent[1].Kind)
	}
	if !recent[0].At.Equal(base.Add(2 * time.Second)) {
		t.Errorf("At = %v, want %v", recent[0].At, base.Add(2*time.Second))
	}

	all, err := store.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent(0) failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}
}

func TestEventStore_RecentEmpty(t *testing.T) {
	store := openTestStore(t)
	recent, err := store.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 0 {
		t.Errorf("len(recent) = %d, want 0", len(recent))
	}
}

func TestEventStore_RecordLockRequest(t *testing.T) {
	store := openTestStore(t)
	store.RecordLockRequest("s2", lifecycle.Decision{
		Lock:    true,
		Reason:  lifecycle.ReasonIdle,
		Elapsed: 90 * time.Second,
	}, time.Now())

	recent, err := store.Recent(context.Background(), 1)
	if err != nil || len(recent) != 1 {
		t.Fatalf("Recent = %v, %v", recent, err)
	}
	r := recent[0]
	if r.Kind != KindLockRequested || r.Reason != "idle" || r.Elapsed != 90*time.Second {
		t.Errorf("record = %+v", r)
	}
}

func TestEventStore_GateIntegration(t *testing.T) {
	store := openTestStore(t)
	var newPin string
	g := gate.New(gate.Options{Sink: store, OnSetPin: func(p string) { newPin = p }})

	g.Show(pinlock.ShowOptions{})
	for _, d := range "135790135790" {
		g.PressDigit(d)
	}
	if newPin != "135790" {
		t.Fatalf("newPin = %q, want 135790", newPin)
	}

	st, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.ByKind["PIN_SET"] != 1 || st.ByKind["HIDDEN"] != 1 {
		t.Errorf("ByKind = %v", st.ByKind)
	}

	recent, _ := store.Recent(context.Background(), 0)
	for _, r := range recent {
		if r.SessionID != g.SessionID() {
			t.Errorf("SessionID = %q, want %q", r.SessionID, g.SessionID())
		}
	}
}

func TestEventStore_Stats(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	st, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.Total != 0 || !st.First.IsZero() {
		t.Errorf("empty stats = %+v", st)
	}

	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	last := first.Add(time.Hour)
	store.Append(ctx, Record{SessionID: "a", Kind: "INVALID_ATTEMPT", At: first})
	store.Append(ctx, Record{SessionID: "a", Kind: "INVALID_ATTEMPT", At: first.Add(time.Minute)})
	store.Append(ctx, Record{SessionID: "a", Kind: "UNLOCKED", At: last})

	st, err = store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.Total != 3 || st.ByKind["INVALID_ATTEMPT"] != 2 {
		t.Errorf("stats = %+v", st)
	}
	if !st.First.Equal(first) || !st.Last.Equal(last) {
		t.Errorf("range = %v..%v, want %v..%v", st.First, st.Last, first, last)
	}
}

func TestEventStore_Prune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	store.Append(ctx, Record{SessionID: "old", Kind: "UNLOCKED", At: now.Add(-48 * time.Hour)})
	store.Append(ctx, Record{SessionID: "new", Kind: "UNLOCKED", At: now})

	n, err := store.Prune(ctx, now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned = %d, want 1", n)
	}

	recent, _ := store.Recent(ctx, 0)
	if len(recent) != 1 || recent[0].SessionID != "new" {
		t.Errorf("remaining = %+v", recent)
	}
}

func TestEventStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := OpenEventStore(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	store.Append(context.Background(), Record{SessionID: "s", Kind: "UNLOCKED"})
	store.Close()

	store, err = OpenEventStore(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	defer store.Close()

	recent, _ := store.Recent(context.Background(), 0)
	if len(recent) != 1 {
		t.Errorf("len(recent) = %d after reopen, want 1", len(recent))
	}
}

func TestEventStore_Closed(t *testing.T) {
	store := openTestStore(t)
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}
	if _, err := store.Append(context.Background(), Record{Kind: "X"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Append after close = %v, want ErrClosed", err)
	}
	if _, err := store.Recent(context.Background(), 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Recent after close = %v, want ErrClosed", err)
	}
}

func TestDefaultHistoryPath(t *testing.T) {
	t.Setenv("PINLOCK_HOME", "/tmp/pl")
	if got := DefaultHistoryPath(); got != filepath.Join("/tmp/pl", "history.db") {
		t.Errorf("DefaultHistoryPath() = %q", got)
	}
}

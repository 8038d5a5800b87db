// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage keeps a queryable history of lock events in SQLite.
//
// EventStore implements gate.Sink. It records what happened and when, never
// the PIN itself, and backs the "pinlock history" command.
//
// # Key Types
//
//   - EventStore: SQLite-backed event history
//   - Record: One stored event
//   - Stats: Per-kind event counts
//
// # Usage
//
//	store, err := storage.OpenEventStore(storage.DefaultHistoryPath())
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	g := gate.New(gate.Options{CorrectPin: pin, Sink: store})
//	recent, _ := store.Recent(ctx, 20)
package storage

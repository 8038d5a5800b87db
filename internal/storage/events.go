// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/pinlock-tui/internal/lifecycle"
	"github.com/jeranaias/pinlock-tui/internal/pinlock"
)

// =============================================================================
// SCHEMA
// =============================================================================

// KindLockRequested marks a lifecycle lock decision. Intent records use
// the intent kind name.
const KindLockRequested = "LOCK_REQUESTED"

const eventSchema = `
CREATE TABLE IF NOT EXISTS events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT    NOT NULL,
	kind       TEXT    NOT NULL,
	mode       TEXT    NOT NULL DEFAULT '',
	reason     TEXT    NOT NULL DEFAULT '',
	elapsed_ms INTEGER NOT NULL DEFAULT 0,
	at         INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
`

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("event store is closed")

// =============================================================================
// TYPES
// =============================================================================

// Record is one stored event.
type Record struct {
	ID        int64
	SessionID string
	Kind      string
	Mode      string
	Reason    string
	Elapsed   time.Duration
	At        time.Time
}

// Stats holds event counts by kind.
type Stats struct {
	Total  int
	ByKind map[string]int
	First  time.Time
	Last   time.Time
}

// EventStore is a SQLite-backed event history. Safe for concurrent use.
type EventStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// =============================================================================
// OPEN / CLOSE
// =============================================================================

// DefaultHistoryPath returns ~/.pinlock/history.db, or $PINLOCK_HOME/history.db.
func DefaultHistoryPath() string {
	if dir := os.Getenv("PINLOCK_HOME"); dir != "" {
		return filepath.Join(dir, "history.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".pinlock", "history.db")
}

// OpenEventStore opens or creates the history database at path.
func OpenEventStore(path string) (*EventStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(eventSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := os.Chmod(path, 0600); err != nil && !os.IsNotExist(err) {
		log.Printf("HISTORY_CHMOD_FAILED | path=%s error=%v", path, err)
	}

	return &EventStore{db: db, path: path}, nil
}

// Path returns the database path.
func (s *EventStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *EventStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *EventStore) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

// =============================================================================
// WRITE
// =============================================================================

// Append stores r and returns its ID. A zero At is set to now.
func (s *EventStore) Append(ctx context.Context, r Record) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	if r.At.IsZero() {
		r.At = time.Now()
	}

	res, err := db.ExecContext(ctx,
		`INSERT INTO events (session_id, kind, mode, reason, elapsed_ms, at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.SessionID, r.Kind, r.Mode, r.Reason, r.Elapsed.Milliseconds(), r.At.UnixNano(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return res.LastInsertId()
}

// RecordIntent stores a lock intent. The PIN carried by PinSet is not stored.
func (s *EventStore) RecordIntent(sessionID string, mode pinlock.Mode, in pinlock.Intent, at time.Time) {
	_, err := s.Append(context.Background(), Record{
		SessionID: sessionID,
		Kind:      in.Kind.String(),
		Mode:      mode.String(),
		At:        at,
	})
	if err != nil {
		log.Printf("HISTORY_WRITE_FAILED | kind=%s error=%v", in.Kind, err)
	}
}

// RecordLockRequest stores a lifecycle lock decision.
func (s *EventStore) RecordLockRequest(sessionID string, d lifecycle.Decision, at time.Time) {
	_, err := s.Append(context.Background(), Record{
		SessionID: sessionID,
		Kind:      KindLockRequested,
		Reason:    d.Reason.String(),
		Elapsed:   d.Elapsed,
		At:        at,
	})
	if err != nil {
		log.Printf("HISTORY_WRITE_FAILED | kind=%s error=%v", KindLockRequested, err)
	}
}

// Prune deletes events older than before and returns how many were removed.
func (s *EventStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM events WHERE at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("failed to prune events: %w", err)
	}
	return res.RowsAffected()
}

// =============================================================================
// READ
// =============================================================================

// Recent returns up to limit events, newest first. A limit of zero or less
// returns every event.
func (s *EventStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, session_id, kind, mode, reason, elapsed_ms, at FROM events ORDER BY at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			r         Record
			elapsedMs int64
			atNanos   int64
		)
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Kind, &r.Mode, &r.Reason, &elapsedMs, &atNanos); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
		r.At = time.Unix(0, atNanos)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats returns per-kind counts and the time range covered.
func (s *EventStore) Stats(ctx context.Context) (Stats, error) {
	st := Stats{ByKind: make(map[string]int)}

	db, err := s.conn()
	if err != nil {
		return st, err
	}

	rows, err := db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return st, fmt.Errorf("failed to count events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			kind  string
			count int
		)
		if err := rows.Scan(&kind, &count); err != nil {
			return st, fmt.Errorf("failed to scan count: %w", err)
		}
		st.ByKind[kind] = count
		st.Total += count
	}
	if err := rows.Err(); err != nil {
		return st, err
	}
	if st.Total == 0 {
		return st, nil
	}

	var first, last int64
	if err := db.QueryRowContext(ctx, `SELECT MIN(at), MAX(at) FROM events`).Scan(&first, &last); err != nil {
		return st, fmt.Errorf("failed to read time range: %w", err)
	}
	st.First = time.Unix(0, first)
	st.Last = time.Unix(0, last)
	return st, nil
}

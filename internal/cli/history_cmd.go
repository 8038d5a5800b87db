// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Event history command for pinlock.
//
// Command: history [subcommand]
//
// Subcommands:
//   list (default)      Recent events, newest first (--limit N)
//   stats               Event counts by kind
//   prune --before D    Delete events older than D (Go duration, e.g. 720h)

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/jeranaias/pinlock-tui/internal/lifecycle"
	"github.com/jeranaias/pinlock-tui/internal/storage"
)

// HandleHistory handles the "history" command.
func HandleHistory(args Args) error {
	return runHistory(context.Background(), os.Stdout, args)
}

func runHistory(ctx context.Context, w io.Writer, args Args) error {
	switch args.Subcommand {
	case "", "list":
	case "stats", "prune":
	default:
		return NewUsageError("history subcommand", args.Subcommand,
			"expected list, stats or prune", "pinlock history stats")
	}

	store, err := openHistory(args)
	if err != nil {
		return err
	}
	defer store.Close()

	switch args.Subcommand {
	case "stats":
		return historyStats(ctx, w, store, args)
	case "prune":
		return historyPrune(ctx, w, store, args)
	default:
		return historyList(ctx, w, store, args)
	}
}

func openHistory(args Args) (*storage.EventStore, error) {
	cfg, _, err := loadConfig(args)
	if err != nil {
		return nil, err
	}
	path := cfg.Audit.HistoryPath
	if path == "" {
		path = storage.DefaultHistoryPath()
	}
	store, err := storage.OpenEventStore(path)
	if err != nil {
		return nil, NewCommandError("history", "open", "could not open event history", err)
	}
	return store, nil
}

// =============================================================================
// SUBCOMMANDS
// =============================================================================

func historyList(ctx context.Context, w io.Writer, store *storage.EventStore, args Args) error {
	records, err := store.Recent(ctx, args.Limit)
	if err != nil {
		return NewCommandError("history", "list", "query failed", err)
	}

	if args.JSON {
		events := make([]HistoryEvent, 0, len(records))
		for _, r := range records {
			events = append(events, HistoryEvent{
				ID:        r.ID,
				SessionID: r.SessionID,
				Kind:      r.Kind,
				Mode:      r.Mode,
				Reason:    r.Reason,
				ElapsedMs: r.Elapsed.Milliseconds(),
				At:        r.At.UTC().Format(time.RFC3339Nano),
			})
		}
		return NewJSONResponse("history list", events).Fprint(w)
	}

	if len(records) == 0 {
		fmt.Fprintln(w, DimStyle.Render("No events recorded."))
		return nil
	}
	for _, r := range records {
		fmt.Fprintln(w, formatRecord(r))
	}
	return nil
}

func historyStats(ctx context.Context, w io.Writer, store *storage.EventStore, args Args) error {
	st, err := store.Stats(ctx)
	if err != nil {
		return NewCommandError("history", "stats", "query failed", err)
	}

	if args.JSON {
		data := HistoryStatsData{Total: st.Total, ByKind: st.ByKind}
		if st.Total > 0 {
			data.First = st.First.UTC().Format(time.RFC3339)
			data.Last = st.Last.UTC().Format(time.RFC3339)
		}
		return NewJSONResponse("history stats", data).Fprint(w)
	}

	fmt.Fprintln(w, TitleStyle.Render("pinlock history"))
	fmt.Fprintln(w, RenderField("total", fmt.Sprint(st.Total)))
	if st.Total == 0 {
		return nil
	}
	fmt.Fprintln(w, RenderField("first", st.First.Format(time.DateTime)))
	fmt.Fprintln(w, RenderField("last", st.Last.Format(time.DateTime)))

	kinds := make([]string, 0, len(st.ByKind))
	for k := range st.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintln(w, RenderField(k, fmt.Sprint(st.ByKind[k])))
	}
	return nil
}

func historyPrune(ctx context.Context, w io.Writer, store *storage.EventStore, args Args) error {
	raw, ok := args.Options["before"]
	if !ok {
		return NewUsageError("--before", "", "prune needs an age", "pinlock history prune --before 720h")
	}
	age, err := time.ParseDuration(raw)
	if err != nil || age < 0 {
		return NewUsageError("--before", raw, "expected a non-negative duration", "pinlock history prune --before 720h")
	}

	cutoff := time.Now().Add(-age)
	n, err := store.Prune(ctx, cutoff)
	if err != nil {
		return NewCommandError("history", "prune", "delete failed", err)
	}

	if args.JSON {
		return NewJSONResponse("history prune", PruneData{Before: cutoff.UTC().Format(time.RFC3339), Deleted: n}).Fprint(w)
	}
	if !args.Quiet {
		fmt.Fprintf(w, "%s deleted %d event(s) before %s\n", SuccessStyle.Render("OK"), n, cutoff.Format(time.DateTime))
	}
	return nil
}

// formatRecord renders one event as a single line.
func formatRecord(r storage.Record) string {
	line := fmt.Sprintf("%s  %-16s", r.At.Format(time.DateTime), r.Kind)
	if r.Mode != "" {
		line += " mode=" + r.Mode
	}
	if r.Reason != "" {
		line += " reason=" + r.Reason
	}
	if r.Kind == storage.KindLockRequested && r.Elapsed > 0 {
		line += " elapsed=" + lifecycle.FormatDuration(r.Elapsed)
	}
	return line + DimStyle.Render("  "+shortID(r.SessionID))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

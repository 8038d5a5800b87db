// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the commands of pinlock.
//
// The default command runs the full-screen lock (tui). prompt is a
// line-mode lock built on liner, and config and history manage the
// configuration file and the SQLite event history.
//
// # Key Types
//
//   - Command: Enumeration of the available commands
//   - Args: Parsed global and command-specific flags
//   - Env: Config, audit log, event history and gate for one interactive run
//   - LockModel: bubbletea host that renders the lock over a protected screen
//   - JSONResponse: Envelope for --json output
//
// # Usage
//
//	cmd, args := cli.Parse()
//	switch cmd {
//	case cli.CmdConfig:
//	    err = cli.HandleConfig(args)
//	case cli.CmdTUI:
//	    err = cli.HandleTUI(args)
//	}
//
// Handlers return errors; GetExitCode maps them to exit codes.
package cli

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package audit writes an append-only, redacted trail of lock events.
//
// The Logger implements gate.Sink, so it can be handed straight to a gate.
// PINs never reach the file: a PinSet intent is recorded by length only and
// digit runs in free-form fields are redacted.
//
// # Key Types
//
//   - Event: One audit log entry
//   - Logger: Thread-safe file logger with redaction and size rotation
//   - Redactor: Interface for scrubbing sensitive text
//
// # Log Format
//
//	2025-03-01 09:00:00 | UNLOCK_FAILED | <session> | unlock | FAILURE |
//	2025-03-01 09:00:04 | UNLOCK_SUCCESS | <session> | unlock | SUCCESS |
//	2025-03-01 09:12:40 | LOCK_REQUESTED | <session> |  | SUCCESS | elapsed=12m from=background reason=idle
package audit

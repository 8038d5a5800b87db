// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/pinlock-tui/internal/lifecycle"
	"github.com/jeranaias/pinlock-tui/internal/pinlock"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultMaxFileSize is the default max file size before rotation (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// Event types written to the log.
const (
	EventUnlockSuccess = "UNLOCK_SUCCESS"
	EventUnlockFailed  = "UNLOCK_FAILED"
	EventPinMismatch   = "PIN_MISMATCH"
	EventPinSet        = "PIN_SET"
	EventLockHidden    = "LOCK_HIDDEN"
	EventLockRequested = "LOCK_REQUESTED"
	EventStartup       = "STARTUP"
	EventShutdown      = "SHUTDOWN"
)

// =============================================================================
// AUDIT EVENT
// =============================================================================

// Event represents a single audit log entry.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType string            `json:"event_type"`
	SessionID string            `json:"session_id"`
	Mode      string            `json:"mode,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ToLogLine formats the event as a single log line. Metadata keys are sorted.
func (e *Event) ToLogLine() string {
	timestamp := e.Timestamp.Format("2006-01-02 15:04:05")

	status := "SUCCESS"
	if !e.Success {
		if e.Error != "" {
			status = fmt.Sprintf("ERROR: %s", e.Error)
		} else {
			status = "FAILURE"
		}
	}

	keys := make([]string, 0, len(e.Metadata))
	for k := range e.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+e.Metadata[k])
	}

	return fmt.Sprintf("%s | %s | %s | %s | %s | %s",
		timestamp,
		e.EventType,
		e.SessionID,
		e.Mode,
		status,
		strings.Join(pairs, " "),
	)
}

// ToJSON formats the event as JSON.
func (e *Event) ToJSON() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// =============================================================================
// REDACTION
// =============================================================================

// Redactor defines the interface for secret redaction.
type Redactor interface {
	// Redact replaces sensitive data in the input string.
	Redact(input string) string
	// Name returns the name of this redactor.
	Name() string
}

// PatternRedactor redacts text matching a regex pattern.
type PatternRedactor struct {
	name    string
	pattern *regexp.Regexp
	replace string
}

// NewPatternRedactor creates a new pattern-based redactor.
func NewPatternRedactor(name string, pattern *regexp.Regexp, replace string) *PatternRedactor {
	return &PatternRedactor{name: name, pattern: pattern, replace: replace}
}

// Redact replaces matches with the replacement string.
func (r *PatternRedactor) Redact(input string) string {
	return r.pattern.ReplaceAllString(input, r.replace)
}

// Name returns the redactor name.
func (r *PatternRedactor) Name() string {
	return r.name
}

var secretPatterns = []struct {
	name    string
	pattern *regexp.Regexp
	replace string
}{
	{"PinAssignment", regexp.MustCompile(`(?i)(pin|passcode)\s*[=:]\s*\S+`), "[PIN_REDACTED]"},
	{"DigitRun", regexp.MustCompile(`\b\d{4,}\b`), "[DIGITS_REDACTED]"},
}

func defaultRedactors() []Redactor {
	redactors := make([]Redactor, 0, len(secretPatterns))
	for _, sp := range secretPatterns {
		redactors = append(redactors, NewPatternRedactor(sp.name, sp.pattern, sp.replace))
	}
	return redactors
}

// RedactSecrets applies the default redaction patterns without a Logger.
func RedactSecrets(input string) string {
	result := input
	for _, sp := range secretPatterns {
		result = sp.pattern.ReplaceAllString(result, sp.replace)
	}
	return result
}

// =============================================================================
// LOGGER
// =============================================================================

// FailureCallback is called synchronously, outside the lock, when a write fails.
type FailureCallback func(err error)

// Logger provides thread-safe audit logging with redaction and rotation.
type Logger struct {
	path      string
	file      *os.File
	mu        sync.Mutex
	enabled   bool
	maxSize   int64
	redactors []Redactor

	failureCount int
	lastFailure  error
	onFailure    FailureCallback
}

// NewLogger opens (or creates) the audit log at path with 0600 permissions.
func NewLogger(path string) (*Logger, error) {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &Logger{
		path:      path,
		file:      file,
		enabled:   true,
		maxSize:   DefaultMaxFileSize,
		redactors: defaultRedactors(),
	}, nil
}

// Log writes an audit event to the log file.
func (l *Logger) Log(event Event) error {
	l.mu.Lock()

	if !l.enabled || l.file == nil {
		l.mu.Unlock()
		return nil
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.Metadata != nil {
		redacted := make(map[string]string, len(event.Metadata))
		for k, v := range event.Metadata {
			redacted[k] = l.redactLocked(v)
		}
		event.Metadata = redacted
	}
	if event.Error != "" {
		event.Error = l.redactLocked(event.Error)
	}

	if err := l.checkRotationLocked(); err != nil {
		l.failLocked(fmt.Errorf("audit rotation failed: %w", err))
		return l.unlockWithFailure()
	}

	if _, err := fmt.Fprintln(l.file, event.ToLogLine()); err != nil {
		l.failLocked(fmt.Errorf("failed to write audit log: %w", err))
		return l.unlockWithFailure()
	}

	if err := l.file.Sync(); err != nil {
		l.failLocked(fmt.Errorf("failed to sync audit log: %w", err))
		return l.unlockWithFailure()
	}

	l.failureCount = 0
	l.mu.Unlock()
	return nil
}

func (l *Logger) failLocked(err error) {
	l.failureCount++
	l.lastFailure = err
	fmt.Fprintf(os.Stderr, "[AUDIT FAILURE #%d] %v\n", l.failureCount, err)
}

// unlockWithFailure releases the lock, then runs the failure callback.
func (l *Logger) unlockWithFailure() error {
	err := l.lastFailure
	cb := l.onFailure
	l.mu.Unlock()
	if cb != nil {
		cb(err)
	}
	return err
}

// LogEvent logs a generic event.
func (l *Logger) LogEvent(sessionID, eventType string, metadata map[string]string) error {
	return l.Log(Event{
		Timestamp: time.Now(),
		EventType: eventType,
		SessionID: sessionID,
		Success:   true,
		Metadata:  metadata,
	})
}

// LogStartup logs application startup.
func (l *Logger) LogStartup(sessionID string, metadata map[string]string) error {
	return l.LogEvent(sessionID, EventStartup, metadata)
}

// LogShutdown logs application shutdown.
func (l *Logger) LogShutdown(sessionID string, metadata map[string]string) error {
	return l.LogEvent(sessionID, EventShutdown, metadata)
}

// =============================================================================
// GATE SINK
// =============================================================================

// IntentEvent converts a lock intent to an audit event. mode is the mode
// after the transition. The PIN of a PinSet intent is reduced to its length.
func IntentEvent(sessionID string, mode pinlock.Mode, in pinlock.Intent, at time.Time) Event {
	ev := Event{
		Timestamp: at,
		SessionID: sessionID,
		Mode:      mode.String(),
		Success:   true,
	}

	switch in.Kind {
	case pinlock.IntentUnlocked:
		ev.EventType = EventUnlockSuccess
	case pinlock.IntentInvalidAttempt:
		ev.Success = false
		if mode == pinlock.ModeUnlock {
			ev.EventType = EventUnlockFailed
		} else {
			ev.EventType = EventPinMismatch
		}
	case pinlock.IntentPinSet:
		ev.EventType = EventPinSet
		ev.Metadata = map[string]string{"pin_length": strconv.Itoa(len(in.Pin))}
	case pinlock.IntentHidden:
		ev.EventType = EventLockHidden
	default:
		ev.EventType = in.Kind.String()
	}
	return ev
}

// RecordIntent logs a lock intent. Write errors are reported through the
// failure callback.
func (l *Logger) RecordIntent(sessionID string, mode pinlock.Mode, in pinlock.Intent, at time.Time) {
	_ = l.Log(IntentEvent(sessionID, mode, in, at))
}

// RecordLockRequest logs a lifecycle lock decision.
func (l *Logger) RecordLockRequest(sessionID string, d lifecycle.Decision, at time.Time) {
	_ = l.Log(Event{
		Timestamp: at,
		EventType: EventLockRequested,
		SessionID: sessionID,
		Success:   true,
		Metadata: map[string]string{
			"reason":  d.Reason.String(),
			"from":    d.From.String(),
			"elapsed": lifecycle.FormatDuration(d.Elapsed),
		},
	})
}

// =============================================================================
// REDACTION / ROTATION / CONFIGURATION
// =============================================================================

// Redact applies all redactors to sanitize the input string.
func (l *Logger) Redact(input string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.redactLocked(input)
}

func (l *Logger) redactLocked(input string) string {
	result := input
	for _, redactor := range l.redactors {
		result = redactor.Redact(result)
	}
	return result
}

// Rotate moves the current log aside with a timestamp suffix and starts a new one.
func (l *Logger) Rotate() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rotateLocked()
}

func (l *Logger) rotateLocked() error {
	if l.file == nil {
		return nil
	}

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close audit log for rotation: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405.000000000")
	ext := filepath.Ext(l.path)
	base := strings.TrimSuffix(l.path, ext)
	rotatedPath := fmt.Sprintf("%s_%s%s", base, timestamp, ext)

	if err := os.Rename(l.path, rotatedPath); err != nil {
		l.file, _ = os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		return fmt.Errorf("failed to rotate audit log: %w", err)
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		l.file = nil
		return fmt.Errorf("failed to create new audit log after rotation: %w", err)
	}
	l.file = file
	return nil
}

func (l *Logger) checkRotationLocked() error {
	if l.maxSize <= 0 {
		return nil
	}
	info, err := l.file.Stat()
	if err != nil {
		return nil
	}
	if info.Size() >= l.maxSize {
		return l.rotateLocked()
	}
	return nil
}

// SetMaxSize sets the maximum file size before rotation. Zero disables rotation.
func (l *Logger) SetMaxSize(size int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxSize = size
}

// SetEnabled enables or disables logging.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// IsEnabled returns whether logging is enabled.
func (l *Logger) IsEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}

// Path returns the audit log file path.
func (l *Logger) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.path
}

// SetOnFailure sets the callback for write failures.
func (l *Logger) SetOnFailure(callback FailureCallback) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onFailure = callback
}

// LastFailure returns the last write failure, if any.
func (l *Logger) LastFailure() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastFailure
}

// FailureCount returns the number of consecutive write failures.
func (l *Logger) FailureCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.failureCount
}

// Close closes the audit log file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// DefaultPath returns ~/.pinlock/audit.log, or $PINLOCK_HOME/audit.log.
func DefaultPath() string {
	if dir := os.Getenv("PINLOCK_HOME"); dir != "" {
		return filepath.Join(dir, "audit.log")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".pinlock", "audit.log")
}

package entity

import "errors"

// Validation errors surfaced to callers acting on a session ID they
// supplied directly. Event-driven paths never return these; a missing
// target there is an expected race and a silent no-op.
var (
	// ErrSessionNotFound is returned when an operation references a
	// session ID that does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionAlreadyActive is returned when a switch or restore
	// targets the session that is already current (a caller bug).
	ErrSessionAlreadyActive = errors.New("session already active")

	// ErrSessionEmpty is returned when a restore is requested for a
	// session with no tabs.
	ErrSessionEmpty = errors.New("session has no tabs to restore")

	// ErrInvalidStore is returned when an imported record is unusable.
	ErrInvalidStore = errors.New("invalid session store record")
)

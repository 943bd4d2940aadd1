package triage

import "errors"

// Typed failures returned by the Store and Service. All are recoverable at
// the caller; the engine itself never retries. Callers match with errors.Is.
var (
	// ErrNotFound means the alert or subject id is unknown.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateID means Create was called with an id that already exists.
	ErrDuplicateID = errors.New("duplicate alert id")

	// ErrAlertClosed means a mutation was attempted on a resolved alert.
	ErrAlertClosed = errors.New("alert is resolved")

	// ErrAlertEscalated means an escalated alert was targeted by an operation
	// it no longer accepts, such as reassignment. Ownership of an escalated
	// case only changes through resolve-and-recreate.
	ErrAlertEscalated = errors.New("alert is escalated")

	// ErrInvalidReading means a reading could not be accepted as submitted,
	// for example an unknown metric name.
	ErrInvalidReading = errors.New("invalid reading")
)

package models

import "errors"

// Sentinel errors shared across stores, workflow and handlers.
var (
	// ErrValidation marks malformed client input, rejected before any state mutation.
	ErrValidation = errors.New("invalid input")

	// ErrNotFound marks a lookup for an unknown id.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a duplicate start or duplicate session open.
	ErrConflict = errors.New("conflict")

	// ErrInvalidState marks a contract violation such as appending to a
	// closed session. It signals a bug, not an expected runtime condition.
	ErrInvalidState = errors.New("invalid state")

	// ErrInvalidScore marks a score outside [0, 1].
	ErrInvalidScore = errors.New("score out of range")
)

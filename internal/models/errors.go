package models

import "errors"

// Domain error taxonomy. Services return these (usually wrapped with
// fmt.Errorf("...: %w", ...)); handlers map them to HTTP statuses.
var (
	// ErrUnauthorized means the acting user's role does not permit the operation.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the quote/item/job/supplier does not exist.
	ErrNotFound = errors.New("not_found")
	// ErrInvalidTransition means the requested transition is not legal from the current state.
	ErrInvalidTransition = errors.New("invalid_state_transition")
	// ErrValidation means malformed input (weights not summing to 100, negative price, ...).
	ErrValidation = errors.New("validation_failed")
	// ErrConflict means a status guard failed because another actor already
	// transitioned the entity between our read and our write.
	ErrConflict = errors.New("concurrency_conflict")
)

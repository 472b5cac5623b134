package errors

import "errors"

// Common application errors. Services wrap these with context via %w and
// handlers map them to HTTP status codes.
var (
	// ErrNotFound is used when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is used for malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is used when a submission collides with existing state
	// (duplicate email, duplicate team name).
	ErrConflict = errors.New("resource state conflict")

	// ErrUnauthorized is used for missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is used when the caller is known but not allowed.
	ErrForbidden = errors.New("forbidden")

	// ErrInternal is used for unexpected failures that must not leak details.
	ErrInternal = errors.New("internal error")
)

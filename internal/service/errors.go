package service

import "errors"

// Sentinel errors returned by the service layer. The API layer maps
// them onto HTTP status codes; anything else is a 500.
var (
	// ErrValidation marks bad input (400).
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a missing or invisible resource (404).
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a state conflict, e.g. a second open session or
	// a disallowed status transition (409).
	ErrConflict = errors.New("conflict")

	// ErrForbidden marks an authorization failure (403).
	ErrForbidden = errors.New("forbidden")
)

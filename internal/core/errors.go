package core

import "errors"

var (
	// ErrDataUnavailable is returned when the email dataset cannot be loaded
	ErrDataUnavailable = errors.New("email dataset unavailable")
	// ErrNotFound is returned when no email exists for an id
	ErrNotFound = errors.New("email not found")
	// ErrGenerationUnavailable marks a failed or timed out generator call.
	// It never leaves the suggester.
	ErrGenerationUnavailable = errors.New("reply generation unavailable")
	// ErrStoreDisabled is returned by status updates when no store is configured
	ErrStoreDisabled = errors.New("reply store disabled")
)

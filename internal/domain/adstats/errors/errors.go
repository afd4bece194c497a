package errors

import "errors"

var (
	// ErrMappingNotFound is returned when no mapping matches an invite link
	ErrMappingNotFound = errors.New("link mapping not found")

	// ErrDatabaseOperation wraps unexpected database failures
	ErrDatabaseOperation = errors.New("database operation failed")
)

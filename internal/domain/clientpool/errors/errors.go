package errors

import "errors"

var (
	// ErrClientNotFound is returned when a client record does not exist
	ErrClientNotFound = errors.New("client not found")

	// ErrBindingNotFound is returned when a client has no binding for a channel
	ErrBindingNotFound = errors.New("channel binding not found")

	// ErrChannelNotFound is returned when the channels table has no such row
	ErrChannelNotFound = errors.New("channel not found")

	// ErrDatabaseOperation wraps unexpected database failures
	ErrDatabaseOperation = errors.New("database operation failed")
)

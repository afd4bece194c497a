package errors

import "errors"

var (
	// ErrInvalidHorizon is returned for aggregation windows outside 24/48/72
	ErrInvalidHorizon = errors.New("invalid statistics horizon")

	// ErrInvalidIdentifier is returned for values that cannot identify a channel
	ErrInvalidIdentifier = errors.New("invalid channel identifier")

	// ErrDatabaseOperation wraps unexpected database failures
	ErrDatabaseOperation = errors.New("database operation failed")
)

// StaleRefreshTimeout is written into error_message when the reaper clears
// a refresh flag that was left set past its timeout.
const StaleRefreshTimeout = "timeout: refresh took too long"

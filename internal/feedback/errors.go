package feedback

import "errors"

var (
	// ErrSessionNotFound indicates feedback referenced a session that does
	// not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrChunkNotFound indicates a chunk row that should exist does not.
	// Feedback for a chunk that simply was not retrieved in the session is
	// skipped, not an error.
	ErrChunkNotFound = errors.New("chunk not found")

	// ErrValidation indicates the request failed validation before any
	// database work happened.
	ErrValidation = errors.New("validation failed")

	// ErrDatabaseOperation indicates a transaction could not be completed.
	ErrDatabaseOperation = errors.New("database operation failed")
)

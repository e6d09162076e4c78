package studio

import "errors"

// Studio errors
var (
	// ErrSessionNotFound indicates no session exists with the given id
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed indicates an operation on a session that was closed
	ErrSessionClosed = errors.New("session closed")

	// ErrManagerStopped indicates the manager no longer accepts sessions
	ErrManagerStopped = errors.New("session manager stopped")

	// ErrInvalidTotalDuration indicates a negative timeline scale
	ErrInvalidTotalDuration = errors.New("total duration must not be negative")
)

// IsNotFound checks if the error means the session does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound)
}

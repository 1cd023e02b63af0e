package convert

import "errors"

var (
	// ErrSessionNotFound covers unknown or already-cleared session ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrInvalidState rejects a second conversion attempt; the state
	// machine allows at most one per session.
	ErrInvalidState = errors.New("session has already been converted or failed")
	// ErrNotReady rejects downloads before conversion completed.
	ErrNotReady = errors.New("file not ready for download")
)

// ValidationError reports a user-correctable upload problem.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

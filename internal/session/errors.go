package session

import (
	"errors"
	"fmt"
)

// ErrUserNotFound means a name lookup matched nobody; callers fall back to
// the registration flow.
var ErrUserNotFound = errors.New("user not found")

// ErrSessionNotFound means the cache holds nothing for the presented
// session id; the client must log in again.
var ErrSessionNotFound = errors.New("session not found")

// ValidationError carries per-field messages for the registration form.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// RemoteError wraps a durable-store failure on a gating operation
// (registration or login). These surface to the learner as a retry prompt;
// background sync failures never use this type.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote store: %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

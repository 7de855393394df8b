package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for client operations.
var (
	// ErrSessionClosed is returned by operations on a closed session.
	ErrSessionClosed = errors.New("client: session closed")

	// ErrNotStarted is returned by operations that need a running loop.
	ErrNotStarted = errors.New("client: session not started")

	// ErrNoValue is returned by SetText when the source element cannot hold
	// a value.
	ErrNoValue = errors.New("client: element has no value")
)

// TargetError is a failure to resolve or use a document element.
type TargetError struct {
	ID  string // Element id
	Op  string // "apply" or "settext"
	Err error  // Underlying error
}

// Error returns the error message.
func (e *TargetError) Error() string {
	return fmt.Sprintf("client: %s %q: %v", e.Op, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *TargetError) Unwrap() error {
	return e.Err
}

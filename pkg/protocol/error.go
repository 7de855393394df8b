package protocol

import (
	"errors"
	"fmt"
)

// Decoding errors.
var (
	// ErrMalformed marks any body that is not valid protocol JSON.
	// Use errors.Is(err, ErrMalformed) to tell parse failures from transport
	// failures.
	ErrMalformed = errors.New("protocol: malformed message")

	// ErrBodyTooLarge is returned when a body exceeds Limits.MaxBodySize.
	ErrBodyTooLarge = errors.New("protocol: body too large")

	// ErrTooManyUpdates is returned when a refresh exceeds Limits.MaxUpdates.
	ErrTooManyUpdates = errors.New("protocol: too many update records")

	// ErrEmptyMethod is returned when a command has no method.
	ErrEmptyMethod = errors.New("protocol: command has no method")

	// ErrUnknownOp is returned for a frame with an unrecognized op.
	ErrUnknownOp = errors.New("protocol: unknown frame op")
)

// MalformedError describes where decoding failed.
type MalformedError struct {
	Where string
	Err   error
}

// Error returns the error message.
func (e *MalformedError) Error() string {
	return fmt.Sprintf("protocol: malformed message: %s: %v", e.Where, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *MalformedError) Unwrap() error {
	return e.Err
}

// Is reports ErrMalformed so callers need not know the concrete type.
func (e *MalformedError) Is(target error) bool {
	return target == ErrMalformed
}

func malformed(where string, err error) error {
	return &MalformedError{Where: where, Err: err}
}

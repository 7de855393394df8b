package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/vango-dev/guisync/pkg/protocol"
)

// Sentinel errors for command routing and server setup.
var (
	// ErrUnknownElement is returned when a command names an unbound id.
	ErrUnknownElement = errors.New("server: unknown element")

	// ErrUnknownMethod is returned when a command's method has no handler.
	ErrUnknownMethod = errors.New("server: unknown method")

	// ErrEmptyID is returned when binding an element without an id.
	ErrEmptyID = errors.New("server: empty element id")

	// ErrInvalidConfig is returned by ValidateConfig.
	ErrInvalidConfig = errors.New("server: invalid config")

	// ErrServerClosed is returned by Run after Shutdown.
	ErrServerClosed = errors.New("server: closed")
)

// CommandError wraps a command failure with its target.
type CommandError struct {
	ID     string
	Method string
	Err    error
}

// Error returns the error message with command context.
func (e *CommandError) Error() string {
	return fmt.Sprintf("server: %s %q: %v", e.Method, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// StatusCode maps a command or decode error to the HTTP status returned to
// the client.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnknownElement):
		return http.StatusNotFound
	case errors.Is(err, protocol.ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnknownMethod),
		errors.Is(err, protocol.ErrMalformed),
		errors.Is(err, protocol.ErrEmptyCommandID),
		errors.Is(err, protocol.ErrEmptyMethod):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

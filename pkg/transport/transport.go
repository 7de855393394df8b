package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/vango-dev/guisync/pkg/protocol"
)

// Transport performs the two guisync request kinds.
type Transport interface {
	// Refresh fetches the full, ordered update list.
	Refresh(ctx context.Context) ([]protocol.UpdateRecord, error)

	// Command delivers one command and waits for the server to accept it.
	Command(ctx context.Context, cmd protocol.CommandRequest) error

	// Close releases connections held by the transport.
	Close() error
}

// RequestIDHeader carries a unique id per HTTP request for log correlation.
const RequestIDHeader = "X-Guisync-Request"

var (
	// ErrClosed is returned by requests made after Close.
	ErrClosed = errors.New("transport: closed")

	// ErrUnexpectedReply is returned when a WebSocket reply has the wrong op.
	ErrUnexpectedReply = errors.New("transport: unexpected reply")

	// ErrUnsupportedScheme is returned by constructors given a URL with a
	// scheme they cannot dial.
	ErrUnsupportedScheme = errors.New("transport: unsupported scheme")
)

// StatusError reports a response with an unacceptable HTTP status.
type StatusError struct {
	Op     string // "refresh" or "rpc"
	Code   int
	Status string
}

// Error returns the error message.
func (e *StatusError) Error() string {
	return fmt.Sprintf("transport: %s: unexpected status %s", e.Op, e.Status)
}

// RemoteError is a failure reported by the server over WebSocket.
type RemoteError struct {
	Op      string
	Message string
}

// Error returns the error message.
func (e *RemoteError) Error() string {
	return fmt.Sprintf("transport: %s: server error: %s", e.Op, e.Message)
}

// IsMalformed reports whether err is a response parse failure rather than a
// network or status failure.
func IsMalformed(err error) bool {
	return errors.Is(err, protocol.ErrMalformed) ||
		errors.Is(err, protocol.ErrBodyTooLarge) ||
		errors.Is(err, protocol.ErrTooManyUpdates)
}

package errors

import (
	"errors"
	"net/http"

	"github.com/vango-dev/guisync/pkg/client"
	"github.com/vango-dev/guisync/pkg/dom"
	"github.com/vango-dev/guisync/pkg/protocol"
	"github.com/vango-dev/guisync/pkg/transport"
)

// Classify maps an error returned by the guisync packages to a coded Error.
// An *Error in the chain is returned unchanged. Unrecognized errors are
// wrapped without a code; nil yields nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var e *Error
	if errors.As(err, &e) {
		return e
	}

	var status *transport.StatusError
	var remote *transport.RemoteError
	var target *client.TargetError

	switch {
	case errors.Is(err, protocol.ErrBodyTooLarge), errors.Is(err, protocol.ErrTooManyUpdates):
		return New("E301").Wrap(err)
	case errors.Is(err, protocol.ErrMalformed):
		return New("E300").Wrap(err)
	case errors.Is(err, protocol.ErrEmptyCommandID), errors.Is(err, protocol.ErrEmptyMethod):
		return New("E500").WithDetail("A command needs an element id and a method.").Wrap(err)
	case errors.Is(err, transport.ErrUnsupportedScheme):
		return New("E202").Wrap(err)
	case errors.As(err, &status):
		ce := New("E201").Wrap(err)
		if status.Code == http.StatusNotFound {
			ce.WithSuggestion("Check the server paths; the defaults are /refresh/ and /rpc/.")
		}
		return ce
	case errors.As(err, &remote):
		return New("E203").WithDetail(remote.Message).Wrap(err)
	case errors.Is(err, client.ErrNoValue):
		ce := New("E401").Wrap(err)
		if errors.As(err, &target) {
			ce.WithDetail("Element " + target.ID + " is not an input, textarea or select.")
		}
		return ce
	case errors.Is(err, dom.ErrElementNotFound):
		ce := New("E400").Wrap(err)
		if errors.As(err, &target) {
			ce.WithDetail("The document has no element with id " + target.ID + ".")
		}
		return ce
	case errors.Is(err, transport.ErrClosed), errors.Is(err, client.ErrSessionClosed):
		return Newf(CategoryTransport, "Session closed").Wrap(err)
	}

	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) || errors.Is(err, transport.ErrUnexpectedReply) {
		return New("E200").Wrap(err)
	}
	return &Error{Message: err.Error()}
}

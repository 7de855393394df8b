package client

import (
	"context"
	"time"

	"github.com/vango-dev/guisync/pkg/protocol"
	"github.com/vango-dev/guisync/pkg/transport"
)

// RPCClient sends commands and waits for the server to accept them.
type RPCClient struct {
	transport transport.Transport
	timeout   time.Duration
}

// NewRPCClient creates a client. A zero timeout leaves the bound to the
// caller's context.
func NewRPCClient(t transport.Transport, timeout time.Duration) *RPCClient {
	return &RPCClient{transport: t, timeout: timeout}
}

// Send validates cmd and delivers it, blocking until the server replies.
// There is no retry.
func (c *RPCClient) Send(ctx context.Context, cmd protocol.CommandRequest) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return c.transport.Command(ctx, cmd)
}

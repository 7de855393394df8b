package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/guisync/pkg/protocol"
)

// DefaultWebSocketPath is the server endpoint for the WebSocket transport.
const DefaultWebSocketPath = "/ws"

// WebSocket multiplexes refreshes and commands over one connection.
//
// Requests are serialized: a request holds the connection until its reply
// arrives. A failed request drops the connection; the next request dials
// again.
type WebSocket struct {
	url    string
	dialer *websocket.Dialer
	header http.Header
	limits *protocol.Limits
	logger *slog.Logger

	mu     sync.Mutex
	conn   *websocket.Conn
	seq    uint64
	closed bool
}

// WebSocketOption configures a WebSocket transport.
type WebSocketOption func(*WebSocket)

// WithDialer sets the dialer. Default: websocket.DefaultDialer.
func WithDialer(d *websocket.Dialer) WebSocketOption {
	return func(t *WebSocket) {
		t.dialer = d
	}
}

// WithHeader sets extra handshake headers (e.g. Origin).
func WithHeader(h http.Header) WebSocketOption {
	return func(t *WebSocket) {
		t.header = h
	}
}

// WithWebSocketLimits sets the maximum frame size.
func WithWebSocketLimits(l *protocol.Limits) WebSocketOption {
	return func(t *WebSocket) {
		t.limits = l
	}
}

// WithWebSocketLogger sets the logger.
func WithWebSocketLogger(l *slog.Logger) WebSocketOption {
	return func(t *WebSocket) {
		t.logger = l
	}
}

// NewWebSocket creates a transport for the server at baseURL. An http(s)
// URL is converted to ws(s) and path is appended ("" means /ws).
// No connection is made until the first request.
func NewWebSocket(baseURL, path string, opts ...WebSocketOption) (*WebSocket, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, u.Scheme)
	}
	if path == "" {
		path = DefaultWebSocketPath
	}

	t := &WebSocket{
		url:    u.JoinPath(path).String(),
		dialer: websocket.DefaultDialer,
		limits: protocol.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	t.logger = t.logger.With("component", "transport", "transport", "websocket")
	return t, nil
}

// Refresh implements Transport.
func (t *WebSocket) Refresh(ctx context.Context) ([]protocol.UpdateRecord, error) {
	reply, err := t.roundTrip(ctx, &protocol.Frame{Op: protocol.OpRefresh})
	if err != nil {
		return nil, err
	}
	switch reply.Op {
	case protocol.OpUpdates:
		if reply.Updates == nil {
			return []protocol.UpdateRecord{}, nil
		}
		return reply.Updates, nil
	case protocol.OpError:
		return nil, &RemoteError{Op: "refresh", Message: reply.Error}
	default:
		return nil, fmt.Errorf("%w: %s to refresh", ErrUnexpectedReply, reply.Op)
	}
}

// Command implements Transport.
func (t *WebSocket) Command(ctx context.Context, cmd protocol.CommandRequest) error {
	reply, err := t.roundTrip(ctx, &protocol.Frame{Op: protocol.OpRPC, Command: &cmd})
	if err != nil {
		return err
	}
	switch reply.Op {
	case protocol.OpAck:
		return nil
	case protocol.OpError:
		return &RemoteError{Op: "rpc", Message: reply.Error}
	default:
		return fmt.Errorf("%w: %s to rpc", ErrUnexpectedReply, reply.Op)
	}
}

// Close implements Transport.
func (t *WebSocket) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	if t.conn == nil {
		return nil
	}
	_ = t.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *WebSocket) roundTrip(ctx context.Context, f *protocol.Frame) (*protocol.Frame, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrClosed
	}
	conn, err := t.connLocked(ctx)
	if err != nil {
		return nil, err
	}

	t.seq++
	f.Seq = t.seq

	reply, err := t.exchange(ctx, conn, f)
	if err != nil {
		// The stream position is unknown after a failure.
		conn.Close()
		t.conn = nil
		return nil, err
	}
	return reply, nil
}

// caller must hold t.mu
func (t *WebSocket) connLocked(ctx context.Context) (*websocket.Conn, error) {
	if t.conn != nil {
		return t.conn, nil
	}
	conn, _, err := t.dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", t.url, err)
	}
	conn.SetReadLimit(t.limits.MaxBodySize)
	t.conn = conn
	t.logger.Debug("connected", "url", t.url)
	return conn, nil
}

func (t *WebSocket) exchange(ctx context.Context, conn *websocket.Conn, f *protocol.Frame) (*protocol.Frame, error) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		deadline = time.Time{}
	}
	_ = conn.SetWriteDeadline(deadline)
	_ = conn.SetReadDeadline(deadline)

	// Unblock a pending read when the caller gives up.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(time.Now())
	})
	defer stop()

	data, err := protocol.EncodeFrame(f)
	if err != nil {
		return nil, err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return nil, fmt.Errorf("transport: write %s: %w", f.Op, err)
	}

	for {
		mt, p, err := conn.ReadMessage()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("transport: read %s reply: %w", f.Op, ctxErr)
			}
			return nil, fmt.Errorf("transport: read %s reply: %w", f.Op, err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		reply, err := protocol.DecodeFrame(p)
		if err != nil {
			return nil, err
		}
		if reply.Seq != f.Seq {
			t.logger.Warn("dropping reply for another request", "seq", reply.Seq, "want", f.Seq)
			continue
		}
		return reply, nil
	}
}

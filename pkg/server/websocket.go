package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/guisync/pkg/protocol"
)

const wsWriteTimeout = 10 * time.Second

// handleWebSocket serves the framed transport: one reply per request frame,
// echoing its sequence number.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		if s.metrics != nil {
			s.metrics.RecordWebSocketError("upgrade")
		}
		return
	}
	if !s.track(conn) {
		closeConn(conn, websocket.CloseGoingAway, "server shutting down")
		return
	}
	defer s.untrack(conn)

	conn.SetReadLimit(s.config.MaxBodySize)
	logger := s.logger.With("remote", r.RemoteAddr)
	logger.Debug("websocket connected")

	// The request context ends when the handler returns; commands get a
	// context that lives as long as the connection.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket read ended", "error", err)
				if s.metrics != nil {
					s.metrics.RecordWebSocketError("read")
				}
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}

		reply := s.serveFrame(ctx, data)
		out, err := protocol.EncodeFrame(reply)
		if err != nil {
			logger.Error("encode frame failed", "error", err)
			return
		}
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, out); err != nil {
			logger.Debug("websocket write failed", "error", err)
			if s.metrics != nil {
				s.metrics.RecordWebSocketError("write")
			}
			return
		}
	}
}

// serveFrame answers one request frame.
func (s *Server) serveFrame(ctx context.Context, data []byte) *protocol.Frame {
	f, err := protocol.DecodeFrame(data)
	if err != nil {
		// The sequence number is unknown; 0 never matches a client request.
		return &protocol.Frame{Op: protocol.OpError, Error: err.Error()}
	}

	switch f.Op {
	case protocol.OpRefresh:
		updates, err := s.model.Updates(ctx)
		if err != nil {
			return &protocol.Frame{Op: protocol.OpError, Seq: f.Seq, Error: err.Error()}
		}
		if s.metrics != nil {
			s.metrics.RecordUpdates(len(updates))
		}
		if updates == nil {
			updates = []protocol.UpdateRecord{}
		}
		return &protocol.Frame{Op: protocol.OpUpdates, Seq: f.Seq, Updates: updates}

	case protocol.OpRPC:
		err := f.Command.Validate()
		if err == nil {
			err = s.model.Handle(ctx, *f.Command)
			if s.metrics != nil {
				s.metrics.RecordCommand(f.Command.Method, err)
			}
		}
		if err != nil {
			return &protocol.Frame{Op: protocol.OpError, Seq: f.Seq, Error: err.Error()}
		}
		return &protocol.Frame{Op: protocol.OpAck, Seq: f.Seq}

	default:
		return &protocol.Frame{
			Op:    protocol.OpError,
			Seq:   f.Seq,
			Error: fmt.Sprintf("%v: %s", protocol.ErrUnknownOp, f.Op),
		}
	}
}

func (s *Server) track(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	if s.metrics != nil {
		s.metrics.WebSocketOpened()
	}
	return true
}

func (s *Server) untrack(conn *websocket.Conn) {
	s.mu.Lock()
	_, ok := s.conns[conn]
	delete(s.conns, conn)
	s.mu.Unlock()
	if ok && s.metrics != nil {
		s.metrics.WebSocketClosed()
	}
	conn.Close()
}

func closeConn(conn *websocket.Conn, code int, reason string) {
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(time.Second),
	)
	_ = conn.Close()
}

package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vango-dev/guisync/pkg/protocol"
	"github.com/vango-dev/guisync/pkg/transport"
)

// logRequests logs each request at debug level, and failures at warn.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"remote", r.RemoteAddr,
		}
		if id := r.Header.Get(transport.RequestIDHeader); id != "" {
			attrs = append(attrs, "request_id", id)
		}
		if status >= 500 {
			s.logger.Warn("request failed", attrs...)
		} else {
			s.logger.Debug("request", attrs...)
		}
	})
}

// handleRefresh answers POST /refresh/ with the full update list.
// The request body is ignored.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, io.LimitReader(r.Body, s.limits.MaxBodySize))

	updates, err := s.model.Updates(r.Context())
	if err != nil {
		s.logger.Error("model updates failed", "error", err)
		http.Error(w, "model error", http.StatusInternalServerError)
		return
	}
	body, err := protocol.EncodeUpdates(updates)
	if err != nil {
		s.logger.Error("encode updates failed", "error", err)
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(body)

	if s.metrics != nil {
		s.metrics.RecordUpdates(len(updates))
	}
}

// handleRPC runs one command from a POST /rpc/ body.
// Success is 200 with an empty body.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	cmd, err := protocol.ReadCommand(r.Body, s.limits)
	if err == nil {
		err = cmd.Validate()
	}
	if err != nil {
		s.logger.Debug("rejected command", "error", err)
		http.Error(w, err.Error(), StatusCode(err))
		return
	}

	err = s.model.Handle(r.Context(), cmd)
	if s.metrics != nil {
		s.metrics.RecordCommand(cmd.Method, err)
	}
	if err != nil {
		code := StatusCode(err)
		if code >= 500 {
			s.logger.Error("command failed", "id", cmd.ID, "method", cmd.Method, "error", err)
		} else {
			s.logger.Debug("command rejected", "id", cmd.ID, "method", cmd.Method, "error", err)
		}
		http.Error(w, err.Error(), code)
		return
	}
	s.logger.Debug("command handled", "id", cmd.ID, "method", cmd.Method)
	w.WriteHeader(http.StatusOK)
}

// handlePage serves the default HTML page.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := RenderPage(r.Context(), w, s.model, s.config.Title, s.config.ScriptURL)
	if err != nil {
		s.logger.Error("render page failed", "error", err)
		if !errors.Is(err, r.Context().Err()) {
			http.Error(w, "render error", http.StatusInternalServerError)
		}
	}
}

// Package guisync provides the public API for guisync, a polling
// state-sync client and its reference server.
//
// A server holds the model. A client session polls it for the full list of
// element updates, writes them into a document (leaving the field being
// edited alone), and sends commands back. Every command is followed by a
// forced refresh.
//
// Server:
//
//	model := guisync.NewBindings()
//	model.Bind("count", func() string { return strconv.Itoa(count) })
//	model.Bind("inc", func() string { return "+1" }).OnCall(func(context.Context) error {
//	    count++
//	    return nil
//	})
//	srv := guisync.NewServer(model, nil)
//	log.Fatal(srv.Run())
//
// Client:
//
//	s, err := guisync.Connect(doc, "http://localhost:8080", nil)
//	if err != nil {
//	    return err
//	}
//	s.Start()
//	defer s.Close()
//	err = s.Call(ctx, "inc")
package guisync

import (
	"github.com/vango-dev/guisync/pkg/client"
	"github.com/vango-dev/guisync/pkg/dom"
	"github.com/vango-dev/guisync/pkg/protocol"
	"github.com/vango-dev/guisync/pkg/server"
	"github.com/vango-dev/guisync/pkg/transport"
)

// =============================================================================
// Client
// =============================================================================

// Session is one client session. See client.Session.
type Session = client.Session

// Config is the session configuration.
type Config = client.Config

// Option configures a Session.
type Option = client.Option

// Observer receives refresh and command events.
type Observer = client.Observer

// Cycle describes one completed refresh.
type Cycle = client.Cycle

// Document is the element tree a session writes into.
type Document = dom.Document

// Transport performs refresh and command requests.
type Transport = transport.Transport

// Session options.
var (
	WithLogger        = client.WithLogger
	WithObserver      = client.WithObserver
	WithContentPolicy = client.WithContentPolicy
)

// DefaultConfig returns the default session configuration.
func DefaultConfig() *Config {
	return client.DefaultConfig()
}

// NewSession creates a session over doc using t. It is not started.
func NewSession(doc Document, t Transport, cfg *Config, opts ...Option) *Session {
	return client.New(doc, t, cfg, opts...)
}

// Connect creates a session that talks HTTP to the server at baseURL with
// the default endpoint paths. It is not started.
func Connect(doc Document, baseURL string, cfg *Config, opts ...Option) (*Session, error) {
	t, err := transport.NewHTTP(baseURL)
	if err != nil {
		return nil, err
	}
	return client.New(doc, t, cfg, opts...), nil
}

// =============================================================================
// Server
// =============================================================================

// Server is the reference server.
type Server = server.Server

// ServerConfig is the server configuration.
type ServerConfig = server.Config

// Model is the server-held state.
type Model = server.Model

// Bindings is a Model built from per-element render functions.
type Bindings = server.Bindings

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() *ServerConfig {
	return server.DefaultConfig()
}

// NewServer creates a server for model. A nil config uses the defaults.
func NewServer(model Model, cfg *ServerConfig) *Server {
	return server.New(model, cfg)
}

// NewBindings creates an empty model.
func NewBindings() *Bindings {
	return server.NewBindings()
}

// =============================================================================
// Wire types
// =============================================================================

// UpdateRecord is one element's new content.
type UpdateRecord = protocol.UpdateRecord

// CommandRequest is one command sent to the server.
type CommandRequest = protocol.CommandRequest

package client

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/vango-dev/guisync/pkg/dom"
	"github.com/vango-dev/guisync/pkg/protocol"
	"github.com/vango-dev/guisync/pkg/transport"
)

// Session synchronizes one document with one server.
type Session struct {
	config     *Config
	doc        dom.Document
	transport  transport.Transport
	loop       *Loop
	focus      FocusTracker
	scheduler  *Scheduler
	reconciler *Reconciler
	rpc        *RPCClient
	display    *Display
	observer   Observer
	logger     *slog.Logger

	startOnce sync.Once
	closeOnce sync.Once
}

// Option configures a Session.
type Option func(*options)

type options struct {
	logger    *slog.Logger
	observers []Observer
	policy    *bluemonday.Policy
}

// WithLogger sets the session logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithObserver adds an observer. May be given more than once.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// WithContentPolicy sanitizes HTML written as element content.
// Values written into inputs are never sanitized.
func WithContentPolicy(p *bluemonday.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// New creates a session. Nothing runs until Start.
// A nil config uses DefaultConfig.
func New(doc dom.Document, t transport.Transport, cfg *Config, opts ...Option) *Session {
	cfg = cfg.withDefaults()

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	logger := o.logger.With("component", "client")

	var observer Observer = nopObserver{}
	switch len(o.observers) {
	case 0:
	case 1:
		observer = o.observers[0]
	default:
		observer = multiObserver(o.observers)
	}

	s := &Session{
		config:     cfg,
		doc:        doc,
		transport:  t,
		loop:       NewLoop(cfg.QueueSize, logger),
		reconciler: NewReconciler(doc, o.policy),
		rpc:        NewRPCClient(t, cfg.CommandTimeout),
		display:    NewDisplay(doc, cfg.ErrorBoxID, cfg.MessageBoxID, logger),
		observer:   observer,
		logger:     logger,
	}
	s.scheduler = newScheduler(t, s.loop, cfg, s.completeRefresh, logger)
	return s
}

// Start launches the loop and the refresh timer.
func (s *Session) Start() {
	s.startOnce.Do(func() {
		s.loop.Start()
		s.scheduler.start()
		s.logger.Debug("session started",
			"interval", s.config.PollInterval,
			"auto_refresh", s.config.AutoRefresh)
	})
}

// Run starts the session and blocks until ctx is done, then closes it.
func (s *Session) Run(ctx context.Context) error {
	s.Start()
	select {
	case <-ctx.Done():
	case <-s.loop.Done():
	}
	s.Close()
	return nil
}

// Close stops the timer and the loop and cancels in-flight refreshes.
// Completions that arrive afterwards are discarded. The transport is not
// closed.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.scheduler.shutdown()
		s.loop.Close()
		s.logger.Debug("session closed")
	})
}

// Wait blocks until the loop and every refresh goroutine have returned.
// Call it after Close, never from an observer.
func (s *Session) Wait() {
	s.loop.Wait()
	s.scheduler.wait()
}

// Config returns the effective configuration.
func (s *Session) Config() *Config {
	return s.config.Clone()
}

// Document returns the synchronized document.
func (s *Session) Document() dom.Document {
	return s.doc
}

// NotifyFocus records id as the element being edited.
func (s *Session) NotifyFocus(id string) error {
	return s.loop.Do(context.Background(), func() {
		s.focus.NotifyFocus(id)
	})
}

// NotifyBlur clears the focus state.
func (s *Session) NotifyBlur(id string) error {
	return s.loop.Do(context.Background(), func() {
		s.focus.NotifyBlur(id)
	})
}

// Focused returns the id of the element being edited, or "".
func (s *Session) Focused() (string, error) {
	var id string
	err := s.loop.Do(context.Background(), func() {
		id = s.focus.Focused()
	})
	return id, err
}

// SetAutoRefresh turns timer refreshes on or off.
func (s *Session) SetAutoRefresh(on bool) error {
	return s.loop.Do(context.Background(), func() {
		s.scheduler.SetEnabled(on)
	})
}

// AutoRefresh reports whether timer refreshes are on.
func (s *Session) AutoRefresh() (bool, error) {
	var on bool
	err := s.loop.Do(context.Background(), func() {
		on = s.scheduler.Enabled()
	})
	return on, err
}

// Tick performs what one timer period does: a refresh if auto-refresh is on.
func (s *Session) Tick() error {
	return s.loop.Do(context.Background(), s.scheduler.Tick)
}

// Refresh issues a refresh regardless of the auto-refresh toggle. It returns
// once the request is issued, not when it completes.
func (s *Session) Refresh() error {
	return s.loop.Do(context.Background(), s.scheduler.Refresh)
}

// Message shows msg in the message region.
func (s *Session) Message(msg string) error {
	return s.loop.Do(context.Background(), func() {
		s.display.Message(msg)
	})
}

// LastError returns the text currently in the error region.
func (s *Session) LastError() (string, error) {
	var text string
	err := s.loop.Do(context.Background(), func() {
		text = s.display.LastError()
	})
	return text, err
}

// RPC sends one command and then issues one refresh, whether or not the
// send succeeded. The loop is blocked while the command is in flight, so
// no refresh completion or timer tick is handled until it returns.
//
// A failed send, including a command that fails validation, shows
// "Disconnected: <reason>" in the error region and is returned. If ctx is
// done before the loop reaches the command, nothing is sent or refreshed.
func (s *Session) RPC(ctx context.Context, id, method, arg string) error {
	cmd := protocol.CommandRequest{ID: id, Method: method, Arg: arg}
	var sendErr error
	if err := s.loop.Do(ctx, func() {
		if sendErr = ctx.Err(); sendErr != nil {
			return
		}
		sendErr = s.send(ctx, cmd)
	}); err != nil {
		return err
	}
	return sendErr
}

// Call sends a "call" command for id.
func (s *Session) Call(ctx context.Context, id string) error {
	return s.RPC(ctx, id, protocol.MethodCall, "")
}

// SetText sends a "set" command for id carrying the current value of the
// element ValuePrefix+id.
//
// If that element is missing or holds no value, SetText returns a
// *TargetError and neither sends nor refreshes. As with RPC, nothing happens
// if ctx is done before the loop reaches the command.
func (s *Session) SetText(ctx context.Context, id string) error {
	if id == "" {
		return protocol.ErrEmptyCommandID
	}
	var opErr error
	if err := s.loop.Do(ctx, func() {
		if opErr = ctx.Err(); opErr != nil {
			return
		}
		value, err := s.valueOf(id)
		if err != nil {
			opErr = err
			return
		}
		opErr = s.send(ctx, protocol.NewSet(id, value))
	}); err != nil {
		return err
	}
	return opErr
}

// valueOf runs on the loop.
func (s *Session) valueOf(id string) (string, error) {
	source := s.config.ValuePrefix + id
	el, err := dom.Lookup(s.doc, source)
	if err != nil {
		return "", &TargetError{ID: source, Op: "settext", Err: err}
	}
	v, ok := dom.AsValue(el)
	if !ok {
		return "", &TargetError{ID: source, Op: "settext", Err: ErrNoValue}
	}
	return v.Value(), nil
}

// send runs on the loop and blocks it for the duration of the command.
func (s *Session) send(ctx context.Context, cmd protocol.CommandRequest) error {
	start := time.Now()
	err := s.rpc.Send(ctx, cmd)
	if err != nil {
		s.display.ShowError("Disconnected: " + err.Error())
		s.logger.Warn("command failed",
			"id", cmd.ID,
			"method", cmd.Method,
			"error", err)
	} else {
		s.logger.Debug("command sent", "id", cmd.ID, "method", cmd.Method)
	}
	s.observer.OnCommand(CommandResult{
		Command:  cmd,
		Err:      err,
		Duration: time.Since(start),
	})

	s.scheduler.Refresh()
	return err
}

// completeRefresh runs on the loop for every finished refresh request.
func (s *Session) completeRefresh(res refreshResult) {
	c := Cycle{
		Seq:    res.seq,
		Forced: res.forced,
		Stale:  res.stale,
	}

	switch {
	case res.stale:
		s.logger.Debug("dropping stale refresh", "seq", res.seq)

	case res.err != nil:
		c.Err = res.err
		if transport.IsMalformed(res.err) {
			s.display.ShowError("Malformed response: " + res.err.Error())
		} else {
			s.display.ShowError("Disconnected")
		}
		s.logger.Debug("refresh failed", "seq", res.seq, "error", res.err)

	default:
		s.display.Clear()
		c.Updates = len(res.updates)
		c.Applied, c.Err = s.reconciler.Apply(res.updates, s.focus.Focused())
		if c.Err != nil {
			var te *TargetError
			if errors.As(c.Err, &te) {
				s.logger.Warn("update target missing",
					"id", te.ID,
					"applied", c.Applied,
					"updates", c.Updates)
			} else {
				s.logger.Warn("apply failed", "error", c.Err)
			}
		}
	}

	c.Duration = time.Since(res.started)
	s.observer.OnRefresh(c)
}

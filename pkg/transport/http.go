package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/guisync/pkg/protocol"
)

// Default endpoint paths.
const (
	DefaultRefreshPath = "/refresh/"
	DefaultRPCPath     = "/rpc/"
)

const tracerName = "github.com/vango-dev/guisync/pkg/transport"

// HTTP is the default transport: one POST per request.
type HTTP struct {
	refreshURL string
	rpcURL     string
	client     *http.Client
	limits     *protocol.Limits
	tracer     trace.Tracer
	logger     *slog.Logger
	closed     atomic.Bool
}

// HTTPOption configures an HTTP transport.
type HTTPOption func(*httpConfig)

type httpConfig struct {
	client      *http.Client
	refreshPath string
	rpcPath     string
	limits      *protocol.Limits
	tracer      trace.Tracer
	logger      *slog.Logger
}

// WithHTTPClient sets the underlying client. Default: a client with no
// timeout; per-request deadlines come from the caller's context.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.client = c
	}
}

// WithPaths overrides the refresh and rpc endpoint paths.
func WithPaths(refresh, rpc string) HTTPOption {
	return func(cfg *httpConfig) {
		if refresh != "" {
			cfg.refreshPath = refresh
		}
		if rpc != "" {
			cfg.rpcPath = rpc
		}
	}
}

// WithLimits sets response decoding limits.
func WithLimits(l *protocol.Limits) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.limits = l
	}
}

// WithTracer sets the tracer. Default: the global provider's tracer.
func WithTracer(t trace.Tracer) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.tracer = t
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) HTTPOption {
	return func(cfg *httpConfig) {
		cfg.logger = l
	}
}

// NewHTTP creates a transport for the server at baseURL (e.g.
// "http://localhost:8080").
func NewHTTP(baseURL string, opts ...HTTPOption) (*HTTP, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("%w %q", ErrUnsupportedScheme, base.Scheme)
	}

	cfg := httpConfig{
		client:      &http.Client{},
		refreshPath: DefaultRefreshPath,
		rpcPath:     DefaultRPCPath,
		limits:      protocol.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.tracer == nil {
		cfg.tracer = otel.Tracer(tracerName)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	return &HTTP{
		refreshURL: base.JoinPath(cfg.refreshPath).String(),
		rpcURL:     base.JoinPath(cfg.rpcPath).String(),
		client:     cfg.client,
		limits:     cfg.limits,
		tracer:     cfg.tracer,
		logger:     cfg.logger.With("component", "transport", "transport", "http"),
	}, nil
}

// Refresh implements Transport. Only 200 OK is a success.
func (t *HTTP) Refresh(ctx context.Context) (updates []protocol.UpdateRecord, err error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}
	ctx, span := t.tracer.Start(ctx, "guisync.refresh", trace.WithSpanKind(trace.SpanKindClient))
	defer func() { endSpan(span, err) }()

	resp, err := t.post(ctx, t.refreshURL, nil)
	if err != nil {
		return nil, err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Op: "refresh", Code: resp.StatusCode, Status: resp.Status}
	}

	updates, err = protocol.ReadUpdates(resp.Body, t.limits)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("guisync.updates", len(updates)))
	return updates, nil
}

// Command implements Transport. Any 2xx status is a success; the body is
// ignored.
func (t *HTTP) Command(ctx context.Context, cmd protocol.CommandRequest) (err error) {
	if t.closed.Load() {
		return ErrClosed
	}
	ctx, span := t.tracer.Start(ctx, "guisync.rpc",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("guisync.element", cmd.ID),
			attribute.String("guisync.method", cmd.Method),
		))
	defer func() { endSpan(span, err) }()

	body, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	resp, err := t.post(ctx, t.rpcURL, body)
	if err != nil {
		return err
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{Op: "rpc", Code: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

// Close implements Transport.
func (t *HTTP) Close() error {
	t.closed.Store(true)
	t.client.CloseIdleConnections()
	return nil
}

func (t *HTTP) post(ctx context.Context, target string, body []byte) (*http.Response, error) {
	var r io.Reader = http.NoBody
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, r)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	reqID := uuid.NewString()
	req.Header.Set(RequestIDHeader, reqID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Debug("request failed", "url", target, "request_id", reqID, "error", err)
		return nil, fmt.Errorf("transport: post %s: %w", target, err)
	}
	return resp, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64<<10))
	_ = body.Close()
}

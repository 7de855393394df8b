package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/microcosm-cc/bluemonday"

	"github.com/vango-dev/guisync/internal/config"
	"github.com/vango-dev/guisync/internal/errors"
	"github.com/vango-dev/guisync/pkg/client"
	"github.com/vango-dev/guisync/pkg/dom"
	"github.com/vango-dev/guisync/pkg/transport"
)

// remote is a session against a server, over a document parsed from the
// server's page.
type remote struct {
	doc       *dom.Memory
	transport transport.Transport
	session   *client.Session
}

// Close stops the session and releases the transport.
func (r *remote) Close() {
	r.session.Close()
	r.session.Wait()
	r.transport.Close()
}

// baseURL picks the server URL from args or the config file.
func (a *app) baseURL(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return args[0], nil
	}
	if a.cfg.Client.URL != "" {
		return a.cfg.Client.URL, nil
	}
	return "", errors.New("E500").
		WithDetail("No server URL given.").
		WithSuggestion("Pass the URL as an argument or set client.url in the config file.")
}

// connect fetches the server page, builds the transport the config names
// and creates a session over the page's elements. The session is not
// started.
func (a *app) connect(ctx context.Context, baseURL string, cfg *client.Config, opts ...client.Option) (*remote, error) {
	doc, err := fetchPage(ctx, baseURL)
	if err != nil {
		return nil, err
	}
	t, err := a.newTransport(baseURL)
	if err != nil {
		return nil, err
	}

	opts = append([]client.Option{client.WithLogger(a.logger)}, opts...)
	if a.cfg.Client.Sanitize {
		opts = append(opts, client.WithContentPolicy(bluemonday.UGCPolicy()))
	}
	return &remote{
		doc:       doc,
		transport: t,
		session:   client.New(doc, t, cfg, opts...),
	}, nil
}

func (a *app) newTransport(baseURL string) (transport.Transport, error) {
	paths := a.cfg.Server
	switch a.cfg.Client.Transport {
	case config.TransportWebSocket:
		return transport.NewWebSocket(baseURL, paths.WebSocketPath,
			transport.WithWebSocketLogger(a.logger))
	default:
		return transport.NewHTTP(baseURL,
			transport.WithPaths(paths.RefreshPath, paths.RPCPath),
			transport.WithLogger(a.logger))
	}
}

// fetchPage loads the server page and parses its elements.
func fetchPage(ctx context.Context, baseURL string) (*dom.Memory, error) {
	pageURL, err := url.JoinPath(baseURL, "/")
	if err != nil {
		return nil, errors.New("E202").Wrap(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, errors.New("E202").Wrap(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, errors.New("E200").Wrap(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &transport.StatusError{Op: "page", Code: resp.StatusCode, Status: resp.Status}
	}
	doc, err := dom.ParseHTML(resp.Body)
	if err != nil {
		return nil, errors.New("E402").WithDetail(fmt.Sprintf("GET %s", pageURL)).Wrap(err)
	}
	return doc, nil
}

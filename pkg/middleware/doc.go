// Package middleware provides observability for guisync servers and clients.
//
// # OpenTelemetry
//
// OpenTelemetry returns HTTP middleware that starts a server span per
// request, continuing the trace the client propagated in its headers:
//
//	r := chi.NewRouter()
//	r.Use(middleware.OpenTelemetry(
//	    middleware.WithTracerName("my-app"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/metrics"
//	    }),
//	))
//
// # Prometheus
//
// NewMetrics registers the server collectors; its Handler method is HTTP
// middleware labelling requests by chi route pattern:
//   - guisync_http_requests_total
//   - guisync_http_request_duration_seconds
//   - guisync_updates_served_total
//   - guisync_commands_total
//   - guisync_websocket_connections
//
// NewClientMetrics returns a client.Observer recording refresh cycles and
// commands under the guisync_client_ prefix:
//
//	m := middleware.NewClientMetrics()
//	s := client.New(doc, tr, cfg, client.WithObserver(m))
//
// Expose either with promhttp:
//
//	http.Handle("/metrics", promhttp.Handler())
package middleware

package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vango-dev/guisync/pkg/client"
	"github.com/vango-dev/guisync/pkg/protocol"
)

func metricCounterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("counter Write() error: %v", err)
	}
	if m.Counter == nil {
		t.Fatal("expected counter metric to have Counter field")
	}
	return m.GetCounter().GetValue()
}

func metricGaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("gauge Write() error: %v", err)
	}
	if m.Gauge == nil {
		t.Fatal("expected gauge metric to have Gauge field")
	}
	return m.GetGauge().GetValue()
}

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func TestPrometheusMiddleware_RecordsRoutesAndStatus(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Post("/refresh/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})
	r.Post("/rpc/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown element", http.StatusNotFound)
	})

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/refresh/", nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/rpc/", nil))

	if got := metricCounterValue(t, m.requestsTotal.WithLabelValues("/refresh/", "POST", "200")); got != 2 {
		t.Errorf("refresh 200 count = %v, want 2", got)
	}
	if got := metricCounterValue(t, m.requestsTotal.WithLabelValues("/rpc/", "POST", "404")); got != 1 {
		t.Errorf("rpc 404 count = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.requestErrors.WithLabelValues("/rpc/", "not_found")); got != 1 {
		t.Errorf("rpc not_found errors = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.requestDuration.WithLabelValues("/refresh/")); got != 2 {
		t.Errorf("refresh duration samples = %d, want 2", got)
	}
}

func TestPrometheusMiddleware_Unmatched(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg))

	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x/1", nil))

	if got := metricCounterValue(t, m.requestsTotal.WithLabelValues("unmatched", "GET", "418")); got != 1 {
		t.Errorf("unmatched count = %v, want 1", got)
	}
}

func TestMetricsRecorders(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(WithRegistry(reg), WithNamespace("test"))

	m.RecordUpdates(3)
	m.RecordUpdates(2)
	m.RecordCommand("call", nil)
	m.RecordCommand("set", errors.New("unknown element \"x\""))
	m.WebSocketOpened()
	m.WebSocketOpened()
	m.WebSocketClosed()
	m.RecordWebSocketError("read")

	if got := metricCounterValue(t, m.updatesServed); got != 5 {
		t.Errorf("updates served = %v, want 5", got)
	}
	if got := metricCounterValue(t, m.commandsTotal.WithLabelValues("call", "ok")); got != 1 {
		t.Errorf("call ok = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.commandsTotal.WithLabelValues("set", "not_found")); got != 1 {
		t.Errorf("set not_found = %v, want 1", got)
	}
	if got := metricGaugeValue(t, m.wsConnections); got != 1 {
		t.Errorf("ws connections = %v, want 1", got)
	}
	if got := metricCounterValue(t, m.wsErrors.WithLabelValues("read")); got != 1 {
		t.Errorf("ws read errors = %v, want 1", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "test_updates_served_total" {
			found = true
		}
	}
	if !found {
		t.Error("expected test_updates_served_total to be registered")
	}
}

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{errors.New("request timeout"), "timeout"},
		{errors.New("server: unknown element \"a\""), "not_found"},
		{errors.New("server: unknown method \"x\""), "validation"},
		{errors.New("websocket: close 1006"), "websocket"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		if got := categorizeError(tt.err); got != tt.want {
			t.Errorf("categorizeError(%q) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestClientMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewClientMetrics(WithRegistry(reg))

	m.OnRefresh(client.Cycle{Seq: 1, Updates: 4, Applied: 4, Duration: time.Millisecond})
	m.OnRefresh(client.Cycle{Seq: 2, Forced: true, Err: errors.New("dial")})
	m.OnRefresh(client.Cycle{Seq: 3, Err: &protocol.MalformedError{Where: "x", Err: errors.New("y")}})
	m.OnRefresh(client.Cycle{Seq: 4, Stale: true})
	m.OnCommand(client.CommandResult{Command: protocol.NewCall("btn"), Duration: time.Millisecond})

	tests := []struct {
		trigger, result string
	}{
		{"timer", "ok"},
		{"forced", "disconnected"},
		{"timer", "malformed"},
		{"timer", "stale"},
	}
	for _, tt := range tests {
		if got := metricCounterValue(t, m.refreshTotal.WithLabelValues(tt.trigger, tt.result)); got != 1 {
			t.Errorf("refreshes{%s,%s} = %v, want 1", tt.trigger, tt.result, got)
		}
	}
	if got := metricCounterValue(t, m.updatesApplied); got != 4 {
		t.Errorf("updates applied = %v, want 4", got)
	}
	if got := metricCounterValue(t, m.commandsTotal.WithLabelValues("call", "ok")); got != 1 {
		t.Errorf("commands{call,ok} = %v, want 1", got)
	}
	if got := metricHistogramCount(t, m.refreshDuration); got != 4 {
		t.Errorf("refresh duration samples = %d, want 4", got)
	}
}

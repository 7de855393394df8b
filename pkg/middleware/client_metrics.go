package middleware

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/guisync/pkg/client"
	"github.com/vango-dev/guisync/pkg/transport"
)

// ClientMetrics is a client.Observer that records refresh cycles and
// commands.
//
//	m := middleware.NewClientMetrics(middleware.WithRegistry(reg))
//	s := client.New(doc, tr, cfg, client.WithObserver(m))
type ClientMetrics struct {
	refreshTotal    *prometheus.CounterVec
	refreshDuration prometheus.Histogram
	updatesApplied  prometheus.Counter
	commandsTotal   *prometheus.CounterVec
	commandDuration prometheus.Histogram
}

var _ client.Observer = (*ClientMetrics)(nil)

// NewClientMetrics creates and registers the client collectors under the
// "client" subsystem unless another is configured.
func NewClientMetrics(opts ...MetricsOption) *ClientMetrics {
	config := newMetricsConfig(append([]MetricsOption{WithSubsystem("client")}, opts...))
	factory := promauto.With(config.Registry)

	return &ClientMetrics{
		refreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "refreshes_total",
			Help:        "Completed refresh cycles by trigger and result",
			ConstLabels: config.ConstLabels,
		}, []string{"trigger", "result"}),

		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "refresh_duration_seconds",
			Help:        "Refresh cycle duration from request to reconciliation",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		updatesApplied: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "updates_applied_total",
			Help:        "Update records written into the document",
			ConstLabels: config.ConstLabels,
		}),

		commandsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "commands_total",
			Help:        "Commands sent by method and result",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "result"}),

		commandDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "command_duration_seconds",
			Help:        "Command send duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),
	}
}

// OnRefresh implements client.Observer.
func (m *ClientMetrics) OnRefresh(c client.Cycle) {
	trigger := "timer"
	if c.Forced {
		trigger = "forced"
	}
	m.refreshTotal.WithLabelValues(trigger, refreshResult(c)).Inc()
	m.refreshDuration.Observe(c.Duration.Seconds())
	m.updatesApplied.Add(float64(c.Applied))
}

// OnCommand implements client.Observer.
func (m *ClientMetrics) OnCommand(r client.CommandResult) {
	result := "ok"
	if r.Err != nil {
		result = categorizeError(r.Err)
	}
	m.commandsTotal.WithLabelValues(r.Command.Method, result).Inc()
	m.commandDuration.Observe(r.Duration.Seconds())
}

func refreshResult(c client.Cycle) string {
	switch {
	case c.Stale:
		return "stale"
	case c.Err == nil:
		return "ok"
	case transport.IsMalformed(c.Err):
		return "malformed"
	case c.Updates > 0:
		// The response arrived but a target was missing.
		return "target_missing"
	default:
		return "disconnected"
	}
}

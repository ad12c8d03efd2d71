// Package metrics records request and command metrics with Prometheus. A CLI
// process is short-lived, so the registry is written to a node_exporter
// textfile when the command finishes instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/felixgeelhaar/oneway/internal/errors"
)

// Transport labels.
const (
	TransportGraphQL = "graphql"
	TransportREST    = "rest"
)

// Metrics holds all Prometheus metrics for oneway. A nil *Metrics records
// nothing.
type Metrics struct {
	// Backend request metrics
	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	TokenRotations prometheus.Counter

	// Members cache metrics
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter

	// Command execution metrics
	CommandExecutions *prometheus.CounterVec

	// Error metrics (by error code from structured errors)
	Errors *prometheus.CounterVec
}

// NewMetrics creates a new Metrics instance with all metrics registered
func NewMetrics(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oneway_requests_total",
				Help: "Total number of backend requests",
			},
			[]string{"transport", "operation", "success"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "oneway_request_duration_seconds",
				Help:    "Backend request duration in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
			},
			[]string{"transport", "operation"},
		),
		TokenRotations: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "oneway_token_rotations_total",
				Help: "Total number of session tokens replaced from a response header",
			},
		),
		CacheHits: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "oneway_members_cache_hits_total",
				Help: "Total number of member lists served from cache",
			},
		),
		CacheMisses: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "oneway_members_cache_misses_total",
				Help: "Total number of member lists fetched from the backend",
			},
		),
		CommandExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oneway_command_executions_total",
				Help: "Total number of command executions",
			},
			[]string{"command", "success"},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "oneway_errors_total",
				Help: "Total number of coded errors",
			},
			[]string{"error_code"},
		),
	}
}

// ObserveRequest records one backend call.
func (m *Metrics) ObserveRequest(transport, operation string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.Requests.WithLabelValues(transport, operation, success(err)).Inc()
	m.RequestDuration.WithLabelValues(transport, operation).Observe(d.Seconds())
	m.observeError(err)
}

// ObserveCommand records one command execution.
func (m *Metrics) ObserveCommand(command string, err error) {
	if m == nil {
		return
	}
	m.CommandExecutions.WithLabelValues(command, success(err)).Inc()
	m.observeError(err)
}

// ObserveCache records a members cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheHits.Inc()
	} else {
		m.CacheMisses.Inc()
	}
}

// ObserveRotation records a stored token replaced by the refresh policy.
func (m *Metrics) ObserveRotation() {
	if m == nil {
		return
	}
	m.TokenRotations.Inc()
}

func (m *Metrics) observeError(err error) {
	if code := errors.CodeOf(err); code != "" {
		m.Errors.WithLabelValues(string(code)).Inc()
	}
}

func success(err error) string {
	if err != nil {
		return "false"
	}
	return "true"
}

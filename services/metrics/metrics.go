package metricsvc

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/trezcool/academia/core/policy"
)

// Metrics holds every Prometheus collector of the platform.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	PolicyDecisionsTotal *prometheus.CounterVec
	BootstrapsTotal      *prometheus.CounterVec
}

var _ policy.Recorder = (*Metrics)(nil)

// NewMetrics creates the collectors and registers them, with the Go and process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),

		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "academia_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "academia_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		PolicyDecisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "academia_policy_decisions_total",
				Help: "Total number of row-level policy decisions",
			},
			[]string{"entity", "operation", "outcome"},
		),
		BootstrapsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "academia_account_bootstraps_total",
				Help: "Total number of account bootstraps",
			},
			[]string{"status"},
		),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.PolicyDecisionsTotal,
		m.BootstrapsTotal,
	)
	return m
}

func (m *Metrics) PolicyDecision(entity, operation string, allowed bool) {
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.PolicyDecisionsTotal.WithLabelValues(entity, operation, outcome).Inc()
}

func (m *Metrics) Bootstrap(ok bool) {
	status := "failed"
	if ok {
		status = "succeeded"
	}
	m.BootstrapsTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) HTTPRequest(method, path string, status int, seconds float64) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(seconds)
}

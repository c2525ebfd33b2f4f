package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ClientMetrics instruments the outbound request layer, the session
// refresh flow and the job tracking loop. All series live in a dedicated
// registry so the CLI can expose them without pulling in default
// collectors.
type ClientMetrics struct {
	registry *prometheus.Registry

	requestTotal       *prometheus.CounterVec
	requestDuration    *prometheus.HistogramVec
	refreshTotal       *prometheus.CounterVec
	pollTotal          *prometheus.CounterVec
	jobsTracked        prometheus.Gauge
	notificationsTotal *prometheus.CounterVec
}

func NewClientMetrics(service string) *ClientMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docushield",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total authenticated requests by operation and outcome.",
		},
		[]string{"service", "operation", "outcome"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docushield",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "Authenticated request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "operation"},
	)
	refreshTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docushield",
			Subsystem: "session",
			Name:      "token_refresh_total",
			Help:      "Total token refresh attempts by outcome.",
		},
		[]string{"service", "outcome"},
	)
	pollTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docushield",
			Subsystem: "jobs",
			Name:      "status_polls_total",
			Help:      "Total job status polls by outcome.",
		},
		[]string{"service", "outcome"},
	)
	jobsTracked := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docushield",
			Subsystem: "jobs",
			Name:      "tracked",
			Help:      "Number of jobs currently tracked by the polling coordinator.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	notificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docushield",
			Subsystem: "notify",
			Name:      "notifications_total",
			Help:      "Total notifications raised by kind.",
		},
		[]string{"service", "kind"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		refreshTotal,
		pollTotal,
		jobsTracked,
		notificationsTotal,
	)

	return &ClientMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		refreshTotal:       refreshTotal,
		pollTotal:          pollTotal,
		jobsTracked:        jobsTracked,
		notificationsTotal: notificationsTotal,
	}
}

func (m *ClientMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ClientMetrics) RecordRequest(service, operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(service, operation, outcome).Inc()
	m.requestDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

func (m *ClientMetrics) RecordRefresh(service, outcome string) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(service, outcome).Inc()
}

func (m *ClientMetrics) RecordPoll(service, outcome string) {
	if m == nil {
		return
	}
	m.pollTotal.WithLabelValues(service, outcome).Inc()
}

func (m *ClientMetrics) SetTrackedJobs(n int) {
	if m == nil {
		return
	}
	m.jobsTracked.Set(float64(n))
}

func (m *ClientMetrics) RecordNotification(service, kind string) {
	if m == nil {
		return
	}
	m.notificationsTotal.WithLabelValues(service, kind).Inc()
}

// Package metrics provides Prometheus metrics collection for the API server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the service registers.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	ErrorsTotal *prometheus.CounterVec

	GraphQueriesTotal  *prometheus.CounterVec
	GraphQueryDuration *prometheus.HistogramVec

	EventsAppendedTotal *prometheus.CounterVec
	SSEConnectionsOpen  prometheus.Gauge
	TaskClaimsTotal     *prometheus.CounterVec
	StatusChangesTotal  *prometheus.CounterVec
	SeatSyncTotal       *prometheus.CounterVec
	WebhookEventsTotal  *prometheus.CounterVec

	ServiceUptime prometheus.Gauge
	ServiceInfo   *prometheus.GaugeVec

	startedAt time.Time
	gatherer  prometheus.Gatherer
}

// New registers and returns a Metrics instance against the default registerer.
func New(serviceName string) *Metrics {
	return NewWithRegistry(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegistry registers collectors against a specific registerer, useful for tests.
func NewWithRegistry(serviceName string, reg prometheus.Registerer) *Metrics {
	gatherer, _ := reg.(prometheus.Gatherer)
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	m := &Metrics{
		gatherer: gatherer,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed.",
		}, []string{"service", "method", "path", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"service", "method", "path"}),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "HTTP requests currently being served.",
		}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total errors by type and operation.",
		}, []string{"service", "code", "operation"}),
		GraphQueriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "graph_queries_total",
			Help: "Total graph session queries executed.",
		}, []string{"service", "operation", "status"}),
		GraphQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "graph_query_duration_seconds",
			Help:    "Graph session query duration in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service", "operation"}),
		EventsAppendedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_appended_total",
			Help: "Total Event nodes appended to the log.",
		}, []string{"service", "category"}),
		SSEConnectionsOpen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sse_connections_open",
			Help: "Currently open server-sent-event streams.",
		}),
		TaskClaimsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "task_claims_total",
			Help: "Total task claim attempts by result.",
		}, []string{"service", "result"}),
		StatusChangesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "status_changes_total",
			Help: "Total entity status transitions by entity type.",
		}, []string{"service", "entity_type"}),
		SeatSyncTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "seat_sync_total",
			Help: "Total seat-sync reconciliations against the payment provider.",
		}, []string{"service", "result"}),
		WebhookEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_events_total",
			Help: "Total payment-provider webhook events processed.",
		}, []string{"service", "type", "result"}),
		ServiceUptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "service_uptime_seconds",
			Help: "Seconds since the service started.",
		}),
		ServiceInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "service_info",
			Help: "Static service build info.",
		}, []string{"service", "version"}),
		startedAt: time.Now(),
	}

	collectors := []prometheus.Collector{
		m.RequestsTotal, m.RequestDuration, m.RequestsInFlight,
		m.ErrorsTotal, m.GraphQueriesTotal, m.GraphQueryDuration,
		m.EventsAppendedTotal, m.SSEConnectionsOpen, m.TaskClaimsTotal,
		m.StatusChangesTotal, m.SeatSyncTotal, m.WebhookEventsTotal,
		m.ServiceUptime, m.ServiceInfo,
	}
	for _, c := range collectors {
		_ = reg.Register(c)
	}
	m.ServiceInfo.WithLabelValues(serviceName, "dev").Set(1)
	return m
}

// ObserveUptime updates the uptime gauge; call periodically from a background tick.
func (m *Metrics) ObserveUptime() {
	m.ServiceUptime.Set(time.Since(m.startedAt).Seconds())
}

// Handler serves the Prometheus exposition format for this instance's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

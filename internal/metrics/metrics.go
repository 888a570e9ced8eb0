package metrics

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/garyjia/expense-desk/internal/domain/event"
)

// Metrics owns the service's Prometheus collectors and the registry they are exposed from
type Metrics struct {
	registry *prometheus.Registry

	apiRequestsTotal   *prometheus.CounterVec
	apiRequestDuration *prometheus.HistogramVec
	transitionsTotal   *prometheus.CounterVec
	analysesTotal      *prometheus.CounterVec
	analysisDuration   prometheus.Histogram

	databaseConnectionsActive prometheus.Gauge
	databaseConnectionsIdle   prometheus.Gauge
	databaseConnectionsMax    prometheus.Gauge
}

// New creates and registers all collectors on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		apiRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "api_requests_total",
				Help: "Total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "api_request_duration_seconds",
				Help:    "API request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "expense_transitions_total",
				Help: "Total number of expense lifecycle events",
			},
			[]string{"action"},
		),
		analysesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "receipt_analyses_total",
				Help: "Total number of receipt analyses by outcome",
			},
			[]string{"outcome"},
		),
		analysisDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "receipt_analysis_duration_seconds",
				Help:    "Vision model latency in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
			},
		),
		databaseConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "database_connections_active",
			Help: "Number of active database connections",
		}),
		databaseConnectionsIdle: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "database_connections_idle",
			Help: "Number of idle database connections",
		}),
		databaseConnectionsMax: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "database_connections_max",
			Help: "Maximum number of database connections",
		}),
	}

	m.registry.MustRegister(
		m.apiRequestsTotal,
		m.apiRequestDuration,
		m.transitionsTotal,
		m.analysesTotal,
		m.analysisDuration,
		m.databaseConnectionsActive,
		m.databaseConnectionsIdle,
		m.databaseConnectionsMax,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus scrape handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordAPIRequest records one served HTTP request. path should be the route template.
func (m *Metrics) RecordAPIRequest(method, path string, status int, duration time.Duration) {
	statusText := http.StatusText(status)
	if statusText == "" {
		statusText = fmt.Sprintf("%d", status)
	}
	m.apiRequestsTotal.WithLabelValues(method, path, statusText).Inc()
	m.apiRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordTransition counts one lifecycle action such as "submitted" or "approved"
func (m *Metrics) RecordTransition(action string) {
	m.transitionsTotal.WithLabelValues(action).Inc()
}

// RecordAnalysis counts one receipt analysis and, when it reached the model, its latency
func (m *Metrics) RecordAnalysis(outcome string, duration time.Duration) {
	m.analysesTotal.WithLabelValues(outcome).Inc()
	if duration > 0 {
		m.analysisDuration.Observe(duration.Seconds())
	}
}

// HandleEvent is a dispatcher handler counting expense events by action
func (m *Metrics) HandleEvent(ctx context.Context, evt *event.Event) error {
	m.RecordTransition(strings.TrimPrefix(evt.Type.String(), "expense."))
	return nil
}

// UpdateDatabaseConnections copies connection pool statistics into gauges
func (m *Metrics) UpdateDatabaseConnections(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("database connection is nil")
	}

	stats := db.Stats()
	m.databaseConnectionsActive.Set(float64(stats.InUse))
	m.databaseConnectionsIdle.Set(float64(stats.Idle))
	m.databaseConnectionsMax.Set(float64(stats.MaxOpenConnections))
	return nil
}

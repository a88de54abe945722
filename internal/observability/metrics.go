package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	errors          *prometheus.CounterVec

	overdueBySector *prometheus.GaugeVec
	ticketsByBand   *prometheus.GaugeVec
	breaches        *prometheus.CounterVec
	warnings        *prometheus.CounterVec
	monitorRuns     *prometheus.CounterVec
	monitorDuration prometheus.Histogram
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		errors: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_errors_total",
			Help: "HTTP errors by domain error code",
		}, []string{"method", "route", "code"}),
		overdueBySector: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "helpdesk_sla_overdue_tickets",
			Help: "Active tickets past their SLA deadline",
		}, []string{"sector_id"}),
		ticketsByBand: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "helpdesk_sla_active_tickets",
			Help: "Active tickets by urgency band",
		}, []string{"band"}),
		breaches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_sla_breaches_total",
			Help: "Tickets that crossed their SLA deadline",
		}, []string{"sector_id", "level"}),
		warnings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_sla_warnings_total",
			Help: "Tickets that entered the critical band",
		}, []string{"level"}),
		monitorRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "helpdesk_sla_monitor_runs_total",
			Help: "SLA monitor passes by outcome",
		}, []string{"outcome"}),
		monitorDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "helpdesk_sla_monitor_duration_seconds",
			Help:    "Duration of one SLA monitor pass",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RegisterPool exposes pgx pool statistics.
func (m *Metrics) RegisterPool(pool *pgxpool.Pool) {
	if m == nil || pool == nil {
		return
	}
	gauge := func(name, help string, fn func(*pgxpool.Stat) float64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: name, Help: help}, func() float64 {
			return fn(pool.Stat())
		})
	}
	m.registry.MustRegister(
		gauge("pgxpool_acquired_conns", "Number of currently acquired connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.AcquiredConns()) }),
		gauge("pgxpool_idle_conns", "Number of idle connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.IdleConns()) }),
		gauge("pgxpool_total_conns", "Total number of connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.TotalConns()) }),
		gauge("pgxpool_max_conns", "Maximum number of connections in the pool",
			func(s *pgxpool.Stat) float64 { return float64(s.MaxConns()) }),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(method, route, code).Inc()
}

// RecordBreach counts a ticket crossing its deadline.
func (m *Metrics) RecordBreach(sectorID, level string) {
	if m == nil {
		return
	}
	m.breaches.WithLabelValues(sectorID, level).Inc()
}

// RecordWarning counts a ticket entering the critical band.
func (m *Metrics) RecordWarning(level string) {
	if m == nil {
		return
	}
	m.warnings.WithLabelValues(level).Inc()
}

// RecordMonitorRun records one SLA monitor pass.
func (m *Metrics) RecordMonitorRun(err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.monitorRuns.WithLabelValues(outcome).Inc()
	m.monitorDuration.Observe(duration.Seconds())
}

// SetSLAGauges replaces the SLA gauges with a fresh snapshot.
func (m *Metrics) SetSLAGauges(overdueBySector map[string]int, byBand map[string]int) {
	if m == nil {
		return
	}
	m.overdueBySector.Reset()
	for sector, n := range overdueBySector {
		m.overdueBySector.WithLabelValues(sector).Set(float64(n))
	}
	m.ticketsByBand.Reset()
	for band, n := range byBand {
		m.ticketsByBand.WithLabelValues(band).Set(float64(n))
	}
}

// Package metrics exposes Prometheus metrics for analyses, correlation,
// family alerts and the HTTP surface.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dhankavach/internal/domain/services/correlation"
)

const namespace = "dhankavach"

// StatsFunc reports the correlation engine's running totals
type StatsFunc func() correlation.Stats

// Collector holds every DhanKavach metric
type Collector struct {
	AnalysesTotal       *prometheus.CounterVec   // by agent, verdict
	ConnectedTotal      prometheus.Counter       // analyses with a connected match
	AnalysisDuration    *prometheus.HistogramVec // by agent
	FlaggedTotal        *prometheus.CounterVec   // by entity kind
	PersistFailures     prometheus.Counter
	NotificationsTotal  *prometheus.CounterVec // by outcome
	ApprovalsTotal      *prometheus.CounterVec // by status
	HTTPRequestsTotal   *prometheus.CounterVec // by method, route, code
	HTTPRequestDuration *prometheus.HistogramVec

	correlation []prometheus.Collector
}

// NewCollector creates the metrics and registers them on registry. stats may
// be nil when no correlation engine is wired.
func NewCollector(registry prometheus.Registerer, stats StatsFunc) (*Collector, error) {
	c := &Collector{}
	c.initMetrics(stats)
	if err := registry.Register(c); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return c, nil
}

func (c *Collector) initMetrics(stats StatsFunc) {
	c.AnalysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analyses by agent and verdict",
		},
		[]string{"agent", "verdict"},
	)
	c.ConnectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connected_matches_total",
		Help:      "Analyses that matched an identifier already flagged for the household",
	})
	c.AnalysisDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent in one analysis, including correlation and persistence",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"agent"},
	)
	c.FlaggedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entities_flagged_total",
			Help:      "Identifiers written to a risk profile by kind",
		},
		[]string{"kind"},
	)
	c.PersistFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "persist_failures_total",
		Help:      "Flagged identifiers that could not be saved",
	})
	c.NotificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Family alert deliveries by outcome",
		},
		[]string{"outcome"},
	)
	c.ApprovalsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "approvals_total",
			Help:      "Approval requests by resulting status",
		},
		[]string{"status"},
	)
	c.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code",
		},
		[]string{"method", "route", "code"},
	)
	c.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	if stats == nil {
		return
	}
	counter := func(name, help string, value func(correlation.Stats) int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "correlation",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(stats())) })
	}
	c.correlation = []prometheus.Collector{
		counter("lookups_total", "Correlation runs", func(s correlation.Stats) int64 { return s.Correlations }),
		counter("connections_total", "Correlation runs that found a connected match", func(s correlation.Stats) int64 { return s.Connections }),
		counter("lookup_failures_total", "Profile lookups that failed", func(s correlation.Stats) int64 { return s.LookupFailures }),
		counter("skipped_total", "Correlation runs with no correlatable identifiers", func(s correlation.Stats) int64 { return s.Skipped }),
	}
}

func (c *Collector) all() []prometheus.Collector {
	return append([]prometheus.Collector{
		c.AnalysesTotal,
		c.ConnectedTotal,
		c.AnalysisDuration,
		c.FlaggedTotal,
		c.PersistFailures,
		c.NotificationsTotal,
		c.ApprovalsTotal,
		c.HTTPRequestsTotal,
		c.HTTPRequestDuration,
	}, c.correlation...)
}

// Describe implements the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, m := range c.all() {
		m.Describe(ch)
	}
}

// Collect implements the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, m := range c.all() {
		m.Collect(ch)
	}
}

// RecordAnalysis counts a finished analysis
func (c *Collector) RecordAnalysis(agent, verdict string, connected bool, took time.Duration) {
	c.AnalysesTotal.WithLabelValues(agent, verdict).Inc()
	c.AnalysisDuration.WithLabelValues(agent).Observe(took.Seconds())
	if connected {
		c.ConnectedTotal.Inc()
	}
}

// RecordFlagged counts one identifier written to a profile
func (c *Collector) RecordFlagged(kind string) {
	c.FlaggedTotal.WithLabelValues(kind).Inc()
}

// RecordPersistFailure counts one identifier that could not be saved
func (c *Collector) RecordPersistFailure() {
	c.PersistFailures.Inc()
}

// RecordNotification counts a family alert outcome
func (c *Collector) RecordNotification(outcome string) {
	c.NotificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordApproval counts an approval reaching status
func (c *Collector) RecordApproval(status string) {
	c.ApprovalsTotal.WithLabelValues(status).Inc()
}

// RecordHTTPRequest counts a served request. route is the chi pattern, not
// the raw path, to keep label cardinality bounded.
func (c *Collector) RecordHTTPRequest(method, route string, code int, took time.Duration) {
	c.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, route).Observe(took.Seconds())
}

// Handler serves the registry in the Prometheus text format
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

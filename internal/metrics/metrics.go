package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "harvester"

// Fetch results used as label values.
const (
	FetchOK     = "ok"
	FetchFailed = "failed"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Scan metrics
	ScansTotal    *prometheus.CounterVec
	ScanDuration  prometheus.Histogram
	ScriptFetches *prometheus.CounterVec

	// Collection metrics
	ItemsReported  prometheus.Counter
	ItemsAdded     prometheus.Counter
	CollectionSize prometheus.Gauge
	Navigations    *prometheus.CounterVec

	// Push metrics
	WSConnections prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		ScansTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "scans_total",
				Help:      "Total number of finished scans by outcome",
			},
			[]string{"outcome"},
		),
		ScanDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "scan_duration_seconds",
				Help:      "Scan duration in seconds",
				Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
		),
		ScriptFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "script_fetches_total",
				Help:      "Total number of external script fetches by result",
			},
			[]string{"result"},
		),

		ItemsReported: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_reported_total",
				Help:      "Total number of items reported by scans",
			},
		),
		ItemsAdded: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "items_added_total",
				Help:      "Total number of items that were new to the collection",
			},
		),
		CollectionSize: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "collection_size",
				Help:      "Number of items in the collection",
			},
		),
		Navigations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "navigations_total",
				Help:      "Total number of page-load events by qualification",
			},
			[]string{"qualified"},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "ws_connections",
				Help:      "Number of open push connections",
			},
		),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records one served request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveScan records a finished scan.
func (m *Metrics) ObserveScan(outcome string, items int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ScansTotal.WithLabelValues(outcome).Inc()
	m.ScanDuration.Observe(elapsed.Seconds())
	m.ItemsReported.Add(float64(items))
}

// ObserveScriptFetch records one external script fetch.
func (m *Metrics) ObserveScriptFetch(ok bool) {
	if m == nil {
		return
	}
	result := FetchFailed
	if ok {
		result = FetchOK
	}
	m.ScriptFetches.WithLabelValues(result).Inc()
}

// SetCollectionSize sets the collection size gauge.
func (m *Metrics) SetCollectionSize(n int) {
	if m == nil {
		return
	}
	m.CollectionSize.Set(float64(n))
}

// ObserveItemsAdded counts items new to the collection.
func (m *Metrics) ObserveItemsAdded(n int) {
	if m == nil {
		return
	}
	m.ItemsAdded.Add(float64(n))
}

// ObserveNavigation counts a page-load event.
func (m *Metrics) ObserveNavigation(qualified bool) {
	if m == nil {
		return
	}
	label := "false"
	if qualified {
		label = "true"
	}
	m.Navigations.WithLabelValues(label).Inc()
}

// WSConnected adjusts the open push connection gauge by delta.
func (m *Metrics) WSConnected(delta int) {
	if m == nil {
		return
	}
	m.WSConnections.Add(float64(delta))
}

package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "climate_anomaly"

// Metrics holds the Prometheus counters, histograms, and gauges for the report pipeline.
type Metrics struct {
	Runs            *prometheus.CounterVec // labels: source, outcome={published,unavailable,no_data,error}
	RecordsDropped  *prometheus.CounterVec // labels: source
	PipelineRunning prometheus.Gauge

	// Latest engine outputs per source.
	AnomalyValue *prometheus.GaugeVec // labels: source
	AnomalySigma *prometheus.GaugeVec // labels: source

	RunDuration       prometheus.Histogram
	ReportsPublished  prometheus.Counter
	FetchCache        *prometheus.CounterVec // labels: result={hit,miss}
	FetchAPIDuration  *prometheus.HistogramVec
	ChartsRenderError prometheus.Counter
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()

	prometheus.MustRegister(
		m.Runs,
		m.RecordsDropped,
		m.PipelineRunning,
		m.AnomalyValue,
		m.AnomalySigma,
		m.RunDuration,
		m.ReportsPublished,
		m.FetchCache,
		m.FetchAPIDuration,
		m.ChartsRenderError,
	)

	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Engine runs by source and outcome.",
		}, []string{"source", "outcome"}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_dropped_total",
			Help:      "Malformed source records dropped during normalization.",
		}, []string{"source"}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		AnomalyValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "anomaly_value",
			Help:      "Most recent anomaly in source units.",
		}, []string{"source"}),
		AnomalySigma: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "anomaly_sigma",
			Help:      "Most recent standardized anomaly. Unset while the baseline std is zero.",
		}, []string{"source"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a single successful source report run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ReportsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_published_total",
			Help:      "Reports written to the sink topic.",
		}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_cache_total",
			Help:      "Source fetches by cache result.",
		}, []string{"result"}),
		FetchAPIDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Upstream data request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"host"}),
		ChartsRenderError: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_render_errors_total",
			Help:      "Chart renders that failed. Reports are still published without them.",
		}),
	}
}

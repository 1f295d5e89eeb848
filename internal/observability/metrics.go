package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crash_dashboard"

// Metrics holds the Prometheus counters, histograms, and gauges for the dashboard.
type Metrics struct {
	// Dataset loading.
	PartitionsLoaded prometheus.Counter
	RecordsLoaded    prometheus.Counter
	LoadDuration     prometheus.Histogram
	LoadErrors       prometheus.Counter
	DatasetReady     prometheus.Gauge

	// Normalization.
	DateParseFailures prometheus.Counter
	DamageCoercedZero prometheus.Counter

	// Filtered views.
	ViewCache           *prometheus.CounterVec // labels: result={hit,miss}
	ViewComputeDuration prometheus.Histogram
	ViewSize            prometheus.Histogram

	// Model predictions.
	Predictions *prometheus.CounterVec // labels: model, outcome={success,error}

	// Record publishing.
	RecordsPublished prometheus.Counter
	PublishErrors    prometheus.Counter
}

// NewMetrics creates and registers all dashboard metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PartitionsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partitions_loaded_total",
			Help:      "Partition files parsed successfully.",
		}),
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Crash records loaded into the dataset.",
		}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Duration of a full dataset load.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		LoadErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_errors_total",
			Help:      "Dataset loads that failed.",
		}),
		DatasetReady: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dataset_ready",
			Help:      "1 once the dataset is loaded, 0 otherwise.",
		}),
		DateParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "date_parse_failures_total",
			Help:      "Records whose CRASH_DATE could not be parsed.",
		}),
		DamageCoercedZero: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "damage_coerced_zero_total",
			Help:      "Non-empty DAMAGE values that could not be parsed and became 0.",
		}),
		ViewCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "view_cache_total",
			Help:      "Filtered view cache lookups by result.",
		}, []string{"result"}),
		ViewComputeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_compute_duration_seconds",
			Help:      "Time spent filtering and summarizing a view on cache miss.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		ViewSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "view_size_records",
			Help:      "Number of records in a computed view.",
			Buckets:   prometheus.ExponentialBuckets(1, 10, 7),
		}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Model predictions by model and outcome.",
		}, []string{"model", "outcome"}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Normalized records written to Kafka.",
		}),
		PublishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Kafka batch writes that failed after retries.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PartitionsLoaded,
		m.RecordsLoaded,
		m.LoadDuration,
		m.LoadErrors,
		m.DatasetReady,
		m.DateParseFailures,
		m.DamageCoercedZero,
		m.ViewCache,
		m.ViewComputeDuration,
		m.ViewSize,
		m.Predictions,
		m.RecordsPublished,
		m.PublishErrors,
	}
}

// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Loading metrics
	CandidatesLoaded   prometheus.Counter
	CandidatesRetained prometheus.Counter
	CandFilesParsed    prometheus.Counter
	ParseErrors        prometheus.Counter

	// Ingest metrics
	FeedCandidatesReceived prometheus.Counter
	FeedDecodeErrors       prometheus.Counter
	FeedReconnects         prometheus.Counter

	// Extraction metrics
	ExtractionsAttempted prometheus.Counter
	ExtractionsSucceeded prometheus.Counter
	ExtractionsFailed    *prometheus.CounterVec
	ArchivePollRetries   prometheus.Counter
	ImagesRendered       prometheus.Counter

	// Latency metrics
	ToolLatency       *prometheus.HistogramVec
	ExtractionLatency prometheus.Histogram

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "candpipe"
	}

	return &Metrics{
		// Loading metrics
		CandidatesLoaded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loading",
			Name:      "candidates_loaded_total",
			Help:      "Total number of candidate rows loaded",
		}),
		CandidatesRetained: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loading",
			Name:      "candidates_retained_total",
			Help:      "Total number of candidates retained by classification",
		}),
		CandFilesParsed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loading",
			Name:      "cand_files_parsed_total",
			Help:      "Total number of candidate files parsed",
		}),
		ParseErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loading",
			Name:      "parse_errors_total",
			Help:      "Total number of candidate file parse errors",
		}),

		// Ingest metrics
		FeedCandidatesReceived: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "feed_candidates_received_total",
			Help:      "Total number of candidates received over the live feed",
		}),
		FeedDecodeErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "feed_decode_errors_total",
			Help:      "Total number of undecodable live feed messages",
		}),
		FeedReconnects: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "feed_reconnects_total",
			Help:      "Total number of live feed reconnect attempts",
		}),

		// Extraction metrics
		ExtractionsAttempted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "attempts_total",
			Help:      "Total number of extraction attempts",
		}),
		ExtractionsSucceeded: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "successes_total",
			Help:      "Total number of successful extractions",
		}),
		ExtractionsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "failures_total",
			Help:      "Total number of failed extractions by stage",
		}, []string{"stage"}),
		ArchivePollRetries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "archive_poll_retries_total",
			Help:      "Total number of archive poll retries",
		}),
		ImagesRendered: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "images_rendered_total",
			Help:      "Total number of diagnostic images rendered",
		}),

		// Latency metrics
		ToolLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "tool_latency_seconds",
			Help:      "External tool invocation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		ExtractionLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "extraction",
			Name:      "candidate_latency_seconds",
			Help:      "End-to-end per-candidate extraction latency in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last fully successful batch run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordCandidatesLoaded adds to the loaded candidates counter.
func RecordCandidatesLoaded(n int) {
	DefaultMetrics.CandidatesLoaded.Add(float64(n))
}

// RecordCandidatesRetained adds to the retained candidates counter.
func RecordCandidatesRetained(n int) {
	DefaultMetrics.CandidatesRetained.Add(float64(n))
}

// RecordExtractionAttempt increments the extraction attempts counter.
func RecordExtractionAttempt() {
	DefaultMetrics.ExtractionsAttempted.Inc()
}

// RecordExtractionSuccess increments the success counter.
func RecordExtractionSuccess() {
	DefaultMetrics.ExtractionsSucceeded.Inc()
	DefaultMetrics.ImagesRendered.Inc()
}

// RecordExtractionFailure increments the failure counter for a stage.
func RecordExtractionFailure(stage string) {
	DefaultMetrics.ExtractionsFailed.WithLabelValues(stage).Inc()
}

// RecordToolLatency records an external tool invocation latency.
func RecordToolLatency(tool string, seconds float64) {
	DefaultMetrics.ToolLatency.WithLabelValues(tool).Observe(seconds)
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}

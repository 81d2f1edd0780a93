// Package metrics holds the server's Prometheus collectors. They register with
// the default registry on import and are served by promhttp when the metrics
// endpoint is enabled.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Change results.
const (
	ResultApplied = "applied"
	ResultStale   = "stale"
	ResultMissing = "missing"
)

// Analysis error kinds.
const (
	ErrorLex   = "lex"
	ErrorParse = "parse"
)

var (
	DocumentChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kclsp_document_changes_total",
		Help: "Document open and change requests by result",
	}, []string{"result"})

	DocumentErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "kclsp_document_errors_total",
		Help: "Lex and parse failures recorded on document snapshots",
	}, []string{"kind"})

	OpenDocuments = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "kclsp_open_documents",
		Help: "Number of documents held by the store",
	})

	AnalysisDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "kclsp_analysis_duration_seconds",
		Help:    "Time spent tokenizing and parsing one document version",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	})

	QueryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "kclsp_query_duration_seconds",
		Help:    "Query latency by LSP method",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}, []string{"method"})
)

// ObserveQuery records the time since start for method. Use it as
// defer metrics.ObserveQuery("hover", time.Now()).
func ObserveQuery(method string, start time.Time) {
	QueryDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

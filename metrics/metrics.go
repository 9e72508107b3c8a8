// Package metrics exposes pipeline counters for long-running fetch stages.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequests counts upstream requests by service.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scolmap_http_requests_total",
		Help: "Upstream HTTP requests issued, by service.",
	}, []string{"service"})

	// RecordsFetched counts normalized records produced per source.
	RecordsFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scolmap_records_fetched_total",
		Help: "Normalized records fetched, by source.",
	}, []string{"source"})

	// RowsSkipped counts malformed rows skipped per source.
	RowsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scolmap_rows_skipped_total",
		Help: "Malformed rows skipped during parsing, by source.",
	}, []string{"source"})

	// FetchFailures counts per-source fetch aborts.
	FetchFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scolmap_fetch_failures_total",
		Help: "Fetch stage failures, by source.",
	}, []string{"source"})
)

// Serve starts a metrics listener on addr. It returns immediately; the
// listener runs until the process exits. Intended for long fetch runs where
// progress is worth watching.
func Serve(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		// Best effort: a busy port should not abort a pipeline run.
		_ = http.ListenAndServe(addr, mux)
	}()
}

// JazzMate - Review-Based Jazz Album Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/jazzmate

// Package metrics declares the Prometheus collectors for JazzMate.
//
// Collectors are registered on the default registry by promauto and exposed
// by the API on /metrics. Components call the Record helpers rather than the
// collectors directly so label values stay consistent.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// Embedding Metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jazzmate_embedding_requests_total",
			Help: "Embedding provider requests by operation (single, batch) and status",
		},
		[]string{"op", "status"},
	)

	EmbeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jazzmate_embedding_duration_seconds",
			Help:    "Embedding provider request latency in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"op"},
	)

	EmbeddingCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jazzmate_embedding_circuit_state",
			Help: "Embedding circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// Vector Index Metrics
	VectorOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jazzmate_vector_operations_total",
			Help: "Vector index operations by operation, backend and status",
		},
		[]string{"op", "backend", "status"},
	)

	// Ingestion Metrics
	IngestRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jazzmate_ingest_records_total",
			Help: "Records handled by ingestion runs by outcome",
		},
		[]string{"outcome"}, // "invalid", "existing", "embed_failed", "uploaded", "upload_failed"
	)

	IngestRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jazzmate_ingest_runs_total",
			Help: "Ingestion runs by final status",
		},
		[]string{"status"},
	)

	// Failure Ledger Metrics
	LedgerEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jazzmate_ledger_entries",
			Help: "Current number of entries in the failure ledger",
		},
	)

	LedgerRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jazzmate_ledger_retry_total",
			Help: "Ledger retry attempts by outcome",
		},
		[]string{"outcome"}, // "recovered", "failed", "skipped"
	)

	// Retrieval Metrics
	RetrievalRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jazzmate_retrieval_requests_total",
			Help: "Retrieval requests by outcome",
		},
		[]string{"outcome"}, // "ok", "empty_query", "degraded", "error"
	)

	// Reason Metrics
	ReasonsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jazzmate_reason_total",
			Help: "Recommendation reasons by source",
		},
		[]string{"source"}, // "llm", "fallback", "rate_limited"
	)

	// Write-back Metrics
	WriteBackRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jazzmate_writeback_total",
			Help: "Shop backend write-back calls by operation and status",
		},
		[]string{"op", "status"},
	)

	WriteBackCircuitState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jazzmate_writeback_circuit_state",
			Help: "Write-back circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
	)

	// HTTP Metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jazzmate_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"method", "route", "status"},
	)

	HTTPActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jazzmate_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

func statusLabel(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

// RecordEmbedding records one provider call.
func RecordEmbedding(op string, duration time.Duration, err error) {
	EmbeddingRequests.WithLabelValues(op, statusLabel(err)).Inc()
	EmbeddingDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordVectorOp records one vector index operation.
func RecordVectorOp(op, backend string, err error) {
	VectorOperations.WithLabelValues(op, backend, statusLabel(err)).Inc()
}

// RecordIngestRecords adds n records with the given outcome. Zero counts are skipped.
func RecordIngestRecords(outcome string, n int) {
	if n <= 0 {
		return
	}
	IngestRecords.WithLabelValues(outcome).Add(float64(n))
}

// RecordIngestRun records a finished ingestion run.
func RecordIngestRun(err error) {
	IngestRuns.WithLabelValues(statusLabel(err)).Inc()
}

// SetLedgerEntries publishes the ledger size.
func SetLedgerEntries(n int) {
	LedgerEntries.Set(float64(n))
}

// RecordLedgerRetry records the outcome of retrying one ledger entry.
func RecordLedgerRetry(outcome string) {
	LedgerRetries.WithLabelValues(outcome).Inc()
}

// RecordRetrieval records a retrieval request outcome.
func RecordRetrieval(outcome string) {
	RetrievalRequests.WithLabelValues(outcome).Inc()
}

// RecordReason records the source of a generated reason.
func RecordReason(source string) {
	ReasonsGenerated.WithLabelValues(source).Inc()
}

// RecordWriteBack records one write-back call.
func RecordWriteBack(op string, err error) {
	WriteBackRequests.WithLabelValues(op, statusLabel(err)).Inc()
}

// RecordHTTPRequest records a served HTTP request.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		HTTPActiveRequests.Inc()
	} else {
		HTTPActiveRequests.Dec()
	}
}

// Package metrics provides Prometheus metrics for ytupload runs.
//
// ytupload is a one-shot CLI, so metrics live in a private registry and are
// written to a node_exporter textfile at the end of a run instead of being
// served over HTTP.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters updated during a run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	hashesTotal        *prometheus.CounterVec
	listingCacheTotal  *prometheus.CounterVec
	uploadsTotal       *prometheus.CounterVec
	uploadRetriesTotal prometheus.Counter
	uploadBytesTotal   prometheus.Counter
	filesSkippedTotal  prometheus.Counter
}

// New creates the metric set in a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		hashesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytupload_hashes_total",
				Help: "Content hashes resolved, by source",
			},
			[]string{"source"},
		),
		listingCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytupload_listing_cache_total",
				Help: "Playlist listing cache lookups, by result",
			},
			[]string{"result"},
		),
		uploadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ytupload_uploads_total",
				Help: "Finished upload attempts, by status",
			},
			[]string{"status"},
		),
		uploadRetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ytupload_upload_retries_total",
				Help: "Retriable chunk failures during resumable uploads",
			},
		),
		uploadBytesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ytupload_upload_bytes_total",
				Help: "Bytes acknowledged by the remote during resumable uploads",
			},
		),
		filesSkippedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "ytupload_files_skipped_total",
				Help: "Local files skipped because a matching video already exists",
			},
		),
	}

	m.registry.MustRegister(
		m.hashesTotal,
		m.listingCacheTotal,
		m.uploadsTotal,
		m.uploadRetriesTotal,
		m.uploadBytesTotal,
		m.filesSkippedTotal,
	)
	return m
}

// RecordHash records a resolved hash; cached reports whether it came from the cache.
func (m *Metrics) RecordHash(cached bool) {
	if m == nil {
		return
	}
	source := "computed"
	if cached {
		source = "cache"
	}
	m.hashesTotal.WithLabelValues(source).Inc()
}

// RecordListingLookup records a listing cache hit or miss.
func (m *Metrics) RecordListingLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.listingCacheTotal.WithLabelValues(result).Inc()
}

// RecordUpload records a finished upload.
func (m *Metrics) RecordUpload(success bool) {
	if m == nil {
		return
	}
	status := "failed"
	if success {
		status = "success"
	}
	m.uploadsTotal.WithLabelValues(status).Inc()
}

// RecordRetry records one retriable chunk failure.
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.uploadRetriesTotal.Inc()
}

// RecordBytes records bytes acknowledged by the remote.
func (m *Metrics) RecordBytes(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.uploadBytesTotal.Add(float64(n))
}

// RecordSkipped records a file skipped as already uploaded.
func (m *Metrics) RecordSkipped() {
	if m == nil {
		return
	}
	m.filesSkippedTotal.Inc()
}

// WriteTextfile writes all metrics in the Prometheus text format to path,
// atomically, for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

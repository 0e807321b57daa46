package handler

import (
	"fmt"
	"net/http"

	"github.com/folio/folio/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeMetric(w, "folio_project_cache_hits_total %d\n", snap.ProjectCacheHits)
	writeMetric(w, "folio_project_cache_misses_total %d\n", snap.ProjectCacheMisses)
	writeMetric(w, "folio_project_lookup_duration_seconds_count %d\n", snap.ProjectLookupDurationCount)
	writeMetric(w, "folio_project_lookup_duration_seconds_sum %.6f\n", float64(snap.ProjectLookupDurationTotalNs)/1e9)

	writeMetric(w, "folio_project_transitions_total{transition=\"create\"} %d\n", snap.ProjectsCreated)
	writeMetric(w, "folio_project_transitions_total{transition=\"update\"} %d\n", snap.ProjectsUpdated)
	writeMetric(w, "folio_project_transitions_total{transition=\"soft_delete\"} %d\n", snap.ProjectsSoftDeleted)
	writeMetric(w, "folio_project_transitions_total{transition=\"restore\"} %d\n", snap.ProjectsRestored)
	writeMetric(w, "folio_project_transitions_total{transition=\"hard_delete\"} %d\n", snap.ProjectsHardDeleted)

	writeMetric(w, "folio_auth_failures_total{reason=\"missing\"} %d\n", snap.AuthFailuresMissing)
	writeMetric(w, "folio_auth_failures_total{reason=\"invalid\"} %d\n", snap.AuthFailuresInvalid)
	writeMetric(w, "folio_ownership_denied_total %d\n", snap.OwnershipDenied)

	writeMetric(w, "folio_activity_events_published_total{status=\"success\"} %d\n", snap.ActivityEventsPublished)
	writeMetric(w, "folio_activity_events_published_total{status=\"dropped\"} %d\n", snap.ActivityEventsDropped)
	writeMetric(w, "folio_activity_events_processed_total{status=\"success\"} %d\n", snap.ActivityEventsProcessed)
	writeMetric(w, "folio_activity_events_processed_total{status=\"failed\"} %d\n", snap.ActivityEventsFailed)
	writeMetric(w, "folio_activity_events_processed_total{status=\"dead_lettered\"} %d\n", snap.ActivityEventsDeadLettered)

	writeMetric(w, "folio_activity_batches_total %d\n", snap.ActivityBatchCount)
	writeMetric(w, "folio_activity_batch_events_total %d\n", snap.ActivityBatchEvents)
	writeMetric(w, "folio_activity_batch_duration_seconds_sum %.6f\n", float64(snap.ActivityBatchDurationTotalNs)/1e9)
	writeMetric(w, "folio_activity_queue_depth %d\n", snap.ActivityQueueDepth)
	writeMetric(w, "folio_activity_ingest_lag_seconds_count %d\n", snap.ActivityIngestLagCount)
	writeMetric(w, "folio_activity_ingest_lag_seconds_sum %.6f\n", float64(snap.ActivityIngestLagTotalNs)/1e9)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ProjectCacheHits             uint64
	ProjectCacheMisses           uint64
	ProjectLookupDurationCount   uint64
	ProjectLookupDurationTotalNs int64

	ProjectsCreated     uint64
	ProjectsUpdated     uint64
	ProjectsSoftDeleted uint64
	ProjectsRestored    uint64
	ProjectsHardDeleted uint64

	AuthFailuresMissing uint64
	AuthFailuresInvalid uint64
	OwnershipDenied     uint64

	ActivityEventsPublished      uint64
	ActivityEventsDropped        uint64
	ActivityEventsProcessed      uint64
	ActivityEventsFailed         uint64
	ActivityEventsDeadLettered   uint64
	ActivityBatchCount           uint64
	ActivityBatchEvents          uint64
	ActivityBatchDurationTotalNs int64
	ActivityQueueDepth           int64
	ActivityIngestLagCount       uint64
	ActivityIngestLagTotalNs     int64
}

// InMemoryRecorder stores metrics in memory with atomic counters.
type InMemoryRecorder struct {
	projectCacheHits             atomic.Uint64
	projectCacheMisses           atomic.Uint64
	projectLookupDurationCount   atomic.Uint64
	projectLookupDurationTotalNs atomic.Int64

	projectsCreated     atomic.Uint64
	projectsUpdated     atomic.Uint64
	projectsSoftDeleted atomic.Uint64
	projectsRestored    atomic.Uint64
	projectsHardDeleted atomic.Uint64

	authFailuresMissing atomic.Uint64
	authFailuresInvalid atomic.Uint64
	ownershipDenied     atomic.Uint64

	activityEventsPublished      atomic.Uint64
	activityEventsDropped        atomic.Uint64
	activityEventsProcessed      atomic.Uint64
	activityEventsFailed         atomic.Uint64
	activityEventsDeadLettered   atomic.Uint64
	activityBatchCount           atomic.Uint64
	activityBatchEvents          atomic.Uint64
	activityBatchDurationTotalNs atomic.Int64
	activityQueueDepth           atomic.Int64
	activityIngestLagCount       atomic.Uint64
	activityIngestLagTotalNs     atomic.Int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ProjectCacheHits:             m.projectCacheHits.Load(),
		ProjectCacheMisses:           m.projectCacheMisses.Load(),
		ProjectLookupDurationCount:   m.projectLookupDurationCount.Load(),
		ProjectLookupDurationTotalNs: m.projectLookupDurationTotalNs.Load(),

		ProjectsCreated:     m.projectsCreated.Load(),
		ProjectsUpdated:     m.projectsUpdated.Load(),
		ProjectsSoftDeleted: m.projectsSoftDeleted.Load(),
		ProjectsRestored:    m.projectsRestored.Load(),
		ProjectsHardDeleted: m.projectsHardDeleted.Load(),

		AuthFailuresMissing: m.authFailuresMissing.Load(),
		AuthFailuresInvalid: m.authFailuresInvalid.Load(),
		OwnershipDenied:     m.ownershipDenied.Load(),

		ActivityEventsPublished:      m.activityEventsPublished.Load(),
		ActivityEventsDropped:        m.activityEventsDropped.Load(),
		ActivityEventsProcessed:      m.activityEventsProcessed.Load(),
		ActivityEventsFailed:         m.activityEventsFailed.Load(),
		ActivityEventsDeadLettered:   m.activityEventsDeadLettered.Load(),
		ActivityBatchCount:           m.activityBatchCount.Load(),
		ActivityBatchEvents:          m.activityBatchEvents.Load(),
		ActivityBatchDurationTotalNs: m.activityBatchDurationTotalNs.Load(),
		ActivityQueueDepth:           m.activityQueueDepth.Load(),
		ActivityIngestLagCount:       m.activityIngestLagCount.Load(),
		ActivityIngestLagTotalNs:     m.activityIngestLagTotalNs.Load(),
	}
}

// IncProjectCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncProjectCacheHit() {
	m.projectCacheHits.Add(1)
}

// IncProjectCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncProjectCacheMiss() {
	m.projectCacheMisses.Add(1)
}

// ObserveProjectLookupDuration records a getById lookup duration.
func (m *InMemoryRecorder) ObserveProjectLookupDuration(duration time.Duration) {
	m.projectLookupDurationCount.Add(1)
	m.projectLookupDurationTotalNs.Add(duration.Nanoseconds())
}

// IncProjectCreated increments project created counter.
func (m *InMemoryRecorder) IncProjectCreated() {
	m.projectsCreated.Add(1)
}

// IncProjectUpdated increments project updated counter.
func (m *InMemoryRecorder) IncProjectUpdated() {
	m.projectsUpdated.Add(1)
}

// IncProjectSoftDeleted increments project soft-deleted counter.
func (m *InMemoryRecorder) IncProjectSoftDeleted() {
	m.projectsSoftDeleted.Add(1)
}

// IncProjectRestored increments project restored counter.
func (m *InMemoryRecorder) IncProjectRestored() {
	m.projectsRestored.Add(1)
}

// IncProjectHardDeleted increments project purged counter.
func (m *InMemoryRecorder) IncProjectHardDeleted() {
	m.projectsHardDeleted.Add(1)
}

// IncAuthFailure counts rejected credentials by reason.
func (m *InMemoryRecorder) IncAuthFailure(reason string) {
	if reason == "MISSING" {
		m.authFailuresMissing.Add(1)
		return
	}
	m.authFailuresInvalid.Add(1)
}

// IncOwnershipDenied counts ownership guard denials.
func (m *InMemoryRecorder) IncOwnershipDenied() {
	m.ownershipDenied.Add(1)
}

// IncActivityEventPublished counts stream publishes by status.
func (m *InMemoryRecorder) IncActivityEventPublished(status string) {
	if status == "success" {
		m.activityEventsPublished.Add(1)
		return
	}
	m.activityEventsDropped.Add(1)
}

// IncActivityEventProcessed counts worker outcomes by status.
func (m *InMemoryRecorder) IncActivityEventProcessed(status string) {
	switch status {
	case "success":
		m.activityEventsProcessed.Add(1)
	case "dead_lettered":
		m.activityEventsDeadLettered.Add(1)
	default:
		m.activityEventsFailed.Add(1)
	}
}

// ObserveActivityBatchSize records a processed batch.
func (m *InMemoryRecorder) ObserveActivityBatchSize(size int) {
	m.activityBatchCount.Add(1)
	m.activityBatchEvents.Add(uint64(size))
}

// ObserveActivityBatchDuration records batch processing time.
func (m *InMemoryRecorder) ObserveActivityBatchDuration(duration time.Duration) {
	m.activityBatchDurationTotalNs.Add(duration.Nanoseconds())
}

// SetActivityQueueDepth stores the latest pending+lag reading.
func (m *InMemoryRecorder) SetActivityQueueDepth(depth int64) {
	m.activityQueueDepth.Store(depth)
}

// ObserveActivityIngestLag records the delay between transition and persistence.
func (m *InMemoryRecorder) ObserveActivityIngestLag(lag time.Duration) {
	m.activityIngestLagCount.Add(1)
	m.activityIngestLagTotalNs.Add(lag.Nanoseconds())
}

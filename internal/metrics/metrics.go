// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Project lookup metrics
	IncProjectCacheHit()
	IncProjectCacheMiss()
	ObserveProjectLookupDuration(duration time.Duration)

	// Project lifecycle metrics
	IncProjectCreated()
	IncProjectUpdated()
	IncProjectSoftDeleted()
	IncProjectRestored()
	IncProjectHardDeleted()

	// Access control metrics
	IncAuthFailure(reason string) // reason: "MISSING" or "INVALID"
	IncOwnershipDenied()

	// Activity pipeline metrics
	IncActivityEventPublished(status string) // status: "success" or "dropped"
	IncActivityEventProcessed(status string) // status: "success", "failed", "dead_lettered"
	ObserveActivityBatchSize(size int)
	ObserveActivityBatchDuration(duration time.Duration)
	SetActivityQueueDepth(depth int64)
	ObserveActivityIngestLag(lag time.Duration)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}

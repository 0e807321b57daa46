package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncProjectCacheHit is a no-op.
func (n *NoopRecorder) IncProjectCacheHit() {}

// IncProjectCacheMiss is a no-op.
func (n *NoopRecorder) IncProjectCacheMiss() {}

// ObserveProjectLookupDuration is a no-op.
func (n *NoopRecorder) ObserveProjectLookupDuration(duration time.Duration) {}

// IncProjectCreated is a no-op.
func (n *NoopRecorder) IncProjectCreated() {}

// IncProjectUpdated is a no-op.
func (n *NoopRecorder) IncProjectUpdated() {}

// IncProjectSoftDeleted is a no-op.
func (n *NoopRecorder) IncProjectSoftDeleted() {}

// IncProjectRestored is a no-op.
func (n *NoopRecorder) IncProjectRestored() {}

// IncProjectHardDeleted is a no-op.
func (n *NoopRecorder) IncProjectHardDeleted() {}

// IncAuthFailure is a no-op.
func (n *NoopRecorder) IncAuthFailure(reason string) {}

// IncOwnershipDenied is a no-op.
func (n *NoopRecorder) IncOwnershipDenied() {}

// IncActivityEventPublished is a no-op.
func (n *NoopRecorder) IncActivityEventPublished(status string) {}

// IncActivityEventProcessed is a no-op.
func (n *NoopRecorder) IncActivityEventProcessed(status string) {}

// ObserveActivityBatchSize is a no-op.
func (n *NoopRecorder) ObserveActivityBatchSize(size int) {}

// ObserveActivityBatchDuration is a no-op.
func (n *NoopRecorder) ObserveActivityBatchDuration(duration time.Duration) {}

// SetActivityQueueDepth is a no-op.
func (n *NoopRecorder) SetActivityQueueDepth(depth int64) {}

// ObserveActivityIngestLag is a no-op.
func (n *NoopRecorder) ObserveActivityIngestLag(lag time.Duration) {}

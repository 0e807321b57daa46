package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestInMemoryRecorder_Counters(t *testing.T) {
	m := NewInMemory()

	m.IncProjectCreated()
	m.IncProjectSoftDeleted()
	m.IncProjectSoftDeleted()
	m.IncProjectRestored()
	m.IncProjectHardDeleted()
	m.IncAuthFailure("MISSING")
	m.IncAuthFailure("INVALID")
	m.IncAuthFailure("INVALID")
	m.IncOwnershipDenied()
	m.IncActivityEventPublished("success")
	m.IncActivityEventPublished("dropped")
	m.IncActivityEventProcessed("success")
	m.IncActivityEventProcessed("failed")
	m.IncActivityEventProcessed("dead_lettered")
	m.ObserveActivityBatchSize(3)
	m.SetActivityQueueDepth(7)
	m.ObserveProjectLookupDuration(2 * time.Millisecond)

	snap := m.Snapshot()

	checks := []struct {
		name string
		got  uint64
		want uint64
	}{
		{"created", snap.ProjectsCreated, 1},
		{"soft_deleted", snap.ProjectsSoftDeleted, 2},
		{"restored", snap.ProjectsRestored, 1},
		{"hard_deleted", snap.ProjectsHardDeleted, 1},
		{"auth_missing", snap.AuthFailuresMissing, 1},
		{"auth_invalid", snap.AuthFailuresInvalid, 2},
		{"ownership_denied", snap.OwnershipDenied, 1},
		{"published", snap.ActivityEventsPublished, 1},
		{"dropped", snap.ActivityEventsDropped, 1},
		{"processed", snap.ActivityEventsProcessed, 1},
		{"failed", snap.ActivityEventsFailed, 1},
		{"dead_lettered", snap.ActivityEventsDeadLettered, 1},
		{"batch_count", snap.ActivityBatchCount, 1},
		{"batch_events", snap.ActivityBatchEvents, 3},
		{"lookup_count", snap.ProjectLookupDurationCount, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}
	if snap.ActivityQueueDepth != 7 {
		t.Errorf("queue depth = %d, want 7", snap.ActivityQueueDepth)
	}
}

func TestInMemoryRecorder_ConcurrentIncrements(t *testing.T) {
	m := NewInMemory()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.IncProjectCacheHit()
		}()
	}
	wg.Wait()

	if got := m.Snapshot().ProjectCacheHits; got != 50 {
		t.Fatalf("cache hits = %d, want 50", got)
	}
}

func TestNoopRecorder_SatisfiesInterface(t *testing.T) {
	var r Recorder = NewNoop()
	r.IncProjectCreated()
	r.IncAuthFailure("INVALID")
}

package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"

	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
)

// ConsumerGroup is the Redis consumer group shared by all activity workers.
const ConsumerGroup = "activity_workers"

const (
	deadLetterMaxLen = 10000
	errorPause       = time.Second
)

// Poison message reasons recorded on the dead-letter stream.
const (
	reasonInvalidFormat = "invalid_format"
	reasonUnmarshal     = "unmarshal_error"
	reasonValidation    = "validation_error"
)

// Repository persists decoded project events. Inserts must be idempotent
// on EventID because a reclaimed message may be delivered twice.
type Repository interface {
	BulkInsert(ctx context.Context, events []*model.ProjectEvent) error
}

// WorkerConfig tunes the ingest loop. Zero intervals disable the periodic
// pending claim or queue depth refresh.
type WorkerConfig struct {
	BatchSize     int
	BlockTimeout  time.Duration
	MaxAttempts   int
	RetryBase     time.Duration
	ClaimInterval time.Duration
	ClaimIdle     time.Duration
	DepthInterval time.Duration
}

// DefaultWorkerConfig returns the production settings.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		BatchSize:     200,
		BlockTimeout:  5 * time.Second,
		MaxAttempts:   3,
		RetryBase:     time.Second,
		ClaimInterval: 10 * time.Second,
		ClaimIdle:     30 * time.Second,
		DepthInterval: 5 * time.Second,
	}
}

// WorkerOption adjusts a WorkerConfig.
type WorkerOption func(*WorkerConfig)

// WithBatchSize caps how many stream entries one read returns.
func WithBatchSize(n int) WorkerOption {
	return func(c *WorkerConfig) {
		if n > 0 {
			c.BatchSize = n
		}
	}
}

// WithBlockTimeout sets how long XREADGROUP waits for new entries.
func WithBlockTimeout(d time.Duration) WorkerOption {
	return func(c *WorkerConfig) {
		if d > 0 {
			c.BlockTimeout = d
		}
	}
}

// WithRetry sets the insert attempts per batch and the backoff base.
func WithRetry(attempts int, base time.Duration) WorkerOption {
	return func(c *WorkerConfig) {
		if attempts > 0 {
			c.MaxAttempts = attempts
		}
		if base > 0 {
			c.RetryBase = base
		}
	}
}

// WithPendingClaim sets how often, and after how much idle time, entries
// left pending by a crashed consumer are taken over. every <= 0 disables it.
func WithPendingClaim(every, idle time.Duration) WorkerOption {
	return func(c *WorkerConfig) {
		c.ClaimInterval = every
		if idle > 0 {
			c.ClaimIdle = idle
		}
	}
}

// WithDepthInterval sets the queue depth gauge refresh period. d <= 0 disables it.
func WithDepthInterval(d time.Duration) WorkerOption {
	return func(c *WorkerConfig) {
		c.DepthInterval = d
	}
}

// Worker moves project events from the Redis stream into PostgreSQL.
// Entries are acknowledged only after they are stored or dead-lettered.
type Worker struct {
	redis      *redis.Client
	repo       Repository
	logger     *slog.Logger
	metrics    metrics.Recorder
	consumerID string
	cfg        WorkerConfig

	// Touched only by the Run goroutine.
	claimCursor string
	nextClaim   time.Time
	nextDepth   time.Time

	draining atomic.Bool

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewWorker creates a worker that reads as consumerID.
func NewWorker(client *redis.Client, repo Repository, logger *slog.Logger, consumerID string, recorder metrics.Recorder, opts ...WorkerOption) *Worker {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	cfg := DefaultWorkerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Worker{
		redis:       client,
		repo:        repo,
		logger:      logger.With("component", "activity.worker", "consumer_id", consumerID),
		metrics:     recorder,
		consumerID:  consumerID,
		cfg:         cfg,
		claimCursor: "0-0",
	}
}

// Run consumes the stream until ctx is cancelled or Shutdown is called.
func (w *Worker) Run(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return errors.New("activity worker already started")
	}
	w.started = true
	w.done = make(chan struct{})
	ctx, w.cancel = context.WithCancel(ctx)
	w.mu.Unlock()
	defer close(w.done)

	if err := w.ensureGroup(ctx); err != nil {
		return fmt.Errorf("ensure consumer group: %w", err)
	}
	w.logger.Info("activity_worker_started", "batch_size", w.cfg.BatchSize)

	for !w.draining.Load() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := w.step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			return nil
		default:
			w.logger.Error("activity_step_failed", "error", err)
			if !sleepCtx(ctx, errorPause) {
				return nil
			}
		}
	}

	w.logger.Info("activity_worker_drained")
	return nil
}

// Shutdown stops Run after the in-flight batch is stored and acked, and waits
// for it, bounded by ctx. A batch still in retry backoff stays pending.
func (w *Worker) Shutdown(ctx context.Context) error {
	w.mu.Lock()
	started, cancel, done := w.started, w.cancel, w.done
	w.mu.Unlock()
	if !started {
		return nil
	}

	w.draining.Store(true)
	cancel()

	select {
	case <-done:
		w.logger.Info("activity_worker_stopped")
		return nil
	case <-ctx.Done():
		w.logger.Warn("activity_worker_shutdown_timeout")
		return ctx.Err()
	}
}

func (w *Worker) ensureGroup(ctx context.Context) error {
	err := w.redis.XGroupCreateMkStream(ctx, StreamKey, ConsumerGroup, "0").Err()
	if err != nil && !isConsumerGroupExistsError(err) {
		return err
	}
	return nil
}

// step handles one batch: stale pending entries first, otherwise new ones.
func (w *Worker) step(ctx context.Context) error {
	w.refreshDepth(ctx)

	batch, err := w.claimStale(ctx)
	if err != nil {
		w.logger.Warn("activity_claim_failed", "error", err)
	}
	if len(batch) == 0 {
		if batch, err = w.read(ctx); err != nil {
			return err
		}
	}
	if len(batch) == 0 {
		return nil
	}

	// A batch already read is written and acked even when Shutdown cancels
	// ctx mid-way; only the retry backoff follows ctx.
	settle := context.WithoutCancel(ctx)
	events, ids := w.decode(settle, batch)
	if len(events) > 0 {
		if err := w.persist(ctx, settle, events); err != nil {
			// Left pending; claimStale picks the batch up again later.
			return err
		}
	}
	return w.ack(settle, ids)
}

func (w *Worker) claimStale(ctx context.Context) ([]redis.XMessage, error) {
	if w.cfg.ClaimInterval <= 0 || time.Now().Before(w.nextClaim) {
		return nil, nil
	}
	w.nextClaim = time.Now().Add(w.cfg.ClaimInterval)

	msgs, cursor, err := w.redis.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   StreamKey,
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		MinIdle:  w.cfg.ClaimIdle,
		Start:    w.claimCursor,
		Count:    int64(w.cfg.BatchSize),
	}).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("xautoclaim: %w", err)
	}
	if cursor != "" {
		w.claimCursor = cursor
	}
	if len(msgs) > 0 {
		w.logger.Info("activity_pending_claimed", "count", len(msgs))
	}
	return msgs, nil
}

func (w *Worker) read(ctx context.Context) ([]redis.XMessage, error) {
	streams, err := w.redis.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    ConsumerGroup,
		Consumer: w.consumerID,
		Streams:  []string{StreamKey, ">"},
		Count:    int64(w.cfg.BatchSize),
		Block:    w.cfg.BlockTimeout,
	}).Result()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("xreadgroup: %w", err)
	case len(streams) == 0:
		return nil, nil
	}
	return streams[0].Messages, nil
}

// decode turns stream entries into events. Every entry ID is returned for
// acknowledgement; entries that fail to decode are dead-lettered instead.
func (w *Worker) decode(ctx context.Context, batch []redis.XMessage) ([]*model.ProjectEvent, []string) {
	events := make([]*model.ProjectEvent, 0, len(batch))
	ids := make([]string, 0, len(batch))

	for _, msg := range batch {
		ids = append(ids, msg.ID)

		raw, ok := msg.Values["payload"].(string)
		if !ok {
			w.deadLetter(ctx, msg, reasonInvalidFormat, "payload field missing or not a string")
			continue
		}
		var p ProjectEventPayload
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			w.deadLetter(ctx, msg, reasonUnmarshal, err.Error())
			continue
		}
		if err := ValidateProjectEventPayload(p); err != nil {
			w.deadLetter(ctx, msg, reasonValidation, err.Error())
			continue
		}

		events = append(events, &model.ProjectEvent{
			ID:         ulid.Make().String(),
			EventID:    msg.ID,
			ProjectID:  p.ProjectID,
			OwnerID:    p.OwnerID,
			ActorID:    p.ActorID,
			Action:     model.Transition(p.Action),
			OccurredAt: time.UnixMilli(p.OccurredAt).UTC(),
		})
	}
	return events, ids
}

func (w *Worker) deadLetter(ctx context.Context, msg redis.XMessage, reason, detail string) {
	w.logger.Warn("activity_event_dead_lettered", "message_id", msg.ID, "reason", reason, "detail", detail)

	err := w.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: DeadLetterStreamKey,
		MaxLen: deadLetterMaxLen,
		Approx: true,
		Values: map[string]any{
			"original_id":      msg.ID,
			"original_stream":  StreamKey,
			"reason":           reason,
			"detail":           detail,
			"payload":          fmt.Sprint(msg.Values["payload"]),
			"dead_lettered_at": time.Now().UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		w.logger.Error("activity_dead_letter_write_failed", "message_id", msg.ID, "error", err)
	}
	w.metrics.IncActivityEventProcessed("dead_lettered")
}

// persist stores a batch, retrying with exponential backoff.
// persist writes events under writeCtx and waits between attempts under ctx.
func (w *Worker) persist(ctx, writeCtx context.Context, events []*model.ProjectEvent) error {
	var err error
	for attempt := 1; attempt <= w.cfg.MaxAttempts; attempt++ {
		start := time.Now()
		if err = w.repo.BulkInsert(writeCtx, events); err == nil {
			w.recordBatch(events, time.Since(start))
			return nil
		}
		if attempt == w.cfg.MaxAttempts {
			break
		}

		backoff := w.cfg.RetryBase << attempt
		w.logger.Warn("activity_batch_retry",
			"attempt", attempt,
			"batch_size", len(events),
			"backoff_ms", backoff.Milliseconds(),
			"error", err,
		)
		if !sleepCtx(ctx, backoff) {
			return ctx.Err()
		}
	}

	w.logger.Error("activity_batch_failed", "batch_size", len(events), "first_event_id", events[0].EventID, "error", err)
	for range events {
		w.metrics.IncActivityEventProcessed("failed")
	}
	return fmt.Errorf("bulk insert: %w", err)
}

func (w *Worker) recordBatch(events []*model.ProjectEvent, took time.Duration) {
	w.logger.Debug("activity_batch_stored", "batch_size", len(events), "duration_ms", took.Milliseconds())
	w.metrics.ObserveActivityBatchSize(len(events))
	w.metrics.ObserveActivityBatchDuration(took)
	for _, e := range events {
		w.metrics.IncActivityEventProcessed("success")
		w.metrics.ObserveActivityIngestLag(time.Since(e.OccurredAt))
	}
}

func (w *Worker) ack(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := w.redis.XAck(ctx, StreamKey, ConsumerGroup, ids...).Err(); err != nil {
		return fmt.Errorf("xack: %w", err)
	}
	return nil
}

func (w *Worker) refreshDepth(ctx context.Context) {
	if w.cfg.DepthInterval <= 0 || time.Now().Before(w.nextDepth) {
		return
	}
	w.nextDepth = time.Now().Add(w.cfg.DepthInterval)

	groups, err := w.redis.XInfoGroups(ctx, StreamKey).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			w.logger.Warn("activity_depth_unavailable", "error", err)
		}
		return
	}
	for _, g := range groups {
		if g.Name == ConsumerGroup {
			w.metrics.SetActivityQueueDepth(g.Pending + g.Lag)
			return
		}
	}
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func isConsumerGroupExistsError(err error) bool {
	return err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP")
}

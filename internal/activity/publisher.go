// Package activity records project lifecycle transitions through a Redis stream.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
)

const (
	// StreamKey is the Redis stream for project events.
	StreamKey = "stream:project_events"

	// DeadLetterStreamKey is the Redis stream for poison messages.
	DeadLetterStreamKey = "stream:project_events:dlq"

	// MaxStreamLen is the approximate max length of the stream.
	MaxStreamLen = 100000

	// PublishTimeout is the max time to wait for Redis publish.
	PublishTimeout = 250 * time.Millisecond
)

// ProjectEventPayload is the compact event format for the Redis stream.
type ProjectEventPayload struct {
	ProjectID  string `json:"pid"`
	OwnerID    string `json:"oid"`
	ActorID    string `json:"aid"`
	Action     string `json:"a"`
	OccurredAt int64  `json:"t"` // Unix milliseconds
}

// NewPayload describes a transition performed by actorID on project.
func NewPayload(project *model.Project, actorID string, action model.Transition, at time.Time) ProjectEventPayload {
	return ProjectEventPayload{
		ProjectID:  project.ID,
		OwnerID:    project.OwnerID,
		ActorID:    actorID,
		Action:     string(action),
		OccurredAt: at.UnixMilli(),
	}
}

// Publisher enqueues project events to the Redis stream.
type Publisher struct {
	redis   *redis.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewPublisher creates a new activity event publisher.
func NewPublisher(client *redis.Client, logger *slog.Logger, recorder metrics.Recorder) *Publisher {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Publisher{
		redis:   client,
		logger:  logger.With("component", "activity.publisher"),
		metrics: recorder,
	}
}

// Publish adds a project event to the stream synchronously.
func (p *Publisher) Publish(ctx context.Context, event ProjectEventPayload) (string, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("marshal event: %w", err)
	}

	result, err := p.redis.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey,
		MaxLen: MaxStreamLen,
		Approx: true,
		ID:     "*",
		Values: map[string]interface{}{
			"payload": string(data),
		},
	}).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}

	return result, nil
}

// PublishAsync publishes without blocking the request path.
// Errors are logged and counted but never returned.
func (p *Publisher) PublishAsync(event ProjectEventPayload) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), PublishTimeout)
		defer cancel()

		streamID, err := p.Publish(ctx, event)
		if err != nil {
			p.logger.Warn("failed to publish project event",
				"project_id", event.ProjectID,
				"action", event.Action,
				"error", err,
			)
			p.metrics.IncActivityEventPublished("dropped")
			return
		}

		p.logger.Debug("project event published",
			"project_id", event.ProjectID,
			"action", event.Action,
			"stream_id", streamID,
		)
		p.metrics.IncActivityEventPublished("success")
	}()
}

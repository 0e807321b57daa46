package model

import "time"

// ProjectEvent is one entry of a project's lifecycle audit trail.
type ProjectEvent struct {
	ID      string `json:"id"`       // ULID (time-sortable)
	EventID string `json:"event_id"` // Idempotency key (Redis stream ID)

	ProjectID string     `json:"project_id"`
	OwnerID   string     `json:"owner_id"`
	ActorID   string     `json:"actor_id"`
	Action    Transition `json:"action"`

	OccurredAt time.Time `json:"occurred_at"`
	CreatedAt  time.Time `json:"created_at"` // DB insertion time
}

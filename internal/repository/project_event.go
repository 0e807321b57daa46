package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/folio/folio/internal/model"
)

// ProjectEventRepository provides database access for the project activity trail.
type ProjectEventRepository struct {
	repo *Repository
}

// NewProjectEventRepository creates a new ProjectEventRepository.
func NewProjectEventRepository(repo *Repository) *ProjectEventRepository {
	return &ProjectEventRepository{repo: repo}
}

// BulkInsert inserts events idempotently; replays of the same stream entry are ignored.
func (r *ProjectEventRepository) BulkInsert(ctx context.Context, events []*model.ProjectEvent) error {
	if len(events) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	query := `
		INSERT INTO project_events (
			id, event_id, project_id, owner_id, actor_id, action, occurred_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (event_id) DO NOTHING
	`

	for _, event := range events {
		batch.Queue(query,
			event.ID,
			event.EventID,
			event.ProjectID,
			event.OwnerID,
			event.ActorID,
			string(event.Action),
			event.OccurredAt,
		)
	}

	results := r.repo.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(events); i++ {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert event %d: %w", i, err)
		}
	}

	return nil
}

// ListByProject returns a project's events, oldest first.
func (r *ProjectEventRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]*model.ProjectEvent, error) {
	query := `
		SELECT id, event_id, project_id, owner_id, actor_id, action, occurred_at, created_at
		FROM project_events
		WHERE project_id = $1
		ORDER BY occurred_at ASC, id ASC
		LIMIT $2
	`

	rows, err := r.repo.pool.Query(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list project events: %w", err)
	}
	defer rows.Close()

	events := make([]*model.ProjectEvent, 0)
	for rows.Next() {
		var event model.ProjectEvent
		var action string
		if err := rows.Scan(
			&event.ID,
			&event.EventID,
			&event.ProjectID,
			&event.OwnerID,
			&event.ActorID,
			&action,
			&event.OccurredAt,
			&event.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan project event: %w", err)
		}
		event.Action = model.Transition(action)
		events = append(events, &event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project events: %w", err)
	}

	return events, nil
}

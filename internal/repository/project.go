package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"

	"github.com/folio/folio/internal/model"
)

// Common errors for project repository operations.
var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrProjectAlreadyDeleted = errors.New("project already deleted")
	ErrProjectExists         = errors.New("project id already exists")
)

// ProjectFilter selects projects for listing.
type ProjectFilter struct {
	// OwnerID restricts to one owner when set.
	OwnerID string
	// State selects active or soft-deleted projects.
	State model.ProjectState
	// Technology restricts to projects tagged with it when set.
	Technology string
}

const projectColumns = `id, owner_id, name, description, technologies, github_link, demo_link, image, created_at, updated_at, deleted_at`

// CreateProject inserts a new project.
func (r *Repository) CreateProject(ctx context.Context, project *model.Project) error {
	query := `
		INSERT INTO projects (id, owner_id, name, description, technologies, github_link, demo_link, image, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		project.ID,
		project.OwnerID,
		project.Name,
		project.Description,
		pq.Array(project.Technologies),
		project.GithubLink,
		project.DemoLink,
		project.Image,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		if _, ok := uniqueConstraint(err); ok {
			return ErrProjectExists
		}
		return fmt.Errorf("failed to create project: %w", err)
	}

	return nil
}

// GetProjectByID retrieves a project in any non-purged state.
func (r *Repository) GetProjectByID(ctx context.Context, id string) (*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	project, err := scanProject(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project by ID: %w", err)
	}

	return project, nil
}

// ListProjects returns projects matching filter, newest first.
func (r *Repository) ListProjects(ctx context.Context, filter ProjectFilter) ([]*model.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE `
	if filter.State == model.ProjectStateSoftDeleted {
		query += `deleted_at IS NOT NULL`
	} else {
		query += `deleted_at IS NULL`
	}

	args := []any{}
	argIndex := 1

	if filter.OwnerID != "" {
		query += fmt.Sprintf(" AND owner_id = $%d", argIndex)
		args = append(args, filter.OwnerID)
		argIndex++
	}

	if filter.Technology != "" {
		query += fmt.Sprintf(" AND $%d = ANY(technologies)", argIndex)
		args = append(args, filter.Technology)
		argIndex++
	}

	if filter.State == model.ProjectStateSoftDeleted {
		query += " ORDER BY deleted_at DESC, id DESC"
	} else {
		query += " ORDER BY created_at DESC, id DESC"
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]*model.Project, 0)
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// UpdateProject overwrites the mutable fields of a project in either state.
// owner_id and deleted_at are never touched.
func (r *Repository) UpdateProject(ctx context.Context, project *model.Project) error {
	query := `
		UPDATE projects
		SET name = $2, description = $3, technologies = $4, github_link = $5, demo_link = $6, image = $7, updated_at = $8
		WHERE id = $1
		RETURNING ` + projectColumns

	updated, err := scanProject(r.pool.QueryRow(ctx, query,
		project.ID,
		project.Name,
		project.Description,
		pq.Array(project.Technologies),
		project.GithubLink,
		project.DemoLink,
		project.Image,
		project.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to update project: %w", err)
	}

	*project = *updated
	return nil
}

// SoftDeleteProject marks an active project deleted in a single conditional write.
// Of two racing calls exactly one succeeds; the other gets ErrProjectAlreadyDeleted.
func (r *Repository) SoftDeleteProject(ctx context.Context, id string, at time.Time) (*model.Project, error) {
	query := `
		UPDATE projects
		SET deleted_at = $2, updated_at = $2
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING ` + projectColumns

	project, err := scanProject(r.pool.QueryRow(ctx, query, id, at))
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to soft delete project: %w", err)
	}

	exists, err := r.projectExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrProjectAlreadyDeleted
	}
	return nil, ErrProjectNotFound
}

// RestoreProject clears deleted_at and reports whether the row was deleted
// when the write took its lock. Restoring an active project is a no-op write.
func (r *Repository) RestoreProject(ctx context.Context, id string, at time.Time) (*model.Project, bool, error) {
	query := `
		WITH prev AS (
			SELECT deleted_at FROM projects WHERE id = $1 FOR UPDATE
		)
		UPDATE projects
		SET deleted_at = NULL,
		    updated_at = CASE WHEN deleted_at IS NULL THEN updated_at ELSE $2 END
		WHERE id = $1
		RETURNING ` + projectColumns + `, (SELECT deleted_at IS NOT NULL FROM prev)`

	var wasDeleted bool
	project, err := scanProject(trailingColumns{Row: r.pool.QueryRow(ctx, query, id, at), dest: []any{&wasDeleted}})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, ErrProjectNotFound
		}
		return nil, false, fmt.Errorf("failed to restore project: %w", err)
	}

	return project, wasDeleted, nil
}

// HardDeleteProject permanently removes a project in any state.
func (r *Repository) HardDeleteProject(ctx context.Context, id string) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to hard delete project: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrProjectNotFound
	}

	return nil
}

func (r *Repository) projectExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM projects WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check project existence: %w", err)
	}
	return exists, nil
}

// trailingColumns scans extra columns selected after projectColumns.
type trailingColumns struct {
	pgx.Row
	dest []any
}

func (t trailingColumns) Scan(dest ...any) error {
	return t.Row.Scan(append(dest, t.dest...)...)
}

// scanProject scans a single row into a Project model.
func scanProject(row pgx.Row) (*model.Project, error) {
	var project model.Project
	var technologies []string
	err := row.Scan(
		&project.ID,
		&project.OwnerID,
		&project.Name,
		&project.Description,
		pq.Array(&technologies),
		&project.GithubLink,
		&project.DemoLink,
		&project.Image,
		&project.CreatedAt,
		&project.UpdatedAt,
		&project.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if technologies == nil {
		technologies = []string{}
	}
	project.Technologies = technologies
	return &project, nil
}

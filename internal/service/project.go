package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/folio/folio/internal/activity"
	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/cache"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository"
)

const maxHistoryEvents = 500

// ProjectStore persists projects. Implementations return the repository
// sentinel errors.
type ProjectStore interface {
	CreateProject(ctx context.Context, project *model.Project) error
	GetProjectByID(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context, filter repository.ProjectFilter) ([]*model.Project, error)
	UpdateProject(ctx context.Context, project *model.Project) error
	SoftDeleteProject(ctx context.Context, id string, at time.Time) (*model.Project, error)
	// RestoreProject reports whether the project was deleted when the write applied.
	RestoreProject(ctx context.Context, id string, at time.Time) (*model.Project, bool, error)
	HardDeleteProject(ctx context.Context, id string) error
}

// ProjectCache is the read-through cache in front of the store.
type ProjectCache interface {
	GetProject(ctx context.Context, id string) (*model.Project, error)
	SetProject(ctx context.Context, project *model.Project) error
	DeleteProject(ctx context.Context, id string) error
	IsNegativelyCached(ctx context.Context, id string) (bool, error)
	SetNegativeCache(ctx context.Context, id string) error
}

// EventPublisher receives one event per successful transition.
type EventPublisher interface {
	PublishAsync(event activity.ProjectEventPayload)
}

// EventLister reads a project's persisted activity trail.
type EventLister interface {
	ListByProject(ctx context.Context, projectID string, limit int) ([]*model.ProjectEvent, error)
}

// ProjectService handles project business logic.
type ProjectService struct {
	store     ProjectStore
	cache     ProjectCache
	publisher EventPublisher
	history   EventLister
	logger    *slog.Logger
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewProjectService creates a new ProjectService. cache, publisher and
// history may be nil.
func NewProjectService(store ProjectStore, cache ProjectCache, publisher EventPublisher, history EventLister, logger *slog.Logger, recorder metrics.Recorder) *ProjectService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProjectService{
		store:     store,
		cache:     cache,
		publisher: publisher,
		history:   history,
		logger:    logger.With("component", "service.project"),
		metrics:   recorder,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListProjects returns all active projects, optionally filtered by technology.
func (s *ProjectService) ListProjects(ctx context.Context, technology string) ([]*model.Project, error) {
	return s.store.ListProjects(ctx, repository.ProjectFilter{
		State:      model.ProjectStateActive,
		Technology: technology,
	})
}

// ListMine returns the caller's active projects.
func (s *ProjectService) ListMine(ctx context.Context, caller *model.Caller) ([]*model.Project, error) {
	if caller == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonMissing}
	}
	return s.store.ListProjects(ctx, repository.ProjectFilter{
		OwnerID: auth.CanonicalID(caller.ID),
		State:   model.ProjectStateActive,
	})
}

// ListDeleted returns the caller's soft-deleted projects.
func (s *ProjectService) ListDeleted(ctx context.Context, caller *model.Caller) ([]*model.Project, error) {
	if caller == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonMissing}
	}
	return s.store.ListProjects(ctx, repository.ProjectFilter{
		OwnerID: auth.CanonicalID(caller.ID),
		State:   model.ProjectStateSoftDeleted,
	})
}

// GetProject returns a project in any non-purged state. Anonymous callers
// may read it; an authenticated caller must own it.
func (s *ProjectService) GetProject(ctx context.Context, caller *model.Caller, id string) (*model.Project, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveProjectLookupDuration(time.Since(start))
	}()

	project, err := s.lookup(ctx, id)
	if err != nil {
		return nil, err
	}

	if caller != nil {
		if err := s.authorize(caller, project, auth.ActionView); err != nil {
			return nil, err
		}
	}

	return project, nil
}

// CreateProject creates a new active project owned by caller.
func (s *ProjectService) CreateProject(ctx context.Context, caller *model.Caller, input ProjectInput) (*model.Project, error) {
	if caller == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonMissing}
	}

	valid, err := ValidateProjectInput(input)
	if err != nil {
		return nil, err
	}

	now := s.now()
	project := &model.Project{
		ID:        ulid.Make().String(),
		OwnerID:   auth.CanonicalID(caller.ID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	applyValidated(project, valid)

	if err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.metrics.IncProjectCreated()
	s.logger.Info("project_created",
		"project_id", project.ID,
		"owner_id", project.OwnerID,
	)
	s.publish(project, caller, model.TransitionCreate, now)

	return project, nil
}

// UpdateProject overwrites the mutable fields of an owned project. Both
// active and soft-deleted projects can be updated; the state is unchanged.
func (s *ProjectService) UpdateProject(ctx context.Context, caller *model.Caller, id string, input ProjectInput) (*model.Project, error) {
	if caller == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonMissing}
	}

	valid, err := ValidateProjectInput(input)
	if err != nil {
		return nil, err
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, project, auth.ActionUpdate); err != nil {
		return nil, err
	}
	if err := checkTransition(project, model.TransitionUpdate); err != nil {
		return nil, err
	}

	now := s.now()
	applyValidated(project, valid)
	project.UpdatedAt = now

	if err := s.store.UpdateProject(ctx, project); err != nil {
		return nil, mapStoreError(err, "failed to update project")
	}

	s.metrics.IncProjectUpdated()
	s.invalidate(ctx, id)
	s.logger.Info("project_updated",
		"project_id", project.ID,
		"owner_id", project.OwnerID,
	)
	s.publish(project, caller, model.TransitionUpdate, now)

	return project, nil
}

// SoftDeleteProject moves an owned active project to the soft-deleted state.
// A second call reports ErrAlreadyDeleted.
func (s *ProjectService) SoftDeleteProject(ctx context.Context, caller *model.Caller, id string) (*model.Project, error) {
	if caller == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonMissing}
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, project, auth.ActionSoftDelete); err != nil {
		return nil, err
	}
	if err := checkTransition(project, model.TransitionSoftDelete); err != nil {
		return nil, err
	}

	now := s.now()
	deleted, err := s.store.SoftDeleteProject(ctx, id, now)
	if err != nil {
		return nil, mapStoreError(err, "failed to soft delete project")
	}

	s.metrics.IncProjectSoftDeleted()
	s.invalidate(ctx, id)
	s.logger.Info("project_soft_deleted",
		"project_id", deleted.ID,
		"owner_id", deleted.OwnerID,
	)
	s.publish(deleted, caller, model.TransitionSoftDelete, now)

	return deleted, nil
}

// RestoreProject returns an owned project to the active state. Restoring a
// project that is already active succeeds without changing it.
func (s *ProjectService) RestoreProject(ctx context.Context, caller *model.Caller, id string) (*model.Project, error) {
	if caller == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonMissing}
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, project, auth.ActionRestore); err != nil {
		return nil, err
	}
	if err := checkTransition(project, model.TransitionRestore); err != nil {
		return nil, err
	}

	now := s.now()
	restored, wasDeleted, err := s.store.RestoreProject(ctx, id, now)
	if err != nil {
		return nil, mapStoreError(err, "failed to restore project")
	}

	if !wasDeleted {
		s.logger.Info("project_restore_noop",
			"project_id", restored.ID,
			"owner_id", restored.OwnerID,
		)
		return restored, nil
	}

	s.metrics.IncProjectRestored()
	s.invalidate(ctx, id)
	s.logger.Info("project_restored",
		"project_id", restored.ID,
		"owner_id", restored.OwnerID,
	)
	s.publish(restored, caller, model.TransitionRestore, now)

	return restored, nil
}

// HardDeleteProject permanently removes an owned project in any state and
// returns its last persisted form.
func (s *ProjectService) HardDeleteProject(ctx context.Context, caller *model.Caller, id string) (*model.Project, error) {
	if caller == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonMissing}
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, project, auth.ActionHardDelete); err != nil {
		return nil, err
	}
	if err := checkTransition(project, model.TransitionHardDelete); err != nil {
		return nil, err
	}

	if err := s.store.HardDeleteProject(ctx, id); err != nil {
		return nil, mapStoreError(err, "failed to hard delete project")
	}

	s.metrics.IncProjectHardDeleted()
	s.invalidate(ctx, id)
	s.logger.Info("project_purged",
		"project_id", project.ID,
		"owner_id", project.OwnerID,
	)
	s.publish(project, caller, model.TransitionHardDelete, s.now())

	return project, nil
}

// ProjectHistory returns the lifecycle trail of an owned project, oldest first.
func (s *ProjectService) ProjectHistory(ctx context.Context, caller *model.Caller, id string) ([]*model.ProjectEvent, error) {
	if caller == nil {
		return nil, &auth.AuthenticationError{Reason: auth.ReasonMissing}
	}

	project, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(caller, project, auth.ActionHistory); err != nil {
		return nil, err
	}

	if s.history == nil {
		return []*model.ProjectEvent{}, nil
	}
	events, err := s.history.ListByProject(ctx, id, maxHistoryEvents)
	if err != nil {
		return nil, fmt.Errorf("failed to list project history: %w", err)
	}
	return events, nil
}

// lookup is the cache-first read used by GetProject.
func (s *ProjectService) lookup(ctx context.Context, id string) (*model.Project, error) {
	if s.cache == nil {
		return s.load(ctx, id)
	}

	cached, err := s.cache.GetProject(ctx, id)
	if err == nil {
		s.metrics.IncProjectCacheHit()
		return cached, nil
	}

	if errors.Is(err, cache.ErrCacheMiss) {
		s.metrics.IncProjectCacheMiss()
		if negative, _ := s.cache.IsNegativelyCached(ctx, id); negative {
			return nil, ErrProjectNotFound
		}
	} else {
		s.logger.Warn("project cache read failed", "project_id", id, "error", err)
	}

	project, err := s.load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			if cerr := s.cache.SetNegativeCache(ctx, id); cerr != nil {
				s.logger.Warn("failed to set negative cache", "project_id", id, "error", cerr)
			}
		}
		return nil, err
	}

	if err := s.cache.SetProject(ctx, project); err != nil {
		s.logger.Warn("failed to cache project", "project_id", id, "error", err)
	}
	return project, nil
}

// load reads straight from the store.
func (s *ProjectService) load(ctx context.Context, id string) (*model.Project, error) {
	project, err := s.store.GetProjectByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, "failed to get project")
	}
	return project, nil
}

func (s *ProjectService) authorize(caller *model.Caller, project *model.Project, action auth.Action) error {
	err := auth.Authorize(caller, project.OwnerID, action)
	if err == nil {
		return nil
	}

	var denied *auth.AuthorizationError
	if errors.As(err, &denied) {
		s.metrics.IncOwnershipDenied()
		s.logger.Warn("project_access_denied",
			"project_id", project.ID,
			"caller_id", caller.ID,
			"action", string(action),
		)
	}
	return err
}

// invalidate drops the cached copy. Stale reads expire with the TTL, so a
// failure is only logged.
func (s *ProjectService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteProject(ctx, id); err != nil {
		s.logger.Warn("failed to invalidate project cache", "project_id", id, "error", err)
	}
}

func (s *ProjectService) publish(project *model.Project, caller *model.Caller, transition model.Transition, at time.Time) {
	if s.publisher == nil {
		return
	}
	s.publisher.PublishAsync(activity.NewPayload(project, auth.CanonicalID(caller.ID), transition, at))
}

func applyValidated(project *model.Project, valid ValidatedProject) {
	project.Name = valid.Name
	project.Description = valid.Description
	project.Technologies = valid.Technologies
	project.GithubLink = valid.GithubLink
	project.DemoLink = valid.DemoLink
	project.Image = valid.Image
}

// mapStoreError translates repository sentinels into service errors.
func mapStoreError(err error, op string) error {
	switch {
	case errors.Is(err, repository.ErrProjectNotFound):
		return ErrProjectNotFound
	case errors.Is(err, repository.ErrProjectAlreadyDeleted):
		return ErrAlreadyDeleted
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

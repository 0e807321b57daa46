// Package memstore is an in-memory implementation of the repository
// contracts used by tests. It reproduces the conditional-write semantics and
// sentinel errors of package repository.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository"
)

// Store holds projects, users and project events behind one mutex.
type Store struct {
	mu       sync.Mutex
	projects map[string]*model.Project
	users    map[string]*model.User
	events   []*model.ProjectEvent
	eventIDs map[string]struct{}
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		projects: make(map[string]*model.Project),
		users:    make(map[string]*model.User),
		eventIDs: make(map[string]struct{}),
	}
}

// CreateProject inserts a new project.
func (s *Store) CreateProject(_ context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[project.ID]; exists {
		return repository.ErrProjectExists
	}
	stored := project.Clone()
	if stored.Technologies == nil {
		stored.Technologies = []string{}
	}
	s.projects[project.ID] = stored
	return nil
}

// GetProjectByID retrieves a project in any non-purged state.
func (s *Store) GetProjectByID(_ context.Context, id string) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	return project.Clone(), nil
}

// ListProjects returns projects matching filter, newest first.
func (s *Store) ListProjects(_ context.Context, filter repository.ProjectFilter) ([]*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wantDeleted := filter.State == model.ProjectStateSoftDeleted
	projects := make([]*model.Project, 0)
	for _, project := range s.projects {
		if project.IsDeleted() != wantDeleted {
			continue
		}
		if filter.OwnerID != "" && project.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Technology != "" && !contains(project.Technologies, filter.Technology) {
			continue
		}
		projects = append(projects, project.Clone())
	}

	sort.Slice(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if wantDeleted && !a.DeletedAt.Equal(*b.DeletedAt) {
			return a.DeletedAt.After(*b.DeletedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return projects, nil
}

// UpdateProject overwrites mutable fields; owner and deleted_at are kept.
func (s *Store) UpdateProject(_ context.Context, project *model.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.projects[project.ID]
	if !ok {
		return repository.ErrProjectNotFound
	}
	updated := project.Clone()
	updated.OwnerID = stored.OwnerID
	updated.CreatedAt = stored.CreatedAt
	updated.DeletedAt = stored.DeletedAt
	if updated.Technologies == nil {
		updated.Technologies = []string{}
	}
	s.projects[project.ID] = updated
	*project = *updated.Clone()
	return nil
}

// SoftDeleteProject marks an active project deleted.
func (s *Store) SoftDeleteProject(_ context.Context, id string, at time.Time) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[id]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	if project.IsDeleted() {
		return nil, repository.ErrProjectAlreadyDeleted
	}
	deletedAt := at
	project.DeletedAt = &deletedAt
	project.UpdatedAt = at
	return project.Clone(), nil
}

// RestoreProject clears deleted_at and reports whether the project was
// deleted before the call. Restoring an active project changes nothing.
func (s *Store) RestoreProject(_ context.Context, id string, at time.Time) (*model.Project, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	project, ok := s.projects[id]
	if !ok {
		return nil, false, repository.ErrProjectNotFound
	}
	wasDeleted := project.IsDeleted()
	if wasDeleted {
		project.DeletedAt = nil
		project.UpdatedAt = at
	}
	return project.Clone(), wasDeleted, nil
}

// HardDeleteProject removes a project in any state.
func (s *Store) HardDeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return repository.ErrProjectNotFound
	}
	delete(s.projects, id)
	return nil
}

// CreateUser inserts a user; username and email are unique case-insensitively.
func (s *Store) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, user.Username) {
			return repository.ErrUsernameExists
		}
		if strings.EqualFold(existing.Email, user.Email) {
			return repository.ErrEmailExists
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *Store) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

// GetUserByUsername retrieves a user by username, ignoring case.
func (s *Store) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if strings.EqualFold(user.Username, username) {
			cp := *user
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// UpdatePasswordHash replaces a user's stored hash.
func (s *Store) UpdatePasswordHash(_ context.Context, id, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.PasswordHash = hash
	return nil
}

// BulkInsert appends events, skipping event IDs already stored.
func (s *Store) BulkInsert(_ context.Context, events []*model.ProjectEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, event := range events {
		if _, dup := s.eventIDs[event.EventID]; dup {
			continue
		}
		s.eventIDs[event.EventID] = struct{}{}
		cp := *event
		if cp.CreatedAt.IsZero() {
			cp.CreatedAt = time.Now().UTC()
		}
		s.events = append(s.events, &cp)
	}
	return nil
}

// ListByProject returns a project's events, oldest first.
func (s *Store) ListByProject(_ context.Context, projectID string, limit int) ([]*model.ProjectEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]*model.ProjectEvent, 0)
	for _, event := range s.events {
		if event.ProjectID != projectID {
			continue
		}
		cp := *event
		events = append(events, &cp)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredAt.Before(events[j].OccurredAt)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// Package model defines domain entities for the application.
package model

import "time"

// ProjectState is the lifecycle state of a project.
// Purged has no value: a purged project has no record at all.
type ProjectState string

const (
	ProjectStateActive      ProjectState = "active"
	ProjectStateSoftDeleted ProjectState = "deleted"
)

// Transition names a lifecycle operation on a project.
type Transition string

const (
	TransitionCreate     Transition = "create"
	TransitionUpdate     Transition = "update"
	TransitionSoftDelete Transition = "soft_delete"
	TransitionRestore    Transition = "restore"
	TransitionHardDelete Transition = "hard_delete"
)

// Project is a portfolio entry owned by a single user.
type Project struct {
	ID           string     `json:"id"`
	OwnerID      string     `json:"user_id"`
	Name         string     `json:"project_name"`
	Description  *string    `json:"description"`
	Technologies []string   `json:"technologies"`
	GithubLink   *string    `json:"github_link"`
	DemoLink     *string    `json:"demo_link"`
	Image        *string    `json:"image"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at"`
}

// State derives the lifecycle state from DeletedAt.
func (p *Project) State() ProjectState {
	if p.DeletedAt != nil {
		return ProjectStateSoftDeleted
	}
	return ProjectStateActive
}

// IsDeleted reports whether the project is soft-deleted.
func (p *Project) IsDeleted() bool {
	return p.State() == ProjectStateSoftDeleted
}

// Clone returns a deep copy so callers can mutate without aliasing cached values.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Description = cloneString(p.Description)
	cp.GithubLink = cloneString(p.GithubLink)
	cp.DemoLink = cloneString(p.DemoLink)
	cp.Image = cloneString(p.Image)
	if p.Technologies != nil {
		cp.Technologies = append([]string(nil), p.Technologies...)
	}
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		cp.DeletedAt = &t
	}
	return &cp
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

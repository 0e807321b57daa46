package dto

import (
	"time"

	"github.com/folio/folio/internal/model"
)

// ProjectRequest is the request body for creating or replacing a project.
type ProjectRequest struct {
	ProjectName  string   `json:"project_name"`
	Description  *string  `json:"description,omitempty"`
	Technologies []string `json:"technologies"`
	GithubLink   *string  `json:"github_link,omitempty"`
	DemoLink     *string  `json:"demo_link,omitempty"`
	Image        *string  `json:"image,omitempty"`
}

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	ProjectName  string     `json:"project_name"`
	Description  *string    `json:"description"`
	Technologies []string   `json:"technologies"`
	GithubLink   *string    `json:"github_link"`
	DemoLink     *string    `json:"demo_link"`
	Image        *string    `json:"image"`
	Status       string     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at"`
}

// ToProjectResponse converts a model.Project to ProjectResponse.
func ToProjectResponse(p *model.Project) ProjectResponse {
	technologies := p.Technologies
	if technologies == nil {
		technologies = []string{}
	}
	return ProjectResponse{
		ID:           p.ID,
		UserID:       p.OwnerID,
		ProjectName:  p.Name,
		Description:  p.Description,
		Technologies: technologies,
		GithubLink:   p.GithubLink,
		DemoLink:     p.DemoLink,
		Image:        p.Image,
		Status:       string(p.State()),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
		DeletedAt:    p.DeletedAt,
	}
}

// ToProjectResponses converts a slice, never returning nil.
func ToProjectResponses(projects []*model.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		out = append(out, ToProjectResponse(p))
	}
	return out
}

// ProjectEventResponse is one entry of a project's history.
type ProjectEventResponse struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ToProjectEventResponses converts history entries for the API.
func ToProjectEventResponses(events []*model.ProjectEvent) []ProjectEventResponse {
	out := make([]ProjectEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, ProjectEventResponse{
			ID:         e.ID,
			ProjectID:  e.ProjectID,
			ActorID:    e.ActorID,
			Action:     string(e.Action),
			OccurredAt: e.OccurredAt,
		})
	}
	return out
}

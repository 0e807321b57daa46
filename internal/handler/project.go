package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/handler/dto"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/service"
)

type projectInputKey struct{}

// ProjectHandler handles HTTP requests for project operations.
type ProjectHandler struct {
	svc     *service.ProjectService
	respond *Responder
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(svc *service.ProjectService, respond *Responder) *ProjectHandler {
	return &ProjectHandler{
		svc:     svc,
		respond: respond,
	}
}

// List handles GET /api/projects.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListProjects(r.Context(), r.URL.Query().Get("technology"))
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error retrieving projects")
		return
	}
	h.respond.ok(w, http.StatusOK, "Projects retrieved successfully", dto.ToProjectResponses(projects))
}

// ListMine handles GET /api/projects/mine.
func (h *ProjectHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListMine(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error retrieving user projects")
		return
	}
	h.respond.ok(w, http.StatusOK, "User projects retrieved successfully", dto.ToProjectResponses(projects))
}

// ListDeleted handles GET /api/projects/deleted.
func (h *ProjectHandler) ListDeleted(w http.ResponseWriter, r *http.Request) {
	projects, err := h.svc.ListDeleted(r.Context(), auth.CallerFromContext(r.Context()))
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error retrieving deleted projects")
		return
	}
	h.respond.ok(w, http.StatusOK, "Deleted projects retrieved successfully", dto.ToProjectResponses(projects))
}

// Get handles GET /api/projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.GetProject(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error retrieving project")
		return
	}
	h.respond.ok(w, http.StatusOK, "Project retrieved successfully", dto.ToProjectResponse(project))
}

// Create handles POST /api/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.projectInput(w, r)
	if !ok {
		return
	}

	project, err := h.svc.CreateProject(r.Context(), auth.CallerFromContext(r.Context()), input)
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error creating project")
		return
	}
	h.respond.ok(w, http.StatusCreated, "Project created successfully", dto.ToProjectResponse(project))
}

// Update handles PUT /api/projects/{id}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	input, ok := h.projectInput(w, r)
	if !ok {
		return
	}

	project, err := h.svc.UpdateProject(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "id"), input)
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error updating project")
		return
	}
	h.respond.ok(w, http.StatusOK, "Project updated successfully", dto.ToProjectResponse(project))
}

// SoftDelete handles DELETE /api/projects/{id}.
func (h *ProjectHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.SoftDeleteProject(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error soft-deleting project")
		return
	}
	h.respond.ok(w, http.StatusOK, "Project soft-deleted successfully", dto.ToProjectResponse(project))
}

// Restore handles PATCH /api/projects/{id}/restore.
func (h *ProjectHandler) Restore(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.RestoreProject(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error restoring project")
		return
	}
	h.respond.ok(w, http.StatusOK, "Project restored successfully", dto.ToProjectResponse(project))
}

// HardDelete handles DELETE /api/projects/{id}/permanent.
// The response carries the project as it was before removal.
func (h *ProjectHandler) HardDelete(w http.ResponseWriter, r *http.Request) {
	project, err := h.svc.HardDeleteProject(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error permanently deleting project")
		return
	}
	h.respond.ok(w, http.StatusOK, "Project permanently deleted", dto.ToProjectResponse(project))
}

// History handles GET /api/projects/{id}/history.
func (h *ProjectHandler) History(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.ProjectHistory(r.Context(), auth.CallerFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.respond.handleServiceError(w, r, err, "Error retrieving project history")
		return
	}
	h.respond.ok(w, http.StatusOK, "Project history retrieved successfully", dto.ToProjectEventResponses(events))
}

// ValidBody decodes and validates a project body ahead of authentication and
// hands the input to the route handler through the request context.
func (h *ProjectHandler) ValidBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		input, ok := h.decodeProject(w, r)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), projectInputKey{}, input)))
	})
}

// projectInput returns the body checked by ValidBody, decoding it here when
// the route does not mount that step.
func (h *ProjectHandler) projectInput(w http.ResponseWriter, r *http.Request) (service.ProjectInput, bool) {
	if input, ok := r.Context().Value(projectInputKey{}).(service.ProjectInput); ok {
		return input, true
	}
	return h.decodeProject(w, r)
}

func (h *ProjectHandler) decodeProject(w http.ResponseWriter, r *http.Request) (service.ProjectInput, bool) {
	req, mistyped, err := dto.DecodeProjectRequest(r.Body)
	if err != nil {
		h.respond.invalidBody(w, err)
		return service.ProjectInput{}, false
	}

	input := toProjectInput(req)
	if err := projectViolations(input, mistyped); err != nil {
		h.respond.handleServiceError(w, r, err, "Invalid request body")
		return service.ProjectInput{}, false
	}
	return input, true
}

// projectViolations runs the project validator and folds in fields that had
// the wrong JSON type. A mistyped field reports only its type error.
func projectViolations(input service.ProjectInput, mistyped []model.FieldError) error {
	_, err := service.ValidateProjectInput(input)
	if len(mistyped) == 0 {
		return err
	}

	var rules []model.FieldError
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		rules = verr.Errors
	}

	merged := make([]model.FieldError, 0, len(mistyped)+len(rules))
	for _, field := range dto.ProjectFields {
		typed := true
		for _, fe := range mistyped {
			if fe.Field == field {
				merged = append(merged, fe)
				typed = false
			}
		}
		if !typed {
			continue
		}
		for _, fe := range rules {
			if fe.Field == field || strings.HasPrefix(fe.Field, field+"[") {
				merged = append(merged, fe)
			}
		}
	}
	return &service.ValidationError{Errors: merged}
}

func toProjectInput(req dto.ProjectRequest) service.ProjectInput {
	return service.ProjectInput{
		Name:         req.ProjectName,
		Description:  req.Description,
		Technologies: req.Technologies,
		GithubLink:   req.GithubLink,
		DemoLink:     req.DemoLink,
		Image:        req.Image,
	}
}

package dto

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/folio/folio/internal/model"
)

// ErrNotObject is returned when a project body is valid JSON but not an object.
var ErrNotObject = errors.New("request body must be a JSON object")

// ProjectFields lists the project body fields in the order violations are reported.
var ProjectFields = []string{"project_name", "description", "technologies", "github_link", "demo_link", "image"}

var projectTypeMessages = map[string]string{
	"project_name": "Project name must be a string",
	"description":  "Description must be a string",
	"technologies": "Technologies must be an array of strings",
	"github_link":  "GitHub link must be a string",
	"demo_link":    "Demo link must be a string",
	"image":        "Image must be a string",
}

// DecodeProjectRequest reads a project body one field at a time. Only a body
// that is not a JSON object fails outright; a field of the wrong JSON type is
// reported as a FieldError and left at its zero value.
func DecodeProjectRequest(r io.Reader) (ProjectRequest, []model.FieldError, error) {
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return ProjectRequest{}, nil, err
	}
	if raw == nil {
		return ProjectRequest{}, nil, ErrNotObject
	}

	var req ProjectRequest
	targets := map[string]any{
		"project_name": &req.ProjectName,
		"description":  &req.Description,
		"technologies": &req.Technologies,
		"github_link":  &req.GithubLink,
		"demo_link":    &req.DemoLink,
		"image":        &req.Image,
	}

	var mistyped []model.FieldError
	for _, field := range ProjectFields {
		value, ok := raw[field]
		if !ok {
			continue
		}
		if err := json.Unmarshal(value, targets[field]); err != nil {
			var got any
			_ = json.Unmarshal(value, &got)
			mistyped = append(mistyped, model.FieldError{
				Field:   field,
				Message: projectTypeMessages[field],
				Value:   got,
			})
		}
	}
	return req, mistyped, nil
}

// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"encoding/json"
	"net/http"

	"github.com/folio/folio/internal/model"
)

// Envelope is the shape of every JSON response body.
type Envelope struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Data    any                `json:"data,omitempty"`
	Errors  []model.FieldError `json:"errors,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// OK builds a success envelope.
func OK(message string, data any) Envelope {
	return Envelope{Success: true, Message: message, Data: data}
}

// Fail builds a failure envelope.
func Fail(message string) Envelope {
	return Envelope{Success: false, Message: message}
}

// WriteEnvelope writes env as JSON with the given status code.
func WriteEnvelope(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/folio/folio/internal/handler/dto"
)

// Version is reported by the index route.
const Version = "1.0.0"

// Handler serves the routes that belong to no resource.
type Handler struct{}

// New creates a new Handler instance.
func New() *Handler {
	return &Handler{}
}

// Index describes the API.
// GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	dto.WriteEnvelope(w, http.StatusOK, dto.OK("Portfolio API is running", map[string]string{
		"version": Version,
	}))
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	dto.WriteEnvelope(w, http.StatusNotFound, dto.Fail("Route not found"))
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	dto.WriteEnvelope(w, http.StatusMethodNotAllowed, dto.Fail("Method not allowed"))
}

// writeJSON writes a bare JSON body. Only probes use it; everything else
// answers with an envelope.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

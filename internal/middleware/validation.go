package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/folio/folio/internal/handler/dto"
	"github.com/folio/folio/internal/model"
)

// ProjectIDParam is the chi URL parameter holding a project id.
const ProjectIDParam = "id"

// ValidProjectID rejects requests whose {id} path parameter is not a ULID.
// It runs before authentication so malformed ids never reach the verifier.
func ValidProjectID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, ProjectIDParam)
		if !IsProjectID(id) {
			env := dto.Fail("Validation errors")
			env.Errors = []model.FieldError{{
				Field:   ProjectIDParam,
				Message: "Invalid project ID",
				Value:   id,
			}}
			dto.WriteEnvelope(w, http.StatusBadRequest, env)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// IsProjectID reports whether id is a canonical ULID.
func IsProjectID(id string) bool {
	if len(id) != ulid.EncodedSize {
		return false
	}
	_, err := ulid.ParseStrict(id)
	return err == nil
}

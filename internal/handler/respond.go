package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/handler/dto"
	"github.com/folio/folio/internal/middleware"
	"github.com/folio/folio/internal/service"
)

// ResponderConfig controls how much internal detail reaches clients.
type ResponderConfig struct {
	// ExposeErrors fills the envelope's error field on 500 responses.
	ExposeErrors bool
	// ExposeAuthCause fills the error field on 401 responses.
	ExposeAuthCause bool
}

// Responder writes envelopes and maps service errors to status codes.
type Responder struct {
	logger *slog.Logger
	cfg    ResponderConfig
}

// NewResponder creates a new Responder.
func NewResponder(logger *slog.Logger, cfg ResponderConfig) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{logger: logger, cfg: cfg}
}

func (rs *Responder) ok(w http.ResponseWriter, status int, message string, data any) {
	dto.WriteEnvelope(w, status, dto.OK(message, data))
}

func (rs *Responder) fail(w http.ResponseWriter, status int, message string) {
	dto.WriteEnvelope(w, status, dto.Fail(message))
}

// invalidBody answers a body that could not be decoded.
func (rs *Responder) invalidBody(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		rs.fail(w, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	rs.fail(w, http.StatusBadRequest, "Invalid request body")
}

// handleServiceError maps err to a response. internalMessage is the
// operation-specific text used for unexpected failures.
func (rs *Responder) handleServiceError(w http.ResponseWriter, r *http.Request, err error, internalMessage string) {
	var (
		verr    *service.ValidationError
		authErr *auth.AuthenticationError
		denied  *auth.AuthorizationError
	)

	switch {
	case errors.As(err, &verr):
		env := dto.Fail("Validation errors")
		env.Errors = verr.Errors
		dto.WriteEnvelope(w, http.StatusBadRequest, env)
	case errors.As(err, &authErr):
		env := dto.Fail(authErr.Message())
		if rs.cfg.ExposeAuthCause && authErr.Cause != nil {
			env.Error = authErr.Cause.Error()
		}
		dto.WriteEnvelope(w, http.StatusUnauthorized, env)
	case errors.As(err, &denied):
		rs.fail(w, http.StatusForbidden, denied.Message())
	case errors.Is(err, service.ErrProjectNotFound):
		rs.fail(w, http.StatusNotFound, "Project not found")
	case errors.Is(err, service.ErrAlreadyDeleted):
		rs.fail(w, http.StatusBadRequest, "Project is already deleted")
	case errors.Is(err, service.ErrInvalidCredentials):
		rs.fail(w, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, service.ErrUserNotFound):
		rs.fail(w, http.StatusNotFound, "User not found")
	default:
		rs.logger.Error("internal_error",
			"message", internalMessage,
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		env := dto.Fail(internalMessage)
		if rs.cfg.ExposeErrors {
			env.Error = err.Error()
		}
		dto.WriteEnvelope(w, http.StatusInternalServerError, env)
	}
}

package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/folio/folio/internal/auth"
	"github.com/folio/folio/internal/handler/dto"
	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
)

// authorizationHeader carries the raw token. No "Bearer " prefix is stripped.
const authorizationHeader = "Authorization"

// CallerVerifier turns a raw credential into a Caller.
type CallerVerifier interface {
	Verify(raw string) (*model.Caller, error)
}

// AuthConfig holds configuration for the auth middleware.
type AuthConfig struct {
	Logger   *slog.Logger
	Verifier CallerVerifier
	Metrics  metrics.Recorder

	// ExposeCause adds the verification failure detail to 401 bodies.
	ExposeCause bool
}

// Authenticate returns a middleware that requires a valid token.
// The verified Caller is placed in the request context.
func Authenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return authenticate(cfg, false)
}

// OptionalAuthenticate admits requests without a token as anonymous.
// A token that is present but invalid is still rejected.
func OptionalAuthenticate(cfg AuthConfig) func(http.Handler) http.Handler {
	return authenticate(cfg, true)
}

func authenticate(cfg AuthConfig, optional bool) func(http.Handler) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(authorizationHeader)
			if raw == "" && optional {
				next.ServeHTTP(w, r)
				return
			}

			caller, err := cfg.Verifier.Verify(raw)
			if err != nil {
				authErr := &auth.AuthenticationError{}
				if !errors.As(err, &authErr) {
					authErr = &auth.AuthenticationError{Reason: auth.ReasonInvalid, Cause: err}
				}

				cfg.Metrics.IncAuthFailure(string(authErr.Reason))
				cfg.Logger.Warn("authentication failed",
					slog.String("reason", string(authErr.Reason)),
					slog.String("ip", r.RemoteAddr),
					slog.String("endpoint", r.Method+" "+r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				writeAuthError(w, authErr, cfg.ExposeCause)
				return
			}

			cfg.Logger.Debug("authentication successful",
				slog.String("user_id", caller.ID),
				slog.String("endpoint", r.Method+" "+r.URL.Path),
				slog.String("request_id", GetRequestID(r.Context())),
			)

			ctx := auth.ContextWithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeAuthError writes a 401 envelope. The token itself is never echoed.
func writeAuthError(w http.ResponseWriter, authErr *auth.AuthenticationError, exposeCause bool) {
	env := dto.Fail(authErr.Message())
	if exposeCause && authErr.Cause != nil {
		env.Error = authErr.Cause.Error()
	}
	dto.WriteEnvelope(w, http.StatusUnauthorized, env)
}

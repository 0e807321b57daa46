package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/folio/folio/internal/handler/dto"
)

// Recoverer is a middleware that recovers from panics.
// It logs the panic with its stack and answers with a 500 envelope.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rvr := recover()
				if rvr == nil {
					return
				}
				// net/http uses this sentinel to abort a response silently.
				if err, ok := rvr.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rvr)
				}

				logger.Error("panic recovered",
					slog.String("request_id", GetRequestID(r.Context())),
					slog.Any("panic", rvr),
					slog.String("stack", string(debug.Stack())),
				)

				dto.WriteEnvelope(w, http.StatusInternalServerError, dto.Fail("Internal server error"))
			}()

			next.ServeHTTP(w, r)
		})
	}
}

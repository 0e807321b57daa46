// Package auth provides identity verification, ownership checks and password hashing.
package auth

import (
	"context"

	"github.com/folio/folio/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const callerContextKey contextKey = "caller"

// ContextWithCaller carries a verified Caller from the auth middleware to the handler.
func ContextWithCaller(ctx context.Context, caller *model.Caller) context.Context {
	return context.WithValue(ctx, callerContextKey, caller)
}

// CallerFromContext returns the verified Caller, or nil for anonymous requests.
func CallerFromContext(ctx context.Context) *model.Caller {
	caller, ok := ctx.Value(callerContextKey).(*model.Caller)
	if !ok {
		return nil
	}
	return caller
}

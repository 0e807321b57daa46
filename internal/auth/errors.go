package auth

import "fmt"

// AuthReason classifies why a credential was rejected.
type AuthReason string

const (
	ReasonMissing AuthReason = "MISSING"
	ReasonInvalid AuthReason = "INVALID"
)

// AuthenticationError reports a missing or unverifiable credential.
type AuthenticationError struct {
	Reason AuthReason
	Cause  error
}

func (e *AuthenticationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("authentication failed (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Reason)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Cause
}

// Message is the client-facing text for the failure.
func (e *AuthenticationError) Message() string {
	if e.Reason == ReasonMissing {
		return "Authorization token required"
	}
	return "Invalid or expired token"
}

// AuthorizationError reports an authenticated caller acting on a project it does not own.
type AuthorizationError struct {
	Action Action
}

func (e *AuthorizationError) Error() string {
	return e.Message()
}

// Message is the fixed, action-specific client-facing text.
func (e *AuthorizationError) Message() string {
	return e.Action.deniedMessage()
}

package model

import "time"

// Caller is the identity reconstructed from a verified bearer token.
// It exists for one request and is never persisted.
type Caller struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

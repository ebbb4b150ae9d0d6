package model

import "time"

// Identity is the authenticated principal resolved from a bearer token.
type Identity struct {
	SubjectID   int64     `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"name"`
	ExpiresAt   time.Time `json:"expires_at"`
}

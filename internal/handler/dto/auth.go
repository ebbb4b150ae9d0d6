package dto

import (
	"time"

	"github.com/bookshelf/bookshelf/internal/model"
)

// RegisterRequest represents the request body for creating an account.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6"`
}

// LoginRequest represents the request body for authenticating.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"tokenType"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

// MeResponse describes the identity carried by the caller's token.
type MeResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ToAuthResponse converts a token and its account to AuthResponse.
func ToAuthResponse(token string, expiresAt time.Time, account *model.Account) *AuthResponse {
	return &AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt.UTC(),
		User:      ToUserResponse(account),
	}
}

// ToMeResponse converts an Identity to MeResponse.
func ToMeResponse(identity *model.Identity) *MeResponse {
	return &MeResponse{
		ID:        identity.SubjectID,
		Email:     identity.Email,
		Name:      identity.DisplayName,
		ExpiresAt: identity.ExpiresAt.UTC(),
	}
}

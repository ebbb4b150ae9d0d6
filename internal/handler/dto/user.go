package dto

import (
	"time"

	"github.com/bookshelf/bookshelf/internal/model"
)

// UserResponse is the public profile of an account.
type UserResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// UpdateProfileRequest replaces the caller's profile.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" validate:"required,max=100"`
	LastName  string `json:"lastName" validate:"required,max=100"`
	Email     string `json:"email" validate:"required,email,max=255"`
}

// UpdateUserRequest is a partial profile update; omitted fields are kept.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName,omitempty" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName,omitempty" validate:"omitempty,min=1,max=100"`
	Email     *string `json:"email,omitempty" validate:"omitempty,email,max=255"`
}

// ChangePasswordRequest represents the body of a password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// PasswordConfirmation re-proves the caller's password for destructive calls.
type PasswordConfirmation struct {
	Password string `json:"password" validate:"required"`
}

// ToUserResponse converts an Account to UserResponse.
func ToUserResponse(account *model.Account) UserResponse {
	return UserResponse{
		ID:        account.ID,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Email:     account.Email,
		CreatedAt: account.CreatedAt,
	}
}

// ToUserListResponse converts accounts to a list of UserResponse.
func ToUserListResponse(accounts []*model.Account) []UserResponse {
	out := make([]UserResponse, 0, len(accounts))
	for _, account := range accounts {
		out = append(out, ToUserResponse(account))
	}
	return out
}

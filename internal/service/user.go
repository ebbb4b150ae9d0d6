package service

import (
	"context"
	"fmt"

	"github.com/bookshelf/bookshelf/internal/model"
)

// UserService exposes the account directory addressed by id.
// Mutations are allowed only on the caller's own id.
type UserService struct {
	accounts *AccountService
}

// NewUserService creates a new UserService.
func NewUserService(accounts *AccountService) *UserService {
	return &UserService{accounts: accounts}
}

// List returns every account's public profile.
func (s *UserService) List(ctx context.Context, callerID int64) ([]*model.Account, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	accounts, err := s.accounts.accounts.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// Get returns one account's public profile.
func (s *UserService) Get(ctx context.Context, callerID, id int64) (*model.Account, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	return s.accounts.find(ctx, id)
}

// Authorize reports whether the caller may modify the account id. It returns
// ErrForbidden for any account but the caller's own.
func (s *UserService) Authorize(ctx context.Context, callerID, id int64) error {
	return s.accounts.sameAccount(ctx, callerID, id)
}

// Update applies a partial update to the caller's own account.
func (s *UserService) Update(ctx context.Context, callerID, id int64, patch AccountPatch) (*model.Account, error) {
	return s.accounts.patch(ctx, callerID, id, patch)
}

// Delete removes the caller's own account after re-verifying the password.
func (s *UserService) Delete(ctx context.Context, callerID, id int64, password string) error {
	return s.accounts.remove(ctx, callerID, id, password)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/metrics"
	"github.com/bookshelf/bookshelf/internal/model"
	"github.com/bookshelf/bookshelf/internal/repository"
)

// AccountService handles self-service operations on the caller's account.
type AccountService struct {
	accounts AccountStore
	cache    BookListCache
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewAccountService creates a new AccountService. cache may be nil.
func NewAccountService(accounts AccountStore, cache BookListCache, logger *slog.Logger, recorder metrics.Recorder) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AccountService{
		accounts: accounts,
		cache:    cache,
		logger:   logger,
		metrics:  recorder,
	}
}

// ProfileInput replaces the caller's profile.
type ProfileInput struct {
	FirstName string
	LastName  string
	Email     string
}

// Get returns the caller's account.
func (s *AccountService) Get(ctx context.Context, callerID int64) (*model.Account, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	return s.find(ctx, callerID)
}

// UpdateProfile replaces the caller's names and email.
func (s *AccountService) UpdateProfile(ctx context.Context, callerID int64, input ProfileInput) (*model.Account, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := model.NormalizeEmail(input.Email)
	if firstName == "" || lastName == "" || email == "" {
		return nil, validationError("first name, last name and email are required")
	}

	return s.patch(ctx, callerID, callerID, AccountPatch{
		FirstName: &firstName,
		LastName:  &lastName,
		Email:     &email,
	})
}

// ChangePassword replaces the caller's credential after re-verifying the
// current password.
func (s *AccountService) ChangePassword(ctx context.Context, callerID int64, currentPassword, newPassword string) error {
	if err := requireCaller(callerID); err != nil {
		return err
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return validationError("%s", err)
	}

	account, err := s.find(ctx, callerID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(currentPassword, account.PasswordHash) {
		s.logger.WarnContext(ctx, "password_change_rejected",
			slog.String("reason", "wrong_password"),
			slog.Int64("account_id", callerID),
		)
		return ErrInvalidCredentials
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = hash

	if err := s.update(ctx, account); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "password_changed", slog.Int64("account_id", callerID))
	return nil
}

// Delete removes the caller's account and books after re-verifying the password.
func (s *AccountService) Delete(ctx context.Context, callerID int64, password string) error {
	return s.remove(ctx, callerID, callerID, password)
}

// AccountPatch holds optional account fields; nil fields are left unchanged.
type AccountPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
}

// patch applies non-nil fields to the target account after the self-service check.
func (s *AccountService) patch(ctx context.Context, callerID, targetID int64, p AccountPatch) (*model.Account, error) {
	if err := s.sameAccount(ctx, callerID, targetID); err != nil {
		return nil, err
	}

	account, err := s.find(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if p.FirstName != nil {
		v := strings.TrimSpace(*p.FirstName)
		if v == "" {
			return nil, validationError("first name must not be empty")
		}
		account.FirstName = v
	}
	if p.LastName != nil {
		v := strings.TrimSpace(*p.LastName)
		if v == "" {
			return nil, validationError("last name must not be empty")
		}
		account.LastName = v
	}
	if p.Email != nil {
		email := model.NormalizeEmail(*p.Email)
		if email == "" {
			return nil, validationError("email must not be empty")
		}
		if email != account.Email {
			exists, err := s.accounts.ExistsByEmail(ctx, email)
			if err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if exists {
				return nil, ErrDuplicateEmail
			}
		}
		account.Email = email
	}

	if err := s.update(ctx, account); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "account_updated", slog.Int64("account_id", account.ID))
	return account, nil
}

func (s *AccountService) remove(ctx context.Context, callerID, targetID int64, password string) error {
	if err := s.sameAccount(ctx, callerID, targetID); err != nil {
		return err
	}

	account, err := s.find(ctx, targetID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(password, account.PasswordHash) {
		s.logger.WarnContext(ctx, "account_delete_rejected",
			slog.String("reason", "wrong_password"),
			slog.Int64("account_id", targetID),
		)
		return ErrInvalidCredentials
	}

	if err := s.accounts.DeleteAccount(ctx, targetID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("delete account: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateOwner(ctx, targetID); err != nil {
			s.logger.WarnContext(ctx, "book_cache_invalidate_failed", slog.String("error", err.Error()))
		}
	}

	s.logger.InfoContext(ctx, "account_deleted", slog.Int64("account_id", targetID))
	return nil
}

func (s *AccountService) sameAccount(ctx context.Context, callerID, targetID int64) error {
	if err := SameAccount(callerID, targetID); err != nil {
		if errors.Is(err, ErrForbidden) {
			s.metrics.IncOwnershipDenied(metrics.ResourceAccount)
			s.logger.WarnContext(ctx, "ownership_denied",
				slog.String("resource", metrics.ResourceAccount),
				slog.Int64("caller_id", callerID),
				slog.Int64("target_id", targetID),
			)
		}
		return err
	}
	return nil
}

func (s *AccountService) find(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.accounts.FindAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (s *AccountService) update(ctx context.Context, account *model.Account) error {
	if err := s.accounts.UpdateAccount(ctx, account); err != nil {
		switch {
		case errors.Is(err, repository.ErrAccountNotFound):
			return ErrAccountNotFound
		case errors.Is(err, repository.ErrEmailExists):
			return ErrDuplicateEmail
		default:
			return fmt.Errorf("update account: %w", err)
		}
	}
	return nil
}

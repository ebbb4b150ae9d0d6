package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/metrics"
	"github.com/bookshelf/bookshelf/internal/model"
	"github.com/bookshelf/bookshelf/internal/repository"
)

// unknownAccountCredential is verified against when the email is unknown so
// both login failures cost one key derivation.
var unknownAccountCredential = strings.Repeat("A", 64)

// AuthService handles registration and login.
type AuthService struct {
	accounts AccountStore
	tokens   TokenIssuer
	logger   *slog.Logger
	metrics  metrics.Recorder
}

// NewAuthService creates a new AuthService.
func NewAuthService(accounts AccountStore, tokens TokenIssuer, logger *slog.Logger, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		logger:   logger,
		metrics:  recorder,
	}
}

// RegisterInput defines input for creating an account.
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// LoginInput defines input for authenticating.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is returned by a successful register or login.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	Account   *model.Account
}

// Register creates an account and returns a token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := model.NormalizeEmail(input.Email)

	if firstName == "" || lastName == "" {
		return nil, validationError("first and last name are required")
	}
	if email == "" {
		return nil, validationError("email is required")
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, validationError("%s", err)
	}

	exists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		s.metrics.IncRegistration(metrics.OutcomeDuplicateEmail)
		return nil, ErrDuplicateEmail
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	account := &model.Account{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.accounts.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			s.metrics.IncRegistration(metrics.OutcomeDuplicateEmail)
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	s.metrics.IncRegistration(metrics.OutcomeSuccess)
	s.logger.InfoContext(ctx, "account_registered", slog.Int64("account_id", account.ID))

	return s.issue(account)
}

// Login verifies credentials and returns a fresh token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	email := model.NormalizeEmail(input.Email)

	account, err := s.accounts.FindAccountByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, repository.ErrAccountNotFound) {
			return nil, fmt.Errorf("find account: %w", err)
		}
		auth.VerifyPassword(input.Password, unknownAccountCredential)
		s.rejectLogin(ctx, "unknown_email")
		return nil, ErrInvalidCredentials
	}

	if !auth.VerifyPassword(input.Password, account.PasswordHash) {
		s.rejectLogin(ctx, "wrong_password", slog.Int64("account_id", account.ID))
		return nil, ErrInvalidCredentials
	}

	s.metrics.IncLogin(metrics.OutcomeSuccess)
	s.logger.InfoContext(ctx, "login_succeeded", slog.Int64("account_id", account.ID))

	return s.issue(account)
}

func (s *AuthService) rejectLogin(ctx context.Context, reason string, attrs ...any) {
	s.metrics.IncLogin(metrics.OutcomeInvalidCredentials)
	args := append([]any{slog.String("reason", reason)}, attrs...)
	s.logger.WarnContext(ctx, "login_failed", args...)
}

func (s *AuthService) issue(account *model.Account) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(account.ID, account.Email, account.DisplayName())
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Account:   account,
	}, nil
}

// Package testutil provides helpers shared by integration and handler tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/model"
)

// TestPassword is the plaintext behind every account built by NewTestAccount.
const TestPassword = "secret123"

// TestSigningKey is a 32-byte HMAC key for token tests.
const TestSigningKey = "test-signing-key-0123456789abcdef"

// RequireEnv returns an environment variable or skips the test if missing.
func RequireEnv(t testing.TB, key string) string {
	t.Helper()
	value := os.Getenv(key)
	if value == "" {
		t.Skipf("%s not set", key)
	}
	return value
}

const advisoryLockID int64 = 420420

// AcquireDBLock grabs a global advisory lock to serialize DB tests.
func AcquireDBLock(ctx context.Context, pool *pgxpool.Pool) (func() error, error) {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", advisoryLockID); err != nil {
		conn.Release()
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	unlock := func() error {
		defer conn.Release()
		if _, err := conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", advisoryLockID); err != nil {
			return fmt.Errorf("release advisory lock: %w", err)
		}
		return nil
	}

	return unlock, nil
}

// TruncateTables empties every application table and resets identities.
func TruncateTables(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, "TRUNCATE books, accounts RESTART IDENTITY CASCADE"); err != nil {
		return fmt.Errorf("truncate tables: %w", err)
	}
	return nil
}

// FlushRedis clears the current Redis database.
func FlushRedis(ctx context.Context, client *redis.Client) error {
	return client.FlushDB(ctx).Err()
}

// NewTokenManager returns a token manager with test settings.
func NewTokenManager(t testing.TB) *auth.TokenManager {
	t.Helper()
	m, err := auth.NewTokenManager(auth.TokenConfig{
		SigningKey: []byte(TestSigningKey),
		Issuer:     "bookshelf-test",
		Audience:   "bookshelf-test-clients",
		TTL:        time.Hour,
	})
	if err != nil {
		t.Fatalf("create token manager: %v", err)
	}
	return m
}

// ============================================================================
// Test Data Factories
// ============================================================================

// NewTestAccount creates an unsaved account whose password is TestPassword.
func NewTestAccount(t testing.TB, email string) *model.Account {
	t.Helper()
	hash, err := auth.HashPassword(TestPassword)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return &model.Account{
		FirstName:    "Test",
		LastName:     "Reader",
		Email:        model.NormalizeEmail(email),
		PasswordHash: hash,
	}
}

// NewTestBook creates an unsaved book owned by ownerID.
func NewTestBook(ownerID int64, title string) *model.Book {
	year := 1965
	return &model.Book{
		OwnerID: ownerID,
		Title:   title,
		Author:  "Test Author",
		Year:    &year,
	}
}

// UniqueEmail generates a unique email address for tests.
func UniqueEmail(prefix string) string {
	return fmt.Sprintf("%s-%d@example.com", prefix, time.Now().UnixNano())
}

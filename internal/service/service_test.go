package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/metrics"
	"github.com/bookshelf/bookshelf/internal/model"
	"github.com/bookshelf/bookshelf/internal/repository/memory"
	"github.com/bookshelf/bookshelf/internal/testutil"
)

type testEnv struct {
	store    *memory.Store
	tokens   *auth.TokenManager
	recorder *metrics.InMemoryRecorder
	auth     *AuthService
	accounts *AccountService
	users    *UserService
	books    *BookService
}

func newTestEnv(t *testing.T, cache BookListCache) *testEnv {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.New()
	tokens := testutil.NewTokenManager(t)
	recorder := metrics.NewInMemory()

	accounts := NewAccountService(store, cache, logger, recorder)
	return &testEnv{
		store:    store,
		tokens:   tokens,
		recorder: recorder,
		auth:     NewAuthService(store, tokens, logger, recorder),
		accounts: accounts,
		users:    NewUserService(accounts),
		books:    NewBookService(store, cache, logger, recorder),
	}
}

func (e *testEnv) register(t *testing.T, first, email string) *AuthResult {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		FirstName: first,
		LastName:  "Tester",
		Email:     email,
		Password:  testutil.TestPassword,
	})
	require.NoError(t, err)
	return res
}

func (e *testEnv) addBook(t *testing.T, ownerID int64, title string) *model.Book {
	t.Helper()
	year := 1990
	book, err := e.books.Create(context.Background(), ownerID, CreateBookInput{
		Title:  title,
		Author: "Some Author",
		Year:   &year,
	})
	require.NoError(t, err)
	return book
}

func ptr[T any](v T) *T {
	return &v
}

package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookshelf/bookshelf/internal/cache"
	"github.com/bookshelf/bookshelf/internal/metrics"
	"github.com/bookshelf/bookshelf/internal/model"
	"github.com/bookshelf/bookshelf/internal/repository/memory"
	"github.com/bookshelf/bookshelf/internal/testutil"
)

func TestBookService_CrossAccountIsolation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com").Account
	bob := env.register(t, "Bob", "bob@example.com").Account

	mine := env.addBook(t, alice.ID, "Alice's Book")
	theirs := env.addBook(t, bob.ID, "Bob's Book")

	_, err := env.books.Get(ctx, alice.ID, theirs.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)

	list, err := env.books.List(ctx, alice.ID, "")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	_, err = env.books.Update(ctx, alice.ID, theirs.ID, UpdateBookInput{Title: ptr("stolen")})
	assert.ErrorIs(t, err, ErrBookNotFound)

	assert.ErrorIs(t, env.books.Delete(ctx, alice.ID, theirs.ID), ErrBookNotFound)

	unchanged, err := env.books.Get(ctx, bob.ID, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bob's Book", unchanged.Title)

	assert.Equal(t, uint64(3), env.recorder.Snapshot().OwnershipDenied[metrics.ResourceBook])
}

func TestBookService_MissingAndForeignLookAlike(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	alice := env.register(t, "Alice", "alice@example.com").Account
	bob := env.register(t, "Bob", "bob@example.com").Account
	theirs := env.addBook(t, bob.ID, "Hidden")

	_, foreignErr := env.books.Get(ctx, alice.ID, theirs.ID)
	_, missingErr := env.books.Get(ctx, alice.ID, 9999)
	assert.ErrorIs(t, foreignErr, ErrBookNotFound)
	assert.ErrorIs(t, missingErr, ErrBookNotFound)
	assert.Equal(t, missingErr.Error(), foreignErr.Error())
}

func TestBookService_CreateStampsCaller(t *testing.T) {
	env := newTestEnv(t, nil)
	owner := env.register(t, "Owner", "owner@example.com").Account

	book := env.addBook(t, owner.ID, "Mine")
	assert.Equal(t, owner.ID, book.OwnerID)
	assert.NotZero(t, book.ID)

	_, err := env.books.Create(context.Background(), 0, CreateBookInput{Title: "x", Author: "y"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestBookService_PartialUpdate(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner := env.register(t, "Owner", "owner@example.com").Account

	created, err := env.books.Create(ctx, owner.ID, CreateBookInput{
		Title:         "Dune",
		Author:        "Frank Herbert",
		Year:          ptr(1965),
		Rating:        ptr(4),
		Review:        "Spice.",
		CoverImageURL: "https://covers.example.com/dune.jpg",
	})
	require.NoError(t, err)

	updated, err := env.books.Update(ctx, owner.ID, created.ID, UpdateBookInput{Rating: ptr(5)})
	require.NoError(t, err)

	assert.Equal(t, "Dune", updated.Title)
	assert.Equal(t, "Frank Herbert", updated.Author)
	require.NotNil(t, updated.Year)
	assert.Equal(t, 1965, *updated.Year)
	require.NotNil(t, updated.Rating)
	assert.Equal(t, 5, *updated.Rating)
	assert.Equal(t, "Spice.", updated.Review)
	assert.Equal(t, "https://covers.example.com/dune.jpg", updated.CoverImageURL)

	stored, err := env.books.Get(ctx, owner.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, *stored.Rating)
}

func TestBookService_Validation(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner := env.register(t, "Owner", "owner@example.com").Account

	tests := []struct {
		name  string
		input CreateBookInput
	}{
		{name: "missing title", input: CreateBookInput{Author: "A"}},
		{name: "missing author", input: CreateBookInput{Title: "T"}},
		{name: "long title", input: CreateBookInput{Title: strings.Repeat("t", 201), Author: "A"}},
		{name: "year too small", input: CreateBookInput{Title: "T", Author: "A", Year: ptr(999)}},
		{name: "year too large", input: CreateBookInput{Title: "T", Author: "A", Year: ptr(3001)}},
		{name: "rating zero", input: CreateBookInput{Title: "T", Author: "A", Rating: ptr(0)}},
		{name: "rating six", input: CreateBookInput{Title: "T", Author: "A", Rating: ptr(6)}},
		{name: "long review", input: CreateBookInput{Title: "T", Author: "A", Review: strings.Repeat("r", 2001)}},
		{name: "bad url", input: CreateBookInput{Title: "T", Author: "A", CoverImageURL: "not a url"}},
		{name: "relative url", input: CreateBookInput{Title: "T", Author: "A", CoverImageURL: "/covers/x.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.books.Create(ctx, owner.ID, tt.input)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}

	book := env.addBook(t, owner.ID, "Valid")
	_, err := env.books.Update(ctx, owner.ID, book.ID, UpdateBookInput{Title: ptr("  ")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestBookService_SearchAndOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	owner := env.register(t, "Owner", "owner@example.com").Account
	other := env.register(t, "Other", "other@example.com").Account

	first := env.addBook(t, owner.ID, "The Hobbit")
	second := env.addBook(t, owner.ID, "Hobbit Lore")
	env.addBook(t, owner.ID, "Emma")
	env.addBook(t, other.ID, "The Hobbit")

	found, err := env.books.List(ctx, owner.ID, " hobbit ")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, second.ID, found[0].ID)
	assert.Equal(t, first.ID, found[1].ID)
}

// fakeBookCache is a function-field test double for BookListCache.
type fakeBookCache struct {
	GetBooksFunc        func(ctx context.Context, ownerID int64, term string) ([]*model.Book, error)
	GenerationFunc      func(ctx context.Context, ownerID int64) (int64, error)
	SetBooksFunc        func(ctx context.Context, ownerID int64, term string, gen int64, books []*model.Book) error
	InvalidateOwnerFunc func(ctx context.Context, ownerID int64) error
}

func (f *fakeBookCache) GetBooks(ctx context.Context, ownerID int64, term string) ([]*model.Book, error) {
	if f.GetBooksFunc != nil {
		return f.GetBooksFunc(ctx, ownerID, term)
	}
	return nil, cache.ErrCacheMiss
}

func (f *fakeBookCache) BookListGeneration(ctx context.Context, ownerID int64) (int64, error) {
	if f.GenerationFunc != nil {
		return f.GenerationFunc(ctx, ownerID)
	}
	return 0, nil
}

func (f *fakeBookCache) SetBooks(ctx context.Context, ownerID int64, term string, gen int64, books []*model.Book) error {
	if f.SetBooksFunc != nil {
		return f.SetBooksFunc(ctx, ownerID, term, gen, books)
	}
	return nil
}

func (f *fakeBookCache) InvalidateOwner(ctx context.Context, ownerID int64) error {
	if f.InvalidateOwnerFunc != nil {
		return f.InvalidateOwnerFunc(ctx, ownerID)
	}
	return nil
}

func TestBookService_ListUsesOwnerScopedCache(t *testing.T) {
	cached := map[int64][]*model.Book{}
	var invalidated []int64
	fc := &fakeBookCache{
		GetBooksFunc: func(_ context.Context, ownerID int64, term string) ([]*model.Book, error) {
			if books, ok := cached[ownerID]; ok && term == "" {
				return books, nil
			}
			return nil, cache.ErrCacheMiss
		},
		SetBooksFunc: func(_ context.Context, ownerID int64, term string, _ int64, books []*model.Book) error {
			if term == "" {
				cached[ownerID] = books
			}
			return nil
		},
		InvalidateOwnerFunc: func(_ context.Context, ownerID int64) error {
			invalidated = append(invalidated, ownerID)
			delete(cached, ownerID)
			return nil
		},
	}

	env := newTestEnv(t, fc)
	ctx := context.Background()
	owner := env.register(t, "Owner", "owner@example.com").Account
	other := env.register(t, "Other", "other@example.com").Account

	env.addBook(t, owner.ID, "One")
	assert.Equal(t, []int64{owner.ID}, invalidated)

	_, err := env.books.List(ctx, owner.ID, "")
	require.NoError(t, err)
	_, err = env.books.List(ctx, owner.ID, "")
	require.NoError(t, err)

	otherList, err := env.books.List(ctx, other.ID, "")
	require.NoError(t, err)
	assert.Empty(t, otherList, "another owner never sees a cached listing")

	snap := env.recorder.Snapshot()
	assert.Equal(t, uint64(1), snap.BookListCacheHits)
	assert.Equal(t, uint64(2), snap.BookListCacheMiss)
}

func TestBookService_CacheFailuresAreNotFatal(t *testing.T) {
	boom := errors.New("redis down")
	fc := &fakeBookCache{
		GetBooksFunc:        func(context.Context, int64, string) ([]*model.Book, error) { return nil, boom },
		SetBooksFunc:        func(context.Context, int64, string, int64, []*model.Book) error { return boom },
		InvalidateOwnerFunc: func(context.Context, int64) error { return boom },
	}

	env := newTestEnv(t, fc)
	owner := env.register(t, "Owner", "owner@example.com").Account
	env.addBook(t, owner.ID, "One")

	books, err := env.books.List(context.Background(), owner.ID, "")
	require.NoError(t, err)
	assert.Len(t, books, 1)
}

func TestBookService_CacheSkippedWhenGenerationUnreadable(t *testing.T) {
	var fills int
	fc := &fakeBookCache{
		GenerationFunc: func(context.Context, int64) (int64, error) { return 0, errors.New("redis down") },
		SetBooksFunc: func(context.Context, int64, string, int64, []*model.Book) error {
			fills++
			return nil
		},
	}

	env := newTestEnv(t, fc)
	owner := env.register(t, "Owner", "owner@example.com").Account
	env.addBook(t, owner.ID, "One")

	books, err := env.books.List(context.Background(), owner.ID, "")
	require.NoError(t, err)
	assert.Len(t, books, 1)
	assert.Zero(t, fills)
}

// generationCache mimics the Redis book list cache: listings are stored per
// owner and term, and a fill is dropped when the owner's generation moved.
type generationCache struct {
	mu       sync.Mutex
	gens     map[int64]int64
	listings map[int64]map[string][]*model.Book
}

func newGenerationCache() *generationCache {
	return &generationCache{
		gens:     make(map[int64]int64),
		listings: make(map[int64]map[string][]*model.Book),
	}
}

func (c *generationCache) GetBooks(_ context.Context, ownerID int64, term string) ([]*model.Book, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	books, ok := c.listings[ownerID][term]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return books, nil
}

func (c *generationCache) BookListGeneration(_ context.Context, ownerID int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[ownerID], nil
}

func (c *generationCache) SetBooks(_ context.Context, ownerID int64, term string, gen int64, books []*model.Book) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gens[ownerID] != gen {
		return cache.ErrStaleGeneration
	}
	if c.listings[ownerID] == nil {
		c.listings[ownerID] = make(map[string][]*model.Book)
	}
	c.listings[ownerID][term] = books
	return nil
}

func (c *generationCache) InvalidateOwner(_ context.Context, ownerID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gens[ownerID]++
	delete(c.listings, ownerID)
	return nil
}

// interleavingStore runs afterList once, right after the first owner listing
// is read and before the caller gets it back.
type interleavingStore struct {
	*memory.Store
	afterList func()
}

func (s *interleavingStore) ListBooksByOwner(ctx context.Context, ownerID int64) ([]*model.Book, error) {
	books, err := s.Store.ListBooksByOwner(ctx, ownerID)
	if hook := s.afterList; hook != nil {
		s.afterList = nil
		hook()
	}
	return books, err
}

func TestBookService_WriteDuringListIsNotMaskedByCache(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, svc *BookService, ownerID int64) int64
		write func(t *testing.T, svc *BookService, ownerID, bookID int64)
		want  int
	}{
		{
			name:  "create",
			setup: func(*testing.T, *BookService, int64) int64 { return 0 },
			write: func(t *testing.T, svc *BookService, ownerID, _ int64) {
				_, err := svc.Create(context.Background(), ownerID, CreateBookInput{Title: "Fresh", Author: "A"})
				require.NoError(t, err)
			},
			want: 1,
		},
		{
			name: "delete",
			setup: func(t *testing.T, svc *BookService, ownerID int64) int64 {
				book, err := svc.Create(context.Background(), ownerID, CreateBookInput{Title: "Doomed", Author: "A"})
				require.NoError(t, err)
				return book.ID
			},
			write: func(t *testing.T, svc *BookService, ownerID, bookID int64) {
				require.NoError(t, svc.Delete(context.Background(), ownerID, bookID))
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			logger := slog.New(slog.NewTextHandler(io.Discard, nil))
			store := &interleavingStore{Store: memory.New()}
			owner := &model.Account{Email: "owner@example.com"}
			require.NoError(t, store.CreateAccount(ctx, owner))

			svc := NewBookService(store, newGenerationCache(), logger, metrics.NewInMemory())
			bookID := tt.setup(t, svc, owner.ID)
			store.afterList = func() { tt.write(t, svc, owner.ID, bookID) }

			_, err := svc.List(ctx, owner.ID, "")
			require.NoError(t, err)

			books, err := svc.List(ctx, owner.ID, "")
			require.NoError(t, err)
			assert.Len(t, books, tt.want, "listing after %s", tt.name)

			stored, err := store.Store.ListBooksByOwner(ctx, owner.ID)
			require.NoError(t, err)
			assert.Len(t, stored, tt.want)
		})
	}
}

func TestBookService_CreateAfterAccountDeleted(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	account := env.register(t, "Ghost", "ghost@example.com").Account
	require.NoError(t, env.accounts.Delete(ctx, account.ID, testutil.TestPassword))

	_, err := env.books.Create(ctx, account.ID, CreateBookInput{Title: "Orphan", Author: "A"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	orphans, err := env.store.ListBooksByOwner(ctx, account.ID)
	require.NoError(t, err)
	assert.Empty(t, orphans)
}

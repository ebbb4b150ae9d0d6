package service

import (
	"context"
	"time"

	"github.com/bookshelf/bookshelf/internal/model"
)

// AccountStore persists accounts. Implementations return
// repository.ErrAccountNotFound and repository.ErrEmailExists.
type AccountStore interface {
	FindAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	FindAccountByID(ctx context.Context, id int64) (*model.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListAccounts(ctx context.Context) ([]*model.Account, error)
	CreateAccount(ctx context.Context, account *model.Account) error
	UpdateAccount(ctx context.Context, account *model.Account) error
	DeleteAccount(ctx context.Context, id int64) error
}

// BookStore persists books. Collection reads and writes are scoped by owner;
// FindBookByID is not and its result must pass the ownership guard.
// Implementations return repository.ErrBookNotFound.
type BookStore interface {
	ListBooksByOwner(ctx context.Context, ownerID int64) ([]*model.Book, error)
	SearchBooksByOwner(ctx context.Context, ownerID int64, term string) ([]*model.Book, error)
	FindBookByID(ctx context.Context, id int64) (*model.Book, error)
	CreateBook(ctx context.Context, book *model.Book) error
	UpdateBook(ctx context.Context, book *model.Book) error
	DeleteBook(ctx context.Context, ownerID, id int64) error
}

// BookListCache caches owner-scoped book listings.
// GetBooks returns cache.ErrCacheMiss when nothing is cached. SetBooks only
// stores a listing whose generation is still current and otherwise returns
// cache.ErrStaleGeneration; InvalidateOwner advances the generation.
type BookListCache interface {
	GetBooks(ctx context.Context, ownerID int64, term string) ([]*model.Book, error)
	BookListGeneration(ctx context.Context, ownerID int64) (int64, error)
	SetBooks(ctx context.Context, ownerID int64, term string, gen int64, books []*model.Book) error
	InvalidateOwner(ctx context.Context, ownerID int64) error
}

// TokenIssuer mints identity tokens and reports each token's expiry.
type TokenIssuer interface {
	Issue(subjectID int64, email, displayName string) (string, time.Time, error)
}

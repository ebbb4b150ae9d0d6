// Package memory provides an in-process implementation of the account and
// book stores. It backs tests and local runs without PostgreSQL.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bookshelf/bookshelf/internal/model"
	"github.com/bookshelf/bookshelf/internal/repository"
)

// Store keeps accounts and books in maps guarded by a single mutex.
// Returned values are copies.
type Store struct {
	mu            sync.RWMutex
	accounts      map[int64]*model.Account
	books         map[int64]*model.Book
	nextAccountID int64
	nextBookID    int64
	now           func() time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		accounts: make(map[int64]*model.Account),
		books:    make(map[int64]*model.Book),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error {
	return nil
}

// CreateAccount stores a new account and assigns its id.
func (s *Store) CreateAccount(_ context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTakenLocked(account.Email, 0) {
		return repository.ErrEmailExists
	}

	s.nextAccountID++
	now := s.now()
	account.ID = s.nextAccountID
	account.CreatedAt = now
	account.UpdatedAt = now

	stored := *account
	s.accounts[account.ID] = &stored
	return nil
}

// FindAccountByID returns the account with the id.
func (s *Store) FindAccountByID(_ context.Context, id int64) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	c := *account
	return &c, nil
}

// FindAccountByEmail returns the account with the email.
func (s *Store) FindAccountByEmail(_ context.Context, email string) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.accounts {
		if account.Email == email {
			c := *account
			return &c, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

// ExistsByEmail reports whether an account uses the email.
func (s *Store) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emailTakenLocked(email, 0), nil
}

// ListAccounts returns all accounts ordered by id.
func (s *Store) ListAccounts(context.Context) ([]*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]*model.Account, 0, len(s.accounts))
	for _, account := range s.accounts {
		c := *account
		accounts = append(accounts, &c)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}

// UpdateAccount replaces the stored account.
func (s *Store) UpdateAccount(_ context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.accounts[account.ID]
	if !ok {
		return repository.ErrAccountNotFound
	}
	if s.emailTakenLocked(account.Email, account.ID) {
		return repository.ErrEmailExists
	}

	account.CreatedAt = existing.CreatedAt
	account.UpdatedAt = s.now()
	stored := *account
	s.accounts[account.ID] = &stored
	return nil
}

// DeleteAccount removes the account and every book it owns.
func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return repository.ErrAccountNotFound
	}
	delete(s.accounts, id)
	for bookID, book := range s.books {
		if book.OwnerID == id {
			delete(s.books, bookID)
		}
	}
	return nil
}

// CreateBook stores a new book and assigns its id. The owner must exist.
func (s *Store) CreateBook(_ context.Context, book *model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[book.OwnerID]; !ok {
		return repository.ErrAccountNotFound
	}

	s.nextBookID++
	now := s.now()
	book.ID = s.nextBookID
	book.CreatedAt = now
	book.UpdatedAt = now

	s.books[book.ID] = book.Clone()
	return nil
}

// FindBookByID returns the book with the id regardless of owner.
func (s *Store) FindBookByID(_ context.Context, id int64) (*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	book, ok := s.books[id]
	if !ok {
		return nil, repository.ErrBookNotFound
	}
	return book.Clone(), nil
}

// ListBooksByOwner returns the owner's books, newest first.
func (s *Store) ListBooksByOwner(_ context.Context, ownerID int64) ([]*model.Book, error) {
	return s.filterBooks(ownerID, func(*model.Book) bool { return true }), nil
}

// SearchBooksByOwner returns the owner's books whose title or author contains
// term, case-insensitively.
func (s *Store) SearchBooksByOwner(_ context.Context, ownerID int64, term string) ([]*model.Book, error) {
	needle := strings.ToLower(term)
	return s.filterBooks(ownerID, func(b *model.Book) bool {
		return strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle)
	}), nil
}

// UpdateBook replaces the stored book when id and owner both match.
func (s *Store) UpdateBook(_ context.Context, book *model.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.books[book.ID]
	if !ok || existing.OwnerID != book.OwnerID {
		return repository.ErrBookNotFound
	}

	book.CreatedAt = existing.CreatedAt
	book.UpdatedAt = s.now()
	s.books[book.ID] = book.Clone()
	return nil
}

// DeleteBook removes the book when it belongs to the owner.
func (s *Store) DeleteBook(_ context.Context, ownerID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.books[id]
	if !ok || existing.OwnerID != ownerID {
		return repository.ErrBookNotFound
	}
	delete(s.books, id)
	return nil
}

func (s *Store) filterBooks(ownerID int64, keep func(*model.Book) bool) []*model.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	books := make([]*model.Book, 0)
	for _, book := range s.books {
		if book.OwnerID == ownerID && keep(book) {
			books = append(books, book.Clone())
		}
	}
	sort.Slice(books, func(i, j int) bool { return books[i].ID > books[j].ID })
	return books
}

func (s *Store) emailTakenLocked(email string, exceptID int64) bool {
	for id, account := range s.accounts {
		if id != exceptID && account.Email == email {
			return true
		}
	}
	return false
}

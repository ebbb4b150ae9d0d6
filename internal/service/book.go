package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/bookshelf/bookshelf/internal/cache"
	"github.com/bookshelf/bookshelf/internal/metrics"
	"github.com/bookshelf/bookshelf/internal/model"
	"github.com/bookshelf/bookshelf/internal/repository"
)

// Book field limits.
const (
	maxTitleLength    = 200
	maxAuthorLength   = 200
	maxReviewLength   = 2000
	maxCoverURLLength = 500
	minYear           = 1000
	maxYear           = 3000
	minRating         = 1
	maxRating         = 5
)

// BookService handles book business logic. Every operation is scoped to the
// calling account.
type BookService struct {
	books   BookStore
	cache   BookListCache
	logger  *slog.Logger
	metrics metrics.Recorder
}

// NewBookService creates a new BookService. cache may be nil.
func NewBookService(books BookStore, cache BookListCache, logger *slog.Logger, recorder metrics.Recorder) *BookService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BookService{
		books:   books,
		cache:   cache,
		logger:  logger,
		metrics: recorder,
	}
}

// CreateBookInput defines input for creating a book. There is no owner
// field; the owner is always the caller.
type CreateBookInput struct {
	Title         string
	Author        string
	Year          *int
	Rating        *int
	Review        string
	CoverImageURL string
}

// UpdateBookInput holds optional book fields; nil fields are left unchanged.
type UpdateBookInput struct {
	Title         *string
	Author        *string
	Year          *int
	Rating        *int
	Review        *string
	CoverImageURL *string
}

// List returns the caller's books, newest first. A non-empty term filters by
// title or author substring.
func (s *BookService) List(ctx context.Context, callerID int64, term string) ([]*model.Book, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)

	// The generation is read before the store so a write committed after the
	// read keeps this listing out of the cache.
	var (
		gen       int64
		fillCache bool
	)
	if s.cache != nil {
		books, err := s.cache.GetBooks(ctx, callerID, term)
		if err == nil {
			s.metrics.IncBookListCacheHit()
			return books, nil
		}
		if errors.Is(err, cache.ErrCacheMiss) {
			s.metrics.IncBookListCacheMiss()
		} else {
			s.logger.WarnContext(ctx, "book_cache_read_failed", slog.String("error", err.Error()))
		}

		gen, err = s.cache.BookListGeneration(ctx, callerID)
		if err != nil {
			s.logger.WarnContext(ctx, "book_cache_read_failed", slog.String("error", err.Error()))
		} else {
			fillCache = true
		}
	}

	var (
		books []*model.Book
		err   error
	)
	if term == "" {
		books, err = s.books.ListBooksByOwner(ctx, callerID)
	} else {
		books, err = s.books.SearchBooksByOwner(ctx, callerID, term)
	}
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	if fillCache {
		err := s.cache.SetBooks(ctx, callerID, term, gen, books)
		switch {
		case errors.Is(err, cache.ErrStaleGeneration):
			s.logger.DebugContext(ctx, "book_cache_fill_skipped", slog.Int64("owner_id", callerID))
		case err != nil:
			s.logger.WarnContext(ctx, "book_cache_write_failed", slog.String("error", err.Error()))
		}
	}

	return books, nil
}

// Get returns one of the caller's books.
func (s *BookService) Get(ctx context.Context, callerID, id int64) (*model.Book, error) {
	return s.findOwned(ctx, callerID, id)
}

// Create adds a book owned by the caller.
func (s *BookService) Create(ctx context.Context, callerID int64, input CreateBookInput) (*model.Book, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}

	book := &model.Book{
		OwnerID:       callerID,
		Title:         strings.TrimSpace(input.Title),
		Author:        strings.TrimSpace(input.Author),
		Year:          input.Year,
		Rating:        input.Rating,
		Review:        input.Review,
		CoverImageURL: strings.TrimSpace(input.CoverImageURL),
	}
	if err := validateBook(book); err != nil {
		return nil, err
	}

	if err := s.books.CreateBook(ctx, book); err != nil {
		// The token outlived its account.
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.metrics.IncBookCreated()
	s.invalidate(ctx, callerID)

	return book, nil
}

// Update merges the non-nil fields into one of the caller's books.
func (s *BookService) Update(ctx context.Context, callerID, id int64, input UpdateBookInput) (*model.Book, error) {
	book, err := s.findOwned(ctx, callerID, id)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil {
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.Year != nil {
		year := *input.Year
		book.Year = &year
	}
	if input.Rating != nil {
		rating := *input.Rating
		book.Rating = &rating
	}
	if input.Review != nil {
		book.Review = *input.Review
	}
	if input.CoverImageURL != nil {
		book.CoverImageURL = strings.TrimSpace(*input.CoverImageURL)
	}

	if err := validateBook(book); err != nil {
		return nil, err
	}

	if err := s.books.UpdateBook(ctx, book); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("update book: %w", err)
	}

	s.metrics.IncBookUpdated()
	s.invalidate(ctx, callerID)

	return book, nil
}

// Delete removes one of the caller's books.
func (s *BookService) Delete(ctx context.Context, callerID, id int64) error {
	if _, err := s.findOwned(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.books.DeleteBook(ctx, callerID, id); err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return ErrBookNotFound
		}
		return fmt.Errorf("delete book: %w", err)
	}

	s.metrics.IncBookDeleted()
	s.invalidate(ctx, callerID)

	return nil
}

// findOwned loads a book and runs the ownership guard on it.
func (s *BookService) findOwned(ctx context.Context, callerID, id int64) (*model.Book, error) {
	if err := requireCaller(callerID); err != nil {
		return nil, err
	}

	book, err := s.books.FindBookByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}

	if err := OwnsBook(callerID, book); err != nil {
		s.metrics.IncOwnershipDenied(metrics.ResourceBook)
		s.logger.WarnContext(ctx, "ownership_denied",
			slog.String("resource", metrics.ResourceBook),
			slog.Int64("caller_id", callerID),
			slog.Int64("book_id", id),
		)
		return nil, err
	}

	return book, nil
}

func (s *BookService) invalidate(ctx context.Context, ownerID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateOwner(ctx, ownerID); err != nil {
		s.logger.WarnContext(ctx, "book_cache_invalidate_failed", slog.String("error", err.Error()))
	}
}

func validateBook(b *model.Book) error {
	switch {
	case b.Title == "":
		return validationError("title is required")
	case utf8.RuneCountInString(b.Title) > maxTitleLength:
		return validationError("title must be at most %d characters", maxTitleLength)
	case b.Author == "":
		return validationError("author is required")
	case utf8.RuneCountInString(b.Author) > maxAuthorLength:
		return validationError("author must be at most %d characters", maxAuthorLength)
	case b.Year != nil && (*b.Year < minYear || *b.Year > maxYear):
		return validationError("year must be between %d and %d", minYear, maxYear)
	case b.Rating != nil && (*b.Rating < minRating || *b.Rating > maxRating):
		return validationError("rating must be between %d and %d", minRating, maxRating)
	case utf8.RuneCountInString(b.Review) > maxReviewLength:
		return validationError("review must be at most %d characters", maxReviewLength)
	case utf8.RuneCountInString(b.CoverImageURL) > maxCoverURLLength:
		return validationError("cover image URL must be at most %d characters", maxCoverURLLength)
	}

	if b.CoverImageURL != "" {
		u, err := url.ParseRequestURI(b.CoverImageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return validationError("cover image URL must be an absolute http(s) URL")
		}
	}
	return nil
}

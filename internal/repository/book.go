package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/bookshelf/bookshelf/internal/model"
)

// ErrBookNotFound indicates no book matched the id and owner.
var ErrBookNotFound = errors.New("book not found")

const bookColumns = `id, owner_id, title, author, year, rating, review, cover_image_url, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// CreateBook inserts a book and fills in its generated fields.
func (r *Repository) CreateBook(ctx context.Context, book *model.Book) error {
	query := `
		INSERT INTO books (owner_id, title, author, year, rating, review, cover_image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		book.OwnerID,
		book.Title,
		book.Author,
		book.Year,
		book.Rating,
		book.Review,
		book.CoverImageURL,
	).Scan(&book.ID, &book.CreatedAt, &book.UpdatedAt)

	if err != nil {
		// The owner row is gone, e.g. deleted while a token was still live.
		if isForeignKeyViolation(err) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to create book: %w", err)
	}

	return nil
}

// FindBookByID retrieves a book by id regardless of owner.
// Callers are expected to check ownership.
func (r *Repository) FindBookByID(ctx context.Context, id int64) (*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	book, err := scanBook(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by ID: %w", err)
	}

	return book, nil
}

// ListBooksByOwner returns the owner's books, newest first.
func (r *Repository) ListBooksByOwner(ctx context.Context, ownerID int64) ([]*model.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE owner_id = $1 ORDER BY id DESC`
	return r.queryBooks(ctx, query, ownerID)
}

// SearchBooksByOwner returns the owner's books whose title or author contains
// term, case-insensitively, newest first.
func (r *Repository) SearchBooksByOwner(ctx context.Context, ownerID int64, term string) ([]*model.Book, error) {
	query := `
		SELECT ` + bookColumns + `
		FROM books
		WHERE owner_id = $1 AND (title ILIKE $2 OR author ILIKE $2)
		ORDER BY id DESC
	`
	pattern := "%" + likeEscaper.Replace(term) + "%"
	return r.queryBooks(ctx, query, ownerID, pattern)
}

// UpdateBook persists the mutable book fields. The owner is part of the
// match so a foreign book is reported as not found.
func (r *Repository) UpdateBook(ctx context.Context, book *model.Book) error {
	query := `
		UPDATE books
		SET title = $3, author = $4, year = $5, rating = $6, review = $7,
		    cover_image_url = $8, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		book.ID,
		book.OwnerID,
		book.Title,
		book.Author,
		book.Year,
		book.Rating,
		book.Review,
		book.CoverImageURL,
	).Scan(&book.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBookNotFound
		}
		return fmt.Errorf("failed to update book: %w", err)
	}

	return nil
}

// DeleteBook removes the book if it belongs to the owner.
func (r *Repository) DeleteBook(ctx context.Context, ownerID, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM books WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrBookNotFound
	}
	return nil
}

func (r *Repository) queryBooks(ctx context.Context, query string, args ...any) ([]*model.Book, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query books: %w", err)
	}
	defer rows.Close()

	books := make([]*model.Book, 0)
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating books: %w", err)
	}

	return books, nil
}

func scanBook(row pgx.Row) (*model.Book, error) {
	var book model.Book
	err := row.Scan(
		&book.ID,
		&book.OwnerID,
		&book.Title,
		&book.Author,
		&book.Year,
		&book.Rating,
		&book.Review,
		&book.CoverImageURL,
		&book.CreatedAt,
		&book.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &book, nil
}

package dto

import (
	"time"

	"github.com/bookshelf/bookshelf/internal/model"
)

// CreateBookRequest represents the request body for adding a book.
// It has no owner field; the owner is taken from the bearer token.
type CreateBookRequest struct {
	Title         string `json:"title" validate:"required,max=200"`
	Author        string `json:"author" validate:"required,max=200"`
	Year          *int   `json:"year,omitempty" validate:"omitempty,min=1000,max=3000"`
	Rating        *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Review        string `json:"review,omitempty" validate:"max=2000"`
	CoverImageURL string `json:"coverImageUrl,omitempty" validate:"omitempty,url,max=500"`
}

// UpdateBookRequest is a partial book update; omitted fields are kept.
type UpdateBookRequest struct {
	Title         *string `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Author        *string `json:"author,omitempty" validate:"omitempty,min=1,max=200"`
	Year          *int    `json:"year,omitempty" validate:"omitempty,min=1000,max=3000"`
	Rating        *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	Review        *string `json:"review,omitempty" validate:"omitempty,max=2000"`
	CoverImageURL *string `json:"coverImageUrl,omitempty" validate:"omitempty,url,max=500"`
}

// BookResponse represents a book in API responses.
type BookResponse struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"ownerId"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Year          *int      `json:"year,omitempty"`
	Rating        *int      `json:"rating,omitempty"`
	Review        string    `json:"review,omitempty"`
	CoverImageURL string    `json:"coverImageUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// BookListResponse wraps a list of books.
type BookListResponse struct {
	Data  []BookResponse `json:"data"`
	Count int            `json:"count"`
}

// ToBookResponse converts a Book model to BookResponse DTO.
func ToBookResponse(book *model.Book) *BookResponse {
	return &BookResponse{
		ID:            book.ID,
		OwnerID:       book.OwnerID,
		Title:         book.Title,
		Author:        book.Author,
		Year:          book.Year,
		Rating:        book.Rating,
		Review:        book.Review,
		CoverImageURL: book.CoverImageURL,
		CreatedAt:     book.CreatedAt,
		UpdatedAt:     book.UpdatedAt,
	}
}

// ToBookListResponse converts books to BookListResponse.
func ToBookListResponse(books []*model.Book) *BookListResponse {
	data := make([]BookResponse, 0, len(books))
	for _, book := range books {
		data = append(data, *ToBookResponse(book))
	}
	return &BookListResponse{Data: data, Count: len(data)}
}

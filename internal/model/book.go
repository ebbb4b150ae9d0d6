package model

import "time"

// Book is a single record in an account's personal library.
// OwnerID is always assigned from the authenticated caller.
type Book struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"owner_id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Year          *int      `json:"year,omitempty"`
	Rating        *int      `json:"rating,omitempty"`
	Review        string    `json:"review,omitempty"`
	CoverImageURL string    `json:"cover_image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// OwnedBy reports whether the book belongs to the given account.
func (b *Book) OwnedBy(accountID int64) bool {
	return b != nil && accountID > 0 && b.OwnerID == accountID
}

// Clone returns a deep copy of the book.
func (b *Book) Clone() *Book {
	if b == nil {
		return nil
	}
	c := *b
	if b.Year != nil {
		y := *b.Year
		c.Year = &y
	}
	if b.Rating != nil {
		r := *b.Rating
		c.Rating = &r
	}
	return &c
}

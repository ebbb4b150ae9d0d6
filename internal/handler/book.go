package handler

import (
	"log/slog"
	"net/http"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/handler/dto"
	"github.com/bookshelf/bookshelf/internal/service"
)

// BookHandler handles HTTP requests for the caller's books.
type BookHandler struct {
	svc    *service.BookService
	logger *slog.Logger
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(svc *service.BookService, logger *slog.Logger) *BookHandler {
	return &BookHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/books.
func (h *BookHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.svc.List(r.Context(), auth.SubjectIDFromContext(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToBookListResponse(books))
}

// Get handles GET /api/books/{id}.
func (h *BookHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	book, err := h.svc.Get(r.Context(), auth.SubjectIDFromContext(r.Context()), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToBookResponse(book))
}

// Create handles POST /api/books.
func (h *BookHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateBookRequest
	if err := decodeValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	book, err := h.svc.Create(r.Context(), auth.SubjectIDFromContext(r.Context()), service.CreateBookInput{
		Title:         req.Title,
		Author:        req.Author,
		Year:          req.Year,
		Rating:        req.Rating,
		Review:        req.Review,
		CoverImageURL: req.CoverImageURL,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "book_created",
		slog.Int64("book_id", book.ID),
		slog.Int64("owner_id", book.OwnerID),
	)

	writeJSON(w, http.StatusCreated, dto.ToBookResponse(book))
}

// Update handles PATCH and PUT /api/books/{id}. Both merge the supplied fields.
func (h *BookHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req dto.UpdateBookRequest
	if err := decodeValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	book, err := h.svc.Update(r.Context(), auth.SubjectIDFromContext(r.Context()), id, service.UpdateBookInput{
		Title:         req.Title,
		Author:        req.Author,
		Year:          req.Year,
		Rating:        req.Rating,
		Review:        req.Review,
		CoverImageURL: req.CoverImageURL,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "book_updated", slog.Int64("book_id", book.ID))

	writeJSON(w, http.StatusOK, dto.ToBookResponse(book))
}

// Delete handles DELETE /api/books/{id}.
func (h *BookHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), auth.SubjectIDFromContext(r.Context()), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.InfoContext(r.Context(), "book_deleted", slog.Int64("book_id", id))

	w.WriteHeader(http.StatusNoContent)
}

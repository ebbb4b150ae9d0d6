package handler

import (
	"log/slog"
	"net/http"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/handler/dto"
	"github.com/bookshelf/bookshelf/internal/service"
)

// UserHandler handles the account directory.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.List(r.Context(), auth.SubjectIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserListResponse(accounts))
}

// Get handles GET /api/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	account, err := h.svc.Get(r.Context(), auth.SubjectIDFromContext(r.Context()), id)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserResponse(account))
}

// Update handles PATCH /api/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	// Foreign ids are refused before the body is looked at.
	if err := h.svc.Authorize(r.Context(), auth.SubjectIDFromContext(r.Context()), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req dto.UpdateUserRequest
	if err := decodeValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	account, err := h.svc.Update(r.Context(), auth.SubjectIDFromContext(r.Context()), id, service.AccountPatch{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
	})
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserResponse(account))
}

// Delete handles DELETE /api/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	// Foreign ids are refused before the body is looked at.
	if err := h.svc.Authorize(r.Context(), auth.SubjectIDFromContext(r.Context()), id); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var req dto.PasswordConfirmation
	if err := decodeValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), auth.SubjectIDFromContext(r.Context()), id, req.Password); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

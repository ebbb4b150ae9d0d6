package handler

import (
	"log/slog"
	"net/http"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/handler/dto"
	"github.com/bookshelf/bookshelf/internal/service"
)

// AccountHandler handles self-service operations on the caller's account.
type AccountHandler struct {
	svc    *service.AccountService
	logger *slog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(svc *service.AccountService, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /api/account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, err := h.svc.Get(r.Context(), auth.SubjectIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToUserResponse(account))
}

// UpdateProfile handles PUT /api/account/profile.
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateProfileRequest
	if err := decodeValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	account, err := h.svc.UpdateProfile(r.Context(), auth.SubjectIDFromContext(r.Context()), service.ProfileInput{
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

// ChangePassword handles PUT /api/account/password.
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ChangePasswordRequest
	if err := decodeValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	callerID := auth.SubjectIDFromContext(r.Context())
	if err := h.svc.ChangePassword(r.Context(), callerID, req.CurrentPassword, req.NewPassword); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Password changed"})
}

// Delete handles DELETE /api/account.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req dto.PasswordConfirmation
	if err := decodeValidate(r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	if err := h.svc.Delete(r.Context(), auth.SubjectIDFromContext(r.Context()), req.Password); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

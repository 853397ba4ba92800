package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/auth"
	"github.com/sakif/santabot/internal/service"
)

// ProfileHandler exposes the gift profile editor and the wishlist.
type ProfileHandler struct {
	profiles *service.ProfileService
}

func NewProfileHandler(profiles *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// HandleGet returns the caller's gift profile.
//
// HTTP: GET /api/profile
// Auth: Required
//
// A user with no profile yet gets an empty 200, not a 404 — the editor
// renders the same blank form either way.
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	profile, err := h.profiles.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]interface{}{"profile": nil})
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

// HandleSave creates or replaces the caller's gift profile.
//
// HTTP: PUT /api/profile
// Auth: Required
//
// If the profiles table is missing (migrations not run), this surfaces a
// 503 with the operator guidance rather than a confusing 500.
func (h *ProfileHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var in service.ProfileInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON request body"))
		return
	}

	profile, err := h.profiles.Save(r.Context(), userID, in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile})
}

// wishlistRequest is the JSON body for PUT /api/wishlist.
type wishlistRequest struct {
	Wishlist string `json:"wishlist"`
}

// HandleSaveWishlist updates the free-text wishlist on the user record.
//
// HTTP: PUT /api/wishlist
// Auth: Required
func (h *ProfileHandler) HandleSaveWishlist(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req wishlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON request body"))
		return
	}

	if err := h.profiles.SaveWishlist(r.Context(), userID, req.Wishlist); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "wishlist saved"})
}

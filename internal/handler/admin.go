package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/auth"
	"github.com/sakif/santabot/internal/service"
)

// AdminHandler exposes the host-only console: viewing the participant
// roster and triggering a draw. Authorization lives in the service layer
// (only the creator may act); this handler just plumbs HTTP.
type AdminHandler struct {
	admin *service.AdminService
}

func NewAdminHandler(admin *service.AdminService) *AdminHandler {
	return &AdminHandler{admin: admin}
}

// HandleConsole returns the admin console state for a game.
//
// HTTP: GET /api/games/{gameID}/admin
// Auth: Required, and the caller must be the game's host (403 otherwise)
func (h *AdminHandler) HandleConsole(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	// Chi provides r.PathValue to extract URL parameters.
	state, err := h.admin.LoadConsoleState(r.Context(), r.PathValue("gameID"), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// drawRequest is the JSON body for POST /api/games/{gameID}/draw.
type drawRequest struct {
	Year string `json:"year"`
}

// HandleDraw runs the name draw for (game, year).
//
// HTTP: POST /api/games/{gameID}/draw
// Auth: Required, host only
//
// Running the draw again for the same year replaces the previous round
// wholesale. That's deliberate: hosts re-draw when someone drops out, and
// a half-old half-new set of matches would be worse than a clean redo.
func (h *AdminHandler) HandleDraw(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req drawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON request body"))
		return
	}

	assignments, err := h.admin.RequestDraw(r.Context(), r.PathValue("gameID"), req.Year, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	// Count only — the response must never include who drew whom, or the
	// host could peek at every match.
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"year":         req.Year,
		"participants": len(assignments),
	})
}

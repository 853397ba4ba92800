package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/auth"
	"github.com/sakif/santabot/internal/service"
)

// GameHandler exposes game lifecycle operations: creating a game, joining
// one with a code, and the per-player dashboard.
type GameHandler struct {
	games *service.GameService
}

func NewGameHandler(games *service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

// createGameRequest is the JSON body for POST /api/games.
type createGameRequest struct {
	Name         string   `json:"name"`
	EventDate    string   `json:"eventDate"`
	InviteEmails []string `json:"inviteEmails"`
}

// HandleCreate creates a new game with the caller as host.
//
// HTTP: POST /api/games
// Auth: Required
//
// The response includes the derived join code so the host can share it
// straight away, plus the cleaned invitee list for the invite screen.
func (h *GameHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON request body"))
		return
	}

	created, err := h.games.Create(r.Context(), req.Name, req.EventDate, req.InviteEmails, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// joinRequest is the JSON body for POST /api/join.
type joinRequest struct {
	Code string `json:"code"`
}

// HandleJoin adds the caller to a game identified by a join code or a raw
// game id.
//
// HTTP: POST /api/join
// Auth: Required
//
// Joining twice is a 409 — the frontend shows "you're already part of that
// game" rather than silently succeeding.
func (h *GameHandler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON request body"))
		return
	}

	gameName, err := h.games.Join(r.Context(), req.Code, userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"gameName": gameName})
}

// HandleDashboard returns every game the caller belongs to, each with its
// derived status and (after a draw) the caller's own recipient.
//
// HTTP: GET /api/dashboard
// Auth: Required
//
// PRIVACY:
// The dashboard only ever reveals who the CALLER is buying for. Other
// players' matches are never loaded, so there is nothing to leak even if
// the frontend mishandles the response.
func (h *GameHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	panels, err := h.games.Dashboard(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"games": panels})
}

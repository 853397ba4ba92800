package handler_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/auth"
	"github.com/sakif/santabot/internal/handler"
	"github.com/sakif/santabot/internal/model"
	"github.com/sakif/santabot/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockGameRepo implements repository.GameRepository with a single fixed game
// and roster, which is all the admin routes need.
type mockGameRepo struct {
	game    *model.Game
	members []model.Member
}

func (m *mockGameRepo) CreateGame(_ context.Context, _ *model.Game) error { return nil }
func (m *mockGameRepo) GetGameByID(_ context.Context, id string) (*model.Game, error) {
	if m.game != nil && m.game.ID == id {
		g := *m.game
		return &g, nil
	}
	return nil, apperror.NotFound("game", id)
}
func (m *mockGameRepo) ListGames(_ context.Context) ([]model.Game, error) {
	if m.game == nil {
		return nil, nil
	}
	return []model.Game{*m.game}, nil
}
func (m *mockGameRepo) ListGamesForUser(_ context.Context, _ string) ([]model.Game, error) {
	return nil, nil
}
func (m *mockGameRepo) AddMember(_ context.Context, _ *model.Membership) error { return nil }
func (m *mockGameRepo) IsMember(_ context.Context, _, _ string) (bool, error)  { return false, nil }
func (m *mockGameRepo) ListMembers(_ context.Context, _ string) ([]model.Member, error) {
	return m.members, nil
}

// mockAssignmentRepo records the last Replace call.
type mockAssignmentRepo struct {
	replaced   []*model.Assignment
	latestYear string
}

func (m *mockAssignmentRepo) Replace(_ context.Context, _, year string, rows []*model.Assignment) error {
	m.replaced = rows
	m.latestYear = year
	return nil
}
func (m *mockAssignmentRepo) ListForGameYear(_ context.Context, _, _ string) ([]model.Assignment, error) {
	return nil, nil
}
func (m *mockAssignmentRepo) LatestYear(_ context.Context, _ string) (string, error) {
	return m.latestYear, nil
}
func (m *mockAssignmentRepo) ReceiverFor(_ context.Context, _, _, giverID string) (string, error) {
	return "", apperror.NotFound("assignment", giverID)
}

// adminTestServer wires the admin routes behind RequireAuth for the given
// session user, over a three-player game hosted by "host".
func adminTestServer(t *testing.T, sessionUserID string) (*chi.Mux, *http.Cookie, *mockGameRepo, *mockAssignmentRepo) {
	t.Helper()

	games := &mockGameRepo{
		game: &model.Game{ID: uuid.NewString(), Name: "Office Party", CreatorID: "host"},
		members: []model.Member{
			{ID: "host", Name: "The Host", Email: "host@example.com"},
			{ID: "p1", Name: "Player One", Email: "p1@example.com"},
			{ID: "p2", Name: "Player Two", Email: "p2@example.com"},
		},
	}
	assignments := &mockAssignmentRepo{}

	logger := testLogger()
	engine := service.NewAssignmentService(games, assignments, logger)
	admin := service.NewAdminService(games, assignments, engine, logger)
	h := handler.NewAdminHandler(admin)

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/games/{gameID}/admin", h.HandleConsole)
		r.Post("/games/{gameID}/draw", h.HandleDraw)
	})

	token, err := tokens.Generate(sessionUserID)
	require.NoError(t, err)
	return r, &http.Cookie{Name: "token", Value: token}, games, assignments
}

func TestAdminHandler_HandleDraw(t *testing.T) {
	t.Run("host draws successfully", func(t *testing.T) {
		router, cookie, games, assignments := adminTestServer(t, "host")

		req := httptest.NewRequest(http.MethodPost,
			"/api/games/"+games.game.ID+"/draw", strings.NewReader(`{"year":"2026"}`))
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var body struct {
			Year         string `json:"year"`
			Participants int    `json:"participants"`
		}
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
		assert.Equal(t, "2026", body.Year)
		assert.Equal(t, 3, body.Participants)
		assert.Len(t, assignments.replaced, 3)
	})

	t.Run("draw response never reveals pairings", func(t *testing.T) {
		router, cookie, games, _ := adminTestServer(t, "host")

		req := httptest.NewRequest(http.MethodPost,
			"/api/games/"+games.game.ID+"/draw", strings.NewReader(`{"year":"2026"}`))
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		for _, id := range []string{"host", "p1", "p2"} {
			assert.NotContains(t, rr.Body.String(), `"`+id+`"`,
				"draw response leaked a participant id")
		}
	})

	t.Run("non-host is forbidden", func(t *testing.T) {
		router, cookie, games, assignments := adminTestServer(t, "p1")

		req := httptest.NewRequest(http.MethodPost,
			"/api/games/"+games.game.ID+"/draw", strings.NewReader(`{"year":"2026"}`))
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
		assert.Empty(t, assignments.replaced, "forbidden draw must not write")
	})

	t.Run("malformed game id in path", func(t *testing.T) {
		router, cookie, _, _ := adminTestServer(t, "host")

		req := httptest.NewRequest(http.MethodPost,
			"/api/games/not-a-uuid/draw", strings.NewReader(`{"year":"2026"}`))
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAdminHandler_HandleConsole(t *testing.T) {
	t.Run("host sees roster and status", func(t *testing.T) {
		router, cookie, games, _ := adminTestServer(t, "host")

		req := httptest.NewRequest(http.MethodGet, "/api/games/"+games.game.ID+"/admin", nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var state service.ConsoleState
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&state))
		assert.Equal(t, model.StatusPreDraw, state.GameStatus)
		assert.Len(t, state.Participants, 3)
		assert.Len(t, state.Invitees, 3)
	})

	t.Run("member cannot open the console", func(t *testing.T) {
		router, cookie, games, _ := adminTestServer(t, "p2")

		req := httptest.NewRequest(http.MethodGet, "/api/games/"+games.game.ID+"/admin", nil)
		req.AddCookie(cookie)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

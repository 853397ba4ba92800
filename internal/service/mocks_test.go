package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"testing"

	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/model"
)

// =========================================================================
// MOCK STORE
// =========================================================================
//
// mockStore is an in-memory implementation of all four repository
// interfaces, mirroring how the real sqlite.DB satisfies them with a single
// type. Services under test receive it as whichever interface they ask for.
//
// A hand-written mock keeps the test failures readable: when a draw test
// breaks, the diff shows assignments, not mock call expectations.

type mockStore struct {
	users       map[string]*model.User
	games       map[string]*model.Game
	memberships map[string][]string           // gameID → userIDs in join order
	assignments map[string]*model.Assignment  // gameID|year|giverID → row
	drawOrder   []string                      // gameID|year keys, oldest first
	profiles    map[string]*model.Profile     // userID → profile

	nextID int
}

func newMockStore() *mockStore {
	return &mockStore{
		users:       make(map[string]*model.User),
		games:       make(map[string]*model.Game),
		memberships: make(map[string][]string),
		assignments: make(map[string]*model.Assignment),
		profiles:    make(map[string]*model.Profile),
	}
}

func (m *mockStore) genID() string {
	m.nextID++
	return fmt.Sprintf("mock-%d", m.nextID)
}

func assignmentKey(gameID, year, giverID string) string {
	return gameID + "|" + year + "|" + giverID
}

// --- UserRepository ---

func (m *mockStore) Upsert(_ context.Context, user *model.User) error {
	if existing, ok := m.users[user.ID]; ok {
		existing.Email = user.Email
		existing.Name = user.Name
		return nil
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("that email is already in use by another account")
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockStore) CreateUser(_ context.Context, user *model.User) error {
	for _, u := range m.users {
		if u.Email == user.Email {
			return apperror.Conflict("an account with that email already exists")
		}
	}
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *mockStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	result := *u
	return &result, nil
}

func (m *mockStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			result := *u
			return &result, nil
		}
	}
	return nil, apperror.NotFound("user", email)
}

func (m *mockStore) UpdateWishlist(_ context.Context, userID, wishlist string) error {
	u, ok := m.users[userID]
	if !ok {
		return apperror.NotFound("user", userID)
	}
	u.Wishlist = wishlist
	return nil
}

// --- GameRepository ---

func (m *mockStore) CreateGame(_ context.Context, game *model.Game) error {
	stored := *game
	m.games[game.ID] = &stored
	m.memberships[game.ID] = []string{game.CreatorID}
	return nil
}

func (m *mockStore) GetGameByID(_ context.Context, id string) (*model.Game, error) {
	g, ok := m.games[id]
	if !ok {
		return nil, apperror.NotFound("game", id)
	}
	result := *g
	return &result, nil
}

func (m *mockStore) ListGames(_ context.Context) ([]model.Game, error) {
	ids := make([]string, 0, len(m.games))
	for id := range m.games {
		ids = append(ids, id)
	}
	sort.Strings(ids) // deterministic order for tests
	result := make([]model.Game, 0, len(ids))
	for _, id := range ids {
		result = append(result, *m.games[id])
	}
	return result, nil
}

func (m *mockStore) ListGamesForUser(_ context.Context, userID string) ([]model.Game, error) {
	all, _ := m.ListGames(context.Background())
	result := make([]model.Game, 0)
	for _, g := range all {
		for _, member := range m.memberships[g.ID] {
			if member == userID {
				result = append(result, g)
				break
			}
		}
	}
	return result, nil
}

func (m *mockStore) AddMember(_ context.Context, mem *model.Membership) error {
	for _, existing := range m.memberships[mem.GameID] {
		if existing == mem.UserID {
			return apperror.Conflict("you're already part of that game")
		}
	}
	if mem.ID == "" {
		mem.ID = m.genID()
	}
	m.memberships[mem.GameID] = append(m.memberships[mem.GameID], mem.UserID)
	return nil
}

func (m *mockStore) IsMember(_ context.Context, gameID, userID string) (bool, error) {
	for _, member := range m.memberships[gameID] {
		if member == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStore) ListMembers(_ context.Context, gameID string) ([]model.Member, error) {
	members := make([]model.Member, 0, len(m.memberships[gameID]))
	for _, userID := range m.memberships[gameID] {
		member := model.Member{ID: userID}
		if u, ok := m.users[userID]; ok {
			member.Name = u.Name
			member.Email = u.Email
		}
		members = append(members, member)
	}
	return members, nil
}

// --- AssignmentRepository ---

func (m *mockStore) Replace(_ context.Context, gameID, year string, rows []*model.Assignment) error {
	// Drop the previous generation for this exact key
	for key, a := range m.assignments {
		if a.GameID == gameID && a.Year == year {
			delete(m.assignments, key)
		}
	}
	for _, a := range rows {
		a.ID = m.genID()
		stored := *a
		m.assignments[assignmentKey(gameID, year, a.GiverID)] = &stored
	}

	// Track draw recency the way rowid ordering does in SQLite
	drawKey := gameID + "|" + year
	for i, k := range m.drawOrder {
		if k == drawKey {
			m.drawOrder = append(m.drawOrder[:i], m.drawOrder[i+1:]...)
			break
		}
	}
	m.drawOrder = append(m.drawOrder, drawKey)
	return nil
}

func (m *mockStore) ListForGameYear(_ context.Context, gameID, year string) ([]model.Assignment, error) {
	result := make([]model.Assignment, 0)
	for _, a := range m.assignments {
		if a.GameID == gameID && a.Year == year {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (m *mockStore) LatestYear(_ context.Context, gameID string) (string, error) {
	for i := len(m.drawOrder) - 1; i >= 0; i-- {
		key := m.drawOrder[i]
		if len(key) > len(gameID) && key[:len(gameID)] == gameID {
			return key[len(gameID)+1:], nil
		}
	}
	return "", nil
}

func (m *mockStore) ReceiverFor(_ context.Context, gameID, year, giverID string) (string, error) {
	a, ok := m.assignments[assignmentKey(gameID, year, giverID)]
	if !ok {
		return "", apperror.NotFound("assignment", giverID)
	}
	return a.ReceiverID, nil
}

// --- ProfileRepository ---

func (m *mockStore) UpsertProfile(_ context.Context, p *model.Profile) error {
	stored := *p
	m.profiles[p.UserID] = &stored
	return nil
}

func (m *mockStore) GetProfileByUserID(_ context.Context, userID string) (*model.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, apperror.NotFound("profile", userID)
	}
	result := *p
	return &result, nil
}

// =========================================================================
// SHARED TEST HELPERS
// =========================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// seedUser adds a user to the mock store.
func seedUser(t *testing.T, store *mockStore, id, name string) *model.User {
	t.Helper()
	u := &model.User{ID: id, Email: id + "@example.com", Name: name}
	if err := store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seeding user %s: %v", id, err)
	}
	return u
}

// seedGame adds a game whose creator is automatically the first member.
func seedGame(t *testing.T, store *mockStore, id, name, creatorID string) *model.Game {
	t.Helper()
	g := &model.Game{ID: id, Name: name, CreatorID: creatorID}
	if err := store.CreateGame(context.Background(), g); err != nil {
		t.Fatalf("seeding game %s: %v", id, err)
	}
	return g
}

// joinGame adds an existing user to an existing game.
func joinGame(t *testing.T, store *mockStore, gameID, userID string) {
	t.Helper()
	if err := store.AddMember(context.Background(), &model.Membership{GameID: gameID, UserID: userID}); err != nil {
		t.Fatalf("joining user %s to game %s: %v", userID, gameID, err)
	}
}

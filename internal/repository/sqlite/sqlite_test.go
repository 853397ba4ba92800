package sqlite

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/xid"
	"github.com/sakif/santabot/internal/model"
)

// newTestDB is a "test helper" — a function used only in tests to reduce boilerplate.
// The `t.Helper()` call tells Go's test framework to report errors at the CALLER's
// line number, not inside this function. This makes test failure output much clearer.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	// t.Cleanup registers a function to run when the test finishes.
	// This is like defer, but scoped to the test — even works in subtests.
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, id, email string) *model.User {
	t.Helper()
	user := &model.User{
		ID:    id,
		Email: email,
		Name:  "Test " + id,
	}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// createTestGame creates a game (with the creator as first member) and fails
// the test if it errors. The creator must already exist.
func createTestGame(t *testing.T, db *DB, creatorID, name string) *model.Game {
	t.Helper()
	game := &model.Game{
		ID:        uuid.NewString(),
		Name:      name,
		CreatorID: creatorID,
	}
	if err := db.CreateGame(context.Background(), game); err != nil {
		t.Fatalf("failed to create test game: %v", err)
	}
	return game
}

// addTestMember joins a user to a game and fails the test if it errors.
func addTestMember(t *testing.T, db *DB, gameID, userID string) {
	t.Helper()
	m := &model.Membership{
		ID:     xid.New().String(),
		GameID: gameID,
		UserID: userID,
	}
	if err := db.AddMember(context.Background(), m); err != nil {
		t.Fatalf("failed to add test member: %v", err)
	}
}

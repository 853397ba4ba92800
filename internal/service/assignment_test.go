package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/sakif/santabot/internal/apperror"
)

// newTestEngine creates an AssignmentService over a mock store with a
// fixed-seed rng so failures reproduce.
func newTestEngine(t *testing.T, seed int64) (*AssignmentService, *mockStore) {
	t.Helper()
	store := newMockStore()
	engine := NewAssignmentService(store, store, testLogger())
	engine.rng = rand.New(rand.NewSource(seed))
	return engine, store
}

// seedRoster creates a game with n members and returns (gameID, userIDs).
func seedRoster(t *testing.T, store *mockStore, n int) (string, []string) {
	t.Helper()
	userIDs := make([]string, n)
	for i := 0; i < n; i++ {
		u := seedUser(t, store, fmt.Sprintf("player-%d", i), fmt.Sprintf("Player %d", i))
		userIDs[i] = u.ID
	}
	gameID := uuid.NewString()
	seedGame(t, store, gameID, "Roster Game", userIDs[0])
	for _, id := range userIDs[1:] {
		joinGame(t, store, gameID, id)
	}
	return gameID, userIDs
}

// =========================================================================
// PAIRING PROPERTY TESTS
// =========================================================================

// checkPairing asserts the structural guarantees of a draw: everyone gives
// exactly once, everyone receives exactly once, and nobody drew themselves.
func checkPairing(t *testing.T, rows []struct{ giver, receiver string }, roster []string) {
	t.Helper()

	if len(rows) != len(roster) {
		t.Fatalf("draw produced %d assignments for %d participants", len(rows), len(roster))
	}

	givers := map[string]int{}
	receivers := map[string]int{}
	for _, r := range rows {
		givers[r.giver]++
		receivers[r.receiver]++
		if r.giver == r.receiver {
			t.Errorf("participant %s drew themselves", r.giver)
		}
	}
	for _, id := range roster {
		if givers[id] != 1 {
			t.Errorf("participant %s appears as giver %d times, want 1", id, givers[id])
		}
		if receivers[id] != 1 {
			t.Errorf("participant %s appears as receiver %d times, want 1", id, receivers[id])
		}
	}
}

func TestDraw_ProducesValidPairing(t *testing.T) {
	// Every roster size from the minimum up, across several seeds. Size 2
	// and 3 are where a broken pairing scheme shows self-draws first.
	for n := 2; n <= 6; n++ {
		for seed := int64(0); seed < 10; seed++ {
			t.Run(fmt.Sprintf("n=%d seed=%d", n, seed), func(t *testing.T) {
				engine, store := newTestEngine(t, seed)
				gameID, roster := seedRoster(t, store, n)

				rows, err := engine.Draw(context.Background(), gameID, "2026")
				if err != nil {
					t.Fatalf("Draw() error = %v", err)
				}

				pairs := make([]struct{ giver, receiver string }, len(rows))
				for i, a := range rows {
					pairs[i] = struct{ giver, receiver string }{a.GiverID, a.ReceiverID}
					if a.GameID != gameID || a.Year != "2026" {
						t.Errorf("assignment has wrong key: game %q year %q", a.GameID, a.Year)
					}
				}
				checkPairing(t, pairs, roster)
			})
		}
	}
}

func TestDraw_PersistsWhatItReturns(t *testing.T) {
	engine, store := newTestEngine(t, 42)
	gameID, _ := seedRoster(t, store, 4)

	rows, err := engine.Draw(context.Background(), gameID, "2026")
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}

	for _, a := range rows {
		stored, err := store.ReceiverFor(context.Background(), gameID, "2026", a.GiverID)
		if err != nil {
			t.Fatalf("ReceiverFor(%s) error = %v", a.GiverID, err)
		}
		if stored != a.ReceiverID {
			t.Errorf("stored receiver for %s = %q, returned %q", a.GiverID, stored, a.ReceiverID)
		}
	}
}

// =========================================================================
// REDRAW TESTS
// =========================================================================

func TestDraw_RedrawReplacesPreviousRound(t *testing.T) {
	engine, store := newTestEngine(t, 1)
	gameID, roster := seedRoster(t, store, 5)

	if _, err := engine.Draw(context.Background(), gameID, "2026"); err != nil {
		t.Fatalf("Draw() first: %v", err)
	}
	if _, err := engine.Draw(context.Background(), gameID, "2026"); err != nil {
		t.Fatalf("Draw() redraw: %v", err)
	}

	stored, err := store.ListForGameYear(context.Background(), gameID, "2026")
	if err != nil {
		t.Fatalf("ListForGameYear() error = %v", err)
	}
	if len(stored) != len(roster) {
		t.Errorf("after redraw: %d assignments, want %d (no leftovers from round one)", len(stored), len(roster))
	}
}

func TestDraw_YearsDoNotInterfere(t *testing.T) {
	engine, store := newTestEngine(t, 2)
	gameID, roster := seedRoster(t, store, 4)

	if _, err := engine.Draw(context.Background(), gameID, "2025"); err != nil {
		t.Fatalf("Draw() 2025: %v", err)
	}
	if _, err := engine.Draw(context.Background(), gameID, "2026"); err != nil {
		t.Fatalf("Draw() 2026: %v", err)
	}

	for _, year := range []string{"2025", "2026"} {
		stored, err := store.ListForGameYear(context.Background(), gameID, year)
		if err != nil {
			t.Fatalf("ListForGameYear(%s) error = %v", year, err)
		}
		if len(stored) != len(roster) {
			t.Errorf("year %s has %d assignments, want %d", year, len(stored), len(roster))
		}
	}
}

// =========================================================================
// GUARD TESTS
// =========================================================================

func TestDraw_RequiresTwoParticipants(t *testing.T) {
	engine, store := newTestEngine(t, 3)
	gameID, _ := seedRoster(t, store, 1) // host only

	_, err := engine.Draw(context.Background(), gameID, "2026")
	if !errors.Is(err, apperror.ErrValidation) {
		t.Fatalf("Draw() with 1 participant error = %v, want ErrValidation", err)
	}

	// Nothing may be written on a failed draw
	stored, _ := store.ListForGameYear(context.Background(), gameID, "2026")
	if len(stored) != 0 {
		t.Errorf("failed draw wrote %d assignments, want 0", len(stored))
	}
}

func TestDraw_RejectsMalformedGameID(t *testing.T) {
	engine, _ := newTestEngine(t, 4)

	for _, bad := range []string{"", "not-a-uuid", "12345", "abcd-HOLIDAY"} {
		_, err := engine.Draw(context.Background(), bad, "2026")
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Draw(%q) error = %v, want ErrValidation", bad, err)
		}
	}
}

func TestDraw_UnknownGame(t *testing.T) {
	engine, _ := newTestEngine(t, 5)

	_, err := engine.Draw(context.Background(), uuid.NewString(), "2026")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Draw() for unknown game error = %v, want ErrNotFound", err)
	}
}

func TestDraw_RequiresYear(t *testing.T) {
	engine, store := newTestEngine(t, 6)
	gameID, _ := seedRoster(t, store, 3)

	for _, bad := range []string{"", "   "} {
		_, err := engine.Draw(context.Background(), gameID, bad)
		if !errors.Is(err, apperror.ErrValidation) {
			t.Errorf("Draw() with year %q error = %v, want ErrValidation", bad, err)
		}
	}
}

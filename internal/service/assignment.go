// Package service contains the business logic layer of the application.
//
// The layering follows the usual three-tier shape:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept repository interfaces (not concrete sqlite types), return
// domain errors from the apperror package, and know nothing about HTTP.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/model"
	"github.com/sakif/santabot/internal/repository"
)

// AssignmentService is the draw engine: it turns a game's roster into a
// randomized giver→receiver pairing and persists it.
//
// HOW THE PAIRING WORKS:
// The roster is shuffled with Fisher-Yates, then read as a single cycle:
// position i gives to position (i+1) mod N. A cycle of length ≥ 2 has no
// fixed points under a +1 rotation, so as long as the 2-participant guard
// holds, nobody can draw themselves. Every member appears exactly once as a
// giver and exactly once as a receiver by construction, so the pairing is a
// permutation of the roster with no extra bookkeeping.
//
// RANDOMNESS:
// math/rand, deliberately. The shuffle needs statistical fairness (every
// permutation equally likely, which Fisher-Yates with an unbiased index
// delivers), not cryptographic unpredictability. This is a social game, not
// an adversarial protocol.
//
// AUTHORIZATION:
// The engine performs NO ownership check. Callers (AdminService) must have
// already verified that the requesting user is the game's host.
type AssignmentService struct {
	games       repository.GameRepository
	assignments repository.AssignmentRepository
	logger      *slog.Logger

	// rng is not goroutine-safe; rngMu guards it across concurrent draws of
	// different games.
	rngMu sync.Mutex
	rng   *rand.Rand

	// gameLocks serializes draws per game. Two concurrent draws for the same
	// (game, year) would otherwise interleave their delete/insert phases at
	// the storage engine's mercy. The store is embedded in this process, so a
	// process-local mutex is a real guarantee, not an advisory one.
	locksMu   sync.Mutex
	gameLocks map[string]*sync.Mutex
}

// NewAssignmentService creates an AssignmentService seeded from the clock.
// Tests in this package swap rng for a fixed-seed source.
func NewAssignmentService(
	games repository.GameRepository,
	assignments repository.AssignmentRepository,
	logger *slog.Logger,
) *AssignmentService {
	return &AssignmentService{
		games:       games,
		assignments: assignments,
		logger:      logger,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		gameLocks:   make(map[string]*sync.Mutex),
	}
}

// Draw computes and persists a new pairing for (gameID, year), replacing any
// prior pairing for that exact key, and returns the new rows.
//
// Failure modes, none of which mutate anything:
//   - gameID is not a well-formed game identifier → validation error
//   - the game doesn't exist → not-found error
//   - fewer than 2 members on the roster → validation error
//
// A storage failure during the replace is surfaced as-is; the repository
// guarantees no partial commit.
func (s *AssignmentService) Draw(ctx context.Context, gameID, year string) ([]model.Assignment, error) {
	year = strings.TrimSpace(year)
	if year == "" {
		return nil, apperror.ValidationFailed("year", "a year label is required to draw names")
	}
	if !IsGameID(gameID) {
		return nil, apperror.ValidationFailed("gameId",
			"invalid game id. Please make sure you opened this page from a real game link.")
	}

	game, err := s.games.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	// One draw at a time per game. The lock covers roster fetch through
	// commit so a concurrent redraw can't interleave its delete/insert with
	// ours.
	lock := s.lockFor(gameID)
	lock.Lock()
	defer lock.Unlock()

	members, err := s.games.ListMembers(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("service/assignment: loading roster for game %s: %w", gameID, err)
	}

	if len(members) < 2 {
		return nil, apperror.ValidationFailed("participants", "need at least 2 participants in the game")
	}

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	s.shuffle(ids)

	rows := make([]*model.Assignment, len(ids))
	for i, giver := range ids {
		rows[i] = &model.Assignment{
			GameID:     gameID,
			GiverID:    giver,
			ReceiverID: ids[(i+1)%len(ids)],
			Year:       year,
		}
	}

	if err := s.assignments.Replace(ctx, gameID, year, rows); err != nil {
		return nil, fmt.Errorf("service/assignment: persisting draw for game %s: %w", gameID, err)
	}

	s.logger.Info("names drawn",
		slog.String("gameID", gameID),
		slog.String("game", game.Name),
		slog.String("year", year),
		slog.Int("participants", len(rows)),
	)

	result := make([]model.Assignment, len(rows))
	for i, a := range rows {
		result[i] = *a
	}
	return result, nil
}

// shuffle permutes ids in place with Fisher-Yates: walk from the last index
// down to 1, swapping each element with a uniformly chosen element at or
// before it. Intn(i+1) includes i itself, which is what makes the shuffle
// unbiased; the off-by-one variant (Intn(i)) is the classic way to get a
// subtly skewed distribution.
func (s *AssignmentService) shuffle(ids []string) {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	for i := len(ids) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}
}

// lockFor returns the mutex serializing draws for the given game, creating
// it on first use. Locks are never removed; the map grows with the number of
// games ever drawn in this process, which is tiny.
func (s *AssignmentService) lockFor(gameID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	lock, ok := s.gameLocks[gameID]
	if !ok {
		lock = &sync.Mutex{}
		s.gameLocks[gameID] = lock
	}
	return lock
}

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/model"
	"github.com/sakif/santabot/internal/repository"
)

// AdminService is the host-facing orchestration layer: it owns the "only the
// host can manage this game" rule and delegates the actual draw to the
// AssignmentService, which performs no ownership check of its own. The check
// therefore MUST happen here, before every delegation.
type AdminService struct {
	games       repository.GameRepository
	assignments repository.AssignmentRepository
	engine      *AssignmentService
	logger      *slog.Logger
	now         func() time.Time // injected clock so tests can pin "today"
}

func NewAdminService(
	games repository.GameRepository,
	assignments repository.AssignmentRepository,
	engine *AssignmentService,
	logger *slog.Logger,
) *AdminService {
	return &AdminService{
		games:       games,
		assignments: assignments,
		engine:      engine,
		logger:      logger,
		now:         time.Now,
	}
}

// InviteStatus mirrors what the console can actually know about an invitee.
// Only members are tracked, and a member has by definition accepted, so
// every reported status is "accepted". Pending/bounced states would need
// persisted invite records, which we don't keep. A known simplification.
type InviteStatus string

const InviteAccepted InviteStatus = "accepted"

type Invitee struct {
	Email  string       `json:"email"`
	Status InviteStatus `json:"status"`
}

// ConsoleState is everything the admin console renders in one load.
type ConsoleState struct {
	Game                 *model.Game      `json:"game"`
	Participants         []model.Member   `json:"participants"`
	Invitees             []Invitee        `json:"invitees"`
	GameStatus           model.GameStatus `json:"gameStatus"`
	LatestAssignmentYear string           `json:"latestAssignmentYear,omitempty"`
}

// RequestDraw triggers a draw for (gameID, year) on behalf of the requesting
// user. The host check runs first; a non-host gets a forbidden error and no
// rows are touched. Game status is derived downstream from the new rows, so
// there is nothing to invalidate here.
func (s *AdminService) RequestDraw(ctx context.Context, gameID, year, userID string) ([]model.Assignment, error) {
	game, err := s.ensureHost(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}

	rows, err := s.engine.Draw(ctx, gameID, year)
	if err != nil {
		return nil, err
	}

	s.logger.Info("draw requested by host",
		slog.String("gameID", game.ID),
		slog.String("hostID", userID),
		slog.String("year", year),
	)

	return rows, nil
}

// LoadConsoleState returns the admin console view: game metadata, the full
// roster, the invitee projection, and the derived status with the most
// recent assignment year (empty if the game has never been drawn).
func (s *AdminService) LoadConsoleState(ctx context.Context, gameID, userID string) (*ConsoleState, error) {
	game, err := s.ensureHost(ctx, gameID, userID)
	if err != nil {
		return nil, err
	}

	participants, err := s.games.ListMembers(ctx, gameID)
	if err != nil {
		return nil, err
	}

	invitees := make([]Invitee, len(participants))
	for i, p := range participants {
		invitees[i] = Invitee{Email: p.Email, Status: InviteAccepted}
	}

	latestYear, err := s.assignments.LatestYear(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return &ConsoleState{
		Game:                 game,
		Participants:         participants,
		Invitees:             invitees,
		GameStatus:           StatusFor(latestYear, s.now()),
		LatestAssignmentYear: latestYear,
	}, nil
}

// ensureHost loads the game and verifies the requesting user is its creator.
// This is the mandatory gate in front of every host-only operation.
func (s *AdminService) ensureHost(ctx context.Context, gameID, userID string) (*model.Game, error) {
	if !IsGameID(gameID) {
		return nil, apperror.ValidationFailed("gameId",
			"invalid game id. Please open the admin console from a real game link.")
	}

	game, err := s.games.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.CreatorID != userID {
		return nil, apperror.Forbidden("only the host can manage this game")
	}

	return game, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/model"
	"github.com/sakif/santabot/internal/repository"
)

// emailPattern is a deliberately loose local@domain.tld gate. It catches
// typos like a missing @ or TLD; it does not try to implement RFC 5322.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// eventDateLayouts are the accepted event date formats, tried in order:
// full RFC 3339, the HTML datetime-local control's format, and a bare date.
var eventDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02",
}

// GameService handles game creation, joining, and the player dashboard.
type GameService struct {
	games       repository.GameRepository
	users       repository.UserRepository
	assignments repository.AssignmentRepository
	profiles    repository.ProfileRepository
	logger      *slog.Logger
	now         func() time.Time
}

func NewGameService(
	games repository.GameRepository,
	users repository.UserRepository,
	assignments repository.AssignmentRepository,
	profiles repository.ProfileRepository,
	logger *slog.Logger,
) *GameService {
	return &GameService{
		games:       games,
		users:       users,
		assignments: assignments,
		profiles:    profiles,
		logger:      logger,
		now:         time.Now,
	}
}

// CreatedGame is returned by Create. Invitees is the cleaned-up invite list;
// nothing is emailed server-side. Clients use it together with JoinCode to
// compose a mailto link, which is the whole extent of "sending" invites.
type CreatedGame struct {
	GameID    string    `json:"gameId"`
	Name      string    `json:"name"`
	JoinCode  string    `json:"joinCode"`
	EventDate time.Time `json:"eventDate"`
	Invitees  []string  `json:"invitees"`
}

// Create validates the input and inserts the game with the creator as host
// and first member (one transaction, via the repository).
//
// Invite emails are lower-cased and de-duplicated before validation, and the
// first address failing the shape check is named in the error so the user
// knows which entry to fix.
func (s *GameService) Create(ctx context.Context, name, eventDate string, inviteEmails []string, creatorID string) (*CreatedGame, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "game name is required")
	}

	when, err := parseEventDate(eventDate)
	if err != nil {
		return nil, apperror.ValidationFailed("eventDate", "enter a valid event date")
	}

	invitees, err := cleanInviteEmails(inviteEmails)
	if err != nil {
		return nil, err
	}

	game := &model.Game{
		ID:        uuid.NewString(),
		Name:      name,
		CreatorID: creatorID,
		EventDate: when,
	}

	if err := s.games.CreateGame(ctx, game); err != nil {
		return nil, fmt.Errorf("service/game: creating game %q: %w", name, err)
	}

	s.logger.Info("game created",
		slog.String("gameID", game.ID),
		slog.String("name", game.Name),
		slog.String("creatorID", creatorID),
		slog.Int("invitees", len(invitees)),
	)

	return &CreatedGame{
		GameID:    game.ID,
		Name:      game.Name,
		JoinCode:  JoinCodeFor(game.ID),
		EventDate: game.EventDate,
		Invitees:  invitees,
	}, nil
}

// Join adds the requesting user to the game the code resolves to and returns
// the game's name.
//
// CODE RESOLUTION:
// A code that parses as a game UUID is looked up directly; anything else is
// treated as a short join code and matched by deriving each game's code and
// comparing. The scan is linear over all games, which is fine at gift
// exchange scale (see GameRepository.ListGames).
func (s *GameService) Join(ctx context.Context, code, userID string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", apperror.ValidationFailed("code", "enter the invite code your host shared to continue")
	}

	var target *model.Game

	if IsGameID(code) {
		game, err := s.games.GetGameByID(ctx, code)
		if err != nil && !errors.Is(err, apperror.ErrNotFound) {
			return "", err
		}
		target = game
	} else {
		wanted := strings.ToUpper(code)
		games, err := s.games.ListGames(ctx)
		if err != nil {
			return "", err
		}
		for i := range games {
			if JoinCodeFor(games[i].ID) == wanted {
				target = &games[i]
				break
			}
		}
	}

	if target == nil {
		return "", apperror.NotFoundMessage("no game matches that code. Ask your host to confirm it and try again.")
	}

	member, err := s.games.IsMember(ctx, target.ID, userID)
	if err != nil {
		return "", err
	}
	if member {
		return "", apperror.Conflict("you're already part of that game")
	}

	if err := s.games.AddMember(ctx, &model.Membership{
		GameID:   target.ID,
		UserID:   userID,
		JoinedAt: s.now(),
	}); err != nil {
		return "", err
	}

	s.logger.Info("player joined game",
		slog.String("gameID", target.ID),
		slog.String("userID", userID),
	)

	return target.Name, nil
}

// Recipient is the caller's own match: who they're gifting, plus whatever
// the receiver has shared to help pick a gift.
type Recipient struct {
	Name     string         `json:"name"`
	Wishlist string         `json:"wishlist,omitempty"`
	Profile  *model.Profile `json:"profile,omitempty"`
}

// GamePanel is one entry on the player dashboard.
type GamePanel struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	EventDate time.Time        `json:"eventDate"`
	IsHost    bool             `json:"isHost"`
	Status    model.GameStatus `json:"status"`
	Year      string           `json:"year,omitempty"`
	Recipient *Recipient       `json:"recipient,omitempty"`
}

// Dashboard lists the caller's games with derived status and, where a draw
// exists, the caller's own recipient for the most recent year.
//
// PRIVACY INVARIANT:
// The only assignment ever loaded is the one where the caller is the giver
// (ReceiverFor keys on giverID). No other pairing leaves the store through
// this path, so nobody can learn someone else's match from the dashboard.
func (s *GameService) Dashboard(ctx context.Context, userID string) ([]GamePanel, error) {
	games, err := s.games.ListGamesForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	panels := make([]GamePanel, 0, len(games))
	for _, g := range games {
		latestYear, err := s.assignments.LatestYear(ctx, g.ID)
		if err != nil {
			return nil, err
		}

		panel := GamePanel{
			ID:        g.ID,
			Name:      g.Name,
			EventDate: g.EventDate,
			IsHost:    g.CreatorID == userID,
			Status:    StatusFor(latestYear, s.now()),
			Year:      latestYear,
		}

		if latestYear != "" {
			recipient, err := s.loadRecipient(ctx, g.ID, latestYear, userID)
			if err != nil {
				return nil, err
			}
			panel.Recipient = recipient
		}

		panels = append(panels, panel)
	}

	return panels, nil
}

// loadRecipient resolves the caller's match for one game/year. A missing
// assignment (the caller joined after the draw) is not an error; the panel
// just has no recipient.
func (s *GameService) loadRecipient(ctx context.Context, gameID, year, giverID string) (*Recipient, error) {
	receiverID, err := s.assignments.ReceiverFor(ctx, gameID, year, giverID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	receiver, err := s.users.GetUserByID(ctx, receiverID)
	if err != nil {
		return nil, fmt.Errorf("service/game: loading recipient %s: %w", receiverID, err)
	}

	recipient := &Recipient{
		Name:     receiver.Name,
		Wishlist: receiver.Wishlist,
	}

	// The gift profile is optional display data; absence is normal.
	profile, err := s.profiles.GetProfileByUserID(ctx, receiverID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}
	recipient.Profile = profile

	return recipient, nil
}

func parseEventDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range eventDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable event date %q", s)
}

// cleanInviteEmails lower-cases, trims, de-duplicates (preserving order),
// and shape-checks the invite list. The first bad address is named in the
// returned validation error.
func cleanInviteEmails(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	cleaned := make([]string, 0, len(raw))

	for _, entry := range raw {
		email := strings.ToLower(strings.TrimSpace(entry))
		if email == "" || seen[email] {
			continue
		}
		if !emailPattern.MatchString(email) {
			return nil, apperror.ValidationFailed("inviteEmails",
				fmt.Sprintf("%q doesn't look like a valid email address", email))
		}
		seen[email] = true
		cleaned = append(cleaned, email)
	}

	return cleaned, nil
}

package repository

import (
	"context"

	"github.com/sakif/santabot/internal/model"
)

// UserRepository persists participant accounts.
type UserRepository interface {
	// Upsert inserts or updates a user keyed on ID. It runs on every session
	// establishment, refreshing email and name from the identity provider.
	Upsert(ctx context.Context, user *model.User) error
	// CreateUser inserts a brand-new password account. Fails with a conflict
	// error if the email is already taken.
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// UpdateWishlist replaces the free-text wishlist on the user record.
	UpdateWishlist(ctx context.Context, userID, wishlist string) error
}

// GameRepository persists games and their membership roster.
type GameRepository interface {
	// CreateGame inserts the game row and the creator's membership row in one
	// transaction — a game must never exist without its host on the roster.
	CreateGame(ctx context.Context, game *model.Game) error
	GetGameByID(ctx context.Context, id string) (*model.Game, error)
	// ListGames returns every game. Used by the join workflow's code scan.
	ListGames(ctx context.Context) ([]model.Game, error)
	// ListGamesForUser returns the games the user is a member of.
	ListGamesForUser(ctx context.Context, userID string) ([]model.Game, error)
	AddMember(ctx context.Context, m *model.Membership) error
	IsMember(ctx context.Context, gameID, userID string) (bool, error)
	// ListMembers returns the roster (id, name, email) for a game.
	ListMembers(ctx context.Context, gameID string) ([]model.Member, error)
}

// AssignmentRepository persists draw results.
type AssignmentRepository interface {
	// Replace atomically deletes every assignment row matching (gameID, year)
	// and inserts the given rows. All-or-nothing: a failure partway leaves
	// the previous generation untouched.
	Replace(ctx context.Context, gameID, year string, rows []*model.Assignment) error
	ListForGameYear(ctx context.Context, gameID, year string) ([]model.Assignment, error)
	// LatestYear returns the year label of the most recent assignment for the
	// game across all years, or "" if the game has never been drawn.
	LatestYear(ctx context.Context, gameID string) (string, error)
	// ReceiverFor returns the receiver assigned to the given giver for
	// (gameID, year). Only ever called with the requesting user as giver, so
	// no other pairing can leak through this path.
	ReceiverFor(ctx context.Context, gameID, year, giverID string) (string, error)
}

// ProfileRepository persists the optional gift profiles.
type ProfileRepository interface {
	UpsertProfile(ctx context.Context, p *model.Profile) error
	GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
}

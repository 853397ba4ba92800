package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/model"
	"github.com/sakif/santabot/internal/repository"
)

// ProfileService handles the optional gift profile and the wishlist on the
// user record. Both are display data for the user's giver; the draw engine
// never reads either.
type ProfileService struct {
	profiles repository.ProfileRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

func NewProfileService(
	profiles repository.ProfileRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles: profiles,
		users:    users,
		logger:   logger,
	}
}

// ProfileInput is the editable portion of a gift profile.
type ProfileInput struct {
	Name           string `json:"name"`
	Age            int    `json:"age"`
	FavoriteColors string `json:"favoriteColors"`
	Interests      string `json:"interests"`
	Wishlist       string `json:"wishlist"`
}

// Save validates and upserts the caller's gift profile. An unavailable
// error from the repository (profiles table missing, migrations not run)
// passes through untouched so the operator guidance reaches the user.
func (s *ProfileService) Save(ctx context.Context, userID string, in ProfileInput) (*model.Profile, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "please provide your name")
	}
	if in.Age < 0 || in.Age > 120 {
		return nil, apperror.ValidationFailed("age", "enter a valid age")
	}

	profile := &model.Profile{
		UserID:         userID,
		Name:           name,
		Age:            in.Age,
		FavoriteColors: strings.TrimSpace(in.FavoriteColors),
		Interests:      strings.TrimSpace(in.Interests),
		Wishlist:       strings.TrimSpace(in.Wishlist),
	}

	if err := s.profiles.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}

	s.logger.Info("profile saved", slog.String("userID", userID))

	return profile, nil
}

// Get returns the caller's gift profile; NotFound means they haven't created
// one yet.
func (s *ProfileService) Get(ctx context.Context, userID string) (*model.Profile, error) {
	return s.profiles.GetProfileByUserID(ctx, userID)
}

// SaveWishlist updates the free-text wishlist on the user record itself
// (distinct from the profile's wishlist field, which mirrors the original
// data model).
func (s *ProfileService) SaveWishlist(ctx context.Context, userID, wishlist string) error {
	if err := s.users.UpdateWishlist(ctx, userID, strings.TrimSpace(wishlist)); err != nil {
		return err
	}
	s.logger.Info("wishlist updated", slog.String("userID", userID))
	return nil
}

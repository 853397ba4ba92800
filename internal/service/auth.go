package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rs/xid"
	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/auth"
	"github.com/sakif/santabot/internal/model"
	"github.com/sakif/santabot/internal/repository"
)

// AuthService orchestrates session establishment: syncing verified
// identities into the users table, registering and checking password
// accounts, and issuing the session token the HTTP layer turns into a
// cookie.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the synced user record and the issued session token so
// the handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// SyncIdentity mirrors a verified identity into the users table and issues a
// session. This runs on every session establishment, not just the first:
// the provider is authoritative for email and display name, so both are
// refreshed on conflict. Wishlist and password hash are local data and
// survive the sync untouched.
func (s *AuthService) SyncIdentity(ctx context.Context, identity *auth.Identity) (*AuthResult, error) {
	if identity == nil || identity.ID == "" {
		return nil, fmt.Errorf("service/auth: identity must have an id")
	}

	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if email == "" {
		return nil, fmt.Errorf("service/auth: identity %s has no email", identity.ID)
	}

	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = mailboxName(email)
	}

	user := &model.User{
		ID:    identity.ID,
		Email: email,
		Name:  name,
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: syncing identity %s: %w", identity.ID, err)
	}

	// Re-read to pick up the fields Upsert doesn't touch (wishlist,
	// timestamps) so the caller gets the canonical record.
	record, err := s.users.GetUserByID(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: reloading user %s after sync: %w", identity.ID, err)
	}

	s.logger.Info("identity synced",
		slog.String("userID", record.ID),
		slog.String("email", record.Email),
	)

	return s.issueSession(record)
}

// Register creates a new email/password account and issues a session.
func (s *AuthService) Register(ctx context.Context, email, name, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !emailPattern.MatchString(email) {
		return nil, apperror.ValidationFailed("email", "enter a valid email address")
	}
	if len(password) < 8 {
		return nil, apperror.ValidationFailed("password", "password must be at least 8 characters")
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = mailboxName(email)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", "that password can't be used; try a shorter one")
	}

	user := &model.User{
		ID:           xid.New().String(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account registered",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	return s.issueSession(user)
}

// Login checks an email/password pair and issues a session.
//
// All failure paths return the same forbidden error: the response must not
// reveal whether the email exists, whether the account is OAuth-only, or
// whether only the password was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	denied := apperror.Forbidden("invalid email or password")

	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, denied
	}
	if user.PasswordHash == "" {
		// OAuth-only account; no password to check.
		return nil, denied
	}

	ok, err := s.passwords.Verify(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, denied
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return s.issueSession(user)
}

// mailboxName is the default display name when a user provides none: the
// part of the email before the @, or the whole string if there isn't one.
func mailboxName(email string) string {
	if at := strings.IndexByte(email, '@'); at > 0 {
		return email[:at]
	}
	return email
}

func (s *AuthService) issueSession(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating session token for user %s: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}

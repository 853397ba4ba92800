package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/model"
	"github.com/sakif/santabot/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

// Upsert inserts or updates a user keyed on ID.
//
// This runs on every session establishment: the identity provider hands us a
// verified (id, email, name) triple and we mirror it locally, refreshing
// email and name in case they changed upstream. The wishlist and password
// hash are deliberately NOT touched on the update path — they belong to this
// app, not to the provider.
func (db *DB) Upsert(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.UpdatedAt = now

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, updated_at = ? WHERE id = ?`,
		user.Email, user.Name, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// First time we've seen this identity — insert the full record.
	user.CreatedAt = now
	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, wishlist, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.Wishlist, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("that email is already in use by another account")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.ID, err)
	}

	return nil
}

// CreateUser inserts a brand-new password account. Unlike Upsert, an existing
// row is an error: registering twice with the same email is a conflict the
// user should see.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, wishlist, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.Wishlist, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("an account with that email already exists")
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.ID, err)
	}

	return nil
}

func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return db.getUser(ctx, `WHERE id = ?`, id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return db.getUser(ctx, `WHERE email = ?`, email)
}

func (db *DB) getUser(ctx context.Context, where string, arg string) (*model.User, error) {
	var u model.User

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, wishlist, password_hash, created_at, updated_at
		 FROM users `+where,
		arg,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.Wishlist,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", arg)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", arg, err)
	}

	return &u, nil
}

// UpdateWishlist replaces the free-text wishlist on the user record.
func (db *DB) UpdateWishlist(ctx context.Context, userID, wishlist string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET wishlist = ?, updated_at = ? WHERE id = ?`,
		wishlist, time.Now(), userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating wishlist for user %s: %w", userID, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", userID)
	}
	return nil
}

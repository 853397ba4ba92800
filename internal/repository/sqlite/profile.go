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

// compile-time check that *DB implements repository.ProfileRepository
var _ repository.ProfileRepository = (*DB)(nil)

// migrationsHint is shown to operators when the profiles table is missing —
// i.e. the database predates the profiles migration.
const migrationsHint = "profiles table not found — run your database migrations to enable profile editing"

// UpsertProfile inserts or updates the gift profile for p.UserID.
//
// SQLite's ON CONFLICT DO UPDATE gives us the upsert in a single statement,
// keyed on the user_id primary key. A write against a database that predates
// the profiles migration comes back as an unavailable error with operator
// guidance, detected via the typed driver error (see isMissingTable) rather
// than by matching message text at this layer.
func (db *DB) UpsertProfile(ctx context.Context, p *model.Profile) error {
	p.UpdatedAt = time.Now()

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO profiles (user_id, name, age, favorite_colors, interests, wishlist, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name,
			age = excluded.age,
			favorite_colors = excluded.favorite_colors,
			interests = excluded.interests,
			wishlist = excluded.wishlist,
			updated_at = excluded.updated_at`,
		p.UserID, p.Name, p.Age, p.FavoriteColors, p.Interests, p.Wishlist, p.UpdatedAt,
	)
	if err != nil {
		if isMissingTable(err, "profiles") {
			return apperror.Unavailable(migrationsHint)
		}
		return fmt.Errorf("sqlite: upserting profile for user %s: %w", p.UserID, err)
	}

	return nil
}

// GetProfileByUserID returns the user's gift profile.
//
// A missing table reads as "no profile yet" (NotFound), matching the write
// path's tolerance for pre-migration databases: reads degrade gracefully,
// only writes demand the migration.
func (db *DB) GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	var p model.Profile

	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id, name, age, favorite_colors, interests, wishlist, updated_at
		 FROM profiles WHERE user_id = ?`,
		userID,
	).Scan(&p.UserID, &p.Name, &p.Age, &p.FavoriteColors, &p.Interests, &p.Wishlist, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows || isMissingTable(err, "profiles") {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile for user %s: %w", userID, err)
	}

	return &p, nil
}

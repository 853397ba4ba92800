// Package sqlite implements the repository interfaces using SQLite as the
// storage backend.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means you need a C compiler installed and
// cross-compilation becomes painful. modernc.org/sqlite is a pure Go
// translation of the SQLite C code — no C compiler needed, works everywhere
// Go works. An exchange with a few dozen players is comfortably inside
// SQLite's envelope, and an embedded store keeps deployment to one binary
// plus one file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB connection pool and implements every repository
// interface (UserRepository, GameRepository, AssignmentRepository,
// ProfileRepository). One type for all of them keeps transaction helpers and
// migrations in a single place; services still only see the interface they
// asked for.
type DB struct {
	conn *sql.DB
}

// New creates a SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/santabot.db" → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests, lost on close)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Surface a bad path or permissions problem now, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets reads proceed while a write (e.g. a draw's delete+insert
	// transaction) is in flight. Foreign keys are OFF by default in SQLite
	// for backwards compatibility; every table here relies on them.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool. Always defer this next to New —
// it flushes the WAL and releases the file lock.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS keeps it idempotent
// across restarts.
//
// The profiles table is created by a separate statement on purpose: it was
// added after the core schema shipped, and the profile read/write paths are
// required to cope with databases that predate it (see isMissingTable).
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			email         TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL,
			wishlist      TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL DEFAULT '',
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS games (
			id         TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			creator_id TEXT NOT NULL REFERENCES users(id),
			event_date DATETIME NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS game_players (
			id        TEXT PRIMARY KEY,
			game_id   TEXT NOT NULL REFERENCES games(id),
			user_id   TEXT NOT NULL REFERENCES users(id),
			joined_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			UNIQUE (game_id, user_id)
		);
		CREATE INDEX IF NOT EXISTS idx_game_players_user ON game_players(user_id);

		CREATE TABLE IF NOT EXISTS assignments (
			id          TEXT PRIMARY KEY,
			game_id     TEXT NOT NULL REFERENCES games(id),
			giver_id    TEXT NOT NULL REFERENCES users(id),
			receiver_id TEXT NOT NULL REFERENCES users(id),
			year        TEXT NOT NULL,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_assignments_game_year ON assignments(game_id, year);
	`)
	if err != nil {
		return fmt.Errorf("creating core tables: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			user_id         TEXT PRIMARY KEY REFERENCES users(id),
			name            TEXT NOT NULL,
			age             INTEGER NOT NULL,
			favorite_colors TEXT NOT NULL DEFAULT '',
			interests       TEXT NOT NULL DEFAULT '',
			wishlist        TEXT NOT NULL DEFAULT '',
			updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating profiles table: %w", err)
	}

	return nil
}

// withTx runs fn inside a transaction, committing if it returns nil and
// rolling back otherwise. Every multi-step write in this package goes through
// here — partial application of a delete+insert is a correctness bug, not a
// degradation we tolerate.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. We check the typed driver error's result code rather than matching
// message text — the extended code pins down exactly which failure this is.
func isUniqueViolation(err error) bool {
	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}

// isMissingTable reports whether err means the named table does not exist.
//
// SQLite reports a missing relation with the generic SQLITE_ERROR result
// code, so after the typed check we still have to look at the message — but
// only here, behind this one function, never above the repository boundary.
// Callers translate the result into an apperror with run-migrations guidance.
func isMissingTable(err error, table string) bool {
	var se *sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	if se.Code() != sqlite3lib.SQLITE_ERROR {
		return false
	}
	return strings.Contains(se.Error(), "no such table: "+table)
}

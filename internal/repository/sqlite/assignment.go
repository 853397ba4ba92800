package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/santabot/internal/apperror"
	"github.com/sakif/santabot/internal/model"
	"github.com/sakif/santabot/internal/repository"
)

// compile-time check that *DB implements repository.AssignmentRepository
var _ repository.AssignmentRepository = (*DB)(nil)

// Replace swaps out the full set of assignments for one (gameID, year) key.
//
// DELETE-THEN-INSERT, ONE TRANSACTION:
// Re-running a draw must be idempotent at the storage level — the key never
// holds two generations of pairings at once. The delete and every insert
// share a transaction, so a failure at row 3 of 7 rolls the whole thing back
// and the previous generation stays intact. Rows for other years are never
// touched; the WHERE clause matches the year label exactly.
func (db *DB) Replace(ctx context.Context, gameID, year string, rows []*model.Assignment) error {
	now := time.Now()

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM assignments WHERE game_id = ? AND year = ?`,
			gameID, year,
		)
		if err != nil {
			return fmt.Errorf("clearing prior assignments: %w", err)
		}

		for _, a := range rows {
			a.ID = xid.New().String()
			a.CreatedAt = now
			_, err := tx.ExecContext(ctx,
				`INSERT INTO assignments (id, game_id, giver_id, receiver_id, year, created_at)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				a.ID, a.GameID, a.GiverID, a.ReceiverID, a.Year, a.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("inserting assignment for giver %s: %w", a.GiverID, err)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite: replacing assignments for game %s year %s: %w", gameID, year, err)
	}

	return nil
}

func (db *DB) ListForGameYear(ctx context.Context, gameID, year string) ([]model.Assignment, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, game_id, giver_id, receiver_id, year, created_at
		 FROM assignments
		 WHERE game_id = ? AND year = ?`,
		gameID, year,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing assignments for game %s year %s: %w", gameID, year, err)
	}
	defer rows.Close()

	assignments := make([]model.Assignment, 0, 8)
	for rows.Next() {
		var a model.Assignment
		if err := rows.Scan(&a.ID, &a.GameID, &a.GiverID, &a.ReceiverID, &a.Year, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning assignment row: %w", err)
		}
		assignments = append(assignments, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating assignments: %w", err)
	}

	return assignments, nil
}

// LatestYear returns the year label of the game's most recent draw, or ""
// if the game has never been drawn. "" is not an error — callers derive the
// pre-draw status from it.
//
// The rowid tiebreak matters: all rows of one draw share a created_at, and a
// redraw for an older year must not shadow a newer one drawn in the same
// second.
func (db *DB) LatestYear(ctx context.Context, gameID string) (string, error) {
	var year string
	err := db.conn.QueryRowContext(ctx,
		`SELECT year FROM assignments
		 WHERE game_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT 1`,
		gameID,
	).Scan(&year)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("sqlite: getting latest assignment year for game %s: %w", gameID, err)
	}
	return year, nil
}

// ReceiverFor returns the receiver assigned to the given giver for
// (gameID, year). NotFound means the giver has no assignment under that key —
// either they joined after the draw or the draw hasn't happened.
func (db *DB) ReceiverFor(ctx context.Context, gameID, year, giverID string) (string, error) {
	var receiverID string
	err := db.conn.QueryRowContext(ctx,
		`SELECT receiver_id FROM assignments
		 WHERE game_id = ? AND year = ? AND giver_id = ?`,
		gameID, year, giverID,
	).Scan(&receiverID)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", apperror.NotFound("assignment", giverID)
		}
		return "", fmt.Errorf("sqlite: getting receiver for giver %s in game %s: %w", giverID, gameID, err)
	}
	return receiverID, nil
}

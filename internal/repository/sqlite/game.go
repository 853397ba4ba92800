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

// compile-time check that *DB implements repository.GameRepository
var _ repository.GameRepository = (*DB)(nil)

// CreateGame inserts the game row and the creator's membership row in one
// transaction. The invariant "every game's host is a member" is established
// here and nowhere else — if either insert fails, neither survives.
//
// The caller supplies the game ID (a UUID v4, generated at the service
// layer); the membership row gets an xid like every other internal row.
func (db *DB) CreateGame(ctx context.Context, game *model.Game) error {
	now := time.Now()
	game.CreatedAt = now

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO games (id, name, creator_id, event_date, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			game.ID, game.Name, game.CreatorID, game.EventDate, game.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting game: %w", err)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO game_players (id, game_id, user_id, joined_at)
			 VALUES (?, ?, ?, ?)`,
			xid.New().String(), game.ID, game.CreatorID, now,
		)
		if err != nil {
			return fmt.Errorf("inserting creator membership: %w", err)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("sqlite: creating game %s: %w", game.ID, err)
	}

	return nil
}

func (db *DB) GetGameByID(ctx context.Context, id string) (*model.Game, error) {
	var g model.Game

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, creator_id, event_date, created_at
		 FROM games WHERE id = ?`,
		id,
	).Scan(&g.ID, &g.Name, &g.CreatorID, &g.EventDate, &g.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("game", id)
		}
		return nil, fmt.Errorf("sqlite: getting game %s: %w", id, err)
	}

	return &g, nil
}

// ListGames returns every game, oldest first.
//
// The join workflow scans this list deriving each game's join code on the
// fly. Linear, yes — fine at the scale of a gift exchange. If that ever
// changes, add a stored join_code column with an index and swap the scan for
// a lookup without touching the service contract.
func (db *DB) ListGames(ctx context.Context) ([]model.Game, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, creator_id, event_date, created_at
		 FROM games ORDER BY created_at`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing games: %w", err)
	}
	defer rows.Close()

	return scanGames(rows)
}

// ListGamesForUser returns the games the user belongs to, oldest first.
func (db *DB) ListGamesForUser(ctx context.Context, userID string) ([]model.Game, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT g.id, g.name, g.creator_id, g.event_date, g.created_at
		 FROM games g
		 INNER JOIN game_players gp ON gp.game_id = g.id
		 WHERE gp.user_id = ?
		 ORDER BY g.created_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing games for user %s: %w", userID, err)
	}
	defer rows.Close()

	return scanGames(rows)
}

func scanGames(rows *sql.Rows) ([]model.Game, error) {
	games := make([]model.Game, 0, 8)
	for rows.Next() {
		var g model.Game
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatorID, &g.EventDate, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning game row: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating games: %w", err)
	}
	return games, nil
}

// AddMember inserts a membership row. The UNIQUE (game_id, user_id)
// constraint is the last line of defence against duplicate joins — the
// service checks first, but a race between two joins for the same user lands
// here and comes back as a conflict, never as a second row.
func (db *DB) AddMember(ctx context.Context, m *model.Membership) error {
	if m.ID == "" {
		m.ID = xid.New().String()
	}
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO game_players (id, game_id, user_id, joined_at)
		 VALUES (?, ?, ?, ?)`,
		m.ID, m.GameID, m.UserID, m.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("you're already part of that game")
		}
		return fmt.Errorf("sqlite: adding member %s to game %s: %w", m.UserID, m.GameID, err)
	}

	return nil
}

func (db *DB) IsMember(ctx context.Context, gameID, userID string) (bool, error) {
	var count int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM game_players WHERE game_id = ? AND user_id = ?`,
		gameID, userID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking membership: %w", err)
	}
	return count > 0, nil
}

// ListMembers returns the roster for a game in join order. The order is an
// implementation detail — the draw engine shuffles anyway.
func (db *DB) ListMembers(ctx context.Context, gameID string) ([]model.Member, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.name, u.email
		 FROM game_players gp
		 INNER JOIN users u ON u.id = gp.user_id
		 WHERE gp.game_id = ?
		 ORDER BY gp.joined_at`,
		gameID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing members of game %s: %w", gameID, err)
	}
	defer rows.Close()

	members := make([]model.Member, 0, 8)
	for rows.Next() {
		var m model.Member
		if err := rows.Scan(&m.ID, &m.Name, &m.Email); err != nil {
			return nil, fmt.Errorf("sqlite: scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating members: %w", err)
	}

	return members, nil
}

package model

import "time"

// Game is one Secret Santa exchange. The creator is the host: the only user
// allowed to open the admin console and trigger draws. Creating a game also
// makes the creator its first member.
//
// Game IDs are UUID v4 strings. That format matters: the join workflow uses
// it to tell a full game link apart from a short join code (see service
// package), so IDs must never be generated in another shape.
type Game struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	CreatorID string    `json:"creatorId" db:"creator_id"`
	EventDate time.Time `json:"eventDate" db:"event_date"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Membership links a user to a game. A (gameID, userID) pair exists at most
// once — the table has a UNIQUE constraint and duplicate joins are rejected,
// never merged.
type Membership struct {
	ID       string    `json:"id"       db:"id"`
	GameID   string    `json:"gameId"   db:"game_id"`
	UserID   string    `json:"userId"   db:"user_id"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}

// Member is the roster projection used by the admin console and the draw
// engine: just enough of the user record to list participants.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// GameStatus is derived, never stored. The presence of assignment rows is the
// single source of truth: no rows → pre-draw, rows for a past year → complete,
// anything else → in-progress. See service.StatusFor.
type GameStatus string

const (
	StatusPreDraw    GameStatus = "pre-draw"
	StatusInProgress GameStatus = "in-progress"
	StatusComplete   GameStatus = "complete"
)

package model

import "time"

// Assignment is one giver→receiver pairing inside a game for a given year.
//
// Year is a free-text label (typically "2025"), compared by exact string
// match. A draw for a (gameID, year) key replaces every existing row for that
// exact key, so the key only ever holds one generation of pairings. Rows for
// different years coexist.
type Assignment struct {
	ID         string    `json:"id"         db:"id"`
	GameID     string    `json:"gameId"     db:"game_id"`
	GiverID    string    `json:"giverId"    db:"giver_id"`
	ReceiverID string    `json:"receiverId" db:"receiver_id"`
	Year       string    `json:"year"       db:"year"`
	CreatedAt  time.Time `json:"createdAt"  db:"created_at"`
}

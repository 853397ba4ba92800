package model

import "time"

// Profile is the optional per-user gift profile, upserted independently of
// the core game data. It is display data for the user's giver — the draw
// engine never reads it.
type Profile struct {
	UserID         string    `json:"userId"         db:"user_id"`
	Name           string    `json:"name"           db:"name"`
	Age            int       `json:"age"            db:"age"`
	FavoriteColors string    `json:"favoriteColors" db:"favorite_colors"`
	Interests      string    `json:"interests"      db:"interests"`
	Wishlist       string    `json:"wishlist"       db:"wishlist"`
	UpdatedAt      time.Time `json:"updatedAt"      db:"updated_at"`
}

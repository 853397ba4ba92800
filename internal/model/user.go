// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a participant account.
//
// The ID is an opaque, stable string. For users arriving via the GitHub OAuth
// flow it is derived from GitHub's numeric user ID (e.g. "github:1234567");
// for email/password accounts it is a generated xid. Either way it is the key
// every other table references, so it never changes once assigned.
//
// WHY Wishlist string (not *string)?
// The wishlist is optional free text. We use the empty string as "not set"
// rather than a nullable pointer — simpler to work with and safe to display.
//
// PasswordHash is only populated for email/password accounts; OAuth accounts
// keep it empty. It is never serialized to JSON.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"` // unique across all users
	Name         string    `json:"name"      db:"name"`  // display name shown to other players
	Wishlist     string    `json:"wishlist"  db:"wishlist"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

package service

import (
	"strings"

	"github.com/google/uuid"
)

// joinCodeSuffix is the fixed tail of every join code. The full code is the
// first four characters of the game's UUID, uppercased, plus this suffix:
// "A3F9-HOLIDAY". The code is derived, never stored, and this function is the
// single derivation used at both creation and lookup time, so the two can
// never drift apart.
const joinCodeSuffix = "-HOLIDAY"

// JoinCodeFor derives the shareable join code for a game id.
func JoinCodeFor(gameID string) string {
	head := gameID
	if len(head) > 4 {
		head = head[:4]
	}
	return strings.ToUpper(head) + joinCodeSuffix
}

// IsGameID reports whether s looks like a real game identifier: a canonical
// 36-character UUID v4. Anything else is treated as a short join code by the
// join workflow, never as a malformed-UUID error, so this check must be
// strict about shape but silent about failures.
func IsGameID(s string) bool {
	if len(s) != 36 {
		return false
	}
	u, err := uuid.Parse(s)
	return err == nil && u.Version() == 4
}

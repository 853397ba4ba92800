package service

import (
	"strconv"
	"strings"
	"time"

	"github.com/sakif/santabot/internal/model"
)

// StatusFor derives a game's status from its most recent assignment year.
//
// Status is a pure function of assignment presence, recomputed on every read.
// It is never cached or stored: the assignments table is the single source of
// truth, and a stored status column would be a second one that can drift.
//
//	no assignments              → pre-draw
//	latest year before this one → complete
//	anything else               → in-progress
//
// Year labels are free text. A label that doesn't parse as an integer year
// can't be compared against the clock, so it reads as in-progress.
func StatusFor(latestYear string, now time.Time) model.GameStatus {
	if latestYear == "" {
		return model.StatusPreDraw
	}
	if y, err := strconv.Atoi(strings.TrimSpace(latestYear)); err == nil && y < now.Year() {
		return model.StatusComplete
	}
	return model.StatusInProgress
}

package models

import (
	"strings"
	"time"
)

// Puzzle is an externally supplied tactic: a starting position and the
// full solution as space-separated coordinate moves. The opponent always
// plays the first move of the list.
type Puzzle struct {
	ID        string    `json:"id"`
	FEN       string    `json:"fen"`
	Moves     string    `json:"moves"`
	Rating    int       `json:"rating,omitempty"`
	Themes    string    `json:"themes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// MoveList splits the solution into individual coordinate moves.
func (p *Puzzle) MoveList() []string {
	return strings.Fields(p.Moves)
}

// ThemeList splits the space-separated theme tags.
func (p *Puzzle) ThemeList() []string {
	return strings.Fields(p.Themes)
}

// PuzzleAttempt records one finished puzzle run for the stats screen.
type PuzzleAttempt struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	PuzzleID    string    `json:"puzzleId"`
	Solved      bool      `json:"solved"`
	ElapsedMs   int64     `json:"elapsedMs"`
	AttemptedAt time.Time `json:"attemptedAt"`
}

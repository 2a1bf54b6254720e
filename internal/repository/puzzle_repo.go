package repository

import (
	"database/sql"
	"fmt"

	"repertoire/internal/database"
	"repertoire/internal/models"
)

// PuzzleRepository handles database operations for puzzles and attempts
type PuzzleRepository struct {
	db *database.DB
}

// NewPuzzleRepository creates a new puzzle repository
func NewPuzzleRepository(db *database.DB) *PuzzleRepository {
	return &PuzzleRepository{db: db}
}

// CreatePuzzle inserts a puzzle, ignoring duplicates of the same ID
func (r *PuzzleRepository) CreatePuzzle(p *models.Puzzle) error {
	existing, err := r.GetPuzzle(p.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	query := `
		INSERT INTO puzzles (id, fen, moves, rating, themes)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(query, p.ID, p.FEN, p.Moves, p.Rating, p.Themes); err != nil {
		return fmt.Errorf("failed to create puzzle: %w", err)
	}
	return nil
}

// GetPuzzle retrieves a puzzle by ID
func (r *PuzzleRepository) GetPuzzle(id string) (*models.Puzzle, error) {
	query := `
		SELECT id, fen, moves, rating, themes, created_at
		FROM puzzles
		WHERE id = ?
	`
	p := &models.Puzzle{}
	err := r.db.QueryRow(query, id).Scan(&p.ID, &p.FEN, &p.Moves, &p.Rating, &p.Themes, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get puzzle: %w", err)
	}
	return p, nil
}

// GetUnsolvedPuzzle picks the lowest-rated puzzle the user has not yet
// solved, or nil when they have solved them all.
func (r *PuzzleRepository) GetUnsolvedPuzzle(userID int64) (*models.Puzzle, error) {
	query := `
		SELECT id, fen, moves, rating, themes, created_at
		FROM puzzles
		WHERE id NOT IN (
			SELECT puzzle_id FROM puzzle_attempts WHERE user_id = ? AND solved = ?
		)
		ORDER BY rating ASC
		LIMIT 1
	`
	p := &models.Puzzle{}
	err := r.db.QueryRow(query, userID, true).Scan(&p.ID, &p.FEN, &p.Moves, &p.Rating, &p.Themes, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unsolved puzzle: %w", err)
	}
	return p, nil
}

// SaveAttempt records a finished puzzle run
func (r *PuzzleRepository) SaveAttempt(a *models.PuzzleAttempt) error {
	query := `
		INSERT INTO puzzle_attempts (user_id, puzzle_id, solved, elapsed_ms)
		VALUES (?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, a.UserID, a.PuzzleID, a.Solved, a.ElapsedMs)
	if err != nil {
		return fmt.Errorf("failed to save puzzle attempt: %w", err)
	}
	a.ID = id
	return nil
}

// GetAttemptsByUser retrieves a user's puzzle history, newest first
func (r *PuzzleRepository) GetAttemptsByUser(userID int64, limit int) ([]models.PuzzleAttempt, error) {
	query := `
		SELECT id, user_id, puzzle_id, solved, elapsed_ms, created_at
		FROM puzzle_attempts
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query puzzle attempts: %w", err)
	}
	defer rows.Close()

	var attempts []models.PuzzleAttempt
	for rows.Next() {
		var a models.PuzzleAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.PuzzleID, &a.Solved, &a.ElapsedMs, &a.AttemptedAt); err != nil {
			return nil, fmt.Errorf("failed to scan puzzle attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// SolvedCount returns how many distinct puzzles the user has solved
func (r *PuzzleRepository) SolvedCount(userID int64) (int, error) {
	var count int
	query := "SELECT COUNT(DISTINCT puzzle_id) FROM puzzle_attempts WHERE user_id = ? AND solved = ?"
	if err := r.db.QueryRow(query, userID, true).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count solved puzzles: %w", err)
	}
	return count, nil
}

package repository

import (
	"fmt"

	"repertoire/internal/database"
	"repertoire/internal/models"
)

// DrillRepository handles database operations for completed drill runs
type DrillRepository struct {
	db *database.DB
}

// NewDrillRepository creates a new drill repository
func NewDrillRepository(db *database.DB) *DrillRepository {
	return &DrillRepository{db: db}
}

// SaveSession records a finished drill run
func (r *DrillRepository) SaveSession(s *models.DrillSession) error {
	query := `
		INSERT INTO drill_sessions (user_id, study_id, started_at, completed_at, total_lines, lines_done, correct_moves, wrong_attempts, elapsed_ms, timed_out)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, s.UserID, s.StudyID, s.StartedAt, s.CompletedAt,
		s.TotalLines, s.LinesDone, s.CorrectMoves, s.WrongAttempts, s.ElapsedMs, s.TimedOut)
	if err != nil {
		return fmt.Errorf("failed to save drill session: %w", err)
	}
	s.ID = id
	return nil
}

// GetSessionsByStudy retrieves a user's drill history for one study,
// newest first.
func (r *DrillRepository) GetSessionsByStudy(userID int64, studyID string, limit int) ([]models.DrillSession, error) {
	query := `
		SELECT id, user_id, study_id, started_at, completed_at, total_lines, lines_done, correct_moves, wrong_attempts, elapsed_ms, timed_out
		FROM drill_sessions
		WHERE user_id = ? AND study_id = ?
		ORDER BY started_at DESC
		LIMIT ?
	`
	rows, err := r.db.Query(query, userID, studyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query drill sessions: %w", err)
	}
	defer rows.Close()

	var sessions []models.DrillSession
	for rows.Next() {
		var s models.DrillSession
		if err := rows.Scan(
			&s.ID, &s.UserID, &s.StudyID, &s.StartedAt, &s.CompletedAt,
			&s.TotalLines, &s.LinesDone, &s.CorrectMoves, &s.WrongAttempts,
			&s.ElapsedMs, &s.TimedOut,
		); err != nil {
			return nil, fmt.Errorf("failed to scan drill session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// BestElapsedMs returns the fastest completed, untimed-out run for a
// study, or 0 when there is none.
func (r *DrillRepository) BestElapsedMs(userID int64, studyID string) (int64, error) {
	query := `
		SELECT COALESCE(MIN(elapsed_ms), 0)
		FROM drill_sessions
		WHERE user_id = ? AND study_id = ? AND completed_at IS NOT NULL AND timed_out = ?
	`
	var best int64
	if err := r.db.QueryRow(query, userID, studyID, false).Scan(&best); err != nil {
		return 0, fmt.Errorf("failed to get best drill time: %w", err)
	}
	return best, nil
}

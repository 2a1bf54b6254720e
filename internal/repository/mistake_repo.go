package repository

import (
	"database/sql"
	"fmt"
	"time"

	"repertoire/internal/database"
	"repertoire/internal/models"
)

const mistakeColumns = `id, user_id, study_id, node_id, expected_uci, wrong_count, streak, last_attempt, next_review`

// MistakeRepository handles database operations for mistake records
type MistakeRepository struct {
	db *database.DB
}

// NewMistakeRepository creates a new mistake repository
func NewMistakeRepository(db *database.DB) *MistakeRepository {
	return &MistakeRepository{db: db}
}

// GetMistake retrieves the record for one tree node, or nil when the
// user has never missed it.
func (r *MistakeRepository) GetMistake(userID int64, studyID, nodeID string) (*models.MistakeRecord, error) {
	query := "SELECT " + mistakeColumns + " FROM mistakes WHERE user_id = ? AND study_id = ? AND node_id = ?"
	m := &models.MistakeRecord{}
	err := r.db.QueryRow(query, userID, studyID, nodeID).Scan(
		&m.ID, &m.UserID, &m.StudyID, &m.NodeID, &m.ExpectedUCI,
		&m.WrongCount, &m.Streak, &m.LastAttempt, &m.NextReview,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get mistake: %w", err)
	}
	return m, nil
}

// SaveMistake inserts or updates the record for a tree node
func (r *MistakeRepository) SaveMistake(m *models.MistakeRecord) error {
	if m.ID != 0 {
		query := `
			UPDATE mistakes
			SET expected_uci = ?, wrong_count = ?, streak = ?, last_attempt = ?, next_review = ?
			WHERE id = ?
		`
		if _, err := r.db.Exec(query, m.ExpectedUCI, m.WrongCount, m.Streak,
			m.LastAttempt, m.NextReview, m.ID); err != nil {
			return fmt.Errorf("failed to update mistake: %w", err)
		}
		return nil
	}

	query := `
		INSERT INTO mistakes (user_id, study_id, node_id, expected_uci, wrong_count, streak, last_attempt, next_review)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(query, m.UserID, m.StudyID, m.NodeID,
		m.ExpectedUCI, m.WrongCount, m.Streak, m.LastAttempt, m.NextReview)
	if err != nil {
		return fmt.Errorf("failed to insert mistake: %w", err)
	}
	m.ID = id
	return nil
}

// GetDueMistakes retrieves every record due at or before now, most
// overdue first.
func (r *MistakeRepository) GetDueMistakes(userID int64, now time.Time) ([]models.MistakeRecord, error) {
	query := "SELECT " + mistakeColumns + " FROM mistakes WHERE user_id = ? AND next_review <= ? ORDER BY next_review ASC"
	return r.queryMistakes(query, userID, now)
}

// GetDueMistakesForStudy retrieves due records limited to one study
func (r *MistakeRepository) GetDueMistakesForStudy(userID int64, studyID string, now time.Time) ([]models.MistakeRecord, error) {
	query := "SELECT " + mistakeColumns + " FROM mistakes WHERE user_id = ? AND study_id = ? AND next_review <= ? ORDER BY next_review ASC"
	return r.queryMistakes(query, userID, studyID, now)
}

// GetMistakesByStudy retrieves every record for one study
func (r *MistakeRepository) GetMistakesByStudy(userID int64, studyID string) ([]models.MistakeRecord, error) {
	query := "SELECT " + mistakeColumns + " FROM mistakes WHERE user_id = ? AND study_id = ? ORDER BY next_review ASC"
	return r.queryMistakes(query, userID, studyID)
}

// CountDueMistakes returns how many records are due for review
func (r *MistakeRepository) CountDueMistakes(userID int64, now time.Time) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM mistakes WHERE user_id = ? AND next_review <= ?", userID, now).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count due mistakes: %w", err)
	}
	return count, nil
}

// UsersWithDueMistakes returns the IDs of users who have at least one
// record due. Used by the reminder digest.
func (r *MistakeRepository) UsersWithDueMistakes(now time.Time) ([]int64, error) {
	rows, err := r.db.Query("SELECT DISTINCT user_id FROM mistakes WHERE next_review <= ?", now)
	if err != nil {
		return nil, fmt.Errorf("failed to query users with due mistakes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// DeleteMistakesByStudy removes every record for one study
func (r *MistakeRepository) DeleteMistakesByStudy(userID int64, studyID string) error {
	if _, err := r.db.Exec("DELETE FROM mistakes WHERE user_id = ? AND study_id = ?", userID, studyID); err != nil {
		return fmt.Errorf("failed to delete mistakes: %w", err)
	}
	return nil
}

func (r *MistakeRepository) queryMistakes(query string, args ...interface{}) ([]models.MistakeRecord, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mistakes: %w", err)
	}
	defer rows.Close()

	var mistakes []models.MistakeRecord
	for rows.Next() {
		var m models.MistakeRecord
		if err := rows.Scan(
			&m.ID, &m.UserID, &m.StudyID, &m.NodeID, &m.ExpectedUCI,
			&m.WrongCount, &m.Streak, &m.LastAttempt, &m.NextReview,
		); err != nil {
			return nil, fmt.Errorf("failed to scan mistake: %w", err)
		}
		mistakes = append(mistakes, m)
	}
	return mistakes, rows.Err()
}

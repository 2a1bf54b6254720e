package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"repertoire/internal/database"
	"repertoire/internal/models"
)

// StudyRepository handles database operations for opening studies.
// The move tree is stored as a JSON document; it is always read and
// written whole, so there is nothing to gain from relational rows.
type StudyRepository struct {
	db *database.DB
}

// NewStudyRepository creates a new study repository
func NewStudyRepository(db *database.DB) *StudyRepository {
	return &StudyRepository{db: db}
}

// CreateStudy inserts a new study
func (r *StudyRepository) CreateStudy(study *models.Study) error {
	movesJSON, err := json.Marshal(study.Moves)
	if err != nil {
		return fmt.Errorf("failed to encode moves: %w", err)
	}

	query := `
		INSERT INTO studies (id, user_id, name, description, side, root_fen, moves_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.Exec(query, study.ID, study.UserID, study.Name, study.Description,
		study.Side, study.RootFEN, string(movesJSON))
	if err != nil {
		return fmt.Errorf("failed to create study: %w", err)
	}
	return nil
}

// GetStudy retrieves a study by ID, scoped to its owner
func (r *StudyRepository) GetStudy(userID int64, studyID string) (*models.Study, error) {
	query := `
		SELECT id, user_id, name, description, side, root_fen, moves_json, created_at, updated_at
		FROM studies
		WHERE id = ? AND user_id = ?
	`
	study := &models.Study{}
	var movesJSON string
	err := r.db.QueryRow(query, studyID, userID).Scan(
		&study.ID,
		&study.UserID,
		&study.Name,
		&study.Description,
		&study.Side,
		&study.RootFEN,
		&movesJSON,
		&study.CreatedAt,
		&study.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get study: %w", err)
	}

	if err := json.Unmarshal([]byte(movesJSON), &study.Moves); err != nil {
		return nil, fmt.Errorf("failed to decode moves for study %s: %w", study.ID, err)
	}
	return study, nil
}

// GetStudiesByUser retrieves all of a user's studies, newest first
func (r *StudyRepository) GetStudiesByUser(userID int64) ([]models.Study, error) {
	query := `
		SELECT id, user_id, name, description, side, root_fen, moves_json, created_at, updated_at
		FROM studies
		WHERE user_id = ?
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query studies: %w", err)
	}
	defer rows.Close()

	var studies []models.Study
	for rows.Next() {
		var study models.Study
		var movesJSON string
		if err := rows.Scan(
			&study.ID,
			&study.UserID,
			&study.Name,
			&study.Description,
			&study.Side,
			&study.RootFEN,
			&movesJSON,
			&study.CreatedAt,
			&study.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan study: %w", err)
		}
		if err := json.Unmarshal([]byte(movesJSON), &study.Moves); err != nil {
			return nil, fmt.Errorf("failed to decode moves for study %s: %w", study.ID, err)
		}
		studies = append(studies, study)
	}

	return studies, rows.Err()
}

// UpdateStudy replaces a study's metadata and move tree
func (r *StudyRepository) UpdateStudy(study *models.Study) error {
	movesJSON, err := json.Marshal(study.Moves)
	if err != nil {
		return fmt.Errorf("failed to encode moves: %w", err)
	}

	query := `
		UPDATE studies
		SET name = ?, description = ?, side = ?, root_fen = ?, moves_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND user_id = ?
	`
	result, err := r.db.Exec(query, study.Name, study.Description, study.Side,
		study.RootFEN, string(movesJSON), study.ID, study.UserID)
	if err != nil {
		return fmt.Errorf("failed to update study: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("study not found")
	}
	return nil
}

// DeleteStudy removes a study and its dependent records
func (r *StudyRepository) DeleteStudy(userID int64, studyID string) error {
	result, err := r.db.Exec("DELETE FROM studies WHERE id = ? AND user_id = ?", studyID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete study: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("study not found")
	}
	return nil
}

// CountStudiesByUser returns how many studies a user owns
func (r *StudyRepository) CountStudiesByUser(userID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM studies WHERE user_id = ?", userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count studies: %w", err)
	}
	return count, nil
}

// GetProgress retrieves practice progress for a study, or nil when the
// user has never practised it.
func (r *StudyRepository) GetProgress(userID int64, studyID string) (*models.PracticeProgress, error) {
	query := `
		SELECT user_id, study_id, lines_completed, last_line_index, updated_at
		FROM practice_progress
		WHERE user_id = ? AND study_id = ?
	`
	progress := &models.PracticeProgress{}
	err := r.db.QueryRow(query, userID, studyID).Scan(
		&progress.UserID,
		&progress.StudyID,
		&progress.LinesCompleted,
		&progress.LastLineIndex,
		&progress.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return progress, nil
}

// SaveProgress upserts practice progress for a study
func (r *StudyRepository) SaveProgress(progress *models.PracticeProgress) error {
	// Portable upsert: try update first, insert when nothing matched
	update := `
		UPDATE practice_progress
		SET lines_completed = ?, last_line_index = ?, updated_at = ?
		WHERE user_id = ? AND study_id = ?
	`
	result, err := r.db.Exec(update, progress.LinesCompleted, progress.LastLineIndex,
		time.Now(), progress.UserID, progress.StudyID)
	if err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read progress result: %w", err)
	}
	if rows > 0 {
		return nil
	}

	insert := `
		INSERT INTO practice_progress (user_id, study_id, lines_completed, last_line_index, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := r.db.Exec(insert, progress.UserID, progress.StudyID,
		progress.LinesCompleted, progress.LastLineIndex, time.Now()); err != nil {
		return fmt.Errorf("failed to insert progress: %w", err)
	}
	return nil
}

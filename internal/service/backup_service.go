package service

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"repertoire/internal/database"
)

// BackupData represents the complete database backup structure
type BackupData struct {
	Version        string                  `json:"version"`
	ExportedAt     time.Time               `json:"exported_at"`
	Users          []UserBackup            `json:"users"`
	Sessions       []SessionBackup         `json:"sessions"`
	Studies        []StudyBackup           `json:"studies"`
	Mistakes       []MistakeBackup         `json:"mistakes"`
	Progress       []ProgressBackup        `json:"practice_progress"`
	DrillSessions  []DrillSessionBackup    `json:"drill_sessions"`
	Puzzles        []PuzzleBackup          `json:"puzzles"`
	PuzzleAttempts []PuzzleAttemptBackup   `json:"puzzle_attempts"`
}

// UserBackup represents a user record for backup
type UserBackup struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"password_hash"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"oauth_provider"`
	OAuthSubject  string    `json:"oauth_subject"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SessionBackup represents a login session for backup
type SessionBackup struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// StudyBackup represents a study record for backup. The move tree is
// carried as raw JSON so export and import never reinterpret it.
type StudyBackup struct {
	ID          string          `json:"id"`
	UserID      int64           `json:"user_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Side        string          `json:"side"`
	RootFEN     string          `json:"root_fen"`
	Moves       json.RawMessage `json:"moves"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// MistakeBackup represents a mistake record for backup
type MistakeBackup struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	StudyID     string    `json:"study_id"`
	NodeID      string    `json:"node_id"`
	ExpectedUCI string    `json:"expected_uci"`
	WrongCount  int       `json:"wrong_count"`
	Streak      int       `json:"streak"`
	LastAttempt time.Time `json:"last_attempt"`
	NextReview  time.Time `json:"next_review"`
}

// ProgressBackup represents practice progress for backup
type ProgressBackup struct {
	UserID         int64     `json:"user_id"`
	StudyID        string    `json:"study_id"`
	LinesCompleted int       `json:"lines_completed"`
	LastLineIndex  int       `json:"last_line_index"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// DrillSessionBackup represents a drill run for backup
type DrillSessionBackup struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	StudyID       string     `json:"study_id"`
	StartedAt     time.Time  `json:"started_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	TotalLines    int        `json:"total_lines"`
	LinesDone     int        `json:"lines_done"`
	CorrectMoves  int        `json:"correct_moves"`
	WrongAttempts int        `json:"wrong_attempts"`
	ElapsedMs     int64      `json:"elapsed_ms"`
	TimedOut      bool       `json:"timed_out"`
}

// PuzzleBackup represents a puzzle for backup
type PuzzleBackup struct {
	ID        string    `json:"id"`
	FEN       string    `json:"fen"`
	Moves     string    `json:"moves"`
	Rating    int       `json:"rating"`
	Themes    string    `json:"themes"`
	CreatedAt time.Time `json:"created_at"`
}

// PuzzleAttemptBackup represents a puzzle attempt for backup
type PuzzleAttemptBackup struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	PuzzleID  string    `json:"puzzle_id"`
	Solved    bool      `json:"solved"`
	ElapsedMs int64     `json:"elapsed_ms"`
	CreatedAt time.Time `json:"created_at"`
}

// BackupService handles database backup and restore operations
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export creates a complete backup of the database to a file
func (s *BackupService) Export(outputPath string) error {
	log.Println("Starting database export...")

	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	steps := []struct {
		name string
		fn   func(*BackupData) error
	}{
		{"users", s.exportUsers},
		{"sessions", s.exportSessions},
		{"studies", s.exportStudies},
		{"mistakes", s.exportMistakes},
		{"practice progress", s.exportProgress},
		{"drill sessions", s.exportDrillSessions},
		{"puzzles", s.exportPuzzles},
		{"puzzle attempts", s.exportPuzzleAttempts},
	}
	for _, step := range steps {
		if err := step.fn(backup); err != nil {
			return fmt.Errorf("failed to export %s: %w", step.name, err)
		}
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Database exported successfully to %s", outputPath)
	log.Printf("Exported: %d users, %d studies, %d mistakes, %d drill sessions, %d puzzles",
		len(backup.Users), len(backup.Studies), len(backup.Mistakes),
		len(backup.DrillSessions), len(backup.Puzzles))

	return nil
}

// Import restores a database from a backup file
func (s *BackupService) Import(inputPath string) error {
	log.Printf("Starting database import from %s...", inputPath)

	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup reader
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	decoder := json.NewDecoder(reader)
	if err := decoder.Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}

	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	// Import in dependency order
	if err := s.importUsers(backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importSessions(backup.Sessions); err != nil {
		return fmt.Errorf("failed to import sessions: %w", err)
	}
	if err := s.importStudies(backup.Studies); err != nil {
		return fmt.Errorf("failed to import studies: %w", err)
	}
	if err := s.importMistakes(backup.Mistakes); err != nil {
		return fmt.Errorf("failed to import mistakes: %w", err)
	}
	if err := s.importProgress(backup.Progress); err != nil {
		return fmt.Errorf("failed to import practice progress: %w", err)
	}
	if err := s.importDrillSessions(backup.DrillSessions); err != nil {
		return fmt.Errorf("failed to import drill sessions: %w", err)
	}
	if err := s.importPuzzles(backup.Puzzles); err != nil {
		return fmt.Errorf("failed to import puzzles: %w", err)
	}
	if err := s.importPuzzleAttempts(backup.PuzzleAttempts); err != nil {
		return fmt.Errorf("failed to import puzzle attempts: %w", err)
	}

	log.Println("Database import completed successfully")
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	query := "SELECT id, email, password_hash, name, COALESCE(oauth_provider, ''), COALESCE(oauth_subject, ''), created_at, updated_at FROM users ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		if err := rows.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &u.OAuthProvider, &u.OAuthSubject, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return err
		}
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportSessions(backup *BackupData) error {
	query := "SELECT id, user_id, expires_at, created_at FROM sessions ORDER BY created_at"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var sess SessionBackup
		if err := rows.Scan(&sess.ID, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt); err != nil {
			return err
		}
		backup.Sessions = append(backup.Sessions, sess)
	}
	return rows.Err()
}

func (s *BackupService) exportStudies(backup *BackupData) error {
	query := "SELECT id, user_id, name, description, side, root_fen, moves_json, created_at, updated_at FROM studies ORDER BY created_at"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var st StudyBackup
		var movesJSON string
		if err := rows.Scan(&st.ID, &st.UserID, &st.Name, &st.Description, &st.Side, &st.RootFEN, &movesJSON, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return err
		}
		st.Moves = json.RawMessage(movesJSON)
		backup.Studies = append(backup.Studies, st)
	}
	return rows.Err()
}

func (s *BackupService) exportMistakes(backup *BackupData) error {
	query := "SELECT id, user_id, study_id, node_id, expected_uci, wrong_count, streak, last_attempt, next_review FROM mistakes ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var m MistakeBackup
		if err := rows.Scan(&m.ID, &m.UserID, &m.StudyID, &m.NodeID, &m.ExpectedUCI, &m.WrongCount, &m.Streak, &m.LastAttempt, &m.NextReview); err != nil {
			return err
		}
		backup.Mistakes = append(backup.Mistakes, m)
	}
	return rows.Err()
}

func (s *BackupService) exportProgress(backup *BackupData) error {
	query := "SELECT user_id, study_id, lines_completed, last_line_index, updated_at FROM practice_progress ORDER BY user_id, study_id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p ProgressBackup
		if err := rows.Scan(&p.UserID, &p.StudyID, &p.LinesCompleted, &p.LastLineIndex, &p.UpdatedAt); err != nil {
			return err
		}
		backup.Progress = append(backup.Progress, p)
	}
	return rows.Err()
}

func (s *BackupService) exportDrillSessions(backup *BackupData) error {
	query := "SELECT id, user_id, study_id, started_at, completed_at, total_lines, lines_done, correct_moves, wrong_attempts, elapsed_ms, timed_out FROM drill_sessions ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var d DrillSessionBackup
		if err := rows.Scan(&d.ID, &d.UserID, &d.StudyID, &d.StartedAt, &d.CompletedAt, &d.TotalLines, &d.LinesDone, &d.CorrectMoves, &d.WrongAttempts, &d.ElapsedMs, &d.TimedOut); err != nil {
			return err
		}
		backup.DrillSessions = append(backup.DrillSessions, d)
	}
	return rows.Err()
}

func (s *BackupService) exportPuzzles(backup *BackupData) error {
	query := "SELECT id, fen, moves, rating, themes, created_at FROM puzzles ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p PuzzleBackup
		if err := rows.Scan(&p.ID, &p.FEN, &p.Moves, &p.Rating, &p.Themes, &p.CreatedAt); err != nil {
			return err
		}
		backup.Puzzles = append(backup.Puzzles, p)
	}
	return rows.Err()
}

func (s *BackupService) exportPuzzleAttempts(backup *BackupData) error {
	query := "SELECT id, user_id, puzzle_id, solved, elapsed_ms, created_at FROM puzzle_attempts ORDER BY id"
	rows, err := s.db.Query(query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a PuzzleAttemptBackup
		if err := rows.Scan(&a.ID, &a.UserID, &a.PuzzleID, &a.Solved, &a.ElapsedMs, &a.CreatedAt); err != nil {
			return err
		}
		backup.PuzzleAttempts = append(backup.PuzzleAttempts, a)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(users []UserBackup) error {
	log.Printf("Importing %d users...", len(users))
	for _, u := range users {
		query := "INSERT INTO users (id, email, password_hash, name, oauth_provider, oauth_subject, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)"
		if _, err := s.db.Exec(query, u.ID, u.Email, u.PasswordHash, u.Name, u.OAuthProvider, u.OAuthSubject, u.CreatedAt, u.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import user %d: %w", u.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importSessions(sessions []SessionBackup) error {
	log.Printf("Importing %d sessions...", len(sessions))
	for _, sess := range sessions {
		query := "INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)"
		if _, err := s.db.Exec(query, sess.ID, sess.UserID, sess.ExpiresAt, sess.CreatedAt); err != nil {
			return fmt.Errorf("failed to import session %s: %w", sess.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importStudies(studies []StudyBackup) error {
	log.Printf("Importing %d studies...", len(studies))
	for _, st := range studies {
		query := "INSERT INTO studies (id, user_id, name, description, side, root_fen, moves_json, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
		if _, err := s.db.Exec(query, st.ID, st.UserID, st.Name, st.Description, st.Side, st.RootFEN, string(st.Moves), st.CreatedAt, st.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import study %s: %w", st.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importMistakes(mistakes []MistakeBackup) error {
	log.Printf("Importing %d mistakes...", len(mistakes))
	for _, m := range mistakes {
		query := "INSERT INTO mistakes (id, user_id, study_id, node_id, expected_uci, wrong_count, streak, last_attempt, next_review) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"
		if _, err := s.db.Exec(query, m.ID, m.UserID, m.StudyID, m.NodeID, m.ExpectedUCI, m.WrongCount, m.Streak, m.LastAttempt, m.NextReview); err != nil {
			return fmt.Errorf("failed to import mistake %d: %w", m.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importProgress(progress []ProgressBackup) error {
	log.Printf("Importing %d practice progress rows...", len(progress))
	for _, p := range progress {
		query := "INSERT INTO practice_progress (user_id, study_id, lines_completed, last_line_index, updated_at) VALUES (?, ?, ?, ?, ?)"
		if _, err := s.db.Exec(query, p.UserID, p.StudyID, p.LinesCompleted, p.LastLineIndex, p.UpdatedAt); err != nil {
			return fmt.Errorf("failed to import progress for study %s: %w", p.StudyID, err)
		}
	}
	return nil
}

func (s *BackupService) importDrillSessions(sessions []DrillSessionBackup) error {
	log.Printf("Importing %d drill sessions...", len(sessions))
	for _, d := range sessions {
		query := "INSERT INTO drill_sessions (id, user_id, study_id, started_at, completed_at, total_lines, lines_done, correct_moves, wrong_attempts, elapsed_ms, timed_out) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
		if _, err := s.db.Exec(query, d.ID, d.UserID, d.StudyID, d.StartedAt, d.CompletedAt, d.TotalLines, d.LinesDone, d.CorrectMoves, d.WrongAttempts, d.ElapsedMs, d.TimedOut); err != nil {
			return fmt.Errorf("failed to import drill session %d: %w", d.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importPuzzles(puzzles []PuzzleBackup) error {
	log.Printf("Importing %d puzzles...", len(puzzles))
	for _, p := range puzzles {
		query := "INSERT INTO puzzles (id, fen, moves, rating, themes, created_at) VALUES (?, ?, ?, ?, ?, ?)"
		if _, err := s.db.Exec(query, p.ID, p.FEN, p.Moves, p.Rating, p.Themes, p.CreatedAt); err != nil {
			return fmt.Errorf("failed to import puzzle %s: %w", p.ID, err)
		}
	}
	return nil
}

func (s *BackupService) importPuzzleAttempts(attempts []PuzzleAttemptBackup) error {
	log.Printf("Importing %d puzzle attempts...", len(attempts))
	for _, a := range attempts {
		query := "INSERT INTO puzzle_attempts (id, user_id, puzzle_id, solved, elapsed_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)"
		if _, err := s.db.Exec(query, a.ID, a.UserID, a.PuzzleID, a.Solved, a.ElapsedMs, a.CreatedAt); err != nil {
			return fmt.Errorf("failed to import puzzle attempt %d: %w", a.ID, err)
		}
	}
	return nil
}

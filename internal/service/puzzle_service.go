package service

import (
	"errors"
	"log"

	"repertoire/internal/models"
	"repertoire/internal/puzzle"
	"repertoire/internal/repository"
)

var ErrNoPuzzles = errors.New("no unsolved puzzles left")

// PuzzleService handles puzzle selection and attempt history
type PuzzleService struct {
	puzzleRepo *repository.PuzzleRepository
}

// NewPuzzleService creates a new puzzle service
func NewPuzzleService(puzzleRepo *repository.PuzzleRepository) *PuzzleService {
	return &PuzzleService{puzzleRepo: puzzleRepo}
}

// NextPuzzle picks an unsolved puzzle and builds a runner for it
func (s *PuzzleService) NextPuzzle(userID int64) (*models.Puzzle, *puzzle.Runner, error) {
	p, err := s.puzzleRepo.GetUnsolvedPuzzle(userID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, ErrNoPuzzles
	}
	runner, err := puzzle.NewRunner(p)
	if err != nil {
		return nil, nil, err
	}
	return p, runner, nil
}

// GetPuzzle builds a runner for a specific puzzle
func (s *PuzzleService) GetPuzzle(puzzleID string) (*models.Puzzle, *puzzle.Runner, error) {
	p, err := s.puzzleRepo.GetPuzzle(puzzleID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, ErrNoPuzzles
	}
	runner, err := puzzle.NewRunner(p)
	if err != nil {
		return nil, nil, err
	}
	return p, runner, nil
}

// RecordAttempt stores a finished puzzle run
func (s *PuzzleService) RecordAttempt(attempt *models.PuzzleAttempt) error {
	return s.puzzleRepo.SaveAttempt(attempt)
}

// History retrieves the user's recent attempts
func (s *PuzzleService) History(userID int64, limit int) ([]models.PuzzleAttempt, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.puzzleRepo.GetAttemptsByUser(userID, limit)
}

// SolvedCount returns how many distinct puzzles the user has solved
func (s *PuzzleService) SolvedCount(userID int64) (int, error) {
	return s.puzzleRepo.SolvedCount(userID)
}

// builtinPuzzles is a small starter set so the runner works out of the
// box. Real deployments import a proper puzzle file on top of these.
var builtinPuzzles = []models.Puzzle{
	{
		ID:     "starter-scholars-mate",
		FEN:    "r1bqkbnr/pppp1ppp/2n5/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR b KQkq - 3 3",
		Moves:  "g8f6 h5f7",
		Rating: 800,
		Themes: "mate mateIn1 opening",
	},
	{
		ID:     "starter-recapture",
		FEN:    "3r2k1/5ppp/8/8/8/8/5PPP/R5K1 b - - 0 1",
		Moves:  "d8d1 a1d1",
		Rating: 600,
		Themes: "hangingPiece endgame",
	},
	{
		ID:     "starter-back-rank-attack",
		FEN:    "r6k/pp2r2p/4Rp1Q/3p4/8/1N1P2R1/PqP2bPP/7K b - - 0 24",
		Moves:  "f2g3 e6e7 b2b1",
		Rating: 1800,
		Themes: "crushing hangingPiece middlegame",
	},
}

// SeedBuiltinPuzzles inserts the starter puzzles, skipping existing
// ones. Failures are logged, not fatal.
func (s *PuzzleService) SeedBuiltinPuzzles() {
	for i := range builtinPuzzles {
		p := builtinPuzzles[i]
		if err := s.puzzleRepo.CreatePuzzle(&p); err != nil {
			log.Printf("Failed to seed puzzle %s: %v", p.ID, err)
		}
	}
}

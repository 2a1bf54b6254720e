package service

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/notnil/chess"

	"repertoire/internal/models"
	"repertoire/internal/opening"
	"repertoire/internal/repository"
	"repertoire/internal/validation"
)

var ErrStudyNotFound = errors.New("study not found")

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// StudyService handles business logic for opening studies
type StudyService struct {
	studyRepo   *repository.StudyRepository
	mistakeRepo *repository.MistakeRepository
}

// NewStudyService creates a new study service
func NewStudyService(studyRepo *repository.StudyRepository, mistakeRepo *repository.MistakeRepository) *StudyService {
	return &StudyService{
		studyRepo:   studyRepo,
		mistakeRepo: mistakeRepo,
	}
}

// CreateStudy validates and stores a new study
func (s *StudyService) CreateStudy(userID int64, name, description, side, rootFEN string, moves []models.MoveNode) (*models.Study, error) {
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if err := validation.ValidateSide(side); err != nil {
		return nil, err
	}
	if rootFEN == "" {
		rootFEN = startFEN
	}
	if err := validation.ValidateFEN(rootFEN); err != nil {
		return nil, err
	}

	study := &models.Study{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        name,
		Description: description,
		Side:        side,
		RootFEN:     rootFEN,
		Moves:       moves,
	}

	// Reject trees containing illegal moves before they reach storage
	if err := opening.Validate(study); err != nil {
		return nil, err
	}

	if err := s.studyRepo.CreateStudy(study); err != nil {
		return nil, err
	}
	return study, nil
}

// GetStudy retrieves one of the user's studies
func (s *StudyService) GetStudy(userID int64, studyID string) (*models.Study, error) {
	study, err := s.studyRepo.GetStudy(userID, studyID)
	if err != nil {
		return nil, err
	}
	if study == nil {
		return nil, ErrStudyNotFound
	}
	return study, nil
}

// ListStudies retrieves all of the user's studies
func (s *StudyService) ListStudies(userID int64) ([]models.Study, error) {
	return s.studyRepo.GetStudiesByUser(userID)
}

// UpdateStudy validates and stores changes to a study
func (s *StudyService) UpdateStudy(study *models.Study) error {
	if err := validation.ValidateName(study.Name); err != nil {
		return err
	}
	if err := validation.ValidateSide(study.Side); err != nil {
		return err
	}
	if err := opening.Validate(study); err != nil {
		return err
	}
	return s.studyRepo.UpdateStudy(study)
}

// DeleteStudy removes a study and its mistake records
func (s *StudyService) DeleteStudy(userID int64, studyID string) error {
	if err := s.mistakeRepo.DeleteMistakesByStudy(userID, studyID); err != nil {
		return err
	}
	return s.studyRepo.DeleteStudy(userID, studyID)
}

// GetProgress retrieves practice progress for a study
func (s *StudyService) GetProgress(userID int64, studyID string) (*models.PracticeProgress, error) {
	return s.studyRepo.GetProgress(userID, studyID)
}

// SaveProgress stores practice progress for a study
func (s *StudyService) SaveProgress(progress *models.PracticeProgress) error {
	return s.studyRepo.SaveProgress(progress)
}

// ImportLines builds a study from whole lines of coordinate moves,
// merging shared prefixes into one tree. SAN and per-node FENs are
// derived by replaying the moves.
func (s *StudyService) ImportLines(userID int64, name, description, side string, lines [][]string) (*models.Study, error) {
	moves, err := BuildMoveTree(startFEN, lines)
	if err != nil {
		return nil, err
	}
	return s.CreateStudy(userID, name, description, side, startFEN, moves)
}

// BuildMoveTree converts UCI move lines into a merged study tree
func BuildMoveTree(rootFEN string, lines [][]string) ([]models.MoveNode, error) {
	var root models.MoveNode

	for _, line := range lines {
		game, err := opening.NewGameFromFEN(rootFEN)
		if err != nil {
			return nil, err
		}

		cur := &root
		for _, uci := range line {
			pos := game.Position()
			move, err := opening.ApplyUCI(game, uci)
			if err != nil {
				return nil, fmt.Errorf("illegal move %s: %w", uci, err)
			}

			idx := -1
			for i := range cur.Children {
				if cur.Children[i].UCI == uci {
					idx = i
					break
				}
			}
			if idx < 0 {
				cur.Children = append(cur.Children, models.MoveNode{
					ID:       uuid.NewString(),
					San:      chess.AlgebraicNotation{}.Encode(pos, move),
					UCI:      uci,
					FEN:      game.Position().String(),
					MainLine: len(cur.Children) == 0,
				})
				idx = len(cur.Children) - 1
			}
			cur = &cur.Children[idx]
		}
	}

	return root.Children, nil
}

// starterRepertoires are seeded for new accounts so the trainer is
// usable before the user has built anything of their own.
var starterRepertoires = []struct {
	name        string
	description string
	side        string
	lines       [][]string
}{
	{
		name:        "Italian Game starter",
		description: "Quiet Italian setups with c3 and d3, plus the Open Sicilian as a reply to 1...c5.",
		side:        "white",
		lines: [][]string{
			{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "f8c5", "c2c3", "g8f6", "d2d3"},
			{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6", "d2d3", "f8c5", "c2c3"},
			{"e2e4", "c7c5", "g1f3", "d7d6", "d2d4", "c5d4", "f3d4", "g8f6", "b1c3"},
		},
	},
	{
		name:        "Caro-Kann starter",
		description: "The Caro-Kann against 1.e4 and the Slav against 1.d4.",
		side:        "black",
		lines: [][]string{
			{"e2e4", "c7c6", "d2d4", "d7d5", "e4d5", "c6d5", "c2c4", "g8f6", "b1c3", "e7e6"},
			{"e2e4", "c7c6", "d2d4", "d7d5", "b1c3", "d5e4", "c3e4", "c8f5", "e4g3", "f5g6"},
			{"d2d4", "d7d5", "c2c4", "c7c6", "g1f3", "g8f6", "b1c3", "d5c4"},
		},
	},
}

// SeedStarterStudies creates the built-in starter repertoires for a
// user who has no studies yet. Failures are logged, not fatal.
func (s *StudyService) SeedStarterStudies(userID int64) {
	count, err := s.studyRepo.CountStudiesByUser(userID)
	if err != nil {
		log.Printf("Failed to count studies for user %d: %v", userID, err)
		return
	}
	if count > 0 {
		return
	}

	for _, tpl := range starterRepertoires {
		if _, err := s.ImportLines(userID, tpl.name, tpl.description, tpl.side, tpl.lines); err != nil {
			log.Printf("Failed to seed study %q for user %d: %v", tpl.name, userID, err)
		}
	}
}

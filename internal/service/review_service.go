package service

import (
	"fmt"
	"time"

	"repertoire/internal/models"
	"repertoire/internal/opening"
	"repertoire/internal/repository"
	"repertoire/internal/review"
)

// ReviewService handles the spaced-repetition mistake tracker
type ReviewService struct {
	mistakeRepo *repository.MistakeRepository
	studyRepo   *repository.StudyRepository
}

// NewReviewService creates a new review service
func NewReviewService(mistakeRepo *repository.MistakeRepository, studyRepo *repository.StudyRepository) *ReviewService {
	return &ReviewService{
		mistakeRepo: mistakeRepo,
		studyRepo:   studyRepo,
	}
}

// RecordMiss registers a wrong answer at a tree node, creating the
// record on first miss and resetting the schedule on repeats. Called
// from practice when the user plays a move outside the study.
func (s *ReviewService) RecordMiss(userID int64, study *models.Study, nodeID string, now time.Time) (*models.MistakeRecord, error) {
	expected, err := opening.ExpectedReviewMove(study, nodeID)
	if err != nil {
		return nil, err
	}

	rec, err := s.mistakeRepo.GetMistake(userID, study.ID, expected.ID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = review.NewRecord(userID, study.ID, expected.ID, expected.UCI, now)
	} else {
		review.MarkMissed(rec, now)
	}

	if err := s.mistakeRepo.SaveMistake(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// NewSession builds a review session over every due record of a study
func (s *ReviewService) NewSession(userID int64, study *models.Study, now time.Time) (*review.Session, error) {
	due, err := s.mistakeRepo.GetDueMistakesForStudy(userID, study.ID, now)
	if err != nil {
		return nil, err
	}
	if len(due) == 0 {
		return nil, fmt.Errorf("nothing due for review")
	}
	return review.NewSession(study, due)
}

// SaveResult persists the updated schedule after a review answer
func (s *ReviewService) SaveResult(rec *models.MistakeRecord) error {
	return s.mistakeRepo.SaveMistake(rec)
}

// DueCount returns how many records are due across all studies
func (s *ReviewService) DueCount(userID int64, now time.Time) (int, error) {
	return s.mistakeRepo.CountDueMistakes(userID, now)
}

// DueByStudy returns due records grouped per study for the overview page
func (s *ReviewService) DueByStudy(userID int64, now time.Time) (map[string][]models.MistakeRecord, error) {
	due, err := s.mistakeRepo.GetDueMistakes(userID, now)
	if err != nil {
		return nil, err
	}
	grouped := make(map[string][]models.MistakeRecord)
	for _, rec := range due {
		grouped[rec.StudyID] = append(grouped[rec.StudyID], rec)
	}
	return grouped, nil
}

// MistakesForStudy returns every record of one study, due or not
func (s *ReviewService) MistakesForStudy(userID int64, studyID string) ([]models.MistakeRecord, error) {
	return s.mistakeRepo.GetMistakesByStudy(userID, studyID)
}

// UsersWithDueReviews returns users owed a reminder email
func (s *ReviewService) UsersWithDueReviews(now time.Time) ([]int64, error) {
	return s.mistakeRepo.UsersWithDueMistakes(now)
}

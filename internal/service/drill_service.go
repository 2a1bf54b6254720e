package service

import (
	"math/rand"
	"time"

	"repertoire/internal/drill"
	"repertoire/internal/models"
	"repertoire/internal/repository"
)

// DrillService handles speed-drill runs and their history
type DrillService struct {
	drillRepo *repository.DrillRepository
}

// NewDrillService creates a new drill service
func NewDrillService(drillRepo *repository.DrillRepository) *DrillService {
	return &DrillService{drillRepo: drillRepo}
}

// StartRun builds a drill runner with a time-seeded line order
func (s *DrillService) StartRun(study *models.Study, timeLimit time.Duration) (*drill.Runner, error) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return drill.NewRunner(study, rng, timeLimit)
}

// SaveRun records a finished drill in the history
func (s *DrillService) SaveRun(session *models.DrillSession) error {
	return s.drillRepo.SaveSession(session)
}

// History retrieves recent drill runs for a study
func (s *DrillService) History(userID int64, studyID string, limit int) ([]models.DrillSession, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.drillRepo.GetSessionsByStudy(userID, studyID, limit)
}

// BestTime returns the fastest clean run in milliseconds, 0 when none
func (s *DrillService) BestTime(userID int64, studyID string) (int64, error) {
	return s.drillRepo.BestElapsedMs(userID, studyID)
}

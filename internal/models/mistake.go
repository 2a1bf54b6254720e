package models

import "time"

// MistakeRecord remembers a wrong answer at one tree node, keyed by
// (study, node). NextReview drives the spaced-repetition schedule.
type MistakeRecord struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	StudyID     string    `json:"studyId"`
	NodeID      string    `json:"nodeId"`
	ExpectedUCI string    `json:"expectedUci"`
	WrongCount  int       `json:"wrongCount"`
	Streak      int       `json:"streak"` // consecutive correct reviews since the last miss
	LastAttempt time.Time `json:"lastAttempt"`
	NextReview  time.Time `json:"nextReview"`
}

// IsDue reports whether the record should be resurfaced at the given time.
func (m *MistakeRecord) IsDue(now time.Time) bool {
	return !m.NextReview.After(now)
}

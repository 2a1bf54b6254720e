// Package review resurfaces recorded mistakes on a fixed, growing
// schedule and runs the quiz sessions that clear them.
package review

import (
	"time"

	"repertoire/internal/models"
)

// reviewIntervals is the fixed spaced-repetition table, indexed by the
// consecutive-correct streak at the time of the answer. Growth is
// monotonic and clamps at the final entry.
var reviewIntervals = [...]time.Duration{
	1 * time.Hour,
	4 * time.Hour,
	12 * time.Hour,
	24 * time.Hour,
	48 * time.Hour,
	96 * time.Hour,
	192 * time.Hour,
	384 * time.Hour,
}

// Interval returns the review delay for a given streak, clamped to the
// table's last value once the streak runs past it.
func Interval(streak int) time.Duration {
	if streak < 0 {
		streak = 0
	}
	if streak >= len(reviewIntervals) {
		streak = len(reviewIntervals) - 1
	}
	return reviewIntervals[streak]
}

// MarkMissed updates a record for a wrong answer: the streak resets and
// the record becomes due immediately.
func MarkMissed(rec *models.MistakeRecord, now time.Time) {
	rec.WrongCount++
	rec.Streak = 0
	rec.LastAttempt = now
	rec.NextReview = now
}

// MarkCorrect updates a record for a clean correct answer: the next
// review is pushed out by the interval for the pre-answer streak, then
// the streak grows.
func MarkCorrect(rec *models.MistakeRecord, now time.Time) {
	rec.LastAttempt = now
	rec.NextReview = now.Add(Interval(rec.Streak))
	rec.Streak++
}

// MarkLapsed updates a record answered correctly only after in-session
// wrong attempts: it advances, but scheduling treats it as a fresh miss
// and falls back to the shortest interval.
func MarkLapsed(rec *models.MistakeRecord, now time.Time) {
	rec.LastAttempt = now
	rec.Streak = 0
	rec.NextReview = now.Add(Interval(0))
}

// NewRecord creates the record for a first wrong answer at a node.
func NewRecord(userID int64, studyID, nodeID, expectedUCI string, now time.Time) *models.MistakeRecord {
	return &models.MistakeRecord{
		UserID:      userID,
		StudyID:     studyID,
		NodeID:      nodeID,
		ExpectedUCI: expectedUCI,
		WrongCount:  1,
		Streak:      0,
		LastAttempt: now,
		NextReview:  now,
	}
}

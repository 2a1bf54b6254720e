package models

import "time"

// DrillSession is one completed speed-drill run over every line of a study.
type DrillSession struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"userId"`
	StudyID       string     `json:"studyId"`
	StartedAt     time.Time  `json:"startedAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
	TotalLines    int        `json:"totalLines"`
	LinesDone     int        `json:"linesDone"`
	CorrectMoves  int        `json:"correctMoves"`
	WrongAttempts int        `json:"wrongAttempts"`
	ElapsedMs     int64      `json:"elapsedMs"`
	TimedOut      bool       `json:"timedOut"`
}

// Accuracy returns the fraction of attempts that were correct, in percent.
func (d *DrillSession) Accuracy() float64 {
	total := d.CorrectMoves + d.WrongAttempts
	if total == 0 {
		return 0
	}
	return float64(d.CorrectMoves) / float64(total) * 100
}

// AverageMsPerMove returns the mean wall-clock time per correct move.
func (d *DrillSession) AverageMsPerMove() float64 {
	if d.CorrectMoves == 0 {
		return 0
	}
	return float64(d.ElapsedMs) / float64(d.CorrectMoves)
}

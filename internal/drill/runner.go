// Package drill runs a user through every line of a study in shuffled
// order against the clock.
package drill

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/notnil/chess"

	"repertoire/internal/board"
	"repertoire/internal/models"
	"repertoire/internal/opening"
)

// Outcome classifies one drill submission.
type Outcome string

const (
	OutcomeWrong    Outcome = "wrong"     // counted, same ply stays up for retry
	OutcomeCorrect  Outcome = "correct"   // applied, drill continues
	OutcomeNextLine Outcome = "next_line" // line finished, next shuffled line is up
	OutcomeFinished Outcome = "finished"  // last line finished
	OutcomeTimeout  Outcome = "timeout"   // time limit elapsed
)

// Result reports one submission plus any opponent moves replayed while
// advancing.
type Result struct {
	Outcome Outcome  `json:"outcome"`
	Played  []string `json:"played,omitempty"` // opponent UCI moves auto-applied
}

// Stats are the aggregate numbers for a finished or running drill.
type Stats struct {
	TotalLines    int     `json:"totalLines"`
	LinesDone     int     `json:"linesDone"`
	CorrectMoves  int     `json:"correctMoves"`
	WrongAttempts int     `json:"wrongAttempts"`
	Accuracy      float64 `json:"accuracy"`
	ElapsedMs     int64   `json:"elapsedMs"`
	AvgMsPerMove  float64 `json:"avgMsPerMove"`
}

var ErrDrillFinished = errors.New("drill already finished")

// Runner steps through every leaf-terminated line of a study, shuffled
// once per session. The wall clock starts on the user's first move and
// the tallies accumulate across the whole run, not per line.
type Runner struct {
	study     *models.Study
	lines     []opening.Line
	lineIdx   int
	moveIdx   int
	game      *chess.Game
	userSide  chess.Color
	correct   int
	wrong     int
	linesDone int
	started   bool
	startedAt time.Time
	timeLimit time.Duration
	finished  bool
	timedOut  bool
	now       func() time.Time
}

// NewRunner enumerates and shuffles the study's lines. The random
// source is supplied by the caller so sessions are reproducible under
// test; the time limit is optional (zero means none).
func NewRunner(study *models.Study, rng *rand.Rand, timeLimit time.Duration) (*Runner, error) {
	lines := opening.Lines(study)
	if len(lines) == 0 {
		return nil, errors.New("study has no lines to drill")
	}
	rng.Shuffle(len(lines), func(i, j int) {
		lines[i], lines[j] = lines[j], lines[i]
	})
	r := &Runner{
		study:     study,
		lines:     lines,
		userSide:  opening.ColorFor(study.Side),
		timeLimit: timeLimit,
		now:       time.Now,
	}
	if err := r.enterLine(); err != nil {
		return nil, err
	}
	return r, nil
}

// enterLine rebuilds the board at the current line's root and replays
// any leading opponent moves.
func (r *Runner) enterLine() error {
	game, err := opening.NewGameFromFEN(r.study.RootFEN)
	if err != nil {
		return err
	}
	r.game = game
	r.moveIdx = 0
	_, err = r.advanceOpponent()
	return err
}

func (r *Runner) advanceOpponent() ([]string, error) {
	line := r.lines[r.lineIdx]
	var played []string
	for r.moveIdx < len(line) && r.game.Position().Turn() != r.userSide {
		node := line[r.moveIdx]
		if _, err := opening.ApplyUCI(r.game, node.UCI); err != nil {
			return nil, fmt.Errorf("stored opponent move: %w", err)
		}
		played = append(played, node.UCI)
		r.moveIdx++
	}
	return played, nil
}

// SubmitMove judges one user move. A mismatch is tallied and the same
// ply stays up for retry; a match advances, rolling into the next
// shuffled line or finishing the session.
func (r *Runner) SubmitMove(from, to, promo string) (*Result, error) {
	if r.finished {
		return nil, ErrDrillFinished
	}
	now := r.now()
	if !r.started {
		r.started = true
		r.startedAt = now
	}
	if r.timeLimit > 0 && now.Sub(r.startedAt) >= r.timeLimit {
		r.finished = true
		r.timedOut = true
		return &Result{Outcome: OutcomeTimeout}, nil
	}

	line := r.lines[r.lineIdx]
	expected := line[r.moveIdx]
	if from+to+promo != expected.UCI {
		r.wrong++
		return &Result{Outcome: OutcomeWrong}, nil
	}

	if _, err := opening.ApplyUCI(r.game, expected.UCI); err != nil {
		return nil, fmt.Errorf("stored move rejected by rules engine: %w", err)
	}
	r.correct++
	r.moveIdx++

	played, err := r.advanceOpponent()
	if err != nil {
		return nil, err
	}
	if r.moveIdx < len(line) {
		return &Result{Outcome: OutcomeCorrect, Played: played}, nil
	}

	// Line finished.
	r.linesDone++
	if r.lineIdx+1 >= len(r.lines) {
		r.finished = true
		return &Result{Outcome: OutcomeFinished}, nil
	}
	r.lineIdx++
	if err := r.enterLine(); err != nil {
		return nil, err
	}
	return &Result{Outcome: OutcomeNextLine}, nil
}

// Stats reports the running or final tallies.
func (r *Runner) Stats() Stats {
	s := Stats{
		TotalLines:    len(r.lines),
		LinesDone:     r.linesDone,
		CorrectMoves:  r.correct,
		WrongAttempts: r.wrong,
	}
	if total := r.correct + r.wrong; total > 0 {
		s.Accuracy = float64(r.correct) / float64(total) * 100
	}
	if r.started {
		end := r.now()
		s.ElapsedMs = end.Sub(r.startedAt).Milliseconds()
	}
	if r.correct > 0 {
		s.AvgMsPerMove = float64(s.ElapsedMs) / float64(r.correct)
	}
	return s
}

// BoardConfig renders the current drill position. All legal moves are
// movable; the drill gives no hints.
func (r *Runner) BoardConfig() board.Config {
	cfg := board.New(r.game, r.study.Side)
	if !r.finished {
		for _, m := range r.game.ValidMoves() {
			cfg.AllowMove(m.S1().String(), m.S2().String())
		}
	}
	return cfg
}

// Finished reports whether every line was completed or time ran out.
func (r *Runner) Finished() bool { return r.finished }

// TimedOut reports whether the session ended on the time limit.
func (r *Runner) TimedOut() bool { return r.timedOut }

// Session converts the run into a persistable record.
func (r *Runner) Session(userID int64) *models.DrillSession {
	s := &models.DrillSession{
		UserID:        userID,
		StudyID:       r.study.ID,
		StartedAt:     r.startedAt,
		TotalLines:    len(r.lines),
		LinesDone:     r.linesDone,
		CorrectMoves:  r.correct,
		WrongAttempts: r.wrong,
		TimedOut:      r.timedOut,
	}
	if r.started {
		s.ElapsedMs = r.now().Sub(r.startedAt).Milliseconds()
	}
	if r.finished {
		done := r.now()
		s.CompletedAt = &done
	}
	return s
}

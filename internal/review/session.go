package review

import (
	"errors"
	"fmt"
	"time"

	"github.com/notnil/chess"

	"repertoire/internal/board"
	"repertoire/internal/models"
	"repertoire/internal/opening"
)

// Hint escalation levels for repeated wrong answers within a session.
const (
	HintNone     = 0
	HintOrigin   = 1
	HintFullMove = 2
	maxHintLevel = HintFullMove
)

// Outcome classifies one answer in a review session.
type Outcome string

const (
	OutcomeWrong    Outcome = "wrong"    // try again, hint escalates
	OutcomeCorrect  Outcome = "correct"  // clean answer, schedule advances
	OutcomeLapsed   Outcome = "lapsed"   // correct after in-session wrongs
	OutcomeFinished Outcome = "finished" // queue exhausted
)

// Result reports one answer. Record carries the updated schedule on a
// correct or lapsed answer, for the caller to persist; it is nil on a
// wrong answer, which changes nothing stored.
type Result struct {
	Outcome Outcome               `json:"outcome"`
	Hint    int                   `json:"hint"`
	Record  *models.MistakeRecord `json:"-"`
	Done    bool                  `json:"done"`
}

var ErrSessionFinished = errors.New("review session finished")

// item is one due mistake prepared for quizzing: position rebuilt from
// the root, opponent ply resolved to the user's actual reply. The game
// keeps its replay history so the board shows the last move and check.
type item struct {
	record   models.MistakeRecord
	expected *models.MoveNode
	game     *chess.Game
}

// Session walks a queue of due mistakes. For each one the position
// immediately before the expected reply is reconstructed, and the user
// must produce the exact stored move. Wrong answers escalate hints
// without touching the stored streak; the schedule is updated once per
// item, on the eventual correct answer. Skipping changes nothing.
type Session struct {
	study    *models.Study
	queue    []item
	idx      int
	game     *chess.Game
	wrongs   int
	hint     int
	finished bool
	now      func() time.Time
}

// NewSession prepares a review session for the given due records, in
// the order supplied (soonest-due first from the tracker).
func NewSession(study *models.Study, due []models.MistakeRecord) (*Session, error) {
	if len(due) == 0 {
		return nil, errors.New("nothing due for review")
	}
	s := &Session{study: study, now: time.Now}
	for _, rec := range due {
		it, err := prepare(study, rec)
		if err != nil {
			return nil, err
		}
		s.queue = append(s.queue, it)
	}
	s.setup()
	return s, nil
}

// prepare resolves the expected move and the pre-answer position for
// one record by replaying the path from the study root.
func prepare(study *models.Study, rec models.MistakeRecord) (item, error) {
	expected, err := opening.ExpectedReviewMove(study, rec.NodeID)
	if err != nil {
		return item{}, fmt.Errorf("mistake %s/%s: %w", rec.StudyID, rec.NodeID, err)
	}
	path := opening.PathToNode(study, expected.ID)
	if path == nil {
		return item{}, opening.ErrNodeNotFound
	}
	game, err := opening.NewGameFromFEN(study.RootFEN)
	if err != nil {
		return item{}, err
	}
	// Replay everything up to, but excluding, the expected reply. When
	// the mistake sat on an opponent ply that ply is part of the path
	// and gets auto-applied here, so the user always faces their own
	// turn.
	for _, node := range path[:len(path)-1] {
		if _, err := opening.ApplyUCI(game, node.UCI); err != nil {
			return item{}, fmt.Errorf("replaying path to %s: %w", rec.NodeID, err)
		}
	}
	return item{record: rec, expected: expected, game: game}, nil
}

// setup positions the board for the current queue item. The replayed
// game is never mutated while the item is quizzed, so it is used as is.
func (s *Session) setup() {
	s.game = s.queue[s.idx].game
	s.wrongs = 0
	s.hint = HintNone
}

// Current returns the mistake record being quizzed.
func (s *Session) Current() *models.MistakeRecord {
	if s.finished {
		return nil
	}
	return &s.queue[s.idx].record
}

// Expected returns the move the user must produce for the current item.
func (s *Session) Expected() *models.MoveNode {
	if s.finished {
		return nil
	}
	return s.queue[s.idx].expected
}

// SubmitMove checks the user's answer against the expected reply.
// Wrong answers keep the item active and escalate the hint without
// touching the stored record. A correct answer applies the schedule
// change — MarkCorrect when clean, MarkLapsed after in-session wrongs —
// and advances to the next due mistake.
func (s *Session) SubmitMove(from, to, promo string) (*Result, error) {
	if s.finished {
		return nil, ErrSessionFinished
	}
	it := s.queue[s.idx]
	uci := from + to + promo
	if uci != it.expected.UCI {
		s.wrongs++
		if s.hint < maxHintLevel {
			s.hint++
		}
		return &Result{Outcome: OutcomeWrong, Hint: s.hint}, nil
	}

	rec := s.Current()
	outcome := OutcomeCorrect
	if s.wrongs > 0 {
		outcome = OutcomeLapsed
		MarkLapsed(rec, s.now())
	} else {
		MarkCorrect(rec, s.now())
	}
	return &Result{Outcome: outcome, Record: rec, Done: s.advance()}, nil
}

// Skip abandons the current item without a schedule change and moves on.
func (s *Session) Skip() (bool, error) {
	if s.finished {
		return true, ErrSessionFinished
	}
	return s.advance(), nil
}

func (s *Session) advance() bool {
	s.idx++
	if s.idx >= len(s.queue) {
		s.finished = true
		return true
	}
	s.setup()
	return false
}

// Finished reports whether the queue is exhausted.
func (s *Session) Finished() bool { return s.finished }

// Remaining returns how many items are left, including the current one.
func (s *Session) Remaining() int {
	if s.finished {
		return 0
	}
	return len(s.queue) - s.idx
}

// BoardConfig renders the current quiz position. Hints escalate from
// nothing to the origin square to the full move.
func (s *Session) BoardConfig() board.Config {
	if s.finished {
		game, _ := opening.NewGameFromFEN(s.study.RootFEN)
		return board.New(game, s.study.Side)
	}
	cfg := board.New(s.game, s.study.Side)
	expected := s.queue[s.idx].expected
	// Unlike practice, review accepts any input and judges it, so the
	// widget gets every legal move of the position.
	for _, m := range s.game.ValidMoves() {
		cfg.AllowMove(m.S1().String(), m.S2().String())
	}
	switch s.hint {
	case HintOrigin:
		cfg.Highlight(expected.Origin(), board.BrushYellow)
	case HintFullMove:
		cfg.Arrow(expected.Origin(), expected.Destination(), board.BrushGreen)
	}
	return cfg
}

// Package practice drives a study line ply-by-ply: the user plays their
// side's stored moves, the engine answers with the opponent's. Timing of
// the opponent replies is a client concern; the engine applies them
// synchronously and reports what it played.
package practice

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"repertoire/internal/board"
	"repertoire/internal/models"
	"repertoire/internal/opening"
)

// Outcome classifies the result of a move submission.
type Outcome string

const (
	OutcomeRejected       Outcome = "rejected"
	OutcomeNeedsPromotion Outcome = "needs_promotion"
	OutcomeAdvanced       Outcome = "advanced"
	OutcomeCompleted      Outcome = "completed"
)

// Reply is one opponent move the engine played automatically.
type Reply struct {
	NodeID string `json:"nodeId"`
	UCI    string `json:"uci"`
	San    string `json:"san"`
}

// Result reports what a submission did. Expected carries the node the
// user failed to match on a rejection, for mistake recording.
type Result struct {
	Outcome  Outcome          `json:"outcome"`
	Replies  []Reply          `json:"replies,omitempty"`
	Expected *models.MoveNode `json:"-"`
}

var (
	ErrNoLines          = errors.New("study has no lines to practice")
	ErrLineComplete     = errors.New("line already complete")
	ErrPromotionPending = errors.New("promotion choice pending")
	ErrNoPromotion      = errors.New("no promotion pending")
)

type pendingPromotion struct {
	from string
	to   string
}

// Engine walks one enumerated line of a study. It owns a private rules
// engine instance; a mismatched submission leaves all state untouched.
type Engine struct {
	study    *models.Study
	lines    []opening.Line
	lineIdx  int
	moveIdx  int
	game     *chess.Game
	userSide chess.Color
	pending  *pendingPromotion
	complete bool
}

// NewEngine enumerates the study's lines and positions the first one at
// its root, replaying any leading opponent moves.
func NewEngine(study *models.Study) (*Engine, error) {
	lines := opening.Lines(study)
	if len(lines) == 0 {
		return nil, ErrNoLines
	}
	e := &Engine{
		study:    study,
		lines:    lines,
		userSide: opening.ColorFor(study.Side),
	}
	if err := e.resetLine(); err != nil {
		return nil, err
	}
	return e, nil
}

// resetLine rebuilds the board at the line root and auto-plays the
// opponent up to the user's first turn.
func (e *Engine) resetLine() error {
	game, err := opening.NewGameFromFEN(e.study.RootFEN)
	if err != nil {
		return err
	}
	e.game = game
	e.moveIdx = 0
	e.pending = nil
	e.complete = false
	if _, err := e.advanceOpponent(); err != nil {
		return err
	}
	return nil
}

// advanceOpponent applies stored moves while it is the opponent's turn,
// stopping at the user's turn or the end of the line.
func (e *Engine) advanceOpponent() ([]Reply, error) {
	line := e.lines[e.lineIdx]
	var replies []Reply
	for e.moveIdx < len(line) && e.game.Position().Turn() != e.userSide {
		node := line[e.moveIdx]
		if _, err := opening.ApplyUCI(e.game, node.UCI); err != nil {
			return nil, fmt.Errorf("stored opponent move: %w", err)
		}
		replies = append(replies, Reply{NodeID: node.ID, UCI: node.UCI, San: node.San})
		e.moveIdx++
	}
	if e.moveIdx >= len(line) {
		e.complete = true
	}
	return replies, nil
}

// SubmitMove compares the user's move against the expected node. Only
// the single stored continuation is accepted; anything else is rejected
// without changing the position. A pawn reaching the last rank defers
// to an explicit promotion choice first.
func (e *Engine) SubmitMove(from, to string) (*Result, error) {
	if e.complete {
		return nil, ErrLineComplete
	}
	if e.pending != nil {
		return nil, ErrPromotionPending
	}
	if opening.IsPromotionAttempt(e.game, from, to) {
		e.pending = &pendingPromotion{from: from, to: to}
		return &Result{Outcome: OutcomeNeedsPromotion}, nil
	}
	return e.try(from + to)
}

// ChoosePromotion completes a deferred promotion move with the chosen
// piece letter (q, r, b, n) and runs the usual comparison.
func (e *Engine) ChoosePromotion(piece string) (*Result, error) {
	if e.pending == nil {
		return nil, ErrNoPromotion
	}
	if opening.PromoPiece(piece) == chess.NoPieceType {
		return nil, fmt.Errorf("invalid promotion piece %q", piece)
	}
	uci := e.pending.from + e.pending.to + piece
	e.pending = nil
	return e.try(uci)
}

// CancelPromotion abandons a deferred promotion. The position was never
// changed, so the pre-attempt board stands.
func (e *Engine) CancelPromotion() error {
	if e.pending == nil {
		return ErrNoPromotion
	}
	e.pending = nil
	return nil
}

func (e *Engine) try(uci string) (*Result, error) {
	expected := e.lines[e.lineIdx][e.moveIdx]
	if uci != expected.UCI {
		return &Result{Outcome: OutcomeRejected, Expected: expected}, nil
	}
	if _, err := opening.ApplyUCI(e.game, uci); err != nil {
		return nil, fmt.Errorf("stored move rejected by rules engine: %w", err)
	}
	e.moveIdx++
	if e.moveIdx >= len(e.lines[e.lineIdx]) {
		e.complete = true
		return &Result{Outcome: OutcomeCompleted}, nil
	}
	replies, err := e.advanceOpponent()
	if err != nil {
		return nil, err
	}
	if e.complete {
		return &Result{Outcome: OutcomeCompleted, Replies: replies}, nil
	}
	return &Result{Outcome: OutcomeAdvanced, Replies: replies}, nil
}

// Restart replays the current line from its root.
func (e *Engine) Restart() error {
	return e.resetLine()
}

// JumpToEnd plays out every remaining move of the line and marks the
// session complete.
func (e *Engine) JumpToEnd() ([]Reply, error) {
	line := e.lines[e.lineIdx]
	var replies []Reply
	for e.moveIdx < len(line) {
		node := line[e.moveIdx]
		if _, err := opening.ApplyUCI(e.game, node.UCI); err != nil {
			return nil, fmt.Errorf("stored move: %w", err)
		}
		replies = append(replies, Reply{NodeID: node.ID, UCI: node.UCI, San: node.San})
		e.moveIdx++
	}
	e.pending = nil
	e.complete = true
	return replies, nil
}

// SwitchLine moves the session to another enumerated line and resets
// the board to that line's root.
func (e *Engine) SwitchLine(index int) error {
	if index < 0 || index >= len(e.lines) {
		return fmt.Errorf("line index %d out of range (study has %d lines)", index, len(e.lines))
	}
	e.lineIdx = index
	return e.resetLine()
}

// Expected returns the node the user must play next, or nil when the
// line is complete or it is not the user's turn.
func (e *Engine) Expected() *models.MoveNode {
	if e.complete || e.game.Position().Turn() != e.userSide {
		return nil
	}
	return e.lines[e.lineIdx][e.moveIdx]
}

// BoardConfig derives the widget configuration for the current
// position: on the user's turn the movable squares collapse to the one
// expected move, with an arrow pointing it out.
func (e *Engine) BoardConfig() board.Config {
	cfg := board.New(e.game, e.study.Side)
	if expected := e.Expected(); expected != nil {
		cfg.AllowMove(expected.Origin(), expected.Destination())
		cfg.Arrow(expected.Origin(), expected.Destination(), board.BrushGreen)
	}
	return cfg
}

// Completed reports whether the current line has been walked to its end.
func (e *Engine) Completed() bool { return e.complete }

// LineIndex returns the index of the line being practiced.
func (e *Engine) LineIndex() int { return e.lineIdx }

// LineCount returns how many leaf-terminated lines the study has.
func (e *Engine) LineCount() int { return len(e.lines) }

// FEN exports the current position.
func (e *Engine) FEN() string { return e.game.Position().String() }

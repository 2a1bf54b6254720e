// Package puzzle replays a fixed solution move list and verifies the
// user reproduces the solver's side exactly. The opponent opens with
// move index 0; opponent replies are resolved by an explicit Step call
// so the client owns the presentation delay, and a move submitted
// while an opponent reply is pending is held as a premove.
package puzzle

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"repertoire/internal/board"
	"repertoire/internal/models"
	"repertoire/internal/opening"
)

// State is the puzzle's lifecycle. Failed and Completed are terminal.
type State string

const (
	StateUserTurn     State = "user_turn"
	StateOpponentTurn State = "opponent_turn"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// Outcome classifies a submission or step.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeFailed    Outcome = "failed"
	OutcomeQueued    Outcome = "queued" // held as premove
	OutcomeCompleted Outcome = "completed"
)

// Result reports a submission: the outcome, the opponent move applied
// by a step (if any), and the verdict of an auto-attempted premove.
type Result struct {
	Outcome        Outcome `json:"outcome"`
	OpponentUCI    string  `json:"opponentUci,omitempty"`
	PremoveUCI     string  `json:"premoveUci,omitempty"`
	PremoveVerdict Outcome `json:"premoveVerdict,omitempty"`
}

var (
	ErrPuzzleOver = errors.New("puzzle already finished")
	ErrNoStep     = errors.New("no opponent reply pending")
)

// Runner replays one puzzle. The user's side is the opposite of the
// side to move in the starting position, because the opponent opens.
type Runner struct {
	puzzle   *models.Puzzle
	moves    []string
	idx      int
	game     *chess.Game
	userSide chess.Color
	state    State
	premove  *string
}

// NewRunner prepares a runner at the puzzle's starting position with
// the opening opponent move still pending; call Step to resolve it.
func NewRunner(p *models.Puzzle) (*Runner, error) {
	moves := p.MoveList()
	if len(moves) == 0 {
		return nil, errors.New("puzzle has no moves")
	}
	game, err := opening.NewGameFromFEN(p.FEN)
	if err != nil {
		return nil, err
	}
	return &Runner{
		puzzle:   p,
		moves:    moves,
		game:     game,
		userSide: game.Position().Turn().Other(),
		state:    StateOpponentTurn,
	}, nil
}

// SubmitMove judges a user move. During an opponent reply it is held as
// the single queued premove (a newer premove replaces an older one).
// Any mismatch on the user's turn fails the puzzle immediately.
func (r *Runner) SubmitMove(from, to, promo string) (*Result, error) {
	switch r.state {
	case StateCompleted, StateFailed:
		return nil, ErrPuzzleOver
	case StateOpponentTurn:
		uci := from + to + promo
		r.premove = &uci
		return &Result{Outcome: OutcomeQueued}, nil
	}
	return r.attempt(from + to + promo)
}

func (r *Runner) attempt(uci string) (*Result, error) {
	if uci != r.moves[r.idx] {
		r.state = StateFailed
		return &Result{Outcome: OutcomeFailed}, nil
	}
	if _, err := opening.ApplyUCI(r.game, uci); err != nil {
		return nil, fmt.Errorf("solution move rejected by rules engine: %w", err)
	}
	r.idx++
	if r.idx >= len(r.moves) {
		r.state = StateCompleted
		return &Result{Outcome: OutcomeCompleted}, nil
	}
	r.state = StateOpponentTurn
	return &Result{Outcome: OutcomeCorrect}, nil
}

// Step resolves the pending opponent reply, then auto-attempts any
// queued premove. The client calls this after its presentation delay.
func (r *Runner) Step() (*Result, error) {
	switch r.state {
	case StateCompleted, StateFailed:
		return nil, ErrPuzzleOver
	case StateUserTurn:
		return nil, ErrNoStep
	}

	uci := r.moves[r.idx]
	if _, err := opening.ApplyUCI(r.game, uci); err != nil {
		return nil, fmt.Errorf("opponent move rejected by rules engine: %w", err)
	}
	r.idx++
	res := &Result{Outcome: OutcomeCorrect, OpponentUCI: uci}
	if r.idx >= len(r.moves) {
		r.state = StateCompleted
		res.Outcome = OutcomeCompleted
		r.premove = nil
		return res, nil
	}
	r.state = StateUserTurn

	if r.premove != nil {
		held := *r.premove
		r.premove = nil
		verdict, err := r.attempt(held)
		if err != nil {
			return nil, err
		}
		res.PremoveUCI = held
		res.PremoveVerdict = verdict.Outcome
		if verdict.Outcome == OutcomeCompleted {
			res.Outcome = OutcomeCompleted
		}
	}
	return res, nil
}

// CancelPremove drops the queued premove, if any.
func (r *Runner) CancelPremove() {
	r.premove = nil
}

// CurrentState returns the puzzle's lifecycle state.
func (r *Runner) CurrentState() State { return r.state }

// UserSide returns "white" or "black" for the solving side.
func (r *Runner) UserSide() string {
	if r.userSide == chess.Black {
		return opening.SideBlack
	}
	return opening.SideWhite
}

// BoardConfig renders the position. On the user's turn every legal
// move is movable; puzzles give no hints.
func (r *Runner) BoardConfig() board.Config {
	cfg := board.New(r.game, r.UserSide())
	if r.state == StateUserTurn {
		for _, m := range r.game.ValidMoves() {
			cfg.AllowMove(m.S1().String(), m.S2().String())
		}
	}
	return cfg
}

// Attempt converts the run into a persistable record.
func (r *Runner) Attempt(userID int64, elapsedMs int64) *models.PuzzleAttempt {
	return &models.PuzzleAttempt{
		UserID:    userID,
		PuzzleID:  r.puzzle.ID,
		Solved:    r.state == StateCompleted,
		ElapsedMs: elapsedMs,
	}
}

package puzzle

import (
	"testing"

	"repertoire/internal/models"
)

// matePuzzle is a back-rank combination: black to move in the FEN, so
// the solver plays white.
func matePuzzle() *models.Puzzle {
	return &models.Puzzle{
		ID:    "p1",
		FEN:   "r6k/pp2r2p/4Rp1Q/3p4/8/1N1P2R1/PqP2bPP/7K b - - 0 24",
		Moves: "f2g3 e6e7 b2b1",
	}
}

// openerPuzzle has two solver moves, so a premove can resolve the
// final one.
func openerPuzzle() *models.Puzzle {
	return &models.Puzzle{
		ID:    "p2",
		FEN:   "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR b KQkq - 0 1",
		Moves: "e7e5 e2e4 d7d5 e4d5",
	}
}

func mustRunner(t *testing.T, p *models.Puzzle) *Runner {
	t.Helper()
	r, err := NewRunner(p)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

func mustStep(t *testing.T, r *Runner) *Result {
	t.Helper()
	res, err := r.Step()
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	return res
}

func TestRunnerInfersUserSide(t *testing.T) {
	r := mustRunner(t, matePuzzle())
	if r.UserSide() != "white" {
		t.Errorf("UserSide = %s, want white (black opens)", r.UserSide())
	}
	if r.CurrentState() != StateOpponentTurn {
		t.Errorf("state = %s, want the opening opponent move pending", r.CurrentState())
	}
}

func TestRunnerSpecScenarioWithPremove(t *testing.T) {
	r := mustRunner(t, matePuzzle())

	// Opponent auto-plays f2g3.
	res := mustStep(t, r)
	if res.OpponentUCI != "f2g3" {
		t.Fatalf("opponent move = %s, want f2g3", res.OpponentUCI)
	}

	// User answers e6e7.
	res, err := r.SubmitMove("e6", "e7", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Outcome != OutcomeCorrect {
		t.Fatalf("e6e7 outcome = %s, want %s", res.Outcome, OutcomeCorrect)
	}

	// b2b1 submitted before the opponent's reply resolves is held.
	res, err = r.SubmitMove("b2", "b1", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Outcome != OutcomeQueued {
		t.Fatalf("premove outcome = %s, want %s", res.Outcome, OutcomeQueued)
	}

	// Resolving the reply completes the puzzle right after.
	res = mustStep(t, r)
	if res.Outcome != OutcomeCompleted {
		t.Fatalf("step outcome = %s, want %s", res.Outcome, OutcomeCompleted)
	}
	if r.CurrentState() != StateCompleted {
		t.Errorf("state = %s, want %s", r.CurrentState(), StateCompleted)
	}
}

func TestRunnerPremoveAutoAttempted(t *testing.T) {
	r := mustRunner(t, openerPuzzle())

	mustStep(t, r) // e7e5
	if res, _ := r.SubmitMove("e2", "e4", ""); res.Outcome != OutcomeCorrect {
		t.Fatalf("e2e4 outcome = %s", res.Outcome)
	}

	// Queue the recapture while d7d5 is pending.
	if res, _ := r.SubmitMove("e4", "d5", ""); res.Outcome != OutcomeQueued {
		t.Fatalf("premove outcome = %s, want queued", res.Outcome)
	}

	res := mustStep(t, r)
	if res.OpponentUCI != "d7d5" {
		t.Fatalf("opponent move = %s, want d7d5", res.OpponentUCI)
	}
	if res.PremoveUCI != "e4d5" || res.PremoveVerdict != OutcomeCompleted {
		t.Fatalf("premove verdict = %s/%s, want e4d5 completed", res.PremoveUCI, res.PremoveVerdict)
	}
	if res.Outcome != OutcomeCompleted {
		t.Errorf("step outcome = %s, want completed", res.Outcome)
	}
}

func TestRunnerWrongPremoveFailsAfterResolve(t *testing.T) {
	r := mustRunner(t, openerPuzzle())

	mustStep(t, r)
	r.SubmitMove("e2", "e4", "")
	r.SubmitMove("a2", "a3", "") // queued, wrong

	res := mustStep(t, r)
	if res.PremoveVerdict != OutcomeFailed {
		t.Fatalf("premove verdict = %s, want failed", res.PremoveVerdict)
	}
	if r.CurrentState() != StateFailed {
		t.Errorf("state = %s, want failed", r.CurrentState())
	}
}

func TestRunnerCancelPremove(t *testing.T) {
	r := mustRunner(t, openerPuzzle())

	mustStep(t, r)
	r.SubmitMove("e2", "e4", "")
	r.SubmitMove("a2", "a3", "")
	r.CancelPremove()

	res := mustStep(t, r)
	if res.PremoveUCI != "" {
		t.Errorf("premove %s attempted after cancel", res.PremoveUCI)
	}
	if r.CurrentState() != StateUserTurn {
		t.Errorf("state = %s, want user_turn", r.CurrentState())
	}
}

func TestRunnerMismatchFailsImmediately(t *testing.T) {
	r := mustRunner(t, matePuzzle())
	mustStep(t, r)

	res, err := r.SubmitMove("g3", "h2", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Outcome != OutcomeFailed {
		t.Fatalf("outcome = %s, want failed", res.Outcome)
	}
	if _, err := r.SubmitMove("e6", "e7", ""); err != ErrPuzzleOver {
		t.Errorf("submit after failure err = %v, want ErrPuzzleOver", err)
	}
	if _, err := r.Step(); err != ErrPuzzleOver {
		t.Errorf("step after failure err = %v, want ErrPuzzleOver", err)
	}
}

func TestRunnerBoardConfigLocksDuringOpponentTurn(t *testing.T) {
	r := mustRunner(t, matePuzzle())

	cfg := r.BoardConfig()
	if len(cfg.Dests) != 0 {
		t.Errorf("dests during opponent turn = %v, want empty", cfg.Dests)
	}

	mustStep(t, r)
	cfg = r.BoardConfig()
	if len(cfg.Dests) == 0 {
		t.Error("dests on user turn should not be empty")
	}
	if cfg.Orientation != "white" {
		t.Errorf("orientation = %s, want the solver's side", cfg.Orientation)
	}
}

package drill

import (
	"math/rand"
	"testing"
	"time"

	"repertoire/internal/models"
	"repertoire/internal/opening"
)

func node(id, san, uci string, children ...models.MoveNode) models.MoveNode {
	return models.MoveNode{ID: id, San: san, UCI: uci, Children: children}
}

func drillStudy() *models.Study {
	return &models.Study{
		ID:   "study-1",
		Name: "Open Games",
		Side: opening.SideWhite,
		Moves: []models.MoveNode{
			node("n1", "e4", "e2e4",
				node("n2", "e5", "e7e5",
					node("n3", "Nf3", "g1f3"),
					node("n4", "Bc4", "f1c4"))),
		},
	}
}

func mustRunner(t *testing.T, study *models.Study, seed int64, limit time.Duration) *Runner {
	t.Helper()
	r, err := NewRunner(study, rand.New(rand.NewSource(seed)), limit)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	return r
}

// playLine submits the user's moves for whatever line the runner is on
// by reading the expected move off the runner state via a probe move.
func submit(t *testing.T, r *Runner, uci string) *Result {
	t.Helper()
	promo := ""
	if len(uci) == 5 {
		promo = uci[4:5]
	}
	res, err := r.SubmitMove(uci[0:2], uci[2:4], promo)
	if err != nil {
		t.Fatalf("SubmitMove(%s): %v", uci, err)
	}
	return res
}

func TestRunnerCoversAllLines(t *testing.T) {
	r := mustRunner(t, drillStudy(), 1, 0)

	// Both lines share the prefix e2e4 e7e5 and differ at ply 3, so the
	// drill can be completed without knowing the shuffle order by
	// trying g1f3 first and falling back to f1c4.
	finished := false
	for rounds := 0; rounds < 4 && !finished; rounds++ {
		submit(t, r, "e2e4")
		res := submit(t, r, "g1f3")
		if res.Outcome == OutcomeWrong {
			res = submit(t, r, "f1c4")
		}
		switch res.Outcome {
		case OutcomeNextLine:
		case OutcomeFinished:
			finished = true
		default:
			t.Fatalf("line end outcome = %s", res.Outcome)
		}
	}
	if !finished || !r.Finished() {
		t.Fatal("drill should finish after both lines")
	}

	stats := r.Stats()
	if stats.TotalLines != 2 || stats.LinesDone != 2 {
		t.Errorf("lines = %d/%d, want 2/2", stats.LinesDone, stats.TotalLines)
	}
	if stats.CorrectMoves != 4 {
		t.Errorf("CorrectMoves = %d, want 4", stats.CorrectMoves)
	}
}

func TestRunnerWrongMoveAllowsRetry(t *testing.T) {
	r := mustRunner(t, drillStudy(), 1, 0)

	submit(t, r, "e2e4")
	fen := r.game.Position().String()

	res := submit(t, r, "a2a3")
	if res.Outcome != OutcomeWrong {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeWrong)
	}
	if got := r.game.Position().String(); got != fen {
		t.Error("wrong move must not change the position")
	}

	stats := r.Stats()
	if stats.WrongAttempts != 1 {
		t.Errorf("WrongAttempts = %d, want 1", stats.WrongAttempts)
	}
}

func TestRunnerShuffleIsSeeded(t *testing.T) {
	first := func(seed int64) string {
		r := mustRunner(t, drillStudy(), seed, 0)
		return r.lines[0][len(r.lines[0])-1].UCI
	}
	a := first(3)
	same := true
	for i := 0; i < 20; i++ {
		if first(3) != a {
			same = false
		}
	}
	if !same {
		t.Error("identical seeds must produce identical line orders")
	}
}

func TestRunnerAccuracy(t *testing.T) {
	r := mustRunner(t, drillStudy(), 1, 0)

	submit(t, r, "a2a3") // wrong
	submit(t, r, "e2e4") // correct

	stats := r.Stats()
	if stats.Accuracy != 50 {
		t.Errorf("Accuracy = %.1f, want 50.0", stats.Accuracy)
	}
}

func TestRunnerTimerStartsOnFirstMove(t *testing.T) {
	r := mustRunner(t, drillStudy(), 1, 0)

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	if r.Stats().ElapsedMs != 0 {
		t.Error("elapsed should be zero before the first move")
	}

	submit(t, r, "e2e4")
	clock = clock.Add(1500 * time.Millisecond)

	stats := r.Stats()
	if stats.ElapsedMs != 1500 {
		t.Errorf("ElapsedMs = %d, want 1500", stats.ElapsedMs)
	}
	if stats.AvgMsPerMove != 1500 {
		t.Errorf("AvgMsPerMove = %.1f, want 1500", stats.AvgMsPerMove)
	}
}

func TestRunnerTimeLimit(t *testing.T) {
	r := mustRunner(t, drillStudy(), 1, time.Minute)

	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return clock }

	submit(t, r, "e2e4")
	clock = clock.Add(2 * time.Minute)

	res := submit(t, r, "g1f3")
	if res.Outcome != OutcomeTimeout {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeTimeout)
	}
	if !r.Finished() || !r.TimedOut() {
		t.Error("runner should be finished after the time limit")
	}
	if _, err := r.SubmitMove("g1", "f3", ""); err != ErrDrillFinished {
		t.Errorf("submit after timeout err = %v, want ErrDrillFinished", err)
	}
}

func TestRunnerBlackStudyReplaysOpponentLead(t *testing.T) {
	study := &models.Study{
		ID:   "study-2",
		Side: opening.SideBlack,
		Moves: []models.MoveNode{
			node("n1", "e4", "e2e4",
				node("n2", "c5", "c7c5")),
			node("n3", "d4", "d2d4",
				node("n4", "d5", "d7d5")),
		},
	}
	r := mustRunner(t, study, 2, 0)

	// The leading white move of the first shuffled line was already
	// applied, so it is black to move.
	cfg := r.BoardConfig()
	if cfg.Turn != "black" {
		t.Fatalf("turn = %s, want black", cfg.Turn)
	}

	// Answer whichever line came up first, then the other.
	res := submit(t, r, "c7c5")
	if res.Outcome == OutcomeWrong {
		res = submit(t, r, "d7d5")
	}
	if res.Outcome != OutcomeNextLine {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeNextLine)
	}

	res = submit(t, r, "c7c5")
	if res.Outcome == OutcomeWrong {
		res = submit(t, r, "d7d5")
	}
	if res.Outcome != OutcomeFinished {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeFinished)
	}
}

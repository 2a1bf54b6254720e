package review

import (
	"testing"
	"time"

	"repertoire/internal/models"
	"repertoire/internal/opening"
)

func node(id, san, uci string, children ...models.MoveNode) models.MoveNode {
	return models.MoveNode{ID: id, San: san, UCI: uci, Children: children}
}

func reviewStudy() *models.Study {
	return &models.Study{
		ID:   "study-1",
		Name: "King's Knight",
		Side: opening.SideWhite,
		Moves: []models.MoveNode{
			node("n1", "e4", "e2e4",
				node("n2", "e5", "e7e5",
					node("n3", "Nf3", "g1f3",
						node("n4", "Nc6", "b8c6",
							node("n5", "Bb5", "f1b5"))))),
		},
	}
}

func dueRecord(nodeID, uci string) models.MistakeRecord {
	return models.MistakeRecord{
		UserID:      7,
		StudyID:     "study-1",
		NodeID:      nodeID,
		ExpectedUCI: uci,
		WrongCount:  1,
	}
}

func TestSessionQuizzesUserPly(t *testing.T) {
	s, err := NewSession(reviewStudy(), []models.MistakeRecord{dueRecord("n3", "g1f3")})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	// Position rebuilt to just before g1f3: e2e4 e7e5 played.
	if got := s.Expected(); got == nil || got.UCI != "g1f3" {
		t.Fatalf("Expected = %+v, want g1f3", got)
	}

	res, err := s.SubmitMove("g1", "f3", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Outcome != OutcomeCorrect {
		t.Errorf("outcome = %s, want %s", res.Outcome, OutcomeCorrect)
	}
	if !res.Done || !s.Finished() {
		t.Error("single-item session should be done after the correct answer")
	}
}

func TestSessionOpponentPlyResolvesToFirstChild(t *testing.T) {
	// n2 (e7e5) is an opponent ply in a white study: the session must
	// auto-apply it and quiz the user's reply g1f3.
	s, err := NewSession(reviewStudy(), []models.MistakeRecord{dueRecord("n2", "e7e5")})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	if got := s.Expected(); got == nil || got.ID != "n3" {
		t.Fatalf("Expected = %+v, want n3 (first child of the opponent ply)", got)
	}
	cfg := s.BoardConfig()
	if cfg.Turn != "white" {
		t.Errorf("turn = %s, the user must always face their own turn", cfg.Turn)
	}

	res, err := s.SubmitMove("g1", "f3", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Outcome != OutcomeCorrect {
		t.Errorf("outcome = %s, want %s", res.Outcome, OutcomeCorrect)
	}
}

func TestSessionHintEscalation(t *testing.T) {
	s, err := NewSession(reviewStudy(), []models.MistakeRecord{dueRecord("n3", "g1f3")})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	res, err := s.SubmitMove("b1", "c3", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Outcome != OutcomeWrong || res.Hint != HintOrigin {
		t.Fatalf("first wrong: outcome=%s hint=%d, want wrong/1", res.Outcome, res.Hint)
	}
	cfg := s.BoardConfig()
	if len(cfg.Shapes) != 1 || cfg.Shapes[0].Orig != "g1" || cfg.Shapes[0].Dest != "" {
		t.Errorf("hint 1 shapes = %+v, want origin-square highlight on g1", cfg.Shapes)
	}

	res, err = s.SubmitMove("d2", "d4", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Hint != HintFullMove {
		t.Fatalf("second wrong: hint=%d, want 2", res.Hint)
	}
	cfg = s.BoardConfig()
	if len(cfg.Shapes) != 1 || cfg.Shapes[0].Dest != "f3" {
		t.Errorf("hint 2 shapes = %+v, want full-move arrow g1->f3", cfg.Shapes)
	}

	// Hint level stays clamped at the full move.
	res, err = s.SubmitMove("d2", "d4", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Hint != HintFullMove {
		t.Errorf("third wrong: hint=%d, want 2", res.Hint)
	}

	// Correct after wrongs is a lapse, not a clean review.
	res, err = s.SubmitMove("g1", "f3", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Outcome != OutcomeLapsed {
		t.Errorf("outcome = %s, want %s", res.Outcome, OutcomeLapsed)
	}
}

func TestSessionCorrectAnswerAdvancesSchedule(t *testing.T) {
	// A clean correct answer must push the stored record out of the
	// due window: streak grows and next review lands at the interval
	// for the pre-answer streak.
	rec := dueRecord("n3", "g1f3")
	rec.Streak = 2

	s, err := NewSession(reviewStudy(), []models.MistakeRecord{rec})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.now = func() time.Time { return now }

	res, err := s.SubmitMove("g1", "f3", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Outcome != OutcomeCorrect {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeCorrect)
	}
	if res.Record == nil {
		t.Fatal("correct answer must carry the record to persist")
	}
	if res.Record.Streak != 3 {
		t.Errorf("Streak = %d, want 3", res.Record.Streak)
	}
	if want := now.Add(Interval(2)); !res.Record.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v (index 2)", res.Record.NextReview, want)
	}
	if res.Record.IsDue(now) {
		t.Error("reviewed record must no longer be due")
	}
}

func TestSessionLapsedSchedulesShortestInterval(t *testing.T) {
	// Correct after 2 wrong attempts: stored streak is forced to 0 and
	// next review lands one hour out, not at the pre-mistake interval.
	rec := dueRecord("n3", "g1f3")
	rec.Streak = 4

	s, err := NewSession(reviewStudy(), []models.MistakeRecord{rec})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	s.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		res, err := s.SubmitMove("d2", "d4", "")
		if err != nil {
			t.Fatalf("SubmitMove: %v", err)
		}
		if res.Record != nil {
			t.Fatal("wrong answer must not carry a record to persist")
		}
	}
	res, err := s.SubmitMove("g1", "f3", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Outcome != OutcomeLapsed {
		t.Fatalf("outcome = %s, want %s", res.Outcome, OutcomeLapsed)
	}
	if res.Record.Streak != 0 {
		t.Errorf("Streak = %d, want 0", res.Record.Streak)
	}
	if want := now.Add(Interval(0)); !res.Record.NextReview.Equal(want) {
		t.Errorf("NextReview = %v, want %v", res.Record.NextReview, want)
	}
}

func TestSessionBoardShowsOpponentLastMoveAndCheck(t *testing.T) {
	// The quizzed position is reached by replay, so the board carries
	// the auto-applied opponent ply as the last move — here Bb4+, which
	// also puts the user in check.
	study := &models.Study{
		ID:   "study-2",
		Name: "French sideline",
		Side: opening.SideWhite,
		Moves: []models.MoveNode{
			node("m1", "e4", "e2e4",
				node("m2", "e6", "e7e6",
					node("m3", "d4", "d2d4",
						node("m4", "Bb4+", "f8b4",
							node("m5", "c3", "c2c3"))))),
		},
	}
	rec := dueRecord("m4", "f8b4")
	rec.StudyID = "study-2"

	s, err := NewSession(study, []models.MistakeRecord{rec})
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	cfg := s.BoardConfig()
	if len(cfg.LastMove) != 2 || cfg.LastMove[0] != "f8" || cfg.LastMove[1] != "b4" {
		t.Errorf("LastMove = %v, want [f8 b4]", cfg.LastMove)
	}
	if !cfg.Check {
		t.Error("board must flag the check given by the opponent's ply")
	}
}

func TestSessionHintsResetPerItem(t *testing.T) {
	due := []models.MistakeRecord{dueRecord("n3", "g1f3"), dueRecord("n5", "f1b5")}
	s, err := NewSession(reviewStudy(), due)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	if s.Remaining() != 2 {
		t.Fatalf("Remaining = %d, want 2", s.Remaining())
	}

	if _, err := s.SubmitMove("d2", "d4", ""); err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	res, err := s.SubmitMove("g1", "f3", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Done {
		t.Fatal("session should continue to the second item")
	}

	// Fresh item, fresh hints.
	if got := s.Expected(); got == nil || got.UCI != "f1b5" {
		t.Fatalf("Expected = %+v, want f1b5", got)
	}
	res, err = s.SubmitMove("d2", "d4", "")
	if err != nil {
		t.Fatalf("SubmitMove: %v", err)
	}
	if res.Hint != HintOrigin {
		t.Errorf("hint = %d, want 1 after reset", res.Hint)
	}
}

func TestSessionSkip(t *testing.T) {
	due := []models.MistakeRecord{dueRecord("n3", "g1f3"), dueRecord("n5", "f1b5")}
	s, err := NewSession(reviewStudy(), due)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	done, err := s.Skip()
	if err != nil || done {
		t.Fatalf("Skip = %v,%v, want false,nil", done, err)
	}
	if got := s.Expected(); got == nil || got.UCI != "f1b5" {
		t.Fatalf("Expected after skip = %+v, want f1b5", got)
	}

	done, err = s.Skip()
	if err != nil || !done {
		t.Fatalf("second Skip = %v,%v, want true,nil", done, err)
	}
	if _, err := s.SubmitMove("f1", "b5", ""); err != ErrSessionFinished {
		t.Errorf("submit after finish err = %v, want ErrSessionFinished", err)
	}
}

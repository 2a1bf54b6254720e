package opening

import (
	"strings"
	"testing"

	"github.com/notnil/chess"

	"repertoire/internal/models"
)

func node(id, san, uci string, children ...models.MoveNode) models.MoveNode {
	return models.MoveNode{ID: id, San: san, UCI: uci, Children: children}
}

func openGamesStudy() *models.Study {
	return &models.Study{
		ID:   "study-1",
		Name: "Open Games",
		Side: SideWhite,
		Moves: []models.MoveNode{
			node("n1", "e4", "e2e4",
				node("n2", "e5", "e7e5",
					node("n3", "Nf3", "g1f3",
						node("n4", "Nc6", "b8c6")),
					node("n5", "Bc4", "f1c4")),
				node("n6", "c5", "c7c5",
					node("n7", "Nf3", "g1f3"))),
			node("n8", "d4", "d2d4"),
		},
	}
}

func TestLinesEnumeratesLeafPaths(t *testing.T) {
	lines := Lines(openGamesStudy())

	want := []string{
		"e2e4 e7e5 g1f3 b8c6",
		"e2e4 e7e5 f1c4",
		"e2e4 c7c5 g1f3",
		"d2d4",
	}
	if len(lines) != len(want) {
		t.Fatalf("Lines returned %d lines, want %d", len(lines), len(want))
	}
	for i, line := range lines {
		got := strings.Join(line.UCIMoves(), " ")
		if got != want[i] {
			t.Errorf("line %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestLinesEmptyStudy(t *testing.T) {
	if lines := Lines(&models.Study{ID: "empty"}); len(lines) != 0 {
		t.Errorf("Lines of empty study = %d, want 0", len(lines))
	}
}

func TestPathToNode(t *testing.T) {
	study := openGamesStudy()

	tests := []struct {
		name   string
		nodeID string
		want   string
	}{
		{"root node", "n1", "e2e4"},
		{"deep node", "n4", "e2e4 e7e5 g1f3 b8c6"},
		{"variation node", "n5", "e2e4 e7e5 f1c4"},
		{"second root", "n8", "d2d4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := PathToNode(study, tt.nodeID)
			if path == nil {
				t.Fatalf("PathToNode(%s) = nil", tt.nodeID)
			}
			if got := strings.Join(path.UCIMoves(), " "); got != tt.want {
				t.Errorf("path = %q, want %q", got, tt.want)
			}
		})
	}

	if PathToNode(study, "missing") != nil {
		t.Error("PathToNode of unknown id should be nil")
	}
}

func TestFindNode(t *testing.T) {
	study := openGamesStudy()
	if n := FindNode(study, "n7"); n == nil || n.UCI != "g1f3" {
		t.Errorf("FindNode(n7) = %+v, want g1f3", n)
	}
	if FindNode(study, "nope") != nil {
		t.Error("FindNode of unknown id should be nil")
	}
}

func TestSideToMoveBefore(t *testing.T) {
	study := openGamesStudy()

	tests := []struct {
		nodeID string
		want   chess.Color
	}{
		{"n1", chess.White}, // white plays e2e4
		{"n2", chess.Black}, // black answers e7e5
		{"n3", chess.White},
		{"n4", chess.Black},
	}
	for _, tt := range tests {
		got, err := SideToMoveBefore(study, tt.nodeID)
		if err != nil {
			t.Fatalf("SideToMoveBefore(%s): %v", tt.nodeID, err)
		}
		if got != tt.want {
			t.Errorf("SideToMoveBefore(%s) = %v, want %v", tt.nodeID, got, tt.want)
		}
	}

	if _, err := SideToMoveBefore(study, "missing"); err != ErrNodeNotFound {
		t.Errorf("missing node err = %v, want ErrNodeNotFound", err)
	}
}

func TestExpectedReviewMoveOpponentPly(t *testing.T) {
	study := openGamesStudy()

	// n2 (e7e5) is a black ply in a white study: the review should quiz
	// its first child g1f3 instead.
	got, err := ExpectedReviewMove(study, "n2")
	if err != nil {
		t.Fatalf("ExpectedReviewMove(n2): %v", err)
	}
	if got.ID != "n3" || got.UCI != "g1f3" {
		t.Errorf("review move = %+v, want n3/g1f3", got)
	}

	// n3 is the user's own ply and is quizzed directly.
	got, err = ExpectedReviewMove(study, "n3")
	if err != nil {
		t.Fatalf("ExpectedReviewMove(n3): %v", err)
	}
	if got.ID != "n3" {
		t.Errorf("review move = %+v, want n3", got)
	}

	// An opponent leaf has nothing to quiz.
	leaf := &models.Study{
		ID:   "leafy",
		Side: SideWhite,
		Moves: []models.MoveNode{
			node("a", "e4", "e2e4",
				node("b", "e5", "e7e5")),
		},
	}
	if _, err := ExpectedReviewMove(leaf, "b"); err == nil {
		t.Error("opponent leaf should not resolve to a review move")
	}
}

func TestValidateAcceptsLegalTree(t *testing.T) {
	if err := Validate(openGamesStudy()); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateRejectsIllegalMove(t *testing.T) {
	study := &models.Study{
		ID:   "broken",
		Side: SideWhite,
		Moves: []models.MoveNode{
			node("a", "e4", "e2e4",
				node("b", "??", "e2e4")), // white pawn already moved
		},
	}
	err := Validate(study)
	if err == nil {
		t.Fatal("Validate should reject an illegal stored move")
	}
	if !strings.Contains(err.Error(), "b") {
		t.Errorf("error %q should name the offending node", err)
	}
}

func TestSideToMove(t *testing.T) {
	if got := SideToMove(""); got != SideWhite {
		t.Errorf("empty FEN side = %s, want white", got)
	}
	if got := SideToMove("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"); got != SideBlack {
		t.Errorf("side = %s, want black", got)
	}
}

func TestSquareFromString(t *testing.T) {
	sq, ok := SquareFromString("e4")
	if !ok || sq != chess.E4 {
		t.Errorf("SquareFromString(e4) = %v,%v", sq, ok)
	}
	if _, ok := SquareFromString("j9"); ok {
		t.Error("SquareFromString(j9) should fail")
	}
	if _, ok := SquareFromString("e"); ok {
		t.Error("SquareFromString(e) should fail")
	}
}

func TestIsPromotionAttempt(t *testing.T) {
	game, err := NewGameFromFEN("7k/4P3/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("NewGameFromFEN: %v", err)
	}
	if !IsPromotionAttempt(game, "e7", "e8") {
		t.Error("pawn to last rank should be a promotion attempt")
	}
	if IsPromotionAttempt(game, "e1", "e2") {
		t.Error("king move is not a promotion attempt")
	}
}

package opening

import (
	"fmt"
	"strings"

	"github.com/notnil/chess"
)

// NewGameFromFEN constructs a rules-engine game from a FEN string.
// An empty FEN yields the standard starting position.
func NewGameFromFEN(fen string) (*chess.Game, error) {
	if fen == "" {
		return chess.NewGame(), nil
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("invalid FEN %q: %w", fen, err)
	}
	return chess.NewGame(opt), nil
}

// SquareFromString converts "e4" into a rules-engine square.
func SquareFromString(s string) (chess.Square, bool) {
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return chess.NoSquare, false
	}
	return chess.Square(int(s[1]-'1')*8 + int(s[0]-'a')), true
}

// PromoPiece maps a promotion letter (q, r, b, n) to a piece type.
func PromoPiece(letter string) chess.PieceType {
	switch strings.ToLower(letter) {
	case "q":
		return chess.Queen
	case "r":
		return chess.Rook
	case "b":
		return chess.Bishop
	case "n":
		return chess.Knight
	}
	return chess.NoPieceType
}

// FindLegalMove looks up the legal move matching origin, destination and
// promotion piece in the current position, or nil if there is none.
// Moves taken from ValidMoves carry their tags (check, capture, castle),
// which the board configuration relies on.
func FindLegalMove(game *chess.Game, from, to string, promo string) *chess.Move {
	s1, ok := SquareFromString(from)
	if !ok {
		return nil
	}
	s2, ok := SquareFromString(to)
	if !ok {
		return nil
	}
	want := PromoPiece(promo)
	for _, m := range game.ValidMoves() {
		if m.S1() == s1 && m.S2() == s2 && m.Promo() == want {
			return m
		}
	}
	return nil
}

// ApplyUCI applies a coordinate move ("e2e4", "e7e8q") to the game.
// It returns the applied move or an error if the move is illegal.
func ApplyUCI(game *chess.Game, uci string) (*chess.Move, error) {
	if len(uci) < 4 || len(uci) > 5 {
		return nil, fmt.Errorf("malformed coordinate move %q", uci)
	}
	promo := ""
	if len(uci) == 5 {
		promo = uci[4:5]
	}
	move := FindLegalMove(game, uci[0:2], uci[2:4], promo)
	if move == nil {
		return nil, fmt.Errorf("illegal move %q in position %s", uci, game.Position().String())
	}
	if err := game.Move(move); err != nil {
		return nil, err
	}
	return move, nil
}

// IsPromotionAttempt reports whether moving from origin to destination
// would promote a pawn: the origin piece is a pawn and the destination
// rank is the farthest rank for its color.
func IsPromotionAttempt(game *chess.Game, from, to string) bool {
	s1, ok := SquareFromString(from)
	if !ok || len(to) != 2 {
		return false
	}
	piece := game.Position().Board().Piece(s1)
	if piece.Type() != chess.Pawn {
		return false
	}
	switch piece.Color() {
	case chess.White:
		return to[1] == '8'
	case chess.Black:
		return to[1] == '1'
	}
	return false
}

// SideToMove extracts the active color ("white" or "black") from a FEN.
func SideToMove(fen string) string {
	fields := strings.Fields(fen)
	if len(fields) >= 2 && fields[1] == "b" {
		return SideBlack
	}
	return SideWhite
}

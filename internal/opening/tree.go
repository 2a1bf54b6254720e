package opening

import (
	"errors"
	"fmt"

	"github.com/notnil/chess"

	"repertoire/internal/models"
)

const (
	SideWhite = "white"
	SideBlack = "black"
)

var ErrNodeNotFound = errors.New("node not found in study")

// ColorFor converts a study side string to a rules-engine color.
func ColorFor(side string) chess.Color {
	if side == SideBlack {
		return chess.Black
	}
	return chess.White
}

// Line is one leaf-terminated path through a study tree, root first.
type Line []*models.MoveNode

// UCIMoves returns the line's moves in coordinate notation.
func (l Line) UCIMoves() []string {
	out := make([]string, len(l))
	for i, n := range l {
		out[i] = n.UCI
	}
	return out
}

// Lines enumerates every leaf-terminated path through the study tree in
// depth-first order. A study with no moves has no lines.
func Lines(study *models.Study) []Line {
	var lines []Line
	var walk func(prefix Line, nodes []models.MoveNode)
	walk = func(prefix Line, nodes []models.MoveNode) {
		for i := range nodes {
			node := &nodes[i]
			path := make(Line, len(prefix), len(prefix)+1)
			copy(path, prefix)
			path = append(path, node)
			if len(node.Children) == 0 {
				lines = append(lines, path)
				continue
			}
			walk(path, node.Children)
		}
	}
	walk(nil, study.Moves)
	return lines
}

// FindNode locates a node by ID anywhere in the study tree.
func FindNode(study *models.Study, nodeID string) *models.MoveNode {
	path := PathToNode(study, nodeID)
	if path == nil {
		return nil
	}
	return path[len(path)-1]
}

// PathToNode reconstructs the root-to-node path for the given node ID.
// Paths are recomputed on demand; nodes carry no parent pointers.
func PathToNode(study *models.Study, nodeID string) Line {
	var found Line
	var walk func(prefix Line, nodes []models.MoveNode) bool
	walk = func(prefix Line, nodes []models.MoveNode) bool {
		for i := range nodes {
			node := &nodes[i]
			path := append(append(Line{}, prefix...), node)
			if node.ID == nodeID {
				found = path
				return true
			}
			if walk(path, node.Children) {
				return true
			}
		}
		return false
	}
	walk(nil, study.Moves)
	return found
}

// SideToMoveBefore returns which color is to move immediately before the
// node is played: the root side alternated by the node's depth.
func SideToMoveBefore(study *models.Study, nodeID string) (chess.Color, error) {
	path := PathToNode(study, nodeID)
	if path == nil {
		return chess.NoColor, ErrNodeNotFound
	}
	side := ColorFor(SideToMove(study.RootFEN))
	if (len(path)-1)%2 == 1 {
		return side.Other(), nil
	}
	return side, nil
}

// IsOpponentNode reports whether the node holds a move played by the
// simulated opponent rather than the study's owner.
func IsOpponentNode(study *models.Study, nodeID string) (bool, error) {
	before, err := SideToMoveBefore(study, nodeID)
	if err != nil {
		return false, err
	}
	return before != ColorFor(study.Side), nil
}

// ExpectedReviewMove resolves the node a review session should quiz.
// A mistake recorded against an opponent ply is answered by the node's
// first child, the user's actual reply.
func ExpectedReviewMove(study *models.Study, nodeID string) (*models.MoveNode, error) {
	node := FindNode(study, nodeID)
	if node == nil {
		return nil, ErrNodeNotFound
	}
	opponent, err := IsOpponentNode(study, nodeID)
	if err != nil {
		return nil, err
	}
	if !opponent {
		return node, nil
	}
	if len(node.Children) == 0 {
		return nil, fmt.Errorf("opponent node %s has no reply to review", nodeID)
	}
	return &node.Children[0], nil
}

// Validate replays every node's coordinate move from the study root and
// fails if any stored move is rejected by the rules engine.
func Validate(study *models.Study) error {
	var walk func(game *chess.Game, nodes []models.MoveNode) error
	walk = func(game *chess.Game, nodes []models.MoveNode) error {
		for i := range nodes {
			node := &nodes[i]
			forked := game.Clone()
			if _, err := ApplyUCI(forked, node.UCI); err != nil {
				return fmt.Errorf("node %s (%s): %w", node.ID, node.San, err)
			}
			if err := walk(forked, node.Children); err != nil {
				return err
			}
		}
		return nil
	}
	game, err := NewGameFromFEN(study.RootFEN)
	if err != nil {
		return err
	}
	return walk(game, study.Moves)
}

package models

import "time"

// MoveNode is one ply in an opening study tree. Children hold the
// variations that continue from this move, in display order.
type MoveNode struct {
	ID       string     `json:"id"`
	San      string     `json:"san"`
	UCI      string     `json:"uci"` // origin + destination (+ promotion letter)
	FEN      string     `json:"fen"` // position after the move
	Comment  string     `json:"comment,omitempty"`
	Glyphs   []string   `json:"glyphs,omitempty"`
	MainLine bool       `json:"mainLine"`
	Children []MoveNode `json:"children,omitempty"`
}

// Origin returns the move's origin square, e.g. "e2".
func (n *MoveNode) Origin() string {
	if len(n.UCI) < 4 {
		return ""
	}
	return n.UCI[0:2]
}

// Destination returns the move's destination square, e.g. "e4".
func (n *MoveNode) Destination() string {
	if len(n.UCI) < 4 {
		return ""
	}
	return n.UCI[2:4]
}

// Promotion returns the promotion piece letter, or "" for a non-promotion.
func (n *MoveNode) Promotion() string {
	if len(n.UCI) < 5 {
		return ""
	}
	return n.UCI[4:5]
}

// Study is an opening repertoire tree owned by a user. It is read-only
// while a practice, review, or drill session is running.
type Study struct {
	ID          string     `json:"id"`
	UserID      int64      `json:"-"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Side        string     `json:"side"`    // "white" or "black"
	RootFEN     string     `json:"rootFen"` // starting position of the tree
	Moves       []MoveNode `json:"moves"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// PracticeProgress tracks how far a user has worked through a study.
type PracticeProgress struct {
	UserID         int64
	StudyID        string
	LinesCompleted int
	LastLineIndex  int
	UpdatedAt      time.Time
}

// Package board builds the configuration value consumed by the
// client-side board widget. The widget is external to this server: it
// renders whatever configuration it is given and reports raw
// origin/destination move events back.
package board

import (
	"github.com/notnil/chess"
)

// Brush names understood by the widget for decoration shapes.
const (
	BrushGreen  = "green"
	BrushYellow = "yellow"
	BrushRed    = "red"
)

// Shape is a decoration drawn on the board: an arrow when Dest is set,
// a square highlight when it is empty.
type Shape struct {
	Orig  string `json:"orig"`
	Dest  string `json:"dest,omitempty"`
	Brush string `json:"brush"`
}

// Config describes one board render: position, orientation, which
// pieces may move where, and any decorations.
type Config struct {
	FEN         string              `json:"fen"`
	Turn        string              `json:"turn"`
	Orientation string              `json:"orientation"`
	LastMove    []string            `json:"lastMove,omitempty"`
	Check       bool                `json:"check"`
	Dests       map[string][]string `json:"dests"`
	Shapes      []Shape             `json:"shapes,omitempty"`
}

// New builds a Config from the current game state with no movable
// squares. Callers add dests and shapes for the active session.
func New(game *chess.Game, orientation string) Config {
	cfg := Config{
		FEN:         game.Position().String(),
		Turn:        colorName(game.Position().Turn()),
		Orientation: orientation,
		Dests:       map[string][]string{},
	}
	moves := game.Moves()
	if len(moves) > 0 {
		last := moves[len(moves)-1]
		cfg.LastMove = []string{last.S1().String(), last.S2().String()}
		cfg.Check = last.HasTag(chess.Check)
	}
	return cfg
}

// AllowMove adds a movable origin/destination pair for the widget.
func (c *Config) AllowMove(from, to string) {
	for _, d := range c.Dests[from] {
		if d == to {
			return
		}
	}
	c.Dests[from] = append(c.Dests[from], to)
}

// Arrow adds a directional decoration for a move.
func (c *Config) Arrow(from, to, brush string) {
	c.Shapes = append(c.Shapes, Shape{Orig: from, Dest: to, Brush: brush})
}

// Highlight adds a square decoration.
func (c *Config) Highlight(square, brush string) {
	c.Shapes = append(c.Shapes, Shape{Orig: square, Brush: brush})
}

func colorName(c chess.Color) string {
	if c == chess.Black {
		return "black"
	}
	return "white"
}

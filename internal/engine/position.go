package engine

import "fmt"

// Color identifies a chess side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == White {
		return Black
	}
	return White
}

// PieceType enumerates the six chess piece kinds.
type PieceType string

const (
	King   PieceType = "KING"
	Queen  PieceType = "QUEEN"
	Rook   PieceType = "ROOK"
	Bishop PieceType = "BISHOP"
	Knight PieceType = "KNIGHT"
	Pawn   PieceType = "PAWN"
)

// Piece is an immutable (color, type) pair occupying a board square.
type Piece struct {
	Color Color     `json:"color"`
	Type  PieceType `json:"type"`
}

// Position is a 1-based (row, col) board coordinate. Row 1 is white's
// back rank, col 1 is the a-file.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// OnBoard reports whether both coordinates are within 1..8.
func (p Position) OnBoard() bool {
	return p.Row >= 1 && p.Row <= 8 && p.Col >= 1 && p.Col <= 8
}

func (p Position) shift(dr, dc int) Position {
	return Position{Row: p.Row + dr, Col: p.Col + dc}
}

// String renders the square in algebraic notation ("e2").
func (p Position) String() string {
	if !p.OnBoard() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+rune(p.Col-1), p.Row)
}

// Move is a start/end square pair with an optional pawn promotion type.
// Two moves over the same squares with different promotions are distinct.
type Move struct {
	Start     Position  `json:"start"`
	End       Position  `json:"end"`
	Promotion PieceType `json:"promotion,omitempty"`
}

func (m Move) String() string {
	s := m.Start.String() + " -> " + m.End.String()
	if m.Promotion != "" {
		s += "=" + string(m.Promotion)
	}
	return s
}

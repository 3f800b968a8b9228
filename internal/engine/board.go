package engine

import "encoding/json"

// Board is an 8x8 grid of optional pieces, indexed by (row-1, col-1).
// A Board is exclusively owned by its Game; Clone produces a fully
// independent deep copy.
type Board struct {
	squares [8][8]*Piece
}

// NewBoard returns an empty board.
func NewBoard() *Board { return &Board{} }

// StartingBoard returns a board populated with the standard initial
// position.
func StartingBoard() *Board {
	b := &Board{}
	b.Reset()
	return b
}

// PieceAt returns the piece on pos, or nil when the square is empty.
// The caller guarantees pos is on the board.
func (b *Board) PieceAt(pos Position) *Piece {
	return b.squares[pos.Row-1][pos.Col-1]
}

// Place puts piece on pos, replacing whatever occupied the square.
// Captures are implicit: the previous occupant is discarded.
func (b *Board) Place(pos Position, piece Piece) {
	p := piece
	b.squares[pos.Row-1][pos.Col-1] = &p
}

// Remove clears the square at pos.
func (b *Board) Remove(pos Position) {
	b.squares[pos.Row-1][pos.Col-1] = nil
}

var backRank = [8]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// Reset clears the board and places all 32 starting pieces: pawns on
// ranks 2 and 7, back ranks in R N B Q K B N R order.
func (b *Board) Reset() {
	b.squares = [8][8]*Piece{}
	for col := 1; col <= 8; col++ {
		b.Place(Position{Row: 1, Col: col}, Piece{Color: White, Type: backRank[col-1]})
		b.Place(Position{Row: 2, Col: col}, Piece{Color: White, Type: Pawn})
		b.Place(Position{Row: 7, Col: col}, Piece{Color: Black, Type: Pawn})
		b.Place(Position{Row: 8, Col: col}, Piece{Color: Black, Type: backRank[col-1]})
	}
}

// Clone returns a deep copy sharing no state with the receiver.
func (b *Board) Clone() *Board {
	c := &Board{}
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if p := b.squares[r][f]; p != nil {
				cp := *p
				c.squares[r][f] = &cp
			}
		}
	}
	return c
}

// Equal reports structural equality over all 64 squares.
func (b *Board) Equal(o *Board) bool {
	if o == nil {
		return false
	}
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			p, q := b.squares[r][f], o.squares[r][f]
			switch {
			case p == nil && q == nil:
			case p == nil || q == nil:
				return false
			case *p != *q:
				return false
			}
		}
	}
	return true
}

// MarshalJSON encodes the board as 8 rows of 8 cells, row 1 first,
// each cell null or {color, type}.
func (b *Board) MarshalJSON() ([]byte, error) {
	rows := make([][]*Piece, 8)
	for r := 0; r < 8; r++ {
		rows[r] = make([]*Piece, 8)
		for f := 0; f < 8; f++ {
			if p := b.squares[r][f]; p != nil {
				cp := *p
				rows[r][f] = &cp
			}
		}
	}
	return json.Marshal(rows)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	var rows [8][8]*Piece
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}
	b.squares = [8][8]*Piece{}
	for r := 0; r < 8; r++ {
		for f := 0; f < 8; f++ {
			if p := rows[r][f]; p != nil {
				cp := *p
				b.squares[r][f] = &cp
			}
		}
	}
	return nil
}

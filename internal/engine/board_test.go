package engine

import (
	"encoding/json"
	"testing"
)

func TestRemoveIsIdempotent(t *testing.T) {
	b := StartingBoard()
	pos := Position{Row: 2, Col: 5}
	if b.PieceAt(pos) == nil {
		t.Fatalf("expected pawn on e2")
	}
	b.Remove(pos)
	if b.PieceAt(pos) != nil {
		t.Fatalf("square not cleared")
	}
	b.Remove(pos)
	if b.PieceAt(pos) != nil {
		t.Fatalf("second remove changed the square")
	}
}

func TestPlaceReplacesOccupant(t *testing.T) {
	b := NewBoard()
	pos := Position{Row: 4, Col: 4}
	b.Place(pos, Piece{Color: White, Type: Knight})
	b.Place(pos, Piece{Color: Black, Type: Queen})
	got := b.PieceAt(pos)
	if got == nil || got.Color != Black || got.Type != Queen {
		t.Fatalf("expected black queen on d4, got %+v", got)
	}
}

func TestResetStartingPosition(t *testing.T) {
	b := StartingBoard()
	cases := []struct {
		pos   Position
		piece Piece
	}{
		{Position{1, 1}, Piece{White, Rook}},
		{Position{1, 2}, Piece{White, Knight}},
		{Position{1, 3}, Piece{White, Bishop}},
		{Position{1, 4}, Piece{White, Queen}},
		{Position{1, 5}, Piece{White, King}},
		{Position{2, 8}, Piece{White, Pawn}},
		{Position{7, 1}, Piece{Black, Pawn}},
		{Position{8, 5}, Piece{Black, King}},
		{Position{8, 8}, Piece{Black, Rook}},
	}
	for _, tc := range cases {
		got := b.PieceAt(tc.pos)
		if got == nil || *got != tc.piece {
			t.Fatalf("%s: expected %+v, got %+v", tc.pos, tc.piece, got)
		}
	}
	count := 0
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			if b.PieceAt(Position{row, col}) != nil {
				count++
			}
		}
	}
	if count != 32 {
		t.Fatalf("expected 32 pieces, got %d", count)
	}
}

func TestCloneIsDeepCopy(t *testing.T) {
	b := StartingBoard()
	c := b.Clone()
	if !b.Equal(c) {
		t.Fatalf("clone not equal to source")
	}
	c.Remove(Position{Row: 1, Col: 1})
	c.Place(Position{Row: 4, Col: 4}, Piece{Color: Black, Type: Queen})
	if b.PieceAt(Position{Row: 1, Col: 1}) == nil {
		t.Fatalf("mutating clone changed the original")
	}
	if b.PieceAt(Position{Row: 4, Col: 4}) != nil {
		t.Fatalf("placing on clone leaked into the original")
	}
	if b.Equal(c) {
		t.Fatalf("boards should differ after clone mutation")
	}
}

func TestBoardJSONRoundTrip(t *testing.T) {
	b := StartingBoard()
	b.Remove(Position{Row: 2, Col: 5})
	b.Place(Position{Row: 4, Col: 5}, Piece{Color: White, Type: Pawn})

	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Board
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !b.Equal(&back) {
		t.Fatalf("board changed across JSON round trip")
	}
}

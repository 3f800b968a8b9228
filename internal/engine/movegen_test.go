package engine

import (
	"sort"
	"testing"
)

func moveSet(moves []Move) map[string]bool {
	set := make(map[string]bool, len(moves))
	for _, m := range moves {
		set[m.String()] = true
	}
	return set
}

func sortedEnds(moves []Move) []string {
	ends := make([]string, 0, len(moves))
	for _, m := range moves {
		ends = append(ends, m.End.String())
	}
	sort.Strings(ends)
	return ends
}

func TestPseudoLegalEmptySquare(t *testing.T) {
	b := StartingBoard()
	if got := PseudoLegalMoves(b, Position{Row: 4, Col: 4}); got != nil {
		t.Fatalf("expected nil for empty square, got %v", got)
	}
}

func TestRookSlidesAndCaptures(t *testing.T) {
	b := NewBoard()
	b.Place(Position{Row: 4, Col: 4}, Piece{Color: White, Type: Rook})
	b.Place(Position{Row: 4, Col: 6}, Piece{Color: Black, Type: Pawn})  // capturable
	b.Place(Position{Row: 6, Col: 4}, Piece{Color: White, Type: Pawn}) // blocks

	moves := moveSet(PseudoLegalMoves(b, Position{Row: 4, Col: 4}))
	for _, want := range []string{"d4 -> e4", "d4 -> f4", "d4 -> a4", "d4 -> d5", "d4 -> d1"} {
		if !moves[want] {
			t.Fatalf("missing rook move %s in %v", want, moves)
		}
	}
	for _, banned := range []string{"d4 -> g4", "d4 -> d6", "d4 -> d7"} {
		if moves[banned] {
			t.Fatalf("unexpected rook move %s", banned)
		}
	}
}

func TestBishopStopsAtEdges(t *testing.T) {
	b := NewBoard()
	b.Place(Position{Row: 1, Col: 1}, Piece{Color: Black, Type: Bishop})
	moves := PseudoLegalMoves(b, Position{Row: 1, Col: 1})
	if len(moves) != 7 {
		t.Fatalf("corner bishop should have 7 moves, got %d", len(moves))
	}
}

func TestQueenCoversBothLines(t *testing.T) {
	b := NewBoard()
	b.Place(Position{Row: 4, Col: 4}, Piece{Color: White, Type: Queen})
	moves := PseudoLegalMoves(b, Position{Row: 4, Col: 4})
	// 14 rook-like + 13 bishop-like squares from d4 on an empty board
	if len(moves) != 27 {
		t.Fatalf("expected 27 queen moves, got %d", len(moves))
	}
}

func TestKnightOffsetsAndFriendlyBlock(t *testing.T) {
	b := NewBoard()
	b.Place(Position{Row: 1, Col: 2}, Piece{Color: White, Type: Knight})
	b.Place(Position{Row: 3, Col: 3}, Piece{Color: White, Type: Pawn})
	got := sortedEnds(PseudoLegalMoves(b, Position{Row: 1, Col: 2}))
	want := []string{"a3", "d2"} // c3 taken by friendly pawn, rest off-board
	if len(got) != len(want) {
		t.Fatalf("knight moves = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("knight moves = %v, want %v", got, want)
		}
	}
}

func TestKingSingleSteps(t *testing.T) {
	b := NewBoard()
	b.Place(Position{Row: 8, Col: 8}, Piece{Color: Black, Type: King})
	b.Place(Position{Row: 8, Col: 7}, Piece{Color: Black, Type: Rook})
	got := sortedEnds(PseudoLegalMoves(b, Position{Row: 8, Col: 8}))
	want := []string{"g7", "h7"}
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("king moves = %v, want %v", got, want)
	}
}

func TestPawnForwardAndDouble(t *testing.T) {
	b := StartingBoard()
	moves := moveSet(PseudoLegalMoves(b, Position{Row: 2, Col: 5}))
	if len(moves) != 2 || !moves["e2 -> e3"] || !moves["e2 -> e4"] {
		t.Fatalf("initial e2 pawn moves = %v", moves)
	}
}

func TestPawnBlocked(t *testing.T) {
	b := NewBoard()
	b.Place(Position{Row: 2, Col: 5}, Piece{Color: White, Type: Pawn})
	b.Place(Position{Row: 3, Col: 5}, Piece{Color: Black, Type: Knight})
	if moves := PseudoLegalMoves(b, Position{Row: 2, Col: 5}); len(moves) != 0 {
		t.Fatalf("blocked pawn should have no forward moves, got %v", moves)
	}

	// two-ahead blocked, one-ahead open: only the single step remains
	b2 := NewBoard()
	b2.Place(Position{Row: 2, Col: 5}, Piece{Color: White, Type: Pawn})
	b2.Place(Position{Row: 4, Col: 5}, Piece{Color: Black, Type: Knight})
	moves := moveSet(PseudoLegalMoves(b2, Position{Row: 2, Col: 5}))
	if len(moves) != 1 || !moves["e2 -> e3"] {
		t.Fatalf("expected only e2 -> e3, got %v", moves)
	}
}

func TestPawnDiagonalCaptures(t *testing.T) {
	b := NewBoard()
	b.Place(Position{Row: 5, Col: 4}, Piece{Color: White, Type: Pawn})
	b.Place(Position{Row: 6, Col: 3}, Piece{Color: Black, Type: Pawn})
	b.Place(Position{Row: 6, Col: 5}, Piece{Color: White, Type: Pawn}) // friendly, not capturable
	moves := moveSet(PseudoLegalMoves(b, Position{Row: 5, Col: 4}))
	if !moves["d5 -> c6"] {
		t.Fatalf("missing diagonal capture, got %v", moves)
	}
	if moves["d5 -> e6"] {
		t.Fatalf("pawn may not capture a friendly piece")
	}
}

func TestPawnEdgeFileSkipsOffBoardDiagonal(t *testing.T) {
	b := NewBoard()
	b.Place(Position{Row: 5, Col: 1}, Piece{Color: Black, Type: Pawn})
	b.Place(Position{Row: 4, Col: 2}, Piece{Color: White, Type: Pawn})
	moves := moveSet(PseudoLegalMoves(b, Position{Row: 5, Col: 1}))
	if len(moves) != 2 || !moves["a5 -> a4"] || !moves["a5 -> b4"] {
		t.Fatalf("edge pawn moves = %v", moves)
	}
}

func TestPawnPromotionExpansion(t *testing.T) {
	b := NewBoard()
	b.Place(Position{Row: 7, Col: 1}, Piece{Color: White, Type: Pawn})
	b.Place(Position{Row: 8, Col: 2}, Piece{Color: Black, Type: Rook})
	moves := PseudoLegalMoves(b, Position{Row: 7, Col: 1})
	// forward-one and diagonal capture, four promotion variants each
	if len(moves) != 8 {
		t.Fatalf("expected 8 promotion-tagged moves, got %d: %v", len(moves), moves)
	}
	seen := map[PieceType]int{}
	for _, m := range moves {
		if m.Promotion == "" {
			t.Fatalf("far-rank pawn move emitted without promotion: %v", m)
		}
		seen[m.Promotion]++
	}
	for _, pt := range []PieceType{Queen, Rook, Bishop, Knight} {
		if seen[pt] != 2 {
			t.Fatalf("promotion %s emitted %d times, want 2", pt, seen[pt])
		}
	}
}

package engine

// Pseudo-legal move generation: moves obeying each piece's geometry and
// the friendly-occupancy rule, without regard to check safety. Check
// filtering happens in Game.ValidMoves.

var (
	orthogonals = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	diagonals   = [][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	royals      = [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}, {1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	knightJumps = [][2]int{{2, 1}, {2, -1}, {-2, 1}, {-2, -1}, {1, 2}, {1, -2}, {-1, 2}, {-1, -2}}
)

// promotions lists the pawn promotion choices, emitted once each when a
// pawn move reaches the far rank.
var promotions = []PieceType{Queen, Rook, Bishop, Knight}

// PseudoLegalMoves enumerates the pseudo-legal moves for the piece on
// pos. It returns nil when the square is empty.
func PseudoLegalMoves(b *Board, pos Position) []Move {
	piece := b.PieceAt(pos)
	if piece == nil {
		return nil
	}
	switch piece.Type {
	case Rook:
		return slideMoves(b, pos, piece.Color, orthogonals)
	case Bishop:
		return slideMoves(b, pos, piece.Color, diagonals)
	case Queen:
		return slideMoves(b, pos, piece.Color, royals)
	case Knight:
		return stepMoves(b, pos, piece.Color, knightJumps)
	case King:
		return stepMoves(b, pos, piece.Color, royals)
	case Pawn:
		return pawnMoves(b, pos, piece.Color)
	}
	return nil
}

// slideMoves walks one square at a time in each direction: past empty
// squares, capturing on the first enemy square, stopping short of a
// friendly one or the board edge.
func slideMoves(b *Board, start Position, side Color, dirs [][2]int) []Move {
	var moves []Move
	for _, d := range dirs {
		for cur := start.shift(d[0], d[1]); cur.OnBoard(); cur = cur.shift(d[0], d[1]) {
			occupant := b.PieceAt(cur)
			if occupant == nil {
				moves = append(moves, Move{Start: start, End: cur})
				continue
			}
			if occupant.Color != side {
				moves = append(moves, Move{Start: start, End: cur})
			}
			break
		}
	}
	return moves
}

// stepMoves applies each offset once, keeping on-board squares not held
// by a friendly piece.
func stepMoves(b *Board, start Position, side Color, offsets [][2]int) []Move {
	var moves []Move
	for _, d := range offsets {
		cur := start.shift(d[0], d[1])
		if !cur.OnBoard() {
			continue
		}
		if occupant := b.PieceAt(cur); occupant != nil && occupant.Color == side {
			continue
		}
		moves = append(moves, Move{Start: start, End: cur})
	}
	return moves
}

func pawnMoves(b *Board, start Position, side Color) []Move {
	dir, homeRank, farRank := 1, 2, 8
	if side == Black {
		dir, homeRank, farRank = -1, 7, 1
	}
	var moves []Move

	oneAhead := start.shift(dir, 0)
	if oneAhead.OnBoard() && b.PieceAt(oneAhead) == nil {
		moves = append(moves, pawnAdvance(start, oneAhead, farRank)...)
		twoAhead := start.shift(2*dir, 0)
		if start.Row == homeRank && b.PieceAt(twoAhead) == nil {
			moves = append(moves, Move{Start: start, End: twoAhead})
		}
	}

	for _, dc := range []int{-1, 1} {
		target := start.shift(dir, dc)
		if !target.OnBoard() {
			continue
		}
		if enemy := b.PieceAt(target); enemy != nil && enemy.Color != side {
			moves = append(moves, pawnAdvance(start, target, farRank)...)
		}
	}
	return moves
}

// pawnAdvance emits the move to end, expanded into the four promotion
// variants when end sits on the far rank.
func pawnAdvance(start, end Position, farRank int) []Move {
	if end.Row != farRank {
		return []Move{{Start: start, End: end}}
	}
	moves := make([]Move, 0, len(promotions))
	for _, pt := range promotions {
		moves = append(moves, Move{Start: start, End: end, Promotion: pt})
	}
	return moves
}

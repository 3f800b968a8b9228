package engine

import (
	"encoding/json"
	"errors"
)

var (
	ErrGameOver    = errors.New("game is already over")
	ErrNoPiece     = errors.New("no piece at start position")
	ErrWrongTurn   = errors.New("piece does not belong to the side to move")
	ErrIllegalMove = errors.New("move is not legal")
)

// Game owns one board, the side to move, and the game-over flag. It is
// mutated exclusively through MakeMove and Resign; the over flag is
// monotonic and never cleared. A Game is not safe for concurrent
// mutation; callers serialize access per game (see internal/session).
type Game struct {
	board *Board
	turn  Color
	over  bool
}

// NewGame returns an active game with the starting position and white
// to move.
func NewGame() *Game {
	return &Game{board: StartingBoard(), turn: White}
}

// NewGameFrom returns an active game over a prepared board with the
// given side to move. The game takes ownership of the board.
func NewGameFrom(board *Board, turn Color) *Game {
	return &Game{board: board, turn: turn}
}

// Board exposes the live board for read-only callers.
func (g *Game) Board() *Board { return g.board }

// Turn returns the side to move.
func (g *Game) Turn() Color { return g.turn }

// Over reports whether the game has ended.
func (g *Game) Over() bool { return g.over }

// Resign ends the game. The flag is monotonic: once set it survives
// every later operation, and MakeMove fails from then on.
func (g *Game) Resign() { g.over = true }

// ValidMoves returns the legal moves for the piece on pos, or nil when
// the square is empty. Each pseudo-legal candidate is tried on a cloned
// board and kept only if the mover's king is not left in check; the
// live board is never touched during the scan.
func (g *Game) ValidMoves(pos Position) []Move {
	piece := g.board.PieceAt(pos)
	if piece == nil {
		return nil
	}
	candidates := PseudoLegalMoves(g.board, pos)
	moves := make([]Move, 0, len(candidates))
	for _, mv := range candidates {
		trial := g.board.Clone()
		trial.Remove(mv.Start)
		trial.Place(mv.End, *piece)
		if !inCheck(trial, piece.Color) {
			moves = append(moves, mv)
		}
	}
	return moves
}

// InCheck reports whether side's king is attacked by any enemy piece.
func (g *Game) InCheck(side Color) bool {
	return inCheck(g.board, side)
}

// InCheckmate reports whether side is in check with no legal move for
// any of its pieces.
func (g *Game) InCheckmate(side Color) bool {
	if !inCheck(g.board, side) {
		return false
	}
	return !g.sideHasMove(side)
}

// InStalemate reports whether side has no legal move while not in
// check.
func (g *Game) InStalemate(side Color) bool {
	if inCheck(g.board, side) {
		return false
	}
	return !g.sideHasMove(side)
}

func (g *Game) sideHasMove(side Color) bool {
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			pos := Position{Row: row, Col: col}
			piece := g.board.PieceAt(pos)
			if piece == nil || piece.Color != side {
				continue
			}
			if len(g.ValidMoves(pos)) > 0 {
				return true
			}
		}
	}
	return false
}

// MakeMove applies mv, flips the turn, and sets the over flag when the
// new side to move is checkmated or stalemated. It fails when the game
// is over, the start square is empty, the piece is not the mover's, or
// mv is not among ValidMoves for the start square. A terminal-rank pawn
// move without a promotion type is illegal here: ValidMoves only ever
// contains the four promotion-tagged variants.
func (g *Game) MakeMove(mv Move) error {
	if g.over {
		return ErrGameOver
	}
	piece := g.board.PieceAt(mv.Start)
	if piece == nil {
		return ErrNoPiece
	}
	if piece.Color != g.turn {
		return ErrWrongTurn
	}
	if !containsMove(g.ValidMoves(mv.Start), mv) {
		return ErrIllegalMove
	}

	g.board.Remove(mv.Start)
	placed := *piece
	if mv.Promotion != "" {
		placed = Piece{Color: piece.Color, Type: mv.Promotion}
	}
	g.board.Place(mv.End, placed)
	g.turn = g.turn.Other()

	if g.InCheckmate(g.turn) || g.InStalemate(g.turn) {
		g.over = true
	}
	return nil
}

func containsMove(moves []Move, mv Move) bool {
	for _, m := range moves {
		if m == mv {
			return true
		}
	}
	return false
}

// inCheck scans the board for side's king and asks every enemy piece
// whether one of its pseudo-legal moves lands on it. A board with no
// king of that color is degenerate and reported as not in check.
func inCheck(b *Board, side Color) bool {
	kingPos, ok := findKing(b, side)
	if !ok {
		return false
	}
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			pos := Position{Row: row, Col: col}
			piece := b.PieceAt(pos)
			if piece == nil || piece.Color == side {
				continue
			}
			for _, mv := range PseudoLegalMoves(b, pos) {
				if mv.End == kingPos {
					return true
				}
			}
		}
	}
	return false
}

func findKing(b *Board, side Color) (Position, bool) {
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			pos := Position{Row: row, Col: col}
			if p := b.PieceAt(pos); p != nil && p.Type == King && p.Color == side {
				return pos, true
			}
		}
	}
	return Position{}, false
}

// gameState is the persisted shape of a Game: the full board, the side
// to move, and the over flag. It round-trips through the game store.
type gameState struct {
	Board *Board `json:"board"`
	Turn  Color  `json:"turn"`
	Over  bool   `json:"gameOver"`
}

func (g *Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameState{Board: g.board, Turn: g.turn, Over: g.over})
}

func (g *Game) UnmarshalJSON(data []byte) error {
	var st gameState
	if err := json.Unmarshal(data, &st); err != nil {
		return err
	}
	if st.Board == nil {
		st.Board = NewBoard()
	}
	if st.Turn == "" {
		st.Turn = White
	}
	g.board = st.Board
	g.turn = st.Turn
	g.over = st.Over
	return nil
}

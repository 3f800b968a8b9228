// Package render turns a board into a PNG: colored squares, rasterized
// piece glyphs, an optional last-move highlight, and coordinate labels
// along the left and bottom edges. White is always at the bottom.
package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/graceteusch/chess/internal/engine"
)

type RenderOptions struct {
	// Highlight marks the squares of the most recent move.
	Highlight *engine.Move
}

type BoardRenderer interface {
	RenderPNG(ctx context.Context, board *engine.Board, opts RenderOptions) ([]byte, error)
}

type svgBoardRenderer struct{}

func NewSVGBoardRenderer() BoardRenderer {
	return &svgBoardRenderer{}
}

var (
	lightSquare    = color.RGBA{233, 207, 163, 255}
	darkSquare     = color.RGBA{187, 136, 96, 255}
	highlightFill  = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	coordTextColor = color.NRGBA{R: 60, G: 42, B: 24, A: 255}
	marginFill     = color.RGBA{246, 240, 228, 255}
)

func (r *svgBoardRenderer) RenderPNG(ctx context.Context, board *engine.Board, opts RenderOptions) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}

	const (
		squareSize = 64
		boardSize  = squareSize * 8
		margin     = 24
	)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	totalWidth := boardSize + margin*2
	totalHeight := boardSize + margin*2
	origin := image.Point{X: margin, Y: margin}

	img := image.NewRGBA(image.Rect(0, 0, totalWidth, totalHeight))
	imagedraw.Draw(img, img.Bounds(), image.NewUniform(marginFill), image.Point{}, imagedraw.Src)

	drawSquares(img, squareSize, origin)
	if opts.Highlight != nil {
		drawSquareOverlay(img, opts.Highlight.Start, squareSize, origin, highlightFill)
		drawSquareOverlay(img, opts.Highlight.End, squareSize, origin, highlightFill)
	}
	if err := drawPieces(img, board, squareSize, origin); err != nil {
		return nil, err
	}
	drawCoordinates(img, squareSize, origin, margin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// squareRect maps a position to its pixel rectangle; rank 8 is the top
// row of the image.
func squareRect(pos engine.Position, squareSize int, origin image.Point) image.Rectangle {
	col := pos.Col - 1
	row := 8 - pos.Row
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize)
}

func drawSquares(dst imagedraw.Image, squareSize int, origin image.Point) {
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			pos := engine.Position{Row: row, Col: col}
			clr := lightSquare
			if (row+col)%2 == 0 {
				clr = darkSquare
			}
			imagedraw.Draw(dst, squareRect(pos, squareSize, origin), image.NewUniform(clr), image.Point{}, imagedraw.Src)
		}
	}
}

func drawSquareOverlay(img *image.RGBA, pos engine.Position, squareSize int, origin image.Point, clr color.Color) {
	if !pos.OnBoard() {
		return
	}
	imagedraw.Draw(img, squareRect(pos, squareSize, origin), image.NewUniform(clr), image.Point{}, imagedraw.Over)
}

func drawPieces(dst imagedraw.Image, board *engine.Board, squareSize int, origin image.Point) error {
	for row := 1; row <= 8; row++ {
		for col := 1; col <= 8; col++ {
			pos := engine.Position{Row: row, Col: col}
			piece := board.PieceAt(pos)
			if piece == nil {
				continue
			}
			glyph, err := renderPieceImage(*piece, squareSize)
			if err != nil {
				return err
			}
			imagedraw.Draw(dst, squareRect(pos, squareSize, origin), glyph, image.Point{}, imagedraw.Over)
		}
	}
	return nil
}

func drawCoordinates(img *image.RGBA, squareSize int, origin image.Point, margin int) {
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(coordTextColor),
		Face: basicfont.Face7x13,
	}
	ascent := basicfont.Face7x13.Metrics().Ascent.Ceil()

	for row := 1; row <= 8; row++ {
		label := fmt.Sprintf("%d", row)
		y := origin.Y + (8-row)*squareSize + squareSize/2 + ascent/2
		x := origin.X - margin/2 - drawer.MeasureString(label).Round()/2
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(label)
	}
	for col := 1; col <= 8; col++ {
		label := string(rune('a' + col - 1))
		x := origin.X + (col-1)*squareSize + squareSize/2 - drawer.MeasureString(label).Round()/2
		y := origin.Y + 8*squareSize + margin/2 + ascent/2
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(label)
	}
}

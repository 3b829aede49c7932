package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	"image/png"

	nchess "github.com/corentings/chess/v2"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// Highlight marks the last move on the board.
type Highlight struct {
	From nchess.Square
	To   nchess.Square
}

type Options struct {
	// Flip draws the board from black's side.
	Flip      bool
	Highlight *Highlight
	Header    string
	Status    string
}

// Renderer draws positions as PNG images.
type Renderer struct {
	squareSize int
	pieces     *pieceCache
	face       font.Face
}

func New(squareSize int) *Renderer {
	if squareSize <= 0 {
		squareSize = 64
	}
	return &Renderer{squareSize: squareSize, pieces: newPieceCache(), face: basicfont.Face7x13}
}

const (
	panelHeight = 26
	panelGap    = 8
	panelRadius = 8
	panelPadX   = 16
)

var (
	lightSquare     = color.RGBA{233, 207, 163, 255}
	darkSquare      = color.RGBA{187, 136, 96, 255}
	backgroundColor = color.RGBA{20, 22, 33, 255}
	whiteMoveFill   = color.NRGBA{R: 255, G: 228, B: 120, A: 140}
	blackMoveArrow  = color.NRGBA{R: 148, G: 207, B: 255, A: 170}
	neutralArrow    = color.NRGBA{R: 182, G: 184, B: 190, A: 140}
	hudPanelColor   = color.NRGBA{R: 28, G: 31, B: 46, A: 250}
	hudTurnColor    = color.NRGBA{R: 32, G: 35, B: 52, A: 245}
	hudTextPrimary  = color.NRGBA{R: 236, G: 239, B: 255, A: 255}
	hudTextTurn     = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
	coordinateColor = color.NRGBA{R: 8, G: 214, B: 120, A: 255}
)

// geometry maps squares to pixels for one image.
type geometry struct {
	origin image.Point
	size   int
	margin int
	flip   bool
}

func (r *Renderer) layout(flip bool) (geometry, image.Rectangle) {
	margin := r.squareSize / 2
	if margin < 20 {
		margin = 20
	}
	top := margin + 2*panelHeight + 2*panelGap
	g := geometry{origin: image.Pt(margin, top), size: r.squareSize, margin: margin, flip: flip}
	board := 8 * r.squareSize
	return g, image.Rect(0, 0, board+2*margin, top+board+margin)
}

func (g geometry) rect(sq nchess.Square) image.Rectangle {
	col := int(sq.File())
	row := 7 - int(sq.Rank())
	if g.flip {
		col, row = 7-col, 7-row
	}
	x := g.origin.X + col*g.size
	y := g.origin.Y + row*g.size
	return image.Rect(x, y, x+g.size, y+g.size)
}

func (g geometry) boardRect() image.Rectangle {
	return image.Rect(g.origin.X, g.origin.Y, g.origin.X+8*g.size, g.origin.Y+8*g.size)
}

func (r *Renderer) RenderPNG(ctx context.Context, board *nchess.Board, opts Options) ([]byte, error) {
	if board == nil {
		return nil, fmt.Errorf("board is nil")
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	g, bounds := r.layout(opts.Flip)
	img := image.NewRGBA(bounds)
	imagedraw.Draw(img, bounds, image.NewUniform(backgroundColor), image.Point{}, imagedraw.Src)

	r.drawHUD(img, g, opts)
	drawSquares(img, g)
	if opts.Highlight != nil {
		drawHighlight(img, g, board, opts.Highlight)
	}
	if err := r.drawPieces(img, g, board); err != nil {
		return nil, err
	}
	r.drawCoordinates(img, g)

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

func eachSquare(fn func(sq nchess.Square)) {
	for rank := 0; rank < 8; rank++ {
		for file := 0; file < 8; file++ {
			fn(nchess.NewSquare(nchess.File(file), nchess.Rank(rank)))
		}
	}
}

func drawSquares(img *image.RGBA, g geometry) {
	eachSquare(func(sq nchess.Square) {
		clr := lightSquare
		if (int(sq.File())+int(sq.Rank()))%2 == 0 {
			clr = darkSquare
		}
		imagedraw.Draw(img, g.rect(sq), image.NewUniform(clr), image.Point{}, imagedraw.Src)
	})
}

func (r *Renderer) drawPieces(img *image.RGBA, g geometry, board *nchess.Board) error {
	for sq, piece := range board.SquareMap() {
		if piece == nchess.NoPiece {
			continue
		}
		pimg, err := r.pieces.get(piece, g.size)
		if err != nil {
			return err
		}
		imagedraw.Draw(img, g.rect(sq), pimg, image.Point{}, imagedraw.Over)
	}
	return nil
}

// drawHighlight fills both squares of a white move and draws an arrow for
// a black one, so the two sides stay distinguishable.
func drawHighlight(img *image.RGBA, g geometry, board *nchess.Board, h *Highlight) {
	mover := nchess.NoColor
	if p := board.Piece(h.To); p != nchess.NoPiece {
		mover = p.Color()
	} else if p := board.Piece(h.From); p != nchess.NoPiece {
		mover = p.Color()
	}
	switch mover {
	case nchess.White:
		fill := image.NewUniform(whiteMoveFill)
		imagedraw.Draw(img, g.rect(h.From), fill, image.Point{}, imagedraw.Over)
		imagedraw.Draw(img, g.rect(h.To), fill, image.Point{}, imagedraw.Over)
	case nchess.Black:
		drawArrow(img, g.rect(h.From), g.rect(h.To), g.size, blackMoveArrow)
	default:
		drawArrow(img, g.rect(h.From), g.rect(h.To), g.size, neutralArrow)
	}
}

func (r *Renderer) drawHUD(img *image.RGBA, g geometry, opts Options) {
	drawer := &font.Drawer{Dst: img, Face: r.face}
	br := g.boardRect()

	header := opts.Header
	if header == "" {
		header = "White vs Black"
	}
	titleRect := image.Rect(br.Min.X, g.margin, br.Max.X, g.margin+panelHeight)
	header = truncate(r.face, header, titleRect.Dx()-2*panelPadX)
	drawRoundedPanel(img, titleRect, panelRadius, hudPanelColor)
	drawCenteredString(drawer, titleRect, header, hudTextPrimary)

	if opts.Status == "" {
		return
	}
	width := drawer.MeasureString(opts.Status).Round() + 2*panelPadX
	if width > br.Dx() {
		width = br.Dx()
	}
	left := br.Min.X + (br.Dx()-width)/2
	top := titleRect.Max.Y + panelGap
	turnRect := image.Rect(left, top, left+width, top+panelHeight)
	drawRoundedPanel(img, turnRect, panelRadius, hudTurnColor)
	drawCenteredString(drawer, turnRect, truncate(r.face, opts.Status, width-2*panelPadX), hudTextTurn)
}

func (r *Renderer) drawCoordinates(img *image.RGBA, g geometry) {
	drawer := &font.Drawer{Dst: img, Face: r.face, Src: image.NewUniform(coordinateColor)}
	ascent := r.face.Metrics().Ascent.Ceil()
	bottom := g.boardRect().Max.Y

	for i := 0; i < 8; i++ {
		fileRect := g.rect(nchess.NewSquare(nchess.File(i), nchess.Rank1))
		drawCenteredText(drawer, nchess.File(i).String(), fileRect.Min.X+g.size/2, bottom+ascent+4)

		rankRect := g.rect(nchess.NewSquare(nchess.FileA, nchess.Rank(i)))
		drawCenteredText(drawer, nchess.Rank(i).String(), g.origin.X-g.margin/2, rankRect.Min.Y+g.size/2+ascent/2)
	}
}

package render

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/srwiley/oksvg"
)

func startBoard(t *testing.T) *nchess.Board {
	t.Helper()
	return nchess.NewGame().Position().Board()
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("png decode: %v", err)
	}
	return img
}

func redAt(img image.Image, p image.Point) uint32 {
	r, _, _, _ := img.At(p.X, p.Y).RGBA()
	return r >> 8
}

func center(r image.Rectangle) image.Point {
	return image.Pt((r.Min.X+r.Max.X)/2, (r.Min.Y+r.Max.Y)/2)
}

func TestPieceSVG_AllPiecesParse(t *testing.T) {
	for _, c := range []nchess.Color{nchess.White, nchess.Black} {
		for _, pt := range []nchess.PieceType{nchess.King, nchess.Queen, nchess.Rook, nchess.Bishop, nchess.Knight, nchess.Pawn} {
			src, err := pieceSVG(nchess.NewPiece(pt, c))
			if err != nil {
				t.Fatalf("pieceSVG %v %v: %v", c, pt, err)
			}
			if _, err := oksvg.ReadIconStream(strings.NewReader(src)); err != nil {
				t.Fatalf("parse %v %v: %v", c, pt, err)
			}
		}
	}
}

func TestRenderPNG_Dimensions(t *testing.T) {
	r := New(32)
	data, err := r.RenderPNG(context.Background(), startBoard(t), Options{Header: "A vs B", Status: "White's Turn"})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	img := decode(t, data)
	_, bounds := r.layout(false)
	if img.Bounds().Dx() != bounds.Dx() || img.Bounds().Dy() != bounds.Dy() {
		t.Fatalf("size = %v, want %v", img.Bounds(), bounds)
	}
}

func TestRenderPNG_FlipPutsBlackAtBottom(t *testing.T) {
	r := New(64)
	board := startBoard(t)
	g, _ := r.layout(false)
	bottomLeft := center(image.Rect(g.origin.X, g.origin.Y+7*g.size, g.origin.X+g.size, g.origin.Y+8*g.size))

	white, err := r.RenderPNG(context.Background(), board, Options{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	black, err := r.RenderPNG(context.Background(), board, Options{Flip: true})
	if err != nil {
		t.Fatalf("RenderPNG flip: %v", err)
	}
	if bytes.Equal(white, black) {
		t.Fatalf("flipped render should differ")
	}
	if red := redAt(decode(t, white), bottomLeft); red < 200 {
		t.Fatalf("expected white rook fill at a1, red=%d", red)
	}
	if red := redAt(decode(t, black), bottomLeft); red > 60 {
		t.Fatalf("expected black rook fill at h8, red=%d", red)
	}
}

func TestRenderPNG_HighlightMarksSquares(t *testing.T) {
	game := nchess.NewGame()
	mv, err := nchess.UCINotation{}.Decode(game.Position(), "e2e4")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := game.Move(mv, nil); err != nil {
		t.Fatalf("move: %v", err)
	}
	board := game.Position().Board()
	r := New(48)
	g, _ := r.layout(false)
	e2 := center(g.rect(nchess.E2))

	plain, err := r.RenderPNG(context.Background(), board, Options{})
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	marked, err := r.RenderPNG(context.Background(), board, Options{Highlight: &Highlight{From: nchess.E2, To: nchess.E4}})
	if err != nil {
		t.Fatalf("RenderPNG highlight: %v", err)
	}
	if decode(t, plain).At(e2.X, e2.Y) == decode(t, marked).At(e2.X, e2.Y) {
		t.Fatalf("e2 should be tinted by the highlight")
	}
}

func TestRenderPNG_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(32).RenderPNG(ctx, startBoard(t), Options{}); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestRenderPNG_NilBoard(t *testing.T) {
	if _, err := New(32).RenderPNG(context.Background(), nil, Options{}); err == nil {
		t.Fatalf("expected error for nil board")
	}
}

func TestTruncate(t *testing.T) {
	r := New(32)
	if got := truncate(r.face, "short", 500); got != "short" {
		t.Fatalf("got %q", got)
	}
	got := truncate(r.face, "a very long header that does not fit", 70)
	if !strings.HasSuffix(got, "...") || len(got) >= len("a very long header that does not fit") {
		t.Fatalf("got %q", got)
	}
}

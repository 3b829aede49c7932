package rules

import (
	"errors"
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"
)

func playAll(t *testing.T, p *Position, moves ...string) {
	t.Helper()
	for _, mv := range moves {
		if err := p.Apply(mv[:2], mv[2:4], "q"); err != nil {
			t.Fatalf("Apply %s: %v", mv, err)
		}
	}
}

func TestApply_FlipsTurnAndUpdatesFEN(t *testing.T) {
	p := NewPosition()
	if p.Turn() != nchess.White {
		t.Fatalf("expected white to move first")
	}
	playAll(t, p, "e2e4")
	if p.Turn() != nchess.Black {
		t.Fatalf("expected black to move after e2e4")
	}
	if !strings.HasPrefix(p.FEN(), "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b") {
		t.Fatalf("unexpected fen: %s", p.FEN())
	}
	if p.MoveCount() != 1 {
		t.Fatalf("move count = %d", p.MoveCount())
	}
	from, to, ok := p.LastMove()
	if !ok || from.String() != "e2" || to.String() != "e4" {
		t.Fatalf("last move = %s%s ok=%v", from, to, ok)
	}
}

func TestLastMove_EmptyGame(t *testing.T) {
	if _, _, ok := NewPosition().LastMove(); ok {
		t.Fatalf("fresh position has no last move")
	}
}

func TestApply_IllegalMoveLeavesPosition(t *testing.T) {
	p := NewPosition()
	before := p.FEN()
	err := p.Apply("e2", "e5", "q")
	if !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
	if p.FEN() != before {
		t.Fatalf("position changed after illegal move")
	}
}

func TestApply_PawnDoubleStepFromWrongRank(t *testing.T) {
	p := NewPosition()
	playAll(t, p, "e2e3", "a7a6")
	if err := p.Apply("e3", "e5", "q"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected ErrIllegalMove, got %v", err)
	}
}

func TestApply_MalformedSquares(t *testing.T) {
	p := NewPosition()
	for _, sq := range []string{"", "z9", "e", "e22", "i1"} {
		if err := p.Apply(sq, "e4", "q"); !errors.Is(err, ErrBadSquare) {
			t.Fatalf("from=%q: expected ErrBadSquare, got %v", sq, err)
		}
	}
	if err := p.Apply("e2", "e0", "q"); !errors.Is(err, ErrBadSquare) {
		t.Fatalf("expected ErrBadSquare for target, got %v", err)
	}
}

func TestApply_Promotion(t *testing.T) {
	p, err := FromFEN("7k/P7/8/8/8/8/8/K7 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if err := p.Apply("a7", "a8", "x"); !errors.Is(err, ErrBadPromotion) {
		t.Fatalf("expected ErrBadPromotion, got %v", err)
	}
	if err := p.Apply("a7", "a8", "q"); err != nil {
		t.Fatalf("promotion: %v", err)
	}
	sq, _ := ParseSquare("a8")
	if pc := p.PieceAt(sq); pc.Type() != nchess.Queen || pc.Color() != nchess.White {
		t.Fatalf("expected white queen on a8, got %v", pc)
	}
	if !p.InCheck() {
		t.Fatalf("expected black king on h8 to be in check along rank 8")
	}
	if p.InCheckmate() {
		t.Fatalf("king can step to g7/h7, not mate")
	}
}

func TestCheckmate_FoolsMate(t *testing.T) {
	p := NewPosition()
	playAll(t, p, "f2f3", "e7e5", "g2g4", "d8h4")
	if !p.InCheck() || !p.InCheckmate() {
		t.Fatalf("expected white checkmated: check=%v mate=%v", p.InCheck(), p.InCheckmate())
	}
	if p.Outcome() != "0-1" {
		t.Fatalf("outcome = %s", p.Outcome())
	}
	if err := p.Apply("a2", "a3", "q"); !errors.Is(err, ErrIllegalMove) {
		t.Fatalf("expected moves after mate to be illegal, got %v", err)
	}
}

func TestCheckDetectedAfterSnapshotLoad(t *testing.T) {
	p := NewPosition()
	playAll(t, p, "e2e4", "f7f6", "d2d4", "g7g5", "d1h5")
	mirror, err := FromFEN(p.FEN())
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if !mirror.InCheckmate() {
		t.Fatalf("expected black mated in loaded mirror")
	}
}

func TestFromFEN_Rejects(t *testing.T) {
	if _, err := FromFEN(""); !errors.Is(err, ErrBadFEN) {
		t.Fatalf("expected ErrBadFEN, got %v", err)
	}
	if _, err := FromFEN("not a fen"); !errors.Is(err, ErrBadFEN) {
		t.Fatalf("expected ErrBadFEN, got %v", err)
	}
}

func TestInCheck_UnderpromotionWithoutCheck(t *testing.T) {
	p, err := FromFEN("b6k/2npP3/5r1r/1pp1bpRp/5B1P/p1N5/R6K/8 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if err := p.Apply("e7", "e8", "b"); err != nil {
		t.Fatalf("Apply e7e8b: %v", err)
	}
	if !strings.HasPrefix(p.FEN(), "b3B2k/2np4/5r1r/1pp1bpRp/5B1P/p1N5/R6K/8 b") {
		t.Fatalf("unexpected fen: %s", p.FEN())
	}
	if p.InCheck() {
		t.Fatalf("bishop on e8 does not attack h8")
	}

	loaded, err := FromFEN("b3B2k/2np4/5r1r/1pp1bpRp/5B1P/p1N5/R6K/8 b - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if loaded.InCheck() || loaded.InCheckmate() {
		t.Fatalf("loaded position is not check")
	}
}

func TestLastPromotion(t *testing.T) {
	p := NewPosition()
	if got := p.LastPromotion(); got != "" {
		t.Fatalf("empty game: %q", got)
	}
	playAll(t, p, "e2e4")
	if got := p.LastPromotion(); got != "" {
		t.Fatalf("ordinary move sent with q: %q", got)
	}

	p, err := FromFEN("4k3/P6p/8/8/8/8/7P/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("FromFEN: %v", err)
	}
	if err := p.Apply("a7", "a8", "r"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := p.LastPromotion(); got != "r" {
		t.Fatalf("promotion = %q", got)
	}
}

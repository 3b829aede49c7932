package boardview

import (
	"strings"
	"testing"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/pkg/boardproto"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func seated(t *testing.T, role boardproto.Role) *View {
	t.Helper()
	v := New(msgcat.Default())
	env := boardproto.RoleAssigned(role)
	if role == boardproto.RoleSpectator {
		env = boardproto.SpectatorAssigned()
	}
	if err := v.Apply(env); err != nil {
		t.Fatalf("Apply role: %v", err)
	}
	if err := v.Apply(boardproto.PositionSnapshot(startFEN)); err != nil {
		t.Fatalf("Apply position: %v", err)
	}
	return v
}

func play(t *testing.T, v *View, moves ...string) {
	t.Helper()
	for _, uci := range moves {
		if err := v.Apply(boardproto.MoveBroadcast(boardproto.Move{From: uci[:2], To: uci[2:4], Promotion: "q"})); err != nil {
			t.Fatalf("Apply %s: %v", uci, err)
		}
	}
}

func TestGrid_FirstSeesWhiteAtBottom(t *testing.T) {
	v := seated(t, boardproto.RoleFirst)
	grid := v.Grid()
	cell := grid[7][0]
	if cell.Square != nchess.A1 || cell.Piece != nchess.WhiteRook || !cell.Draggable || !cell.Dark {
		t.Fatalf("bottom-left = %+v", cell)
	}
	if grid[0][0].Square != nchess.A8 || grid[0][0].Draggable {
		t.Fatalf("top-left = %+v", grid[0][0])
	}
	if grid[4][4].Piece != nchess.NoPiece || grid[4][4].Draggable {
		t.Fatalf("empty square should not be draggable: %+v", grid[4][4])
	}
}

func TestGrid_SecondIsFlipped(t *testing.T) {
	v := seated(t, boardproto.RoleSecond)
	if !v.Flipped() {
		t.Fatalf("second should be flipped")
	}
	grid := v.Grid()
	if grid[7][0].Square != nchess.H8 || grid[7][0].Piece != nchess.BlackRook || !grid[7][0].Draggable {
		t.Fatalf("bottom-left = %+v", grid[7][0])
	}
	if grid[0][0].Square != nchess.H1 || grid[0][0].Draggable {
		t.Fatalf("top-left = %+v", grid[0][0])
	}
}

func TestGrid_SpectatorCannotDrag(t *testing.T) {
	v := seated(t, boardproto.RoleSpectator)
	for _, row := range v.Grid() {
		for _, cell := range row {
			if cell.Draggable {
				t.Fatalf("spectator has draggable %v", cell.Square)
			}
		}
	}
	if _, ok := v.Drop(6, 4, 4, 4); ok {
		t.Fatalf("spectator drop should be ignored")
	}
}

func TestDrop_ProducesCoordinates(t *testing.T) {
	first := seated(t, boardproto.RoleFirst)
	mv, ok := first.Drop(6, 4, 4, 4)
	if !ok || mv != (boardproto.Move{From: "e2", To: "e4", Promotion: "q"}) {
		t.Fatalf("first drop = %+v ok=%v", mv, ok)
	}
	if _, ok := first.Drop(1, 4, 3, 4); ok {
		t.Fatalf("first cannot drag black pawn")
	}
	if _, ok := first.Drop(6, 4, 6, 4); ok {
		t.Fatalf("drop on the source square should be ignored")
	}
	if _, ok := first.Drop(6, 4, 8, 4); ok {
		t.Fatalf("drop off the board should be ignored")
	}

	// e7 sits at row 6, col 3 when flipped
	second := seated(t, boardproto.RoleSecond)
	mv, ok = second.Drop(6, 3, 4, 3)
	if !ok || mv.From != "e7" || mv.To != "e5" {
		t.Fatalf("second drop = %+v ok=%v", mv, ok)
	}
}

func TestDrop_NotTurnGated(t *testing.T) {
	// off-turn proposals still go out; the server decides
	v := seated(t, boardproto.RoleSecond)
	if _, ok := v.Drop(6, 3, 4, 3); !ok {
		t.Fatalf("expected proposal while white is to move")
	}
}

func TestCheckmateFreezesUntilSnapshot(t *testing.T) {
	v := seated(t, boardproto.RoleFirst)
	play(t, v, "f2f3", "e7e5", "g2g4", "d8h4")

	if !v.Frozen() {
		t.Fatalf("expected frozen board after mate")
	}
	st := v.Status()
	if st.GameOver != "Game Over: Black wins" || st.Check != "Check to White" {
		t.Fatalf("status = %+v", st)
	}
	if st.Line() != st.GameOver {
		t.Fatalf("line = %q", st.Line())
	}
	if _, ok := v.Drop(6, 4, 4, 4); ok {
		t.Fatalf("drop after mate should be ignored")
	}

	if err := v.Apply(boardproto.PositionSnapshot(startFEN)); err != nil {
		t.Fatalf("Apply snapshot: %v", err)
	}
	if v.Frozen() {
		t.Fatalf("snapshot should unfreeze")
	}
	if _, ok := v.Drop(6, 4, 4, 4); !ok {
		t.Fatalf("drop after snapshot should work")
	}
}

func TestStatus_TurnAndRole(t *testing.T) {
	v := New(nil)
	if st := v.Status(); st.Role != "Connecting..." || st.Turn != "White's Turn" || st.Check != "" {
		t.Fatalf("initial status = %+v", st)
	}
	v = seated(t, boardproto.RoleSecond)
	play(t, v, "e2e4")
	st := v.Status()
	if st.Turn != "Black's Turn" || st.Role != "You play Black" || st.Line() != "Black's Turn" {
		t.Fatalf("status = %+v", st)
	}
}

func TestNotices(t *testing.T) {
	v := seated(t, boardproto.RoleFirst)
	if err := v.Apply(boardproto.MoveRejected(boardproto.Move{From: "e2", To: "e5"})); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := v.Status().Notice; got != "Move e2-e5 was rejected" {
		t.Fatalf("notice = %q", got)
	}
	play(t, v, "e2e4")
	if got := v.Status().Notice; got != "" {
		t.Fatalf("notice should clear on move, got %q", got)
	}
	if err := v.Apply(boardproto.NotYourTurn(boardproto.Move{From: "d2", To: "d4"})); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got := v.Status().Notice; got != "Not your turn" {
		t.Fatalf("notice = %q", got)
	}
}

func TestApply_Errors(t *testing.T) {
	v := New(nil)
	if err := v.Apply(boardproto.Envelope{Type: "bogus"}); err == nil {
		t.Fatalf("expected error for unknown type")
	}
	if err := v.Apply(boardproto.PositionSnapshot("not a fen")); err == nil {
		t.Fatalf("expected error for bad fen")
	}
	if err := v.Apply(boardproto.Envelope{Type: boardproto.KindMove}); err == nil {
		t.Fatalf("expected error for empty move")
	}
	err := v.Apply(boardproto.MoveBroadcast(boardproto.Move{From: "e2", To: "e5"}))
	if err == nil || !strings.Contains(err.Error(), "e2e5") {
		t.Fatalf("expected drift error, got %v", err)
	}
}

func TestStatus_StalemateIsNotCheck(t *testing.T) {
	v := New(nil)
	// stalemate: black to move, no legal moves, not in check
	if err := v.Apply(boardproto.PositionSnapshot("7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if st := v.Status(); st.Check != "" {
		t.Fatalf("stalemate is not check: %+v", st)
	}
	if v.Frozen() {
		t.Fatalf("stalemate is not checkmate")
	}
}

// Package boardview is the client-side board model: it mirrors the
// server's position, lays out the grid from the local player's side and
// turns drag-and-drop gestures into move proposals. It holds no authority;
// every proposal is decided by the server.
package boardview

import (
	"fmt"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/rules"
	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/pkg/boardproto"
)

// Cell is one square as the viewer sees it.
type Cell struct {
	Square    nchess.Square
	Piece     nchess.Piece
	Dark      bool
	Draggable bool
}

// View is not safe for concurrent use.
type View struct {
	role   boardproto.Role
	pos    *rules.Position
	cat    *msgcat.Catalog
	notice string
}

func New(cat *msgcat.Catalog) *View {
	if cat == nil {
		cat = msgcat.Default()
	}
	return &View{pos: rules.NewPosition(), cat: cat}
}

// Apply folds one server frame into the view.
func (v *View) Apply(env boardproto.Envelope) error {
	switch env.Type {
	case boardproto.KindRole:
		v.role = env.Role
	case boardproto.KindSpectator:
		v.role = boardproto.RoleSpectator
	case boardproto.KindPosition:
		pos, err := rules.FromFEN(env.FEN)
		if err != nil {
			return err
		}
		v.pos = pos
		v.notice = ""
	case boardproto.KindMove:
		if env.Move == nil {
			return fmt.Errorf("move frame without move")
		}
		v.notice = ""
		// a failure means the mirror drifted; the position frame that
		// follows every move resyncs it
		return v.pos.Apply(env.Move.From, env.Move.To, env.Move.Promotion)
	case boardproto.KindRejected:
		if env.Move != nil {
			v.notice = v.cat.Text("notice.rejected", map[string]string{"From": env.Move.From, "To": env.Move.To})
		}
	case boardproto.KindNotYourTurn:
		v.notice = v.cat.Text("notice.notyourturn", nil)
	default:
		return fmt.Errorf("unknown frame type %q", env.Type)
	}
	return nil
}

func (v *View) Role() boardproto.Role { return v.role }

func (v *View) Position() *rules.Position { return v.pos }

// Flipped is true for the second player, who sees black at the bottom.
func (v *View) Flipped() bool { return v.role == boardproto.RoleSecond }

// Frozen reports a locally detected checkmate; drops are ignored until a
// position frame replaces the mirror.
func (v *View) Frozen() bool { return v.pos.InCheckmate() }

// SquareAt maps a viewer row/col (0,0 top-left) to a board square.
func (v *View) SquareAt(row, col int) (nchess.Square, bool) {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return nchess.NoSquare, false
	}
	if v.Flipped() {
		row, col = 7-row, 7-col
	}
	return nchess.NewSquare(nchess.File(col), nchess.Rank(7-row)), true
}

// Grid rebuilds the whole board in viewer order.
func (v *View) Grid() [8][8]Cell {
	var grid [8][8]Cell
	side := session.SideOf(v.role)
	board := v.pos.Board()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			sq, _ := v.SquareAt(row, col)
			piece := board.Piece(sq)
			grid[row][col] = Cell{
				Square:    sq,
				Piece:     piece,
				Dark:      (int(sq.File())+int(sq.Rank()))%2 == 0,
				Draggable: piece != nchess.NoPiece && side != nchess.NoColor && piece.Color() == side,
			}
		}
	}
	return grid
}

// Drop turns a drag from one viewer cell to another into a proposal. The
// promotion is always queen; the server ignores it for other moves.
func (v *View) Drop(srcRow, srcCol, dstRow, dstCol int) (boardproto.Move, bool) {
	if v.Frozen() {
		return boardproto.Move{}, false
	}
	src, ok := v.SquareAt(srcRow, srcCol)
	if !ok {
		return boardproto.Move{}, false
	}
	dst, ok := v.SquareAt(dstRow, dstCol)
	if !ok || src == dst {
		return boardproto.Move{}, false
	}
	if !v.Grid()[srcRow][srcCol].Draggable {
		return boardproto.Move{}, false
	}
	return boardproto.Move{From: src.String(), To: dst.String(), Promotion: "q"}, true
}

// Status is the text shown around the board.
type Status struct {
	Role     string
	Turn     string
	Check    string
	GameOver string
	Notice   string
}

// Line is the single most important status text.
func (s Status) Line() string {
	switch {
	case s.GameOver != "":
		return s.GameOver
	case s.Check != "":
		return s.Check
	default:
		return s.Turn
	}
}

func (v *View) Status() Status {
	st := Describe(v.cat, v.pos)
	key := "role.pending"
	if v.role != "" {
		key = "role." + string(v.role)
	}
	st.Role = v.cat.Text(key, nil)
	st.Notice = v.notice
	return st
}

// Describe derives turn, check and game-over texts from a position.
func Describe(cat *msgcat.Catalog, pos *rules.Position) Status {
	var st Status
	mover := sideName(pos.Turn())
	if pos.Turn() == nchess.White {
		st.Turn = cat.Text("status.turn.white", nil)
	} else {
		st.Turn = cat.Text("status.turn.black", nil)
	}
	if pos.InCheck() {
		st.Check = cat.Text("status.check", map[string]string{"Side": mover})
	}
	switch {
	case pos.InCheckmate():
		st.GameOver = cat.Text("status.gameover", map[string]string{"Winner": sideName(opposite(pos.Turn()))})
	case pos.Outcome() == "1/2-1/2":
		st.GameOver = cat.Text("status.draw", nil)
	}
	return st
}

func sideName(c nchess.Color) string {
	if c == nchess.Black {
		return "Black"
	}
	return "White"
}

func opposite(c nchess.Color) nchess.Color {
	if c == nchess.White {
		return nchess.Black
	}
	return nchess.White
}

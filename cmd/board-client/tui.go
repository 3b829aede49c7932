package main

import (
	"context"
	"strings"
	"unicode/utf8"

	nchess "github.com/corentings/chess/v2"
	"github.com/nsf/termbox-go"

	"github.com/park285/cheese-board/internal/boardclient"
	"github.com/park285/cheese-board/internal/boardview"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/pkg/boardproto"
)

// Board geometry in terminal cells.
const (
	originX = 3
	originY = 1
	cellW   = 3
	cellH   = 1
)

var glyphs = map[nchess.Piece]rune{
	nchess.WhiteKing: '♔', nchess.WhiteQueen: '♕', nchess.WhiteRook: '♖',
	nchess.WhiteBishop: '♗', nchess.WhiteKnight: '♘', nchess.WhitePawn: '♙',
	nchess.BlackKing: '♚', nchess.BlackQueen: '♛', nchess.BlackRook: '♜',
	nchess.BlackBishop: '♝', nchess.BlackKnight: '♞', nchess.BlackPawn: '♟',
}

type tui struct {
	view   *boardview.View
	frames chan boardproto.Envelope
	states chan boardclient.State

	state  boardclient.State
	input  string
	err    string
	drag   *[2]int
	closed bool
	done   chan struct{}
}

func newTUI(cat *msgcat.Catalog) *tui {
	return &tui{
		view:   boardview.New(cat),
		frames: make(chan boardproto.Envelope, 64),
		states: make(chan boardclient.State, 8),
		state:  boardclient.StateConnecting,
		done:   make(chan struct{}),
	}
}

// push and pushState run on the socket's listener goroutine.
func (t *tui) push(env boardproto.Envelope) {
	select {
	case t.frames <- env:
	case <-t.done:
	}
}

func (t *tui) pushState(s boardclient.State) {
	select {
	case t.states <- s:
	default:
	}
}

func (t *tui) loop(ctx context.Context, sock *boardclient.Socket) error {
	if err := termbox.Init(); err != nil {
		return err
	}
	defer termbox.Close()
	defer close(t.done)
	termbox.SetInputMode(termbox.InputEsc | termbox.InputMouse)
	termbox.SetOutputMode(termbox.Output256)

	events := make(chan termbox.Event, 16)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}
			events <- ev
		}
	}()
	defer termbox.Interrupt()

	t.draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-t.frames:
			if err := t.view.Apply(env); err != nil {
				t.err = err.Error()
			} else {
				t.err = ""
			}
		case s := <-t.states:
			t.state = s
			if s == boardclient.StateDisconnected || s == boardclient.StateFailed {
				t.closed = true
			}
		case ev := <-events:
			mv, quit := t.handle(ev)
			if quit {
				return nil
			}
			if mv != nil && !t.closed {
				if err := sock.Send(ctx, *mv); err != nil {
					t.err = err.Error()
				}
			}
		}
		t.draw()
	}
}

// handle reacts to one terminal event and may produce a proposal.
func (t *tui) handle(ev termbox.Event) (*boardproto.Move, bool) {
	switch ev.Type {
	case termbox.EventError:
		if ev.Err != nil {
			t.err = ev.Err.Error()
		}
	case termbox.EventMouse:
		row, col, ok := cellAt(ev.MouseX, ev.MouseY)
		switch ev.Key {
		case termbox.MouseLeft:
			if ok && t.drag == nil {
				t.drag = &[2]int{row, col}
			}
		case termbox.MouseRelease:
			start := t.drag
			t.drag = nil
			if start == nil || !ok {
				return nil, false
			}
			if mv, ok := t.view.Drop(start[0], start[1], row, col); ok {
				return &mv, false
			}
		}
	case termbox.EventKey:
		switch ev.Key {
		case termbox.KeyEsc, termbox.KeyCtrlC:
			return nil, true
		case termbox.KeyEnter:
			text := t.input
			t.input = ""
			if t.view.Frozen() {
				return nil, false
			}
			if mv, ok := parseTyped(text); ok {
				return &mv, false
			}
		case termbox.KeyBackspace, termbox.KeyBackspace2:
			if t.input != "" {
				_, n := utf8.DecodeLastRuneInString(t.input)
				t.input = t.input[:len(t.input)-n]
			}
		default:
			if ev.Ch == 'q' && t.input == "" {
				return nil, true
			}
			if ev.Ch != 0 && len(t.input) < 5 {
				t.input += string(ev.Ch)
			}
		}
	}
	return nil, false
}

// cellAt maps a terminal position onto viewer row/col.
func cellAt(x, y int) (row, col int, ok bool) {
	if x < originX || y < originY {
		return 0, 0, false
	}
	col = (x - originX) / cellW
	row = (y - originY) / cellH
	if row > 7 || col > 7 {
		return 0, 0, false
	}
	return row, col, true
}

// parseTyped accepts coordinate notation such as "e2e4" or "e7e8n".
func parseTyped(s string) (boardproto.Move, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return boardproto.Move{}, false
	}
	for i := 0; i < 4; i += 2 {
		if s[i] < 'a' || s[i] > 'h' || s[i+1] < '1' || s[i+1] > '8' {
			return boardproto.Move{}, false
		}
	}
	mv := boardproto.Move{From: s[:2], To: s[2:4], Promotion: "q"}
	if len(s) == 5 {
		if !strings.ContainsRune("qrbn", rune(s[4])) {
			return boardproto.Move{}, false
		}
		mv.Promotion = s[4:]
	}
	return mv, true
}

func (t *tui) draw() {
	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	grid := t.view.Grid()
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			c := grid[row][col]
			bg := termbox.Attribute(180)
			if c.Dark {
				bg = termbox.Attribute(95)
			}
			if t.drag != nil && t.drag[0] == row && t.drag[1] == col {
				bg = termbox.Attribute(143)
			}
			fg := termbox.ColorBlack
			ch := ' '
			if g, ok := glyphs[c.Piece]; ok {
				ch = g
			}
			x := originX + col*cellW
			y := originY + row*cellH
			termbox.SetCell(x, y, ' ', fg, bg)
			termbox.SetCell(x+1, y, ch, fg|termbox.AttrBold, bg)
			termbox.SetCell(x+2, y, ' ', fg, bg)
		}
		sq := grid[row][0].Square
		drawText(1, originY+row*cellH, sq.Rank().String(), termbox.ColorDefault)
	}
	for col := 0; col < 8; col++ {
		drawText(originX+col*cellW+1, originY+8*cellH, grid[7][col].Square.File().String(), termbox.ColorDefault)
	}

	st := t.view.Status()
	y := originY + 8*cellH + 2
	drawText(originX, y, st.Role+"  ["+string(t.state)+"]", termbox.ColorCyan)
	drawText(originX, y+1, st.Line(), termbox.ColorDefault|termbox.AttrBold)
	if st.Notice != "" {
		drawText(originX, y+2, st.Notice, termbox.ColorYellow)
	}
	if t.err != "" {
		drawText(originX, y+3, t.err, termbox.ColorRed)
	}
	drawText(originX, y+5, "> "+t.input, termbox.ColorDefault)
	drawText(originX, y+6, "drag a piece or type e2e4 + Enter; Esc quits", termbox.ColorDefault)
	termbox.SetCursor(originX+2+utf8.RuneCountInString(t.input), y+5)
	_ = termbox.Flush()
}

func drawText(x, y int, s string, fg termbox.Attribute) {
	for _, r := range s {
		termbox.SetCell(x, y, r, fg, termbox.ColorDefault)
		x++
	}
}

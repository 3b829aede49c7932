package session

import (
	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-board/internal/rules"
	"github.com/park285/cheese-board/pkg/boardproto"
)

// Game is the one live game: who sits where, and the authoritative
// position. It is created once and handed to the gate and the hub.
type Game struct {
	Registry *Registry
	Position *rules.Position
}

func NewGame() *Game {
	return &Game{Registry: NewRegistry(), Position: rules.NewPosition()}
}

// SideOf maps a seat to the color it plays.
func SideOf(role boardproto.Role) nchess.Color {
	switch role {
	case boardproto.RoleFirst:
		return nchess.White
	case boardproto.RoleSecond:
		return nchess.Black
	default:
		return nchess.NoColor
	}
}

// RoleFor is the inverse of SideOf.
func RoleFor(side nchess.Color) boardproto.Role {
	switch side {
	case nchess.White:
		return boardproto.RoleFirst
	case nchess.Black:
		return boardproto.RoleSecond
	default:
		return boardproto.RoleSpectator
	}
}

// View summarises the game for diagnostics endpoints.
func (g *Game) View() boardproto.PositionView {
	first, second := g.Registry.Slots()
	turn := "white"
	if g.Position.Turn() == nchess.Black {
		turn = "black"
	}
	var last string
	if from, to, ok := g.Position.LastMove(); ok {
		last = from.String() + to.String()
	}
	return boardproto.PositionView{
		FEN:       g.Position.FEN(),
		Turn:      turn,
		Check:     g.Position.InCheck(),
		Checkmate: g.Position.InCheckmate(),
		Outcome:   g.Position.Outcome(),
		First:     first != "",
		Second:    second != "",
		MoveCount: g.Position.MoveCount(),
		LastMove:  last,
	}
}

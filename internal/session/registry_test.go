package session

import (
	"testing"

	nchess "github.com/corentings/chess/v2"
	"github.com/park285/cheese-board/pkg/boardproto"
)

func TestConnect_AssignsFirstSecondThenSpectators(t *testing.T) {
	r := NewRegistry()
	if got := r.Connect("a"); got != boardproto.RoleFirst {
		t.Fatalf("a: got %s", got)
	}
	if got := r.Connect("b"); got != boardproto.RoleSecond {
		t.Fatalf("b: got %s", got)
	}
	for _, id := range []string{"c", "d", "e"} {
		if got := r.Connect(id); got != boardproto.RoleSpectator {
			t.Fatalf("%s: got %s", id, got)
		}
	}
	first, second := r.Slots()
	if first != "a" || second != "b" {
		t.Fatalf("slots mutated by spectators: %q %q", first, second)
	}
}

func TestDisconnect_FreedSlotIsRefilled(t *testing.T) {
	r := NewRegistry()
	r.Connect("a")
	r.Connect("b")
	r.Connect("c")

	r.Disconnect("a")
	if got := r.Connect("d"); got != boardproto.RoleFirst {
		t.Fatalf("d should take freed first slot, got %s", got)
	}
	if got := r.RoleOf("c"); got != boardproto.RoleSpectator {
		t.Fatalf("spectator c must not be promoted, got %s", got)
	}

	r.Disconnect("b")
	if got := r.Connect("e"); got != boardproto.RoleSecond {
		t.Fatalf("e should take freed second slot, got %s", got)
	}
}

func TestDisconnect_SpectatorAndUnknownAreNoops(t *testing.T) {
	r := NewRegistry()
	r.Connect("a")
	r.Connect("b")
	r.Disconnect("c")
	r.Disconnect("")
	r.Disconnect("zzz")
	first, second := r.Slots()
	if first != "a" || second != "b" {
		t.Fatalf("slots changed: %q %q", first, second)
	}
}

func TestConnect_SameIDKeepsSingleSlot(t *testing.T) {
	r := NewRegistry()
	r.Connect("a")
	if got := r.Connect("a"); got != boardproto.RoleFirst {
		t.Fatalf("repeat connect: got %s", got)
	}
	if _, second := r.Slots(); second != "" {
		t.Fatalf("a connection must not occupy two slots")
	}
}

func TestSideMapping(t *testing.T) {
	if SideOf(boardproto.RoleFirst) != nchess.White || SideOf(boardproto.RoleSecond) != nchess.Black {
		t.Fatalf("first plays white, second plays black")
	}
	if SideOf(boardproto.RoleSpectator) != nchess.NoColor {
		t.Fatalf("spectators have no side")
	}
	if RoleFor(nchess.Black) != boardproto.RoleSecond {
		t.Fatalf("RoleFor(black)")
	}
}

func TestGameView(t *testing.T) {
	g := NewGame()
	g.Registry.Connect("a")
	v := g.View()
	if !v.First || v.Second || v.Turn != "white" || v.Outcome != "*" || v.LastMove != "" {
		t.Fatalf("unexpected view: %+v", v)
	}
	if err := g.Position.Apply("g1", "f3", ""); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if v := g.View(); v.LastMove != "g1f3" || v.Turn != "black" || v.MoveCount != 1 {
		t.Fatalf("unexpected view after move: %+v", v)
	}
}

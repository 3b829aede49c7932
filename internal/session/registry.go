package session

import (
	"strings"

	"github.com/park285/cheese-board/pkg/boardproto"
)

// Registry maps the two player slots to connection IDs. It is not
// synchronised; the hub's event loop is its only caller.
type Registry struct {
	first  string
	second string
}

func NewRegistry() *Registry { return &Registry{} }

// Connect seats connID in the first free slot, or makes it a spectator
// without touching the slots.
func (r *Registry) Connect(connID string) boardproto.Role {
	connID = strings.TrimSpace(connID)
	if connID == "" {
		return boardproto.RoleSpectator
	}
	if role := r.RoleOf(connID); role.IsPlayer() {
		return role
	}
	switch {
	case r.first == "":
		r.first = connID
		return boardproto.RoleFirst
	case r.second == "":
		r.second = connID
		return boardproto.RoleSecond
	default:
		return boardproto.RoleSpectator
	}
}

// Disconnect frees the slot held by connID, if any.
func (r *Registry) Disconnect(connID string) {
	connID = strings.TrimSpace(connID)
	if connID == "" {
		return
	}
	if connID == r.first {
		r.first = ""
	} else if connID == r.second {
		r.second = ""
	}
}

// RoleOf returns the slot role of connID, or spectator.
func (r *Registry) RoleOf(connID string) boardproto.Role {
	switch {
	case connID == "":
		return boardproto.RoleSpectator
	case connID == r.first:
		return boardproto.RoleFirst
	case connID == r.second:
		return boardproto.RoleSecond
	default:
		return boardproto.RoleSpectator
	}
}

// Slots returns the current occupants; empty means free.
func (r *Registry) Slots() (first, second string) { return r.first, r.second }

package boardproto

// Kind names a websocket message. The same "move" kind travels in both
// directions: client proposals and server broadcasts.
type Kind string

const (
	KindRole        Kind = "role"
	KindSpectator   Kind = "spectator"
	KindMove        Kind = "move"
	KindPosition    Kind = "position"
	KindRejected    Kind = "rejected"
	KindNotYourTurn Kind = "not_your_turn"
)

// Role is the seat a connection holds in the single game.
type Role string

const (
	RoleFirst     Role = "first"
	RoleSecond    Role = "second"
	RoleSpectator Role = "spectator"
)

// IsPlayer reports whether the role owns a slot.
func (r Role) IsPlayer() bool { return r == RoleFirst || r == RoleSecond }

// Move is a move proposal in algebraic coordinates, e.g. {e2, e4, q}.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

// UCI joins the squares without the promotion suffix.
func (m Move) UCI() string { return m.From + m.To }

// Envelope is the single frame shape on the wire.
type Envelope struct {
	Type Kind   `json:"type"`
	Role Role   `json:"role,omitempty"`
	Move *Move  `json:"move,omitempty"`
	FEN  string `json:"fen,omitempty"`
}

func RoleAssigned(r Role) Envelope { return Envelope{Type: KindRole, Role: r} }

func SpectatorAssigned() Envelope { return Envelope{Type: KindSpectator, Role: RoleSpectator} }

func MoveBroadcast(m Move) Envelope { return Envelope{Type: KindMove, Move: &m} }

func PositionSnapshot(fen string) Envelope { return Envelope{Type: KindPosition, FEN: fen} }

func MoveRejected(m Move) Envelope { return Envelope{Type: KindRejected, Move: &m} }

func NotYourTurn(m Move) Envelope { return Envelope{Type: KindNotYourTurn, Move: &m} }

package boardproto

// PositionView is the JSON body of GET /position.
type PositionView struct {
	FEN       string `json:"fen"`
	Turn      string `json:"turn"`
	Check     bool   `json:"check"`
	Checkmate bool   `json:"checkmate"`
	Outcome   string `json:"outcome"`
	First     bool   `json:"first_taken"`
	Second    bool   `json:"second_taken"`
	MoveCount int    `json:"move_count"`
	LastMove  string `json:"last_move,omitempty"`

	// Connections is filled by the hub; zero elsewhere.
	Connections int `json:"connections"`
}

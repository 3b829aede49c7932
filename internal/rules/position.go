package rules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrBadSquare    = errors.New("malformed square")
	ErrBadPromotion = errors.New("malformed promotion")
	ErrBadFEN       = errors.New("malformed fen")
	ErrIllegalMove  = errors.New("illegal move")
)

// Position wraps a rules-engine game. The server owns one as the
// authoritative position; clients keep one as a mirror.
type Position struct {
	game *nchess.Game
}

// NewPosition returns the standard starting position, white to move.
func NewPosition() *Position {
	return &Position{game: nchess.NewGame()}
}

// FromFEN loads a full position snapshot.
func FromFEN(fen string) (*Position, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" {
		return nil, ErrBadFEN
	}
	opt, err := nchess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadFEN, err)
	}
	return &Position{game: nchess.NewGame(opt)}, nil
}

func (p *Position) Turn() nchess.Color { return p.game.Position().Turn() }

func (p *Position) FEN() string { return p.game.FEN() }

// MoveCount counts moves applied since the position was created or loaded.
func (p *Position) MoveCount() int { return len(p.game.Moves()) }

// LastMove returns the squares of the most recent move, if any.
func (p *Position) LastMove() (from, to nchess.Square, ok bool) {
	moves := p.game.Moves()
	if len(moves) == 0 {
		return nchess.NoSquare, nchess.NoSquare, false
	}
	mv := moves[len(moves)-1]
	return mv.S1(), mv.S2(), true
}

// LastPromotion is the promotion letter of the most recent move, or ""
// when it was not a promotion.
func (p *Position) LastPromotion() string {
	moves := p.game.Moves()
	if len(moves) == 0 {
		return ""
	}
	switch moves[len(moves)-1].Promo() {
	case nchess.Queen:
		return "q"
	case nchess.Rook:
		return "r"
	case nchess.Bishop:
		return "b"
	case nchess.Knight:
		return "n"
	default:
		return ""
	}
}

func (p *Position) Board() *nchess.Board { return p.game.Position().Board() }

func (p *Position) PieceAt(sq nchess.Square) nchess.Piece { return p.Board().Piece(sq) }

// Outcome is "1-0", "0-1", "1/2-1/2" or "*".
func (p *Position) Outcome() string { return p.game.Outcome().String() }

// Apply validates and plays a move given in coordinates. The promotion
// letter is only consulted when a pawn reaches its last rank; an empty
// letter then means queen.
func (p *Position) Apply(from, to, promotion string) error {
	src, err := ParseSquare(from)
	if err != nil {
		return err
	}
	dst, err := ParseSquare(to)
	if err != nil {
		return err
	}
	if p.game.Outcome() != nchess.NoOutcome {
		return fmt.Errorf("%w: game is over (%s)", ErrIllegalMove, p.game.Outcome())
	}

	uci := src.String() + dst.String()
	if piece := p.PieceAt(src); piece.Type() == nchess.Pawn && (dst.Rank() == nchess.Rank8 || dst.Rank() == nchess.Rank1) {
		promo, err := parsePromotion(promotion)
		if err != nil {
			return err
		}
		uci += promo
	}

	mv, err := nchess.UCINotation{}.Decode(p.game.Position(), uci)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	if err := p.game.Move(mv, nil); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrIllegalMove, uci, err)
	}
	return nil
}

// InCheck reports whether the side to move has its king attacked.
func (p *Position) InCheck() bool {
	side := p.Turn()
	board := p.Board().SquareMap()
	for sq, piece := range board {
		if piece.Type() == nchess.King && piece.Color() == side {
			return attacked(board, sq, opponent(side))
		}
	}
	return false
}

// InCheckmate reports check with no legal reply.
func (p *Position) InCheckmate() bool {
	return p.InCheck() && len(p.game.ValidMoves()) == 0
}

// ParseSquare accepts "a1".."h8", case-insensitive.
func ParseSquare(s string) (nchess.Square, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return nchess.NoSquare, fmt.Errorf("%w: %q", ErrBadSquare, s)
	}
	return nchess.NewSquare(nchess.File(s[0]-'a'), nchess.Rank(s[1]-'1')), nil
}

func parsePromotion(s string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "":
		return "q", nil
	case "q", "r", "b", "n":
		return v, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadPromotion, s)
	}
}

func opponent(c nchess.Color) nchess.Color {
	if c == nchess.White {
		return nchess.Black
	}
	return nchess.White
}

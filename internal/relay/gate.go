package relay

import (
	"context"
	"errors"
	"fmt"

	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/pkg/boardproto"
	"go.uber.org/zap"
)

var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrRejected    = errors.New("move rejected")
)

// Result classifies what happened to a proposal.
type Result string

const (
	Accepted Result = "accepted"
	Rejected Result = "rejected"
	Dropped  Result = "dropped"
)

// Outbox delivers frames to connections. Broadcast reaches every connection,
// the sender included; Send reaches one.
type Outbox interface {
	Broadcast(env boardproto.Envelope)
	Send(connID string, env boardproto.Envelope)
}

// Publisher mirrors accepted moves to an external feed.
type Publisher interface {
	PublishMove(ctx context.Context, mv boardproto.Move, fen string) error
}

// Recorder counts results.
type Recorder interface {
	MoveResult(r Result)
}

// Gate enforces turn ownership and forwards legal moves to the rules engine.
type Gate struct {
	game       *session.Game
	out        Outbox
	feed       Publisher
	rec        Recorder
	turnNotice bool
	logger     *zap.Logger
}

type Option func(*Gate)

// WithTurnNotice makes off-turn proposals answer the sender with
// not_your_turn instead of being dropped silently.
func WithTurnNotice(on bool) Option { return func(g *Gate) { g.turnNotice = on } }

func WithPublisher(p Publisher) Option { return func(g *Gate) { g.feed = p } }

func WithRecorder(r Recorder) Option { return func(g *Gate) { g.rec = r } }

func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

func NewGate(game *session.Game, out Outbox, opts ...Option) *Gate {
	g := &Gate{game: game, out: out, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Submit runs one proposal through the gate. Only Accepted mutates the
// position. A panic while the rules engine judges the proposal becomes a
// rejection; once the move is played the result stays Accepted.
func (g *Gate) Submit(ctx context.Context, connID string, mv boardproto.Move) (Result, error) {
	role, res, err := g.judge(connID, mv)
	g.record(res)
	switch res {
	case Dropped:
		g.logger.Debug("relay_drop",
			zap.String("conn_id", connID),
			zap.String("role", string(role)),
			zap.String("from", mv.From),
			zap.String("to", mv.To),
		)
		if g.turnNotice {
			g.out.Send(connID, boardproto.NotYourTurn(mv))
		}
		return Dropped, err
	case Rejected:
		g.logger.Info("relay_reject",
			zap.String("conn_id", connID),
			zap.String("from", mv.From),
			zap.String("to", mv.To),
			zap.Error(err),
		)
		g.out.Send(connID, boardproto.MoveRejected(mv))
		return Rejected, err
	}

	fen := g.game.Position.FEN()
	g.out.Broadcast(boardproto.MoveBroadcast(mv))
	g.out.Broadcast(boardproto.PositionSnapshot(fen))
	g.logger.Info("relay_accept",
		zap.String("conn_id", connID),
		zap.String("role", string(role)),
		zap.String("move", mv.UCI()),
		zap.String("fen", fen),
	)
	g.publish(ctx, g.played(mv), fen)
	return Accepted, nil
}

// judge checks turn ownership and plays the move on the authoritative
// position.
func (g *Gate) judge(connID string, mv boardproto.Move) (role boardproto.Role, res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("relay_panic", zap.String("conn_id", connID), zap.Any("panic", r))
			res, err = Rejected, fmt.Errorf("%w: panic: %v", ErrRejected, r)
		}
	}()

	role = g.game.Registry.RoleOf(connID)
	if !role.IsPlayer() || session.SideOf(role) != g.game.Position.Turn() {
		return role, Dropped, ErrNotYourTurn
	}
	if err := g.game.Position.Apply(mv.From, mv.To, mv.Promotion); err != nil {
		return role, Rejected, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return role, Accepted, nil
}

// played is the proposal as the engine played it: the promotion letter is
// kept only when a pawn was promoted.
func (g *Gate) played(mv boardproto.Move) boardproto.Move {
	mv.Promotion = g.game.Position.LastPromotion()
	return mv
}

func (g *Gate) publish(ctx context.Context, mv boardproto.Move, fen string) {
	if g.feed == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("relay_feed_panic", zap.String("move", mv.UCI()), zap.Any("panic", r))
		}
	}()
	if err := g.feed.PublishMove(ctx, mv, fen); err != nil {
		g.logger.Warn("relay_feed_error", zap.String("move", mv.UCI()), zap.Error(err))
	}
}

func (g *Gate) record(r Result) {
	if g.rec != nil && r != "" {
		g.rec.MoveResult(r)
	}
}

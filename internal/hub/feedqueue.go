package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/relay"
	"github.com/park285/cheese-board/pkg/boardproto"
)

var ErrFeedBacklog = errors.New("feed backlog full")

const feedBacklog = 64

type feedItem struct {
	move boardproto.Move
	fen  string
}

// feedQueue publishes accepted moves on its own goroutine, in order.
// The event loop only enqueues.
type feedQueue struct {
	pub    relay.Publisher
	items  chan feedItem
	logger *zap.Logger
}

func newFeedQueue(pub relay.Publisher, size int, logger *zap.Logger) *feedQueue {
	return &feedQueue{pub: pub, items: make(chan feedItem, size), logger: logger}
}

// PublishMove implements relay.Publisher. It never blocks; a full backlog
// loses the move from the feed only.
func (q *feedQueue) PublishMove(_ context.Context, mv boardproto.Move, fen string) error {
	select {
	case q.items <- feedItem{move: mv, fen: fen}:
		return nil
	default:
		return ErrFeedBacklog
	}
}

func (q *feedQueue) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-q.items:
			q.publish(ctx, it)
		}
	}
}

func (q *feedQueue) publish(ctx context.Context, it feedItem) {
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("hub_feed_panic", zap.String("move", it.move.UCI()), zap.Any("panic", r))
		}
	}()
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := q.pub.PublishMove(pctx, it.move, it.fen); err != nil {
		q.logger.Warn("hub_feed_error", zap.String("move", it.move.UCI()), zap.Error(err))
	}
}

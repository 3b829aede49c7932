package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/cheese-board/pkg/boardproto"
)

const (
	keyPosition = "board:position"
	keyMoves    = "board:moves"
)

var ErrNoRedis = errors.New("redis client not configured")

// Event is the JSON payload published for every accepted move.
type Event struct {
	Type      string          `json:"type"`
	Move      boardproto.Move `json:"move"`
	FEN       string          `json:"fen"`
	Ply       int64           `json:"ply"`
	Timestamp time.Time       `json:"ts"`
}

// Publisher mirrors accepted moves into Redis: one PUBLISH per move, the
// latest FEN under board:position and the UCI history under board:moves.
// Both keys are volatile and cleared by Reset.
type Publisher struct {
	rdb     *redis.Client
	channel string
	now     func() time.Time
}

func New(rdb *redis.Client, channel string) *Publisher {
	channel = strings.TrimSpace(channel)
	if channel == "" {
		channel = "board:events"
	}
	return &Publisher{rdb: rdb, channel: channel, now: time.Now}
}

// Open dials redisURL and verifies it with PING.
func Open(ctx context.Context, redisURL, channel string) (*Publisher, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("redis url required for move feed")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return New(rdb, channel), nil
}

func (p *Publisher) Channel() string { return p.channel }

func (p *Publisher) Close() error {
	if p == nil || p.rdb == nil {
		return nil
	}
	return p.rdb.Close()
}

// Reset drops the stored position and history of a previous run.
func (p *Publisher) Reset(ctx context.Context) error {
	if p == nil || p.rdb == nil {
		return ErrNoRedis
	}
	return p.rdb.Del(ctx, keyPosition, keyMoves).Err()
}

// PublishMove implements relay.Publisher.
func (p *Publisher) PublishMove(ctx context.Context, mv boardproto.Move, fen string) error {
	if p == nil || p.rdb == nil {
		return ErrNoRedis
	}
	ply, err := p.rdb.RPush(ctx, keyMoves, mv.UCI()+mv.Promotion).Result()
	if err != nil {
		return fmt.Errorf("record move: %w", err)
	}
	raw, err := json.Marshal(Event{Type: "move", Move: mv, FEN: fen, Ply: ply, Timestamp: p.now().UTC()})
	if err != nil {
		return err
	}
	pipe := p.rdb.TxPipeline()
	pipe.Set(ctx, keyPosition, fen, 0)
	pipe.Publish(ctx, p.channel, raw)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish move: %w", err)
	}
	return nil
}

// parseRedisURL accepts redis:// and rediss:// URLs; rediss enables TLS.
func parseRedisURL(raw string) (*redis.Options, error) {
	opts, err := redis.ParseURL(strings.TrimSpace(raw))
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	return opts, nil
}

package hub

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-board/internal/relay"
	"github.com/park285/cheese-board/internal/session"
	"github.com/park285/cheese-board/pkg/boardproto"
)

var ErrStopped = errors.New("hub stopped")

const (
	writeTimeout   = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// Stats receives connection lifecycle events. *metrics.Board satisfies it.
type Stats interface {
	relay.Recorder
	Connected(role boardproto.Role)
	Disconnected()
}

type Options struct {
	SendQueue      int
	TurnNotice     bool
	Publisher      relay.Publisher
	Stats          Stats
	Logger         *zap.Logger
	OriginPatterns []string
}

type eventKind int

const (
	evConnect eventKind = iota
	evDisconnect
	evMove
	evSnapshot
)

type event struct {
	kind   eventKind
	client *client
	move   boardproto.Move
	reply  chan boardproto.PositionView
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan boardproto.Envelope
	role boardproto.Role
}

// Hub owns the single game. Every state change happens on the Run
// goroutine; connection goroutines only post events to it.
type Hub struct {
	game    *session.Game
	gate    *relay.Gate
	feed    *feedQueue
	clients map[string]*client

	events chan event
	done   chan struct{}

	opts   Options
	logger *zap.Logger
}

func New(game *session.Game, opts Options) *Hub {
	if opts.SendQueue <= 0 {
		opts.SendQueue = 32
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Hub{
		game:    game,
		clients: make(map[string]*client),
		events:  make(chan event),
		done:    make(chan struct{}),
		opts:    opts,
		logger:  logger,
	}
	gateOpts := []relay.Option{
		relay.WithTurnNotice(opts.TurnNotice),
		relay.WithLogger(logger),
	}
	if opts.Publisher != nil {
		h.feed = newFeedQueue(opts.Publisher, feedBacklog, logger)
		gateOpts = append(gateOpts, relay.WithPublisher(h.feed))
	}
	if opts.Stats != nil {
		gateOpts = append(gateOpts, relay.WithRecorder(opts.Stats))
	}
	h.gate = relay.NewGate(game, h, gateOpts...)
	return h
}

// Run processes events until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	if h.feed != nil {
		go h.feed.run(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			for _, c := range h.clients {
				h.remove(c, "shutdown")
			}
			return
		case ev := <-h.events:
			h.handle(ctx, ev)
		}
	}
}

func (h *Hub) handle(ctx context.Context, ev event) {
	switch ev.kind {
	case evConnect:
		c := ev.client
		c.role = h.game.Registry.Connect(c.id)
		h.clients[c.id] = c
		if h.opts.Stats != nil {
			h.opts.Stats.Connected(c.role)
		}
		h.logger.Info("hub_connect", zap.String("conn_id", c.id), zap.String("role", string(c.role)))
		if c.role.IsPlayer() {
			h.Send(c.id, boardproto.RoleAssigned(c.role))
		} else {
			h.Send(c.id, boardproto.SpectatorAssigned())
		}
		h.Send(c.id, boardproto.PositionSnapshot(h.game.Position.FEN()))
	case evDisconnect:
		if c, ok := h.clients[ev.client.id]; ok && c == ev.client {
			h.remove(c, "closed")
		}
	case evMove:
		if _, ok := h.clients[ev.client.id]; !ok {
			return
		}
		_, _ = h.gate.Submit(ctx, ev.client.id, ev.move)
	case evSnapshot:
		view := h.game.View()
		view.Connections = len(h.clients)
		ev.reply <- view
	}
}

// remove forgets c and frees its slot. Must run on the loop.
func (h *Hub) remove(c *client, reason string) {
	delete(h.clients, c.id)
	h.game.Registry.Disconnect(c.id)
	close(c.send)
	if h.opts.Stats != nil {
		h.opts.Stats.Disconnected()
	}
	h.logger.Info("hub_disconnect",
		zap.String("conn_id", c.id),
		zap.String("role", string(c.role)),
		zap.String("reason", reason),
	)
}

// Broadcast implements relay.Outbox. Must run on the loop.
func (h *Hub) Broadcast(env boardproto.Envelope) {
	for _, c := range h.clients {
		h.enqueue(c, env)
	}
}

// Send implements relay.Outbox. Must run on the loop.
func (h *Hub) Send(connID string, env boardproto.Envelope) {
	if c, ok := h.clients[connID]; ok {
		h.enqueue(c, env)
	}
}

func (h *Hub) enqueue(c *client, env boardproto.Envelope) {
	select {
	case c.send <- env:
	default:
		h.logger.Warn("hub_slow_client", zap.String("conn_id", c.id), zap.Int("queue", cap(c.send)))
		h.remove(c, "send queue full")
		if c.conn != nil {
			go c.conn.Close(websocket.StatusPolicyViolation, "send queue full")
		}
	}
}

func (h *Hub) post(ctx context.Context, ev event) error {
	select {
	case h.events <- ev:
		return nil
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot reads the game state through the loop.
func (h *Hub) Snapshot(ctx context.Context) (boardproto.PositionView, error) {
	reply := make(chan boardproto.PositionView, 1)
	if err := h.post(ctx, event{kind: evSnapshot, reply: reply}); err != nil {
		return boardproto.PositionView{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-h.done:
		return boardproto.PositionView{}, ErrStopped
	case <-ctx.Done():
		return boardproto.PositionView{}, ctx.Err()
	}
}

// ServeHTTP upgrades the request and serves the connection until it
// closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.opts.OriginPatterns,
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		h.logger.Warn("hub_accept_error", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan boardproto.Envelope, h.opts.SendQueue),
	}
	ctx := r.Context()

	go h.writeLoop(c)
	if err := h.post(ctx, event{kind: evConnect, client: c}); err != nil {
		close(c.send)
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	h.readLoop(ctx, c)
	_ = h.post(context.Background(), event{kind: evDisconnect, client: c})
}

func (h *Hub) readLoop(ctx context.Context, c *client) {
	for {
		typ, data, err := c.conn.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				h.logger.Debug("hub_read_error", zap.String("conn_id", c.id), zap.Error(err))
			}
			return
		}
		if typ != websocket.MessageText {
			h.logger.Warn("hub_bad_frame", zap.String("conn_id", c.id), zap.String("reason", "binary"))
			continue
		}
		var env boardproto.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.logger.Warn("hub_bad_frame", zap.String("conn_id", c.id), zap.Error(err))
			continue
		}
		if env.Type != boardproto.KindMove || env.Move == nil {
			h.logger.Warn("hub_bad_frame", zap.String("conn_id", c.id), zap.String("type", string(env.Type)))
			continue
		}
		if err := h.post(ctx, event{kind: evMove, client: c, move: *env.Move}); err != nil {
			return
		}
	}
}

func (h *Hub) writeLoop(c *client) {
	for env := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err := wsjson.Write(ctx, c.conn, env)
		cancel()
		if err != nil {
			h.logger.Debug("hub_write_error", zap.String("conn_id", c.id), zap.Error(err))
			c.conn.Close(websocket.StatusInternalError, "write failed")
			for range c.send {
			}
			return
		}
	}
	c.conn.Close(websocket.StatusNormalClosure, "")
}

package boardclient

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/park285/cheese-board/pkg/boardproto"
)

var ErrNotConnected = errors.New("socket not connected")

type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateFailed       State = "failed"
)

type MessageCallback func(env boardproto.Envelope)

type StateCallback func(state State)

type callbackEntry struct {
	id       int
	callback MessageCallback
}

type stateCallbackEntry struct {
	id       int
	callback StateCallback
}

// Socket is a board server connection. A dropped connection is final:
// the server hands out a new role to whoever connects next, so there is
// nothing to resume.
type Socket struct {
	wsURL string

	conn   *websocket.Conn
	state  State
	stateM sync.RWMutex

	msgCbs   []callbackEntry
	stateCbs []stateCallbackEntry
	cbM      sync.RWMutex

	pingInterval time.Duration

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	rootCtx    context.Context
	rootCancel context.CancelFunc
}

func NewSocket(wsURL string) *Socket {
	return &Socket{
		wsURL:        wsURL,
		state:        StateDisconnected,
		pingInterval: 30 * time.Second,
		stopCh:       make(chan struct{}),
	}
}

// WSURL derives the websocket endpoint from a server base URL.
func WSURL(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", errors.New("unsupported scheme: " + u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

func (s *Socket) Connect(ctx context.Context) error {
	s.stateM.Lock()
	if s.state == StateConnected || s.state == StateConnecting {
		s.stateM.Unlock()
		return nil
	}
	s.stateM.Unlock()

	s.rootCtx, s.rootCancel = context.WithCancel(context.Background())
	s.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(dialCtx, s.wsURL, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
	})
	if err != nil {
		s.setState(StateFailed)
		return err
	}

	s.stateM.Lock()
	s.conn = conn
	s.stateM.Unlock()
	s.setState(StateConnected)

	s.wg.Add(2)
	go s.listen(conn)
	go s.pingLoop(conn)
	return nil
}

func (s *Socket) listen(conn *websocket.Conn) {
	defer s.wg.Done()
	for {
		var env boardproto.Envelope
		if err := wsjson.Read(s.rootCtx, conn, &env); err != nil {
			if !s.isStopping() {
				s.setState(StateDisconnected)
				_ = conn.Close(websocket.StatusGoingAway, "read failed")
			}
			return
		}

		s.cbM.RLock()
		callbacks := make([]callbackEntry, len(s.msgCbs))
		copy(callbacks, s.msgCbs)
		s.cbM.RUnlock()
		for _, entry := range callbacks {
			if entry.callback != nil {
				entry.callback(env)
			}
		}
	}
}

func (s *Socket) pingLoop(conn *websocket.Conn) {
	defer s.wg.Done()
	t := time.NewTicker(s.pingInterval)
	defer t.Stop()
	failures := 0
	for {
		select {
		case <-s.stopCh:
			return
		case <-s.rootCtx.Done():
			return
		case <-t.C:
			ctx, cancel := context.WithTimeout(s.rootCtx, 3*time.Second)
			err := conn.Ping(ctx)
			cancel()
			if err == nil {
				failures = 0
				continue
			}
			failures++
			if failures >= 2 {
				if !s.isStopping() {
					s.setState(StateDisconnected)
					_ = conn.Close(websocket.StatusGoingAway, "ping failure")
				}
				return
			}
		}
	}
}

// Send proposes a move.
func (s *Socket) Send(ctx context.Context, mv boardproto.Move) error {
	s.stateM.RLock()
	conn, state := s.conn, s.state
	s.stateM.RUnlock()
	if conn == nil || state != StateConnected {
		return ErrNotConnected
	}
	return wsjson.Write(ctx, conn, boardproto.Envelope{Type: boardproto.KindMove, Move: &mv})
}

func (s *Socket) State() State {
	s.stateM.RLock()
	defer s.stateM.RUnlock()
	return s.state
}

func (s *Socket) OnMessage(cb MessageCallback) int {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	id := len(s.msgCbs) + 1
	s.msgCbs = append(s.msgCbs, callbackEntry{id: id, callback: cb})
	return id
}

func (s *Socket) OnStateChange(cb StateCallback) int {
	s.cbM.Lock()
	defer s.cbM.Unlock()
	id := len(s.stateCbs) + 1
	s.stateCbs = append(s.stateCbs, stateCallbackEntry{id: id, callback: cb})
	return id
}

func (s *Socket) setState(state State) {
	s.stateM.Lock()
	s.state = state
	s.stateM.Unlock()

	s.cbM.RLock()
	callbacks := make([]stateCallbackEntry, len(s.stateCbs))
	copy(callbacks, s.stateCbs)
	s.cbM.RUnlock()
	for _, entry := range callbacks {
		if entry.callback != nil {
			entry.callback(state)
		}
	}
}

func (s *Socket) Close(ctx context.Context) error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.stateM.Lock()
	conn := s.conn
	s.conn = nil
	s.stateM.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		if s.rootCancel != nil {
			s.rootCancel()
		}
		s.setState(StateDisconnected)
		return nil
	}
}

func (s *Socket) isStopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/park285/cheese-board/internal/boardclient"
	"github.com/park285/cheese-board/pkg/boardproto"
)

func main() {
	baseURL := strings.TrimSpace(os.Getenv("BOARD_URL"))
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}
	watch, err := time.ParseDuration(getenvDefault("BOARD_WATCH", "0s"))
	if err != nil {
		log.Fatalf("BOARD_WATCH: %v", err)
	}

	probe := boardclient.NewProbe(baseURL,
		boardclient.WithTimeout(5*time.Second),
		boardclient.WithRetry(2),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if body, err := probe.Health(ctx); err != nil {
		log.Fatalf("/healthz error: %v", err)
	} else {
		log.Printf("/healthz ok: %s", strings.TrimSpace(body))
	}
	if v, err := probe.Version(ctx); err != nil {
		log.Printf("/version error: %v", err)
	} else {
		log.Printf("/version ok: %s", strings.TrimSpace(v))
	}
	if pos, err := probe.Position(ctx); err != nil {
		log.Printf("/position error: %v", err)
	} else {
		log.Printf("/position ok: fen=%q turn=%s check=%v outcome=%s connections=%d",
			pos.FEN, pos.Turn, pos.Check, pos.Outcome, pos.Connections)
	}

	wsURL, err := boardclient.WSURL(baseURL)
	if err != nil {
		log.Fatalf("ws url: %v", err)
	}
	sock := boardclient.NewSocket(wsURL)
	sock.OnStateChange(func(state boardclient.State) {
		log.Printf("WS state: %s", state)
	})
	seated := make(chan struct{}, 1)
	sock.OnMessage(func(env boardproto.Envelope) {
		switch env.Type {
		case boardproto.KindRole:
			log.Printf("WS role: %s", env.Role)
		case boardproto.KindSpectator:
			log.Printf("WS role: spectator")
		case boardproto.KindPosition:
			log.Printf("WS position: %s", env.FEN)
			select {
			case seated <- struct{}{}:
			default:
			}
		case boardproto.KindMove:
			if env.Move != nil {
				log.Printf("WS move: %s%s", env.Move.From, env.Move.To)
			}
		default:
			log.Printf("WS %s", env.Type)
		}
	})

	cctx, ccancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer ccancel()
	if err := sock.Connect(cctx); err != nil {
		log.Fatalf("WS connect error: %v", err)
	}
	select {
	case <-seated:
	case <-cctx.Done():
		log.Printf("WS no position frame before timeout")
	}
	if watch > 0 {
		t := time.NewTimer(watch)
		<-t.C
	}
	_ = sock.Close(context.Background())
}

func getenvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

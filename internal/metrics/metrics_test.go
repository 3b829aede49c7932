package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/park285/cheese-board/internal/relay"
	"github.com/park285/cheese-board/pkg/boardproto"
)

func TestBoard_Counts(t *testing.T) {
	b := New()
	b.MoveResult(relay.Accepted)
	b.MoveResult(relay.Accepted)
	b.MoveResult(relay.Dropped)
	b.Connected(boardproto.RoleFirst)
	b.Connected(boardproto.RoleSpectator)
	b.Disconnected()

	if got := testutil.ToFloat64(b.moves.WithLabelValues("accepted")); got != 2 {
		t.Fatalf("accepted = %v", got)
	}
	if got := testutil.ToFloat64(b.moves.WithLabelValues("rejected")); got != 0 {
		t.Fatalf("rejected = %v", got)
	}
	if got := testutil.ToFloat64(b.connections); got != 1 {
		t.Fatalf("connections = %v", got)
	}
	if got := testutil.ToFloat64(b.roles.WithLabelValues("spectator")); got != 1 {
		t.Fatalf("spectator roles = %v", got)
	}
}

func TestBoard_NilSafe(t *testing.T) {
	var b *Board
	b.MoveResult(relay.Accepted)
	b.Connected(boardproto.RoleFirst)
	b.Disconnected()
}

func TestBoard_Handler(t *testing.T) {
	b := New()
	b.MoveResult(relay.Rejected)

	rec := httptest.NewRecorder()
	b.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `cheese_board_moves_total{result="rejected"} 1`) {
		t.Fatalf("metrics output missing counter:\n%s", body)
	}
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/park285/cheese-board/internal/relay"
	"github.com/park285/cheese-board/pkg/boardproto"
)

const namespace = "cheese_board"

// Board holds the server's collectors on a private registry.
type Board struct {
	reg         *prometheus.Registry
	moves       *prometheus.CounterVec
	connections prometheus.Gauge
	roles       *prometheus.CounterVec
}

func New() *Board {
	b := &Board{
		reg: prometheus.NewRegistry(),
		moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "moves_total",
			Help:      "Move proposals by outcome.",
		}, []string{"result"}),
		connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections",
			Help:      "Open websocket connections.",
		}),
		roles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "roles_assigned_total",
			Help:      "Roles handed out on connect.",
		}, []string{"role"}),
	}
	b.reg.MustRegister(
		b.moves, b.connections, b.roles,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	// pre-create label sets so dashboards see zeros
	for _, r := range []relay.Result{relay.Accepted, relay.Rejected, relay.Dropped} {
		b.moves.WithLabelValues(string(r))
	}
	for _, r := range []boardproto.Role{boardproto.RoleFirst, boardproto.RoleSecond, boardproto.RoleSpectator} {
		b.roles.WithLabelValues(string(r))
	}
	return b
}

// MoveResult implements relay.Recorder.
func (b *Board) MoveResult(r relay.Result) {
	if b == nil {
		return
	}
	b.moves.WithLabelValues(string(r)).Inc()
}

func (b *Board) Connected(role boardproto.Role) {
	if b == nil {
		return
	}
	b.connections.Inc()
	b.roles.WithLabelValues(string(role)).Inc()
}

func (b *Board) Disconnected() {
	if b == nil {
		return
	}
	b.connections.Dec()
}

func (b *Board) Handler() http.Handler {
	return promhttp.HandlerFor(b.reg, promhttp.HandlerOpts{Registry: b.reg})
}

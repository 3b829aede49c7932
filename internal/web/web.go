package web

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/config"
	"github.com/park285/cheese-board/internal/hub"
	"github.com/park285/cheese-board/internal/metrics"
	"github.com/park285/cheese-board/internal/msgcat"
	"github.com/park285/cheese-board/internal/render"
)

const timeout = 10 * time.Second

// Deps are the components the HTTP surface reads from.
type Deps struct {
	Hub      *hub.Hub
	Catalog  *msgcat.Catalog
	Renderer *render.Renderer
	Metrics  *metrics.Board
	Logger   *zap.Logger
	Version  string
}

type server struct {
	cfg  *config.AppConfig
	deps Deps
	log  *zap.Logger
}

func securityHeaders(cfg *config.AppConfig, w http.ResponseWriter) {
	w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
	w.Header().Set("Cross-Origin-Resource-Policy", "same-site")
	w.Header().Set("Permissions-Policy", "geolocation=(), midi=(), sync-xhr=(), microphone=(), camera=(), magnetometer=(), gyroscope=(), fullscreen=(), payment=()")
	w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' "+chessJSOrigin+"; connect-src 'self' ws: wss:; img-src 'self' data:")

	if cfg.Scheme() == "https" {
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains; preload")
	}
}

func realIP(r *http.Request) string {
	host, port, _ := net.SplitHostPort(r.RemoteAddr)
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	} else if ip := r.Header.Get("X-Real-IP"); ip != "" {
		if net.ParseIP(ip) != nil {
			host = ip
		}
	}
	if net.ParseIP(host) != nil && strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port != "" {
		return host + ":" + port
	}
	return host
}

// NewRouter wires every route under cfg.Prefix.
func NewRouter(cfg *config.AppConfig, deps Deps) *httprouter.Router {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Catalog == nil {
		deps.Catalog = msgcat.Default()
	}
	if deps.Renderer == nil {
		deps.Renderer = render.New(cfg.SquareSize)
	}
	s := &server{cfg: cfg, deps: deps, log: deps.Logger}
	prefix := strings.TrimSuffix(cfg.Prefix, "/")

	mux := httprouter.New()
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, i any) {
		s.log.Error("web_panic", zap.String("path", r.URL.Path), zap.Any("panic", i))
		securityHeaders(cfg, w)
		http.Error(w, "An error has occurred. Please try again.", http.StatusInternalServerError)
	}

	mux.GET(prefix+"/", s.serveHomePage())
	mux.GET(prefix+"/assets/*file", s.serveAssets())
	mux.GET(prefix+"/healthz", s.serveHealthCheck())
	mux.GET(prefix+"/version", s.serveVersion())
	mux.GET(prefix+"/position", s.servePosition())
	mux.GET(prefix+"/board.png", s.serveBoardImage())
	mux.GET(prefix+"/qr.png", s.serveQR())
	if deps.Hub != nil {
		mux.Handler(http.MethodGet, prefix+"/ws", deps.Hub)
	}
	if deps.Metrics != nil {
		mux.Handler(http.MethodGet, prefix+"/metrics", deps.Metrics.Handler())
	}
	if cfg.Profile {
		registerProfileHandlers(prefix, mux)
	}
	return mux
}

func registerProfileHandlers(prefix string, mux *httprouter.Router) {
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		mux.Handler(http.MethodGet, prefix+"/pprof/"+name, pprof.Handler(name))
	}
	mux.HandlerFunc(http.MethodGet, prefix+"/pprof/cmdline", pprof.Cmdline)
	mux.HandlerFunc(http.MethodGet, prefix+"/pprof/profile", pprof.Profile)
	mux.HandlerFunc(http.MethodGet, prefix+"/pprof/symbol", pprof.Symbol)
	mux.HandlerFunc(http.MethodGet, prefix+"/pprof/trace", pprof.Trace)
}

// Serve listens until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, cfg *config.AppConfig, deps Deps) error {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(cfg, deps),
		IdleTimeout:       10 * time.Minute,
		ReadHeaderTimeout: timeout,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("web_listen", zap.String("url", cfg.Scheme()+"://"+srv.Addr+cfg.Prefix+"/"))
		var err error
		if cfg.TLSKey != "" && cfg.TLSCert != "" {
			err = srv.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err, ok := <-errs:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("web_shutdown")
	return srv.Shutdown(shutdownCtx)
}

func (s *server) serveHealthCheck() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(s.cfg, w)
		_, _ = w.Write([]byte("Ok\n"))
	}
}

func (s *server) serveVersion() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		securityHeaders(s.cfg, w)
		_, _ = w.Write([]byte("cheese-board v" + s.deps.Version + "\n"))
	}
}

func (s *server) servePosition() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		start := time.Now()
		if s.deps.Hub == nil {
			http.Error(w, "no game", http.StatusServiceUnavailable)
			return
		}
		view, err := s.deps.Hub.Snapshot(r.Context())
		if err != nil {
			http.Error(w, "game unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(s.cfg, w)
		if err := json.NewEncoder(w).Encode(view); err != nil {
			s.log.Warn("web_write_error", zap.String("path", r.URL.Path), zap.Error(err))
			return
		}
		s.log.Debug("web_serve",
			zap.String("path", r.URL.Path),
			zap.String("remote", realIP(r)),
			zap.Duration("took", time.Since(start)),
		)
	}
}

package web

import (
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/park285/cheese-board/internal/boardview"
	"github.com/park285/cheese-board/internal/render"
	"github.com/park285/cheese-board/internal/rules"
)

const qrSize = 320

// serveBoardImage renders the authoritative position. ?side=black draws
// it from black's side.
func (s *server) serveBoardImage() httprouter.Handle {
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
		pos, err := rules.FromFEN(view.FEN)
		if err != nil {
			s.log.Error("web_board_fen", zap.String("fen", view.FEN), zap.Error(err))
			http.Error(w, "bad position", http.StatusInternalServerError)
			return
		}

		opts := render.Options{
			Flip:   strings.EqualFold(r.URL.Query().Get("side"), "black"),
			Header: s.deps.Catalog.Text("hud.header", nil),
			Status: boardview.Describe(s.deps.Catalog, pos).Line(),
		}
		if len(view.LastMove) == 4 {
			from, ferr := rules.ParseSquare(view.LastMove[:2])
			to, terr := rules.ParseSquare(view.LastMove[2:])
			if ferr == nil && terr == nil {
				opts.Highlight = &render.Highlight{From: from, To: to}
			}
		}

		png, err := s.deps.Renderer.RenderPNG(r.Context(), pos.Board(), opts)
		if err != nil {
			s.log.Error("web_board_render", zap.Error(err))
			http.Error(w, "render failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(s.cfg, w)
		_, _ = w.Write(png)
		s.log.Debug("web_serve", zap.String("path", r.URL.Path), zap.String("remote", realIP(r)), zap.Duration("took", time.Since(start)))
	}
}

// serveQR encodes the page URL, as seen by the requester, as a QR code.
func (s *server) serveQR() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		url := scheme + "://" + r.Host + strings.TrimSuffix(s.cfg.Prefix, "/") + "/"

		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		securityHeaders(s.cfg, w)
		_, _ = w.Write(png)
	}
}

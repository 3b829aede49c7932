package web

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

const (
	chessJSOrigin = "https://cdnjs.cloudflare.com"
	chessJSURL    = chessJSOrigin + "/ajax/libs/chess.js/0.10.3/chess.min.js"
)

//go:embed static/* templates/index.html
var assets embed.FS

var pageTemplate = template.Must(template.ParseFS(assets, "templates/index.html"))

// clientMessages are the catalog keys the browser renders itself.
var clientMessages = []string{
	"status.turn.white", "status.turn.black", "status.check", "status.gameover", "status.draw",
	"role.first", "role.second", "role.spectator", "role.pending",
	"notice.rejected", "notice.notyourturn",
}

type pageData struct {
	Title    string
	Prefix   string
	ChessJS  string
	Messages string
}

func (s *server) serveHomePage() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		start := time.Now()
		msgs := make(map[string]string, len(clientMessages))
		for _, key := range clientMessages {
			msgs[key] = s.deps.Catalog.Raw(key)
		}
		raw, err := json.Marshal(msgs)
		if err != nil {
			http.Error(w, "catalog error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		securityHeaders(s.cfg, w)
		data := pageData{
			Title:    s.deps.Catalog.Text("page.title", nil),
			Prefix:   strings.TrimSuffix(s.cfg.Prefix, "/"),
			ChessJS:  chessJSURL,
			Messages: string(raw),
		}
		if err := pageTemplate.Execute(w, data); err != nil {
			s.log.Warn("web_template_error", zap.Error(err))
			return
		}
		s.log.Debug("web_serve", zap.String("path", r.URL.Path), zap.String("remote", realIP(r)), zap.Duration("took", time.Since(start)))
	}
}

func (s *server) serveAssets() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		fname := path.Join("static", path.Clean("/"+p.ByName("file")))
		data, err := assets.ReadFile(fname)
		if err != nil {
			http.NotFound(w, r)
			return
		}

		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		securityHeaders(s.cfg, w)

		switch strings.ToLower(path.Ext(fname)) {
		case ".css":
			w.Header().Set("Content-Type", "text/css; charset=utf-8")
		case ".js":
			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
		default:
			w.Header().Set("Content-Type", http.DetectContentType(data))
		}
		_, _ = w.Write(data)
	}
}

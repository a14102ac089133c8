// Package web serves the board store over HTTP: a JSON API for remote navigators and a
// server-rendered drill-down page whose preview pane follows the pointer over Datastar SSE.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"boardnav/internal/childcache"
	"boardnav/internal/logging"
	"boardnav/internal/nav"
	"boardnav/internal/store"

	"github.com/rs/zerolog"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

type ServerConfig struct {
	Addr     string
	ReadOnly bool

	// Policy decides whether the sub-item selection is part of the shareable location.
	Policy nav.LocationPolicy
	// Profile names the capability profile for the HTML columns (browse|manage).
	Profile string
}

type Server struct {
	cfg   ServerConfig
	store *store.Store
	cache *childcache.Cache
	caps  nav.ColumnCapabilities
	tmpl  *template.Template
	log   zerolog.Logger
}

// NewServer validates cfg and prepares templates. The server owns a child cache over st; call
// Close to stop its fetches.
func NewServer(cfg ServerConfig, st *store.Store) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	if cfg.Addr == "" {
		return nil, errors.New("web: addr is empty")
	}
	if st == nil {
		return nil, errors.New("web: store is nil")
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim": strings.TrimSpace,
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:   cfg,
		store: st,
		cache: childcache.New(st, childcache.WithLogger(logging.Component("childcache"))),
		caps:  nav.ProfileCapabilities(cfg.Profile),
		tmpl:  tmpl,
		log:   logging.Component("web"),
	}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

// Cache exposes the server's child cache (read-only use).
func (s *Server) Cache() *childcache.Cache { return s.cache }

func (s *Server) Close() { s.cache.Close() }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)

	mux.HandleFunc("GET /api/boards", s.handleAPIBoards)
	mux.HandleFunc("GET /api/boards/{boardId}/tree", s.handleAPITree)
	mux.HandleFunc("GET /api/boards/{boardId}/resolve", s.handleAPIResolve)
	mux.HandleFunc("GET /api/items/{itemId}/subitems", s.handleAPISubItems)
	mux.HandleFunc("POST /api/items/{itemId}/subitems", s.handleAPISubItemCreate)
	mux.HandleFunc("POST /api/{kind}/{id}/toggle", s.handleAPIToggle)
	mux.HandleFunc("POST /api/{kind}/{id}/rename", s.handleAPIRename)
	mux.HandleFunc("DELETE /api/{kind}/{id}", s.handleAPIDelete)

	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /boards/{boardId}", s.handleBoard)
	mux.HandleFunc("GET /boards/{boardId}/preview", s.handleBoardPreview)
	mux.HandleFunc("POST /boards/{boardId}/actions/{action}/{kind}/{id}", s.handleBoardAction)
	return s.logRequests(mux)
}

// ListenAndServe listens on the configured address and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the JSON error envelope of every API failure.
type ErrorBody struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorBody{Error: err.Error()})
}

// statusFor maps backend errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) renderTemplate(name string, data any) (string, error) {
	var b strings.Builder
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) writeHTMLTemplate(w http.ResponseWriter, name string, data any) {
	html, err := s.renderTemplate(name, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, html)
}

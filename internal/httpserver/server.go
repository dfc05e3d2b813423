// internal/httpserver/server.go
//
// HTTP server wiring for the Stacks backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health", "/debug/words", "/puzzle/today".
//   - Play endpoints (optional auth): mounted under /play.
//   - Results endpoints (optional auth): /games/*, /stats/me, /daily/leaderboard.
//   - Auth endpoints: /auth/*.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Guests get an anonymous player cookie; every route that touches a game
//     works for them the same as for signed-in users.
//   - Session snapshots are saved through a debouncer; Close flushes it.

package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/stacks/internal/config"
	"github.com/robalobadob/stacks/internal/daily"
	"github.com/robalobadob/stacks/internal/store"
	"github.com/robalobadob/stacks/internal/words"
)

// Deps are the collaborators a Server needs.
type Deps struct {
	Config  config.Config
	DB      *sql.DB
	Catalog *daily.Catalog
	Words   *words.Lists
	Records *daily.Store
	Snaps   store.ClaimingStore

	// Now defaults to time.Now.
	Now func() time.Time
}

// Server bundles the router and everything the handlers reach for.
type Server struct {
	r       *chi.Mux
	cfg     config.Config
	db      *sql.DB
	catalog *daily.Catalog
	words   *words.Lists
	records *daily.Store
	snaps   store.ClaimingStore
	saver   *store.Debouncer
	live    *liveSessions
	now     func() time.Time
}

// New constructs a Server, installs middleware, and registers routes.
func New(d Deps) *Server {
	s := &Server{
		r:       chi.NewRouter(),
		cfg:     d.Config,
		db:      d.DB,
		catalog: d.Catalog,
		words:   d.Words,
		records: d.Records,
		snaps:   d.Snaps,
		saver:   store.NewDebouncer(d.Snaps, d.Config.SaveDebounce),
		live:    newLiveSessions(),
		now:     d.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID)                 // add X-Request-ID
	s.r.Use(chimw.RealIP)                    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer)                 // recover from panics
	s.r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
	s.r.Use(jsonContentType)                 // default JSON responses
	s.r.Use(s.cors)                          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service":   "stacks",
			"endpoints": []string{"/health", "/puzzle/today", "/play/*", "/games/*", "/stats/me", "/auth/*"},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	s.r.Get("/debug/words", func(w http.ResponseWriter, r *http.Request) {
		a, b := s.words.Stats()
		writeJSON(w, http.StatusOK, map[string]int{"allowed": a, "banned": b})
	})

	s.r.Get("/puzzle/today", s.handlePuzzle)

	// Game routes: OPTIONAL AUTH (guests can play)
	s.r.Group(func(r chi.Router) {
		r.Use(s.withOptionalAuth())
		s.mountPlay(r)
		s.mountResults(r)
	})

	s.mountAuthRoutes()

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", r.URL.Path)
	})

	return s
}

// Close flushes pending snapshot saves. Later saves write through.
func (s *Server) Close() { s.saver.Close() }

// Handler is the root handler to serve.
func (s *Server) Handler() http.Handler { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- helpers -----------------------------------

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorRes{Error: code, Message: msg})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return fmt.Errorf("bad json: %w", err)
}

// Package api exposes the ledger operations the correction UI consumes:
// pending errors, draft upsert/remove, completeness summaries, and per-group
// or bulk commits. Sessions are server-side and keyed by an opaque token; the
// login mechanism itself lives outside this system.
package api

import (
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/mohammed-seid/hfc-south-plant/internal/ingest"
	"github.com/mohammed-seid/hfc-south-plant/internal/ledger"
)

// sessionHeader carries the session token issued by POST /api/sessions.
const sessionHeader = "X-Session-Token"

// Server holds the ledger components and the live sessions.
type Server struct {
	loader *ingest.Loader
	reader *ledger.Reader
	writer *ledger.Writer
	roster map[string]struct{}
	admins map[string]struct{}

	// mu guards the sessions map only. Workspace access is serialized per
	// session; a commit stalled on the store must not block other sessions.
	mu       sync.Mutex
	sessions map[string]*clientSession
}

// clientSession pairs one enumerator session with its own lock. Sessions are
// single-writer by design; the lock only protects against the same token
// being used from two concurrent requests.
type clientSession struct {
	mu sync.Mutex
	*ledger.Session
}

// NewServer wires the ledger components into an API server. roster is the
// set of enumerator usernames allowed to open sessions; admins may also read
// the stats report.
func NewServer(loader *ingest.Loader, reader *ledger.Reader, writer *ledger.Writer, roster, admins []string) *Server {
	s := &Server{
		loader:   loader,
		reader:   reader,
		writer:   writer,
		roster:   make(map[string]struct{}, len(roster)),
		admins:   make(map[string]struct{}, len(admins)),
		sessions: make(map[string]*clientSession),
	}
	for _, u := range roster {
		s.roster[u] = struct{}{}
	}
	for _, u := range admins {
		s.admins[u] = struct{}{}
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", sessionHeader},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/sessions", s.handleCreateSession)

	r.Group(func(r chi.Router) {
		r.Use(s.withSession)
		r.Get("/api/errors", s.handleListErrors)
		r.Put("/api/drafts", s.handleUpsertDraft)
		r.Delete("/api/drafts/{category}/{subject}/{variable}", s.handleRemoveDraft)
		r.Get("/api/summary", s.handleSummary)
		r.Post("/api/commit", s.handleCommit)
		r.Get("/api/stats", s.handleStats)
	})

	return r
}

// newSession registers a session for the enumerator and returns its token.
func (s *Server) newSession(enumerator string) string {
	token := uuid.New().String()
	s.mu.Lock()
	s.sessions[token] = &clientSession{Session: ledger.NewSession(enumerator)}
	s.mu.Unlock()
	return token
}

func (s *Server) session(token string) (*clientSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	return sess, ok
}

func (s *Server) isAdmin(enumerator string) bool {
	_, ok := s.admins[enumerator]
	return ok
}

// withSession resolves the session token header and rejects requests without
// a live session.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(sessionHeader)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing session token")
			return
		}
		sess, ok := s.session(token)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unknown session token")
			return
		}
		next.ServeHTTP(w, r.WithContext(withSessionContext(r.Context(), sess)))
	})
}

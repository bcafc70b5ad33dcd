package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/lazypower/companion/internal/engine"
	"github.com/lazypower/companion/internal/logging"
	"github.com/lazypower/companion/internal/store"
)

// Server is the companion HTTP API server.
type Server struct {
	db      *store.DB
	engine  *engine.Engine
	router  chi.Router
	logger  *log.Logger
	origins []string
	version string
	started time.Time
}

// New creates a Server over the store and conversation engine. An empty
// origins list allows any origin.
func New(db *store.DB, eng *engine.Engine, version string, logger *log.Logger, origins []string) *Server {
	if logger == nil {
		logger = logging.Discard()
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s := &Server{
		db:      db,
		engine:  eng,
		logger:  logger,
		origins: origins,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Accept"},
	}).Handler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/users", s.handleCreateUser)
		r.Get("/users/{userID}", s.handleGetUser)

		r.Route("/chat", func(r chi.Router) {
			r.Post("/ask", s.handleAsk)
			r.Post("/introduce", s.handleIntroduce)
			r.Get("/history", s.handleHistory(store.ChannelChat))
			r.Delete("/messages/{id}", s.handleDeleteMessage(store.ChannelChat))
		})
		r.Route("/cognitive", func(r chi.Router) {
			r.Post("/ask", s.handleGameAsk)
			r.Get("/history", s.handleHistory(store.ChannelGame))
			r.Delete("/messages/{id}", s.handleDeleteMessage(store.ChannelGame))
		})

		r.Route("/reminders", func(r chi.Router) {
			r.Post("/", s.handleCreateReminder)
			r.Get("/", s.handleListReminders)
			r.Get("/upcoming", s.handleUpcomingReminders)
			r.Put("/{id}", s.handleUpdateReminder)
			r.Delete("/{id}", s.handleDeleteReminder)
		})

		r.Post("/locations", s.handleAddLocation)
		r.Get("/locations", s.handleListLocations)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.PingContext(r.Context()); err != nil {
		dbOK = false
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// pageParam reads a zero-based page number; missing or invalid means 0.
func pageParam(r *http.Request) int {
	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		return p
	}
	return 0
}

package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/AnrPg/noema/internal/hlr"
	"github.com/AnrPg/noema/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HLR sidecar HTTP API server. It owns the model handle;
// all mutating requests serialize through the model's internal lock.
type Server struct {
	model   *hlr.Model
	db      *store.DB
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server with the given model, database, and version string.
// db may be nil, in which case review logging is disabled.
func New(model *hlr.Model, db *store.DB, version string) *Server {
	s := &Server{
		model:   model,
		db:      db,
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

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/predict", s.handlePredict)
		r.Post("/train", s.handleTrain)
		r.Get("/weights", s.handleGetWeights)
		r.Put("/weights", s.handlePutWeights)
		r.Get("/reviews", s.handleReviews)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := false
	dbPath := ""
	if s.db != nil {
		dbPath = s.db.Path
		dbOK = s.db.Ping() == nil
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"service": "hlr-sidecar",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": dbPath,
	})
}

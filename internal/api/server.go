package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/kbindex/internal/config"
	"github.com/dgallion1/kbindex/internal/indexer"
)

// Server is the HTTP search API for an indexed knowledge base.
type Server struct {
	router chi.Router
	ix     *indexer.Indexer
	log    *slog.Logger
	cfg    *config.Config

	// files is the indexed file set, resolved once at startup.
	files []string
}

// NewServer creates and configures the HTTP server over an indexer.
func NewServer(ix *indexer.Indexer, files []string, log *slog.Logger, cfg *config.Config) *Server {
	s := &Server{
		ix:    ix,
		files: files,
		log:   log,
		cfg:   cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// API endpoints; auth only when a key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.Server.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.Server.APIKey, s.log))
		}

		r.Get("/api/search", s.handleSearch)
		r.Get("/api/files", s.handleFiles)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

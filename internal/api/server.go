package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/papersum/internal/config"
	"github.com/dgallion1/papersum/internal/llm"
	"github.com/dgallion1/papersum/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for papersum.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	llm          *llm.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server. client may be nil, in
// which case /api/stats/llm reports stats as unavailable.
func NewServer(orch *pipeline.Orchestrator, client *llm.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		llm:          client,
		log:          log,
		cfg:          cfg,
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

	r.Route("/api", func(r chi.Router) {
		if s.cfg.PapersumAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.PapersumAPIKey, s.log))
		}

		r.Get("/focuses", s.handleFocuses)

		r.Post("/documents", s.handleUpload)
		r.Get("/documents/{docID}", s.handleGetDocument)
		r.Delete("/documents/{docID}", s.handleDeleteDocument)
		r.Post("/documents/{docID}/summarize", s.handleSummarize)
		r.Post("/documents/{docID}/ask", s.handleAsk)

		r.Get("/jobs/{jobID}", s.handleJobStatus)
		r.Get("/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

// Package api exposes the HTTP surface: summary generation (synchronous and
// job-based), job polling, and model latency stats.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mlorenz/recapd/internal/config"
	"github.com/mlorenz/recapd/internal/pipeline"
	"github.com/mlorenz/recapd/internal/summarize"
)

// Server is the HTTP API server for recapd.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	llm          *summarize.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, llm *summarize.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		llm:          llm,
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
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{s.cfg.CORSOrigin},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated when an API key is configured; open otherwise, matching
	// typical single-tenant deployments behind a private network.
	r.Group(func(r chi.Router) {
		if s.cfg.RecapdAPIKey != "" {
			r.Use(AuthMiddleware(s.cfg.RecapdAPIKey, s.log))
		}

		r.Post("/generate_summary/", s.handleGenerateSummary)

		r.Post("/api/summaries", s.handleSubmitSummary)
		r.Get("/api/summaries/{jobID}", s.handleSummaryStatus)
		r.Get("/api/summaries/{jobID}/result", s.handleSummaryResult)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

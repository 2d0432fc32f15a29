package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgallion1/deckforge/internal/config"
	"github.com/dgallion1/deckforge/internal/llm"
	"github.com/dgallion1/deckforge/internal/pipeline"
)

// Runner accepts runs for background execution.
type Runner interface {
	Submit(run *pipeline.Run) error
	GetRun(id string) *pipeline.Run
}

// DeckStore gives access to persisted decks.
type DeckStore interface {
	DeckPath(runID string) (string, error)
	ReadDeck(runID string) (string, error)
}

// PDFRenderer converts a deck file to PDF.
type PDFRenderer interface {
	PDF(ctx context.Context, src string) ([]byte, error)
}

// Server is the HTTP API server for deckforge.
type Server struct {
	router   chi.Router
	runner   Runner
	decks    DeckStore
	renderer PDFRenderer
	llm      *llm.Metered
	log      *slog.Logger
	cfg      config.Config
}

// NewServer creates and configures the HTTP server. llmc may be nil, in which case
// LLM stats are unavailable.
func NewServer(runner Runner, decks DeckStore, renderer PDFRenderer, llmc *llm.Metered, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		runner:   runner,
		decks:    decks,
		renderer: renderer,
		llm:      llmc,
		log:      log,
		cfg:      cfg,
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

	// Authenticated endpoints, when an API key is configured.
	r.Group(func(r chi.Router) {
		if s.cfg.APIKey != "" {
			r.Use(AuthMiddleware(s.cfg.APIKey, s.log))
		}

		r.Post("/api/upload", s.handleUpload)
		r.Get("/api/download", s.handleDownload)
		r.Get("/api/runs/{runID}", s.handleRunStatus)
		r.Get("/api/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

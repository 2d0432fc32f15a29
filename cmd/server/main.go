package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dgallion1/deckforge/internal/api"
	"github.com/dgallion1/deckforge/internal/artifact"
	"github.com/dgallion1/deckforge/internal/config"
	"github.com/dgallion1/deckforge/internal/llm"
	"github.com/dgallion1/deckforge/internal/pipeline"
	"github.com/dgallion1/deckforge/internal/render"
)

func main() {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	if err != nil {
		log.Error("load configuration", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	client, err := llm.NewFromConfig(ctx, cfg.LLM, log)
	if err != nil {
		log.Error("init llm client", "error", err)
		os.Exit(1)
	}
	store, err := artifact.NewStore(cfg.UploadDir)
	if err != nil {
		log.Error("init artifact store", "error", err)
		os.Exit(1)
	}
	renderer := render.New(cfg.MarpBin, cfg.VerifyPDF, log)

	// Initialize pipeline.
	p := pipeline.New(client, store, pipeline.LocaleFor(cfg.DeckLocale), log)
	orch := pipeline.NewOrchestrator(cfg, p, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, store, renderer, client, log, cfg)

	// No WriteTimeout: upload responses stream for the whole run.
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Graceful shutdown. Stopping the orchestrator first ends every open stream.
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("starting deckforge",
		"port", cfg.Port,
		"provider", cfg.LLM.Provider,
		"model", client.Model(),
		"locale", cfg.DeckLocale,
		"workers", cfg.WorkerCount,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
	<-stopped
}

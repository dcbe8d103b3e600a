package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mlorenz/recapd/internal/api"
	"github.com/mlorenz/recapd/internal/config"
	"github.com/mlorenz/recapd/internal/pipeline"
	"github.com/mlorenz/recapd/internal/summarize"
	"github.com/mlorenz/recapd/internal/transcribe"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	llm := summarize.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.SummaryModel)
	whisper := transcribe.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.WhisperModel, cfg.FFmpegPath)

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, llm, whisper, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, llm, log, cfg)

	httpServer := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     srv,
		ReadTimeout: 5 * time.Minute, // large recording uploads
		// Synchronous summary requests can hold the connection for a while.
		WriteTimeout: cfg.SyncTimeout + time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		llm.Close()
		whisper.Close()
	}()

	log.Info("starting recapd", "port", cfg.Port, "model", cfg.SummaryModel)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

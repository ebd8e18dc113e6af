package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gst-automator/invoice-tracker/internal/ai"
	"github.com/gst-automator/invoice-tracker/internal/common"
	"github.com/gst-automator/invoice-tracker/internal/dedup"
	"github.com/gst-automator/invoice-tracker/internal/export"
	"github.com/gst-automator/invoice-tracker/internal/pipeline"
	"github.com/gst-automator/invoice-tracker/internal/repository"
	"github.com/gst-automator/invoice-tracker/internal/server"
	"github.com/gst-automator/invoice-tracker/internal/textsource"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.Config{DSN: cfg.Store.DSN}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err, "dsn", cfg.Store.DSN)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	entriesRepo := repository.NewEntryRepository(db, logger)
	invoicesRepo := repository.NewInvoiceRepository(db, logger)

	reader := textsource.NewReader(textsource.Config{Pdftotext: cfg.Text.Pdftotext}, logger)

	// The fallback extractor is optional: with no API key, low-confidence
	// documents fail terminally instead of round-tripping through the model.
	var fallback ai.Extractor
	if cfg.AI.APIKey != "" {
		fallback, err = ai.NewExtractor(cfg.AI, logger)
		if err != nil {
			logger.Error("failed to build AI extractor", "error", err)
			os.Exit(1)
		}
		logger.Info("ai fallback enabled", "provider", fallback.ProviderName())
	} else {
		logger.Warn("AI_API_KEY not set, fallback extraction disabled")
	}

	detector := dedup.NewDetector(entriesRepo, logger)
	proc := pipeline.NewProcessor(entriesRepo, reader, fallback, detector, logger)
	queue := pipeline.NewProcessorQueue(proc, logger)

	exportSvc := export.NewService(invoicesRepo, logger)
	srv := server.New(entriesRepo, queue, exportSvc, db, cfg.Server, logger)

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("http server listening", "addr", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", "error", err)
	}
	queue.Shutdown(shutdownCtx)
}

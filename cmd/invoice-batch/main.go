package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/ai"
	"github.com/gst-automator/invoice-tracker/internal/common"
	"github.com/gst-automator/invoice-tracker/internal/dedup"
	"github.com/gst-automator/invoice-tracker/internal/entity"
	"github.com/gst-automator/invoice-tracker/internal/export"
	"github.com/gst-automator/invoice-tracker/internal/pipeline"
	"github.com/gst-automator/invoice-tracker/internal/repository"
	"github.com/gst-automator/invoice-tracker/internal/textsource"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir = flag.String("dir", "", "directory of invoice files to process (required)")
		out = flag.String("out", "", "output XLSX path (defaults to <dir>/../gst_invoices.xlsx)")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(*dir), "gst_invoices.xlsx")
	}

	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx := context.Background()
	cfg := common.LoadConfig()

	// Batch runs always use the in-process store; the accepted set lives only
	// as long as the run.
	db, err := repository.Open(ctx, repository.Config{DSN: ":memory:"}, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, logger)

	entriesRepo := repository.NewEntryRepository(db, logger)
	invoicesRepo := repository.NewInvoiceRepository(db, logger)
	reader := textsource.NewReader(textsource.Config{Pdftotext: cfg.Text.Pdftotext}, logger)

	var fallback ai.Extractor
	if cfg.AI.APIKey != "" {
		fallback, err = ai.NewExtractor(cfg.AI, logger)
		if err != nil {
			logger.Error("failed to build AI extractor", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("AI_API_KEY not set, fallback extraction disabled")
	}

	detector := dedup.NewDetector(entriesRepo, logger)
	proc := pipeline.NewProcessor(entriesRepo, reader, fallback, detector, logger)

	files, err := collectFiles(*dir)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		logger.Warn("no pdf or txt files found", "dir", *dir)
	}

	var processed, failed int
	for _, path := range files {
		id, err := submit(ctx, entriesRepo, path)
		if err != nil {
			logger.Error("failed to submit file", "path", path, "error", err)
			failed++
			continue
		}
		if err := proc.Process(ctx, id); err != nil {
			logger.Error("failed to process file", "path", path, "error", err)
			failed++
			continue
		}
		entry, err := entriesRepo.GetByID(ctx, id)
		if err != nil {
			failed++
			continue
		}
		switch entry.Status {
		case constants.StatusSuccess:
			processed++
		case constants.StatusDuplicateConflict:
			logger.Warn("skipping duplicate", "path", path)
		default:
			logger.Warn("file not accepted", "path", path, "status", entry.Status, "error", entry.ErrorMessage)
			failed++
		}
	}

	exportSvc := export.NewService(invoicesRepo, logger)
	xlsx, err := exportSvc.ExportInvoicesXLSX(ctx)
	if err != nil {
		logger.Error("failed to build workbook", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write workbook", "path", *out, "error", err)
		os.Exit(1)
	}

	logger.Info("batch complete",
		"files", len(files),
		"accepted", processed,
		"failed", failed,
		"out", *out,
	)
}

func collectFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := constants.NormalizeExt(filepath.Ext(e.Name()))
		if constants.AllowedExt(ext) {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out, nil
}

func submit(ctx context.Context, entries repository.EntryRepository, path string) (id uuid.UUID, err error) {
	f, err := os.Open(path)
	if err != nil {
		return uuid.Nil, err
	}
	defer f.Close()

	fingerprint, err := dedup.FingerprintReader(f)
	if err != nil {
		return uuid.Nil, err
	}
	info, err := f.Stat()
	if err != nil {
		return uuid.Nil, err
	}

	entry := &entity.ProcessingEntry{
		Filename:    filepath.Base(path),
		SourcePath:  path,
		FileSize:    info.Size(),
		Fingerprint: fingerprint,
		Status:      constants.StatusPending,
		SubmittedAt: time.Now().UTC(),
	}
	if err := entries.Create(ctx, entry); err != nil {
		return uuid.Nil, err
	}
	return entry.ID, nil
}

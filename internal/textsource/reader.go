// Package textsource supplies UTF-8 text per document. PDFs go through the
// poppler text layer (pdftotext); scanned or image-only pages yield blank
// output, which the pipeline treats as a terminal extraction failure.
package textsource

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gst-automator/invoice-tracker/constants"
)

// Extractor is the behavior the pipeline depends on.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
}

// Reader implements Extractor over local files.
type Reader struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewReader(cfg Config, logger *slog.Logger) *Reader {
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{cfg: cfg, runner: execRunner{}, logger: logger}
}

// Extract picks a strategy based on file extension. Plain text files are
// read directly; everything else must be a PDF with a text layer.
func (r *Reader) Extract(ctx context.Context, path string) (string, error) {
	ext := constants.NormalizeExt(filepath.Ext(path))
	switch ext {
	case "txt":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read text file: %w", err)
		}
		return string(b), nil
	case "pdf":
		return r.pdfToText(ctx, path)
	default:
		return "", fmt.Errorf("unsupported extension: %q", ext)
	}
}

func (r *Reader) pdfToText(ctx context.Context, path string) (string, error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := r.runner.Run(ctx, r.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w (stderr: %s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

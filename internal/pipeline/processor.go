package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/ai"
	"github.com/gst-automator/invoice-tracker/internal/common"
	"github.com/gst-automator/invoice-tracker/internal/dedup"
	"github.com/gst-automator/invoice-tracker/internal/entity"
	"github.com/gst-automator/invoice-tracker/internal/extract"
	"github.com/gst-automator/invoice-tracker/internal/repository"
	"github.com/gst-automator/invoice-tracker/internal/textsource"
)

// Processor drives one entry from PENDING to a terminal status. It is safe
// to share across workers; all mutable state lives in the repository.
type Processor struct {
	entries    repository.EntryRepository
	text       textsource.Extractor
	fallback   ai.Extractor
	duplicates *dedup.Detector
	threshold  int
	logger     *slog.Logger
}

func NewProcessor(
	entries repository.EntryRepository,
	text textsource.Extractor,
	fallback ai.Extractor,
	duplicates *dedup.Detector,
	logger *slog.Logger,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		entries:    entries,
		text:       text,
		fallback:   fallback,
		duplicates: duplicates,
		threshold:  constants.ConfidenceThreshold,
		logger:     logger,
	}
}

// Process runs the full flow for one entry. Infrastructure errors surface to
// the caller only when the failure could not be recorded on the entry itself.
func (p *Processor) Process(ctx context.Context, id uuid.UUID) error {
	entry, err := p.entries.GetByID(ctx, id)
	if err != nil {
		return err
	}
	log := p.logger.With("entry_id", id.String(), "filename", entry.Filename)

	if err := p.entries.MarkProcessing(ctx, id); err != nil {
		return err
	}
	log.Info("pipeline.start")

	if !entry.KeepAnyway {
		hit, err := p.duplicates.Check(ctx, entry.Fingerprint)
		if err != nil {
			return p.fail(ctx, log, id, fmt.Sprintf("duplicate lookup: %v", err))
		}
		if hit {
			log.Warn("pipeline.duplicate_conflict", "fingerprint", entry.Fingerprint)
			return p.entries.MarkDuplicateConflict(ctx, id)
		}
	}

	text, err := p.text.Extract(ctx, entry.SourcePath)
	if err != nil {
		return p.fail(ctx, log, id, fmt.Sprintf("text extraction: %v", err))
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("pipeline.empty_text")
		return p.fail(ctx, log, id, common.ErrEmptyText.Error())
	}

	rec := extract.Extract(text)
	score := extract.Score(rec)
	log.Info("pipeline.rule_extract", "confidence", score)

	usedFallback := false
	if score < p.threshold {
		rec, err = p.runFallback(ctx, log, text, rec, entry)
		if err != nil {
			return p.fail(ctx, log, id, fmt.Sprintf("ai fallback: %v", err))
		}
		usedFallback = true
	}

	if err := p.entries.MarkSuccess(ctx, id, rec, score, usedFallback); err != nil {
		return err
	}
	log.Info("pipeline.ok", "confidence", score, "used_fallback", usedFallback)
	return nil
}

func (p *Processor) runFallback(ctx context.Context, log *slog.Logger, text string, partial entity.InvoiceRecord, entry *entity.ProcessingEntry) (entity.InvoiceRecord, error) {
	if p.fallback == nil {
		return entity.InvoiceRecord{}, common.NewAppError("AI_UNAVAILABLE",
			"no fallback extractor configured", common.ErrInternal)
	}
	log.Info("pipeline.fallback.start", "provider", p.fallback.ProviderName())
	res, _, err := p.fallback.ExtractInvoice(ctx, ai.Request{
		Text:           text,
		Partial:        &partial,
		ContentHashHex: entry.Fingerprint,
	})
	if err != nil {
		return entity.InvoiceRecord{}, err
	}
	rec := FromAIResult(res)

	// The response schema types vendorGstin as a plain string, so the GSTIN
	// grammar is re-checked here; a malformed value fails the document
	// instead of landing in the export.
	v := common.NewValidator()
	if rec.GSTIN != "" {
		v.Field("vendorGstin", rec.GSTIN, common.GSTIN)
	}
	if rec.Date != "" {
		v.Field("invoiceDate", rec.Date, common.ISODate)
	}
	if err := v.Error(); err != nil {
		return entity.InvoiceRecord{}, err
	}
	return rec, nil
}

// fail records a terminal failure; the original message wins over any error
// the status write itself may produce.
func (p *Processor) fail(ctx context.Context, log *slog.Logger, id uuid.UUID, message string) error {
	if err := p.entries.MarkFailure(ctx, id, message); err != nil {
		log.Error("pipeline.mark_failure_failed", "error", err)
		return err
	}
	log.Error("pipeline.failed", "reason", message)
	return nil
}

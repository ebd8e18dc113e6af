package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/ai"
	"github.com/gst-automator/invoice-tracker/internal/common"
	"github.com/gst-automator/invoice-tracker/internal/dedup"
	"github.com/gst-automator/invoice-tracker/internal/entity"
	"github.com/gst-automator/invoice-tracker/internal/repository"
)

// stubText returns canned text keyed by source path.
type stubText struct {
	texts map[string]string
	err   error
}

func (s *stubText) Extract(_ context.Context, path string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.texts[path], nil
}

// fakeAI records whether the fallback was invoked.
type fakeAI struct {
	result ai.InvoiceResult
	err    error
	calls  int
}

func (f *fakeAI) ExtractInvoice(_ context.Context, _ ai.Request) (ai.InvoiceResult, []byte, error) {
	f.calls++
	if f.err != nil {
		return ai.InvoiceResult{}, nil, f.err
	}
	return f.result, nil, nil
}

func (f *fakeAI) ProviderName() string { return "fake" }

const highConfidenceText = `Tax Invoice
Invoice No: INV-2024/001
Invoice Date: 05-08-2024
GSTIN: 27AAPFU0939F1ZV
HSN/SAC 8708
Spare part replacement
Taxable Value: 10,000.00
CGST @ 9%: 900.00
SGST @ 9%: 900.00
Grand Total: 11,800.00
`

func newTestEnv(t *testing.T, texts map[string]string, fallback ai.Extractor) (*Processor, repository.EntryRepository) {
	t.Helper()
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })

	entries := repository.NewEntryRepository(db, nil)
	detector := dedup.NewDetector(entries, nil)
	proc := NewProcessor(entries, &stubText{texts: texts}, fallback, detector, nil)
	return proc, entries
}

func submitEntry(t *testing.T, entries repository.EntryRepository, path, fingerprint string) uuid.UUID {
	t.Helper()
	entry := &entity.ProcessingEntry{
		Filename:    path,
		SourcePath:  path,
		FileSize:    100,
		Fingerprint: fingerprint,
	}
	require.NoError(t, entries.Create(context.Background(), entry))
	return entry.ID
}

func TestProcessHighConfidenceSkipsFallback(t *testing.T) {
	fallback := &fakeAI{}
	proc, entries := newTestEnv(t, map[string]string{"a.txt": highConfidenceText}, fallback)
	id := submitEntry(t, entries, "a.txt", "fp-a")

	require.NoError(t, proc.Process(context.Background(), id))

	entry, err := entries.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSuccess, entry.Status)
	assert.Equal(t, 100, entry.Confidence)
	assert.False(t, entry.UsedFallback)
	assert.Equal(t, 0, fallback.calls)
	require.NotNil(t, entry.Record)
	assert.Equal(t, "27AAPFU0939F1ZV", entry.Record.GSTIN)
	assert.True(t, entry.IsValid)
}

func TestProcessLowConfidenceUsesFallback(t *testing.T) {
	fallback := &fakeAI{result: ai.InvoiceResult{
		InvoiceType:       ai.InvoiceTypeService,
		InvoiceDate:       "2024-08-05",
		InvoiceNumber:     "SVC-42",
		VendorName:        "City Garage",
		VendorGSTIN:       "27AAPFU0939F1ZV",
		TaxableAmount:     decimal.NewFromInt(5000),
		CGSTAmount:        decimal.NewFromInt(450),
		SGSTAmount:        decimal.NewFromInt(450),
		TotalInvoiceValue: decimal.NewFromInt(5900),
	}}
	proc, entries := newTestEnv(t, map[string]string{"b.txt": "an invoice with no recognizable fields"}, fallback)
	id := submitEntry(t, entries, "b.txt", "fp-b")

	require.NoError(t, proc.Process(context.Background(), id))

	entry, err := entries.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSuccess, entry.Status)
	assert.True(t, entry.UsedFallback)
	assert.Equal(t, 1, fallback.calls)
	require.NotNil(t, entry.Record)
	assert.Equal(t, constants.TxServices, entry.Record.TxType)
	assert.Equal(t, "SVC-42", entry.Record.BillNo)
}

func TestProcessFallbackErrorIsTerminal(t *testing.T) {
	fallback := &fakeAI{err: errors.New("model unavailable")}
	proc, entries := newTestEnv(t, map[string]string{"c.txt": "nothing useful"}, fallback)
	id := submitEntry(t, entries, "c.txt", "fp-c")

	require.NoError(t, proc.Process(context.Background(), id))

	entry, err := entries.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusError, entry.Status)
	assert.Contains(t, entry.ErrorMessage, "model unavailable")
}

func TestProcessNoFallbackConfigured(t *testing.T) {
	proc, entries := newTestEnv(t, map[string]string{"d.txt": "nothing useful"}, nil)
	id := submitEntry(t, entries, "d.txt", "fp-d")

	require.NoError(t, proc.Process(context.Background(), id))

	entry, err := entries.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusError, entry.Status)
}

func TestProcessBlankTextFails(t *testing.T) {
	fallback := &fakeAI{}
	proc, entries := newTestEnv(t, map[string]string{"e.txt": "   \n\t "}, fallback)
	id := submitEntry(t, entries, "e.txt", "fp-e")

	require.NoError(t, proc.Process(context.Background(), id))

	entry, err := entries.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusError, entry.Status)
	assert.Equal(t, 0, fallback.calls, "blank text must not reach the model")
}

func TestProcessDuplicateConflictAndKeepAnyway(t *testing.T) {
	ctx := context.Background()
	texts := map[string]string{
		"first.txt":  highConfidenceText,
		"second.txt": highConfidenceText,
	}
	proc, entries := newTestEnv(t, texts, &fakeAI{})

	firstID := submitEntry(t, entries, "first.txt", "same-fp")
	require.NoError(t, proc.Process(ctx, firstID))
	first, err := entries.GetByID(ctx, firstID)
	require.NoError(t, err)
	require.Equal(t, constants.StatusSuccess, first.Status)

	// Same bytes again: conflict, no new invoice row.
	secondID := submitEntry(t, entries, "second.txt", "same-fp")
	require.NoError(t, proc.Process(ctx, secondID))
	second, err := entries.GetByID(ctx, secondID)
	require.NoError(t, err)
	require.Equal(t, constants.StatusDuplicateConflict, second.Status)

	// User keeps it: entry re-enters the pipeline and the check is disarmed.
	require.NoError(t, entries.ResolveDuplicate(ctx, secondID, true))
	require.NoError(t, proc.Process(ctx, secondID))
	second, err = entries.GetByID(ctx, secondID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSuccess, second.Status)
	assert.True(t, second.KeepAnyway)
}

func TestProcessDuplicateDiscardRemovesEntry(t *testing.T) {
	ctx := context.Background()
	texts := map[string]string{
		"first.txt":  highConfidenceText,
		"second.txt": highConfidenceText,
	}
	proc, entries := newTestEnv(t, texts, &fakeAI{})

	firstID := submitEntry(t, entries, "first.txt", "same-fp")
	require.NoError(t, proc.Process(ctx, firstID))

	secondID := submitEntry(t, entries, "second.txt", "same-fp")
	require.NoError(t, proc.Process(ctx, secondID))

	require.NoError(t, entries.ResolveDuplicate(ctx, secondID, false))
	_, err := entries.GetByID(ctx, secondID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestProcessConfidenceBoundary(t *testing.T) {
	// A record scoring exactly at the threshold must not trigger the
	// fallback; the sample below misses only the date (90 points).
	noDate := `Invoice No: INV-2024/001
GSTIN: 27AAPFU0939F1ZV
HSN/SAC 8708
Spare part replacement
Taxable Value: 10,000.00
CGST @ 9%: 900.00
SGST @ 9%: 900.00
Grand Total: 11,800.00
`
	fallback := &fakeAI{}
	proc, entries := newTestEnv(t, map[string]string{"f.txt": noDate}, fallback)
	id := submitEntry(t, entries, "f.txt", "fp-f")

	require.NoError(t, proc.Process(context.Background(), id))

	entry, err := entries.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSuccess, entry.Status)
	assert.Equal(t, 90, entry.Confidence)
	assert.False(t, entry.UsedFallback)
	assert.Equal(t, 0, fallback.calls)
}

func TestProcessTextExtractionFailure(t *testing.T) {
	db, err := repository.Open(context.Background(), repository.Config{DSN: ":memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { repository.Close(db, nil) })

	entries := repository.NewEntryRepository(db, nil)
	detector := dedup.NewDetector(entries, nil)
	proc := NewProcessor(entries, &stubText{err: fmt.Errorf("pdftotext exited 1")}, &fakeAI{}, detector, nil)

	id := submitEntry(t, entries, "broken.pdf", "fp-x")
	require.NoError(t, proc.Process(context.Background(), id))

	entry, err := entries.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusError, entry.Status)
	assert.Contains(t, entry.ErrorMessage, "pdftotext")
}

func TestProcessFallbackRejectsMalformedGSTIN(t *testing.T) {
	fallback := &fakeAI{result: ai.InvoiceResult{
		InvoiceType:       ai.InvoiceTypeService,
		InvoiceDate:       "2024-08-05",
		InvoiceNumber:     "SVC-77",
		VendorName:        "City Garage",
		VendorGSTIN:       "NOT-A-GSTIN-0001",
		TaxableAmount:     decimal.NewFromInt(5000),
		CGSTAmount:        decimal.NewFromInt(450),
		SGSTAmount:        decimal.NewFromInt(450),
		TotalInvoiceValue: decimal.NewFromInt(5900),
	}}
	proc, entries := newTestEnv(t, map[string]string{"g.txt": "an invoice with no recognizable fields"}, fallback)
	id := submitEntry(t, entries, "g.txt", "fp-g")

	require.NoError(t, proc.Process(context.Background(), id))

	entry, err := entries.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusError, entry.Status)
	assert.Equal(t, 1, fallback.calls)
	assert.Contains(t, entry.ErrorMessage, "vendorGstin")
}

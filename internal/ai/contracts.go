// Package ai talks to the generative extraction service used when the
// rule-based result scores below the confidence threshold. Providers share
// one request/response contract; the response uses a validation-oriented
// schema that the pipeline remaps onto the canonical record.
package ai

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gst-automator/invoice-tracker/internal/entity"
)

// Request carries the raw invoice text plus the low-confidence rule-based
// candidate for the model to correct and complete.
type Request struct {
	Text    string
	Partial *entity.InvoiceRecord
	// ContentHashHex, when set, is passed through so the response can carry
	// the document fingerprint back for reuse by duplicate detection.
	ContentHashHex string
}

// Invoice type labels in the remote schema. The canonical record uses
// Sale/Services/Unknown; the mapping lives in the pipeline.
const (
	InvoiceTypeService = "Service"
	InvoiceTypeSpares  = "Spares"
)

// InvoiceResult is the remote capability's native shape. It is a superset
// schema oriented toward validation, not the spreadsheet-output shape; never
// mutate one into the other in place.
type InvoiceResult struct {
	InvoiceType       string          `json:"invoiceType"`
	InvoiceDate       string          `json:"invoiceDate"` // YYYY-MM-DD
	InvoiceNumber     string          `json:"invoiceNumber"`
	VendorName        string          `json:"vendorName"`
	VendorGSTIN       string          `json:"vendorGstin"`
	TaxableAmount     decimal.Decimal `json:"taxableAmount"`
	CGSTAmount        decimal.Decimal `json:"cgstAmount"`
	SGSTAmount        decimal.Decimal `json:"sgstAmount"`
	IGSTAmount        decimal.Decimal `json:"igstAmount"`
	TotalInvoiceValue decimal.Decimal `json:"totalInvoiceValue"`
	Hash              string          `json:"hash,omitempty"`
}

// Extractor is the interface the pipeline depends on.
type Extractor interface {
	// ExtractInvoice returns the structured result and the raw JSON the
	// model produced (for failure diagnostics).
	ExtractInvoice(ctx context.Context, req Request) (InvoiceResult, []byte, error)
	ProviderName() string
}

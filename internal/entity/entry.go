package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/gst-automator/invoice-tracker/constants"
)

// ProcessingEntry tracks one submitted document through the pipeline.
// The fingerprint is assigned at submission and never changes; the record is
// assigned once on acceptance. The repository is the sole writer.
type ProcessingEntry struct {
	ID          uuid.UUID             `json:"id"`
	Filename    string                `json:"filename"`
	SourcePath  string                `json:"source_path"`
	FileSize    int64                 `json:"file_size"`
	Fingerprint string                `json:"fingerprint"` // sha256 hex of the raw bytes
	Status      constants.EntryStatus `json:"status"`
	// KeepAnyway is set when a user resolved a duplicate conflict by keeping
	// the entry; its own fingerprint must never short-circuit it again.
	KeepAnyway   bool           `json:"keep_anyway"`
	Record       *InvoiceRecord `json:"record,omitempty"`
	Confidence   int            `json:"confidence"`
	UsedFallback bool           `json:"used_fallback"`
	IsValid      bool           `json:"is_valid"`
	ErrorMessage string         `json:"error_message,omitempty"`
	SubmittedAt  time.Time      `json:"submitted_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

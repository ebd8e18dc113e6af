package constants

// TxType classifies an invoice as goods or services.
type TxType string

const (
	TxSale     TxType = "Sale"
	TxServices TxType = "Services"
	TxUnknown  TxType = "Unknown"
)

// NotAvailable is the sentinel for free-text fields the extractor could not
// find (bill number, HSN code). Stored and exported verbatim.
const NotAvailable = "N/A"

// ConfidenceThreshold is the minimum rule-extraction score (out of 100)
// for which the deterministic result is accepted without an AI round trip.
// Fixed at build time, not tunable at runtime.
const ConfidenceThreshold = 90

// Statutory GST rates the pipeline knows about. IGST amounts are bucketed
// by the 18% and 28% slabs; CGST and SGST are assumed symmetric at 9% when
// inferred from an AI response.
const (
	IGSTRate18       = 18
	IGSTRate28       = 28
	CGSTSGSTHalfRate = 9
)

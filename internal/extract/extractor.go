// Package extract holds the deterministic half of the pipeline: a
// pattern-based field extractor and the confidence scorer that decides
// whether its output can be trusted without an AI round trip.
package extract

import (
	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/entity"
)

// Extract pattern-matches invoice fields out of raw text. It is a total
// function: fields absent from the text degrade to documented defaults
// (empty string, zero, "N/A", Unknown) and never to an error.
func Extract(text string) entity.InvoiceRecord {
	rec := entity.InvoiceRecord{
		BillNo: constants.NotAvailable,
		HSN:    constants.NotAvailable,
		TxType: constants.TxUnknown,
	}

	for _, rule := range fieldRules {
		if m := rule.re.FindStringSubmatch(text); m != nil {
			rule.apply(&rec, m)
		}
	}

	rec.TxType = classify(text)

	// Quantity has no reliable source in the text layer. 1 for services and
	// 0 otherwise is a placeholder heuristic, kept because downstream
	// consumers depend on these exact values.
	if rec.TxType == constants.TxServices {
		rec.Qty = 1
	}

	return rec
}

// classify decides Sale vs Services by keyword presence. Spare-part keywords
// take precedence when both families appear: workshop invoices often mention
// labour alongside parts, and those bill as goods.
func classify(text string) constants.TxType {
	isService := reServiceWords.MatchString(text)
	isSale := reSpareWords.MatchString(text)

	switch {
	case isSale:
		return constants.TxSale
	case isService:
		return constants.TxServices
	default:
		return constants.TxUnknown
	}
}

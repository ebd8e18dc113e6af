// Package pipeline runs the per-entry extraction flow: duplicate check, text
// sourcing, rule extraction and scoring, AI fallback, reconciliation, and the
// terminal status write.
package pipeline

import (
	"github.com/shopspring/decimal"

	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/ai"
	"github.com/gst-automator/invoice-tracker/internal/entity"
)

// FromAIResult maps the fallback schema onto the canonical record. The remote
// schema has a single IGST amount and no slab, so it lands in the 18% bucket
// and the 28% bucket stays zero. CGST/SGST rates are inferred at the
// symmetric 9% half-rate whenever the corresponding amount is present.
func FromAIResult(res ai.InvoiceResult) entity.InvoiceRecord {
	rec := entity.InvoiceRecord{
		Date:           res.InvoiceDate,
		GSTIN:          res.VendorGSTIN,
		BillNo:         res.InvoiceNumber,
		VendorName:     res.VendorName,
		HSN:            constants.NotAvailable,
		Qty:            1,
		TaxableValue:   res.TaxableAmount,
		CGST:           res.CGSTAmount,
		SGST:           res.SGSTAmount,
		TotalBillValue: res.TotalInvoiceValue,
	}

	if res.InvoiceType == ai.InvoiceTypeSpares {
		rec.TxType = constants.TxSale
	} else {
		rec.TxType = constants.TxServices
	}

	if res.IGSTAmount.IsPositive() {
		rec.IGST18 = res.IGSTAmount
	}
	halfRate := decimal.NewFromInt(constants.CGSTSGSTHalfRate)
	if res.CGSTAmount.IsPositive() {
		rec.CGSTRate = halfRate
	}
	if res.SGSTAmount.IsPositive() {
		rec.SGSTRate = halfRate
	}
	return rec
}

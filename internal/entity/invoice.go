package entity

import (
	"github.com/shopspring/decimal"

	"github.com/gst-automator/invoice-tracker/constants"
)

// InvoiceRecord is the canonical, spreadsheet-oriented output of the
// pipeline. Amounts are currency-scale decimals; free-text fields fall back
// to the "N/A" sentinel rather than empty strings where the export expects a
// value.
type InvoiceRecord struct {
	Date           string           `json:"date"` // YYYY-MM-DD once normalized
	GSTIN          string           `json:"gst_no"`
	BillNo         string           `json:"bill_no"`
	TxType         constants.TxType `json:"sale_or_services"`
	VendorName     string           `json:"vendor_name,omitempty"`
	HSN            string           `json:"hsn"`
	Qty            int              `json:"qty"`
	TaxableValue   decimal.Decimal  `json:"taxable_value"`
	IGST18         decimal.Decimal  `json:"igst_18"`
	IGST28         decimal.Decimal  `json:"igst_28"`
	CGSTRate       decimal.Decimal  `json:"cgst_rate"`
	SGSTRate       decimal.Decimal  `json:"sgst_rate"`
	CGST           decimal.Decimal  `json:"cgst_9"`
	SGST           decimal.Decimal  `json:"sgst_9"`
	TotalBillValue decimal.Decimal  `json:"total_bill_value"`
}

// taxTolerance is the rounding slack allowed between the stated total and
// taxable value plus taxes: one unit of currency.
var taxTolerance = decimal.NewFromInt(1)

// TaxTotal sums all tax buckets.
func (r InvoiceRecord) TaxTotal() decimal.Decimal {
	return r.CGST.Add(r.SGST).Add(r.IGST18).Add(r.IGST28)
}

// TaxBalanced reports whether taxable value plus taxes matches the stated
// total within tolerance. A mismatch does not block the record; it is
// surfaced as a validity flag for human review.
func (r InvoiceRecord) TaxBalanced() bool {
	calculated := r.TaxableValue.Add(r.TaxTotal())
	return calculated.Sub(r.TotalBillValue).Abs().LessThan(taxTolerance)
}

// HasTax reports whether at least one tax bucket is populated: either both
// halves of an intra-state split, or any IGST slab.
func (r InvoiceRecord) HasTax() bool {
	hasCgstSgst := r.CGST.IsPositive() && r.SGST.IsPositive()
	hasIgst := r.IGST18.IsPositive() || r.IGST28.IsPositive()
	return hasCgstSgst || hasIgst
}

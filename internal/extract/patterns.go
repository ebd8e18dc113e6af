package extract

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/entity"
)

// Field patterns for Indian GST invoices. Labels are matched
// case-insensitively because invoice layouts are wildly inconsistent about
// casing; the GSTIN grammar itself is strict.
var (
	reGSTIN       = regexp.MustCompile(`[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]`)
	reInvoiceNo   = regexp.MustCompile(`(?i)(?:Invoice (?:No|Number)|Bill No)[:\s]*([A-Z0-9/-]+)`)
	reInvoiceDate = regexp.MustCompile(`(?i)(?:Invoice Date|Date)[:\s]*(\d{2}[-./]\d{2}[-./]\d{4}|\d{2}-\w{3}-\d{4})`)
	reTaxable     = regexp.MustCompile(`(?i)(?:Taxable Value|Total Amount)[\s:]+₹?([\d,]+(?:\.\d{1,2})?)`)
	reTotal       = regexp.MustCompile(`(?i)(?:Total Invoice Value|Grand Total|TOTAL)[\s:]+₹?([\d,]+(?:\.\d{1,2})?)`)
	reCGST        = regexp.MustCompile(`(?i)CGST\s*(?:@\s*(\d+\.?\d*)\s*%)?[\s:]+₹?([\d,]+(?:\.\d{1,2})?)`)
	reSGST        = regexp.MustCompile(`(?i)SGST\s*(?:@\s*(\d+\.?\d*)\s*%)?[\s:]+₹?([\d,]+(?:\.\d{1,2})?)`)
	reIGST        = regexp.MustCompile(`(?i)IGST\s*(?:@\s*(\d+\.?\d*)\s*%)?[\s:]+₹?([\d,]+(?:\.\d{1,2})?)`)
	reHSN         = regexp.MustCompile(`(?i)HSN/SAC\s+(\d{4,8})`)

	reServiceWords = regexp.MustCompile(`(?i)labour|service charge`)
	reSpareWords   = regexp.MustCompile(`(?i)part|spare`)
)

// fieldRule binds one pattern to the record field it populates. The rule set
// is applied uniformly in order; adding a field is a table change, not new
// control flow.
type fieldRule struct {
	name  string
	re    *regexp.Regexp
	apply func(rec *entity.InvoiceRecord, m []string)
}

var fieldRules = []fieldRule{
	{
		name: "gstin",
		re:   reGSTIN,
		apply: func(rec *entity.InvoiceRecord, m []string) {
			// First occurrence wins: a document is assumed single-vendor.
			rec.GSTIN = m[0]
		},
	},
	{
		name: "bill_no",
		re:   reInvoiceNo,
		apply: func(rec *entity.InvoiceRecord, m []string) {
			rec.BillNo = m[1]
		},
	},
	{
		name: "date",
		re:   reInvoiceDate,
		apply: func(rec *entity.InvoiceRecord, m []string) {
			rec.Date = NormalizeDate(m[1])
		},
	},
	{
		name: "taxable_value",
		re:   reTaxable,
		apply: func(rec *entity.InvoiceRecord, m []string) {
			rec.TaxableValue = parseAmount(m[1])
		},
	},
	{
		name: "total_bill_value",
		re:   reTotal,
		apply: func(rec *entity.InvoiceRecord, m []string) {
			rec.TotalBillValue = parseAmount(m[1])
		},
	},
	{
		name: "cgst",
		re:   reCGST,
		apply: func(rec *entity.InvoiceRecord, m []string) {
			rec.CGSTRate = parseAmount(m[1])
			rec.CGST = parseAmount(m[2])
		},
	},
	{
		name: "sgst",
		re:   reSGST,
		apply: func(rec *entity.InvoiceRecord, m []string) {
			rec.SGSTRate = parseAmount(m[1])
			rec.SGST = parseAmount(m[2])
		},
	},
	{
		name: "igst",
		re:   reIGST,
		apply: func(rec *entity.InvoiceRecord, m []string) {
			rate := parseAmount(m[1])
			amount := parseAmount(m[2])
			// Amounts are bucketed by the statutory slab the invoice states;
			// any other rate leaves both buckets empty.
			switch {
			case rate.Equal(decimal.NewFromInt(constants.IGSTRate18)):
				rec.IGST18 = amount
			case rate.Equal(decimal.NewFromInt(constants.IGSTRate28)):
				rec.IGST28 = amount
			}
		},
	},
	{
		name: "hsn",
		re:   reHSN,
		apply: func(rec *entity.InvoiceRecord, m []string) {
			rec.HSN = m[1]
		},
	},
}

// parseAmount turns a currency-formatted capture into a decimal, stripping
// thousands separators. Empty or malformed input degrades to zero.
func parseAmount(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

package extract

import (
	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/entity"
)

const maxScore = 100

// rubricItem is one weighted criterion of the trust rubric. Weights sum
// to 100.
type rubricItem struct {
	name      string
	weight    int
	satisfied func(entity.InvoiceRecord) bool
}

// The tax-balance check carries 30 of the 100 points: a record whose taxable
// value plus taxes reconciles with its stated total almost certainly came
// from a coherent block of the invoice, which no single field presence can
// guarantee.
var rubric = []rubricItem{
	{"date", 10, func(r entity.InvoiceRecord) bool {
		return r.Date != ""
	}},
	{"gstin", 15, func(r entity.InvoiceRecord) bool {
		return r.GSTIN != "" && reGSTIN.MatchString(r.GSTIN)
	}},
	{"bill_no", 15, func(r entity.InvoiceRecord) bool {
		return r.BillNo != "" && r.BillNo != constants.NotAvailable
	}},
	{"taxable_value", 10, func(r entity.InvoiceRecord) bool {
		return r.TaxableValue.IsPositive()
	}},
	{"total_bill_value", 10, func(r entity.InvoiceRecord) bool {
		return r.TotalBillValue.IsPositive()
	}},
	{"classification", 5, func(r entity.InvoiceRecord) bool {
		return r.TxType != constants.TxUnknown
	}},
	{"hsn", 5, func(r entity.InvoiceRecord) bool {
		return r.HSN != "" && r.HSN != constants.NotAvailable
	}},
	{"tax_balance", 30, func(r entity.InvoiceRecord) bool {
		return r.HasTax() && r.TaxBalanced()
	}},
}

// Score assigns a 0-100 trust score to a rule-extracted record. Stateless;
// recompute whenever the record changes. The cap is structurally redundant
// given the weights but kept as a guard.
func Score(rec entity.InvoiceRecord) int {
	score := 0
	for _, item := range rubric {
		if item.satisfied(rec) {
			score += item.weight
		}
	}
	if score > maxScore {
		score = maxScore
	}
	return score
}

package pipeline

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/ai"
)

func TestFromAIResultSparesInvoice(t *testing.T) {
	res := ai.InvoiceResult{
		InvoiceType:       ai.InvoiceTypeSpares,
		InvoiceDate:       "2024-08-05",
		InvoiceNumber:     "INV-001",
		VendorName:        "Sharma Auto Spares",
		VendorGSTIN:       "27AAPFU0939F1ZV",
		TaxableAmount:     decimal.NewFromInt(10000),
		CGSTAmount:        decimal.NewFromInt(900),
		SGSTAmount:        decimal.NewFromInt(900),
		TotalInvoiceValue: decimal.NewFromInt(11800),
	}

	rec := FromAIResult(res)

	assert.Equal(t, constants.TxSale, rec.TxType)
	assert.Equal(t, "2024-08-05", rec.Date)
	assert.Equal(t, "27AAPFU0939F1ZV", rec.GSTIN)
	assert.Equal(t, "INV-001", rec.BillNo)
	assert.Equal(t, "Sharma Auto Spares", rec.VendorName)
	assert.Equal(t, constants.NotAvailable, rec.HSN)
	assert.Equal(t, 1, rec.Qty)
	assert.True(t, rec.TaxableValue.Equal(decimal.NewFromInt(10000)))
	assert.True(t, rec.CGST.Equal(decimal.NewFromInt(900)))
	assert.True(t, rec.SGST.Equal(decimal.NewFromInt(900)))
	assert.True(t, rec.CGSTRate.Equal(decimal.NewFromInt(9)))
	assert.True(t, rec.SGSTRate.Equal(decimal.NewFromInt(9)))
	assert.True(t, rec.TotalBillValue.Equal(decimal.NewFromInt(11800)))
}

func TestFromAIResultServiceInvoice(t *testing.T) {
	res := ai.InvoiceResult{
		InvoiceType:       ai.InvoiceTypeService,
		TaxableAmount:     decimal.NewFromInt(5000),
		TotalInvoiceValue: decimal.NewFromInt(5900),
	}
	rec := FromAIResult(res)
	assert.Equal(t, constants.TxServices, rec.TxType)
}

func TestFromAIResultUnrecognizedTypeDefaultsToServices(t *testing.T) {
	rec := FromAIResult(ai.InvoiceResult{InvoiceType: "Goods"})
	assert.Equal(t, constants.TxServices, rec.TxType)
}

func TestFromAIResultIGSTLandsInEighteenBucket(t *testing.T) {
	rec := FromAIResult(ai.InvoiceResult{
		InvoiceType: ai.InvoiceTypeSpares,
		IGSTAmount:  decimal.NewFromInt(1800),
	})
	assert.True(t, rec.IGST18.Equal(decimal.NewFromInt(1800)))
	assert.True(t, rec.IGST28.IsZero())
}

func TestFromAIResultRatesOnlyWhenAmountsPresent(t *testing.T) {
	rec := FromAIResult(ai.InvoiceResult{
		InvoiceType: ai.InvoiceTypeService,
		CGSTAmount:  decimal.NewFromInt(450),
	})
	assert.True(t, rec.CGSTRate.Equal(decimal.NewFromInt(constants.CGSTSGSTHalfRate)))
	assert.True(t, rec.SGSTRate.IsZero())
}

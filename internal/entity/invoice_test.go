package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestTaxBalanced(t *testing.T) {
	tests := []struct {
		name string
		rec  InvoiceRecord
		want bool
	}{
		{
			name: "exact",
			rec: InvoiceRecord{
				TaxableValue:   decimal.NewFromInt(1000),
				CGST:           decimal.NewFromInt(90),
				SGST:           decimal.NewFromInt(90),
				TotalBillValue: decimal.NewFromInt(1180),
			},
			want: true,
		},
		{
			name: "within one rupee",
			rec: InvoiceRecord{
				TaxableValue:   decimal.NewFromInt(1000),
				CGST:           decimal.NewFromInt(90),
				SGST:           decimal.NewFromInt(90),
				TotalBillValue: decimal.NewFromFloat(1180.50),
			},
			want: true,
		},
		{
			name: "off by one rupee exactly",
			rec: InvoiceRecord{
				TaxableValue:   decimal.NewFromInt(1000),
				CGST:           decimal.NewFromInt(90),
				SGST:           decimal.NewFromInt(90),
				TotalBillValue: decimal.NewFromInt(1181),
			},
			want: false,
		},
		{
			name: "igst counts toward the balance",
			rec: InvoiceRecord{
				TaxableValue:   decimal.NewFromInt(1000),
				IGST18:         decimal.NewFromInt(180),
				TotalBillValue: decimal.NewFromInt(1180),
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.TaxBalanced())
		})
	}
}

func TestHasTax(t *testing.T) {
	assert.False(t, InvoiceRecord{}.HasTax())
	assert.False(t, InvoiceRecord{CGST: decimal.NewFromInt(90)}.HasTax(),
		"one half of an intra-state split is not enough")
	assert.True(t, InvoiceRecord{
		CGST: decimal.NewFromInt(90),
		SGST: decimal.NewFromInt(90),
	}.HasTax())
	assert.True(t, InvoiceRecord{IGST18: decimal.NewFromInt(180)}.HasTax())
	assert.True(t, InvoiceRecord{IGST28: decimal.NewFromInt(280)}.HasTax())
}

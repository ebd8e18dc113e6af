package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/gst-automator/invoice-tracker/internal/entity"
	"github.com/gst-automator/invoice-tracker/internal/repository"
)

// Service is a tiny façade over the invoice repository that produces XLSX
// bytes for exports.
type Service struct {
	invoices repository.InvoiceRepository
	logger   *slog.Logger
}

func NewService(invoices repository.InvoiceRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{invoices: invoices, logger: logger}
}

// Column order mirrors the GST filing worksheet the records feed into.
var headers = []string{
	"Date",
	"GST No",
	"Bill No",
	"Sale/Services",
	"Vendor Name",
	"HSN",
	"Qty",
	"Taxable Value",
	"IGST 18%",
	"IGST 28%",
	"CGST Rate",
	"SGST Rate",
	"CGST",
	"SGST",
	"Total Bill Value",
	"Is Valid",
}

// ExportInvoicesXLSX returns an XLSX workbook (as bytes) with one row per
// accepted invoice plus a totals row over the amount columns.
func (s *Service) ExportInvoicesXLSX(ctx context.Context) ([]byte, error) {
	start := time.Now()

	recs, err := s.invoices.ListAccepted(ctx)
	if err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}

	f := excelize.NewFile()
	const sheet = "Invoices"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)
	_ = f.DeleteSheet("Sheet1")

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	write := func(col, row int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	totals := struct {
		taxable, igst18, igst28, cgst, sgst, total decimal.Decimal
	}{}

	row := 2
	for _, r := range recs {
		write(1, row, r.Date)
		write(2, row, r.GSTIN)
		write(3, row, r.BillNo)
		write(4, row, string(r.TxType))
		write(5, row, r.VendorName)
		write(6, row, r.HSN)
		write(7, row, r.Qty)
		write(8, row, amount(r.TaxableValue))
		write(9, row, amount(r.IGST18))
		write(10, row, amount(r.IGST28))
		write(11, row, amount(r.CGSTRate))
		write(12, row, amount(r.SGSTRate))
		write(13, row, amount(r.CGST))
		write(14, row, amount(r.SGST))
		write(15, row, amount(r.TotalBillValue))
		write(16, row, validLabel(r))

		totals.taxable = totals.taxable.Add(r.TaxableValue)
		totals.igst18 = totals.igst18.Add(r.IGST18)
		totals.igst28 = totals.igst28.Add(r.IGST28)
		totals.cgst = totals.cgst.Add(r.CGST)
		totals.sgst = totals.sgst.Add(r.SGST)
		totals.total = totals.total.Add(r.TotalBillValue)
		row++
	}

	if len(recs) > 0 {
		write(1, row, "TOTAL")
		write(8, row, amount(totals.taxable))
		write(9, row, amount(totals.igst18))
		write(10, row, amount(totals.igst28))
		write(13, row, amount(totals.cgst))
		write(14, row, amount(totals.sgst))
		write(15, row, amount(totals.total))
	}

	_ = f.SetColWidth(sheet, "A", "A", 12) // date
	_ = f.SetColWidth(sheet, "B", "B", 18) // gstin
	_ = f.SetColWidth(sheet, "C", "C", 16) // bill no
	_ = f.SetColWidth(sheet, "D", "D", 14)
	_ = f.SetColWidth(sheet, "E", "E", 28) // vendor
	_ = f.SetColWidth(sheet, "F", "G", 8)
	_ = f.SetColWidth(sheet, "H", "O", 14) // amounts
	_ = f.SetColWidth(sheet, "P", "P", 10)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

// amount renders decimals as floats so spreadsheet sums work on the cells.
func amount(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}

func validLabel(r entity.InvoiceRecord) string {
	if r.TaxBalanced() {
		return "Yes"
	}
	return "No"
}

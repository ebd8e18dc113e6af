package repository

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/gst-automator/invoice-tracker/internal/common"
	"github.com/gst-automator/invoice-tracker/internal/entity"
)

// InvoiceRepository reads accepted invoice records in submission order for
// export and summaries.
type InvoiceRepository interface {
	ListAccepted(ctx context.Context) ([]entity.InvoiceRecord, error)
}

type invoiceRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewInvoiceRepository(db *sql.DB, logger *slog.Logger) InvoiceRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &invoiceRepo{db: db, logger: logger}
}

func (r *invoiceRepo) ListAccepted(ctx context.Context) ([]entity.InvoiceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT i.invoice_date, i.gstin, i.bill_no, i.tx_type, i.vendor_name, i.hsn, i.qty,
			i.taxable_value, i.igst18, i.igst28, i.cgst_rate, i.sgst_rate, i.cgst, i.sgst,
			i.total_bill_value
		FROM invoices i
		JOIN entries e ON e.id = i.entry_id
		ORDER BY e.submitted_at`)
	if err != nil {
		r.logger.Error("failed to list invoices", "error", err)
		return nil, common.WrapError(err, "list invoices")
	}
	defer rows.Close()

	var out []entity.InvoiceRecord
	for rows.Next() {
		rec, err := scanInvoice(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan invoice")
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

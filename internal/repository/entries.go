package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/gst-automator/invoice-tracker/constants"
	"github.com/gst-automator/invoice-tracker/internal/common"
	"github.com/gst-automator/invoice-tracker/internal/entity"
)

// EntryRepository is the sole writer of processing entries. Status changes
// go through the lifecycle guards; acceptance into the fingerprint set
// happens only inside MarkSuccess.
type EntryRepository interface {
	Create(ctx context.Context, e *entity.ProcessingEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ProcessingEntry, error)
	List(ctx context.Context) ([]*entity.ProcessingEntry, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) error
	MarkDuplicateConflict(ctx context.Context, id uuid.UUID) error
	MarkFailure(ctx context.Context, id uuid.UUID, message string) error
	MarkSuccess(ctx context.Context, id uuid.UUID, rec entity.InvoiceRecord, confidence int, usedFallback bool) error
	// ResolveDuplicate applies the user decision on a DUPLICATE_CONFLICT
	// entry: keep re-enters the pipeline flagged keep-anyway, discard
	// removes the entry.
	ResolveDuplicate(ctx context.Context, id uuid.UUID, keep bool) error
	Delete(ctx context.Context, id uuid.UUID) error

	// IsAccepted reports whether a fingerprint belongs to an already
	// accepted (SUCCESS) entry. Satisfies dedup.Index.
	IsAccepted(ctx context.Context, fingerprint string) (bool, error)
}

type entryRepo struct {
	db     *sql.DB
	logger *slog.Logger
}

func NewEntryRepository(db *sql.DB, logger *slog.Logger) EntryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &entryRepo{db: db, logger: logger}
}

func (r *entryRepo) Create(ctx context.Context, e *entity.ProcessingEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	now := time.Now().UTC()
	if e.SubmittedAt.IsZero() {
		e.SubmittedAt = now
	}
	e.UpdatedAt = now
	if e.Status == "" {
		e.Status = constants.StatusPending
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO entries (id, filename, source_path, file_size, fingerprint, status,
			keep_anyway, submitted_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID.String(), e.Filename, e.SourcePath, e.FileSize, e.Fingerprint, string(e.Status),
		boolToInt(e.KeepAnyway), e.SubmittedAt.Format(time.RFC3339Nano), e.UpdatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Error("failed to create entry", "filename", e.Filename, "error", err)
		return common.WrapError(err, "create entry")
	}
	return nil
}

const entryColumns = `e.id, e.filename, e.source_path, e.file_size, e.fingerprint, e.status,
	e.keep_anyway, e.confidence, e.used_fallback, e.is_valid, e.error_message,
	e.submitted_at, e.updated_at`

func (r *entryRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ProcessingEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM entries e WHERE e.id = ?`, id.String())
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, common.WrapError(err, "get entry")
	}
	if e.Status == constants.StatusSuccess {
		rec, err := r.loadRecord(ctx, id)
		if err != nil {
			return nil, err
		}
		e.Record = rec
	}
	return e, nil
}

func (r *entryRepo) List(ctx context.Context) ([]*entity.ProcessingEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM entries e ORDER BY e.submitted_at`)
	if err != nil {
		return nil, common.WrapError(err, "list entries")
	}
	defer rows.Close()

	var out []*entity.ProcessingEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, common.WrapError(err, "scan entry")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *entryRepo) MarkProcessing(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, constants.StatusProcessing, func(tx *sql.Tx) error {
		return nil
	})
}

func (r *entryRepo) MarkDuplicateConflict(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, constants.StatusDuplicateConflict, func(tx *sql.Tx) error {
		return nil
	})
}

func (r *entryRepo) MarkFailure(ctx context.Context, id uuid.UUID, message string) error {
	return r.transition(ctx, id, constants.StatusError, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE entries SET error_message = ? WHERE id = ?`, message, id.String())
		return err
	})
}

// MarkSuccess records the accepted invoice and the entry outcome in one
// transaction. The moment it commits, the entry's fingerprint counts as
// accepted for duplicate detection.
func (r *entryRepo) MarkSuccess(ctx context.Context, id uuid.UUID, rec entity.InvoiceRecord, confidence int, usedFallback bool) error {
	return r.transition(ctx, id, constants.StatusSuccess, func(tx *sql.Tx) error {
		valid := rec.TaxBalanced()
		if _, err := tx.ExecContext(ctx, `
			UPDATE entries SET confidence = ?, used_fallback = ?, is_valid = ?
			WHERE id = ?`,
			confidence, boolToInt(usedFallback), boolToInt(valid), id.String()); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO invoices (entry_id, invoice_date, gstin, bill_no, tx_type, vendor_name,
				hsn, qty, taxable_value, igst18, igst28, cgst_rate, sgst_rate, cgst, sgst,
				total_bill_value, is_valid, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id.String(), rec.Date, rec.GSTIN, rec.BillNo, string(rec.TxType), rec.VendorName,
			rec.HSN, rec.Qty,
			rec.TaxableValue.String(), rec.IGST18.String(), rec.IGST28.String(),
			rec.CGSTRate.String(), rec.SGSTRate.String(), rec.CGST.String(), rec.SGST.String(),
			rec.TotalBillValue.String(), boolToInt(valid),
			time.Now().UTC().Format(time.RFC3339Nano),
		)
		return err
	})
}

func (r *entryRepo) ResolveDuplicate(ctx context.Context, id uuid.UUID, keep bool) error {
	if !keep {
		return r.Delete(ctx, id)
	}
	return r.transition(ctx, id, constants.StatusPending, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE entries SET keep_anyway = 1 WHERE id = ?`, id.String())
		return err
	})
}

func (r *entryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = ?`, id.String())
	if err != nil {
		return common.WrapError(err, "delete entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *entryRepo) IsAccepted(ctx context.Context, fingerprint string) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM entries WHERE fingerprint = ? AND status = ?`,
		fingerprint, string(constants.StatusSuccess)).Scan(&n)
	if err != nil {
		return false, common.WrapError(err, "fingerprint lookup")
	}
	return n > 0, nil
}

// transition moves an entry to a new status after checking the lifecycle
// rules, running extra writes in the same transaction.
func (r *entryRepo) transition(ctx context.Context, id uuid.UUID, to constants.EntryStatus, extra func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin transition")
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	if err := tx.QueryRowContext(ctx,
		`SELECT status FROM entries WHERE id = ?`, id.String()).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return common.ErrNotFound
		}
		return common.WrapError(err, "load entry status")
	}
	from := constants.EntryStatus(current)
	if !constants.CanTransition(from, to) {
		return common.NewAppError("INVALID_TRANSITION",
			fmt.Sprintf("entry %s: %s -> %s", id, from, to), common.ErrInvalidInput)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE entries SET status = ?, updated_at = ? WHERE id = ?`,
		string(to), time.Now().UTC().Format(time.RFC3339Nano), id.String()); err != nil {
		return common.WrapError(err, "update entry status")
	}
	if err := extra(tx); err != nil {
		return common.WrapError(err, "transition writes")
	}
	return tx.Commit()
}

func (r *entryRepo) loadRecord(ctx context.Context, id uuid.UUID) (*entity.InvoiceRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT invoice_date, gstin, bill_no, tx_type, vendor_name, hsn, qty,
			taxable_value, igst18, igst28, cgst_rate, sgst_rate, cgst, sgst, total_bill_value
		FROM invoices WHERE entry_id = ?`, id.String())
	rec, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, common.WrapError(err, "load invoice record")
	}
	return rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*entity.ProcessingEntry, error) {
	var (
		e                      entity.ProcessingEntry
		idStr, status          string
		keep, fallback, valid  int
		submittedAt, updatedAt string
	)
	if err := row.Scan(&idStr, &e.Filename, &e.SourcePath, &e.FileSize, &e.Fingerprint, &status,
		&keep, &e.Confidence, &fallback, &valid, &e.ErrorMessage,
		&submittedAt, &updatedAt); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}
	e.ID = id
	e.Status = constants.EntryStatus(status)
	e.KeepAnyway = keep != 0
	e.UsedFallback = fallback != 0
	e.IsValid = valid != 0
	if t, err := time.Parse(time.RFC3339Nano, submittedAt); err == nil {
		e.SubmittedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		e.UpdatedAt = t
	}
	return &e, nil
}

func scanInvoice(row rowScanner) (*entity.InvoiceRecord, error) {
	var (
		rec     entity.InvoiceRecord
		txType  string
		amounts [8]string
	)
	if err := row.Scan(&rec.Date, &rec.GSTIN, &rec.BillNo, &txType, &rec.VendorName,
		&rec.HSN, &rec.Qty,
		&amounts[0], &amounts[1], &amounts[2], &amounts[3],
		&amounts[4], &amounts[5], &amounts[6], &amounts[7]); err != nil {
		return nil, err
	}
	rec.TxType = constants.TxType(txType)

	targets := []*decimal.Decimal{
		&rec.TaxableValue, &rec.IGST18, &rec.IGST28, &rec.CGSTRate,
		&rec.SGSTRate, &rec.CGST, &rec.SGST, &rec.TotalBillValue,
	}
	for i, t := range targets {
		d, err := decimal.NewFromString(amounts[i])
		if err != nil {
			return nil, fmt.Errorf("decode stored amount %q: %w", amounts[i], err)
		}
		*t = d
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

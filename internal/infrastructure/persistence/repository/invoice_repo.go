package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/infrastructure/persistence/sqlite"
)

// InvoiceRepository implements port.InvoiceRepository
type InvoiceRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewInvoiceRepository creates a new invoice repository
func NewInvoiceRepository(db *sqlite.DB, logger *zap.Logger) port.InvoiceRepository {
	return &InvoiceRepository{
		db:     db,
		logger: logger,
	}
}

const invoiceColumns = `
	id, invoice_number, vendor_id, title, description, po_number,
	amount, currency, due_date, status, items,
	risk_tier, risk_score, risk_reason,
	file_url, file_name, file_type,
	reviewer_id, reviewer_notes, reviewed_at, approved_by, approved_at, paid_at,
	created_at, updated_at`

// Create inserts a new invoice record
func (r *InvoiceRepository) Create(ctx context.Context, inv *entity.Invoice) error {
	items, err := json.Marshal(inv.Items)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}

	query := `
		INSERT INTO invoices (
			id, invoice_number, vendor_id, title, description, po_number,
			amount, currency, due_date, status, items,
			file_url, file_name, file_type, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		inv.ID.String(),
		inv.InvoiceNumber,
		vendorIDValue(inv.VendorID),
		inv.Title,
		inv.Description,
		inv.PONumber,
		inv.Amount.String(),
		inv.Currency,
		inv.DueDate,
		string(inv.Status),
		string(items),
		inv.FileURL,
		inv.FileName,
		inv.FileType,
		inv.CreatedAt,
		inv.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create invoice", zap.Error(err))
		return fmt.Errorf("failed to create invoice: %w", err)
	}

	return nil
}

// GetByID retrieves an invoice by ID
func (r *InvoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE id = ?`

	row := r.db.Executor(ctx).QueryRowContext(ctx, query, id.String())
	inv, err := scanInvoice(row)
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	return inv, nil
}

// List retrieves invoices matching the filter, newest first
func (r *InvoiceRepository) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	args := []interface{}{}
	conditions := []string{}

	if filter.Status != "" {
		conditions = append(conditions, `status = ?`)
		args = append(args, string(filter.Status))
	}
	if filter.Unassessed {
		conditions = append(conditions, `risk_tier IS NULL`)
	}
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query += ` LIMIT ? OFFSET ?`
	args = append(args, limit, filter.Offset)

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	defer rows.Close()

	var invoices []*entity.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		invoices = append(invoices, inv)
	}
	return invoices, rows.Err()
}

// CountByStatus returns the number of invoices in each status
func (r *InvoiceRepository) CountByStatus(ctx context.Context) (map[entity.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM invoices GROUP BY status`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count invoices: %w", err)
	}
	defer rows.Close()

	counts := make(map[entity.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[entity.Status(status)] = n
	}
	return counts, rows.Err()
}

// UpdateRisk writes the three risk fields together
func (r *InvoiceRepository) UpdateRisk(ctx context.Context, id uuid.UUID, a *entity.RiskAssessment) error {
	query := `
		UPDATE invoices
		SET risk_tier = ?, risk_score = ?, risk_reason = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		string(a.Tier), a.Score, a.Reason, time.Now(), id.String())
	if err != nil {
		r.logger.Error("Failed to update risk fields", zap.Error(err))
		return fmt.Errorf("failed to update risk fields: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// TransitionStatus persists the status change and reviewer fields,
// guarded by the expected current status. Losing the race returns
// entity.ErrConcurrentModification without touching the row.
func (r *InvoiceRepository) TransitionStatus(ctx context.Context, inv *entity.Invoice, expectedFrom entity.Status) error {
	query := `
		UPDATE invoices
		SET status = ?, reviewer_id = ?, reviewer_notes = ?, reviewed_at = ?,
			approved_by = ?, approved_at = ?, paid_at = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		string(inv.Status),
		inv.ReviewerID,
		inv.ReviewerNotes,
		inv.ReviewedAt,
		inv.ApprovedBy,
		inv.ApprovedAt,
		inv.PaidAt,
		inv.UpdatedAt,
		inv.ID.String(),
		string(expectedFrom),
	)
	if err != nil {
		r.logger.Error("Failed to transition invoice", zap.Error(err))
		return fmt.Errorf("failed to transition invoice: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		// Either the row is gone or someone moved it first.
		if _, getErr := r.GetByID(ctx, inv.ID); getErr != nil {
			return getErr
		}
		return entity.ErrConcurrentModification
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInvoice(s scanner) (*entity.Invoice, error) {
	var inv entity.Invoice
	var (
		id, amount, status string
		vendorID           sql.NullString
		items              []byte
		dueDate            sql.NullTime
		riskTier           sql.NullString
		riskScore          sql.NullFloat64
		riskReason         sql.NullString
		reviewerID         sql.NullString
		reviewerNotes      sql.NullString
		reviewedAt         sql.NullTime
		approvedBy         sql.NullString
		approvedAt         sql.NullTime
		paidAt             sql.NullTime
	)

	err := s.Scan(
		&id, &inv.InvoiceNumber, &vendorID, &inv.Title, &inv.Description, &inv.PONumber,
		&amount, &inv.Currency, &dueDate, &status, &items,
		&riskTier, &riskScore, &riskReason,
		&inv.FileURL, &inv.FileName, &inv.FileType,
		&reviewerID, &reviewerNotes, &reviewedAt, &approvedBy, &approvedAt, &paidAt,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	inv.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse invoice id: %w", err)
	}
	if vendorID.Valid && vendorID.String != "" {
		inv.VendorID, err = uuid.Parse(vendorID.String)
		if err != nil {
			return nil, fmt.Errorf("parse vendor id: %w", err)
		}
	}
	inv.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	inv.Status = entity.Status(status)
	if len(items) > 0 {
		if err := json.Unmarshal(items, &inv.Items); err != nil {
			return nil, fmt.Errorf("unmarshal line items: %w", err)
		}
	}
	if dueDate.Valid {
		inv.DueDate = &dueDate.Time
	}
	if riskTier.Valid {
		inv.RiskTier = entity.RiskTier(riskTier.String)
	}
	if riskScore.Valid {
		score := riskScore.Float64
		inv.RiskScore = &score
	}
	inv.RiskReason = riskReason.String
	inv.ReviewerID = reviewerID.String
	inv.ReviewerNotes = reviewerNotes.String
	if reviewedAt.Valid {
		inv.ReviewedAt = &reviewedAt.Time
	}
	inv.ApprovedBy = approvedBy.String
	if approvedAt.Valid {
		inv.ApprovedAt = &approvedAt.Time
	}
	if paidAt.Valid {
		inv.PaidAt = &paidAt.Time
	}
	return &inv, nil
}

func vendorIDValue(id uuid.UUID) interface{} {
	if id == uuid.Nil {
		return nil
	}
	return id.String()
}

// Verify interface compliance
var _ port.InvoiceRepository = (*InvoiceRepository)(nil)

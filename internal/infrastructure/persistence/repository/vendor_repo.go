package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/infrastructure/persistence/sqlite"
)

// VendorRepository implements port.VendorRepository
type VendorRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewVendorRepository creates a new vendor repository
func NewVendorRepository(db *sqlite.DB, logger *zap.Logger) port.VendorRepository {
	return &VendorRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new vendor record
func (r *VendorRepository) Create(ctx context.Context, v *entity.Vendor) error {
	query := `
		INSERT INTO vendors (id, name, code, contact, risk_status, total_spend, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		v.ID.String(), v.Name, v.Code, v.Contact, v.RiskStatus,
		v.TotalSpend.String(), v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create vendor", zap.Error(err))
		return fmt.Errorf("failed to create vendor: %w", err)
	}
	return nil
}

// GetByID retrieves a vendor by ID
func (r *VendorRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Vendor, error) {
	query := `
		SELECT id, name, code, contact, risk_status, total_spend, created_at, updated_at
		FROM vendors
		WHERE id = ?
	`

	v, err := r.scanVendor(r.db.Executor(ctx).QueryRowContext(ctx, query, id.String()))
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return v, nil
}

// List retrieves vendors ordered by name
func (r *VendorRepository) List(ctx context.Context, limit, offset int) ([]*entity.Vendor, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT id, name, code, contact, risk_status, total_spend, created_at, updated_at
		FROM vendors
		ORDER BY name ASC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	defer rows.Close()

	var vendors []*entity.Vendor
	for rows.Next() {
		v, err := r.scanVendor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (r *VendorRepository) scanVendor(s scanner) (*entity.Vendor, error) {
	var v entity.Vendor
	var id, totalSpend string

	err := s.Scan(&id, &v.Name, &v.Code, &v.Contact, &v.RiskStatus, &totalSpend, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}

	v.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse vendor id: %w", err)
	}
	v.TotalSpend, err = decimal.NewFromString(totalSpend)
	if err != nil {
		return nil, fmt.Errorf("parse total spend: %w", err)
	}
	return &v, nil
}

// Verify interface compliance
var _ port.VendorRepository = (*VendorRepository)(nil)

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/infrastructure/persistence/sqlite"
)

// PurchaseOrderRepository implements port.PurchaseOrderRepository
type PurchaseOrderRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewPurchaseOrderRepository creates a new purchase order repository
func NewPurchaseOrderRepository(db *sqlite.DB, logger *zap.Logger) port.PurchaseOrderRepository {
	return &PurchaseOrderRepository{
		db:     db,
		logger: logger,
	}
}

// GetByNumber retrieves a purchase order by its business number
func (r *PurchaseOrderRepository) GetByNumber(ctx context.Context, number string) (*entity.PurchaseOrder, error) {
	query := `
		SELECT id, number, vendor_id, vendor_name, order_date, total_amount, currency, status, items
		FROM purchase_orders
		WHERE number = ?
	`

	var po entity.PurchaseOrder
	var id, totalAmount string
	var vendorID sql.NullString
	var items []byte

	err := r.db.Executor(ctx).QueryRowContext(ctx, query, number).Scan(
		&id, &po.Number, &vendorID, &po.VendorName, &po.Date,
		&totalAmount, &po.Currency, &po.Status, &items,
	)
	if err == sql.ErrNoRows {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		r.logger.Error("Failed to get purchase order", zap.String("number", number), zap.Error(err))
		return nil, fmt.Errorf("failed to get purchase order: %w", err)
	}

	po.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse purchase order id: %w", err)
	}
	if vendorID.Valid && vendorID.String != "" {
		po.VendorID, err = uuid.Parse(vendorID.String)
		if err != nil {
			return nil, fmt.Errorf("parse vendor id: %w", err)
		}
	}
	po.TotalAmount, err = decimal.NewFromString(totalAmount)
	if err != nil {
		return nil, fmt.Errorf("parse total amount: %w", err)
	}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &po.Items); err != nil {
			return nil, fmt.Errorf("unmarshal line items: %w", err)
		}
	}
	return &po, nil
}

// Verify interface compliance
var _ port.PurchaseOrderRepository = (*PurchaseOrderRepository)(nil)

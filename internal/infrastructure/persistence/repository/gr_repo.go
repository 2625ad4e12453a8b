package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/infrastructure/persistence/sqlite"
)

// GoodsReceiptRepository implements port.GoodsReceiptRepository
type GoodsReceiptRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewGoodsReceiptRepository creates a new goods receipt repository
func NewGoodsReceiptRepository(db *sqlite.DB, logger *zap.Logger) port.GoodsReceiptRepository {
	return &GoodsReceiptRepository{
		db:     db,
		logger: logger,
	}
}

// ListByPONumber retrieves all receipts recorded against a purchase order
func (r *GoodsReceiptRepository) ListByPONumber(ctx context.Context, poNumber string) ([]*entity.GoodsReceipt, error) {
	query := `
		SELECT id, number, po_number, po_id, received_date, received_by, currency, items
		FROM goods_receipts
		WHERE po_number = ?
		ORDER BY received_date ASC, id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, poNumber)
	if err != nil {
		r.logger.Error("Failed to list goods receipts", zap.String("po_number", poNumber), zap.Error(err))
		return nil, fmt.Errorf("failed to list goods receipts: %w", err)
	}
	defer rows.Close()

	var receipts []*entity.GoodsReceipt
	for rows.Next() {
		var gr entity.GoodsReceipt
		var id, poID string
		var items []byte
		if err := rows.Scan(&id, &gr.Number, &gr.PONumber, &poID, &gr.Date, &gr.ReceivedBy, &gr.Currency, &items); err != nil {
			return nil, fmt.Errorf("failed to scan goods receipt: %w", err)
		}
		gr.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("parse goods receipt id: %w", err)
		}
		gr.POID, err = uuid.Parse(poID)
		if err != nil {
			return nil, fmt.Errorf("parse purchase order id: %w", err)
		}
		if len(items) > 0 {
			if err := json.Unmarshal(items, &gr.Items); err != nil {
				return nil, fmt.Errorf("unmarshal receipt lines: %w", err)
			}
		}
		receipts = append(receipts, &gr)
	}
	return receipts, rows.Err()
}

// Verify interface compliance
var _ port.GoodsReceiptRepository = (*GoodsReceiptRepository)(nil)

package port

import (
	"context"

	"github.com/google/uuid"

	"github.com/procureflow/invoiceflow/internal/domain/entity"
)

// InvoiceFilter narrows invoice listings.
type InvoiceFilter struct {
	Status entity.Status

	// Unassessed selects invoices the risk gateway has not scored yet.
	Unassessed bool

	Limit  int
	Offset int
}

// InvoiceRepository defines persistence operations for Invoice.
// Invoices are financial records and are never hard-deleted.
type InvoiceRepository interface {
	Create(ctx context.Context, inv *entity.Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]*entity.Invoice, error)
	CountByStatus(ctx context.Context) (map[entity.Status]int, error)

	// UpdateRisk sets the risk fields, which are written together exactly
	// once shortly after creation.
	UpdateRisk(ctx context.Context, id uuid.UUID, a *entity.RiskAssessment) error

	// TransitionStatus persists the invoice's status and reviewer fields,
	// conditioned on the stored status still matching expectedFrom.
	// Returns entity.ErrConcurrentModification when the precondition no
	// longer holds.
	TransitionStatus(ctx context.Context, inv *entity.Invoice, expectedFrom entity.Status) error
}

// PurchaseOrderRepository reads purchase orders owned by the ERP collaborator.
type PurchaseOrderRepository interface {
	GetByNumber(ctx context.Context, number string) (*entity.PurchaseOrder, error)
}

// GoodsReceiptRepository reads goods receipts owned by the ERP collaborator.
type GoodsReceiptRepository interface {
	ListByPONumber(ctx context.Context, poNumber string) ([]*entity.GoodsReceipt, error)
}

// VendorRepository defines persistence operations for Vendor.
type VendorRepository interface {
	Create(ctx context.Context, v *entity.Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Vendor, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Vendor, error)
}

// AuditRepository is the append-only audit trail writer and reader.
// Entries are immutable: the interface deliberately has no update or
// delete operations.
type AuditRepository interface {
	Append(ctx context.Context, e *entity.AuditEntry) error

	// ListByEntity returns the trail for one entity in insertion order.
	ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error)

	// ListRecent returns the most recent entries across all entities,
	// newest first.
	ListRecent(ctx context.Context, limit int) ([]*entity.AuditEntry, error)
}

// TransactionManager executes a function within a database transaction.
// Nested calls reuse the enclosing transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

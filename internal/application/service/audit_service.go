package service

import (
	"context"
	"fmt"

	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
)

// AuditService reads the append-only audit trail. There is deliberately
// no write surface here; entries are appended by the services that own
// the actions being recorded.
type AuditService interface {
	Trail(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error)
	Recent(ctx context.Context, limit int) ([]*entity.AuditEntry, error)
}

type auditServiceImpl struct {
	auditRepo port.AuditRepository
	logger    Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(auditRepo port.AuditRepository, logger Logger) AuditService {
	return &auditServiceImpl{auditRepo: auditRepo, logger: logger}
}

// Trail returns every entry for one entity in insertion order.
func (s *auditServiceImpl) Trail(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error) {
	if entityType != entity.EntityTypeInvoice && entityType != entity.EntityTypeVendor {
		return nil, entity.NewValidationError("entity_type", fmt.Sprintf("unknown entity type %q", entityType))
	}
	if entityID == "" {
		return nil, entity.NewValidationError("entity_id", "required")
	}
	return s.auditRepo.ListByEntity(ctx, entityType, entityID)
}

// Recent returns the newest entries across all entities, newest first.
func (s *auditServiceImpl) Recent(ctx context.Context, limit int) ([]*entity.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	return s.auditRepo.ListRecent(ctx, limit)
}

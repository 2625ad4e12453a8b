package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/infrastructure/persistence/sqlite"
)

// AuditRepository implements port.AuditRepository. The audit_trail table
// is append-only; this type deliberately issues no UPDATE or DELETE.
type AuditRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit trail repository
func NewAuditRepository(db *sqlite.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Append inserts a new audit entry
func (r *AuditRepository) Append(ctx context.Context, e *entity.AuditEntry) error {
	details, err := json.Marshal(e.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}

	query := `
		INSERT INTO audit_trail (entity_type, entity_id, action, details, performed_by, performed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		e.EntityType, e.EntityID, e.Action, string(details), e.PerformedBy, e.PerformedAt,
	)
	if err != nil {
		r.logger.Error("Failed to append audit entry", zap.Error(err))
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// ListByEntity returns the trail for one entity in insertion order
func (r *AuditRepository) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error) {
	query := `
		SELECT id, entity_type, entity_id, action, details, performed_by, performed_at
		FROM audit_trail
		WHERE entity_type = ? AND entity_id = ?
		ORDER BY id ASC
	`
	return r.queryEntries(ctx, query, entityType, entityID)
}

// ListRecent returns the most recent entries across all entities, newest first
func (r *AuditRepository) ListRecent(ctx context.Context, limit int) ([]*entity.AuditEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	query := `
		SELECT id, entity_type, entity_id, action, details, performed_by, performed_at
		FROM audit_trail
		ORDER BY id DESC
		LIMIT ?
	`
	return r.queryEntries(ctx, query, limit)
}

func (r *AuditRepository) queryEntries(ctx context.Context, query string, args ...interface{}) ([]*entity.AuditEntry, error) {
	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit trail: %w", err)
	}
	defer rows.Close()

	var entries []*entity.AuditEntry
	for rows.Next() {
		var e entity.AuditEntry
		var details []byte
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.Action, &details, &e.PerformedBy, &e.PerformedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &e.Details); err != nil {
				return nil, fmt.Errorf("unmarshal details: %w", err)
			}
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)

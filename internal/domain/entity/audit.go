package entity

import "time"

// AuditEntry is an immutable append-only audit trail record. Entries are
// never updated or deleted; per-entity insertion order is preserved.
type AuditEntry struct {
	ID          int64                  `json:"id"`
	EntityType  string                 `json:"entity_type"`
	EntityID    string                 `json:"entity_id"`
	Action      string                 `json:"action"`
	Details     map[string]interface{} `json:"details"`
	PerformedBy string                 `json:"performed_by"`
	PerformedAt time.Time              `json:"performed_at"`
}

// Entity type constants for audit entries
const (
	EntityTypeInvoice = "invoice"
	EntityTypeVendor  = "vendor"
)

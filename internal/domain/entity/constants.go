package entity

// Status is the lifecycle status of an invoice.
type Status string

// Status constants for Invoice
const (
	StatusUploaded    Status = "uploaded"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusPaid        Status = "paid"
)

var validStatuses = map[Status]bool{
	StatusUploaded:    true,
	StatusUnderReview: true,
	StatusApproved:    true,
	StatusRejected:    true,
	StatusPaid:        true,
}

// IsValid returns true if the status is a known invoice status.
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// RiskTier is the coarse fraud-risk classification for an invoice.
// The empty string means "not assessed", which is distinct from low.
type RiskTier string

const (
	RiskTierLow    RiskTier = "low"
	RiskTierMedium RiskTier = "medium"
	RiskTierHigh   RiskTier = "high"
)

// IsValid returns true if the tier is one of low/medium/high.
func (t RiskTier) IsValid() bool {
	return t == RiskTierLow || t == RiskTierMedium || t == RiskTierHigh
}

// PurchaseOrder status constants
const (
	POStatusPending  = "pending"
	POStatusPartial  = "partial"
	POStatusReceived = "received"
)

// GoodsReceipt per-line status constants
const (
	ReceiptLineComplete = "complete"
	ReceiptLinePartial  = "partial"
	ReceiptLineShort    = "short"
)

// Vendor risk status constants
const (
	VendorRiskNormal  = "normal"
	VendorRiskWatch   = "watch"
	VendorRiskBlocked = "blocked"
)

// Audit action constants
const (
	AuditActionInvoiceCreated = "invoice_created"
	AuditActionRiskAssessed   = "ai_risk_assessment"
	AuditActionVendorCreated  = "vendor_created"
)

// AuditActionForStatus returns the audit trail action tag recorded when
// an invoice is manually transitioned to the given status.
func AuditActionForStatus(s Status) string {
	return "manual_" + string(s)
}
